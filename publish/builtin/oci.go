package builtin

import (
	"context"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5/util"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/input-output-hk/catalyst-forge-release/publish"
)

// bundleArtifactType identifies a release artifact bundle manifest.
const bundleArtifactType = "application/vnd.catalyst.release.bundle.v1"

// ociLayer is one artifact file pushed as a manifest layer.
type ociLayer struct {
	Name      string
	MediaType string
	Data      []byte
}

// ociRegistry abstracts the registry operations so tests run without a
// network. The default implementation speaks ORAS.
type ociRegistry interface {
	// Push uploads the layers, packs a manifest around them, and tags it.
	Push(ctx context.Context, reference, tag string, layers []ociLayer, annotations map[string]string) error

	// Resolve reports whether the tag exists on the registry.
	Resolve(ctx context.Context, reference, tag string) bool
}

// OCI bundles the configured artifact files into an OCI manifest and pushes
// it to the configured repository reference, tagged with the release tag.
type OCI struct {
	publish.NoRollback

	registry ociRegistry
}

// NewOCI creates the OCI bundle publisher. A nil registry uses ORAS with the
// default Docker credential chain.
func NewOCI(registry ociRegistry) *OCI {
	if registry == nil {
		registry = &orasRegistry{}
	}
	return &OCI{registry: registry}
}

// Name implements publish.Publisher.
func (*OCI) Name() string { return "oci" }

// DisplayName implements publish.Publisher.
func (*OCI) DisplayName() string { return "OCI bundle" }

// Registry implements publish.Publisher.
func (o *OCI) Registry() string { return "oci" }

// ShouldPublish implements publish.Publisher.
func (o *OCI) ShouldPublish(ctx context.Context, pctx *publish.Context) bool {
	if !pctx.Config.PublisherEnabled(o.Name()) {
		return false
	}
	return pctx.Config.Publishers.OCI.Reference != ""
}

// Publish implements publish.Publisher.
func (o *OCI) Publish(ctx context.Context, pctx *publish.Context) publish.Result {
	cfg := pctx.Config.Publishers.OCI

	files, err := expandArtifacts(pctx.FS, cfg.Artifacts)
	if err != nil {
		return publish.Failedf("failed to resolve bundle artifacts: %v", err)
	}
	if len(files) == 0 {
		return publish.Failed("no artifacts configured for the bundle")
	}

	reference := cfg.Reference
	if pctx.DryRun {
		return publish.Successf("would push %d artifact(s) to %s:%s", len(files), reference, pctx.TagName)
	}

	layers := make([]ociLayer, 0, len(files))
	for _, file := range files {
		data, readErr := util.ReadFile(pctx.FS, file)
		if readErr != nil {
			return publish.Failedf("failed to read artifact %s: %v", file, readErr)
		}
		layers = append(layers, ociLayer{
			Name:      path.Base(file),
			MediaType: mimetype.Detect(data).String(),
			Data:      data,
		})
	}

	annotations := map[string]string{
		ocispec.AnnotationVersion: pctx.Version,
		ocispec.AnnotationRefName: pctx.TagName,
	}
	if err := o.registry.Push(ctx, reference, pctx.TagName, layers, annotations); err != nil {
		return publish.Failedf("failed to push bundle: %v", err)
	}

	result := publish.Successf("pushed %d artifact(s) to %s:%s", len(files), reference, pctx.TagName)
	result.RegistryURL = reference
	return result
}

// Verify implements publish.Publisher.
func (o *OCI) Verify(ctx context.Context, pctx *publish.Context) bool {
	return o.registry.Resolve(ctx, pctx.Config.Publishers.OCI.Reference, pctx.TagName)
}

// orasRegistry is the real registry client. Credentials come from the
// ambient Docker credential chain.
type orasRegistry struct{}

func (*orasRegistry) Push(ctx context.Context, reference, tag string, layers []ociLayer, annotations map[string]string) error {
	repo, err := newRepository(reference)
	if err != nil {
		return err
	}

	descs := make([]ocispec.Descriptor, 0, len(layers))
	for _, layer := range layers {
		desc, pushErr := oras.PushBytes(ctx, repo, layer.MediaType, layer.Data)
		if pushErr != nil {
			return pushErr
		}
		if desc.Annotations == nil {
			desc.Annotations = make(map[string]string)
		}
		desc.Annotations[ocispec.AnnotationTitle] = layer.Name
		descs = append(descs, desc)
	}

	manifest, err := oras.PackManifest(ctx, repo, oras.PackManifestVersion1_1, bundleArtifactType,
		oras.PackManifestOptions{
			Layers:              descs,
			ManifestAnnotations: annotations,
		})
	if err != nil {
		return err
	}

	_, err = oras.Tag(ctx, repo, manifest.Digest.String(), tag)
	return err
}

func (*orasRegistry) Resolve(ctx context.Context, reference, tag string) bool {
	repo, err := newRepository(reference)
	if err != nil {
		return false
	}
	_, err = repo.Resolve(ctx, tag)
	return err == nil
}

// newRepository builds an authenticated remote repository for a reference
// without a tag part.
func newRepository(reference string) (*remote.Repository, error) {
	repo, err := remote.NewRepository(strings.TrimSuffix(reference, "/"))
	if err != nil {
		return nil, err
	}
	repo.Client = auth.DefaultClient
	return repo, nil
}
