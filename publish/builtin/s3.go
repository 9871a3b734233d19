package builtin

import (
	"bytes"
	"context"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-release/publish"
)

// s3API is the slice of the AWS SDK S3 client the publisher uses. Tests
// substitute a fake.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 uploads the configured artifact files to an S3 bucket under a
// per-release key prefix.
type S3 struct {
	client  s3API
	once    sync.Once
	initErr error
}

// NewS3 creates the S3 artifacts publisher. A nil client is built lazily
// from the default AWS credential chain on first use, so merely registering
// the publisher never touches AWS configuration.
func NewS3(client s3API) *S3 {
	return &S3{client: client}
}

// Name implements publish.Publisher.
func (*S3) Name() string { return "s3" }

// DisplayName implements publish.Publisher.
func (*S3) DisplayName() string { return "S3 artifacts" }

// Registry implements publish.Publisher.
func (s *S3) Registry() string { return "s3" }

// ShouldPublish implements publish.Publisher.
func (s *S3) ShouldPublish(ctx context.Context, pctx *publish.Context) bool {
	if !pctx.Config.PublisherEnabled(s.Name()) {
		return false
	}
	return pctx.Config.Publishers.S3.Bucket != ""
}

func (s *S3) api(ctx context.Context, region string) (s3API, error) {
	s.once.Do(func() {
		if s.client != nil {
			return
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			s.initErr = err
			return
		}
		if region != "" {
			cfg.Region = region
		}
		s.client = s3.NewFromConfig(cfg)
	})
	return s.client, s.initErr
}

// keys maps each configured artifact file to its destination object key.
func (s *S3) keys(pctx *publish.Context) (map[string]string, error) {
	cfg := pctx.Config.Publishers.S3

	files, err := expandArtifacts(pctx.FS, cfg.Artifacts)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(files))
	for _, file := range files {
		out[file] = path.Join(cfg.Prefix, pctx.TagName, path.Base(file))
	}
	return out, nil
}

// Publish implements publish.Publisher.
func (s *S3) Publish(ctx context.Context, pctx *publish.Context) publish.Result {
	cfg := pctx.Config.Publishers.S3

	keys, err := s.keys(pctx)
	if err != nil {
		return publish.Failedf("failed to resolve artifacts: %v", err)
	}
	if len(keys) == 0 {
		return publish.Failed("no artifacts configured for upload")
	}

	if pctx.DryRun {
		return publish.Successf("would upload %d artifact(s) to s3://%s/%s",
			len(keys), cfg.Bucket, path.Join(cfg.Prefix, pctx.TagName))
	}

	api, err := s.api(ctx, cfg.Region)
	if err != nil {
		return publish.Failedf("failed to initialize AWS client: %v", err)
	}

	for file, key := range keys {
		data, readErr := util.ReadFile(pctx.FS, file)
		if readErr != nil {
			return publish.Failedf("failed to read artifact %s: %v", file, readErr)
		}

		_, putErr := api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(mimetype.Detect(data).String()),
		})
		if putErr != nil {
			return publish.Failedf("failed to upload %s: %v", key, putErr)
		}
	}

	result := publish.Successf("uploaded %d artifact(s) to s3://%s/%s",
		len(keys), cfg.Bucket, path.Join(cfg.Prefix, pctx.TagName))
	result.RegistryURL = "s3://" + cfg.Bucket
	return result
}

// Verify implements publish.Publisher. Every uploaded object must answer a
// HEAD request.
func (s *S3) Verify(ctx context.Context, pctx *publish.Context) bool {
	cfg := pctx.Config.Publishers.S3

	keys, err := s.keys(pctx)
	if err != nil || len(keys) == 0 {
		return false
	}

	api, err := s.api(ctx, cfg.Region)
	if err != nil {
		return false
	}

	for _, key := range keys {
		_, headErr := api.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(key),
		})
		if headErr != nil {
			return false
		}
	}
	return true
}

// CanRollback implements publish.Publisher. Uploaded objects can be deleted.
func (*S3) CanRollback() bool { return true }

// Rollback implements publish.Publisher. It deletes the release's objects,
// best-effort, and fails when any deletion failed.
func (s *S3) Rollback(ctx context.Context, pctx *publish.Context) publish.Result {
	cfg := pctx.Config.Publishers.S3

	keys, err := s.keys(pctx)
	if err != nil {
		return publish.Failedf("failed to resolve artifacts: %v", err)
	}

	if pctx.DryRun {
		return publish.Successf("would delete %d object(s) from s3://%s", len(keys), cfg.Bucket)
	}

	api, err := s.api(ctx, cfg.Region)
	if err != nil {
		return publish.Failedf("failed to initialize AWS client: %v", err)
	}

	var failed []string
	for _, key := range keys {
		_, delErr := api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(key),
		})
		if delErr != nil {
			failed = append(failed, key)
		}
	}

	if len(failed) > 0 {
		return publish.Failedf("failed to delete %d object(s)", len(failed)).
			WithDetail("keys", strings.Join(failed, ", "))
	}
	return publish.Successf("deleted %d object(s) from s3://%s", len(keys), cfg.Bucket)
}
