// Package git provides the release git operations.
// This file contains tag operations: creation, deletion, and release queries.
package git

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CreateTag creates a tag at the specified target revision. When message is
// non-empty an annotated tag object is created with who as the tagger;
// otherwise a lightweight tag. The target can be any valid revision
// specifier (commit hash, branch name, HEAD).
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) CreateTag(ctx context.Context, name, target, message string, who Signature) error {
	if name == "" {
		return WrapError(ErrInvalidRef, "tag name cannot be empty")
	}

	if target == "" {
		return WrapError(ErrInvalidRef, "target revision cannot be empty")
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(target))
	if err != nil {
		return WrapErrorf(ErrResolveFailed, "failed to resolve target revision %q", target)
	}

	tagRefName := plumbing.NewTagReferenceName(name)
	if _, err := r.repo.Reference(tagRefName, true); err == nil {
		return WrapErrorf(ErrTagExists, "tag %q already exists", name)
	}

	if message != "" {
		_, err = r.repo.CreateTag(name, *hash, &gogit.CreateTagOptions{
			Tagger: &object.Signature{
				Name:  who.Name,
				Email: who.Email,
				When:  who.whenOrNow(),
			},
			Message: message,
		})
		if err != nil {
			return WrapError(err, "failed to create annotated tag")
		}
		return nil
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(tagRefName, *hash)); err != nil {
		return WrapError(err, "failed to create lightweight tag")
	}

	return nil
}

// DeleteTag deletes the specified tag from the local repository.
// Returns ErrTagMissing if the tag does not exist.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) DeleteTag(ctx context.Context, name string) error {
	if name == "" {
		return WrapError(ErrInvalidRef, "tag name cannot be empty")
	}

	tagRefName := plumbing.NewTagReferenceName(name)
	if _, err := r.repo.Reference(tagRefName, true); err != nil {
		return WrapErrorf(ErrTagMissing, "tag %q does not exist", name)
	}

	if err := r.repo.Storer.RemoveReference(tagRefName); err != nil {
		return WrapError(err, "failed to delete tag")
	}

	return nil
}

// TagExists reports whether the named tag exists in the local repository.
func (r *Repo) TagExists(ctx context.Context, name string) (bool, error) {
	_, err := r.repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	return false, WrapErrorf(err, "failed to look up tag %q", name)
}

// Tags returns all local tag names with the given prefix, sorted
// alphabetically. An empty prefix returns every tag.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Tags(ctx context.Context, prefix string) ([]string, error) {
	refs, err := r.repo.References()
	if err != nil {
		return nil, WrapError(err, "failed to get references")
	}

	var tags []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsTag() {
			return nil
		}
		name := ref.Name().Short()
		if strings.HasPrefix(name, prefix) {
			tags = append(tags, name)
		}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to iterate references")
	}

	sort.Strings(tags)
	return tags, nil
}

// LatestTag returns the highest release tag carrying the given prefix,
// ordered by semantic version rather than alphabetically (so v1.10.0 beats
// v1.9.0). Tags whose remainder after the prefix does not parse as a
// version are ignored. Returns ErrNoTags when no release tag exists.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) LatestTag(ctx context.Context, prefix string) (string, error) {
	tags, err := r.Tags(ctx, prefix)
	if err != nil {
		return "", err
	}

	var (
		best        string
		bestVersion *semver.Version
	)
	for _, tag := range tags {
		v, parseErr := semver.NewVersion(strings.TrimPrefix(tag, prefix))
		if parseErr != nil {
			continue
		}
		if bestVersion == nil || v.GreaterThan(bestVersion) {
			best, bestVersion = tag, v
		}
	}

	if best == "" {
		return "", ErrNoTags
	}
	return best, nil
}
