// Package git provides the release git operations.
// This file contains remote operations: pushes and remote tag queries.
package git

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// PushBranch pushes the named branch to the remote.
// Returns ErrAlreadyUpToDate when the remote already has the commits and
// ErrNotFastForward when the push would overwrite remote history.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) PushBranch(ctx context.Context, remote, branch string) error {
	if branch == "" {
		return WrapError(ErrInvalidRef, "branch name cannot be empty")
	}
	spec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)
	return r.push(ctx, remote, config.RefSpec(spec))
}

// PushTag pushes a single tag to the remote.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) PushTag(ctx context.Context, remote, tag string) error {
	if tag == "" {
		return WrapError(ErrInvalidRef, "tag name cannot be empty")
	}
	spec := fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag)
	return r.push(ctx, remote, config.RefSpec(spec))
}

// DeleteRemoteTag removes a tag from the remote by pushing an empty source
// refspec. Used by rollback to reverse a pushed release tag.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) DeleteRemoteTag(ctx context.Context, remote, tag string) error {
	if tag == "" {
		return WrapError(ErrInvalidRef, "tag name cannot be empty")
	}
	spec := fmt.Sprintf(":refs/tags/%s", tag)
	return r.push(ctx, remote, config.RefSpec(spec))
}

func (r *Repo) push(ctx context.Context, remote string, spec config.RefSpec) error {
	if remote == "" {
		remote = DefaultRemoteName
	}

	auth, err := r.authFor(remote)
	if err != nil {
		return err
	}

	err = r.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{spec},
		Auth:       auth,
	})
	if err != nil {
		switch {
		case errors.Is(err, gogit.ErrRemoteNotFound):
			return WrapErrorf(ErrResolveFailed, "remote %q not found", remote)
		case errors.Is(err, gogit.NoErrAlreadyUpToDate):
			return ErrAlreadyUpToDate
		case errors.Is(err, gogit.ErrNonFastForwardUpdate):
			return ErrNotFastForward
		default:
			return WrapErrorf(err, "failed to push %s to %s", spec, remote)
		}
	}

	return nil
}

// RemoteTagExists reports whether the named tag exists on the remote.
// It lists remote references over the network, so an unreachable remote is
// an error rather than "absent".
//
// Context timeout/cancellation is honored during the list operation.
func (r *Repo) RemoteTagExists(ctx context.Context, remote, tag string) (bool, error) {
	if remote == "" {
		remote = DefaultRemoteName
	}

	rem, err := r.repo.Remote(remote)
	if err != nil {
		return false, WrapErrorf(ErrResolveFailed, "remote %q not found", remote)
	}

	auth, err := r.authFor(remote)
	if err != nil {
		return false, err
	}

	refs, err := rem.ListContext(ctx, &gogit.ListOptions{Auth: auth})
	if err != nil {
		return false, WrapErrorf(err, "failed to list references on remote %q", remote)
	}

	want := plumbing.NewTagReferenceName(tag)
	for _, ref := range refs {
		if ref.Name() == want {
			return true, nil
		}
	}
	return false, nil
}
