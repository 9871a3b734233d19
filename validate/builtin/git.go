package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/git"
	"github.com/input-output-hk/catalyst-forge-release/validate"
)

// CleanWorktree blocks a release while the worktree has uncommitted or
// untracked changes.
type CleanWorktree struct{}

// Name implements validate.Validator.
func (*CleanWorktree) Name() string { return "clean-worktree" }

// DisplayName implements validate.Validator.
func (*CleanWorktree) DisplayName() string { return "Clean worktree" }

// Category implements validate.Validator.
func (*CleanWorktree) Category() validate.Category { return validate.CategoryGit }

// ShouldRun implements validate.Validator.
func (v *CleanWorktree) ShouldRun(ctx context.Context, vctx *validate.Context) bool {
	return !skipped(vctx, v.Name())
}

// Validate implements validate.Validator.
func (v *CleanWorktree) Validate(ctx context.Context, vctx *validate.Context) validate.Result {
	if vctx.Repo == nil {
		return validate.Fail("project root is not a git repository")
	}

	clean, err := vctx.Repo.IsClean(ctx)
	if err != nil {
		return validate.Failf("failed to read worktree status: %v", err)
	}
	if clean {
		return validate.Pass("worktree is clean")
	}

	files, err := vctx.Repo.DirtyFiles(ctx)
	if err != nil {
		return validate.Fail("worktree has uncommitted changes")
	}
	return validate.Failf("worktree has %d uncommitted change(s)", len(files)).
		WithDetails(files...).
		WithFix("git stash --include-untracked")
}

// Branch blocks a release cut from any branch other than the configured one.
type Branch struct{}

// Name implements validate.Validator.
func (*Branch) Name() string { return "release-branch" }

// DisplayName implements validate.Validator.
func (*Branch) DisplayName() string { return "Release branch" }

// Category implements validate.Validator.
func (*Branch) Category() validate.Category { return validate.CategoryGit }

// ShouldRun implements validate.Validator. The check only applies when the
// configuration pins a release branch.
func (v *Branch) ShouldRun(ctx context.Context, vctx *validate.Context) bool {
	if skipped(vctx, v.Name()) {
		return false
	}
	return vctx.Config != nil && vctx.Config.Git.Branch != ""
}

// Validate implements validate.Validator.
func (v *Branch) Validate(ctx context.Context, vctx *validate.Context) validate.Result {
	if vctx.Repo == nil {
		return validate.Fail("project root is not a git repository")
	}

	current, err := vctx.Repo.CurrentBranch(ctx)
	if err != nil {
		return validate.Failf("failed to resolve current branch: %v", err)
	}

	want := vctx.Config.Git.Branch
	if current != want {
		return validate.Failf("releases are cut from %q, currently on %q", want, current).
			WithFix("git checkout " + want)
	}
	return validate.Pass("on release branch " + want)
}

// TagCollision blocks a release whose tag already exists locally.
type TagCollision struct{}

// Name implements validate.Validator.
func (*TagCollision) Name() string { return "tag-collision" }

// DisplayName implements validate.Validator.
func (*TagCollision) DisplayName() string { return "Tag collision" }

// Category implements validate.Validator.
func (*TagCollision) Category() validate.Category { return validate.CategoryVersion }

// ShouldRun implements validate.Validator. Requires the target version to
// be known already.
func (v *TagCollision) ShouldRun(ctx context.Context, vctx *validate.Context) bool {
	return !skipped(vctx, v.Name()) && vctx.Version != "" && vctx.Config != nil
}

// Validate implements validate.Validator.
func (v *TagCollision) Validate(ctx context.Context, vctx *validate.Context) validate.Result {
	if vctx.Repo == nil {
		return validate.Fail("project root is not a git repository")
	}

	tag := vctx.Config.TagFor(vctx.Version)
	exists, err := vctx.Repo.TagExists(ctx, tag)
	if err != nil {
		return validate.Failf("failed to look up tag %s: %v", tag, err)
	}
	if exists {
		return validate.Failf("tag %s already exists", tag).
			WithFix("git tag -d " + tag)
	}

	remote := vctx.Config.Git.Remote
	onRemote, err := vctx.Repo.RemoteTagExists(ctx, remote, tag)
	switch {
	case errors.Is(err, git.ErrResolveFailed):
		// No such remote configured; the local check is all there is.
	case err != nil:
		return validate.Warn("tag " + tag + " is free locally; remote unreachable for the collision check")
	case onRemote:
		return validate.Failf("tag %s already exists on %s", tag, remote).
			WithFix(fmt.Sprintf("git push %s :refs/tags/%s", remote, tag))
	}
	return validate.Pass("tag " + tag + " is free")
}

// joinDetails renders a short comma list for messages; full lists go in
// Details.
func joinDetails(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + ", …"
}
