package builtin

import (
	"context"
	"strings"

	"github.com/input-output-hk/catalyst-forge-release/executor"
	"github.com/input-output-hk/catalyst-forge-release/publish"
)

// GitHubRelease creates a hosted release for the tag through the gh CLI,
// attaching the configured assets and the generated notes.
type GitHubRelease struct {
	gh *executor.Tool
}

// NewGitHubRelease creates the GitHub release publisher.
func NewGitHubRelease(runner executor.Runner) *GitHubRelease {
	return &GitHubRelease{gh: executor.NewTool(runner, "gh")}
}

// Name implements publish.Publisher.
func (*GitHubRelease) Name() string { return "github" }

// DisplayName implements publish.Publisher.
func (*GitHubRelease) DisplayName() string { return "GitHub release" }

// Registry implements publish.Publisher.
func (g *GitHubRelease) Registry() string { return "github.com" }

// ShouldPublish implements publish.Publisher.
func (g *GitHubRelease) ShouldPublish(ctx context.Context, pctx *publish.Context) bool {
	return pctx.Config.PublisherEnabled(g.Name())
}

// Publish implements publish.Publisher. Release notes go through stdin so
// they never hit the argument list or a temp file.
func (g *GitHubRelease) Publish(ctx context.Context, pctx *publish.Context) publish.Result {
	cfg := pctx.Config.Publishers.GitHub

	assets, err := expandArtifacts(pctx.FS, cfg.Assets)
	if err != nil {
		return publish.Failedf("failed to resolve release assets: %v", err)
	}

	if pctx.DryRun {
		return publish.Successf("would create release %s with %d asset(s)", pctx.TagName, len(assets))
	}

	args := []string{"release", "create", pctx.TagName, "--title", pctx.TagName, "--notes-file", "-"}
	if cfg.Draft {
		args = append(args, "--draft")
	}
	if cfg.Prerelease {
		args = append(args, "--prerelease")
	}
	args = append(args, assets...)

	_, err = g.gh.RunWith(ctx, args,
		executor.WithWorkingDir(pctx.ProjectRoot),
		executor.WithStdin(pctx.ReleaseNotes),
	)
	if err != nil {
		return publish.Failedf("gh release create failed: %v", err)
	}

	result := publish.Successf("created release %s with %d asset(s)", pctx.TagName, len(assets))
	result.PackageURL = g.releaseURL(ctx, pctx)
	return result
}

// Verify implements publish.Publisher.
func (g *GitHubRelease) Verify(ctx context.Context, pctx *publish.Context) bool {
	_, err := g.gh.RunWith(ctx, []string{"release", "view", pctx.TagName},
		executor.WithWorkingDir(pctx.ProjectRoot))
	return err == nil
}

// CanRollback implements publish.Publisher. A hosted release record can be
// deleted outright.
func (*GitHubRelease) CanRollback() bool { return true }

// Rollback implements publish.Publisher.
func (g *GitHubRelease) Rollback(ctx context.Context, pctx *publish.Context) publish.Result {
	if pctx.DryRun {
		return publish.Successf("would delete release %s", pctx.TagName)
	}

	args := []string{"release", "delete", pctx.TagName, "--yes"}
	if _, err := g.gh.RunWith(ctx, args, executor.WithWorkingDir(pctx.ProjectRoot)); err != nil {
		return publish.Failedf("gh release delete failed: %v", err)
	}
	return publish.Successf("deleted release %s", pctx.TagName)
}

func (g *GitHubRelease) releaseURL(ctx context.Context, pctx *publish.Context) string {
	result, err := g.gh.RunWith(ctx,
		[]string{"release", "view", pctx.TagName, "--json", "url", "--jq", ".url"},
		executor.WithWorkingDir(pctx.ProjectRoot))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(result.Stdout)
}
