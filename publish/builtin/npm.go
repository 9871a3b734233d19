package builtin

import (
	"context"
	"strings"

	"github.com/input-output-hk/catalyst-forge-release/ecosystem"
	"github.com/input-output-hk/catalyst-forge-release/executor"
	"github.com/input-output-hk/catalyst-forge-release/publish"
)

// NPM publishes to the npm registry through the npm CLI.
type NPM struct {
	npm *executor.Tool
}

// NewNPM creates the npm publisher.
func NewNPM(runner executor.Runner) *NPM {
	return &NPM{npm: executor.NewTool(runner, "npm")}
}

// Name implements publish.Publisher.
func (*NPM) Name() string { return "npm" }

// DisplayName implements publish.Publisher.
func (*NPM) DisplayName() string { return "npm" }

// Registry implements publish.Publisher.
func (n *NPM) Registry() string { return "npmjs.org" }

// ShouldPublish implements publish.Publisher.
func (n *NPM) ShouldPublish(ctx context.Context, pctx *publish.Context) bool {
	if !pctx.Config.PublisherEnabled(n.Name()) {
		return false
	}
	return ecosystem.NewNPM(pctx.FS).Detect()
}

// Publish implements publish.Publisher.
func (n *NPM) Publish(ctx context.Context, pctx *publish.Context) publish.Result {
	pkg, err := ecosystem.NewNPM(pctx.FS).PackageName()
	if err != nil {
		return publish.Failedf("failed to read package name: %v", err)
	}

	cfg := pctx.Config.Publishers.NPM
	args := []string{"publish", "--access", cfg.Access}
	if cfg.Registry != "" {
		args = append(args, "--registry", cfg.Registry)
	}
	if cfg.DistTag != "" {
		args = append(args, "--tag", cfg.DistTag)
	}

	if pctx.DryRun {
		return publish.Successf("would publish %s@%s to %s", pkg, pctx.Version, n.Registry())
	}

	if _, err := n.npm.RunWith(ctx, args, executor.WithWorkingDir(pctx.ProjectRoot)); err != nil {
		return publish.Failedf("npm publish failed: %v", err)
	}

	result := publish.Successf("published %s@%s", pkg, pctx.Version)
	result.PackageURL = "https://www.npmjs.com/package/" + pkg
	return result
}

// Verify implements publish.Publisher.
func (n *NPM) Verify(ctx context.Context, pctx *publish.Context) bool {
	pkg, err := ecosystem.NewNPM(pctx.FS).PackageName()
	if err != nil {
		return false
	}

	args := []string{"view", pkg + "@" + pctx.Version, "version"}
	if registry := pctx.Config.Publishers.NPM.Registry; registry != "" {
		args = append(args, "--registry", registry)
	}

	result, err := n.npm.RunWith(ctx, args, executor.WithWorkingDir(pctx.ProjectRoot))
	if err != nil {
		return false
	}
	return strings.TrimSpace(result.Stdout) == pctx.Version
}

// CanRollback implements publish.Publisher. npm is append-only; deprecate is
// the degraded alternative.
func (*NPM) CanRollback() bool { return false }

// Rollback implements publish.Publisher. It deprecates the published version.
func (n *NPM) Rollback(ctx context.Context, pctx *publish.Context) publish.Result {
	pkg, err := ecosystem.NewNPM(pctx.FS).PackageName()
	if err != nil {
		return publish.Failedf("failed to read package name: %v", err)
	}

	spec := pkg + "@" + pctx.Version
	if pctx.DryRun {
		return publish.Successf("would deprecate %s", spec)
	}

	args := []string{"deprecate", spec, "release " + pctx.Version + " was rolled back"}
	if _, err := n.npm.RunWith(ctx, args, executor.WithWorkingDir(pctx.ProjectRoot)); err != nil {
		return publish.Failedf("npm deprecate failed: %v", err)
	}
	return publish.Successf("deprecated %s", spec)
}
