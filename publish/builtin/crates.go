package builtin

import (
	"context"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-release/ecosystem"
	"github.com/input-output-hk/catalyst-forge-release/executor"
	"github.com/input-output-hk/catalyst-forge-release/publish"
)

// Crates publishes to crates.io (or an alternate cargo registry) through the
// cargo CLI. Workspaces are published member by member in dependency order;
// a mid-batch failure yanks the already-published members.
type Crates struct {
	cargo *executor.Tool
	pause func(time.Duration)
}

// CratesOption configures the Crates publisher.
type CratesOption func(*Crates)

// WithCratesPause overrides the inter-member pause function. Tests inject a
// no-op.
func WithCratesPause(pause func(time.Duration)) CratesOption {
	return func(c *Crates) {
		c.pause = pause
	}
}

// NewCrates creates the crates.io publisher.
func NewCrates(runner executor.Runner, opts ...CratesOption) *Crates {
	c := &Crates{
		cargo: executor.NewTool(runner, "cargo"),
		pause: time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements publish.Publisher.
func (*Crates) Name() string { return "crates" }

// DisplayName implements publish.Publisher.
func (*Crates) DisplayName() string { return "crates.io" }

// Registry implements publish.Publisher.
func (c *Crates) Registry() string { return "crates.io" }

// ShouldPublish implements publish.Publisher.
func (c *Crates) ShouldPublish(ctx context.Context, pctx *publish.Context) bool {
	if !pctx.Config.PublisherEnabled(c.Name()) {
		return false
	}
	return ecosystem.NewCargo(pctx.FS).Detect()
}

// Publish implements publish.Publisher.
func (c *Crates) Publish(ctx context.Context, pctx *publish.Context) publish.Result {
	crates, err := ecosystem.NewCargo(pctx.FS).Workspace()
	if err != nil {
		return publish.Failedf("failed to read cargo workspace: %v", err)
	}

	members := make([]publish.Member, len(crates))
	for i, crate := range crates {
		members[i] = publish.Member{
			Name:         crate.Name,
			Path:         crate.Path,
			Dependencies: crate.Dependencies,
		}
	}

	ordered, err := publish.Order(members)
	if err != nil {
		return publish.Failedf("cannot order workspace publish: %v", err)
	}

	if pctx.DryRun {
		names := memberNames(ordered)
		return publish.Successf("would publish %s to %s", strings.Join(names, ", "), c.Registry())
	}

	var published []publish.Member
	for i, member := range ordered {
		if i > 0 {
			c.pause(pctx.Config.Publishers.Crates.IndexPause.Std())
		}

		if err := c.publishMember(ctx, pctx, member); err != nil {
			yanked := c.yank(ctx, pctx, published)
			result := publish.Failedf("failed to publish %s: %v", member.Name, err)
			if len(yanked) > 0 {
				result = result.WithDetail("yanked", strings.Join(yanked, ", "))
			}
			return result
		}
		published = append(published, member)
	}

	result := publish.Successf("published %d crate(s) at %s", len(published), pctx.Version)
	result.PackageURL = c.packageURL(published)
	return result
}

func (c *Crates) publishMember(ctx context.Context, pctx *publish.Context, member publish.Member) error {
	args := []string{"publish", "--package", member.Name}
	args = c.withRegistry(pctx, args)

	_, err := c.cargo.RunWith(ctx, args, executor.WithWorkingDir(pctx.ProjectRoot))
	return err
}

// yank removes the already-published members in reverse order, best-effort.
// Returns the names that were actually yanked.
func (c *Crates) yank(ctx context.Context, pctx *publish.Context, published []publish.Member) []string {
	var yanked []string
	for i := len(published) - 1; i >= 0; i-- {
		member := published[i]
		args := []string{"yank", "--version", pctx.Version, member.Name}
		args = c.withRegistry(pctx, args)

		if _, err := c.cargo.RunWith(ctx, args, executor.WithWorkingDir(pctx.ProjectRoot)); err == nil {
			yanked = append(yanked, member.Name)
		}
	}
	return yanked
}

// Verify implements publish.Publisher. It asks the registry index through
// cargo search; the index lags publishes, so a miss means "not yet".
func (c *Crates) Verify(ctx context.Context, pctx *publish.Context) bool {
	crates, err := ecosystem.NewCargo(pctx.FS).Workspace()
	if err != nil || len(crates) == 0 {
		return false
	}

	for _, crate := range crates {
		args := []string{"search", crate.Name, "--limit", "1"}
		args = c.withRegistry(pctx, args)

		result, err := c.cargo.RunWith(ctx, args, executor.WithWorkingDir(pctx.ProjectRoot))
		if err != nil {
			return false
		}
		if !strings.Contains(result.Stdout, crate.Name+` = "`+pctx.Version+`"`) {
			return false
		}
	}
	return true
}

// CanRollback implements publish.Publisher. crates.io is append-only; yank
// is the degraded alternative.
func (*Crates) CanRollback() bool { return false }

// Rollback implements publish.Publisher. It yanks every workspace member at
// the released version.
func (c *Crates) Rollback(ctx context.Context, pctx *publish.Context) publish.Result {
	crates, err := ecosystem.NewCargo(pctx.FS).Workspace()
	if err != nil {
		return publish.Failedf("failed to read cargo workspace: %v", err)
	}

	if pctx.DryRun {
		return publish.Successf("would yank version %s", pctx.Version)
	}

	members := make([]publish.Member, len(crates))
	for i, crate := range crates {
		members[i] = publish.Member{Name: crate.Name}
	}

	yanked := c.yank(ctx, pctx, members)
	if len(yanked) < len(members) {
		return publish.Failedf("yanked %d of %d crate(s)", len(yanked), len(members)).
			WithDetail("yanked", strings.Join(yanked, ", "))
	}
	return publish.Successf("yanked version %s of %d crate(s)", pctx.Version, len(yanked))
}

func (c *Crates) withRegistry(pctx *publish.Context, args []string) []string {
	if registry := pctx.Config.Publishers.Crates.Registry; registry != "" {
		return append(args, "--registry", registry)
	}
	return args
}

func (c *Crates) packageURL(published []publish.Member) string {
	if len(published) == 1 {
		return "https://crates.io/crates/" + published[0].Name
	}
	return ""
}

func memberNames(members []publish.Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}
