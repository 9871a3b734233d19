package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/publish"
)

var workspaceFiles = map[string]string{
	"Cargo.toml": `[workspace]
members = ["crates/proto", "crates/core", "crates/cli"]
`,
	"crates/proto/Cargo.toml": `[package]
name = "demo-proto"
version = "1.2.3"
`,
	"crates/core/Cargo.toml": `[package]
name = "demo-core"
version = "1.2.3"

[dependencies]
demo-proto = { path = "../proto" }
serde = "1"
`,
	"crates/cli/Cargo.toml": `[package]
name = "demo-cli"
version = "1.2.3"

[dependencies]
demo-core = { path = "../core" }
demo-proto = { path = "../proto" }
`,
}

var singleCrateFiles = map[string]string{
	"Cargo.toml": `[package]
name = "demo"
version = "1.2.3"
`,
}

func newCratesPublisher(runner *fakeRunner) *Crates {
	return NewCrates(runner, WithCratesPause(func(time.Duration) {}))
}

func TestCratesShouldPublish(t *testing.T) {
	runner := &fakeRunner{}
	p := newCratesPublisher(runner)

	t.Run("applies to cargo projects", func(t *testing.T) {
		pctx := newPublishContext(t, singleCrateFiles)
		assert.True(t, p.ShouldPublish(context.Background(), pctx))
	})

	t.Run("skips non-cargo projects", func(t *testing.T) {
		pctx := newPublishContext(t, map[string]string{"package.json": "{}"})
		assert.False(t, p.ShouldPublish(context.Background(), pctx))
	})

	t.Run("honors the enable flag", func(t *testing.T) {
		pctx := newPublishContext(t, singleCrateFiles)
		disabled := false
		pctx.Config.Publishers.Crates.Enabled = &disabled
		assert.False(t, p.ShouldPublish(context.Background(), pctx))
	})
}

func TestCratesPublish(t *testing.T) {
	t.Run("single crate", func(t *testing.T) {
		runner := &fakeRunner{}
		pctx := newPublishContext(t, singleCrateFiles)

		result := newCratesPublisher(runner).Publish(context.Background(), pctx)

		assert.Equal(t, publish.StatusSuccess, result.Status)
		assert.Equal(t, []string{"cargo publish --package demo"}, runner.calls)
		assert.Equal(t, "https://crates.io/crates/demo", result.PackageURL)
	})

	t.Run("workspace publishes in dependency order", func(t *testing.T) {
		runner := &fakeRunner{}
		pctx := newPublishContext(t, workspaceFiles)

		result := newCratesPublisher(runner).Publish(context.Background(), pctx)

		assert.Equal(t, publish.StatusSuccess, result.Status)
		assert.Equal(t, []string{
			"cargo publish --package demo-proto",
			"cargo publish --package demo-core",
			"cargo publish --package demo-cli",
		}, runner.calls)
	})

	t.Run("member failure yanks published members in reverse", func(t *testing.T) {
		runner := &fakeRunner{failOn: "cargo publish --package demo-cli"}
		pctx := newPublishContext(t, workspaceFiles)

		result := newCratesPublisher(runner).Publish(context.Background(), pctx)

		assert.Equal(t, publish.StatusFailed, result.Status)
		assert.Contains(t, result.Message, "demo-cli")
		assert.Equal(t, []string{
			"cargo yank --version 1.2.3 demo-core",
			"cargo yank --version 1.2.3 demo-proto",
		}, runner.callsWithPrefix("cargo yank"))
		assert.Equal(t, "demo-core, demo-proto", result.Details["yanked"])
	})

	t.Run("dry run publishes nothing", func(t *testing.T) {
		runner := &fakeRunner{}
		pctx := newPublishContext(t, workspaceFiles)
		pctx.DryRun = true

		result := newCratesPublisher(runner).Publish(context.Background(), pctx)

		assert.Equal(t, publish.StatusSuccess, result.Status)
		assert.Contains(t, result.Message, "would publish")
		assert.Empty(t, runner.calls)
	})

	t.Run("alternate registry propagates", func(t *testing.T) {
		runner := &fakeRunner{}
		pctx := newPublishContext(t, singleCrateFiles)
		pctx.Config.Publishers.Crates.Registry = "internal"

		newCratesPublisher(runner).Publish(context.Background(), pctx)

		assert.Equal(t,
			[]string{"cargo publish --package demo --registry internal"},
			runner.calls)
	})
}

func TestCratesVerify(t *testing.T) {
	t.Run("index shows the version", func(t *testing.T) {
		runner := &fakeRunner{stdoutOn: map[string]string{
			"cargo search demo": `demo = "1.2.3"    # a demo crate`,
		}}
		pctx := newPublishContext(t, singleCrateFiles)

		assert.True(t, newCratesPublisher(runner).Verify(context.Background(), pctx))
	})

	t.Run("index still shows the old version", func(t *testing.T) {
		runner := &fakeRunner{stdoutOn: map[string]string{
			"cargo search demo": `demo = "1.2.2"    # a demo crate`,
		}}
		pctx := newPublishContext(t, singleCrateFiles)

		assert.False(t, newCratesPublisher(runner).Verify(context.Background(), pctx))
	})
}

func TestCratesRollback(t *testing.T) {
	runner := &fakeRunner{}
	pctx := newPublishContext(t, workspaceFiles)
	p := newCratesPublisher(runner)

	require.False(t, p.CanRollback())

	result := p.Rollback(context.Background(), pctx)

	assert.Equal(t, publish.StatusSuccess, result.Status)
	assert.Len(t, runner.callsWithPrefix("cargo yank"), 3)
}
