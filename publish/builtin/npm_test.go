package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/publish"
)

var npmFiles = map[string]string{
	"package.json": `{
  "name": "@demo/widget",
  "version": "1.2.3"
}
`,
}

func TestNPMShouldPublish(t *testing.T) {
	p := NewNPM(&fakeRunner{})

	t.Run("applies to npm projects", func(t *testing.T) {
		pctx := newPublishContext(t, npmFiles)
		assert.True(t, p.ShouldPublish(context.Background(), pctx))
	})

	t.Run("skips projects without package.json", func(t *testing.T) {
		pctx := newPublishContext(t, singleCrateFiles)
		assert.False(t, p.ShouldPublish(context.Background(), pctx))
	})
}

func TestNPMPublish(t *testing.T) {
	t.Run("publishes with configured access", func(t *testing.T) {
		runner := &fakeRunner{}
		pctx := newPublishContext(t, npmFiles)

		result := NewNPM(runner).Publish(context.Background(), pctx)

		assert.Equal(t, publish.StatusSuccess, result.Status)
		assert.Equal(t, []string{"npm publish --access public --tag latest"}, runner.calls)
		assert.Equal(t, "https://www.npmjs.com/package/@demo/widget", result.PackageURL)
	})

	t.Run("alternate registry and dist tag propagate", func(t *testing.T) {
		runner := &fakeRunner{}
		pctx := newPublishContext(t, npmFiles)
		pctx.Config.Publishers.NPM.Registry = "https://npm.internal"
		pctx.Config.Publishers.NPM.DistTag = "next"

		NewNPM(runner).Publish(context.Background(), pctx)

		assert.Equal(t,
			[]string{"npm publish --access public --registry https://npm.internal --tag next"},
			runner.calls)
	})

	t.Run("dry run publishes nothing", func(t *testing.T) {
		runner := &fakeRunner{}
		pctx := newPublishContext(t, npmFiles)
		pctx.DryRun = true

		result := NewNPM(runner).Publish(context.Background(), pctx)

		assert.Equal(t, publish.StatusSuccess, result.Status)
		assert.Empty(t, runner.calls)
	})

	t.Run("failure surfaces", func(t *testing.T) {
		runner := &fakeRunner{failOn: "npm publish"}
		pctx := newPublishContext(t, npmFiles)

		result := NewNPM(runner).Publish(context.Background(), pctx)

		assert.Equal(t, publish.StatusFailed, result.Status)
	})
}

func TestNPMVerify(t *testing.T) {
	t.Run("registry shows the version", func(t *testing.T) {
		runner := &fakeRunner{stdoutOn: map[string]string{
			"npm view @demo/widget@1.2.3 version": "1.2.3\n",
		}}
		pctx := newPublishContext(t, npmFiles)

		assert.True(t, NewNPM(runner).Verify(context.Background(), pctx))
	})

	t.Run("registry does not know the version", func(t *testing.T) {
		runner := &fakeRunner{failOn: "npm view"}
		pctx := newPublishContext(t, npmFiles)

		assert.False(t, NewNPM(runner).Verify(context.Background(), pctx))
	})
}

func TestNPMRollback(t *testing.T) {
	runner := &fakeRunner{}
	pctx := newPublishContext(t, npmFiles)
	p := NewNPM(runner)

	require.False(t, p.CanRollback())

	result := p.Rollback(context.Background(), pctx)

	assert.Equal(t, publish.StatusSuccess, result.Status)
	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0], "npm deprecate @demo/widget@1.2.3")
}
