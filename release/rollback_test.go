package release

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/publish"
)

func newRollback(t *testing.T, repo *fakeRepo, publishers ...publish.Publisher) *Rollback {
	t.Helper()

	opts := newTestOptions(t, repo, publishers...)
	r, err := NewRollback("1.0.1", opts)
	require.NoError(t, err)
	return r
}

func TestRollbackRun(t *testing.T) {
	t.Run("deletes local and remote tags", func(t *testing.T) {
		repo := &fakeRepo{}
		r := newRollback(t, repo)

		report := r.Run(context.Background())

		assert.True(t, report.Clean())
		assert.Equal(t, []string{"DeleteTag v1.0.1"}, repo.callsWithPrefix("DeleteTag"))
		assert.Equal(t, []string{"DeleteRemoteTag origin v1.0.1"}, repo.callsWithPrefix("DeleteRemoteTag"))
	})

	t.Run("rolls back rollback-capable publishers", func(t *testing.T) {
		repo := &fakeRepo{}
		pub := &stubPublisher{name: "github", canRollback: true}
		r := newRollback(t, repo, pub)

		report := r.Run(context.Background())

		assert.True(t, report.Clean())
		assert.Equal(t, 1, pub.rollbackCalls)
	})

	t.Run("skipped rollback becomes a manual step", func(t *testing.T) {
		repo := &fakeRepo{}
		pub := &stubPublisher{
			name:     "oci",
			rollback: publish.Skipped("registry does not support rollback"),
		}
		r := newRollback(t, repo, pub)

		report := r.Run(context.Background())

		assert.False(t, report.Clean())
		require.Len(t, report.Manual, 1)
		assert.Contains(t, report.Manual[0], "oci")
	})

	t.Run("failed cleanup keeps going and reports manual steps", func(t *testing.T) {
		repo := &fakeRepo{failOn: "DeleteTag"}
		pub := &stubPublisher{name: "github", canRollback: true}
		r := newRollback(t, repo, pub)

		report := r.Run(context.Background())

		assert.False(t, report.Clean())
		require.NotEmpty(t, report.Manual)
		assert.Contains(t, report.Manual[0], "git tag -d v1.0.1")
		// Later cleanup still ran.
		assert.NotEmpty(t, repo.callsWithPrefix("DeleteRemoteTag"))
		assert.Equal(t, 1, pub.rollbackCalls)
	})

	t.Run("dry run touches nothing", func(t *testing.T) {
		repo := &fakeRepo{}
		pub := &stubPublisher{name: "github", canRollback: true}
		opts := newTestOptions(t, repo, pub)
		opts.DryRun = true
		r, err := NewRollback("1.0.1", opts)
		require.NoError(t, err)

		report := r.Run(context.Background())

		assert.Empty(t, repo.calls)
		for _, s := range report.Steps[:2] {
			assert.Contains(t, s.Message, "would")
		}
	})

	t.Run("missing version rejected", func(t *testing.T) {
		opts := newTestOptions(t, &fakeRepo{})
		_, err := NewRollback("", opts)

		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})
}
