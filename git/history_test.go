package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitsSince(t *testing.T) {
	t.Run("commits after tag, newest first", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		require.NoError(t, tr.repo.CreateTag(tr.ctx, "v1.0.0", "HEAD", "", testSig))

		tr.commitFile(t, "a.txt", "a", "feat: add a")
		tr.commitFile(t, "b.txt", "b", "fix: correct b\n\nLonger explanation.")

		commits, err := tr.repo.CommitsSince(tr.ctx, "v1.0.0")
		require.NoError(t, err)
		require.Len(t, commits, 2)

		assert.Equal(t, "fix: correct b", commits[0].Subject)
		assert.Equal(t, "Longer explanation.", commits[0].Body)
		assert.Equal(t, "feat: add a", commits[1].Subject)
		assert.Equal(t, "Test", commits[0].Author)
	})

	t.Run("empty tag returns full history", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.commitFile(t, "a.txt", "a", "feat: add a")

		commits, err := tr.repo.CommitsSince(tr.ctx, "")
		require.NoError(t, err)
		assert.Len(t, commits, 2)
	})

	t.Run("no commits since tag", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		require.NoError(t, tr.repo.CreateTag(tr.ctx, "v1.0.0", "HEAD", "", testSig))

		commits, err := tr.repo.CommitsSince(tr.ctx, "v1.0.0")
		require.NoError(t, err)
		assert.Empty(t, commits)
	})

	t.Run("unresolvable tag", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)

		_, err := tr.repo.CommitsSince(tr.ctx, "v9.9.9")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrResolveFailed)
	})
}
