package git

import (
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsClean(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T) *testRepo
		expected bool
	}{
		{
			name:     "clean after commit",
			setup:    setupTestRepoWithCommit,
			expected: true,
		},
		{
			name: "dirty with untracked file",
			setup: func(t *testing.T) *testRepo {
				tr := setupTestRepoWithCommit(t)
				require.NoError(t, util.WriteFile(tr.fs, "stray.txt", []byte("stray"), 0o644))
				return tr
			},
			expected: false,
		},
		{
			name: "dirty with modified file",
			setup: func(t *testing.T) *testRepo {
				tr := setupTestRepoWithCommit(t)
				require.NoError(t, util.WriteFile(tr.fs, "test.txt", []byte("changed"), 0o644))
				return tr
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tt.setup(t)

			clean, err := tr.repo.IsClean(tr.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, clean)
		})
	}
}

func TestDirtyFiles(t *testing.T) {
	tr := setupTestRepoWithCommit(t)
	require.NoError(t, util.WriteFile(tr.fs, "b.txt", []byte("b"), 0o644))
	require.NoError(t, util.WriteFile(tr.fs, "a.txt", []byte("a"), 0o644))

	files, err := tr.repo.DirtyFiles(tr.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, files)
}

func TestCommit(t *testing.T) {
	t.Run("commit staged change", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)

		require.NoError(t, util.WriteFile(tr.fs, "test.txt", []byte("updated"), 0o644))
		require.NoError(t, tr.repo.Add(tr.ctx, "test.txt"))

		sha, err := tr.repo.Commit(tr.ctx, "Update test file", testSig, CommitOpts{})
		require.NoError(t, err)
		assert.Len(t, sha, 40)

		clean, err := tr.repo.IsClean(tr.ctx)
		require.NoError(t, err)
		assert.True(t, clean)
	})

	t.Run("empty commit rejected", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)

		_, err := tr.repo.Commit(tr.ctx, "Nothing staged", testSig, CommitOpts{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyCommit)
	})

	t.Run("empty message rejected", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)

		_, err := tr.repo.Commit(tr.ctx, "", testSig, CommitOpts{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRef)
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)

		_, err := tr.repo.Commit(tr.ctx, "msg", Signature{}, CommitOpts{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRef)
	})
}

func TestAdd(t *testing.T) {
	t.Run("glob pattern", func(t *testing.T) {
		tr := setupTestRepo(t)
		require.NoError(t, util.WriteFile(tr.fs, "one.txt", []byte("1"), 0o644))
		require.NoError(t, util.WriteFile(tr.fs, "two.txt", []byte("2"), 0o644))

		require.NoError(t, tr.repo.Add(tr.ctx, "*.txt"))

		sha, err := tr.repo.Commit(tr.ctx, "Add both", testSig, CommitOpts{})
		require.NoError(t, err)
		assert.NotEmpty(t, sha)
	})

	t.Run("missing file silently ignored", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		require.NoError(t, tr.repo.Add(tr.ctx, "absent.txt"))
	})
}

func TestCurrentBranch(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	branch, err := tr.repo.CurrentBranch(tr.ctx)
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestHead(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	head, err := tr.repo.Head(tr.ctx)
	require.NoError(t, err)
	assert.Len(t, head, 40)
}
