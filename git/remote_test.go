package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushValidation(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	assert.ErrorIs(t, tr.repo.PushBranch(tr.ctx, "origin", ""), ErrInvalidRef)
	assert.ErrorIs(t, tr.repo.PushTag(tr.ctx, "origin", ""), ErrInvalidRef)
	assert.ErrorIs(t, tr.repo.DeleteRemoteTag(tr.ctx, "origin", ""), ErrInvalidRef)
}

func TestPushUnknownRemote(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	err := tr.repo.PushBranch(tr.ctx, "nowhere", "master")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolveFailed)
}

func TestRemoteTagExistsUnknownRemote(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	_, err := tr.repo.RemoteTagExists(tr.ctx, "nowhere", "v1.0.0")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolveFailed)
}
