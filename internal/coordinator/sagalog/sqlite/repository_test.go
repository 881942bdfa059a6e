package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
)

func openRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "saga.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	require.NoError(t, repo.Save(ctx, sagalog.NewEntry(ctx, "saga-1", sagalog.StatusStarted, "", `{"items":1}`, nil)))
	require.NoError(t, repo.Save(ctx, sagalog.NewEntry(ctx, "saga-1", sagalog.StatusStepDone, "Create_Order_Step", "", nil)))
	require.NoError(t, repo.Save(ctx, sagalog.NewEntry(ctx, "saga-1", sagalog.StatusFailed, "Clear_Cart_Step", "", []string{"boom"})))
	require.NoError(t, repo.Save(ctx, sagalog.NewEntry(ctx, "saga-2", sagalog.StatusStarted, "", "", nil)))

	latest, err := repo.GetLatest(ctx, "saga-1")
	require.NoError(t, err)
	assert.Equal(t, sagalog.StatusFailed, latest.Status)
	assert.Equal(t, "Clear_Cart_Step", latest.CurrentStep)
	assert.Equal(t, []string{"boom"}, latest.Errors())
	assert.True(t, latest.Status.Terminal())

	history, err := repo.History(ctx, "saga-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, sagalog.StatusStarted, history[0].Status)
	assert.Equal(t, `{"items":1}`, history[0].Payload)
	assert.Empty(t, history[1].Payload)
	assert.Empty(t, history[0].TraceID)
}

func TestRepository_UnknownSaga(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	_, err := repo.GetLatest(ctx, "missing")
	assert.ErrorIs(t, err, sagalog.ErrNotFound)

	_, err = repo.History(ctx, "missing")
	assert.ErrorIs(t, err, sagalog.ErrNotFound)
}
