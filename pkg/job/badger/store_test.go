package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoacl/pkg/job"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	j := job.New("filesystem.setacl", "/mnt/tank/share", job.PermChangeLock)
	j.History = []job.Step{{Percent: 0, Description: "Preparing to set acl."}}
	require.NoError(t, s.Put(ctx, j))

	got, err := s.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, job.StateRunning, got.State)
	assert.Equal(t, "Preparing to set acl.", got.History[0].Description)
	assert.True(t, j.StartedAt.Equal(got.StartedAt))
}

func TestStore_GetMissing(t *testing.T) {
	_, err := newStore(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, job.ErrNotFound)
}

func TestStore_ListDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := job.New("filesystem.chown", "/mnt/tank/a", "")
	second := job.New("filesystem.chown", "/mnt/tank/b", "")
	second.StartedAt = first.StartedAt.Add(time.Second)
	require.NoError(t, s.Put(ctx, second))
	require.NoError(t, s.Put(ctx, first))

	jobs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, first.ID, jobs[0].ID)

	require.NoError(t, s.Delete(ctx, first.ID))
	jobs, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, second.ID, jobs[0].ID)
}
