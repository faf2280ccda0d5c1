package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ameditor/pkg/verdict"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndQueryPublishes(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordPublish(ctx, "sess-1", "tenant-1", "form-1", 120,
		verdict.RemoteResult{Success: true}))
	require.NoError(t, store.RecordPublish(ctx, "sess-1", "tenant-1", "form-2", 150,
		verdict.RemoteResult{Success: false, Error: "unknown receiver"}))
	require.NoError(t, store.RecordPublish(ctx, "sess-2", "tenant-1", "form-3", 80,
		verdict.RemoteResult{Success: true}))

	records, err := store.PublishHistory(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "form-2", records[0].FormID)
	assert.False(t, records[0].Success)
	assert.Equal(t, "unknown receiver", records[0].Error)
	assert.Equal(t, "form-1", records[1].FormID)
	assert.True(t, records[1].Success)
	assert.Equal(t, 120, records[1].ConfigBytes)
	assert.False(t, records[1].CreatedAt.IsZero())
}

func TestPublishHistoryLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordPublish(ctx, "sess-1", "tenant-1", "form", 10,
			verdict.RemoteResult{Success: true}))
	}

	records, err := store.PublishHistory(ctx, "sess-1", 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestPublishHistoryEmptySession(t *testing.T) {
	store := openTestStore(t)

	records, err := store.PublishHistory(context.Background(), "nope", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
