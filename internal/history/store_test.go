package history

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

func TestStore_AddAndGet(t *testing.T) {
	store := setupStore(t)

	r := &Record{
		ID:     "inv-1",
		Target: "john.doe_99",
		Mode:   "profile",
		Status: StatusRunning,
	}
	require.NoError(t, store.Add(r))
	assert.False(t, r.CreatedAt.IsZero(), "Add should stamp CreatedAt")

	got, err := store.Get("inv-1")
	require.NoError(t, err)
	assert.Equal(t, "john.doe_99", got.Target)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Nil(t, got.FinishedAt)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Update(t *testing.T) {
	store := setupStore(t)

	r := &Record{ID: "inv-1", Target: "john", Mode: "auto", Status: StatusRunning}
	require.NoError(t, store.Add(r))

	now := time.Now()
	r.Status = StatusCompleted
	r.Requested = 5
	r.Archived = 4
	r.ArchiveName = "john_instaloader.zip"
	r.FinishedAt = &now
	require.NoError(t, store.Update(r))

	got, err := store.Get("inv-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 5, got.Requested)
	assert.Equal(t, 4, got.Archived)
	assert.Equal(t, "john_instaloader.zip", got.ArchiveName)
	require.NotNil(t, got.FinishedAt)
}

func TestStore_Update_NotFound(t *testing.T) {
	store := setupStore(t)

	err := store.Update(&Record{ID: "missing", Status: StatusFailed})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_List(t *testing.T) {
	store := setupStore(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"inv-1", "inv-2", "inv-3"} {
		require.NoError(t, store.Add(&Record{
			ID:        id,
			Target:    "t",
			Mode:      "auto",
			Status:    StatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "inv-3", all[0].ID, "newest first")

	limited, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
