package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksih/moveinventory/internal/inventory"
)

func newStore(t *testing.T, key []byte) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGetJob(t *testing.T) {
	store := newStore(t, nil)
	job := &Job{
		ID:            "job-1",
		CustomerName:  "Matti",
		CustomerPhone: "+358401234567",
		PropertyContext: &inventory.PropertyContext{
			Bedrooms: 2, Bathrooms: 1, PropertyType: "apartment",
		},
	}
	require.NoError(t, store.SaveJob(job))

	got, err := store.GetJob("job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Matti", got.CustomerName)
	assert.Equal(t, "+358401234567", got.CustomerPhone)
	require.NotNil(t, got.PropertyContext)
	assert.Equal(t, 2, got.PropertyContext.Bedrooms)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetJobMissingReturnsNil(t *testing.T) {
	store := newStore(t, nil)
	got, err := store.GetJob("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveJobUpserts(t *testing.T) {
	store := newStore(t, nil)
	require.NoError(t, store.SaveJob(&Job{ID: "job-1", CustomerName: "Before"}))
	require.NoError(t, store.SaveJob(&Job{ID: "job-1", CustomerName: "After"}))

	got, err := store.GetJob("job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "After", got.CustomerName)
}

func TestJobFieldsEncryptedAtRest(t *testing.T) {
	key, err := DeriveKey("test-passphrase")
	require.NoError(t, err)
	store := newStore(t, key)

	require.NoError(t, store.SaveJob(&Job{ID: "job-1", CustomerName: "Matti", CustomerPhone: "123"}))

	var rawName string
	require.NoError(t, store.db.QueryRow("SELECT customer_name FROM jobs WHERE id = ?", "job-1").Scan(&rawName))
	assert.NotEqual(t, "Matti", rawName)

	got, err := store.GetJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, "Matti", got.CustomerName)
}

func TestSaveDetectionsReplacesWholesale(t *testing.T) {
	store := newStore(t, nil)
	require.NoError(t, store.SaveJob(&Job{ID: "job-1"}))

	first := []inventory.Detection{
		{Label: "Sofa", Qty: 1, Confidence: 0.9, Room: "Living Room", CubicFeet: 80, Weight: 200},
		{Label: "Queen Bed", Qty: 1, Confidence: 0.8, Room: "Bedroom", CubicFeet: 70, Weight: 150},
	}
	require.NoError(t, store.SaveDetections("job-1", first))

	got, err := store.GetDetections("job-1")
	require.NoError(t, err)
	assert.Equal(t, first, got, "saved order is preserved")

	second := []inventory.Detection{
		{Label: "Desk", Qty: 1, Confidence: 0.7, Room: "Office", CubicFeet: 25, Weight: 100},
	}
	require.NoError(t, store.SaveDetections("job-1", second))

	got, err = store.GetDetections("job-1")
	require.NoError(t, err)
	assert.Equal(t, second, got, "re-running detection overwrites previous results")
}

func TestDeleteJobRemovesDetections(t *testing.T) {
	store := newStore(t, nil)
	require.NoError(t, store.SaveJob(&Job{ID: "job-1"}))
	require.NoError(t, store.SaveDetections("job-1", []inventory.Detection{
		{Label: "Sofa", Qty: 1, Confidence: 0.9, Room: "Living Room", CubicFeet: 80, Weight: 200},
	}))

	require.NoError(t, store.DeleteJob("job-1"))

	job, err := store.GetJob("job-1")
	require.NoError(t, err)
	assert.Nil(t, job)

	dets, err := store.GetDetections("job-1")
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestResponseCache(t *testing.T) {
	store := newStore(t, nil)

	got, err := store.GetCachedResponse("abc")
	require.NoError(t, err)
	assert.Nil(t, got, "miss returns nil, nil")

	require.NoError(t, store.SetCachedResponse("abc", "first"))
	require.NoError(t, store.SetCachedResponse("abc", "second"))

	got, err = store.GetCachedResponse("abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Text, "same hash overwrites")
	assert.False(t, got.CreatedAt.IsZero())
}

func TestPruneCache(t *testing.T) {
	store := newStore(t, nil)
	require.NoError(t, store.SetCachedResponse("old", "stale"))
	require.NoError(t, store.SetCachedResponse("new", "fresh"))

	// Backdate one entry past the cutoff.
	_, err := store.db.Exec("UPDATE response_cache SET created_at = ? WHERE hash = ?",
		time.Now().Add(-48*time.Hour), "old")
	require.NoError(t, err)

	pruned, err := store.PruneCache(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	got, err := store.GetCachedResponse("old")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = store.GetCachedResponse("new")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
