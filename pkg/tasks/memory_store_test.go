package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Insert(&TaskRecord{
		TaskID:     "t-1",
		DocumentID: 5,
		ProjectID:  1,
		Status:     StatusPending,
	}))

	rec, err := store.Get("t-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)

	require.NoError(t, store.UpdateStatus("t-1", StatusProcessing, ""))
	require.NoError(t, store.UpdateStatus("t-1", StatusFailed, "boom"))

	rec, err = store.Get("t-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "boom", rec.Error)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get("absent")
	assert.Error(t, err)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Insert(&TaskRecord{TaskID: "t-2", Status: StatusPending}))

	rec, err := store.Get("t-2")
	require.NoError(t, err)
	rec.Status = StatusCompleted

	again, err := store.Get("t-2")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
}
