package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomoclock/internal/event"
	"pomoclock/internal/storage"
)

func setupTestDB(t *testing.T) (storage.Storage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test_pomoclock.db")
	store := NewSQLiteStore(dbPath)
	err := store.Init(context.Background())
	require.NoError(t, err, "Failed to initialize test database")

	cleanup := func() {
		assert.NoError(t, store.Close(), "Failed to close test database")
	}
	return store, cleanup
}

func TestSaveAndGetEvent(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	testEvent := event.Event{
		Timestamp:   now,
		Type:        event.EventTypePhaseComplete,
		RunID:       "run-1",
		Mode:        "Work",
		Cycle:       3,
		Value:       1500,
		AppName:     "code",
		WindowTitle: "main.go - pomoclock",
		Notes:       "Pomodoro 3",
	}

	id, err := store.SaveEvent(ctx, testEvent)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	retrievedEvents, err := store.GetEvents(ctx, now.Add(-1*time.Minute), now.Add(1*time.Minute))
	require.NoError(t, err)
	require.Len(t, retrievedEvents, 1)

	retrieved := retrievedEvents[0]
	assert.Equal(t, id, retrieved.ID)
	assert.Equal(t, testEvent.Type, retrieved.Type)
	assert.Equal(t, testEvent.Timestamp, retrieved.Timestamp.Truncate(time.Second))
	assert.Equal(t, testEvent.RunID, retrieved.RunID)
	assert.Equal(t, testEvent.Mode, retrieved.Mode)
	assert.Equal(t, testEvent.Cycle, retrieved.Cycle)
	assert.InDelta(t, testEvent.Value, retrieved.Value, 0.001)
	assert.Equal(t, testEvent.AppName, retrieved.AppName)
	assert.Equal(t, testEvent.WindowTitle, retrieved.WindowTitle)
	assert.Equal(t, testEvent.Notes, retrieved.Notes)
}

func TestGetEventsFiltering(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	t1 := time.Now().UTC().Add(-10 * time.Minute).Truncate(time.Second)
	t2 := t1.Add(1 * time.Minute)
	t3 := t1.Add(5 * time.Minute)
	t4 := t1.Add(15 * time.Minute)

	events := []event.Event{
		{Timestamp: t1, Type: event.EventTypeCommand, Notes: "toggle"},
		{Timestamp: t2, Type: event.EventTypePhaseComplete, Mode: "Work"},
		{Timestamp: t3, Type: event.EventTypeCommand, Notes: "reset"},
		{Timestamp: t4, Type: event.EventTypePhaseSkipped, Mode: "ShortBreak"},
	}

	for _, e := range events {
		_, err := store.SaveEvent(ctx, e)
		require.NoError(t, err)
	}

	retrieved, err := store.GetEvents(ctx, t1, t3)
	require.NoError(t, err)
	require.Len(t, retrieved, 3)
	assert.Equal(t, events[0].Notes, retrieved[0].Notes)
	assert.Equal(t, events[1].Mode, retrieved[1].Mode)
	assert.Equal(t, events[2].Notes, retrieved[2].Notes)

	retrieved, err = store.GetEvents(ctx, t1.Add(-time.Hour), t4.Add(time.Hour), event.EventTypeCommand)
	require.NoError(t, err)
	require.Len(t, retrieved, 2)
	assert.Equal(t, events[0].Notes, retrieved[0].Notes)
	assert.Equal(t, events[2].Notes, retrieved[1].Notes)

	retrieved, err = store.GetEvents(ctx, t1.Add(-time.Hour), t4.Add(time.Hour), event.EventTypePhaseComplete, event.EventTypePhaseSkipped)
	require.NoError(t, err)
	require.Len(t, retrieved, 2)
	assert.Equal(t, events[1].Mode, retrieved[0].Mode)
	assert.Equal(t, events[3].Mode, retrieved[1].Mode)

	retrieved, err = store.GetEvents(ctx, t1.Add(10*time.Hour), t4.Add(11*time.Hour))
	require.NoError(t, err)
	assert.Len(t, retrieved, 0)
}

func TestStateRoundTrip(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.LoadState(ctx, "pomodoro_state_v2")
	assert.ErrorIs(t, err, storage.ErrStateNotFound)

	require.NoError(t, store.SaveState(ctx, "pomodoro_state_v2", []byte(`{"mode":"Work"}`)))
	require.NoError(t, store.SaveState(ctx, "pomodoro_state_v2", []byte(`{"mode":"LongBreak"}`)))

	data, err := store.LoadState(ctx, "pomodoro_state_v2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"LongBreak"}`, string(data))

	_, err = store.LoadState(ctx, "other")
	assert.ErrorIs(t, err, storage.ErrStateNotFound)
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	first := NewSQLiteStore(dbPath)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.SaveState(ctx, "k", []byte("v")))
	require.NoError(t, first.Close())

	second := NewSQLiteStore(dbPath)
	require.NoError(t, second.Init(ctx))
	defer second.Close()

	data, err := second.LoadState(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}

func TestCloseDB(t *testing.T) {
	store, cleanup := setupTestDB(t)
	cleanup()

	ctx := context.Background()
	_, err := store.SaveEvent(ctx, event.Event{Timestamp: time.Now(), Type: event.EventTypeCommand})
	assert.Error(t, err)
}
