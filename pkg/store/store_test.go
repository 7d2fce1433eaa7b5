package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reminderd/pkg/reminders"
)

func sampleReminders() []reminders.Reminder {
	created := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	return []reminders.Reminder{
		{
			ID:             "a",
			Title:          "Meds",
			Description:    "blue pill",
			Date:           "2025-03-10",
			Time:           "09:30",
			Repeat:         reminders.RepeatDaily,
			UserID:         "u1",
			NotificationID: "n1",
			CreatedAt:      created,
			UpdatedAt:      created,
		},
		{
			ID:          "b",
			Title:       "Dentist",
			Date:        "2025-04-01",
			Time:        "14:00",
			Repeat:      reminders.RepeatNone,
			IsCompleted: true,
			UserID:      "u1",
			CreatedAt:   created,
			UpdatedAt:   created,
		},
	}
}

func assertRoundTrip(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	list, err := st.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	want := sampleReminders()
	require.NoError(t, st.Save(ctx, want))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.Equal(t, want[i].Date, got[i].Date)
		assert.Equal(t, want[i].Time, got[i].Time)
		assert.Equal(t, want[i].Repeat, got[i].Repeat)
		assert.Equal(t, want[i].IsCompleted, got[i].IsCompleted)
		assert.Equal(t, want[i].NotificationID, got[i].NotificationID)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
	}

	// Saving replaces the whole collection.
	require.NoError(t, st.Save(ctx, want[:1]))
	got, err = st.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, st.Save(ctx, nil))
	got, err = st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.db")
	st, err := OpenSQLite(Config{Path: path}, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	assertRoundTrip(t, st)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	ctx := context.Background()

	st, err := OpenSQLite(Config{Path: path, BusyTimeout: time.Second}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, sampleReminders()))
	require.NoError(t, st.Close())

	st, err = OpenSQLite(Config{Path: path}, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestConnectionString(t *testing.T) {
	cs := connectionString("/tmp/x.db", 0)
	assert.Contains(t, cs, "file:/tmp/x.db?")
	assert.Contains(t, cs, "_txlock=immediate")
	assert.Contains(t, cs, "busy_timeout%282000%29")
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.json")
	st, err := OpenFile(Config{Path: path}, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	assertRoundTrip(t, st)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	st, err := OpenFile(Config{Path: path}, zerolog.Nop())
	require.NoError(t, err)
	_, err = st.Load(context.Background())
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	st := NewMemory()
	assertRoundTrip(t, st)

	// Loaded slices are copies.
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, sampleReminders()))
	got, err := st.Load(ctx)
	require.NoError(t, err)
	got[0].Title = "changed"
	again, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Meds", again[0].Title)

	require.NoError(t, st.Close())
	_, err = st.Load(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, st.Save(ctx, nil), ErrClosed)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	st, err := Open(Config{Driver: "memory"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)

	st, err = Open(Config{Driver: "JSON", Path: filepath.Join(dir, "r.json")}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &File{}, st)

	st, err = Open(Config{Path: filepath.Join(dir, "r.db")}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, st)
	require.NoError(t, st.Close())

	_, err = Open(Config{Driver: "redis"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = Open(Config{Driver: "file"}, zerolog.Nop())
	assert.Error(t, err)
}
