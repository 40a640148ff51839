package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careconnect/internal/tasks"
)

var (
	testLoc = time.FixedZone("EST", -5*60*60)
	now     = time.Date(2026, time.February, 26, 8, 0, 0, 0, testLoc)
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "careconnect.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddAndFetch(t *testing.T) {
	s := openTestStore(t)

	due := now.Add(90 * time.Minute)
	id, err := s.AddTask("  Take medication ", " with food ", due, now)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.FetchTasks()
	require.NoError(t, err)
	require.Len(t, got, 1)

	task := got[0]
	assert.Equal(t, id, task.ID)
	assert.Equal(t, "Take medication", task.Title)
	assert.Equal(t, "with food", task.Description)
	assert.True(t, task.Due.Equal(due))
	assert.True(t, task.CreatedAt.Equal(now))
	assert.Equal(t, tasks.StatusPending, task.Status)
}

func TestAddTask_EmptyTitle(t *testing.T) {
	s := openTestStore(t)

	_, err := s.AddTask("   ", "", now, now)
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestGetTask(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddTask("Physical therapy", "", now, now)
	require.NoError(t, err)

	got, err := s.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, "Physical therapy", got.Title)

	_, err = s.GetTask(id + 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTask(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddTask("Call pharmacy", "", now, now)
	require.NoError(t, err)

	newDue := now.AddDate(0, 0, 1)
	require.NoError(t, s.UpdateTask(id, "Call Dr. Patel", "ask about dosage", newDue))

	got, err := s.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, "Call Dr. Patel", got.Title)
	assert.Equal(t, "ask about dosage", got.Description)
	assert.True(t, got.Due.Equal(newDue))

	assert.ErrorIs(t, s.UpdateTask(id+1, "x", "", now), ErrNotFound)
	assert.ErrorIs(t, s.UpdateTask(id, " ", "", now), ErrEmptyTitle)
}

func TestCompleteAndReopen(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddTask("Refill prescription", "", now, now)
	require.NoError(t, err)

	_, ok, err := s.CompletedAt(id)
	require.NoError(t, err)
	assert.False(t, ok)

	doneAt := now.Add(2 * time.Hour)
	require.NoError(t, s.Complete(id, doneAt))

	got, err := s.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusCompleted, got.Status)

	at, ok, err := s.CompletedAt(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(doneAt))

	// Completing again overwrites the timestamp.
	later := doneAt.Add(time.Hour)
	require.NoError(t, s.Complete(id, later))
	at, _, err = s.CompletedAt(id)
	require.NoError(t, err)
	assert.True(t, at.Equal(later))

	require.NoError(t, s.Reopen(id))
	got, err = s.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusPending, got.Status)

	_, ok, err = s.CompletedAt(id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComplete_NotFound(t *testing.T) {
	s := openTestStore(t)

	assert.ErrorIs(t, s.Complete(42, now), ErrNotFound)
	assert.ErrorIs(t, s.Reopen(42), ErrNotFound)

	_, ok, err := s.CompletedAt(42)
	require.NoError(t, err)
	assert.False(t, ok, "failed completion must not leave a record")
}

func TestDeleteTask(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddTask("Water plants", "", now, now)
	require.NoError(t, err)
	require.NoError(t, s.Complete(id, now))

	require.NoError(t, s.DeleteTask(id))

	got, err := s.FetchTasks()
	require.NoError(t, err)
	assert.Empty(t, got)

	_, ok, err := s.CompletedAt(id)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.DeleteTask(id), ErrNotFound)
}

func TestReminders(t *testing.T) {
	s := openTestStore(t)

	med, err := s.AddTask("Take medication", "", now, now)
	require.NoError(t, err)
	pt, err := s.AddTask("Physical therapy", "", now.Add(time.Hour), now)
	require.NoError(t, err)
	call, err := s.AddTask("Call Dr. Patel", "", now.Add(2*time.Hour), now)
	require.NoError(t, err)

	got, err := s.Reminded()
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, id := range []int64{med, pt, call} {
		require.NoError(t, s.MarkReminded(id, now))
	}
	require.NoError(t, s.MarkReminded(med, now.Add(time.Minute)), "marking twice is a no-op")

	got, err = s.Reminded()
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{med: true, pt: true, call: true}, got)

	// Reopening, rescheduling and deleting each clear the record.
	require.NoError(t, s.Complete(med, now))
	require.NoError(t, s.Reopen(med))
	require.NoError(t, s.UpdateTask(pt, "Physical therapy", "", now.Add(3*time.Hour)))
	require.NoError(t, s.DeleteTask(call))

	got, err = s.Reminded()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateTask_NotFoundLeavesReminders(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddTask("Take medication", "", now, now)
	require.NoError(t, err)
	require.NoError(t, s.MarkReminded(id, now))

	assert.ErrorIs(t, s.UpdateTask(99, "x", "", now), ErrNotFound)

	got, err := s.Reminded()
	require.NoError(t, err)
	assert.True(t, got[id])
}

func TestFetchTasks_OrderedByID(t *testing.T) {
	s := openTestStore(t)

	for _, title := range []string{"first", "second", "third"} {
		_, err := s.AddTask(title, "", now, now)
		require.NoError(t, err)
	}

	got, err := s.FetchTasks()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "third", got[2].Title)
}

func TestOpen_MigratesOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite", sqliteDSN(path))
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	due_at TEXT NOT NULL,
	created_at TEXT NOT NULL
);`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tasks (title, due_at, created_at) VALUES (?, ?, ?);`,
		"legacy", now.Format(time.RFC3339), now.Format(time.RFC3339))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.FetchTasks()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "legacy", got[0].Title)
	assert.Equal(t, "", got[0].Description)
	assert.Equal(t, tasks.StatusPending, got[0].Status)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file:memdb?mode=memory", sqliteDSN("file:memdb?mode=memory"))

	dsn := sqliteDSN("/var/lib/cc.db")
	assert.Contains(t, dsn, "file:///var/lib/cc.db")
	assert.Contains(t, dsn, "mode=rwc")
}
