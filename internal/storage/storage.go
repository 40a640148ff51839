package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"careconnect/internal/tasks"
)

var (
	ErrNotFound   = errors.New("task not found")
	ErrEmptyTitle = errors.New("title cannot be empty")
)

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	due_at TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS completions (
	task_id INTEGER PRIMARY KEY,
	completed_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS reminders (
	task_id INTEGER PRIMARY KEY,
	notified_at TEXT NOT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

// ensureTaskColumns upgrades databases created before descriptions and
// statuses were stored.
func (s *Store) ensureTaskColumns() error {
	required := map[string]string{
		"description": "ALTER TABLE tasks ADD COLUMN description TEXT NOT NULL DEFAULT '';",
		"status":      "ALTER TABLE tasks ADD COLUMN status TEXT NOT NULL DEFAULT 'pending';",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	// The single connection must be released before issuing ALTERs.
	rows.Close()

	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

const taskColumns = `id, title, description, due_at, status, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (tasks.Task, error) {
	var t tasks.Task
	var dueStr, statusStr, createdStr string
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &dueStr, &statusStr, &createdStr); err != nil {
		return t, err
	}
	var err error
	t.Due, err = time.Parse(time.RFC3339, dueStr)
	if err != nil {
		return t, fmt.Errorf("task %d: due_at: %w", t.ID, err)
	}
	t.Status, err = tasks.ParseStatus(statusStr)
	if err != nil {
		return t, fmt.Errorf("task %d: %w", t.ID, err)
	}
	if created, err := time.Parse(time.RFC3339, createdStr); err == nil {
		t.CreatedAt = created
	}
	return t, nil
}

func (s *Store) FetchTasks() ([]tasks.Task, error) {
	rows, err := s.db.Query(`SELECT ` + taskColumns + ` FROM tasks ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []tasks.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetTask(id int64) (tasks.Task, error) {
	t, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return tasks.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return t, err
}

func (s *Store) AddTask(title, description string, due, now time.Time) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, ErrEmptyTitle
	}
	res, err := s.db.Exec(`INSERT INTO tasks (title, description, due_at, status, created_at) VALUES (?, ?, ?, ?, ?);`,
		title, strings.TrimSpace(description), formatTime(due), string(tasks.StatusPending), formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return res.LastInsertId()
}

// UpdateTask rewrites a task and clears its reminder record, so a
// rescheduled task is reminded again.
func (s *Store) UpdateTask(id int64, title, description string, due time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE tasks SET title = ?, description = ?, due_at = ? WHERE id = ?;`,
		title, strings.TrimSpace(description), formatTime(due), id)
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	if err := expectRow(res, id); err != nil {
		return err
	}
	if err := clearReminder(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Complete marks a task completed and records when.
func (s *Store) Complete(id int64, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE tasks SET status = ? WHERE id = ?;`, string(tasks.StatusCompleted), id)
	if err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}
	if err := expectRow(res, id); err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO completions (task_id, completed_at) VALUES (?, ?)
ON CONFLICT(task_id) DO UPDATE SET completed_at = excluded.completed_at;`, id, formatTime(at))
	if err != nil {
		return fmt.Errorf("record completion %d: %w", id, err)
	}
	return tx.Commit()
}

// Reopen undoes Complete.
func (s *Store) Reopen(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE tasks SET status = ? WHERE id = ?;`, string(tasks.StatusPending), id)
	if err != nil {
		return fmt.Errorf("reopen task %d: %w", id, err)
	}
	if err := expectRow(res, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM completions WHERE task_id = ?;`, id); err != nil {
		return fmt.Errorf("clear completion %d: %w", id, err)
	}
	if err := clearReminder(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CompletedAt reports when id was last completed. ok is false when the
// task has no completion record.
func (s *Store) CompletedAt(id int64) (at time.Time, ok bool, err error) {
	var v string
	err = s.db.QueryRow(`SELECT completed_at FROM completions WHERE task_id = ?;`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	at, err = time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("completion %d: %w", id, err)
	}
	return at, true, nil
}

func (s *Store) DeleteTask(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM tasks WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if err := expectRow(res, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM completions WHERE task_id = ?;`, id); err != nil {
		return err
	}
	if err := clearReminder(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkReminded records that id's reminder was handled. The first time
// wins; later calls are no-ops until the record is cleared.
func (s *Store) MarkReminded(id int64, at time.Time) error {
	_, err := s.db.Exec(`INSERT INTO reminders (task_id, notified_at) VALUES (?, ?)
ON CONFLICT(task_id) DO NOTHING;`, id, formatTime(at))
	if err != nil {
		return fmt.Errorf("mark reminded %d: %w", id, err)
	}
	return nil
}

// Reminded returns the ids of tasks whose reminder was already handled,
// by this process or an earlier one.
func (s *Store) Reminded() (map[int64]bool, error) {
	rows, err := s.db.Query(`SELECT task_id FROM reminders;`)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	out := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func clearReminder(tx *sql.Tx, id int64) error {
	if _, err := tx.Exec(`DELETE FROM reminders WHERE task_id = ?;`, id); err != nil {
		return fmt.Errorf("clear reminder %d: %w", id, err)
	}
	return nil
}

func expectRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
