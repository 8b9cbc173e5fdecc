// Package store is a Postgres-backed source holding both raw collections.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/harrisonrobin/workload/pkg/model"
)

// ErrNotFound is returned when an update matches no row.
var ErrNotFound = errors.New("store: record not found")

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id                TEXT NOT NULL,
	user_id           INTEGER NOT NULL DEFAULT 0,
	title             TEXT NOT NULL,
	due_date          TIMESTAMPTZ,
	completion_status TEXT NOT NULL DEFAULT 'pending',
	completed_at      TIMESTAMPTZ,
	course_name       TEXT,
	priority_score    DOUBLE PRECISION,
	estimated_hours   DOUBLE PRECISION,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, id)
);
CREATE TABLE IF NOT EXISTS calendar_events (
	id          TEXT NOT NULL,
	user_id     INTEGER NOT NULL DEFAULT 0,
	title       TEXT NOT NULL,
	start_time  TIMESTAMPTZ,
	end_time    TIMESTAMPTZ,
	event_type  TEXT NOT NULL DEFAULT 'event',
	is_completed BOOLEAN,
	description TEXT,
	course_name TEXT,
	PRIMARY KEY (user_id, id)
);
`

// Connect opens and pings a Postgres database.
func Connect(ctx context.Context, connString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Store reads and writes one user's rows. Every query is scoped to UserID.
type Store struct {
	db     *sql.DB
	UserID int
	// EventTypes limits fetched events; empty means every type.
	EventTypes []string
}

func New(db *sql.DB, userID int) *Store {
	return &Store{db: db, UserID: userID}
}

// ForUser returns a copy of s scoped to another user.
func (s *Store) ForUser(userID int) *Store {
	c := *s
	c.UserID = userID
	return &c
}

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

// Fetch loads both collections in one read-only transaction so they
// describe the same moment.
func (s *Store) Fetch(ctx context.Context) (model.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	tasks, err := s.tasks(ctx, tx)
	if err != nil {
		return model.Snapshot{}, err
	}
	events, err := s.events(ctx, tx)
	if err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{Tasks: tasks, Events: events}, tx.Commit()
}

func (s *Store) tasks(ctx context.Context, tx *sql.Tx) ([]model.Task, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, title, due_date, completion_status, completed_at,
		       COALESCE(course_name, ''), priority_score, estimated_hours
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at, id`, s.UserID)
	if err != nil {
		return nil, fmt.Errorf("store: query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var (
			t                   model.Task
			due, completedAt    sql.NullTime
			priority, estimated sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.Title, &due, &t.CompletionStatus, &completedAt, &t.CourseName, &priority, &estimated); err != nil {
			return nil, fmt.Errorf("store: scan task: %w", err)
		}
		t.DueDate = formatTime(due)
		t.CompletedAt = formatTime(completedAt)
		t.PriorityScore = floatPtr(priority)
		t.EstimatedHours = floatPtr(estimated)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: tasks rows: %w", err)
	}
	return tasks, nil
}

func (s *Store) events(ctx context.Context, tx *sql.Tx) ([]model.Event, error) {
	types := s.EventTypes
	if types == nil {
		types = []string{}
	}
	rows, err := tx.QueryContext(ctx, `
		SELECT id, title, start_time, end_time, event_type, is_completed,
		       COALESCE(description, ''), COALESCE(course_name, '')
		FROM calendar_events
		WHERE user_id = $1
		  AND (cardinality($2::text[]) = 0 OR event_type = ANY($2))
		ORDER BY start_time NULLS LAST, id`, s.UserID, pq.Array(types))
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var (
			e          model.Event
			start, end sql.NullTime
			completed  sql.NullBool
		)
		if err := rows.Scan(&e.ID, &e.Title, &start, &end, &e.EventType, &completed, &e.Description, &e.CourseName); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		e.StartTime = formatTime(start)
		e.EndTime = formatTime(end)
		if completed.Valid {
			b := completed.Bool
			e.IsCompleted = &b
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: events rows: %w", err)
	}
	return events, nil
}

// Apply writes a completion update to the owning table.
func (s *Store) Apply(ctx context.Context, u model.CompletionUpdate) error {
	var (
		res sql.Result
		err error
	)
	switch u.Kind {
	case model.Manual:
		status, _ := u.Fields[model.FieldCompletionStatus].(string)
		var completedAt sql.NullTime
		if completedAt, err = parseStamp(u.Fields[model.FieldCompletedAt]); err != nil {
			return err
		}
		res, err = s.db.ExecContext(ctx,
			`UPDATE tasks SET completion_status = $1, completed_at = $2 WHERE user_id = $3 AND id = $4`,
			status, completedAt, s.UserID, u.ID)
		if err != nil {
			return fmt.Errorf("store: update task: %w", err)
		}
	case model.SyncedAssignment:
		res, err = s.db.ExecContext(ctx,
			`UPDATE calendar_events SET is_completed = $1 WHERE user_id = $2 AND id = $3 AND event_type = $4`,
			u.Completed(), s.UserID, u.ID, model.EventTypeAssignment)
		if err != nil {
			return fmt.Errorf("store: update event: %w", err)
		}
	default:
		return fmt.Errorf("store: unknown kind %q", u.Kind)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %q", ErrNotFound, u.Kind, u.ID)
	}
	return nil
}

// AddTask inserts a manual task.
func (s *Store) AddTask(ctx context.Context, t model.Task) error {
	due, err := parseStamp(t.DueDate)
	if err != nil {
		return err
	}
	status := t.CompletionStatus
	if status == "" {
		status = model.StatusPending
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, due_date, completion_status, course_name, priority_score, estimated_hours)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		t.ID, s.UserID, t.Title, due, status, t.CourseName, t.PriorityScore, t.EstimatedHours)
	if err != nil {
		return fmt.Errorf("store: insert task: %w", err)
	}
	return nil
}

// formatTime renders a timestamp as RFC3339 in UTC, or "" for NULL.
func formatTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.UTC().Format(time.RFC3339Nano)
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// parseStamp turns an update or record timestamp into a nullable column value.
func parseStamp(v any) (sql.NullTime, error) {
	s, _ := v.(string)
	if s == "" {
		return sql.NullTime{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return sql.NullTime{}, fmt.Errorf("store: invalid timestamp %q: %w", s, err)
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}
