package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/toggle"
)

func TestFormatTime(t *testing.T) {
	if got := formatTime(sql.NullTime{}); got != "" {
		t.Errorf("Expected empty string for NULL, got %q", got)
	}
	ts := time.Date(2024, 3, 10, 18, 59, 59, 0, time.FixedZone("UTC-5", -5*60*60))
	if got := formatTime(sql.NullTime{Time: ts, Valid: true}); got != "2024-03-10T23:59:59Z" {
		t.Errorf("Expected UTC rendering, got %q", got)
	}
}

func TestParseStamp(t *testing.T) {
	nt, err := parseStamp(nil)
	if err != nil || nt.Valid {
		t.Errorf("Expected NULL for nil, got %+v, %v", nt, err)
	}
	nt, err = parseStamp("2024-03-14T09:00:00Z")
	if err != nil || !nt.Valid || !nt.Time.Equal(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected parsed stamp, got %+v, %v", nt, err)
	}
	if _, err := parseStamp("yesterday"); err == nil {
		t.Error("Expected invalid stamp to fail")
	}
}

// TestPostgres runs against a real database when WORKLOAD_TEST_DATABASE holds
// a connection string.
func TestPostgres(t *testing.T) {
	conn := os.Getenv("WORKLOAD_TEST_DATABASE")
	if conn == "" {
		t.Skip("WORKLOAD_TEST_DATABASE not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, conn)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer db.Close()

	userID := int(time.Now().UnixNano() % 1_000_000_000)
	s := New(db, userID)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(`DELETE FROM tasks WHERE user_id = $1`, userID)
		db.Exec(`DELETE FROM calendar_events WHERE user_id = $1`, userID)
	})

	est := 3.0
	if err := s.AddTask(ctx, model.Task{ID: "t1", Title: "Essay", DueDate: "2024-03-15T17:00:00Z", EstimatedHours: &est}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO calendar_events (id, user_id, title, start_time, event_type, is_completed) VALUES ($1, $2, $3, $4, $5, false)`,
		"a1", userID, "[CS] Lab", "2024-03-10T23:59:59Z", model.EventTypeAssignment); err != nil {
		t.Fatalf("insert event failed: %v", err)
	}

	snap, err := s.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(snap.Tasks) != 1 || snap.Tasks[0].DueDate != "2024-03-15T17:00:00Z" || *snap.Tasks[0].EstimatedHours != 3 {
		t.Errorf("Expected stored task, got %+v", snap.Tasks)
	}
	if len(snap.Events) != 1 || snap.Events[0].StartTime != "2024-03-10T23:59:59Z" {
		t.Errorf("Expected stored event, got %+v", snap.Events)
	}

	coord := toggle.New(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC))
	if err := s.Apply(ctx, coord.Toggle(model.WorkItem{ID: "t1", Kind: model.Manual}, true)); err != nil {
		t.Fatalf("Apply task failed: %v", err)
	}
	if err := s.Apply(ctx, coord.Toggle(model.WorkItem{ID: "a1", Kind: model.SyncedAssignment}, true)); err != nil {
		t.Fatalf("Apply event failed: %v", err)
	}
	snap, _ = s.Fetch(ctx)
	if snap.Tasks[0].CompletionStatus != model.StatusCompleted || snap.Tasks[0].CompletedAt != "2024-03-14T09:00:00Z" {
		t.Errorf("Expected completed task, got %+v", snap.Tasks[0])
	}
	if !*snap.Events[0].IsCompleted {
		t.Errorf("Expected completed assignment, got %+v", snap.Events[0])
	}

	err = s.Apply(ctx, coord.Toggle(model.WorkItem{ID: "missing", Kind: model.Manual}, true))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
