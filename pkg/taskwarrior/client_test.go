package taskwarrior

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/workload/pkg/model"
)

func TestParseTasksArray(t *testing.T) {
	input := `[{
		"uuid": "f45a05b3-c12e-42e5-9c9c-333333333333",
		"description": "Buy milk",
		"status": "pending",
		"due": "20230101T120000Z",
		"project": "Groceries",
		"tags": ["buy", "food"],
		"annotations": [
			{"entry": "20230101T120500Z", "description": "Don't forget almond milk"}
		]
	}]`

	tasks, err := ParseTasks(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.UUID != "f45a05b3-c12e-42e5-9c9c-333333333333" {
		t.Errorf("Expected UUID f45a05b3-c12e-42e5-9c9c-333333333333, got %s", task.UUID)
	}
	if task.Description != "Buy milk" {
		t.Errorf("Expected Description 'Buy milk', got '%s'", task.Description)
	}
	if task.Project != "Groceries" {
		t.Errorf("Expected Project 'Groceries', got '%s'", task.Project)
	}
	if len(task.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %d", len(task.Tags))
	}
	expectedDue, _ := time.Parse(time.RFC3339, "2023-01-01T12:00:00Z")
	if !task.Due.Time.Equal(expectedDue) {
		t.Errorf("Expected Due %v, got %v", expectedDue, task.Due.Time)
	}
}

func TestParseTasksStream(t *testing.T) {
	input := `
{"uuid": "a", "description": "One", "status": "pending"}
{"uuid": "b", "description": "Two", "status": "completed", "end": "20230102T080000Z"}`

	tasks, err := ParseTasks(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[1].End.IsZero() {
		t.Error("Expected end time on completed task")
	}
}

func TestParseTasksEmpty(t *testing.T) {
	for _, input := range []string{"", "  \n", "[]"} {
		tasks, err := ParseTasks(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseTasks(%q) failed: %v", input, err)
		}
		if tasks == nil || len(tasks) != 0 {
			t.Errorf("Expected empty non-nil slice for %q, got %v", input, tasks)
		}
	}
	if _, err := ParseTasks(strings.NewReader(`[{"uuid": `)); err == nil {
		t.Error("Expected truncated export to fail")
	}
}

func TestSnapshot(t *testing.T) {
	s := Snapshot([]Task{
		{UUID: "a", Description: "Keep", Status: StatusPending},
		{UUID: "b", Description: "Gone", Status: StatusDeleted},
	})
	if len(s.Tasks) != 1 || s.Tasks[0].ID != "a" {
		t.Errorf("Expected only task a, got %+v", s.Tasks)
	}
	if s.Events == nil {
		t.Error("Expected non-nil events")
	}
}

func TestToRaw(t *testing.T) {
	urgency := 8.2
	task := &Task{
		UUID:        "u1",
		Description: "Problem set",
		Status:      StatusCompleted,
		Project:     "MATH",
		Due:         &Timestamp{Time: time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC)},
		End:         &Timestamp{Time: time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)},
		Est:         "PT1H30M",
		Urgency:     &urgency,
	}
	raw := ToRaw(task)
	if raw.ID != "u1" || raw.Title != "Problem set" || raw.CourseName != "MATH" {
		t.Errorf("Expected identity fields copied, got %+v", raw)
	}
	if raw.CompletionStatus != model.StatusCompleted || raw.CompletedAt != "2024-03-14T08:00:00Z" {
		t.Errorf("Expected completed with stamp, got %q / %q", raw.CompletionStatus, raw.CompletedAt)
	}
	if raw.DueDate != "2024-03-15T17:00:00Z" {
		t.Errorf("Expected due 2024-03-15T17:00:00Z, got %q", raw.DueDate)
	}
	if raw.EstimatedHours == nil || *raw.EstimatedHours != 1.5 {
		t.Errorf("Expected 1.5 estimated hours, got %v", raw.EstimatedHours)
	}
	if raw.PriorityScore == nil || *raw.PriorityScore != 8.2 {
		t.Errorf("Expected urgency as priority score, got %v", raw.PriorityScore)
	}
}

func TestToRawCourseFromTag(t *testing.T) {
	tests := []struct {
		task Task
		want string
	}{
		{Task{Project: "HIST", Tags: []string{"essay"}}, "HIST"},
		{Task{Tags: []string{"CHEM", "lab"}}, "CHEM"},
		{Task{}, ""},
	}
	for _, tt := range tests {
		if got := ToRaw(&tt.task).CourseName; got != tt.want {
			t.Errorf("Expected course %q, got %q", tt.want, got)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	var ts Timestamp
	if err := ts.UnmarshalJSON([]byte(`"20240314T090000Z"`)); err != nil {
		t.Fatalf("UnmarshalJSON failed: %v", err)
	}
	b, err := ts.MarshalJSON()
	if err != nil || string(b) != `"20240314T090000Z"` {
		t.Errorf("Expected same encoding back, got %s, %v", b, err)
	}
	if err := ts.UnmarshalJSON([]byte(`"yesterday"`)); err == nil {
		t.Error("Expected invalid timestamp to fail")
	}
	var unset *Timestamp
	if !unset.IsZero() {
		t.Error("Expected nil timestamp to be zero")
	}
}

func TestToRawPending(t *testing.T) {
	raw := ToRaw(&Task{UUID: "u2", Description: "Read", Status: StatusWaiting})
	if raw.CompletionStatus != model.StatusPending || raw.CompletedAt != "" || raw.DueDate != "" {
		t.Errorf("Expected undated pending task, got %+v", raw)
	}
	if raw.EstimatedHours != nil {
		t.Errorf("Expected no estimate, got %v", *raw.EstimatedHours)
	}
}

type recorder struct {
	calls  [][]string
	output string
}

func (r *recorder) run(_ context.Context, args ...string) ([]byte, error) {
	r.calls = append(r.calls, args)
	return []byte(r.output), nil
}

func TestFetch(t *testing.T) {
	rec := &recorder{output: `[
		{"uuid": "a", "description": "One", "status": "pending", "due": "20240315T170000Z"},
		{"uuid": "b", "description": "Gone", "status": "deleted"}
	]`}
	c := &Client{Filter: DefaultFilter, run: rec.run}

	s, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(s.Tasks) != 1 || s.Tasks[0].ID != "a" {
		t.Errorf("Expected only task a, got %+v", s.Tasks)
	}
	want := []string{"status.not:deleted", "export", "rc.hooks=0"}
	if !reflect.DeepEqual(rec.calls[0], want) {
		t.Errorf("Expected args %v, got %v", want, rec.calls[0])
	}
}

func TestApply(t *testing.T) {
	rec := &recorder{}
	c := &Client{run: rec.run}

	done := model.CompletionUpdate{Kind: model.Manual, ID: "a", Fields: map[string]any{
		model.FieldCompletionStatus: model.StatusCompleted,
	}}
	if err := c.Apply(context.Background(), done); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	reopen := model.CompletionUpdate{Kind: model.Manual, ID: "a", Fields: map[string]any{
		model.FieldCompletionStatus: model.StatusPending,
	}}
	if err := c.Apply(context.Background(), reopen); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	want := [][]string{
		{"rc.confirmation=off", "rc.hooks=0", "a", "done"},
		{"rc.confirmation=off", "rc.hooks=0", "a", "modify", "status:pending"},
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("Expected calls %v, got %v", want, rec.calls)
	}

	if err := c.Apply(context.Background(), model.CompletionUpdate{Kind: model.SyncedAssignment, ID: "x"}); err == nil {
		t.Error("Expected assignment update to be rejected")
	}
}
