package toggle

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/harrisonrobin/workload/pkg/model"
)

var now = time.Date(2024, 3, 14, 9, 30, 0, 0, time.FixedZone("UTC-5", -5*60*60))

func TestToggleManual(t *testing.T) {
	c := New(now)
	item := model.WorkItem{ID: "t1", Kind: model.Manual}

	u := c.Toggle(item, true)
	if u.Fields[model.FieldCompletionStatus] != model.StatusCompleted {
		t.Errorf("Expected completion_status completed, got %v", u.Fields[model.FieldCompletionStatus])
	}
	if u.Fields[model.FieldCompletedAt] != "2024-03-14T14:30:00Z" {
		t.Errorf("Expected UTC completion stamp, got %v", u.Fields[model.FieldCompletedAt])
	}
	if !u.Completed() {
		t.Error("Expected update to report completed")
	}

	u = c.Toggle(item, false)
	if u.Fields[model.FieldCompletionStatus] != model.StatusPending {
		t.Errorf("Expected completion_status pending, got %v", u.Fields[model.FieldCompletionStatus])
	}
	if v, ok := u.Fields[model.FieldCompletedAt]; !ok || v != nil {
		t.Errorf("Expected completed_at cleared, got %v (present %v)", v, ok)
	}
}

func TestToggleAssignment(t *testing.T) {
	u := New(now).Toggle(model.WorkItem{ID: "a1", Kind: model.SyncedAssignment}, true)
	if want := []string{model.FieldIsCompleted}; !reflect.DeepEqual(u.Columns(), want) {
		t.Errorf("Expected only %v, got %v", want, u.Columns())
	}
	if u.Fields[model.FieldIsCompleted] != true {
		t.Errorf("Expected is_completed true, got %v", u.Fields[model.FieldIsCompleted])
	}
}

func TestToggleIdempotent(t *testing.T) {
	c := New(now)
	item := model.WorkItem{ID: "t1", Kind: model.Manual}
	if !reflect.DeepEqual(c.Toggle(item, true), c.Toggle(item, true)) {
		t.Error("Expected identical updates for the same (id, completed) pair")
	}
}

func snapshot() model.Snapshot {
	no := false
	return model.Snapshot{
		Tasks: []model.Task{
			{ID: "t1", Title: "Essay", CompletionStatus: model.StatusPending},
		},
		Events: []model.Event{
			{ID: "a1", Title: "[CS] Lab", EventType: model.EventTypeAssignment, IsCompleted: &no},
			{ID: "l1", Title: "Lecture", EventType: "class"},
		},
	}
}

func TestApplyToSnapshot(t *testing.T) {
	c := New(now)
	orig := snapshot()

	s, err := ApplyToSnapshot(orig, c.Toggle(model.WorkItem{ID: "t1", Kind: model.Manual}, true))
	if err != nil {
		t.Fatalf("ApplyToSnapshot failed: %v", err)
	}
	if s.Tasks[0].CompletionStatus != model.StatusCompleted || s.Tasks[0].CompletedAt == "" {
		t.Errorf("Expected task completed with a stamp, got %+v", s.Tasks[0])
	}
	if orig.Tasks[0].CompletionStatus != model.StatusPending {
		t.Error("Expected original snapshot untouched")
	}

	s, err = ApplyToSnapshot(s, c.Toggle(model.WorkItem{ID: "a1", Kind: model.SyncedAssignment}, true))
	if err != nil {
		t.Fatalf("ApplyToSnapshot failed: %v", err)
	}
	if s.Events[0].IsCompleted == nil || !*s.Events[0].IsCompleted {
		t.Errorf("Expected assignment completed, got %+v", s.Events[0])
	}
	if *orig.Events[0].IsCompleted {
		t.Error("Expected original assignment flag untouched")
	}

	s, err = ApplyToSnapshot(s, c.Toggle(model.WorkItem{ID: "t1", Kind: model.Manual}, false))
	if err != nil {
		t.Fatalf("ApplyToSnapshot failed: %v", err)
	}
	if s.Tasks[0].CompletionStatus != model.StatusPending || s.Tasks[0].CompletedAt != "" {
		t.Errorf("Expected task reopened, got %+v", s.Tasks[0])
	}
}

func TestApplyToSnapshotErrors(t *testing.T) {
	c := New(now)
	_, err := ApplyToSnapshot(snapshot(), c.Toggle(model.WorkItem{ID: "missing", Kind: model.Manual}, true))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	_, err = ApplyToSnapshot(snapshot(), c.Toggle(model.WorkItem{ID: "l1", Kind: model.SyncedAssignment}, true))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a non-assignment event, got %v", err)
	}
	_, err = ApplyToSnapshot(snapshot(), model.CompletionUpdate{Kind: "other", ID: "x", Fields: map[string]any{}})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	bad := model.CompletionUpdate{Kind: model.SyncedAssignment, ID: "a1", Fields: map[string]any{
		model.FieldIsCompleted: true,
		model.FieldCompletedAt: "2024-03-14T00:00:00Z",
	}}
	if err := Validate(bad); err == nil {
		t.Error("Expected assignment update with completed_at to be rejected")
	}
	if err := Validate(model.CompletionUpdate{Kind: model.Manual}); err == nil {
		t.Error("Expected empty id to be rejected")
	}
}
