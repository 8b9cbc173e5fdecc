// Package toggle builds completion updates for work items and applies them to
// in-memory snapshots.
package toggle

import (
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/workload/pkg/model"
)

var (
	ErrUnknownKind = errors.New("toggle: unknown source kind")
	ErrNotFound    = errors.New("toggle: record not found")
)

// Coordinator emits completion updates. now stamps manual completions.
type Coordinator struct {
	now time.Time
}

func New(now time.Time) Coordinator {
	return Coordinator{now: now}
}

// Toggle describes the change that moves item to the requested completion
// state. The same (item, completed) pair always yields the same update.
func (c Coordinator) Toggle(item model.WorkItem, completed bool) model.CompletionUpdate {
	u := model.CompletionUpdate{Kind: item.Kind, ID: item.ID, Fields: map[string]any{}}
	switch item.Kind {
	case model.Manual:
		if completed {
			u.Fields[model.FieldCompletionStatus] = model.StatusCompleted
			u.Fields[model.FieldCompletedAt] = c.now.UTC().Format(time.RFC3339)
		} else {
			u.Fields[model.FieldCompletionStatus] = model.StatusPending
			u.Fields[model.FieldCompletedAt] = nil
		}
	case model.SyncedAssignment:
		u.Fields[model.FieldIsCompleted] = completed
	}
	return u
}

// Validate rejects updates that no source could apply.
func Validate(u model.CompletionUpdate) error {
	if u.ID == "" {
		return fmt.Errorf("toggle: empty id")
	}
	switch u.Kind {
	case model.Manual:
		if _, ok := u.Fields[model.FieldCompletionStatus].(string); !ok {
			return fmt.Errorf("toggle: manual update for %q without %s", u.ID, model.FieldCompletionStatus)
		}
	case model.SyncedAssignment:
		if _, ok := u.Fields[model.FieldIsCompleted].(bool); !ok {
			return fmt.Errorf("toggle: assignment update for %q without %s", u.ID, model.FieldIsCompleted)
		}
		if _, ok := u.Fields[model.FieldCompletedAt]; ok {
			return fmt.Errorf("toggle: assignment update for %q carries %s", u.ID, model.FieldCompletedAt)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, u.Kind)
	}
	return nil
}

// ApplyToSnapshot returns a copy of s with u applied. s is not modified.
func ApplyToSnapshot(s model.Snapshot, u model.CompletionUpdate) (model.Snapshot, error) {
	if err := Validate(u); err != nil {
		return s, err
	}
	out := s.Clone()
	found := false
	switch u.Kind {
	case model.Manual:
		for i := range out.Tasks {
			if out.Tasks[i].ID != u.ID {
				continue
			}
			found = true
			out.Tasks[i].CompletionStatus, _ = u.Fields[model.FieldCompletionStatus].(string)
			out.Tasks[i].CompletedAt, _ = u.Fields[model.FieldCompletedAt].(string)
		}
	case model.SyncedAssignment:
		for i := range out.Events {
			if out.Events[i].ID != u.ID || !out.Events[i].IsAssignment() {
				continue
			}
			found = true
			done := u.Fields[model.FieldIsCompleted].(bool)
			out.Events[i].IsCompleted = &done
		}
	}
	if !found {
		return s, fmt.Errorf("%w: %s %q", ErrNotFound, u.Kind, u.ID)
	}
	return out, nil
}
