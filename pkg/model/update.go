package model

import "sort"

// Columns written by completion updates.
const (
	FieldCompletionStatus = "completion_status"
	FieldCompletedAt      = "completed_at"
	FieldIsCompleted      = "is_completed"
)

// CompletionUpdate describes a completion change for one raw record. It is
// produced by the toggle coordinator and applied by whichever source owns the
// record. A nil field value means the column must be cleared.
type CompletionUpdate struct {
	Kind   SourceKind     `json:"kind" yaml:"kind"`
	ID     string         `json:"id" yaml:"id"`
	Fields map[string]any `json:"fields" yaml:"fields"`
}

// Completed reports the completion state the update moves the record to.
func (u CompletionUpdate) Completed() bool {
	switch u.Kind {
	case Manual:
		s, _ := u.Fields[FieldCompletionStatus].(string)
		return s == StatusCompleted
	case SyncedAssignment:
		b, _ := u.Fields[FieldIsCompleted].(bool)
		return b
	}
	return false
}

// Columns returns the field names in a stable order.
func (u CompletionUpdate) Columns() []string {
	cols := make([]string, 0, len(u.Fields))
	for k := range u.Fields {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
