package taskwarrior

import (
	"fmt"
	"strings"
	"time"
)

// Task statuses as written by `task export`.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusWaiting   = "waiting"
	StatusDeleted   = "deleted"
)

// timestampLayout is Taskwarrior's compact UTC form, 20240314T090000Z.
const timestampLayout = "20060102T150405Z"

// Timestamp is a time in Taskwarrior's export encoding. An empty string
// decodes to the zero time.
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return fmt.Errorf("taskwarrior: invalid timestamp %q: %w", s, err)
	}
	ts.Time = t
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ts.Time.UTC().Format(timestampLayout) + `"`), nil
}

// IsZero reports whether the time is unset. It is safe on a nil receiver.
func (ts *Timestamp) IsZero() bool {
	return ts == nil || ts.Time.IsZero()
}

// Task holds the exported fields a manual work item is built from.
type Task struct {
	UUID        string     `json:"uuid"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Due         *Timestamp `json:"due,omitempty"`
	End         *Timestamp `json:"end,omitempty"`
	// Project is the course; the first tag stands in when it is empty.
	Project string   `json:"project,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Urgency *float64 `json:"urgency,omitempty"`
	// Est is the effort UDA, hours or an ISO 8601 duration (PT1H30M).
	Est string `json:"est,omitempty"`
}

// Course returns the project, or the first tag for tasks without one.
func (t *Task) Course() string {
	if t.Project != "" {
		return t.Project
	}
	if len(t.Tags) > 0 {
		return t.Tags[0]
	}
	return ""
}
