package model

// Raw record values shared by every source.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"

	EventTypeAssignment = "assignment"
)

// Task is a raw manual task record, as handed over by a manual task source.
// Dates are ISO-8601 strings and may be empty or malformed.
type Task struct {
	ID               string   `json:"id" yaml:"id"`
	Title            string   `json:"title" yaml:"title"`
	DueDate          string   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	CompletionStatus string   `json:"completion_status" yaml:"completion_status"`
	CompletedAt      string   `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	CourseName       string   `json:"course_name,omitempty" yaml:"course_name,omitempty"`
	PriorityScore    *float64 `json:"priority_score,omitempty" yaml:"priority_score,omitempty"`
	EstimatedHours   *float64 `json:"estimated_hours,omitempty" yaml:"estimated_hours,omitempty"`
}

// Event is a raw calendar event. Events whose EventType is "assignment" are
// synced assignments; every other event only occupies time on the calendar.
type Event struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	StartTime   string `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	EventType   string `json:"event_type" yaml:"event_type"`
	IsCompleted *bool  `json:"is_completed,omitempty" yaml:"is_completed,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	CourseName  string `json:"course_name,omitempty" yaml:"course_name,omitempty"`
}

// IsAssignment reports whether the event is a synced assignment.
func (e Event) IsAssignment() bool {
	return e.EventType == EventTypeAssignment
}

// Snapshot is an immutable view of both raw collections taken at one moment.
// Every aggregation pass starts from a Snapshot.
type Snapshot struct {
	Tasks  []Task  `json:"tasks" yaml:"tasks"`
	Events []Event `json:"events" yaml:"events"`
}

// Clone returns a deep copy so callers can mutate the result freely.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Tasks:  make([]Task, len(s.Tasks)),
		Events: make([]Event, len(s.Events)),
	}
	for i, t := range s.Tasks {
		if t.PriorityScore != nil {
			v := *t.PriorityScore
			t.PriorityScore = &v
		}
		if t.EstimatedHours != nil {
			v := *t.EstimatedHours
			t.EstimatedHours = &v
		}
		out.Tasks[i] = t
	}
	for i, e := range s.Events {
		if e.IsCompleted != nil {
			v := *e.IsCompleted
			e.IsCompleted = &v
		}
		out.Events[i] = e
	}
	return out
}
