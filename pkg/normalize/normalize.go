// Package normalize turns raw manual tasks and raw synced calendar assignments
// into model.WorkItem values. Malformed fields never fail a batch: the item is
// kept with the field dropped and an issue is reported alongside.
package normalize

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/workload/pkg/model"
)

// DefaultCourse is the label used when an assignment names no course.
const DefaultCourse = "General"

var courseTag = regexp.MustCompile(`\[([^\[\]]+)\]`)

// Options controls normalization.
type Options struct {
	// Location is the user's zone; zone-less timestamps are read in it.
	Location *time.Location
	// EndOfDaySentinel reinterprets 23:59:59 UTC assignment due times as
	// 23:59:59 local on the same calendar date.
	EndOfDaySentinel bool
	// FallbackCourse labels assignments without an explicit or bracketed course.
	FallbackCourse string
	// DefaultEstimatedHours is the effort assumed when a record has none.
	DefaultEstimatedHours float64
}

// DefaultOptions returns UTC options with the sentinel rule enabled.
func DefaultOptions() Options {
	return Options{
		Location:              time.UTC,
		EndOfDaySentinel:      true,
		FallbackCourse:        DefaultCourse,
		DefaultEstimatedHours: model.DefaultEstimatedHours,
	}
}

// Normalizer converts raw records into work items.
type Normalizer struct {
	opts Options
}

func New(opts Options) *Normalizer {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.FallbackCourse == "" {
		opts.FallbackCourse = DefaultCourse
	}
	if opts.DefaultEstimatedHours <= 0 {
		opts.DefaultEstimatedHours = model.DefaultEstimatedHours
	}
	return &Normalizer{opts: opts}
}

// Result is the outcome of normalizing a whole snapshot.
type Result struct {
	Items  []model.WorkItem
	Issues []error
}

// Snapshot normalizes every task and every assignment event of s, in order:
// tasks first, then assignments. Non-assignment events are skipped.
func (n *Normalizer) Snapshot(s model.Snapshot) Result {
	res := Result{Items: make([]model.WorkItem, 0, len(s.Tasks)+len(s.Events))}
	for _, t := range s.Tasks {
		item, issues := n.Task(t)
		res.Items = append(res.Items, item)
		res.Issues = append(res.Issues, issues...)
	}
	for _, e := range s.Events {
		if !e.IsAssignment() {
			continue
		}
		item, issues := n.Assignment(e)
		res.Items = append(res.Items, item)
		res.Issues = append(res.Issues, issues...)
	}
	return res
}

// Task normalizes a manual task.
func (n *Normalizer) Task(raw model.Task) (model.WorkItem, []error) {
	var issues []error
	item := model.WorkItem{
		ID:        strings.TrimSpace(raw.ID),
		Title:     raw.Title,
		Kind:      model.Manual,
		Course:    strings.TrimSpace(raw.CourseName),
		Completed: strings.EqualFold(strings.TrimSpace(raw.CompletionStatus), model.StatusCompleted),
		Tier:      model.TierNone,
	}

	if raw.DueDate != "" {
		due, _, err := ParseInstant(raw.DueDate, n.opts.Location)
		if err != nil {
			issues = append(issues, n.malformed(item, "due_date", raw.DueDate, err))
		} else {
			item.Due = &due
		}
	}

	if item.Completed && raw.CompletedAt != "" {
		at, _, err := ParseInstant(raw.CompletedAt, n.opts.Location)
		if err != nil {
			issues = append(issues, n.malformed(item, "completed_at", raw.CompletedAt, err))
		} else {
			item.CompletedAt = &at
		}
	}

	item.EstimatedHours = n.opts.DefaultEstimatedHours
	if raw.EstimatedHours != nil {
		h := *raw.EstimatedHours
		if h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
			issues = append(issues, n.malformed(item, "estimated_hours", formatFloat(h), errors.New("not a non-negative number")))
		} else {
			item.EstimatedHours = h
		}
	}
	return item, issues
}

// Assignment normalizes a synced calendar assignment. The due instant comes
// from start_time, falling back to end_time.
func (n *Normalizer) Assignment(raw model.Event) (model.WorkItem, []error) {
	var issues []error
	item := model.WorkItem{
		ID:             strings.TrimSpace(raw.ID),
		Title:          raw.Title,
		Kind:           model.SyncedAssignment,
		Completed:      raw.IsCompleted != nil && *raw.IsCompleted,
		EstimatedHours: n.opts.DefaultEstimatedHours,
		Tier:           model.TierNone,
	}
	item.Course = n.course(raw)

	for _, f := range []struct{ name, value string }{
		{"start_time", raw.StartTime},
		{"end_time", raw.EndTime},
	} {
		if f.value == "" {
			continue
		}
		due, dateOnly, err := ParseInstant(f.value, n.opts.Location)
		if err != nil {
			issues = append(issues, n.malformed(item, f.name, f.value, err))
			continue
		}
		if n.opts.EndOfDaySentinel && !dateOnly && isEndOfDaySentinel(due) {
			due = time.Date(due.Year(), due.Month(), due.Day(), 23, 59, 59, due.Nanosecond(), n.opts.Location)
		}
		item.Due = &due
		break
	}
	return item, issues
}

func (n *Normalizer) course(raw model.Event) string {
	if c := strings.TrimSpace(raw.CourseName); c != "" {
		return c
	}
	if m := courseTag.FindStringSubmatch(raw.Title); len(m) > 1 {
		if c := strings.TrimSpace(m[1]); c != "" {
			return c
		}
	}
	return n.opts.FallbackCourse
}

func (n *Normalizer) malformed(item model.WorkItem, field, value string, err error) error {
	return &MalformedInputError{
		ID:    item.ID,
		Kind:  string(item.Kind),
		Field: field,
		Value: value,
		Err:   err,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
