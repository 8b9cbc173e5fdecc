// Package filter drops items that must not reach scoring: malformed records,
// duplicate ids, and stale synced assignments.
package filter

import (
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/workload/pkg/model"
)

// DefaultCutoffDays is how far past due an incomplete synced assignment may
// be before it is hidden from active views.
const DefaultCutoffDays = 7

// ErrInvariantViolation is matched by every *Violation.
var ErrInvariantViolation = errors.New("filter: invariant violation")

// Violation reports input that indicates a caller bug. The filter resolves it
// (last write wins for duplicates) and keeps going.
type Violation struct {
	Key    model.ItemKey
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s %q: %s", v.Key.Kind, v.Key.ID, v.Reason)
}

func (v *Violation) Is(target error) bool {
	return target == ErrInvariantViolation
}

// Filter holds the staleness policy.
type Filter struct {
	CutoffDays int
}

// New returns a Filter; a negative cutoff falls back to DefaultCutoffDays.
func New(cutoffDays int) Filter {
	if cutoffDays < 0 {
		cutoffDays = DefaultCutoffDays
	}
	return Filter{CutoffDays: cutoffDays}
}

// Apply returns the items that survive, in their original order. Duplicates
// within a kind keep the position of the first occurrence and the contents of
// the last one. The input slice is not modified.
func (f Filter) Apply(items []model.WorkItem, now time.Time) ([]model.WorkItem, []error) {
	var violations []error
	out := make([]model.WorkItem, 0, len(items))
	seen := make(map[model.ItemKey]int, len(items))
	for _, item := range items {
		if item.ID == "" {
			violations = append(violations, &Violation{Key: item.Key(), Reason: fmt.Sprintf("missing id (title %q)", item.Title)})
			continue
		}
		if idx, dup := seen[item.Key()]; dup {
			violations = append(violations, &Violation{Key: item.Key(), Reason: "duplicate id"})
			out[idx] = item
			continue
		}
		seen[item.Key()] = len(out)
		out = append(out, item)
	}

	kept := out[:0]
	for _, item := range out {
		if f.IsStale(item, now) {
			continue
		}
		kept = append(kept, item)
	}
	return kept, violations
}

// IsStale reports whether item is an incomplete synced assignment due more
// than CutoffDays before now. Manual items and completed items never are.
func (f Filter) IsStale(item model.WorkItem, now time.Time) bool {
	if item.Kind != model.SyncedAssignment || item.Completed || item.Due == nil {
		return false
	}
	cutoff := now.Add(-time.Duration(f.CutoffDays) * 24 * time.Hour)
	return item.Due.Before(cutoff)
}
