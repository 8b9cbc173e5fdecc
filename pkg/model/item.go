package model

import "time"

// SourceKind discriminates the two item shapes the engine understands.
type SourceKind string

const (
	Manual           SourceKind = "manual"
	SyncedAssignment SourceKind = "synced_assignment"
)

// ParseSourceKind accepts the canonical names plus a few short aliases.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch s {
	case "manual", "task", "tasks":
		return Manual, true
	case "synced_assignment", "synced", "assignment", "assignments":
		return SyncedAssignment, true
	}
	return "", false
}

// Tier is a dynamic priority tier derived from due-date proximity.
type Tier string

const (
	TierCritical Tier = "critical" // due today
	TierHigh     Tier = "high"     // due tomorrow
	TierMedium   Tier = "medium"   // due this week
	TierLow      Tier = "low"      // due later (or long overdue)
	TierNone     Tier = "none"     // no due date
)

// Rank orders tiers; higher is more urgent.
func (t Tier) Rank() int {
	switch t {
	case TierCritical:
		return 4
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	default:
		return 0
	}
}

// DefaultEstimatedHours is used when a record carries no effort estimate.
const DefaultEstimatedHours = 2.0

// WorkItem is the normalized unit every engine stage operates on.
type WorkItem struct {
	ID             string     `json:"id" yaml:"id"`
	Title          string     `json:"title" yaml:"title"`
	Due            *time.Time `json:"due,omitempty" yaml:"due,omitempty"`
	Kind           SourceKind `json:"kind" yaml:"kind"`
	Course         string     `json:"course,omitempty" yaml:"course,omitempty"`
	Completed      bool       `json:"completed" yaml:"completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	EstimatedHours float64    `json:"estimated_hours" yaml:"estimated_hours"`
	Tier           Tier       `json:"tier" yaml:"tier"`
}

// ItemKey identifies an item across passes. Ids are only unique per kind.
type ItemKey struct {
	Kind SourceKind
	ID   string
}

func (w WorkItem) Key() ItemKey {
	return ItemKey{Kind: w.Kind, ID: w.ID}
}

// HasDue reports whether the item can be placed in a time window.
func (w WorkItem) HasDue() bool {
	return w.Due != nil
}
