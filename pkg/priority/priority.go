// Package priority assigns dynamic priority tiers and defines the display
// order used inside every bucket.
package priority

import (
	"sort"

	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/timewindow"
)

// Score returns the tier for item relative to the calculator's reference
// instant. The first matching rule wins.
func Score(item model.WorkItem, cal timewindow.Calculator) model.Tier {
	switch {
	case item.Due == nil:
		return model.TierNone
	case cal.Today().Contains(*item.Due):
		return model.TierCritical
	case cal.Day(1).Contains(*item.Due):
		return model.TierHigh
	case cal.Week(0).Contains(*item.Due):
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// ScoreAll returns a copy of items with Tier set on every element.
func ScoreAll(items []model.WorkItem, cal timewindow.Calculator) []model.WorkItem {
	out := make([]model.WorkItem, len(items))
	for i, item := range items {
		item.Tier = Score(item, cal)
		out[i] = item
	}
	return out
}

// Less orders by descending tier, ascending due instant, ascending title.
// Kind and id break any remaining tie so the order is total.
func Less(a, b model.WorkItem) bool {
	if ra, rb := a.Tier.Rank(), b.Tier.Rank(); ra != rb {
		return ra > rb
	}
	switch {
	case a.Due != nil && b.Due != nil:
		if !a.Due.Equal(*b.Due) {
			return a.Due.Before(*b.Due)
		}
	case a.Due != nil:
		return true
	case b.Due != nil:
		return false
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

// Sort orders items in place using Less.
func Sort(items []model.WorkItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(items[i], items[j])
	})
}

// SortIncompleteFirst orders incomplete items before completed ones, then by Less.
func SortIncompleteFirst(items []model.WorkItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Completed != items[j].Completed {
			return !items[i].Completed
		}
		return Less(items[i], items[j])
	})
}
