package priority

import (
	"testing"
	"time"

	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/timewindow"
)

// Thursday 2024-03-14 09:00 UTC, Monday week start.
var cal = timewindow.New(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC), time.UTC, time.Monday)

func due(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		due  *time.Time
		want model.Tier
	}{
		{"undated", nil, model.TierNone},
		{"later today", due("2024-03-14T17:00:00Z"), model.TierCritical},
		{"earlier today", due("2024-03-14T01:00:00Z"), model.TierCritical},
		{"last millisecond of today", due("2024-03-14T23:59:59.999Z"), model.TierCritical},
		{"just before midnight", due("2024-03-14T23:59:59.9995Z"), model.TierCritical},
		{"tomorrow", due("2024-03-15T00:00:00Z"), model.TierHigh},
		{"this weekend", due("2024-03-17T12:00:00Z"), model.TierMedium},
		{"overdue this week", due("2024-03-12T12:00:00Z"), model.TierMedium},
		{"next week", due("2024-03-18T00:00:00Z"), model.TierLow},
		{"last week", due("2024-03-10T23:00:00Z"), model.TierLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(model.WorkItem{ID: "x", Due: tt.due}, cal)
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTomorrowNeverOutranksToday(t *testing.T) {
	today := Score(model.WorkItem{Due: due("2024-03-14T23:00:00Z")}, cal)
	tomorrow := Score(model.WorkItem{Due: due("2024-03-15T00:30:00Z")}, cal)
	if tomorrow.Rank() > today.Rank() {
		t.Errorf("Expected %s to rank at most %s", tomorrow, today)
	}
	other := Score(model.WorkItem{Due: due("2024-03-14T00:00:00Z")}, cal)
	if other != today {
		t.Errorf("Expected both items due today to share a tier, got %s and %s", today, other)
	}
}

func TestSortTieBreak(t *testing.T) {
	items := ScoreAll([]model.WorkItem{
		{ID: "5", Title: "b", Due: due("2024-03-20T10:00:00Z")},
		{ID: "4", Title: "none"},
		{ID: "3", Title: "b", Due: due("2024-03-14T12:00:00Z")},
		{ID: "2", Title: "a", Due: due("2024-03-14T12:00:00Z")},
		{ID: "1", Title: "c", Due: due("2024-03-14T10:00:00Z")},
		{ID: "6", Title: "t", Due: due("2024-03-15T10:00:00Z")},
	}, cal)
	Sort(items)

	want := []string{"1", "2", "3", "6", "5", "4"}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("Expected order %v, got position %d = %s", want, i, items[i].ID)
		}
	}
}

func TestSortIncompleteFirst(t *testing.T) {
	items := ScoreAll([]model.WorkItem{
		{ID: "done", Title: "a", Completed: true, Due: due("2024-03-14T08:00:00Z")},
		{ID: "open", Title: "z", Due: due("2024-03-14T20:00:00Z")},
	}, cal)
	SortIncompleteFirst(items)
	if items[0].ID != "open" {
		t.Errorf("Expected incomplete item first, got %s", items[0].ID)
	}
}

func TestScoreAllDoesNotMutate(t *testing.T) {
	in := []model.WorkItem{{ID: "a", Due: due("2024-03-14T12:00:00Z")}}
	out := ScoreAll(in, cal)
	if in[0].Tier != "" {
		t.Errorf("Expected input untouched, got tier %s", in[0].Tier)
	}
	if out[0].Tier != model.TierCritical {
		t.Errorf("Expected critical, got %s", out[0].Tier)
	}
}
