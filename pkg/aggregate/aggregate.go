// Package aggregate groups scored work items into the day and week buckets
// behind the "due today", "this week" and "completed today" views.
package aggregate

import (
	"math"
	"sort"

	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/priority"
	"github.com/harrisonrobin/workload/pkg/timewindow"
)

// Default number of past and future weeks listed next to the current one.
const (
	DefaultHistoryWeeks  = 4
	DefaultUpcomingWeeks = 4
)

// WeeklyGroup is the set of items due within one calendar week.
type WeeklyGroup struct {
	Window               timewindow.Window `json:"window" yaml:"window"`
	Offset               int               `json:"offset" yaml:"offset"`
	Items                []model.WorkItem  `json:"items" yaml:"items"`
	TotalCount           int               `json:"total_count" yaml:"total_count"`
	CompletedCount       int               `json:"completed_count" yaml:"completed_count"`
	CompletionPercentage int               `json:"completion_percentage" yaml:"completion_percentage"`
	IsCurrentWeek        bool              `json:"is_current_week" yaml:"is_current_week"`
}

// Result holds every view produced by one aggregation pass. Slices are never
// nil so they serialize as empty arrays.
type Result struct {
	Today          []model.WorkItem            `json:"today" yaml:"today"`
	Weekly         WeeklyGroup                 `json:"weekly" yaml:"weekly"`
	DayBuckets     map[string][]model.WorkItem `json:"day_buckets" yaml:"day_buckets"`
	DayKeys        []string                    `json:"day_keys" yaml:"day_keys"`
	CompletedToday []model.WorkItem            `json:"completed_today" yaml:"completed_today"`
	Historical     []WeeklyGroup               `json:"historical" yaml:"historical"`
	Upcoming       []WeeklyGroup               `json:"upcoming" yaml:"upcoming"`
	Unscheduled    []model.WorkItem            `json:"unscheduled" yaml:"unscheduled"`
}

// Engine aggregates items relative to one calculator.
type Engine struct {
	cal           timewindow.Calculator
	HistoryWeeks  int
	UpcomingWeeks int
}

func New(cal timewindow.Calculator) *Engine {
	return &Engine{
		cal:           cal,
		HistoryWeeks:  DefaultHistoryWeeks,
		UpcomingWeeks: DefaultUpcomingWeeks,
	}
}

// Aggregate scores items and builds every view. items is not modified.
func (e *Engine) Aggregate(items []model.WorkItem) Result {
	scored := priority.ScoreAll(items, e.cal)
	today := e.cal.Today()

	res := Result{
		Today:          []model.WorkItem{},
		DayBuckets:     map[string][]model.WorkItem{},
		DayKeys:        []string{},
		CompletedToday: []model.WorkItem{},
		Historical:     []WeeklyGroup{},
		Upcoming:       []WeeklyGroup{},
		Unscheduled:    []model.WorkItem{},
	}

	for _, item := range scored {
		if item.Due == nil {
			res.Unscheduled = append(res.Unscheduled, item)
		} else {
			key := e.cal.DayKey(*item.Due)
			res.DayBuckets[key] = append(res.DayBuckets[key], item)
			if !item.Completed && today.Contains(*item.Due) {
				res.Today = append(res.Today, item)
			}
		}
		if completedToday(item, today) {
			res.CompletedToday = append(res.CompletedToday, item)
		}
	}

	for key, bucket := range res.DayBuckets {
		priority.SortIncompleteFirst(bucket)
		res.DayKeys = append(res.DayKeys, key)
	}
	sort.Strings(res.DayKeys)
	priority.Sort(res.Today)
	priority.Sort(res.CompletedToday)
	priority.Sort(res.Unscheduled)

	res.Weekly = e.week(scored, 0)
	for off := -1; off >= -e.HistoryWeeks; off-- {
		if g := e.week(scored, off); g.TotalCount > 0 {
			res.Historical = append(res.Historical, g)
		}
	}
	for off := 1; off <= e.UpcomingWeeks; off++ {
		if g := e.week(scored, off); g.TotalCount > 0 {
			res.Upcoming = append(res.Upcoming, g)
		}
	}
	return res
}

// Week builds the group for the week offset weeks from the current one.
func (e *Engine) Week(items []model.WorkItem, offset int) WeeklyGroup {
	return e.week(priority.ScoreAll(items, e.cal), offset)
}

func (e *Engine) week(scored []model.WorkItem, offset int) WeeklyGroup {
	g := WeeklyGroup{
		Window:        e.cal.Week(offset),
		Offset:        offset,
		Items:         []model.WorkItem{},
		IsCurrentWeek: offset == 0,
	}
	for _, item := range scored {
		if item.Due == nil || !g.Window.Contains(*item.Due) {
			continue
		}
		g.Items = append(g.Items, item)
		if item.Completed {
			g.CompletedCount++
		}
	}
	priority.Sort(g.Items)
	g.TotalCount = len(g.Items)
	g.CompletionPercentage = Percentage(g.CompletedCount, g.TotalCount)
	return g
}

// Percentage is round(completed/total*100), or 0 for an empty group.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// completedToday: manual items by their completion timestamp; synced
// assignments carry none, so a completed one counts when it is due today.
func completedToday(item model.WorkItem, today timewindow.Window) bool {
	if !item.Completed {
		return false
	}
	switch item.Kind {
	case model.Manual:
		return item.CompletedAt != nil && today.Contains(*item.CompletedAt)
	case model.SyncedAssignment:
		return item.Due != nil && today.Contains(*item.Due)
	}
	return false
}
