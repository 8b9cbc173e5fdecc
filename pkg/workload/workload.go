// Package workload runs the full pass from a raw snapshot to every view:
// normalize, filter, score, aggregate and estimate free time.
package workload

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/workload/pkg/aggregate"
	"github.com/harrisonrobin/workload/pkg/filter"
	"github.com/harrisonrobin/workload/pkg/freetime"
	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/normalize"
	"github.com/harrisonrobin/workload/pkg/timewindow"
)

// ErrInvariantViolation is returned by Run in strict mode.
var ErrInvariantViolation = filter.ErrInvariantViolation

// Config holds every knob of a pass.
type Config struct {
	Location         *time.Location
	WeekStart        time.Weekday
	StaleCutoffDays  int
	EndOfDaySentinel bool
	FallbackCourse   string
	DefaultEstimate  float64
	HistoryWeeks     int
	UpcomingWeeks    int
	// Sleep is nil until the user configures a schedule.
	Sleep    *freetime.SleepSchedule
	FreeTime freetime.Params
	// Strict turns invariant violations into errors instead of log lines.
	Strict bool
}

func DefaultConfig() Config {
	return Config{
		Location:         time.UTC,
		WeekStart:        time.Monday,
		StaleCutoffDays:  filter.DefaultCutoffDays,
		EndOfDaySentinel: true,
		FallbackCourse:   normalize.DefaultCourse,
		DefaultEstimate:  model.DefaultEstimatedHours,
		HistoryWeeks:     aggregate.DefaultHistoryWeeks,
		UpcomingWeeks:    aggregate.DefaultUpcomingWeeks,
		FreeTime:         freetime.DefaultParams(),
	}
}

// View is the output of one pass.
type View struct {
	Now            time.Time                   `json:"now" yaml:"now"`
	Today          []model.WorkItem            `json:"today" yaml:"today"`
	Weekly         aggregate.WeeklyGroup       `json:"weekly" yaml:"weekly"`
	DayBuckets     map[string][]model.WorkItem `json:"day_buckets" yaml:"day_buckets"`
	DayKeys        []string                    `json:"day_keys" yaml:"day_keys"`
	CompletedToday []model.WorkItem            `json:"completed_today" yaml:"completed_today"`
	Historical     []aggregate.WeeklyGroup     `json:"historical" yaml:"historical"`
	Upcoming       []aggregate.WeeklyGroup     `json:"upcoming" yaml:"upcoming"`
	Unscheduled    []model.WorkItem            `json:"unscheduled" yaml:"unscheduled"`
	FreeTime       freetime.Estimate           `json:"free_time" yaml:"free_time"`
	// Items is the filtered, scored item set the views were built from.
	Items  []model.WorkItem `json:"-" yaml:"-"`
	Issues []string         `json:"issues" yaml:"issues"`
}

// Find returns the item with the given kind and id.
func (v View) Find(kind model.SourceKind, id string) (model.WorkItem, bool) {
	for _, it := range v.Items {
		if it.Kind == kind && it.ID == id {
			return it, true
		}
	}
	return model.WorkItem{}, false
}

// Engine runs passes with a fixed configuration. It holds no state between
// passes and is safe for concurrent use.
type Engine struct {
	cfg        Config
	normalizer *normalize.Normalizer
	filter     filter.Filter
}

// New validates cfg and returns an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Sleep != nil {
		if _, err := cfg.Sleep.AwakeHours(); err != nil {
			return nil, err
		}
	}
	if cfg.HistoryWeeks < 0 || cfg.UpcomingWeeks < 0 {
		return nil, fmt.Errorf("workload: negative week range %d/%d", cfg.HistoryWeeks, cfg.UpcomingWeeks)
	}
	return &Engine{
		cfg: cfg,
		normalizer: normalize.New(normalize.Options{
			Location:              cfg.Location,
			EndOfDaySentinel:      cfg.EndOfDaySentinel,
			FallbackCourse:        cfg.FallbackCourse,
			DefaultEstimatedHours: cfg.DefaultEstimate,
		}),
		filter: filter.New(cfg.StaleCutoffDays),
	}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Calculator returns the window calculator a pass at now uses.
func (e *Engine) Calculator(now time.Time) timewindow.Calculator {
	return timewindow.New(now, e.cfg.Location, e.cfg.WeekStart)
}

// Run performs one full pass over s. now is the only clock reading used.
// Malformed fields degrade the affected item and are listed in View.Issues.
// Invariant violations are logged, or returned in strict mode.
func (e *Engine) Run(s model.Snapshot, now time.Time) (View, error) {
	cal := e.Calculator(now)

	norm := e.normalizer.Snapshot(s)
	items, violations := e.filter.Apply(norm.Items, now)
	if len(violations) > 0 {
		if e.cfg.Strict {
			return View{}, fmt.Errorf("workload: %d invariant violations: %w", len(violations), errors.Join(violations...))
		}
		for _, v := range violations {
			log.Printf("Warning: %v", v)
		}
	}

	agg := aggregate.New(cal)
	agg.HistoryWeeks = e.cfg.HistoryWeeks
	agg.UpcomingWeeks = e.cfg.UpcomingWeeks
	res := agg.Aggregate(items)

	blocks, blockIssues := freetime.Blocks(s.Events, e.cfg.Location)
	est, err := freetime.New(cal, e.cfg.FreeTime).Estimate(items, blocks, e.cfg.Sleep)
	if err != nil {
		return View{}, fmt.Errorf("workload: %w", err)
	}

	v := View{
		Now:            now.In(e.cfg.Location),
		Today:          res.Today,
		Weekly:         res.Weekly,
		DayBuckets:     res.DayBuckets,
		DayKeys:        res.DayKeys,
		CompletedToday: res.CompletedToday,
		Historical:     res.Historical,
		Upcoming:       res.Upcoming,
		Unscheduled:    res.Unscheduled,
		FreeTime:       est,
		Items:          scored(res),
		Issues:         []string{},
	}
	for _, issue := range append(norm.Issues, blockIssues...) {
		v.Issues = append(v.Issues, issue.Error())
	}
	if len(v.Issues) > 0 {
		log.Printf("%d malformed fields in snapshot", len(v.Issues))
	}
	return v, nil
}

// scored collects every item of a result once, with its tier set.
func scored(res aggregate.Result) []model.WorkItem {
	out := make([]model.WorkItem, 0, len(res.Unscheduled))
	for _, key := range res.DayKeys {
		out = append(out, res.DayBuckets[key]...)
	}
	return append(out, res.Unscheduled...)
}
