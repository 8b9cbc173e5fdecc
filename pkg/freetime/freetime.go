// Package freetime estimates how many hours are left in today once sleep,
// essential activities, scheduled events and upcoming deadlines are taken out.
package freetime

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/normalize"
	"github.com/harrisonrobin/workload/pkg/timewindow"
	"github.com/harrisonrobin/workload/pkg/util"
)

// ErrInvalidSchedule is returned for a sleep schedule that cannot be parsed.
var ErrInvalidSchedule = errors.New("freetime: invalid sleep schedule")

// SleepSchedule is the user's daily wake and bed time, both "HH:MM".
type SleepSchedule struct {
	WakeUpTime string `json:"wake_up_time" yaml:"wake_up_time" mapstructure:"wake_up_time"`
	BedTime    string `json:"bed_time" yaml:"bed_time" mapstructure:"bed_time"`
}

// AwakeHours is the time from wake to bed, wrapping past midnight.
func (s SleepSchedule) AwakeHours() (float64, error) {
	wake, err := util.ParseClock(s.WakeUpTime)
	if err != nil {
		return 0, fmt.Errorf("%w: wake_up_time: %v", ErrInvalidSchedule, err)
	}
	bed, err := util.ParseClock(s.BedTime)
	if err != nil {
		return 0, fmt.Errorf("%w: bed_time: %v", ErrInvalidSchedule, err)
	}
	d := bed - wake
	if d < 0 {
		d += 24 * time.Hour
	}
	return d.Hours(), nil
}

// Params holds the heuristic constants.
type Params struct {
	EssentialHours        float64 `json:"essential_hours" yaml:"essential_hours" mapstructure:"essential_hours"`
	DefaultEventHours     float64 `json:"default_event_hours" yaml:"default_event_hours" mapstructure:"default_event_hours"`
	OverdueSurchargeHours float64 `json:"overdue_surcharge_hours" yaml:"overdue_surcharge_hours" mapstructure:"overdue_surcharge_hours"`
	LookaheadDays         int     `json:"lookahead_days" yaml:"lookahead_days" mapstructure:"lookahead_days"`
}

func DefaultParams() Params {
	return Params{
		EssentialHours:        6.0,
		DefaultEventHours:     1.0,
		OverdueSurchargeHours: 1.5,
		LookaheadDays:         3,
	}
}

// Block is a span of scheduled time on the calendar. End is nil when the
// event carries no end time.
type Block struct {
	ID    string     `json:"id" yaml:"id"`
	Title string     `json:"title" yaml:"title"`
	Start time.Time  `json:"start" yaml:"start"`
	End   *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// Blocks converts the non-assignment events of a snapshot into scheduled
// blocks. All-day events and events with an unusable start are skipped; the
// latter are reported.
func Blocks(events []model.Event, loc *time.Location) ([]Block, []error) {
	var (
		out    []Block
		issues []error
	)
	for _, e := range events {
		if e.IsAssignment() || e.StartTime == "" {
			continue
		}
		start, dateOnly, err := normalize.ParseInstant(e.StartTime, loc)
		if err != nil {
			issues = append(issues, &normalize.MalformedInputError{ID: e.ID, Kind: "event", Field: "start_time", Value: e.StartTime, Err: err})
			continue
		}
		if dateOnly {
			continue
		}
		b := Block{ID: e.ID, Title: e.Title, Start: start}
		if e.EndTime != "" {
			end, _, err := normalize.ParseInstant(e.EndTime, loc)
			if err != nil {
				issues = append(issues, &normalize.MalformedInputError{ID: e.ID, Kind: "event", Field: "end_time", Value: e.EndTime, Err: err})
			} else {
				b.End = &end
			}
		}
		out = append(out, b)
	}
	return out, issues
}

// Estimate is the free time left today. When Ready is false no other field
// is meaningful.
type Estimate struct {
	AvailableHours float64 `json:"available_hours" yaml:"available_hours"`
	Ready          bool    `json:"is_estimate_ready" yaml:"is_estimate_ready"`

	AwakeHours     float64 `json:"awake_hours" yaml:"awake_hours"`
	EssentialHours float64 `json:"essential_hours" yaml:"essential_hours"`
	EventHours     float64 `json:"event_hours" yaml:"event_hours"`
	EffortHours    float64 `json:"effort_hours" yaml:"effort_hours"`
	SurchargeHours float64 `json:"surcharge_hours" yaml:"surcharge_hours"`
	OverdueCount   int     `json:"overdue_count" yaml:"overdue_count"`
}

// Estimator computes estimates relative to one calculator.
type Estimator struct {
	cal    timewindow.Calculator
	params Params
}

func New(cal timewindow.Calculator, params Params) *Estimator {
	def := DefaultParams()
	if params.EssentialHours < 0 {
		params.EssentialHours = def.EssentialHours
	}
	if params.DefaultEventHours <= 0 {
		params.DefaultEventHours = def.DefaultEventHours
	}
	if params.OverdueSurchargeHours < 0 {
		params.OverdueSurchargeHours = def.OverdueSurchargeHours
	}
	if params.LookaheadDays <= 0 {
		params.LookaheadDays = def.LookaheadDays
	}
	return &Estimator{cal: cal, params: params}
}

// Estimate returns the free time left today. A nil schedule yields a result
// with Ready unset and no error; an unparseable one yields ErrInvalidSchedule.
func (e *Estimator) Estimate(items []model.WorkItem, blocks []Block, sleep *SleepSchedule) (Estimate, error) {
	if sleep == nil {
		return Estimate{}, nil
	}
	awake, err := sleep.AwakeHours()
	if err != nil {
		return Estimate{}, err
	}

	est := Estimate{
		Ready:          true,
		AwakeHours:     awake,
		EssentialHours: e.params.EssentialHours,
	}
	available := math.Max(0, awake-e.params.EssentialHours)

	est.EventHours = e.eventHours(blocks)
	for _, item := range items {
		if item.Completed || item.Due == nil {
			continue
		}
		effort, overdue := e.itemLoad(item)
		est.EffortHours += effort
		if overdue {
			est.OverdueCount++
			est.SurchargeHours += e.params.OverdueSurchargeHours
		}
	}

	free := available - est.EventHours - est.EffortHours - est.SurchargeHours
	est.AvailableHours = util.RoundTenth(math.Max(0, free))
	est.EventHours = util.RoundTenth(est.EventHours)
	est.EffortHours = util.RoundTenth(est.EffortHours)
	est.SurchargeHours = util.RoundTenth(est.SurchargeHours)
	return est, nil
}

func (e *Estimator) eventHours(blocks []Block) float64 {
	today := e.cal.Today()
	var total float64
	for _, b := range blocks {
		if !today.Contains(b.Start) {
			continue
		}
		hours := e.params.DefaultEventHours
		if b.End != nil && !b.End.Before(b.Start) {
			hours = b.End.Sub(b.Start).Hours()
		}
		total += hours
	}
	return total
}

// itemLoad returns the share of an incomplete item's effort that falls on
// today, and whether it is an overdue synced assignment.
func (e *Estimator) itemLoad(item model.WorkItem) (float64, bool) {
	now := e.cal.Now()
	if item.Due.Before(now) {
		return 0, item.Kind == model.SyncedAssignment
	}
	days := e.cal.DaysBetween(now, *item.Due)
	if days > e.params.LookaheadDays {
		return 0, false
	}
	hours := item.EstimatedHours
	if hours <= 0 {
		hours = model.DefaultEstimatedHours
	}
	return hours / float64(max(1, days)), false
}
