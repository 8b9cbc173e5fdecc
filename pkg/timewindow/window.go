// Package timewindow computes the calendar windows the workload engine buckets
// items into. Nothing in here reads the system clock: the reference instant is
// always supplied by the caller.
package timewindow

import (
	"fmt"
	"strings"
	"time"
)

const dayKeyLayout = "2006-01-02"

// Window is a closed interval of time; both ends are inclusive. A window
// ending at 23:59:59.999 also covers the sub-millisecond tail up to the next
// midnight, so every instant of a calendar day lands in exactly one day.
type Window struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Contains reports whether start <= t <= end.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	if !t.After(w.End) {
		return true
	}
	return isEndOfDay(w.End) && t.Before(w.End.Add(time.Millisecond))
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Calculator derives windows relative to a fixed reference instant.
type Calculator struct {
	now       time.Time
	loc       *time.Location
	weekStart time.Weekday
}

// New returns a Calculator for now in loc. A nil loc means UTC.
func New(now time.Time, loc *time.Location, weekStart time.Weekday) Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return Calculator{now: now.In(loc), loc: loc, weekStart: weekStart}
}

// Now returns the reference instant in the calculator's zone.
func (c Calculator) Now() time.Time { return c.now }

// Location returns the zone used for calendar arithmetic.
func (c Calculator) Location() *time.Location { return c.loc }

// WeekStart returns the configured first day of the week.
func (c Calculator) WeekStart() time.Weekday { return c.weekStart }

// At returns a calculator with the same zone and week start anchored at t.
func (c Calculator) At(t time.Time) Calculator {
	return New(t, c.loc, c.weekStart)
}

// Today is the window from local midnight to 23:59:59.999 of the reference day.
func (c Calculator) Today() Window {
	return c.Day(0)
}

// Day is the whole-day window offset calendar days away from today.
func (c Calculator) Day(offset int) Window {
	start := c.StartOfDay(c.now).AddDate(0, 0, offset)
	return Window{Start: start, End: endOfDay(start)}
}

// Week is the window of the week containing now+offset weeks. The week starts
// on the configured weekday at midnight and ends six days later at
// 23:59:59.999.
func (c Calculator) Week(offset int) Window {
	day := c.StartOfDay(c.now)
	back := (int(day.Weekday()) - int(c.weekStart) + 7) % 7
	start := day.AddDate(0, 0, offset*7-back)
	return Window{Start: start, End: endOfDay(start.AddDate(0, 0, 6))}
}

// DayKey is the stable bucket key (YYYY-MM-DD) of t's local calendar day.
func (c Calculator) DayKey(t time.Time) string {
	return t.In(c.loc).Format(dayKeyLayout)
}

// StartOfDay returns local midnight of t's calendar day.
func (c Calculator) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// DaysBetween counts calendar days from a's local date to b's local date.
// It is negative when b falls on an earlier day.
func (c Calculator) DaysBetween(a, b time.Time) int {
	da := c.StartOfDay(a)
	db := c.StartOfDay(b)
	// Dates at local noon in UTC terms sidestep DST-shortened days.
	ua := time.Date(da.Year(), da.Month(), da.Day(), 12, 0, 0, 0, time.UTC)
	ub := time.Date(db.Year(), db.Month(), db.Day(), 12, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func endOfDay(start time.Time) time.Time {
	return time.Date(start.Year(), start.Month(), start.Day(), 23, 59, 59, int(999*time.Millisecond), start.Location())
}

func isEndOfDay(t time.Time) bool {
	h, m, sec := t.Clock()
	return h == 23 && m == 59 && sec == 59 && t.Nanosecond() == int(999*time.Millisecond)
}

// ParseWeekday parses a weekday name ("monday", "Mon", "sun", ...).
func ParseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return time.Monday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return time.Monday, fmt.Errorf("unknown weekday %q", s)
}
