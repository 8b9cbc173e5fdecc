// Package printers renders workload views as colored terminal tables.
package printers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/harrisonrobin/workload/pkg/aggregate"
	"github.com/harrisonrobin/workload/pkg/colors"
	"github.com/harrisonrobin/workload/pkg/freetime"
	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/workload"
)

const (
	dayLayout = "Mon Jan 2"
	dueLayout = "Mon Jan 2 15:04"
)

type PrettyPrint struct {
	// Out defaults to color.Output.
	Out io.Writer
	// Colors is optional; without it every course prints uncolored.
	Colors *colors.ColorCache
	Now    time.Time
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out())
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " item")
	default:
		_, _ = c.Fprintln(pp.out(), " items")
	}
}

// Items prints one row per item: state, due, course, title and estimate.
func (pp *PrettyPrint) Items(items ...model.WorkItem) {
	if len(items) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " none\n\n")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, it := range items {
		tbl.AddRow(pp.bullet(it), pp.due(it), pp.course(it.Course), pp.title(it), fmt.Sprintf("%.1fh", it.EstimatedHours))
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

func (pp *PrettyPrint) Today(v workload.View) {
	pp.TitleWithCount("Today, "+v.Now.Format(dayLayout), len(v.Today))
	pp.Items(v.Today...)
	if len(v.CompletedToday) > 0 {
		pp.TitleWithCount("Completed today", len(v.CompletedToday))
		pp.Items(v.CompletedToday...)
	}
}

func (pp *PrettyPrint) Week(g aggregate.WeeklyGroup) {
	title := fmt.Sprintf("Week of %s", g.Window.Start.Format(dayLayout))
	if g.IsCurrentWeek {
		title += " (this week)"
	}
	pp.TitleWithCount(title, g.TotalCount)
	_, _ = color.New(color.Faint).Fprintf(pp.out(), "%s %d/%d done\n", progressBar(g.CompletionPercentage, 20), g.CompletedCount, g.TotalCount)
	pp.Items(g.Items...)
}

// Buckets prints every day that has due items, oldest first, then the
// undated ones.
func (pp *PrettyPrint) Buckets(v workload.View) {
	for _, key := range v.DayKeys {
		items := v.DayBuckets[key]
		title := key
		if d, err := time.ParseInLocation("2006-01-02", key, v.Now.Location()); err == nil {
			title = d.Format(dayLayout)
		}
		pp.TitleWithCount(title, len(items))
		pp.Items(items...)
	}
	pp.TitleWithCount("Unscheduled", len(v.Unscheduled))
	pp.Items(v.Unscheduled...)
}

func (pp *PrettyPrint) FreeTime(e freetime.Estimate) {
	pp.Title("Free time today")
	if !e.Ready {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(pp.out(), " set sleep.wake_up_time and sleep.bed_time to estimate free time")
		pp.NewLine()
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("Awake", hours(e.AwakeHours))
	tbl.AddRow("Essentials", "-"+hours(e.EssentialHours))
	tbl.AddRow("Events", "-"+hours(e.EventHours))
	tbl.AddRow("Work due soon", "-"+hours(e.EffortHours))
	if e.OverdueCount > 0 {
		tbl.AddRow(fmt.Sprintf("Overdue (%d)", e.OverdueCount), "-"+hours(e.SurchargeHours))
	}
	tbl.AddRow(color.New(color.Bold).Sprint("Available"), color.New(color.Bold, freeColor(e.AvailableHours)).Sprint(hours(e.AvailableHours)))
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Issues lists malformed fields found while reading the snapshot.
func (pp *PrettyPrint) Issues(issues []string) {
	if len(issues) == 0 {
		return
	}
	y := color.New(color.FgHiYellow, color.Faint)
	for _, issue := range issues {
		_, _ = y.Fprintf(pp.out(), "warning: %s\n", issue)
	}
}

func (pp *PrettyPrint) bullet(it model.WorkItem) string {
	if it.Completed {
		return color.New(color.Faint).Sprint("✔")
	}
	switch it.Tier {
	case model.TierCritical:
		return color.New(color.FgHiRed, color.Bold).Sprint("!")
	case model.TierHigh:
		return color.New(color.FgHiYellow).Sprint("•")
	case model.TierMedium:
		return "•"
	default:
		return color.New(color.Faint).Sprint("•")
	}
}

func (pp *PrettyPrint) due(it model.WorkItem) string {
	if it.Due == nil {
		return color.New(color.Faint).Sprint("-")
	}
	s := it.Due.Format(dueLayout)
	if !it.Completed && !pp.Now.IsZero() && it.Due.Before(pp.Now) {
		return color.New(color.FgRed).Sprint(s)
	}
	return s
}

func (pp *PrettyPrint) course(course string) string {
	if pp.Colors == nil {
		return course
	}
	return color.New(pp.Colors.Attribute(course, pp.Now)).Sprint(course)
}

func (pp *PrettyPrint) title(it model.WorkItem) string {
	if it.Completed {
		return color.New(color.Faint, color.CrossedOut).Sprint(it.Title)
	}
	return it.Title
}

func hours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

func freeColor(h float64) color.Attribute {
	switch {
	case h <= 0:
		return color.FgHiRed
	case h < 2:
		return color.FgHiYellow
	default:
		return color.FgHiGreen
	}
}

func progressBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat("-", width-filled), pct)
}
