package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/workload/pkg/aggregate"
	"github.com/harrisonrobin/workload/pkg/commands/options"
	"github.com/harrisonrobin/workload/pkg/printers"
	"github.com/harrisonrobin/workload/pkg/workload"
)

type (
	structuredFunc func(a *app, v workload.View) any
	renderFunc     func(a *app, pp *printers.PrettyPrint, v workload.View)
)

// viewCommand builds a command that computes a fresh view and renders it
// either structured or through render.
func viewCommand(use, short, example string, structured structuredFunc, render renderFunc) *cobra.Command {
	oo := &options.OutputOptions{}
	cmd := &cobra.Command{
		Use:     use,
		Short:   options.Wrap80(short),
		Example: example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return oo.HandleError(showView(cmd.Context(), oo, structured, render))
		},
	}
	options.AddOutputArg(cmd, oo)
	return cmd
}

func showView(ctx context.Context, oo *options.OutputOptions, structured structuredFunc, render renderFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.run(ctx)
	if err != nil {
		return err
	}
	if oo.Structured() {
		return oo.Write(structured(a, v))
	}
	pp, done := a.printer(v.Now)
	defer done()
	render(a, pp, v)
	pp.Issues(v.Issues)
	return nil
}

func addToday(topLevel *cobra.Command) {
	cmd := viewCommand("today", "Incomplete work due today, most urgent first.", `
workload today
workload today --json
`,
		func(_ *app, v workload.View) any {
			return map[string]any{
				"now":             v.Now,
				"today":           v.Today,
				"completed_today": v.CompletedToday,
				"issues":          v.Issues,
			}
		},
		func(_ *app, pp *printers.PrettyPrint, v workload.View) {
			pp.Today(v)
		})
	topLevel.AddCommand(cmd)
}

func addWeek(topLevel *cobra.Command) {
	offset := 0
	cmd := viewCommand("week", "Work due in a calendar week with completion progress.", `
workload week
workload week --offset -1
workload week --offset 2 --yaml
`,
		func(a *app, v workload.View) any {
			return weekOf(a, v, offset)
		},
		func(a *app, pp *printers.PrettyPrint, v workload.View) {
			pp.Week(weekOf(a, v, offset))
		})
	cmd.Flags().IntVar(&offset, "offset", 0, options.Wrap80("Weeks relative to the current one, negative for past weeks."))
	topLevel.AddCommand(cmd)
}

// weekOf returns the group for offset, reusing the precomputed ones when
// they cover it. Empty precomputed weeks are omitted, so those are rebuilt.
func weekOf(a *app, v workload.View, offset int) aggregate.WeeklyGroup {
	if offset == 0 {
		return v.Weekly
	}
	for _, groups := range [][]aggregate.WeeklyGroup{v.Historical, v.Upcoming} {
		for _, g := range groups {
			if g.Offset == offset {
				return g
			}
		}
	}
	return aggregate.New(a.engine.Calculator(v.Now)).Week(v.Items, offset)
}

func addBuckets(topLevel *cobra.Command) {
	cmd := viewCommand("buckets", "Every dated item grouped by due day, then the undated ones.", `
workload buckets
`,
		func(_ *app, v workload.View) any {
			return map[string]any{
				"day_keys":    v.DayKeys,
				"day_buckets": v.DayBuckets,
				"unscheduled": v.Unscheduled,
			}
		},
		func(_ *app, pp *printers.PrettyPrint, v workload.View) {
			pp.Buckets(v)
		})
	topLevel.AddCommand(cmd)
}

func addFreeTime(topLevel *cobra.Command) {
	cmd := viewCommand("freetime", "Estimated free hours left today.", `
workload freetime
workload freetime --json
`,
		func(_ *app, v workload.View) any {
			return v.FreeTime
		},
		func(_ *app, pp *printers.PrettyPrint, v workload.View) {
			pp.FreeTime(v.FreeTime)
		})
	topLevel.AddCommand(cmd)
}
