package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/workload/pkg/commands/options"
	"github.com/harrisonrobin/workload/pkg/config"
	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/normalize"
	"github.com/harrisonrobin/workload/pkg/util"
)

// addOptions holds the flags of the add command.
type addOptions struct {
	Due      string
	Course   string
	Estimate string
}

func addAdd(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	ao := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: options.Wrap80("Add a manual task to the local cache, or to postgres when that is the manual source."),
		Example: `
workload add "Read chapter 4" --due 2024-03-15 --course "HIST 210"
workload add "Problem set 6" --due "2024-03-18 17:00" --estimate PT3H
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			err := runAdd(ctx, oo, ao, strings.Join(args, " "))
			return oo.HandleError(err)
		},
	}
	cmd.Flags().StringVar(&ao.Due, "due", "", options.Wrap80("Due date as YYYY-MM-DD, 'YYYY-MM-DD HH:MM' in the configured zone, or RFC3339."))
	cmd.Flags().StringVar(&ao.Course, "course", "", "Course the task belongs to.")
	cmd.Flags().StringVar(&ao.Estimate, "estimate", "", options.Wrap80("Estimated effort in hours (2.5) or as an ISO-8601 duration (PT2H30M)."))
	options.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

// task builds the raw record. Due values are stored as RFC3339 UTC.
func (ao *addOptions) task(title string, loc *time.Location) (model.Task, error) {
	t := model.Task{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(title),
		CompletionStatus: model.StatusPending,
		CourseName:       strings.TrimSpace(ao.Course),
	}
	if t.Title == "" {
		return t, fmt.Errorf("title required")
	}
	if ao.Due != "" {
		due, _, err := normalize.ParseInstant(ao.Due, loc)
		if err != nil {
			return t, fmt.Errorf("invalid --due: %w", err)
		}
		t.DueDate = due.UTC().Format(time.RFC3339)
	}
	if ao.Estimate != "" {
		h, err := util.ParseHours(ao.Estimate)
		if err != nil {
			return t, fmt.Errorf("invalid --estimate: %w", err)
		}
		t.EstimatedHours = &h
	}
	return t, nil
}

func runAdd(ctx context.Context, oo *options.OutputOptions, ao *addOptions, title string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	t, err := ao.task(title, loc)
	if err != nil {
		return err
	}

	switch a.cfg.Source.Manual {
	case config.SourcePostgres:
		if _, err := a.source(ctx, config.SourcePostgres, true); err != nil {
			return err
		}
		err = a.db.AddTask(ctx, t)
	default:
		c, cerr := a.localCache()
		if cerr != nil {
			return cerr
		}
		err = c.AddTask(t)
		if a.cfg.Source.Manual != config.SourceCache {
			_, _ = color.New(color.FgHiYellow).Fprintf(color.Error, "warning: manual source is %s; the task is stored in the cache at %s\n", a.cfg.Source.Manual, c.BasePath())
		}
	}
	if err != nil {
		return err
	}

	if oo.Structured() {
		return oo.Write(t)
	}
	_, _ = fmt.Fprintf(color.Output, "Added %s %s\n", color.New(color.Bold).Sprint(t.Title), color.New(color.Faint).Sprint(t.ID))
	return nil
}
