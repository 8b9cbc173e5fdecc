package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/workload/pkg/commands/options"
	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/toggle"
)

func addToggle(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	undo := false
	cmd := &cobra.Command{
		Use:   "toggle <manual|assignment> <id>",
		Short: options.Wrap80("Mark a task or assignment complete, or reopen it with --undo."),
		Example: `
workload toggle manual 3f2b9c1e-8d4a-4f7e-9a61-2c5d0b7e4a10
workload toggle assignment 5r1k0q2v7c --undo
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			err := runToggle(ctx, oo, args[0], args[1], !undo)
			return oo.HandleError(err)
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Reopen instead of completing.")
	options.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

func runToggle(ctx context.Context, oo *options.OutputOptions, kindArg, id string, completed bool) error {
	kind, ok := model.ParseSourceKind(kindArg)
	if !ok {
		return fmt.Errorf("%w: %q", toggle.ErrUnknownKind, kindArg)
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
	item, ok := v.Find(kind, id)
	if !ok {
		return fmt.Errorf("%w: %s %q", toggle.ErrNotFound, kind, id)
	}
	if item.Completed == completed {
		// Already in the requested state.
		return report(ctx, a, oo, item)
	}

	u := toggle.New(time.Now()).Toggle(item, completed)
	if err := a.src.Apply(ctx, u); err != nil {
		return err
	}
	return report(ctx, a, oo, item)
}

// report recomputes from a fresh snapshot and prints the item's new state.
func report(ctx context.Context, a *app, oo *options.OutputOptions, item model.WorkItem) error {
	v, err := a.run(ctx)
	if err != nil {
		return err
	}
	updated, ok := v.Find(item.Kind, item.ID)
	if !ok {
		return fmt.Errorf("%w: %s %q after update", toggle.ErrNotFound, item.Kind, item.ID)
	}
	if oo.Structured() {
		return oo.Write(updated)
	}
	state := "reopened"
	if updated.Completed {
		state = "completed"
	}
	_, _ = fmt.Fprintf(color.Output, "%s %s\n", color.New(color.Bold).Sprint(updated.Title), state)
	pp, done := a.printer(v.Now)
	defer done()
	pp.Today(v)
	return nil
}
