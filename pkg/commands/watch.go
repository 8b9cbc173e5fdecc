package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/workload/pkg/commands/options"
)

const clearScreen = "\033[H\033[2J"

func addWatch(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	interval := time.Minute
	cmd := &cobra.Command{
		Use:   "watch",
		Short: options.Wrap80("Redraw today's work and free time whenever the local cache changes."),
		Example: `
workload watch
workload watch --interval 5m --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return oo.HandleError(runWatch(ctx, oo, interval))
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", interval, options.Wrap80("Also redraw this often so day boundaries and remote sources are picked up."))
	options.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

func runWatch(ctx context.Context, oo *options.OutputOptions, interval time.Duration) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.localCache()
	if err != nil {
		return err
	}
	changes, err := c.Watch(ctx)
	if err != nil {
		return err
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	draw := func() {
		v, err := a.run(ctx)
		if err != nil {
			log.Printf("Error recomputing workload: %v", err)
			return
		}
		if oo.Structured() {
			if err := oo.Write(v); err != nil {
				log.Printf("Error writing view: %v", err)
			}
			return
		}
		_, _ = fmt.Fprint(color.Output, clearScreen)
		pp, done := a.printer(v.Now)
		pp.Today(v)
		pp.FreeTime(v.FreeTime)
		pp.Issues(v.Issues)
		done()
	}

	draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			draw()
		case <-ticker.C:
			draw()
		}
	}
}
