package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/workload/pkg/commands/options"
	"github.com/harrisonrobin/workload/pkg/config"
)

func addSetCalendar(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "set-calendar <name>",
		Short: options.Wrap80("Set the Google Calendar assignments are read from."),
		Example: `
workload set-calendar "Coursework"
workload set-calendar primary
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := config.SetCalendar(co.Path, args[0]); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			_, _ = fmt.Fprintf(color.Output, "Default calendar set to: %s\n", args[0])
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
