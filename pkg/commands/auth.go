package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/workload/pkg/auth"
	"github.com/harrisonrobin/workload/pkg/commands/options"
)

func addAuth(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: options.Wrap80("Authorize access to Google Calendar, replacing any stored token."),
		Example: `
workload auth
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := auth.Authorize(ctx, auth.CalendarScopes); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			_, _ = fmt.Fprintln(color.Output, "Authentication successful!")
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
