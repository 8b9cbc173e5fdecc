package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/workload/pkg/commands/options"
	"github.com/harrisonrobin/workload/pkg/server"
)

func addServe(topLevel *cobra.Command) {
	addr := ""
	cmd := &cobra.Command{
		Use:   "serve",
		Short: options.Wrap80("Serve the workload views over HTTP."),
		Example: `
workload serve
workload serve --addr :9090
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

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := server.New(a.engine, a.forUser, server.Options{
				JWTSecret:      a.cfg.Server.JWTSecret,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				FetchTimeout:   a.cfg.FetchTimeout,
			})
			if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address. Defaults to server.addr from the config.")

	topLevel.AddCommand(cmd)
}
