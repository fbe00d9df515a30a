package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/server"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local control API",
	Long: `Start a JSON API for running, cancelling and saving requests.

Routes:
  POST /api/run                 run a request
  POST /api/cancel              cancel the request in flight
  GET  /api/document            load the library
  PUT  /api/document            replace the library
  PUT  /api/requests/{id}       update a saved request
  POST /api/requests/{id}/send  run a saved request
  GET  /api/history             recorded executions
  GET  /api/history/stats       latency statistics
  GET  /healthz                 liveness

Examples:
  hitdesk serve
  hitdesk serve --addr 127.0.0.1:9000 --watch`,
	Args: cobra.NoArgs,
	RunE: serveCommand,
}

var (
	serveAddrFlag  string
	serveWatchFlag bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "Listen address (default from config, env: HITDESK_ADDR)")
	serveCmd.Flags().BoolVarP(&serveWatchFlag, "watch", "w", false, "Log library changes made by other programs")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	cfg := a.Config()
	addr := cfg.Addr
	if serveAddrFlag != "" {
		addr = serveAddrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := a.Logger()
	if serveWatchFlag {
		go func() {
			err := a.Watch(ctx, func(doc *store.Document, err error) {
				if err != nil {
					logger.Warn("library reload failed", slog.Any("error", err))
					return
				}
				logger.Info("library changed on disk",
					slog.Int("collections", len(doc.Collections)),
					slog.Int("requests", doc.RequestCount()))
			})
			if err != nil {
				logger.Error("library watcher stopped", slog.Any("error", err))
			}
		}()
	}

	srv := server.New(a,
		server.WithLogger(logger.With(slog.String("component", "server"))),
		server.WithRateLimit(cfg.RateLimit, cfg.RateBurst))

	fmt.Fprintf(cmd.OutOrStdout(), "hitdesk %s listening on http://%s (library: %s)\n", version, addr, a.Store().Path())
	if err := srv.Run(ctx, addr); err != nil {
		return withExitCode(ExitConfigError, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Stopped")
	return nil
}
