package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/sse"
	"github.com/felixgeelhaar/specaudit/internal/infrastructure/watch"
	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/infrastructure/web"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr  string
	serveWatch []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the audit form over HTTP",
	Long: `Serve the audit web form: upload a specifications file, see the verdicts
and proceed to Stage 2.

With --watch, the given files are re-normalized on every change and the
outcome is streamed to open forms over /events.

Examples:
  specaudit serve --addr :8080
  specaudit serve --watch specs.json --mcat Steel`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	addr := serveAddr
	if addr == "" {
		addr = services.Config.Web.Addr
	}

	var server *web.Server
	opts := []web.Option{
		web.WithLogger(slog.Default()),
		web.WithProceedHandler(func(sub application.Submission) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "submission %s (%s) proceeded to Stage 2\n", sub.ID, sub.Input.MCATName)
			server.Go(func() {
				if err := services.NotifyProceeded(context.WithoutCancel(cmd.Context()), sub); err != nil {
					slog.Warn("stage 2 handoff failed", "submission", sub.ID, "error", err)
				}
			})
		}),
	}
	var broadcaster *sse.Broadcaster
	if len(serveWatch) > 0 {
		broadcaster = sse.NewBroadcaster()
		opts = append(opts, web.WithEvents(broadcaster))
	}

	server, err = web.NewServer(addr, func(onProceed func()) (*application.IntakeService, error) {
		return services.NewIntake(application.WithProceed(onProceed))
	}, opts...)
	if err != nil {
		return err
	}

	if os.Getenv("SPECAUDIT_SKIP_SERVE_RUN") == "true" {
		return nil
	}

	var watcher *watch.FSWatcher
	if broadcaster != nil {
		reloader := application.NewReloader(watchMCAT, broadcaster.Publish, slog.Default())
		paths, err := initialReload(cmd, reloader, serveWatch)
		if err != nil {
			return err
		}
		if watcher, err = newSpecWatcher(cmd, reloader, paths); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	if watcher != nil {
		g.Go(func() error { return ignoreCanceled(watcher.Run(gctx)) })
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Audit form listening on %s\n", addr)
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to web.addr from config)")
	serveCmd.Flags().StringSliceVar(&serveWatch, "watch", nil, "Files or globs to re-normalize on change")
	serveCmd.Flags().StringVarP(&watchMCAT, "mcat", "m", "", "MCAT name for --watch")
	RootCmd.AddCommand(serveCmd)
}
