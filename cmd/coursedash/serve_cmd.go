package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coursedash/coursedash/internal/config"
	"github.com/coursedash/coursedash/internal/dashlog"
	"github.com/coursedash/coursedash/internal/pipeline"
	"github.com/coursedash/coursedash/internal/reconcile"
	"github.com/coursedash/coursedash/internal/server"
	"github.com/coursedash/coursedash/internal/watch"
)

// Serve command flags
var (
	servePort int
	serveHost string
	watchDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	Long: `Start the dashboard server. The browser uploads the three spreadsheet
files; the server reconciles them and serves analytics views.

With --watch, the server also monitors a directory for the conventionally
named spreadsheet files and reprocesses automatically when they change.

Examples:
  coursedash serve
  coursedash serve --port 9000
  coursedash serve --watch ./dropbox`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind (overrides config)")
	serveCmd.Flags().StringVar(&watchDir, "watch", "", "directory to watch for spreadsheet drops")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}

	opts := pipeline.Options{
		Reconcile: reconcile.Options{
			LegacyFallbackYear: cfg.Pipeline.LegacyFallbackYear,
			ModernFallbackYear: cfg.Pipeline.ModernFallbackYear,
			InProgressYear:     cfg.Pipeline.InProgressYearOrNow(),
		},
		Hooks: pipeline.MetricsHooks(),
	}

	srv := server.New(server.Config{Host: cfg.Server.Host, Port: cfg.Server.Port}, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchDir != "" {
		if err := startWatch(ctx, srv, cfg, opts); err != nil {
			return err
		}
	}

	return srv.ListenAndServe(ctx)
}

// startWatch wires the directory watcher to the server: any change to one
// of the configured files reprocesses the whole set and swaps the dataset.
func startWatch(ctx context.Context, srv *server.Server, cfg config.Config, opts pipeline.Options) error {
	names := []string{cfg.Watch.LegacyFile, cfg.Watch.ModernFile, cfg.Watch.TimeSpentFile}
	w, err := watch.New(watchDir, names, cfg.Watch.DebounceDuration())
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	events, err := w.Start(ctx)
	if err != nil {
		w.Close()
		return fmt.Errorf("start watcher: %w", err)
	}

	go func() {
		defer w.Close()
		for range events {
			files := pipeline.FileSet{
				Legacy:    pipeline.FileInput(filepath.Join(watchDir, cfg.Watch.LegacyFile)),
				Modern:    pipeline.FileInput(filepath.Join(watchDir, cfg.Watch.ModernFile)),
				TimeSpent: pipeline.FileInput(filepath.Join(watchDir, cfg.Watch.TimeSpentFile)),
			}
			res, err := pipeline.Run(ctx, files, opts)
			if err != nil {
				// Keep serving the previous dataset; the next change
				// triggers another attempt.
				dashlog.Log.Warn("Watch rerun failed", "error", err)
				continue
			}
			srv.SetResult(res)
			dashlog.Log.Info("Watch rerun installed", "unified", len(res.Unified))
		}
	}()

	fmt.Printf("Watching %s for %v\n", watchDir, names)
	return nil
}
