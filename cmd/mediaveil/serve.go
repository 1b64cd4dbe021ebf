package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/mediaveil/mediaveil/internal/config"
	"github.com/mediaveil/mediaveil/internal/daemon"
	"github.com/mediaveil/mediaveil/internal/database"
	"github.com/mediaveil/mediaveil/internal/logging"
	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/internal/resolver"
	"github.com/mediaveil/mediaveil/internal/tracker"
	"github.com/mediaveil/mediaveil/internal/web"
	"github.com/mediaveil/mediaveil/pkg/detector"
	"github.com/mediaveil/mediaveil/pkg/integrations/push"
)

const shutdownTimeout = 10 * time.Second

// runServe runs the tracker, the state mirror and the web API until ctx is
// cancelled or SIGINT/SIGTERM arrives
func runServe(ctx context.Context, cfg *config.Config, logWriter io.Writer) error {
	logger := logging.NewLogger(logging.Options{Level: cfg.Log.Level, Writer: logWriter, Component: appName})

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return err
	}
	if running {
		return cli.Exit(fmt.Sprintf("daemon is already running (PID: %d)", pid), 1)
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		return err
	}
	repo := database.NewRepository(db)
	mirror := database.NewMirror(repo, logger.With("component", "mirror"))

	backends, err := detector.New(detector.Options{
		Kind:     cfg.Backend.Kind,
		Validity: cfg.Tracker.ForegroundValidity,
		X11Apps:  cfg.Backend.X11Apps,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer backends.Close()

	registry, err := resolver.FromConfig(cfg)
	if err != nil {
		return err
	}

	playback := push.NewPlaybackStore()
	svc := tracker.NewService(cfg, overlay.NewStore(), registry, tracker.Sources{
		Playback:   playback,
		Foreground: backends.Foreground,
		Windows:    backends.Windows,
	}, logger.With("component", "tracker"))
	svc.Subscribe(mirror.Observe)

	handler := web.NewHandler(cfg, svc, web.Ingest{Playback: playback, Foreground: backends.Feed}, logger.With("component", "web"))
	server := web.NewServer(cfg, handler, 0, logger)

	if err := dm.WritePID(); err != nil {
		return err
	}
	defer dm.RemovePID()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mirrorCtx, stopMirror := context.WithCancel(context.Background())
	mirrorDone := make(chan struct{})
	go func() {
		mirror.Run(mirrorCtx)
		close(mirrorDone)
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	trackerDone := make(chan error, 1)
	go func() {
		trackerDone <- svc.Start(ctx)
	}()

	logger.Info("mediaveil started", "backend", backends.Name, "web", "http://"+server.GetAddress())
	logger.Debug("configuration", "config", cfg.String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-serverErr:
		runErr = errors.Wrap(err, "web server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stop()
	svc.Stop()
	<-trackerDone

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down web server", "error", err)
	}

	// nothing is masked once the daemon is gone
	mirror.Observe(overlay.Zero())
	stopMirror()
	<-mirrorDone

	logger.Info("mediaveil stopped")
	return runErr
}
