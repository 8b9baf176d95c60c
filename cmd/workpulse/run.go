package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	stdsync "sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workpulse/agent/internal/config"
	"github.com/workpulse/agent/internal/device"
	"github.com/workpulse/agent/internal/domain/screenshot"
	"github.com/workpulse/agent/internal/domain/session"
	"github.com/workpulse/agent/internal/remote"
	"github.com/workpulse/agent/internal/repository"
	"github.com/workpulse/agent/internal/sqlite"
	"github.com/workpulse/agent/internal/sync"
)

type runOptions struct {
	mode    string
	project string
	task    string
	label   string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tracking agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "", "start a session immediately (client_hours or command_hours)")
	cmd.Flags().StringVar(&opts.project, "project", "", "project id for the started session")
	cmd.Flags().StringVar(&opts.task, "task", "", "task description for the started session")
	cmd.Flags().StringVar(&opts.label, "label", "", "activity label for the started session")
	return cmd
}

func runAgent(ctx context.Context, opts *runOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger, closeLog, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := ensureDir(filepath.Dir(cfg.DB.Path)); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}
	if cfg.Screenshot.Enabled {
		if err := ensureDir(cfg.Screenshot.Dir); err != nil {
			return fmt.Errorf("prepare screenshot dir: %w", err)
		}
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	sessionRepo := sqlite.NewSessionRepository(db)
	periodRepo := sqlite.NewPeriodRepository(db)
	screenshotRepo := sqlite.NewScreenshotRepository(db)
	queueRepo := sqlite.NewQueueRepository(db)
	labelRepo := sqlite.NewLabelRepository(db)
	settingsRepo := sqlite.NewSettingsRepository(db)

	deviceID, err := device.Identity(ctx, settingsRepo)
	if err != nil {
		return fmt.Errorf("device identity: %w", err)
	}

	client := remote.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.RequestTimeout, logger)
	userID := startupChecks(ctx, client, logger)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var wg stdsync.WaitGroup

	// The tracker is created first so the engine can veto through it, but
	// the engine is its outbox; wire the cycle through a late-bound handle.
	var tracker *session.Tracker
	engine := sync.NewEngine(queueRepo, sessionRepo, periodRepo, screenshotRepo, client,
		vetoFunc(func(ctx context.Context) error { return tracker.Veto(ctx) }),
		deviceID,
		sync.Config{
			DrainInterval:  cfg.Sync.DrainInterval,
			OfflineBackoff: cfg.Sync.OfflineBackoff,
			VetoCooldown:   cfg.Sync.VetoCooldown,
		},
		logger,
	)

	// OS input hooks and window inspection plug in through input.Source and
	// foreground.Inspector; nil selects the noop implementations.
	tracker = session.NewTracker(sessionRepo, periodRepo, labelRepo, engine, nil, nil,
		session.Config{
			PeriodLength:  cfg.Capture.PeriodLength,
			IdlePoll:      cfg.Capture.IdlePoll,
			IdleThreshold: cfg.Capture.IdleThreshold,
		},
		logger,
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sync engine stopped", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("tracker stopped", "error", err)
		}
	}()

	if cfg.Screenshot.Enabled {
		scheduler := screenshot.NewScheduler(screenshotRepo, engine,
			screenshot.DisplayCapturer{}, tracker, cfg.Screenshot.Dir, userID, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("screenshot scheduler stopped", "error", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		reportNotices(ctx, engine, logger)
	}()

	restoreSession(ctx, tracker, sessionRepo, logger)

	if opts.mode != "" {
		startSession(ctx, tracker, opts, logger)
	}

	logger.Info("agent running", "version", version, "device_id", deviceID)
	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()
	return nil
}

// startupChecks verifies the agent version and token. Both are advisory at
// startup: an unreachable service must not keep an offline-first agent from
// tracking.
func startupChecks(ctx context.Context, client *remote.Client, logger *slog.Logger) string {
	if version != "dev" {
		status, err := client.CheckVersion(ctx, version)
		switch {
		case errors.Is(err, remote.ErrUnsupportedVersion):
			logger.Error("this agent version is no longer supported, sync will halt",
				"version", version)
		case err != nil:
			logger.Warn("version check unavailable", "error", err)
		case !status.Supported:
			logger.Error("this agent version is no longer supported, sync will halt",
				"version", version, "minimum_version", status.MinimumVersion)
		}
	}

	info, err := client.VerifyAuth(ctx)
	if err != nil {
		logger.Warn("auth verification unavailable, continuing offline", "error", err)
		return ""
	}
	logger.Info("authenticated", "user_id", info.UserID)
	return info.UserID
}

func restoreSession(ctx context.Context, tracker *session.Tracker, sessions *sqlite.SessionRepository, logger *slog.Logger) {
	active, err := sessions.GetActive(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	if err != nil {
		logger.Error("failed to look up active session", "error", err)
		return
	}

	if err := tracker.Restore(ctx, active.ID); err != nil {
		logger.Error("failed to restore session", "session_id", active.ID, "error", err)
		return
	}
	logger.Info("restored session from previous run", "session_id", active.ID, "mode", active.Mode)
}

func startSession(ctx context.Context, tracker *session.Tracker, opts *runOptions, logger *slog.Logger) {
	var projectID *string
	if opts.project != "" {
		projectID = &opts.project
	}

	if err := tracker.Start(ctx, session.Mode(opts.mode), projectID, opts.task); err != nil {
		logger.Error("failed to start session", "mode", opts.mode, "error", err)
		return
	}
	if opts.label != "" {
		if err := tracker.SetActivityLabel(ctx, opts.label); err != nil {
			logger.Warn("failed to set activity label", "error", err)
		}
	}
	logger.Info("session started", "mode", opts.mode, "task", opts.task)
}

func reportNotices(ctx context.Context, engine *sync.Engine, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case notice := <-engine.Notices():
			logger.Warn("sync notice", "kind", notice.Kind, "message", notice.Message)
		}
	}
}

type vetoFunc func(ctx context.Context) error

func (f vetoFunc) Veto(ctx context.Context) error { return f(ctx) }

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
