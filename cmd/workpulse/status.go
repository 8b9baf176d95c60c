package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/workpulse/agent/internal/config"
	"github.com/workpulse/agent/internal/repository"
	"github.com/workpulse/agent/internal/sqlite"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session and sync queue state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStatus(cmd.Context())
		},
	}
}

func printStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	sessions := sqlite.NewSessionRepository(db)
	active, err := sessions.GetActive(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		fmt.Println("session: none")
	case err != nil:
		return fmt.Errorf("look up session: %w", err)
	default:
		fmt.Printf("session: %s\n", active.ID)
		fmt.Printf("  mode:    %s\n", active.Mode)
		if active.Task != "" {
			fmt.Printf("  task:    %s\n", active.Task)
		}
		if active.ProjectID != nil {
			fmt.Printf("  project: %s\n", *active.ProjectID)
		}
		fmt.Printf("  started: %s\n", active.StartTime.Format(time.RFC3339))
	}

	var pending, delivered int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE synced = 0`).Scan(&pending); err != nil {
		return fmt.Errorf("count pending queue: %w", err)
	}
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE synced = 1`).Scan(&delivered); err != nil {
		return fmt.Errorf("count delivered queue: %w", err)
	}
	fmt.Printf("sync queue: %d pending, %d delivered\n", pending, delivered)

	labels, err := sqlite.NewLabelRepository(db).Recent(ctx, 5)
	if err != nil {
		return fmt.Errorf("list labels: %w", err)
	}
	if len(labels) > 0 {
		fmt.Printf("recent labels: %v\n", labels)
	}
	return nil
}
