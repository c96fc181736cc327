package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/educheia/educheia/internal/database"
)

func newMigrateCommand() *cobra.Command {
	var (
		databaseURL string
		down        int
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			db, err := database.Connect(ctx, databaseURL)
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			defer db.Close()

			if down > 0 {
				if err := db.MigrateDown(databaseURL, down); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				slog.Info("migrate: rolled back", "steps", down)
				return nil
			}
			if err := db.Migrate(databaseURL); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			slog.Info("migrate: database migrations applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres URL")
	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations instead of applying")
	return cmd
}
