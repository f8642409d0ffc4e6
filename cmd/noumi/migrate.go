package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/noumi/internal/config"
	"github.com/Veraticus/noumi/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the tables and indexes
the API and the importers need.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current schema version without applying changes")
	cmd.Flags().String("backup", "", "Write a backup of the database to this path before migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	backup, _ := cmd.Flags().GetString("backup")
	ctx := cmd.Context()

	dbPath := cfg.Database.Path
	slog.Info("Starting database migration",
		"database", dbPath,
		"status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		slog.Info("📊 Database Migration Status", "path", dbPath, "version", current)
		return nil
	}

	if backup != "" {
		dest := config.ExpandPath(backup)
		if err := store.Backup(ctx, dest); err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		slog.Info("🗄️  Database backed up", "path", dest)
	}

	slog.Info("🗄️  Running database migrations...", "path", dbPath)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	slog.Info("✅ Database migrations completed successfully!", "version", current)
	return nil
}
