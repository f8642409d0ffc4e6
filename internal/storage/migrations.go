package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: execAll(
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL
			)`,

			`CREATE TABLE IF NOT EXISTS goals (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id TEXT NOT NULL REFERENCES users(id),
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				amount TEXT NOT NULL,
				target_date TEXT NOT NULL,
				net_monthly_income TEXT NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE INDEX idx_goals_user ON goals(user_id, created_at)`,

			`CREATE TABLE IF NOT EXISTS transactions (
				user_id TEXT NOT NULL REFERENCES users(id),
				id TEXT NOT NULL,
				hash TEXT UNIQUE NOT NULL,
				date TEXT NOT NULL,
				name TEXT NOT NULL,
				merchant_name TEXT NOT NULL DEFAULT '',
				amount TEXT NOT NULL,
				category TEXT NOT NULL DEFAULT '',
				account_id TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL,
				PRIMARY KEY (user_id, id)
			)`,
			`CREATE INDEX idx_transactions_user_date ON transactions(user_id, date)`,
		),
	},
	{
		Version:     2,
		Description: "Add anomaly verdict write-through",
		Up: execAll(
			`CREATE TABLE IF NOT EXISTS anomalies (
				user_id TEXT NOT NULL,
				transaction_id TEXT NOT NULL,
				method TEXT NOT NULL,
				date TEXT NOT NULL,
				is_anomaly INTEGER NOT NULL,
				score TEXT,
				detected_at DATETIME NOT NULL,
				PRIMARY KEY (user_id, transaction_id, method)
			)`,
			`CREATE INDEX idx_anomalies_user_date ON anomalies(user_id, date)`,
		),
	},
	{
		Version:     3,
		Description: "Add weekly plans and recaps",
		Up: execAll(
			`CREATE TABLE IF NOT EXISTS weekly_plans (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id TEXT NOT NULL,
				week_start TEXT NOT NULL,
				week_end TEXT NOT NULL,
				data TEXT NOT NULL,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL
			)`,
			`CREATE INDEX idx_weekly_plans_user_week ON weekly_plans(user_id, week_start)`,

			`CREATE TABLE IF NOT EXISTS weekly_recaps (
				user_id TEXT NOT NULL,
				week_start TEXT NOT NULL,
				week_end TEXT NOT NULL,
				data TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (user_id, week_start)
			)`,
		),
	},
	{
		Version:     4,
		Description: "Add Plaid connections",
		Up: execAll(
			`CREATE TABLE IF NOT EXISTS plaid_connections (
				user_id TEXT PRIMARY KEY,
				access_token TEXT NOT NULL,
				item_id TEXT NOT NULL,
				account_ids TEXT NOT NULL DEFAULT '[]',
				connected_at DATETIME NOT NULL
			)`,
		),
	},
}

func execAll(queries ...string) func(*sql.Tx) error {
	return func(tx *sql.Tx) error {
		for _, query := range queries {
			if _, err := tx.Exec(query); err != nil {
				return fmt.Errorf("failed to execute query: %w", err)
			}
		}
		return nil
	}
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies any pending migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
