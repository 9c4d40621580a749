package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 2

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
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS sales (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					sale_date TEXT NOT NULL,
					sale_id TEXT NOT NULL,
					location TEXT NOT NULL,
					category TEXT NOT NULL,
					product TEXT NOT NULL,
					supplier TEXT NOT NULL DEFAULT '',
					quantity INTEGER NOT NULL,
					revenue REAL NOT NULL,
					profit REAL NOT NULL DEFAULT 0,
					discount REAL NOT NULL DEFAULT 0,
					refund REAL NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_sales_date ON sales(sale_date)`,
				`CREATE INDEX idx_sales_category ON sales(category)`,
				`CREATE INDEX idx_sales_location ON sales(location)`,

				`CREATE TABLE IF NOT EXISTS inventory (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					location TEXT NOT NULL,
					category TEXT NOT NULL,
					product TEXT NOT NULL,
					stock_level REAL NOT NULL,
					trade_price REAL NOT NULL DEFAULT 0,
					rrp REAL NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_inventory_product ON inventory(product)`,

				`CREATE TABLE IF NOT EXISTS dataset_columns (
					table_name TEXT PRIMARY KEY,
					has_supplier INTEGER NOT NULL DEFAULT 0,
					has_profit INTEGER NOT NULL DEFAULT 0,
					has_discount INTEGER NOT NULL DEFAULT 0,
					has_refund INTEGER NOT NULL DEFAULT 0
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add supplier index for disruption queries",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_sales_supplier ON sales(supplier)`)
			return err
		},
	},
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
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

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}
	return nil
}
