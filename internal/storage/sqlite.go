// Package storage provides the SQLite persistence layer for the raw
// sales log and inventory snapshot. Imports replace the stored table
// wholesale; reads rebuild the in-memory dataset tables the pipeline
// works from.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/ciaranwalsh/retailpulse/internal/dataset"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

// Store is a SQLite-backed store for imported retail data.
type Store struct {
	db     *sql.DB
	dbPath string
}

// New opens (and creates, if absent) the database at dbPath.
func New(dbPath string) (*Store, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceSales replaces the entire stored sales log with the given table,
// including its optional-column flags, in one transaction.
func (s *Store) ReplaceSales(ctx context.Context, table *dataset.SalesTable) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSalesTable(table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales`); err != nil {
		return fmt.Errorf("failed to clear sales: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales (sale_date, sale_id, location, category, product, supplier,
			quantity, revenue, profit, discount, refund)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sales insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range table.Rows() {
		if _, err := stmt.ExecContext(ctx,
			r.Date.String(), r.SaleID, r.Location, r.Category, r.Product, r.Supplier,
			r.Quantity, r.Revenue, r.Profit, r.Discount, r.Refund); err != nil {
			return fmt.Errorf("failed to insert sale %s: %w", r.SaleID, err)
		}
	}

	cols := table.Columns()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO dataset_columns (table_name, has_supplier, has_profit, has_discount, has_refund)
		VALUES ('sales', ?, ?, ?, ?)
		ON CONFLICT(table_name) DO UPDATE SET
			has_supplier = excluded.has_supplier,
			has_profit = excluded.has_profit,
			has_discount = excluded.has_discount,
			has_refund = excluded.has_refund`,
		cols.HasSupplier, cols.HasProfit, cols.HasDiscount, cols.HasRefund); err != nil {
		return fmt.Errorf("failed to record column flags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sales import: %w", err)
	}
	return nil
}

// LoadSales rebuilds the in-memory sales table from the store, restoring
// the optional-column flags recorded at import time.
func (s *Store) LoadSales(ctx context.Context) (*dataset.SalesTable, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sale_date, sale_id, location, category, product, supplier,
			quantity, revenue, profit, discount, refund
		FROM sales
		ORDER BY sale_date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.SaleRecord
	for rows.Next() {
		var r model.SaleRecord
		var dateStr string
		if err := rows.Scan(&dateStr, &r.SaleID, &r.Location, &r.Category, &r.Product,
			&r.Supplier, &r.Quantity, &r.Revenue, &r.Profit, &r.Discount, &r.Refund); err != nil {
			return nil, fmt.Errorf("failed to scan sale row: %w", err)
		}
		r.Date, err = model.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored sale date %q: %w", dateStr, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales: %w", err)
	}

	cols, err := s.loadColumns(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.NewSalesTable(records, cols), nil
}

// ReplaceInventory replaces the stored inventory snapshot.
func (s *Store) ReplaceInventory(ctx context.Context, table *dataset.InventoryTable) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateInventoryTable(table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory`); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO inventory (location, category, product, stock_level, trade_price, rrp)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare inventory insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range table.Rows() {
		if _, err := stmt.ExecContext(ctx,
			r.Location, r.Category, r.Product, r.StockLevel, r.TradePrice, r.RRP); err != nil {
			return fmt.Errorf("failed to insert inventory for %s: %w", r.Product, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inventory import: %w", err)
	}
	return nil
}

// LoadInventory rebuilds the in-memory inventory snapshot from the store.
func (s *Store) LoadInventory(ctx context.Context) (*dataset.InventoryTable, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT location, category, product, stock_level, trade_price, rrp
		FROM inventory
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.InventoryRecord
	for rows.Next() {
		var r model.InventoryRecord
		if err := rows.Scan(&r.Location, &r.Category, &r.Product,
			&r.StockLevel, &r.TradePrice, &r.RRP); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}
	return dataset.NewInventoryTable(records), nil
}

// Summary describes what the store currently holds.
type Summary struct {
	SalesRows      int
	InventoryRows  int
	EarliestDate   model.Date
	LatestDate     model.Date
	HasInventory   bool
	SalesAvailable bool
}

// Summarize reports row counts and the stored date range.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	if err := validateContext(ctx); err != nil {
		return Summary{}, err
	}

	var summary Summary
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&summary.SalesRows); err != nil {
		return Summary{}, fmt.Errorf("failed to count sales: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory`).Scan(&summary.InventoryRows); err != nil {
		return Summary{}, fmt.Errorf("failed to count inventory: %w", err)
	}
	summary.SalesAvailable = summary.SalesRows > 0
	summary.HasInventory = summary.InventoryRows > 0

	if summary.SalesAvailable {
		var minDate, maxDate string
		if err := s.db.QueryRowContext(ctx,
			`SELECT MIN(sale_date), MAX(sale_date) FROM sales`).Scan(&minDate, &maxDate); err != nil {
			return Summary{}, fmt.Errorf("failed to read sales date range: %w", err)
		}
		var err error
		if summary.EarliestDate, err = model.ParseDate(minDate); err != nil {
			return Summary{}, fmt.Errorf("failed to parse earliest date %q: %w", minDate, err)
		}
		if summary.LatestDate, err = model.ParseDate(maxDate); err != nil {
			return Summary{}, fmt.Errorf("failed to parse latest date %q: %w", maxDate, err)
		}
	}
	return summary, nil
}

func (s *Store) loadColumns(ctx context.Context) (dataset.Columns, error) {
	var cols dataset.Columns
	err := s.db.QueryRowContext(ctx, `
		SELECT has_supplier, has_profit, has_discount, has_refund
		FROM dataset_columns WHERE table_name = 'sales'`).
		Scan(&cols.HasSupplier, &cols.HasProfit, &cols.HasDiscount, &cols.HasRefund)
	if err == sql.ErrNoRows {
		return dataset.Columns{}, nil
	}
	if err != nil {
		return dataset.Columns{}, fmt.Errorf("failed to read column flags: %w", err)
	}
	return cols, nil
}
