package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/config"
	"github.com/ciaranwalsh/retailpulse/internal/dataset"
	"github.com/ciaranwalsh/retailpulse/internal/featurecache"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/storage"
)

// initStore opens the database with proper path expansion and runs any
// pending migrations.
func initStore(ctx context.Context) (*storage.Store, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/pulse/pulse.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.New(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// openCache opens the feature cache directory from config.
func openCache() (*featurecache.Cache, error) {
	dir := viper.GetString("cache.dir")
	if dir == "" {
		dir = "$HOME/.local/share/pulse/features"
	}
	return featurecache.New(config.ExpandPath(dir))
}

// loadTables loads the imported sales log and, when present, the
// inventory snapshot. Sales are required; inventory is optional.
func loadTables(ctx context.Context, store *storage.Store) (*dataset.SalesTable, *dataset.InventoryTable, error) {
	sales, err := store.LoadSales(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sales: %w", err)
	}
	if sales.Len() == 0 {
		return nil, nil, common.NewUserError("no sales data imported yet; run 'pulse import sales <file>' first", common.ErrNoData)
	}

	inventory, err := store.LoadInventory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	if inventory.Len() == 0 {
		inventory = nil
	}
	return sales, inventory, nil
}

// parseDateFlag parses an ISO date flag value, returning fallback when
// the flag was not set.
func parseDateFlag(value string, fallback model.Date) (model.Date, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid date %q (expected 2006-01-02): %w", value, err)
	}
	return d, nil
}
