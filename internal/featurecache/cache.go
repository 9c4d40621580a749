// Package featurecache persists daily feature bundles as one JSON
// document per calendar date, plus a singleton baselines document, inside
// a configurable root directory. Bundles are written whole and never
// patched; the orchestration layer enforces don't-overwrite semantics by
// checking existence first. Single-writer per date is assumed.
package featurecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

// DefaultRetentionDays is how long dated documents are kept before an
// eviction sweep removes them.
const DefaultRetentionDays = 90

const baselinesFilename = "baselines.json"

// Cache is a day-keyed document store on the local filesystem.
type Cache struct {
	dir string
	now func() time.Time
}

// New opens (and creates, if absent) a cache rooted at dir.
func New(dir string) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory: %w", common.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Put serializes and writes the bundle document for a date, overwriting
// any existing document.
func (c *Cache) Put(d model.Date, bundle *model.FeatureBundle) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bundle for %s: %w", d, err)
	}
	if err := os.WriteFile(c.filename(d), data, 0o600); err != nil {
		return fmt.Errorf("failed to write bundle for %s: %w", d, err)
	}
	return nil
}

// Get loads the bundle for a date. Returns common.ErrNotFound for an
// absent document and common.ErrCorruptCache for one that exists but
// cannot be parsed; the two must never be conflated.
func (c *Cache) Get(d model.Date) (*model.FeatureBundle, error) {
	data, err := os.ReadFile(c.filename(d))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("bundle for %s: %w", d, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle for %s: %w", d, err)
	}

	var bundle model.FeatureBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("bundle for %s: %v: %w", d, err, common.ErrCorruptCache)
	}
	return &bundle, nil
}

// Exists reports whether a bundle document exists for a date.
func (c *Cache) Exists(d model.Date) bool {
	_, err := os.Stat(c.filename(d))
	return err == nil
}

// PutBaselines overwrites the singleton baselines document.
func (c *Cache) PutBaselines(baselines *model.Baselines) error {
	data, err := json.MarshalIndent(baselines, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode baselines: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, baselinesFilename), data, 0o600); err != nil {
		return fmt.Errorf("failed to write baselines: %w", err)
	}
	return nil
}

// GetBaselines loads the singleton baselines document.
func (c *Cache) GetBaselines() (*model.Baselines, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, baselinesFilename))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("baselines: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read baselines: %w", err)
	}

	var baselines model.Baselines
	if err := json.Unmarshal(data, &baselines); err != nil {
		return nil, fmt.Errorf("baselines: %v: %w", err, common.ErrCorruptCache)
	}
	return &baselines, nil
}

// HasBaselines reports whether the baselines document exists.
func (c *Cache) HasBaselines() bool {
	_, err := os.Stat(filepath.Join(c.dir, baselinesFilename))
	return err == nil
}

// ListDates returns every date with a persisted bundle, sorted ascending.
// Files that are not date-named documents are ignored.
func (c *Cache) ListDates() ([]model.Date, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	var dates []model.Date
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == baselinesFilename {
			continue
		}
		d, err := model.ParseDate(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// LatestDate returns the most recent cached date, or common.ErrNotFound
// when the cache holds no bundles.
func (c *Cache) LatestDate() (model.Date, error) {
	dates, err := c.ListDates()
	if err != nil {
		return model.Date{}, err
	}
	if len(dates) == 0 {
		return model.Date{}, fmt.Errorf("latest cached date: %w", common.ErrNotFound)
	}
	return dates[len(dates)-1], nil
}

// GetRange loads every cached bundle with start <= date <= end in
// chronological order, silently skipping dates with no document. Corrupt
// documents still fail loudly.
func (c *Cache) GetRange(start, end model.Date) ([]*model.FeatureBundle, error) {
	var bundles []*model.FeatureBundle
	for d := start; !d.After(end); d = d.AddDays(1) {
		bundle, err := c.Get(d)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		bundles = append(bundles, bundle)
	}
	return bundles, nil
}

// EvictOlderThan deletes bundle documents strictly older than
// today − retentionDays and returns the number deleted. The cutoff date
// itself is retained. The baselines document is never evicted.
func (c *Cache) EvictOlderThan(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	cutoff := model.DateOf(c.now()).AddDays(-retentionDays)

	dates, err := c.ListDates()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, d := range dates {
		if !d.Before(cutoff) {
			continue
		}
		if err := os.Remove(c.filename(d)); err != nil {
			return deleted, fmt.Errorf("failed to evict bundle for %s: %w", d, err)
		}
		deleted++
	}
	return deleted, nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Count          int
	OldestDate     model.Date
	NewestDate     model.Date
	HasBaselines   bool
	TotalSizeBytes int64
}

// Stats returns counts, date bounds, and total on-disk size.
func (c *Cache) Stats() (Stats, error) {
	dates, err := c.ListDates()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Count:        len(dates),
		HasBaselines: c.HasBaselines(),
	}
	if len(dates) > 0 {
		stats.OldestDate = dates[0]
		stats.NewestDate = dates[len(dates)-1]
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.TotalSizeBytes += info.Size()
	}
	return stats, nil
}

func (c *Cache) filename(d model.Date) string {
	return filepath.Join(c.dir, d.String()+".json")
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
