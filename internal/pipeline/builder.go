// Package pipeline orchestrates the daily feature build: aggregate each
// day, score it against the window baselines, and persist the bundle.
// Already-cached days are skipped, so re-running a range is cheap and
// never rewrites history.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/ciaranwalsh/retailpulse/internal/aggregate"
	"github.com/ciaranwalsh/retailpulse/internal/anomaly"
	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/dataset"
	"github.com/ciaranwalsh/retailpulse/internal/featurecache"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

// Builder runs the aggregate-detect-cache loop over a date range.
type Builder struct {
	sales      *dataset.SalesTable
	aggregator *aggregate.Aggregator
	detector   *anomaly.Detector
	cache      *featurecache.Cache
	progress   io.Writer
	force      bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithProgress renders a progress bar to w while building.
func WithProgress(w io.Writer) Option {
	return func(b *Builder) { b.progress = w }
}

// WithForce rebuilds days that are already cached instead of skipping
// them. Baselines are rewritten either way.
func WithForce() Option {
	return func(b *Builder) { b.force = true }
}

// NewBuilder wires the build loop over the given tables and cache.
// inventory may be nil.
func NewBuilder(sales *dataset.SalesTable, inventory *dataset.InventoryTable, cache *featurecache.Cache, opts ...Option) *Builder {
	b := &Builder{
		sales:      sales,
		aggregator: aggregate.New(sales, inventory),
		detector:   anomaly.NewDetector(anomaly.DefaultWindowDays),
		cache:      cache,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Result summarizes one build run.
type Result struct {
	Built   int
	Skipped int
	Empty   int
}

// BuildDate builds and caches a single day using the currently persisted
// baselines, computing and persisting fresh ones when none exist yet.
func (b *Builder) BuildDate(ctx context.Context, target model.Date) (*model.FeatureBundle, error) {
	baselines, err := b.cache.GetBaselines()
	if common.IsNotFound(err) {
		baselines, err = b.refreshBaselines(target)
	}
	if err != nil {
		return nil, err
	}

	bundle, err := b.buildDay(ctx, target, baselines)
	if err != nil {
		return nil, err
	}
	if err := b.cache.Put(target, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// BuildRange builds every uncached day in [start, end]. Baselines are
// computed from the window ending at start and persisted before any day
// is built, so the whole range is scored against the same reference.
func (b *Builder) BuildRange(ctx context.Context, start, end model.Date) (Result, error) {
	if end.Before(start) {
		return Result{}, fmt.Errorf("range %s to %s: %w", start, end, common.ErrInvalidConfig)
	}

	baselines, err := b.refreshBaselines(start)
	if err != nil {
		return Result{}, err
	}

	bar := b.newBar(start.DaysUntil(end) + 1)

	var result Result
	for d := start; !d.After(end); d = d.AddDays(1) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if bar != nil {
			_ = bar.Add(1)
		}

		if !b.force && b.cache.Exists(d) {
			result.Skipped++
			continue
		}

		bundle, err := b.buildDay(ctx, d, baselines)
		if common.IsNoData(err) {
			slog.Debug("No sales for date, nothing to build", "date", d)
			result.Empty++
			continue
		}
		if err != nil {
			return result, err
		}
		if err := b.cache.Put(d, bundle); err != nil {
			return result, err
		}
		result.Built++
	}

	slog.Info("Feature build complete",
		"built", result.Built,
		"skipped", result.Skipped,
		"empty", result.Empty)
	return result, nil
}

func (b *Builder) buildDay(_ context.Context, target model.Date, baselines *model.Baselines) (*model.FeatureBundle, error) {
	bundle, err := b.aggregator.Aggregate(target)
	if err != nil {
		return nil, err
	}
	bundle.Anomalies = b.detector.DetectDailyAnomalies(bundle, baselines)
	if bundle.Anomalies.HasAnomaly {
		slog.Info("Anomaly detected",
			"date", target,
			"types", bundle.Anomalies.AnomalyTypes,
			"multidimensional", bundle.Anomalies.IsTrueAnomaly)
	}
	return bundle, nil
}

func (b *Builder) refreshBaselines(end model.Date) (*model.Baselines, error) {
	baselines, err := b.detector.ComputeBaselines(b.sales, end)
	if err != nil {
		return nil, err
	}
	if err := b.cache.PutBaselines(baselines); err != nil {
		return nil, err
	}
	slog.Info("Baselines computed",
		"end", end,
		"window_days", baselines.WindowDays,
		"categories", len(baselines.ByCategory),
		"locations", len(baselines.ByLocation))
	return baselines, nil
}

func (b *Builder) newBar(days int) *progressbar.ProgressBar {
	if b.progress == nil {
		return nil
	}
	return progressbar.NewOptions(days,
		progressbar.OptionSetWriter(b.progress),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Building daily features..."),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(b.progress)
		}),
	)
}
