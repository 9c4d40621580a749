package aggregate

import (
	"fmt"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/stats"
)

// CategoryBaseline computes descriptive statistics for one category over a
// trailing window ending at end (inclusive). Returns common.ErrNoData when
// the window holds no rows for the category.
func (a *Aggregator) CategoryBaseline(category string, end model.Date, windowDays int) (*model.CategoryWindowBaseline, error) {
	if windowDays <= 0 {
		windowDays = DefaultBaselineWindowDays
	}
	start := end.AddDays(-windowDays)

	type day struct {
		units   float64
		revenue float64
	}
	daily := make(map[model.Date]*day)
	for _, r := range a.sales.Between(start, end) {
		if r.Category != category {
			continue
		}
		d := daily[r.Date]
		if d == nil {
			d = &day{}
			daily[r.Date] = d
		}
		d.units += float64(r.Quantity)
		d.revenue += r.Revenue
	}
	if len(daily) == 0 {
		return nil, fmt.Errorf("category %q: %w", category, common.ErrNoData)
	}

	units := make([]float64, 0, len(daily))
	revenues := make([]float64, 0, len(daily))
	for _, d := range daily {
		units = append(units, d.units)
		revenues = append(revenues, d.revenue)
	}

	return &model.CategoryWindowBaseline{
		Category:   category,
		WindowDays: windowDays,
		StartDate:  start,
		EndDate:    end,

		DailyAvgUnits:    stats.Mean(units),
		DailyMedianUnits: stats.Median(units),
		DailyStdUnits:    stats.Std(units),
		DailyP25Units:    stats.Percentile(units, 0.25),
		DailyP75Units:    stats.Percentile(units, 0.75),
		DailyP95Units:    stats.Percentile(units, 0.95),
		DailyMaxUnits:    stats.Max(units),

		DailyAvgRevenue:    stats.Mean(revenues),
		DailyMedianRevenue: stats.Median(revenues),
		DailyStdRevenue:    stats.Std(revenues),
		DailyP95Revenue:    stats.Percentile(revenues, 0.95),
	}, nil
}

// LocationBaseline computes descriptive statistics for one branch over a
// trailing window ending at end (inclusive). Returns common.ErrNoData when
// the window holds no rows for the branch.
func (a *Aggregator) LocationBaseline(location string, end model.Date, windowDays int) (*model.LocationWindowBaseline, error) {
	if windowDays <= 0 {
		windowDays = DefaultBaselineWindowDays
	}
	start := end.AddDays(-windowDays)

	type day struct {
		sales   map[string]struct{}
		revenue float64
	}
	daily := make(map[model.Date]*day)
	for _, r := range a.sales.Between(start, end) {
		if r.Location != location {
			continue
		}
		d := daily[r.Date]
		if d == nil {
			d = &day{sales: make(map[string]struct{})}
			daily[r.Date] = d
		}
		d.sales[r.SaleID] = struct{}{}
		d.revenue += r.Revenue
	}
	if len(daily) == 0 {
		return nil, fmt.Errorf("location %q: %w", location, common.ErrNoData)
	}

	traffic := make([]float64, 0, len(daily))
	revenues := make([]float64, 0, len(daily))
	for _, d := range daily {
		traffic = append(traffic, float64(len(d.sales)))
		revenues = append(revenues, d.revenue)
	}

	return &model.LocationWindowBaseline{
		Location:   location,
		WindowDays: windowDays,
		StartDate:  start,
		EndDate:    end,

		DailyAvgTransactions:    stats.Mean(traffic),
		DailyMedianTransactions: stats.Median(traffic),
		DailyStdTransactions:    stats.Std(traffic),
		DailyP95Transactions:    stats.Percentile(traffic, 0.95),

		DailyAvgRevenue:    stats.Mean(revenues),
		DailyMedianRevenue: stats.Median(revenues),
		DailyStdRevenue:    stats.Std(revenues),
	}, nil
}
