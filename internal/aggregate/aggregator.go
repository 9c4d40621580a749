// Package aggregate rolls the raw sales log into per-day feature bundles:
// network totals, category/location/supplier breakdowns, and trailing
// historical context. Everything here is a pure transform over the
// immutable tables; the only state is a memo map scoped to a single
// aggregation run.
package aggregate

import (
	"errors"
	"fmt"
	"time"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/dataset"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/stats"
)

// SupplierMaterialityPct is the minimum share of a day's revenue a
// supplier must hold to appear in the by-supplier breakdown. Policy
// constant: keeps long-tail suppliers out of the output.
const SupplierMaterialityPct = 0.5

// DefaultBaselineWindowDays is the trailing window used by the category
// and location baseline helpers when no explicit window is given.
const DefaultBaselineWindowDays = 30

type memoKey struct {
	category string
	date     model.Date
}

// Aggregator computes daily feature bundles from the sales log, joining
// the inventory snapshot when one is supplied.
type Aggregator struct {
	sales     *dataset.SalesTable
	inventory *dataset.InventoryTable
	memo      map[memoKey]float64
	now       func() time.Time
}

// New creates an aggregator over the given tables. inventory may be nil;
// the stock join is skipped in that case.
func New(sales *dataset.SalesTable, inventory *dataset.InventoryTable) *Aggregator {
	return &Aggregator{
		sales:     sales,
		inventory: inventory,
		memo:      make(map[memoKey]float64),
		now:       time.Now,
	}
}

// Aggregate computes the feature bundle for a single date. Returns
// common.ErrNoData when the date has no transactions; callers treat that
// as skip, not failure.
func (a *Aggregator) Aggregate(target model.Date) (*model.FeatureBundle, error) {
	dayRows := a.sales.ForDate(target)
	if len(dayRows) == 0 {
		return nil, fmt.Errorf("%s: %w", target, common.ErrNoData)
	}

	// The memo is valid only within one aggregation run.
	a.memo = make(map[memoKey]float64)

	bundle := &model.FeatureBundle{
		Date:              target,
		ComputedAt:        a.now(),
		DailyTotals:       a.dailyTotals(dayRows),
		ByCategory:        a.byCategory(dayRows, target),
		ByLocation:        a.byLocation(dayRows),
		HistoricalContext: a.historicalContext(target),
	}
	if a.sales.Columns().HasSupplier {
		bundle.BySupplier = a.bySupplier(dayRows)
	}
	return bundle, nil
}

// AggregateRange computes bundles for every date in [start, end],
// silently omitting dates with no data and preserving chronological order.
func (a *Aggregator) AggregateRange(start, end model.Date) ([]*model.FeatureBundle, error) {
	var bundles []*model.FeatureBundle
	for d := start; !d.After(end); d = d.AddDays(1) {
		bundle, err := a.Aggregate(d)
		if err != nil {
			if errors.Is(err, common.ErrNoData) {
				continue
			}
			return nil, err
		}
		bundles = append(bundles, bundle)
	}
	return bundles, nil
}

func (a *Aggregator) dailyTotals(rows []model.SaleRecord) model.DailyTotals {
	totals := model.DailyTotals{LineItems: len(rows)}

	saleIDs := make(map[string]struct{})
	products := make(map[string]struct{})
	categories := make(map[string]struct{})
	var refund, profit float64
	for _, r := range rows {
		totals.TotalRevenue += r.Revenue
		totals.TotalUnits += r.Quantity
		saleIDs[r.SaleID] = struct{}{}
		products[r.Product] = struct{}{}
		categories[r.Category] = struct{}{}
		refund += r.Refund
		profit += r.Profit
	}
	totals.TransactionCount = len(saleIDs)
	totals.UniqueProducts = len(products)
	totals.UniqueCategories = len(categories)
	if totals.TransactionCount > 0 {
		totals.AvgTicket = stats.Round2(totals.TotalRevenue / float64(totals.TransactionCount))
	}

	cols := a.sales.Columns()
	if cols.HasRefund {
		totals.RefundValue = ptr(refund)
		pct := 0.0
		if totals.TotalRevenue > 0 {
			pct = refund / totals.TotalRevenue * 100
		}
		totals.RefundPercentage = ptr(stats.Round2(pct))
	}
	if cols.HasProfit {
		totals.TotalProfit = ptr(profit)
		margin := 0.0
		if totals.TotalRevenue > 0 {
			margin = profit / totals.TotalRevenue * 100
		}
		totals.ProfitMargin = ptr(stats.Round2(margin))
	}
	return totals
}

func (a *Aggregator) byCategory(rows []model.SaleRecord, target model.Date) map[string]model.CategoryMetrics {
	type group struct {
		revenue  float64
		units    int
		sales    map[string]struct{}
		products map[string]struct{}
	}
	groups := make(map[string]*group)
	for _, r := range rows {
		g := groups[r.Category]
		if g == nil {
			g = &group{sales: make(map[string]struct{}), products: make(map[string]struct{})}
			groups[r.Category] = g
		}
		g.revenue += r.Revenue
		g.units += r.Quantity
		g.sales[r.SaleID] = struct{}{}
		g.products[r.Product] = struct{}{}
	}

	out := make(map[string]model.CategoryMetrics, len(groups))
	yesterday := target.AddDays(-1)
	lastYear := target.AddYears(-1)
	for category, g := range groups {
		metrics := model.CategoryMetrics{
			Revenue:        g.revenue,
			Units:          g.units,
			Transactions:   len(g.sales),
			UniqueProducts: len(g.products),
		}
		if g.units > 0 {
			metrics.AvgPricePerUnit = stats.Round2(g.revenue / float64(g.units))
		}

		if prev := a.categoryRevenue(category, yesterday); prev > 0 {
			metrics.GrowthVsYesterday = ptr(stats.Round1((g.revenue - prev) / prev * 100))
		}
		if prev := a.categoryRevenue(category, lastYear); prev > 0 {
			metrics.GrowthVsLastYear = ptr(stats.Round1((g.revenue - prev) / prev * 100))
		}
		out[category] = metrics
	}
	return out
}

func (a *Aggregator) byLocation(rows []model.SaleRecord) map[string]model.LocationMetrics {
	type group struct {
		revenue float64
		units   int
		sales   map[string]struct{}
	}
	groups := make(map[string]*group)
	for _, r := range rows {
		g := groups[r.Location]
		if g == nil {
			g = &group{sales: make(map[string]struct{})}
			groups[r.Location] = g
		}
		g.revenue += r.Revenue
		g.units += r.Quantity
		g.sales[r.SaleID] = struct{}{}
	}

	// Cross-sectional comparison: the denominator is the mean revenue of
	// locations trading today, so a silent branch never dilutes it.
	var networkTotal float64
	for _, g := range groups {
		networkTotal += g.revenue
	}
	networkAvg := 0.0
	if len(groups) > 0 {
		networkAvg = networkTotal / float64(len(groups))
	}

	out := make(map[string]model.LocationMetrics, len(groups))
	for location, g := range groups {
		metrics := model.LocationMetrics{
			Revenue: g.revenue,
			Units:   g.units,
			Traffic: len(g.sales),
		}
		if len(g.sales) > 0 {
			metrics.AvgTicket = stats.Round2(g.revenue / float64(len(g.sales)))
		}
		if networkAvg > 0 {
			metrics.VsNetworkAvg = stats.Round1((g.revenue - networkAvg) / networkAvg * 100)
		}
		if a.inventory != nil {
			metrics.CurrentStockUnits = ptr(a.inventory.StockForLocation(location))
		}
		out[location] = metrics
	}
	return out
}

func (a *Aggregator) bySupplier(rows []model.SaleRecord) map[string]model.SupplierMetrics {
	type group struct {
		revenue    float64
		products   map[string]struct{}
		categories map[string]struct{}
	}
	groups := make(map[string]*group)
	var total float64
	for _, r := range rows {
		total += r.Revenue
		if r.Supplier == "" {
			continue
		}
		g := groups[r.Supplier]
		if g == nil {
			g = &group{products: make(map[string]struct{}), categories: make(map[string]struct{})}
			groups[r.Supplier] = g
		}
		g.revenue += r.Revenue
		g.products[r.Product] = struct{}{}
		g.categories[r.Category] = struct{}{}
	}

	out := make(map[string]model.SupplierMetrics)
	for supplier, g := range groups {
		pct := 0.0
		if total > 0 {
			pct = g.revenue / total * 100
		}
		if pct <= SupplierMaterialityPct {
			continue
		}
		out[supplier] = model.SupplierMetrics{
			Revenue:           g.revenue,
			RevenuePercentage: stats.Round2(pct),
			ProductCount:      len(g.products),
			CategoryCount:     len(g.categories),
		}
	}
	return out
}

func (a *Aggregator) historicalContext(target model.Date) model.HistoricalContext {
	var ctx model.HistoricalContext

	lastYear := target.AddYears(-1)
	if revenue, ok := a.dayRevenue(lastYear); ok {
		ctx.SameDayLastYear = &model.SameDayLastYear{Date: lastYear, Revenue: revenue}
	}

	// Trailing windows exclude the target date itself.
	if daily := a.dailyRevenues(target.AddDays(-7).AddDays(1), target.AddDays(-1)); len(daily) > 0 {
		ctx.SevenDayAverage = ptr(stats.Mean(daily))
		ctx.SevenDayMedian = ptr(stats.Median(daily))
	}
	if daily := a.dailyRevenues(target.AddDays(-30).AddDays(1), target.AddDays(-1)); len(daily) > 0 {
		ctx.ThirtyDayAverage = ptr(stats.Mean(daily))
		ctx.ThirtyDayMedian = ptr(stats.Median(daily))
	}

	// Same weekday over the trailing eight weeks.
	weekday := target.Weekday()
	var weekdayRevenues []float64
	for d := target.AddDays(-55); d.Before(target); d = d.AddDays(1) {
		if d.Weekday() != weekday {
			continue
		}
		if revenue, ok := a.dayRevenue(d); ok {
			weekdayRevenues = append(weekdayRevenues, revenue)
		}
	}
	if len(weekdayRevenues) > 0 {
		ctx.WeekdayTypical = ptr(stats.Median(weekdayRevenues))
	}
	return ctx
}

// categoryRevenue returns total revenue for a category on a date,
// memoized for the remainder of the current aggregation run.
func (a *Aggregator) categoryRevenue(category string, d model.Date) float64 {
	key := memoKey{category: category, date: d}
	if revenue, ok := a.memo[key]; ok {
		return revenue
	}
	var revenue float64
	for _, r := range a.sales.ForDate(d) {
		if r.Category == category {
			revenue += r.Revenue
		}
	}
	a.memo[key] = revenue
	return revenue
}

// dayRevenue returns total revenue for a date, with ok=false when the
// date had no transactions at all.
func (a *Aggregator) dayRevenue(d model.Date) (float64, bool) {
	rows := a.sales.ForDate(d)
	if len(rows) == 0 {
		return 0, false
	}
	var revenue float64
	for _, r := range rows {
		revenue += r.Revenue
	}
	return revenue, true
}

// dailyRevenues returns one revenue figure per trading day in
// [start, end], skipping days with no data.
func (a *Aggregator) dailyRevenues(start, end model.Date) []float64 {
	var out []float64
	for d := start; !d.After(end); d = d.AddDays(1) {
		if revenue, ok := a.dayRevenue(d); ok {
			out = append(out, revenue)
		}
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}
