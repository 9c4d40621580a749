package alertfeatures

import (
	"fmt"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/stats"
)

// eventRelevantCategories are the product categories that historically
// move during concerts, festivals, and conferences near a branch.
var eventRelevantCategories = []string{
	"OTC : Analgesics",
	"OTC : First Aid",
	"OTC : Cold & Flu",
	"Nutritional Supplements",
	"Female Toiletries : Hygiene",
}

// EventCategoryBaseline is one event-relevant category's trailing
// averages and peaks at a branch.
type EventCategoryBaseline struct {
	BaselineDailyRevenue float64 `json:"baseline_daily_revenue"`
	BaselineDailyUnits   float64 `json:"baseline_daily_units"`
	PeakDailyRevenue     float64 `json:"peak_daily_revenue"`
	PeakDailyUnits       float64 `json:"peak_daily_units"`
}

// CategoryInventory is current on-hand stock for one category at a branch.
type CategoryInventory struct {
	StockUnits   float64 `json:"stock_units"`
	ProductCount int     `json:"product_count"`
}

// MajorEventFeatures is the read-model for major-event alerts: the
// branch's traffic baseline, event-relevant category baselines, and
// current stock cover for those categories.
type MajorEventFeatures struct {
	Location string     `json:"location"`
	AsOfDate model.Date `json:"as_of_date"`

	AvgTransactionsPerDay    float64 `json:"avg_transactions_per_day"`
	MedianTransactionsPerDay float64 `json:"median_transactions_per_day"`
	PeakDayTraffic           float64 `json:"peak_day_traffic"`
	SlowestDayTraffic        float64 `json:"slowest_day_traffic"`
	StdTransactions          float64 `json:"std_transactions"`

	EventRelevantCategories map[string]EventCategoryBaseline `json:"event_relevant_categories"`
	InventoryStatus         map[string]CategoryInventory     `json:"inventory_status"`

	HistoricalEventLift float64 `json:"historical_event_lift"`
}

// Type implements Features.
func (MajorEventFeatures) Type() AlertType { return AlertMajorEvent }

// MajorEventFeatures computes the major-event read-model for a branch
// over the trailing 30 days ending at asOf. Returns common.ErrNoData when
// the branch has no transactions in the window.
func (c *Calculator) MajorEventFeatures(location string, asOf model.Date) (*MajorEventFeatures, error) {
	start := asOf.AddDays(-30)

	dailySales := make(map[model.Date]map[string]struct{})
	for _, r := range c.sales.Between(start, asOf) {
		if r.Location != location {
			continue
		}
		sales := dailySales[r.Date]
		if sales == nil {
			sales = make(map[string]struct{})
			dailySales[r.Date] = sales
		}
		sales[r.SaleID] = struct{}{}
	}
	if len(dailySales) == 0 {
		return nil, fmt.Errorf("location %q: %w", location, common.ErrNoData)
	}

	traffic := make([]float64, 0, len(dailySales))
	for _, sales := range dailySales {
		traffic = append(traffic, float64(len(sales)))
	}

	features := &MajorEventFeatures{
		Location: location,
		AsOfDate: asOf,

		AvgTransactionsPerDay:    stats.Mean(traffic),
		MedianTransactionsPerDay: stats.Median(traffic),
		PeakDayTraffic:           stats.Max(traffic),
		SlowestDayTraffic:        stats.Min(traffic),
		StdTransactions:          stats.Std(traffic),

		EventRelevantCategories: c.eventCategoryBaselines(location, start, asOf),
		InventoryStatus:         map[string]CategoryInventory{},

		HistoricalEventLift: EventLiftMultiplier,
	}

	if c.inventory != nil {
		features.InventoryStatus = c.locationCategoryInventory(location, eventRelevantCategories)
	}
	return features, nil
}

func (c *Calculator) eventCategoryBaselines(location string, start, end model.Date) map[string]EventCategoryBaseline {
	type catDaily map[model.Date]*dailyPair
	byCategory := make(map[string]catDaily)
	relevant := make(map[string]struct{}, len(eventRelevantCategories))
	for _, category := range eventRelevantCategories {
		relevant[category] = struct{}{}
	}

	for _, r := range c.sales.Between(start, end) {
		if r.Location != location {
			continue
		}
		if _, ok := relevant[r.Category]; !ok {
			continue
		}
		daily := byCategory[r.Category]
		if daily == nil {
			daily = make(catDaily)
			byCategory[r.Category] = daily
		}
		d := daily[r.Date]
		if d == nil {
			d = &dailyPair{}
			daily[r.Date] = d
		}
		d.units += float64(r.Quantity)
		d.revenue += r.Revenue
	}

	out := make(map[string]EventCategoryBaseline, len(byCategory))
	for category, daily := range byCategory {
		units, revenues := dailyValues(daily)
		out[category] = EventCategoryBaseline{
			BaselineDailyRevenue: stats.Mean(revenues),
			BaselineDailyUnits:   stats.Mean(units),
			PeakDailyRevenue:     stats.Max(revenues),
			PeakDailyUnits:       stats.Max(units),
		}
	}
	return out
}

func (c *Calculator) locationCategoryInventory(location string, categories []string) map[string]CategoryInventory {
	out := make(map[string]CategoryInventory)
	for _, category := range categories {
		var stock float64
		products := make(map[string]struct{})
		for _, r := range c.inventory.Rows() {
			if r.Location != location || r.Category != category {
				continue
			}
			stock += r.StockLevel
			products[r.Product] = struct{}{}
		}
		if len(products) == 0 {
			continue
		}
		out[category] = CategoryInventory{
			StockUnits:   stock,
			ProductCount: len(products),
		}
	}
	return out
}
