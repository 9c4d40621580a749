package alertfeatures

import (
	"fmt"
	"sort"
	"time"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/stats"
)

// LocationStock is one branch's stock cover for an emergency category.
type LocationStock struct {
	Stock     float64  `json:"stock"`
	DaysNorm  *float64 `json:"days_normal"`
	DaysSpike *float64 `json:"days_spike"`
}

// InventoryHealth measures whether current stock can absorb an outbreak
// demand spike. Days-of-supply fields are nil when the consumption rate
// is zero.
type InventoryHealth struct {
	TotalCurrentStock      float64                  `json:"total_current_stock"`
	NormalDailyConsumption float64                  `json:"normal_daily_consumption"`
	SpikeDailyConsumption  float64                  `json:"spike_daily_consumption"`
	DaysOfSupplyNormal     *float64                 `json:"days_of_supply_normal"`
	DaysOfSupplyOutbreak   *float64                 `json:"days_of_supply_outbreak"`
	AlertNeeded            bool                     `json:"alert_needed"`
	ByLocation             map[string]LocationStock `json:"by_location"`
}

// CategorySupplier is one supplier's share of a category's revenue.
type CategorySupplier struct {
	Supplier            string  `json:"supplier"`
	RevenuePercentage   float64 `json:"revenue_percentage"`
	ProductCount        int     `json:"product_count"`
	TypicalLeadTimeDays int     `json:"typical_lead_time_days"`
}

// HealthEmergencyFeatures is the read-model for flu outbreaks, norovirus,
// and similar demand shocks against one category.
type HealthEmergencyFeatures struct {
	Category string     `json:"category"`
	AsOfDate model.Date `json:"as_of_date"`

	DailyAvgUnits    float64 `json:"daily_avg_units"`
	DailyAvgRevenue  float64 `json:"daily_avg_revenue"`
	DailyMedianUnits float64 `json:"daily_median_units"`
	DailyStdUnits    float64 `json:"daily_std_units"`

	HistoricalPeakDailyUnits   float64    `json:"historical_peak_daily_units"`
	HistoricalPeakDailyRevenue float64    `json:"historical_peak_daily_revenue"`
	PeakMonth                  time.Month `json:"peak_month"`
	PeakMonthAvgDailyUnits     float64    `json:"peak_month_avg_daily_units"`

	OutbreakEstimatedPeakUnits   float64 `json:"outbreak_estimated_peak_units"`
	OutbreakEstimatedPeakRevenue float64 `json:"outbreak_estimated_peak_revenue"`

	InventoryHealth *InventoryHealth   `json:"inventory_health,omitempty"`
	Suppliers       []CategorySupplier `json:"suppliers"`
}

// Type implements Features.
func (HealthEmergencyFeatures) Type() AlertType { return AlertHealthEmergency }

// HealthEmergencyFeatures computes the health-emergency read-model for a
// category from one year of history ending at asOf. Returns
// common.ErrNoData when the category has no rows in that year.
func (c *Calculator) HealthEmergencyFeatures(category string, asOf model.Date) (*HealthEmergencyFeatures, error) {
	yearStart := asOf.AddYears(-1)

	daily := make(map[model.Date]*dailyPair)
	for _, r := range c.sales.Between(yearStart, asOf) {
		if r.Category != category {
			continue
		}
		d := daily[r.Date]
		if d == nil {
			d = &dailyPair{}
			daily[r.Date] = d
		}
		d.units += float64(r.Quantity)
		d.revenue += r.Revenue
	}
	if len(daily) == 0 {
		return nil, fmt.Errorf("category %q: %w", category, common.ErrNoData)
	}

	// Recent 30-day baseline.
	recentStart := asOf.AddDays(-30)
	var recentUnits, recentRevenues []float64
	allUnits := make([]float64, 0, len(daily))
	allRevenues := make([]float64, 0, len(daily))
	monthly := make(map[time.Month]*dailyPair)
	monthDays := make(map[time.Month]int)
	for date, d := range daily {
		allUnits = append(allUnits, d.units)
		allRevenues = append(allRevenues, d.revenue)
		if !date.Before(recentStart) {
			recentUnits = append(recentUnits, d.units)
			recentRevenues = append(recentRevenues, d.revenue)
		}

		m := monthly[date.Month]
		if m == nil {
			m = &dailyPair{}
			monthly[date.Month] = m
		}
		m.units += d.units
		m.revenue += d.revenue
		monthDays[date.Month]++
	}

	// Seasonality: average daily units per calendar month, normalized by
	// the distinct trading days actually present in each month.
	var peakMonth time.Month
	var peakDaily float64
	for month := time.January; month <= time.December; month++ {
		m, ok := monthly[month]
		if !ok {
			continue
		}
		avg := m.units / float64(monthDays[month])
		if peakMonth == 0 || avg > peakDaily {
			peakMonth = month
			peakDaily = avg
		}
	}

	avgUnits := stats.Mean(recentUnits)
	avgRevenue := stats.Mean(recentRevenues)

	features := &HealthEmergencyFeatures{
		Category: category,
		AsOfDate: asOf,

		DailyAvgUnits:    avgUnits,
		DailyAvgRevenue:  avgRevenue,
		DailyMedianUnits: stats.Median(recentUnits),
		DailyStdUnits:    stats.Std(recentUnits),

		HistoricalPeakDailyUnits:   stats.Max(allUnits),
		HistoricalPeakDailyRevenue: stats.Max(allRevenues),
		PeakMonth:                  peakMonth,
		PeakMonthAvgDailyUnits:     peakDaily,

		OutbreakEstimatedPeakUnits:   avgUnits * OutbreakMultiplier,
		OutbreakEstimatedPeakRevenue: avgRevenue * OutbreakMultiplier,

		Suppliers: c.categorySuppliers(category),
	}

	if c.inventory != nil {
		features.InventoryHealth = c.inventoryHealth(category, features.DailyAvgUnits, features.OutbreakEstimatedPeakUnits)
	}
	return features, nil
}

func (c *Calculator) inventoryHealth(category string, normalDaily, spikeDaily float64) *InventoryHealth {
	health := &InventoryHealth{
		NormalDailyConsumption: normalDaily,
		SpikeDailyConsumption:  spikeDaily,
		ByLocation:             make(map[string]LocationStock),
	}

	byLocation := make(map[string]float64)
	for _, r := range c.inventory.Rows() {
		if r.Category != category {
			continue
		}
		health.TotalCurrentStock += r.StockLevel
		byLocation[r.Location] += r.StockLevel
	}

	if normalDaily > 0 {
		health.DaysOfSupplyNormal = ptr(stats.Round1(health.TotalCurrentStock / normalDaily))
	}
	if spikeDaily > 0 {
		outbreakDays := stats.Round1(health.TotalCurrentStock / spikeDaily)
		health.DaysOfSupplyOutbreak = ptr(outbreakDays)
		health.AlertNeeded = outbreakDays < OutbreakAlertDays
	}

	for location, stock := range byLocation {
		entry := LocationStock{Stock: stock}
		if normalDaily > 0 {
			entry.DaysNorm = ptr(stats.Round1(stock / normalDaily))
		}
		if spikeDaily > 0 {
			entry.DaysSpike = ptr(stats.Round1(stock / spikeDaily))
		}
		health.ByLocation[location] = entry
	}
	return health
}

// categorySuppliers ranks a category's suppliers by revenue share across
// the full sales history. Empty when the source has no supplier column.
func (c *Calculator) categorySuppliers(category string) []CategorySupplier {
	if !c.sales.Columns().HasSupplier {
		return []CategorySupplier{}
	}

	type group struct {
		revenue  float64
		products map[string]struct{}
	}
	groups := make(map[string]*group)
	var total float64
	for _, r := range c.sales.Rows() {
		if r.Category != category {
			continue
		}
		total += r.Revenue
		if r.Supplier == "" {
			continue
		}
		g := groups[r.Supplier]
		if g == nil {
			g = &group{products: make(map[string]struct{})}
			groups[r.Supplier] = g
		}
		g.revenue += r.Revenue
		g.products[r.Product] = struct{}{}
	}

	suppliers := make([]CategorySupplier, 0, len(groups))
	for supplier, g := range groups {
		pct := 0.0
		if total > 0 {
			pct = g.revenue / total * 100
		}
		suppliers = append(suppliers, CategorySupplier{
			Supplier:          supplier,
			RevenuePercentage: stats.Round1(pct),
			ProductCount:      len(g.products),
			// Lead time belongs in supplier master data; fixed until
			// that integration exists.
			TypicalLeadTimeDays: 3,
		})
	}
	sort.Slice(suppliers, func(i, j int) bool {
		if suppliers[i].RevenuePercentage != suppliers[j].RevenuePercentage {
			return suppliers[i].RevenuePercentage > suppliers[j].RevenuePercentage
		}
		return suppliers[i].Supplier < suppliers[j].Supplier
	})
	return suppliers
}
