package alertfeatures

import (
	"fmt"
	"time"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/stats"
)

// WeatherType names a weather scenario with a known demand signature.
type WeatherType string

// The weather scenarios the category map covers.
const (
	WeatherHeatwave WeatherType = "heatwave"
	WeatherColdSnap WeatherType = "cold_snap"
	WeatherFlooding WeatherType = "flooding"
)

// weatherCategoryMap pairs each weather scenario with the categories whose
// demand it moves.
var weatherCategoryMap = map[WeatherType][]string{
	WeatherHeatwave: {"Skincare", "OTC : Allergy", "Nutritional Supplements"},
	WeatherColdSnap: {"OTC : Cold & Flu", "Vitamins"},
	WeatherFlooding: {"OTC : First Aid", "Female Toiletries : Hygiene"},
}

// MonthlyBaseline is a category's average trading-day volume for one
// calendar month.
type MonthlyBaseline struct {
	DailyUnits   float64 `json:"daily_units"`
	DailyRevenue float64 `json:"daily_revenue"`
}

// SeasonalPattern is a category's two-year monthly seasonality plus its
// current stock cover. Inventory fields are nil without stock data, and
// days-of-supply additionally requires a nonzero consumption rate.
type SeasonalPattern struct {
	SeasonalBaseline     map[string]MonthlyBaseline `json:"seasonal_baseline"`
	PeakMonth            string                     `json:"peak_month"`
	PeakDailyUnits       float64                    `json:"peak_daily_units"`
	PeakDailyRevenue     float64                    `json:"peak_daily_revenue"`
	CurrentMonthBaseline *MonthlyBaseline           `json:"current_month_baseline,omitempty"`
	CurrentStock         *float64                   `json:"current_stock,omitempty"`
	DaysOfSupplyNormal   *float64                   `json:"days_of_supply_normal,omitempty"`
	DaysOfSupplyPeak     *float64                   `json:"days_of_supply_peak,omitempty"`
}

// WeatherFeatures is the read-model for extreme-weather alerts: seasonal
// demand patterns for the categories the scenario moves.
type WeatherFeatures struct {
	WeatherType        WeatherType                 `json:"weather_type"`
	AsOfDate           model.Date                  `json:"as_of_date"`
	RelevantCategories []string                    `json:"relevant_categories"`
	CategoryPatterns   map[string]*SeasonalPattern `json:"category_patterns"`
}

// Type implements Features.
func (WeatherFeatures) Type() AlertType { return AlertWeatherExtreme }

// WeatherFeatures computes seasonal patterns for the categories mapped to
// a weather scenario. An unmapped scenario returns common.ErrNoData.
// Categories with no sales in the two-year window are omitted from the
// patterns map.
func (c *Calculator) WeatherFeatures(weather WeatherType, asOf model.Date) (*WeatherFeatures, error) {
	categories, ok := weatherCategoryMap[weather]
	if !ok {
		return nil, fmt.Errorf("weather type %q: %w", weather, common.ErrNoData)
	}

	features := &WeatherFeatures{
		WeatherType:        weather,
		AsOfDate:           asOf,
		RelevantCategories: categories,
		CategoryPatterns:   make(map[string]*SeasonalPattern),
	}
	for _, category := range categories {
		if pattern := c.seasonalPattern(category, asOf); pattern != nil {
			features.CategoryPatterns[category] = pattern
		}
	}
	return features, nil
}

// seasonalPattern builds a category's monthly seasonality from two years
// of history ending at asOf. Monthly rates are normalized by the distinct
// trading days observed in each month, not the calendar length.
func (c *Calculator) seasonalPattern(category string, asOf model.Date) *SeasonalPattern {
	start := asOf.AddYears(-2)

	type monthAgg struct {
		units   float64
		revenue float64
		days    map[model.Date]struct{}
	}
	monthly := make(map[time.Month]*monthAgg)
	for _, r := range c.sales.Between(start, asOf) {
		if r.Category != category {
			continue
		}
		m := monthly[r.Date.Month]
		if m == nil {
			m = &monthAgg{days: make(map[model.Date]struct{})}
			monthly[r.Date.Month] = m
		}
		m.units += float64(r.Quantity)
		m.revenue += r.Revenue
		m.days[r.Date] = struct{}{}
	}
	if len(monthly) == 0 {
		return nil
	}

	pattern := &SeasonalPattern{
		SeasonalBaseline: make(map[string]MonthlyBaseline, len(monthly)),
	}
	var peakUnits, peakRevenue float64
	var peakMonth time.Month
	for month := time.January; month <= time.December; month++ {
		m, ok := monthly[month]
		if !ok {
			continue
		}
		dailyUnits := m.units / float64(len(m.days))
		dailyRevenue := m.revenue / float64(len(m.days))
		pattern.SeasonalBaseline[month.String()[:3]] = MonthlyBaseline{
			DailyUnits:   stats.Round1(dailyUnits),
			DailyRevenue: stats.Round2(dailyRevenue),
		}
		if peakMonth == 0 || dailyUnits > peakUnits {
			peakMonth = month
			peakUnits = dailyUnits
			peakRevenue = dailyRevenue
		}
		if month == asOf.Month {
			pattern.CurrentMonthBaseline = &MonthlyBaseline{
				DailyUnits:   dailyUnits,
				DailyRevenue: dailyRevenue,
			}
		}
	}
	pattern.PeakMonth = peakMonth.String()[:3]
	pattern.PeakDailyUnits = peakUnits
	pattern.PeakDailyRevenue = peakRevenue

	if c.inventory != nil {
		var stock float64
		for _, r := range c.inventory.Rows() {
			if r.Category == category {
				stock += r.StockLevel
			}
		}
		pattern.CurrentStock = ptr(stock)
		if pattern.CurrentMonthBaseline != nil {
			if normal := pattern.CurrentMonthBaseline.DailyUnits; normal > 0 {
				pattern.DaysOfSupplyNormal = ptr(stats.Round1(stock / normal))
			}
			if peakUnits > 0 {
				pattern.DaysOfSupplyPeak = ptr(stats.Round1(stock / peakUnits))
			}
		}
	}
	return pattern
}
