package model

import "time"

// DailyTotals holds the whole-network totals for a single trading day.
// Refund and profit figures are present only when the source table carried
// the corresponding optional columns.
type DailyTotals struct {
	TotalRevenue     float64  `json:"total_revenue"`
	TotalUnits       int      `json:"total_units"`
	TransactionCount int      `json:"transaction_count"`
	LineItems        int      `json:"line_items"`
	UniqueProducts   int      `json:"unique_products"`
	UniqueCategories int      `json:"unique_categories"`
	AvgTicket        float64  `json:"avg_ticket"`
	RefundValue      *float64 `json:"refund_value,omitempty"`
	RefundPercentage *float64 `json:"refund_percentage,omitempty"`
	TotalProfit      *float64 `json:"total_profit,omitempty"`
	ProfitMargin     *float64 `json:"profit_margin,omitempty"`
}

// CategoryMetrics holds one category's figures for a single day. Growth
// fields are nil when the comparison date had no revenue for the category.
type CategoryMetrics struct {
	Revenue           float64  `json:"revenue"`
	Units             int      `json:"units"`
	Transactions      int      `json:"transactions"`
	UniqueProducts    int      `json:"unique_products"`
	AvgPricePerUnit   float64  `json:"avg_price_per_unit"`
	GrowthVsYesterday *float64 `json:"growth_vs_yesterday"`
	GrowthVsLastYear  *float64 `json:"growth_vs_last_year"`
}

// LocationMetrics holds one branch's figures for a single day. Traffic is
// the distinct transaction count, a proxy for footfall. VsNetworkAvg
// compares against the mean revenue of branches active that day, not
// against the branch's own history.
type LocationMetrics struct {
	Revenue           float64  `json:"revenue"`
	Units             int      `json:"units"`
	Traffic           int      `json:"traffic"`
	AvgTicket         float64  `json:"avg_ticket"`
	VsNetworkAvg      float64  `json:"vs_network_avg"`
	CurrentStockUnits *float64 `json:"current_stock_units,omitempty"`
}

// SupplierMetrics holds one supplier's share of a day's trade. Only
// suppliers above the materiality threshold appear in a bundle.
type SupplierMetrics struct {
	Revenue           float64 `json:"revenue"`
	RevenuePercentage float64 `json:"revenue_percentage"`
	ProductCount      int     `json:"product_count"`
	CategoryCount     int     `json:"category_count"`
}

// SameDayLastYear is the year-over-year comparison point.
type SameDayLastYear struct {
	Date    Date    `json:"date"`
	Revenue float64 `json:"revenue"`
}

// HistoricalContext carries trailing-window comparisons for a day. Every
// field is nil when the underlying window held no data; the windows are
// exclusive of the target date itself.
type HistoricalContext struct {
	SameDayLastYear  *SameDayLastYear `json:"same_day_last_year,omitempty"`
	SevenDayAverage  *float64         `json:"7_day_average,omitempty"`
	SevenDayMedian   *float64         `json:"7_day_median,omitempty"`
	ThirtyDayAverage *float64         `json:"30_day_average,omitempty"`
	ThirtyDayMedian  *float64         `json:"30_day_median,omitempty"`
	WeekdayTypical   *float64         `json:"weekday_typical,omitempty"`
}

// FeatureBundle is the complete derived-metrics document for one calendar
// date and the unit of caching. A bundle never exists for a date with zero
// transactions. Anomalies stays nil until the detector runs.
type FeatureBundle struct {
	Date              Date                       `json:"date"`
	ComputedAt        time.Time                  `json:"computed_at"`
	DailyTotals       DailyTotals                `json:"daily_totals"`
	ByCategory        map[string]CategoryMetrics `json:"by_category"`
	ByLocation        map[string]LocationMetrics `json:"by_location"`
	BySupplier        map[string]SupplierMetrics `json:"by_supplier,omitempty"`
	HistoricalContext HistoricalContext          `json:"historical_context"`
	Anomalies         *AnomalyResult             `json:"anomalies,omitempty"`
}
