package model

// MetricBaseline is the minimal descriptive-statistics set shared by every
// baseline dimension.
type MetricBaseline struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
}

// RevenueBaseline describes the whole-network daily revenue distribution
// over the baseline window.
type RevenueBaseline struct {
	MetricBaseline
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CategoryRevenueBaseline describes one category's daily revenue
// distribution over the baseline window.
type CategoryRevenueBaseline struct {
	MetricBaseline
	P95 float64 `json:"p95"`
}

// LocationRevenueBaseline describes one branch's daily revenue
// distribution over the baseline window.
type LocationRevenueBaseline struct {
	MetricBaseline
}

// Baselines is the singleton reference document for anomaly scoring: one
// trailing window ending at CalculationDate, recomputed wholesale rather
// than maintained per day. Categories and locations with no data inside
// the window are simply absent from the maps.
type Baselines struct {
	CalculationDate Date                               `json:"calculation_date"`
	WindowDays      int                                `json:"window_days"`
	StartDate       Date                               `json:"start_date"`
	TotalRevenue    RevenueBaseline                    `json:"total_revenue"`
	ByCategory      map[string]CategoryRevenueBaseline `json:"by_category"`
	ByLocation      map[string]LocationRevenueBaseline `json:"by_location"`
}

// CategoryWindowBaseline is the richer per-category descriptive profile
// produced by the aggregator's baseline helper (distinct from the anomaly
// detector's leaner scoring baselines).
type CategoryWindowBaseline struct {
	Category   string `json:"category"`
	WindowDays int    `json:"window_days"`
	StartDate  Date   `json:"start_date"`
	EndDate    Date   `json:"end_date"`

	DailyAvgUnits    float64 `json:"daily_avg_units"`
	DailyMedianUnits float64 `json:"daily_median_units"`
	DailyStdUnits    float64 `json:"daily_std_units"`
	DailyP25Units    float64 `json:"daily_p25_units"`
	DailyP75Units    float64 `json:"daily_p75_units"`
	DailyP95Units    float64 `json:"daily_p95_units"`
	DailyMaxUnits    float64 `json:"daily_max_units"`

	DailyAvgRevenue    float64 `json:"daily_avg_revenue"`
	DailyMedianRevenue float64 `json:"daily_median_revenue"`
	DailyStdRevenue    float64 `json:"daily_std_revenue"`
	DailyP95Revenue    float64 `json:"daily_p95_revenue"`
}

// LocationWindowBaseline is the per-branch counterpart of
// CategoryWindowBaseline, built on daily traffic and revenue.
type LocationWindowBaseline struct {
	Location   string `json:"location"`
	WindowDays int    `json:"window_days"`
	StartDate  Date   `json:"start_date"`
	EndDate    Date   `json:"end_date"`

	DailyAvgTransactions    float64 `json:"daily_avg_transactions"`
	DailyMedianTransactions float64 `json:"daily_median_transactions"`
	DailyStdTransactions    float64 `json:"daily_std_transactions"`
	DailyP95Transactions    float64 `json:"daily_p95_transactions"`

	DailyAvgRevenue    float64 `json:"daily_avg_revenue"`
	DailyMedianRevenue float64 `json:"daily_median_revenue"`
	DailyStdRevenue    float64 `json:"daily_std_revenue"`
}
