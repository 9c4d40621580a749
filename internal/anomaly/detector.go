// Package anomaly scores daily feature bundles against trailing baseline
// statistics. Detection is z-score based with fixed severity bands, plus a
// multidimensional confirmation rule that suppresses single-metric noise.
// Every function here is total: zero variance, zero means, and missing
// dimensions degrade to documented sentinel outputs, never errors.
package anomaly

import (
	"fmt"
	"math"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/dataset"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/stats"
)

// Severity thresholds on |z|. These are policy, not tuning parameters:
// the bands are strict greater-than comparisons, so z = 3.0 exactly is
// significant, not critical.
const (
	CriticalThreshold    = 3.0
	SignificantThreshold = 2.0
	MinorThreshold       = 1.5
)

// ConfirmationRevenueZ is the |z| the total-revenue dimension must exceed
// for the third clause of the multidimensional rule. It duplicates the
// significant band's 2.0 deliberately; the two constants are independent
// policy knobs.
const ConfirmationRevenueZ = 2.0

// Ratio-test multipliers for surge and drought detection.
const (
	SurgeMultiplier   = 2.0
	DroughtMultiplier = 0.5
)

// PercentileApproxZ approximates the 90th/10th percentile as
// mean ± 1.28·std when no precomputed p95 is available. The Gaussian
// constant is part of the observable contract.
const PercentileApproxZ = 1.28

// DefaultWindowDays is the trailing baseline window.
const DefaultWindowDays = 30

// Detector computes baselines and scores feature bundles against them.
type Detector struct {
	WindowDays int
}

// NewDetector creates a detector with the given baseline window; zero or
// negative windows fall back to DefaultWindowDays.
func NewDetector(windowDays int) *Detector {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Detector{WindowDays: windowDays}
}

// ZScore returns (observed − mean) / std rounded to two decimals, or
// exactly 0.0 when std is zero. A dimension with no historical variance
// can therefore never be flagged by this formula alone; that limitation
// is part of the contract.
func ZScore(observed, mean, std float64) float64 {
	if std == 0 {
		return 0.0
	}
	return stats.Round2((observed - mean) / std)
}

// Classify maps a z-score to its severity band.
func Classify(z float64) model.Severity {
	abs := math.Abs(z)
	switch {
	case abs > CriticalThreshold:
		return model.SeverityCritical
	case abs > SignificantThreshold:
		return model.SeveritySignificant
	case abs > MinorThreshold:
		return model.SeverityMinor
	default:
		return model.SeverityNormal
	}
}

// ComputeBaselines builds the scoring baselines from raw sales over
// [end − WindowDays, end] inclusive. Categories and locations with no
// data in the window are absent from the output maps. Returns
// common.ErrNoData when the window is completely empty.
func (d *Detector) ComputeBaselines(sales *dataset.SalesTable, end model.Date) (*model.Baselines, error) {
	start := end.AddDays(-d.WindowDays)
	rows := sales.Between(start, end)
	if len(rows) == 0 {
		return nil, fmt.Errorf("baseline window %s..%s: %w", start, end, common.ErrNoData)
	}

	dailyTotal := make(map[model.Date]float64)
	dailyByCategory := make(map[string]map[model.Date]float64)
	dailyByLocation := make(map[string]map[model.Date]float64)
	for _, r := range rows {
		dailyTotal[r.Date] += r.Revenue

		byDate := dailyByCategory[r.Category]
		if byDate == nil {
			byDate = make(map[model.Date]float64)
			dailyByCategory[r.Category] = byDate
		}
		byDate[r.Date] += r.Revenue

		byDate = dailyByLocation[r.Location]
		if byDate == nil {
			byDate = make(map[model.Date]float64)
			dailyByLocation[r.Location] = byDate
		}
		byDate[r.Date] += r.Revenue
	}

	totals := values(dailyTotal)
	baselines := &model.Baselines{
		CalculationDate: end,
		WindowDays:      d.WindowDays,
		StartDate:       start,
		TotalRevenue: model.RevenueBaseline{
			MetricBaseline: metricBaseline(totals),
			Min:            stats.Min(totals),
			Max:            stats.Max(totals),
		},
		ByCategory: make(map[string]model.CategoryRevenueBaseline, len(dailyByCategory)),
		ByLocation: make(map[string]model.LocationRevenueBaseline, len(dailyByLocation)),
	}

	for category, byDate := range dailyByCategory {
		daily := values(byDate)
		baselines.ByCategory[category] = model.CategoryRevenueBaseline{
			MetricBaseline: metricBaseline(daily),
			P95:            stats.Percentile(daily, 0.95),
		}
	}
	for location, byDate := range dailyByLocation {
		daily := values(byDate)
		baselines.ByLocation[location] = model.LocationRevenueBaseline{
			MetricBaseline: metricBaseline(daily),
		}
	}
	return baselines, nil
}

// DetectDailyAnomalies scores one feature bundle against the baselines.
// Dimensions absent from either side are skipped.
func (d *Detector) DetectDailyAnomalies(bundle *model.FeatureBundle, baselines *model.Baselines) *model.AnomalyResult {
	result := &model.AnomalyResult{
		AnomalyTypes:      []string{},
		CategoryAnomalies: []model.CategoryAnomaly{},
		LocationAnomalies: []model.LocationAnomaly{},
	}
	if bundle == nil || baselines == nil {
		return result
	}

	z := ZScore(bundle.DailyTotals.TotalRevenue, baselines.TotalRevenue.Mean, baselines.TotalRevenue.Std)
	result.TotalRevenueZ = &z
	if Classify(z) != model.SeverityNormal {
		result.HasAnomaly = true
		result.AnomalyTypes = append(result.AnomalyTypes, "total_revenue")
	}

	for category, metrics := range bundle.ByCategory {
		baseline, ok := baselines.ByCategory[category]
		if !ok {
			continue
		}
		z := ZScore(metrics.Revenue, baseline.Mean, baseline.Std)
		classification := Classify(z)
		if classification == model.SeverityNormal {
			continue
		}
		result.CategoryAnomalies = append(result.CategoryAnomalies, model.CategoryAnomaly{
			Category:       category,
			ZScore:         z,
			Classification: classification,
			Observed:       metrics.Revenue,
			BaselineMean:   baseline.Mean,
			Direction:      direction(z),
		})
		result.HasAnomaly = true
	}

	for location, metrics := range bundle.ByLocation {
		baseline, ok := baselines.ByLocation[location]
		if !ok {
			continue
		}
		z := ZScore(metrics.Revenue, baseline.Mean, baseline.Std)
		classification := Classify(z)
		if classification == model.SeverityNormal {
			continue
		}
		result.LocationAnomalies = append(result.LocationAnomalies, model.LocationAnomaly{
			Location:       location,
			ZScore:         z,
			Classification: classification,
			Observed:       metrics.Revenue,
			BaselineMean:   baseline.Mean,
			Direction:      direction(z),
		})
		result.HasAnomaly = true
	}

	result.IsTrueAnomaly = isTrueAnomaly(result)
	return result
}

// isTrueAnomaly applies the multidimensional confirmation rule, in
// priority order: two severe category anomalies, two severe location
// anomalies, or a strong total-revenue move backed by at least one
// category or location anomaly of any severity.
func isTrueAnomaly(result *model.AnomalyResult) bool {
	var severeCategories, severeLocations int
	for _, a := range result.CategoryAnomalies {
		if a.Classification.IsSevere() {
			severeCategories++
		}
	}
	for _, a := range result.LocationAnomalies {
		if a.Classification.IsSevere() {
			severeLocations++
		}
	}

	if severeCategories >= 2 {
		return true
	}
	if severeLocations >= 2 {
		return true
	}

	revenueStrong := result.TotalRevenueZ != nil && math.Abs(*result.TotalRevenueZ) > ConfirmationRevenueZ
	if revenueStrong && (len(result.CategoryAnomalies) >= 1 || len(result.LocationAnomalies) >= 1) {
		return true
	}
	return false
}

// SurgeResult reports a ratio-to-baseline surge test.
type SurgeResult struct {
	IsSurge      bool    `json:"is_surge"`
	Category     string  `json:"category,omitempty"`
	Observed     float64 `json:"observed,omitempty"`
	BaselineMean float64 `json:"baseline_mean,omitempty"`
	Multiplier   float64 `json:"multiplier,omitempty"`
	Threshold    float64 `json:"threshold,omitempty"`
}

// DetectSurge tests whether observed is at least threshold times the
// baseline mean. A zero baseline mean yields IsSurge=false immediately.
func DetectSurge(category string, observed float64, baseline model.MetricBaseline, threshold float64) SurgeResult {
	if threshold <= 0 {
		threshold = SurgeMultiplier
	}
	if baseline.Mean == 0 {
		return SurgeResult{IsSurge: false}
	}
	multiplier := observed / baseline.Mean
	return SurgeResult{
		IsSurge:      multiplier >= threshold,
		Category:     category,
		Observed:     observed,
		BaselineMean: baseline.Mean,
		Multiplier:   stats.Round2(multiplier),
		Threshold:    threshold,
	}
}

// DroughtResult reports a ratio-to-baseline drought test.
type DroughtResult struct {
	IsDrought    bool    `json:"is_drought"`
	Category     string  `json:"category,omitempty"`
	Observed     float64 `json:"observed,omitempty"`
	BaselineMean float64 `json:"baseline_mean,omitempty"`
	Multiplier   float64 `json:"multiplier,omitempty"`
	Threshold    float64 `json:"threshold,omitempty"`
}

// DetectDrought tests whether observed has fallen to threshold times the
// baseline mean or below. A zero baseline mean yields IsDrought=false.
func DetectDrought(category string, observed float64, baseline model.MetricBaseline, threshold float64) DroughtResult {
	if threshold <= 0 {
		threshold = DroughtMultiplier
	}
	if baseline.Mean == 0 {
		return DroughtResult{IsDrought: false}
	}
	multiplier := observed / baseline.Mean
	return DroughtResult{
		IsDrought:    multiplier <= threshold,
		Category:     category,
		Observed:     observed,
		BaselineMean: baseline.Mean,
		Multiplier:   stats.Round2(multiplier),
		Threshold:    threshold,
	}
}

// VolumeBaseline carries the fields the high/low-volume tests consult.
// P95 is nil for dimensions whose baselines do not precompute it.
type VolumeBaseline struct {
	Mean float64
	Std  float64
	P95  *float64
}

// IsHighVolumeDay reports whether the observed revenue exceeds the p95
// baseline when precomputed, else the Gaussian approximation
// mean + 1.28·std.
func IsHighVolumeDay(observed float64, baseline VolumeBaseline) bool {
	threshold := baseline.Mean + PercentileApproxZ*baseline.Std
	if baseline.P95 != nil {
		threshold = *baseline.P95
	}
	return observed > threshold
}

// IsLowVolumeDay reports whether the observed revenue falls below the
// Gaussian approximation of the 10th percentile, mean − 1.28·std.
func IsLowVolumeDay(observed float64, baseline VolumeBaseline) bool {
	return observed < baseline.Mean-PercentileApproxZ*baseline.Std
}

func direction(z float64) model.Direction {
	if z > 0 {
		return model.DirectionAbove
	}
	return model.DirectionBelow
}

func metricBaseline(daily []float64) model.MetricBaseline {
	return model.MetricBaseline{
		Mean:   stats.Mean(daily),
		Std:    stats.Std(daily),
		Median: stats.Median(daily),
	}
}

func values(byDate map[model.Date]float64) []float64 {
	out := make([]float64, 0, len(byDate))
	for _, v := range byDate {
		out = append(out, v)
	}
	return out
}
