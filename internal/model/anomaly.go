package model

// Severity classifies an anomaly by z-score band.
type Severity string

// Severity bands, from most to least severe. Thresholds are strict
// greater-than comparisons on |z|.
const (
	SeverityCritical    Severity = "critical_anomaly"
	SeveritySignificant Severity = "significant_anomaly"
	SeverityMinor       Severity = "minor_anomaly"
	SeverityNormal      Severity = "normal"
)

// IsSevere reports whether the severity is critical or significant, the
// bands that count toward multidimensional confirmation.
func (s Severity) IsSevere() bool {
	return s == SeverityCritical || s == SeveritySignificant
}

// Direction indicates which side of the baseline an observation fell on.
type Direction string

// Anomaly directions.
const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// CategoryAnomaly records one category whose daily revenue scored outside
// the normal band.
type CategoryAnomaly struct {
	Category       string    `json:"category"`
	ZScore         float64   `json:"z_score"`
	Classification Severity  `json:"classification"`
	Observed       float64   `json:"observed"`
	BaselineMean   float64   `json:"baseline_mean"`
	Direction      Direction `json:"direction"`
}

// LocationAnomaly records one branch whose daily revenue scored outside
// the normal band.
type LocationAnomaly struct {
	Location       string    `json:"location"`
	ZScore         float64   `json:"z_score"`
	Classification Severity  `json:"classification"`
	Observed       float64   `json:"observed"`
	BaselineMean   float64   `json:"baseline_mean"`
	Direction      Direction `json:"direction"`
}

// AnomalyResult is the detector's verdict for one feature bundle.
// TotalRevenueZ is nil when no total-revenue baseline was available.
// IsTrueAnomaly is set only when the multidimensional confirmation rule
// passes, suppressing single-metric noise.
type AnomalyResult struct {
	HasAnomaly        bool              `json:"has_anomaly"`
	AnomalyTypes      []string          `json:"anomaly_types"`
	TotalRevenueZ     *float64          `json:"total_revenue_z"`
	CategoryAnomalies []CategoryAnomaly `json:"category_anomalies"`
	LocationAnomalies []LocationAnomaly `json:"location_anomalies"`
	IsTrueAnomaly     bool              `json:"is_true_anomaly"`
}
