// Package alertfeatures builds the specialized read-models consumed by
// the downstream alert decision engine. Each alert archetype gets its own
// result type with its own schema; the archetypes are a closed set, so
// consumers can switch exhaustively over the variants. Nothing here is
// cached: every call recomputes from the raw tables, which is fine for
// on-demand use.
package alertfeatures

import (
	"fmt"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/dataset"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

// Business policy constants. These are assumptions embedded in the alert
// rules, not learned parameters; changing them changes observable outputs.
const (
	// EventLiftMultiplier is the assumed typical sales lift during a
	// nearby major event. Placeholder business assumption pending real
	// event history.
	EventLiftMultiplier = 1.8

	// OutbreakMultiplier estimates peak demand during a health emergency
	// as a multiple of the recent baseline.
	OutbreakMultiplier = 4.5

	// ViralSpikeMultiplier estimates demand for a product trending on
	// social media.
	ViralSpikeMultiplier = 4.0

	// OutbreakAlertDays flags inventory when outbreak-rate days of supply
	// falls below this.
	OutbreakAlertDays = 5.0

	// ViralCapitalizeDays is the minimum spike-rate days of supply needed
	// to capitalize on a viral trend.
	ViralCapitalizeDays = 3.0

	// SupplierMaterialityShare excludes suppliers below this share of
	// trailing-year revenue from the disruption ranking.
	SupplierMaterialityShare = 0.01
)

// AlertType identifies one of the five alert archetypes.
type AlertType string

// The closed set of alert archetypes.
const (
	AlertMajorEvent       AlertType = "major_event"
	AlertHealthEmergency  AlertType = "health_emergency"
	AlertWeatherExtreme   AlertType = "weather_extreme"
	AlertSupplyDisruption AlertType = "supply_disruption"
	AlertViralTrend       AlertType = "viral_trend"
)

// Features is implemented by every archetype's result type.
type Features interface {
	Type() AlertType
}

// Params carries the archetype-specific inputs for Compute. Only the
// fields relevant to the requested archetype are consulted.
type Params struct {
	Location string
	Category string
	Weather  WeatherType
	Keyword  string
}

// Calculator computes alert-specific features from the raw tables.
// It is stateless and safe for sequential reuse.
type Calculator struct {
	sales     *dataset.SalesTable
	inventory *dataset.InventoryTable
}

// NewCalculator creates a calculator over the given tables. inventory may
// be nil; inventory-dependent fields are omitted in that case.
func NewCalculator(sales *dataset.SalesTable, inventory *dataset.InventoryTable) *Calculator {
	return &Calculator{sales: sales, inventory: inventory}
}

// Compute dispatches to the archetype-specific calculator.
func (c *Calculator) Compute(alertType AlertType, params Params, asOf model.Date) (Features, error) {
	switch alertType {
	case AlertMajorEvent:
		return c.MajorEventFeatures(params.Location, asOf)
	case AlertHealthEmergency:
		return c.HealthEmergencyFeatures(params.Category, asOf)
	case AlertWeatherExtreme:
		return c.WeatherFeatures(params.Weather, asOf)
	case AlertSupplyDisruption:
		return c.SupplyDisruptionFeatures(asOf)
	case AlertViralTrend:
		return c.ViralTrendFeatures(params.Keyword, asOf)
	default:
		return nil, fmt.Errorf("alert type %q: %w", alertType, common.ErrInvalidConfig)
	}
}

// dailyPair accumulates one day's units and revenue.
type dailyPair struct {
	units   float64
	revenue float64
}

// dailyValues splits a date-keyed accumulation into parallel slices.
func dailyValues(daily map[model.Date]*dailyPair) (units, revenues []float64) {
	units = make([]float64, 0, len(daily))
	revenues = make([]float64, 0, len(daily))
	for _, d := range daily {
		units = append(units, d.units)
		revenues = append(revenues, d.revenue)
	}
	return units, revenues
}

func ptr(v float64) *float64 {
	return &v
}
