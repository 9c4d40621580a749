package anomaly

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ciaranwalsh/retailpulse/internal/model"
)

// Report renders a deterministic human-readable summary of an anomaly
// result. Category and location sections are sorted by descending |z|.
func Report(result *model.AnomalyResult) string {
	if result == nil || !result.HasAnomaly {
		return "No significant anomalies detected."
	}

	var b strings.Builder
	b.WriteString("ANOMALY DETECTION REPORT\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")

	if result.TotalRevenueZ != nil && *result.TotalRevenueZ != 0 {
		z := *result.TotalRevenueZ
		dir := "above"
		if z < 0 {
			dir = "below"
		}
		fmt.Fprintf(&b, "Overall Revenue: %.1f std deviations %s normal\n", math.Abs(z), dir)
	}

	if len(result.CategoryAnomalies) > 0 {
		b.WriteString("\nCATEGORY ANOMALIES:\n")
		b.WriteString(strings.Repeat("-", 60) + "\n")

		sorted := make([]model.CategoryAnomaly, len(result.CategoryAnomalies))
		copy(sorted, result.CategoryAnomalies)
		sort.SliceStable(sorted, func(i, j int) bool {
			return math.Abs(sorted[i].ZScore) > math.Abs(sorted[j].ZScore)
		})
		for _, a := range sorted {
			fmt.Fprintf(&b, "  %-40s | z=%6.2f | %-20s | €%8.0f vs €%8.0f\n",
				a.Category, a.ZScore, a.Classification, a.Observed, a.BaselineMean)
		}
	}

	if len(result.LocationAnomalies) > 0 {
		b.WriteString("\nLOCATION ANOMALIES:\n")
		b.WriteString(strings.Repeat("-", 60) + "\n")

		sorted := make([]model.LocationAnomaly, len(result.LocationAnomalies))
		copy(sorted, result.LocationAnomalies)
		sort.SliceStable(sorted, func(i, j int) bool {
			return math.Abs(sorted[i].ZScore) > math.Abs(sorted[j].ZScore)
		})
		for _, a := range sorted {
			fmt.Fprintf(&b, "  %-40s | z=%6.2f | %-20s | €%8.0f vs €%8.0f\n",
				a.Location, a.ZScore, a.Classification, a.Observed, a.BaselineMean)
		}
	}

	if result.IsTrueAnomaly {
		b.WriteString("\nTRUE MULTIDIMENSIONAL ANOMALY DETECTED")
	} else {
		b.WriteString("\nIsolated anomaly (not multidimensional)")
	}
	return b.String()
}
