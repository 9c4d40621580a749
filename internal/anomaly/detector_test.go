package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/testutil"
)

func TestZScore(t *testing.T) {
	tests := []struct {
		name     string
		observed float64
		mean     float64
		std      float64
		want     float64
	}{
		{name: "above mean", observed: 120, mean: 100, std: 10, want: 2.0},
		{name: "below mean", observed: 80, mean: 100, std: 10, want: -2.0},
		{name: "zero variance sentinel", observed: 999, mean: 100, std: 0, want: 0.0},
		{name: "rounded to two decimals", observed: 101, mean: 100, std: 3, want: 0.33},
		{name: "symmetry", observed: 99, mean: 100, std: 3, want: -0.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ZScore(tt.observed, tt.mean, tt.std), 1e-9)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		z    float64
		want model.Severity
	}{
		{z: 0, want: model.SeverityNormal},
		{z: 1.5, want: model.SeverityNormal},
		{z: 1.51, want: model.SeverityMinor},
		{z: -1.51, want: model.SeverityMinor},
		{z: 2.0, want: model.SeverityMinor},
		{z: 2.01, want: model.SeveritySignificant},
		{z: 3.0, want: model.SeveritySignificant},
		{z: 3.01, want: model.SeverityCritical},
		{z: -3.01, want: model.SeverityCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.z), "z=%v", tt.z)
	}
}

func TestComputeBaselines(t *testing.T) {
	end := model.NewDate(2024, time.November, 15)
	b := testutil.NewSalesBuilder()
	b.AddDaily(end.AddDays(-30), 31, "Baggot St", "Skincare", "Face Cream", 100)
	b.AddDaily(end.AddDays(-30), 31, "Dundrum", "Vitamins", "Vitamin C", 50)

	baselines, err := NewDetector(30).ComputeBaselines(b.Build(), end)
	require.NoError(t, err)

	assert.Equal(t, end, baselines.CalculationDate)
	assert.Equal(t, end.AddDays(-30), baselines.StartDate)
	assert.InDelta(t, 150, baselines.TotalRevenue.Mean, 1e-9)
	assert.InDelta(t, 0, baselines.TotalRevenue.Std, 1e-9)
	assert.InDelta(t, 150, baselines.TotalRevenue.Min, 1e-9)

	require.Contains(t, baselines.ByCategory, "Skincare")
	require.Contains(t, baselines.ByLocation, "Dundrum")
	assert.InDelta(t, 100, baselines.ByCategory["Skincare"].Mean, 1e-9)
	assert.InDelta(t, 50, baselines.ByLocation["Dundrum"].Mean, 1e-9)
}

func TestComputeBaselinesEmptyWindow(t *testing.T) {
	end := model.NewDate(2024, time.November, 15)
	sales := testutil.NewSalesBuilder().
		Add(testutil.Sale{Date: end.AddDays(-100), Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 10}).
		Build()

	_, err := NewDetector(30).ComputeBaselines(sales, end)
	assert.ErrorIs(t, err, common.ErrNoData)
}

func baselinesFixture() *model.Baselines {
	return &model.Baselines{
		TotalRevenue: model.RevenueBaseline{
			MetricBaseline: model.MetricBaseline{Mean: 1000, Std: 100},
		},
		ByCategory: map[string]model.CategoryRevenueBaseline{
			"Skincare": {MetricBaseline: model.MetricBaseline{Mean: 100, Std: 10}},
			"Vitamins": {MetricBaseline: model.MetricBaseline{Mean: 200, Std: 20}},
		},
		ByLocation: map[string]model.LocationRevenueBaseline{
			"Baggot St": {MetricBaseline: model.MetricBaseline{Mean: 500, Std: 50}},
		},
	}
}

func bundleFixture(total float64, categories map[string]float64, locations map[string]float64) *model.FeatureBundle {
	bundle := &model.FeatureBundle{
		DailyTotals: model.DailyTotals{TotalRevenue: total},
		ByCategory:  map[string]model.CategoryMetrics{},
		ByLocation:  map[string]model.LocationMetrics{},
	}
	for name, revenue := range categories {
		bundle.ByCategory[name] = model.CategoryMetrics{Revenue: revenue}
	}
	for name, revenue := range locations {
		bundle.ByLocation[name] = model.LocationMetrics{Revenue: revenue}
	}
	return bundle
}

func TestDetectDailyAnomaliesNormalDay(t *testing.T) {
	bundle := bundleFixture(1000,
		map[string]float64{"Skincare": 100},
		map[string]float64{"Baggot St": 500})

	result := NewDetector(30).DetectDailyAnomalies(bundle, baselinesFixture())

	assert.False(t, result.HasAnomaly)
	assert.False(t, result.IsTrueAnomaly)
	assert.Empty(t, result.AnomalyTypes)
	require.NotNil(t, result.TotalRevenueZ)
	assert.InDelta(t, 0.0, *result.TotalRevenueZ, 1e-9)
}

func TestDetectDailyAnomaliesTotalRevenue(t *testing.T) {
	bundle := bundleFixture(1350,
		map[string]float64{"Skincare": 100},
		map[string]float64{"Baggot St": 500})

	result := NewDetector(30).DetectDailyAnomalies(bundle, baselinesFixture())

	assert.True(t, result.HasAnomaly)
	assert.Contains(t, result.AnomalyTypes, "total_revenue")
	require.NotNil(t, result.TotalRevenueZ)
	assert.InDelta(t, 3.5, *result.TotalRevenueZ, 1e-9)
	assert.False(t, result.IsTrueAnomaly, "no supporting dimension anomalies")
}

func TestDetectDailyAnomaliesSkipsUnknownDimensions(t *testing.T) {
	bundle := bundleFixture(1000,
		map[string]float64{"Fragrance": 9999},
		map[string]float64{"Galway": 9999})

	result := NewDetector(30).DetectDailyAnomalies(bundle, baselinesFixture())

	assert.False(t, result.HasAnomaly, "dimensions absent from baselines are skipped")
	assert.Empty(t, result.CategoryAnomalies)
	assert.Empty(t, result.LocationAnomalies)
}

func TestIsTrueAnomalyTwoSevereCategories(t *testing.T) {
	bundle := bundleFixture(1000,
		map[string]float64{"Skincare": 125, "Vitamins": 250},
		nil)

	result := NewDetector(30).DetectDailyAnomalies(bundle, baselinesFixture())

	require.Len(t, result.CategoryAnomalies, 2)
	assert.True(t, result.IsTrueAnomaly)
}

func TestIsTrueAnomalyRevenueBackedBySingleMinor(t *testing.T) {
	// Total z = 2.5 and one minor category anomaly: clause three accepts
	// supporting anomalies of any severity.
	bundle := bundleFixture(1250,
		map[string]float64{"Skincare": 118},
		nil)

	result := NewDetector(30).DetectDailyAnomalies(bundle, baselinesFixture())

	require.Len(t, result.CategoryAnomalies, 1)
	assert.Equal(t, model.SeverityMinor, result.CategoryAnomalies[0].Classification)
	assert.True(t, result.IsTrueAnomaly)
}

func TestIsTrueAnomalySingleDimensionIsNot(t *testing.T) {
	bundle := bundleFixture(1000,
		map[string]float64{"Skincare": 150},
		nil)

	result := NewDetector(30).DetectDailyAnomalies(bundle, baselinesFixture())

	require.Len(t, result.CategoryAnomalies, 1)
	assert.Equal(t, model.SeverityCritical, result.CategoryAnomalies[0].Classification)
	assert.True(t, result.HasAnomaly)
	assert.False(t, result.IsTrueAnomaly, "one severe dimension alone is isolated noise")
}

func TestAnomalyDirection(t *testing.T) {
	bundle := bundleFixture(1000,
		map[string]float64{"Skincare": 60},
		nil)

	result := NewDetector(30).DetectDailyAnomalies(bundle, baselinesFixture())

	require.Len(t, result.CategoryAnomalies, 1)
	anomaly := result.CategoryAnomalies[0]
	assert.Equal(t, model.DirectionBelow, anomaly.Direction)
	assert.InDelta(t, -4.0, anomaly.ZScore, 1e-9)
}

func TestDetectSurge(t *testing.T) {
	baseline := model.MetricBaseline{Mean: 100}

	surge := DetectSurge("Skincare", 200, baseline, 0)
	assert.True(t, surge.IsSurge, "2.0x meets the default threshold")
	assert.InDelta(t, 2.0, surge.Multiplier, 1e-9)

	assert.False(t, DetectSurge("Skincare", 199, baseline, 0).IsSurge)
	assert.False(t, DetectSurge("Skincare", 999, model.MetricBaseline{}, 0).IsSurge, "zero mean never surges")
}

func TestDetectDrought(t *testing.T) {
	baseline := model.MetricBaseline{Mean: 100}

	drought := DetectDrought("Skincare", 50, baseline, 0)
	assert.True(t, drought.IsDrought, "0.5x meets the default threshold")

	assert.False(t, DetectDrought("Skincare", 51, baseline, 0).IsDrought)
	assert.False(t, DetectDrought("Skincare", 0, model.MetricBaseline{}, 0).IsDrought, "zero mean never droughts")
}

func TestVolumeDayTests(t *testing.T) {
	baseline := VolumeBaseline{Mean: 100, Std: 10}

	assert.True(t, IsHighVolumeDay(113, baseline), "above mean + 1.28 std")
	assert.False(t, IsHighVolumeDay(112.8, baseline), "threshold itself is not high")
	assert.True(t, IsLowVolumeDay(87, baseline))
	assert.False(t, IsLowVolumeDay(87.2, baseline))

	p95 := 120.0
	withP95 := VolumeBaseline{Mean: 100, Std: 10, P95: &p95}
	assert.False(t, IsHighVolumeDay(115, withP95), "precomputed p95 wins over the approximation")
	assert.True(t, IsHighVolumeDay(121, withP95))
}

func TestReportNoAnomalies(t *testing.T) {
	result := NewDetector(30).DetectDailyAnomalies(
		bundleFixture(1000, nil, nil), baselinesFixture())

	assert.Contains(t, Report(result), "No significant anomalies")
}

func TestReportListsDimensions(t *testing.T) {
	bundle := bundleFixture(1250,
		map[string]float64{"Skincare": 118},
		nil)

	result := NewDetector(30).DetectDailyAnomalies(bundle, baselinesFixture())
	report := Report(result)

	assert.Contains(t, report, "Skincare")
	assert.Contains(t, report, "MULTIDIMENSIONAL")
}
