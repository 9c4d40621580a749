package alertfeatures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/testutil"
)

// fluFixture has a flat recent month of one unit and twenty euro a day,
// plus a single January spike day inside the trailing year.
func fluFixture() *testutil.SalesBuilder {
	b := testutil.NewSalesBuilder()
	b.AddDaily(asOf.AddDays(-29), 30, "Baggot St", "OTC : Cold & Flu", "Lemsip", 20)
	b.Add(testutil.Sale{
		Date: model.NewDate(2024, time.January, 10), Location: "Baggot St",
		Category: "OTC : Cold & Flu", Product: "Lemsip", Quantity: 50, Revenue: 500,
	})
	return b
}

func TestHealthEmergencyBaselines(t *testing.T) {
	features, err := NewCalculator(fluFixture().Build(), nil).HealthEmergencyFeatures("OTC : Cold & Flu", asOf)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, features.DailyAvgUnits, 1e-9)
	assert.InDelta(t, 20.0, features.DailyAvgRevenue, 1e-9)
	assert.InDelta(t, 1.0, features.DailyMedianUnits, 1e-9)
	assert.InDelta(t, 0.0, features.DailyStdUnits, 1e-9)

	assert.InDelta(t, 50.0, features.HistoricalPeakDailyUnits, 1e-9)
	assert.InDelta(t, 500.0, features.HistoricalPeakDailyRevenue, 1e-9)
	assert.Equal(t, time.January, features.PeakMonth)
	assert.InDelta(t, 50.0, features.PeakMonthAvgDailyUnits, 1e-9)

	assert.InDelta(t, 4.5, features.OutbreakEstimatedPeakUnits, 1e-9)
	assert.InDelta(t, 90.0, features.OutbreakEstimatedPeakRevenue, 1e-9)

	assert.Nil(t, features.InventoryHealth, "no stock data loaded")
	assert.Empty(t, features.Suppliers, "no supplier column")
}

func TestHealthEmergencyNoData(t *testing.T) {
	_, err := NewCalculator(fluFixture().Build(), nil).HealthEmergencyFeatures("Fragrance", asOf)
	assert.ErrorIs(t, err, common.ErrNoData)
}

func TestHealthEmergencyInventoryHealth(t *testing.T) {
	inventory := testutil.NewInventory().
		Stock("Baggot St", "OTC : Cold & Flu", "Lemsip", 20).
		Stock("Dundrum", "OTC : Cold & Flu", "Lemsip", 7).
		Stock("Baggot St", "Skincare", "Face Cream", 999).
		Build()

	features, err := NewCalculator(fluFixture().Build(), inventory).HealthEmergencyFeatures("OTC : Cold & Flu", asOf)
	require.NoError(t, err)

	health := features.InventoryHealth
	require.NotNil(t, health)
	assert.InDelta(t, 27.0, health.TotalCurrentStock, 1e-9, "other categories excluded")
	assert.InDelta(t, 1.0, health.NormalDailyConsumption, 1e-9)
	assert.InDelta(t, 4.5, health.SpikeDailyConsumption, 1e-9)

	require.NotNil(t, health.DaysOfSupplyNormal)
	assert.InDelta(t, 27.0, *health.DaysOfSupplyNormal, 1e-9)
	require.NotNil(t, health.DaysOfSupplyOutbreak)
	assert.InDelta(t, 6.0, *health.DaysOfSupplyOutbreak, 1e-9)
	assert.False(t, health.AlertNeeded, "six outbreak days clears the five-day floor")

	require.Contains(t, health.ByLocation, "Baggot St")
	baggot := health.ByLocation["Baggot St"]
	assert.InDelta(t, 20.0, baggot.Stock, 1e-9)
	require.NotNil(t, baggot.DaysSpike)
	assert.InDelta(t, 4.4, *baggot.DaysSpike, 1e-9)
}

func TestHealthEmergencyAlertNeeded(t *testing.T) {
	inventory := testutil.NewInventory().
		Stock("Baggot St", "OTC : Cold & Flu", "Lemsip", 9).
		Build()

	features, err := NewCalculator(fluFixture().Build(), inventory).HealthEmergencyFeatures("OTC : Cold & Flu", asOf)
	require.NoError(t, err)

	health := features.InventoryHealth
	require.NotNil(t, health)
	require.NotNil(t, health.DaysOfSupplyOutbreak)
	assert.InDelta(t, 2.0, *health.DaysOfSupplyOutbreak, 1e-9)
	assert.True(t, health.AlertNeeded)
}

func TestHealthEmergencySuppliers(t *testing.T) {
	sales := testutil.NewSalesBuilder().
		Add(testutil.Sale{Date: asOf.AddDays(-1), Location: "Baggot St", Category: "OTC : Cold & Flu", Product: "Lemsip", Supplier: "Uniphar", Revenue: 300}).
		Add(testutil.Sale{Date: asOf.AddDays(-1), Location: "Baggot St", Category: "OTC : Cold & Flu", Product: "Strepsils", Supplier: "United Drug", Revenue: 100}).
		Build()

	features, err := NewCalculator(sales, nil).HealthEmergencyFeatures("OTC : Cold & Flu", asOf)
	require.NoError(t, err)

	require.Len(t, features.Suppliers, 2)
	assert.Equal(t, "Uniphar", features.Suppliers[0].Supplier, "sorted by revenue share descending")
	assert.InDelta(t, 75.0, features.Suppliers[0].RevenuePercentage, 1e-9)
	assert.Equal(t, 1, features.Suppliers[0].ProductCount)
	assert.Equal(t, 3, features.Suppliers[0].TypicalLeadTimeDays)
	assert.InDelta(t, 25.0, features.Suppliers[1].RevenuePercentage, 1e-9)
}
