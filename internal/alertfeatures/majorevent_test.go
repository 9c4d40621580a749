package alertfeatures

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/testutil"
)

func TestMajorEventTrafficBaseline(t *testing.T) {
	d1 := asOf.AddDays(-2)
	d2 := asOf.AddDays(-1)
	sales := testutil.NewSalesBuilder().
		// Three transactions on the first day, one on the second.
		Add(testutil.Sale{Date: d1, SaleID: "A", Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 10}).
		Add(testutil.Sale{Date: d1, SaleID: "B", Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 10}).
		Add(testutil.Sale{Date: d1, SaleID: "C", Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 10}).
		Add(testutil.Sale{Date: d2, SaleID: "D", Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 10}).
		// Another branch's traffic must not leak in.
		Add(testutil.Sale{Date: d1, SaleID: "E", Location: "Dundrum", Category: "Skincare", Product: "Face Cream", Revenue: 10}).
		Build()

	features, err := NewCalculator(sales, nil).MajorEventFeatures("Baggot St", asOf)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, features.AvgTransactionsPerDay, 1e-9)
	assert.InDelta(t, 2.0, features.MedianTransactionsPerDay, 1e-9)
	assert.InDelta(t, 3.0, features.PeakDayTraffic, 1e-9)
	assert.InDelta(t, 1.0, features.SlowestDayTraffic, 1e-9)
	assert.InDelta(t, math.Sqrt2, features.StdTransactions, 1e-9)
	assert.InDelta(t, EventLiftMultiplier, features.HistoricalEventLift, 1e-9)
}

func TestMajorEventNoTraffic(t *testing.T) {
	sales := testutil.NewSalesBuilder().
		Add(testutil.Sale{Date: asOf, Location: "Dundrum", Category: "Skincare", Product: "Face Cream", Revenue: 10}).
		Build()

	_, err := NewCalculator(sales, nil).MajorEventFeatures("Baggot St", asOf)
	assert.ErrorIs(t, err, common.ErrNoData)
}

func TestMajorEventCategoryBaselines(t *testing.T) {
	sales := testutil.NewSalesBuilder().
		Add(testutil.Sale{Date: asOf.AddDays(-2), Location: "Baggot St", Category: "OTC : First Aid", Product: "Plasters", Revenue: 10}).
		Add(testutil.Sale{Date: asOf.AddDays(-1), Location: "Baggot St", Category: "OTC : First Aid", Product: "Plasters", Quantity: 3, Revenue: 30}).
		// Skincare is not event-relevant.
		Add(testutil.Sale{Date: asOf.AddDays(-1), Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 99}).
		Build()

	features, err := NewCalculator(sales, nil).MajorEventFeatures("Baggot St", asOf)
	require.NoError(t, err)

	require.Contains(t, features.EventRelevantCategories, "OTC : First Aid")
	assert.NotContains(t, features.EventRelevantCategories, "Skincare")

	baseline := features.EventRelevantCategories["OTC : First Aid"]
	assert.InDelta(t, 20.0, baseline.BaselineDailyRevenue, 1e-9)
	assert.InDelta(t, 2.0, baseline.BaselineDailyUnits, 1e-9)
	assert.InDelta(t, 30.0, baseline.PeakDailyRevenue, 1e-9)
	assert.InDelta(t, 3.0, baseline.PeakDailyUnits, 1e-9)
}

func TestMajorEventInventoryStatus(t *testing.T) {
	sales := testutil.NewSalesBuilder().
		Add(testutil.Sale{Date: asOf, Location: "Baggot St", Category: "OTC : First Aid", Product: "Plasters", Revenue: 10}).
		Build()
	inventory := testutil.NewInventory().
		Stock("Baggot St", "OTC : First Aid", "Plasters", 30).
		Stock("Baggot St", "OTC : First Aid", "Bandages", 12).
		Stock("Dundrum", "OTC : First Aid", "Plasters", 99).
		Build()

	features, err := NewCalculator(sales, inventory).MajorEventFeatures("Baggot St", asOf)
	require.NoError(t, err)

	require.Contains(t, features.InventoryStatus, "OTC : First Aid")
	status := features.InventoryStatus["OTC : First Aid"]
	assert.InDelta(t, 42.0, status.StockUnits, 1e-9, "other branches excluded")
	assert.Equal(t, 2, status.ProductCount)

	assert.NotContains(t, features.InventoryStatus, "OTC : Analgesics", "unstocked categories omitted")
}
