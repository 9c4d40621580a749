package alertfeatures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciaranwalsh/retailpulse/internal/testutil"
)

func TestViralTrendNotFound(t *testing.T) {
	sales := testutil.NewSalesBuilder().
		Add(testutil.Sale{Date: asOf, Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 10}).
		Build()

	features, err := NewCalculator(sales, nil).ViralTrendFeatures("retinol", asOf)
	require.NoError(t, err, "an unmatched keyword is an answer, not an error")

	assert.False(t, features.Found)
	assert.Equal(t, "retinol", features.Keyword)
	assert.Zero(t, features.MatchingProductsCount)
	assert.Empty(t, features.Products)
}

func TestViralTrendMatching(t *testing.T) {
	sales := testutil.NewSalesBuilder().
		// Two recent trading days: 2 then 4 units, 10 then 20 euro.
		Add(testutil.Sale{Date: asOf.AddDays(-2), Location: "Baggot St", Category: "Skincare", Product: "Glow Serum", Quantity: 2, Revenue: 10}).
		Add(testutil.Sale{Date: asOf.AddDays(-1), Location: "Baggot St", Category: "Skincare", Product: "Glow Serum", Quantity: 4, Revenue: 20}).
		// Matches the keyword but only sold outside the 30-day window.
		Add(testutil.Sale{Date: asOf.AddDays(-60), Location: "Baggot St", Category: "Skincare", Product: "Glow Mask", Revenue: 5}).
		Add(testutil.Sale{Date: asOf.AddDays(-1), Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 99}).
		Build()

	features, err := NewCalculator(sales, nil).ViralTrendFeatures("GLOW", asOf)
	require.NoError(t, err)

	assert.True(t, features.Found)
	assert.Equal(t, 2, features.MatchingProductsCount, "match is case-insensitive over full history")
	require.Len(t, features.Products, 1, "products without recent sales carry no rate")

	product := features.Products[0]
	assert.Equal(t, "Glow Serum", product.Product)
	assert.InDelta(t, 3.0, product.DailySalesNormal, 1e-9)
	assert.InDelta(t, 15.0, product.DailyRevenueNormal, 1e-9)
	assert.Nil(t, product.CurrentStock, "no stock data loaded")
	assert.Nil(t, product.CanCapitalize)
}

func TestViralTrendStockPosition(t *testing.T) {
	sales := testutil.NewSalesBuilder().
		Add(testutil.Sale{Date: asOf.AddDays(-2), Location: "Baggot St", Category: "Skincare", Product: "Glow Serum", Quantity: 2, Revenue: 10}).
		Add(testutil.Sale{Date: asOf.AddDays(-1), Location: "Baggot St", Category: "Skincare", Product: "Glow Serum", Quantity: 4, Revenue: 20}).
		Build()
	inventory := testutil.NewInventory().
		Stock("Baggot St", "Skincare", "Glow Serum", 20).
		Stock("Dundrum", "Skincare", "Glow Serum", 10).
		Build()

	features, err := NewCalculator(sales, inventory).ViralTrendFeatures("glow", asOf)
	require.NoError(t, err)

	require.Len(t, features.Products, 1)
	product := features.Products[0]

	require.NotNil(t, product.CurrentStock)
	assert.InDelta(t, 30.0, *product.CurrentStock, 1e-9)
	require.NotNil(t, product.DaysOfSupply)
	assert.InDelta(t, 10.0, *product.DaysOfSupply, 1e-9)
	require.NotNil(t, product.DaysOfSupplySpike)
	assert.InDelta(t, 2.5, *product.DaysOfSupplySpike, 1e-9, "rate quadruples during the spike")
	require.NotNil(t, product.CanCapitalize)
	assert.False(t, *product.CanCapitalize, "under three spike days of cover")

	require.NotNil(t, product.StockedInLocations)
	assert.Equal(t, 2, *product.StockedInLocations)
	assert.ElementsMatch(t, []string{"Baggot St", "Dundrum"}, product.Locations)
}

func TestViralTrendCanCapitalize(t *testing.T) {
	sales := testutil.NewSalesBuilder().
		Add(testutil.Sale{Date: asOf.AddDays(-1), Location: "Baggot St", Category: "Skincare", Product: "Glow Serum", Quantity: 3, Revenue: 30}).
		Build()
	inventory := testutil.NewInventory().
		Stock("Baggot St", "Skincare", "Glow Serum", 48).
		Build()

	features, err := NewCalculator(sales, inventory).ViralTrendFeatures("glow", asOf)
	require.NoError(t, err)

	product := features.Products[0]
	require.NotNil(t, product.DaysOfSupplySpike)
	assert.InDelta(t, 4.0, *product.DaysOfSupplySpike, 1e-9)
	require.NotNil(t, product.CanCapitalize)
	assert.True(t, *product.CanCapitalize)
}

func TestViralTrendProductsSorted(t *testing.T) {
	sales := testutil.NewSalesBuilder().
		Add(testutil.Sale{Date: asOf.AddDays(-1), Location: "Baggot St", Category: "Skincare", Product: "Glow Serum B", Revenue: 10}).
		Add(testutil.Sale{Date: asOf.AddDays(-1), Location: "Baggot St", Category: "Skincare", Product: "Glow Serum A", Revenue: 10}).
		Build()

	features, err := NewCalculator(sales, nil).ViralTrendFeatures("glow", asOf)
	require.NoError(t, err)

	require.Len(t, features.Products, 2)
	assert.Equal(t, "Glow Serum A", features.Products[0].Product)
	assert.Equal(t, "Glow Serum B", features.Products[1].Product)
}
