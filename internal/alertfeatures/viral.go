package alertfeatures

import (
	"sort"
	"strings"

	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/stats"
)

// ViralProduct is one keyword-matched product's recent sell-through and
// stock position. Inventory fields are nil without stock data, and the
// spike projections additionally require a nonzero sales rate.
type ViralProduct struct {
	Product            string   `json:"product"`
	DailySalesNormal   float64  `json:"daily_sales_normal"`
	DailyRevenueNormal float64  `json:"daily_revenue_normal"`
	CurrentStock       *float64 `json:"current_stock,omitempty"`
	DaysOfSupply       *float64 `json:"days_of_supply,omitempty"`
	DaysOfSupplySpike  *float64 `json:"days_of_supply_at_4x_spike,omitempty"`
	CanCapitalize      *bool    `json:"can_capitalize,omitempty"`
	StockedInLocations *int     `json:"stocked_in_locations,omitempty"`
	Locations          []string `json:"locations,omitempty"`
}

// ViralTrendFeatures is the read-model for viral-trend alerts: can we
// meet a sudden demand spike for products matching a trending keyword?
type ViralTrendFeatures struct {
	Found                 bool           `json:"found"`
	Keyword               string         `json:"keyword"`
	AsOfDate              model.Date     `json:"as_of_date"`
	MatchingProductsCount int            `json:"matching_products_count"`
	Products              []ViralProduct `json:"products"`
}

// Type implements Features.
func (ViralTrendFeatures) Type() AlertType { return AlertViralTrend }

// ViralTrendFeatures searches product names for a case-insensitive
// keyword match across the full history, then measures each match's
// trailing-30-day sell-through ending at asOf. A keyword with no matches
// returns Found=false rather than an error. Matched products with no
// sales in the window are counted but omitted from Products.
func (c *Calculator) ViralTrendFeatures(keyword string, asOf model.Date) (*ViralTrendFeatures, error) {
	needle := strings.ToLower(keyword)
	matched := make(map[string]struct{})
	for _, r := range c.sales.Rows() {
		if strings.Contains(strings.ToLower(r.Product), needle) {
			matched[r.Product] = struct{}{}
		}
	}
	if len(matched) == 0 {
		return &ViralTrendFeatures{Found: false, Keyword: keyword, AsOfDate: asOf}, nil
	}

	type productAgg struct {
		units   float64
		revenue float64
		days    map[model.Date]struct{}
	}
	start := asOf.AddDays(-30)
	recent := make(map[string]*productAgg)
	for _, r := range c.sales.Between(start, asOf) {
		if _, ok := matched[r.Product]; !ok {
			continue
		}
		agg := recent[r.Product]
		if agg == nil {
			agg = &productAgg{days: make(map[model.Date]struct{})}
			recent[r.Product] = agg
		}
		agg.units += float64(r.Quantity)
		agg.revenue += r.Revenue
		agg.days[r.Date] = struct{}{}
	}

	features := &ViralTrendFeatures{
		Found:                 true,
		Keyword:               keyword,
		AsOfDate:              asOf,
		MatchingProductsCount: len(matched),
		Products:              make([]ViralProduct, 0, len(recent)),
	}

	products := make([]string, 0, len(recent))
	for product := range recent {
		products = append(products, product)
	}
	sort.Strings(products)

	for _, product := range products {
		agg := recent[product]
		dailySales := agg.units / float64(len(agg.days))
		entry := ViralProduct{
			Product:            product,
			DailySalesNormal:   stats.Round2(dailySales),
			DailyRevenueNormal: stats.Round2(agg.revenue / float64(len(agg.days))),
		}
		if c.inventory != nil {
			c.fillViralStock(&entry, product, dailySales)
		}
		features.Products = append(features.Products, entry)
	}
	return features, nil
}

func (c *Calculator) fillViralStock(entry *ViralProduct, product string, dailySales float64) {
	var stock float64
	var locations []string
	for _, r := range c.inventory.Rows() {
		if r.Product != product {
			continue
		}
		stock += r.StockLevel
		locations = append(locations, r.Location)
	}

	entry.CurrentStock = ptr(stock)
	if dailySales > 0 {
		entry.DaysOfSupply = ptr(stats.Round1(stock / dailySales))
		spikeDays := stats.Round1(stock / (dailySales * ViralSpikeMultiplier))
		entry.DaysOfSupplySpike = ptr(spikeDays)
		canCapitalize := spikeDays > ViralCapitalizeDays
		entry.CanCapitalize = &canCapitalize
	}

	count := len(locations)
	entry.StockedInLocations = &count
	entry.Locations = locations
}
