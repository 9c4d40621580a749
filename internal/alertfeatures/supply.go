package alertfeatures

import (
	"fmt"
	"sort"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/stats"
)

// Criticality tiers for supplier revenue dependency.
const (
	CriticalityCritical = "CRITICAL"
	CriticalityHigh     = "HIGH"
	CriticalityMedium   = "MEDIUM"
	CriticalityLow      = "LOW"
)

// SupplierCriticality is one supplier's share of trailing-year revenue
// and its derived risk tier.
type SupplierCriticality struct {
	RevenueDependency    float64 `json:"revenue_dependency"`
	ProductCount         int     `json:"product_count"`
	CategoryCount        int     `json:"category_count"`
	MonthlySpendEstimate float64 `json:"monthly_spend_estimate"`
	CriticalityRank      string  `json:"criticality_rank"`
}

// CriticalProduct is a supplier product running low relative to its
// recent sell-through.
type CriticalProduct struct {
	Product      string  `json:"product"`
	CurrentStock float64 `json:"current_stock"`
	DailySales   float64 `json:"daily_sales"`
	DaysOfSupply float64 `json:"days_of_supply"`
}

// SupplierResilience summarizes how long a supplier's products last at
// current sell-through if deliveries stop today.
type SupplierResilience struct {
	TotalProducts    int               `json:"total_products"`
	AvgDaysOfSupply  float64           `json:"avg_days_of_supply"`
	MinDaysOfSupply  float64           `json:"min_days_of_supply"`
	CriticalProducts []CriticalProduct `json:"critical_products"`
}

// SupplyDisruptionFeatures is the read-model for supply-disruption
// alerts: which suppliers matter, and how exposed each one leaves us.
type SupplyDisruptionFeatures struct {
	AsOfDate              model.Date                     `json:"as_of_date"`
	SupplierCriticality   map[string]SupplierCriticality `json:"supplier_criticality"`
	SupplyChainResilience map[string]SupplierResilience  `json:"supply_chain_resilience,omitempty"`
}

// Type implements Features.
func (SupplyDisruptionFeatures) Type() AlertType { return AlertSupplyDisruption }

// SupplyDisruptionFeatures ranks suppliers over the trailing year ending
// at asOf. Suppliers below SupplierMaterialityShare of total revenue are
// excluded. Returns common.ErrMissingColumn when the sales source has no
// supplier column.
func (c *Calculator) SupplyDisruptionFeatures(asOf model.Date) (*SupplyDisruptionFeatures, error) {
	if !c.sales.Columns().HasSupplier {
		return nil, fmt.Errorf("supplier column: %w", common.ErrMissingColumn)
	}

	yearStart := asOf.AddYears(-1)
	yearSales := c.sales.Between(yearStart, asOf)

	type supplierAgg struct {
		revenue    float64
		products   map[string]struct{}
		categories map[string]struct{}
	}
	suppliers := make(map[string]*supplierAgg)
	var totalRevenue float64
	for _, r := range yearSales {
		totalRevenue += r.Revenue
		if r.Supplier == "" {
			continue
		}
		agg := suppliers[r.Supplier]
		if agg == nil {
			agg = &supplierAgg{
				products:   make(map[string]struct{}),
				categories: make(map[string]struct{}),
			}
			suppliers[r.Supplier] = agg
		}
		agg.revenue += r.Revenue
		agg.products[r.Product] = struct{}{}
		agg.categories[r.Category] = struct{}{}
	}

	criticality := make(map[string]SupplierCriticality)
	for supplier, agg := range suppliers {
		share := 0.0
		if totalRevenue > 0 {
			share = agg.revenue / totalRevenue
		}
		if share < SupplierMaterialityShare {
			continue
		}
		criticality[supplier] = SupplierCriticality{
			RevenueDependency:    stats.Round4(share),
			ProductCount:         len(agg.products),
			CategoryCount:        len(agg.categories),
			MonthlySpendEstimate: stats.Round2(agg.revenue / 12),
			CriticalityRank:      criticalityRank(share),
		}
	}

	features := &SupplyDisruptionFeatures{
		AsOfDate:            asOf,
		SupplierCriticality: criticality,
	}
	if c.inventory != nil {
		features.SupplyChainResilience = c.supplierResilience(asOf)
	}
	return features, nil
}

func criticalityRank(share float64) string {
	switch {
	case share > 0.15:
		return CriticalityCritical
	case share > 0.05:
		return CriticalityHigh
	case share > 0.02:
		return CriticalityMedium
	default:
		return CriticalityLow
	}
}

// supplierResilience joins each supplier's 30-day per-product sell-through
// with current network stock. Products with no stock rows count as zero
// stock; products with no recent sales are skipped because they have no
// measurable rate.
func (c *Calculator) supplierResilience(asOf model.Date) map[string]SupplierResilience {
	start := asOf.AddDays(-30)

	type productAgg struct {
		units float64
		days  map[model.Date]struct{}
	}
	type productKey struct {
		product  string
		supplier string
	}
	recent := make(map[productKey]*productAgg)
	for _, r := range c.sales.Between(start, asOf) {
		if r.Supplier == "" {
			continue
		}
		key := productKey{product: r.Product, supplier: r.Supplier}
		agg := recent[key]
		if agg == nil {
			agg = &productAgg{days: make(map[model.Date]struct{})}
			recent[key] = agg
		}
		agg.units += float64(r.Quantity)
		agg.days[r.Date] = struct{}{}
	}

	stockByProduct := make(map[string]float64)
	for _, r := range c.inventory.Rows() {
		stockByProduct[r.Product] += r.StockLevel
	}

	type productSupply struct {
		product      string
		stock        float64
		dailySales   float64
		daysOfSupply float64
	}
	bySupplier := make(map[string][]productSupply)
	for key, agg := range recent {
		dailySales := agg.units / float64(len(agg.days))
		if dailySales <= 0 {
			continue
		}
		stock := stockByProduct[key.product]
		bySupplier[key.supplier] = append(bySupplier[key.supplier], productSupply{
			product:      key.product,
			stock:        stock,
			dailySales:   dailySales,
			daysOfSupply: stock / dailySales,
		})
	}

	resilience := make(map[string]SupplierResilience, len(bySupplier))
	for supplier, products := range bySupplier {
		sort.Slice(products, func(i, j int) bool {
			if products[i].daysOfSupply != products[j].daysOfSupply {
				return products[i].daysOfSupply < products[j].daysOfSupply
			}
			return products[i].product < products[j].product
		})

		days := make([]float64, len(products))
		for i, p := range products {
			days[i] = p.daysOfSupply
		}

		critical := products
		if len(critical) > 5 {
			critical = critical[:5]
		}
		criticalOut := make([]CriticalProduct, len(critical))
		for i, p := range critical {
			criticalOut[i] = CriticalProduct{
				Product:      p.product,
				CurrentStock: p.stock,
				DailySales:   stats.Round2(p.dailySales),
				DaysOfSupply: stats.Round1(p.daysOfSupply),
			}
		}

		resilience[supplier] = SupplierResilience{
			TotalProducts:    len(products),
			AvgDaysOfSupply:  stats.Mean(days),
			MinDaysOfSupply:  stats.Min(days),
			CriticalProducts: criticalOut,
		}
	}
	return resilience
}
