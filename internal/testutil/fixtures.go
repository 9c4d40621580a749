package testutil

import (
	"fmt"

	"github.com/ciaranwalsh/retailpulse/internal/dataset"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

// SalesBuilder accumulates sale records for a test scenario.
type SalesBuilder struct {
	rows    []model.SaleRecord
	columns dataset.Columns
	nextID  int
}

// NewSalesBuilder creates an empty builder. Optional columns default to
// absent and flip on the first time a builder method sets one.
func NewSalesBuilder() *SalesBuilder {
	return &SalesBuilder{nextID: 1}
}

// Sale is one line item for the builder. Zero-valued optional fields are
// fine; SaleID is generated when empty.
type Sale struct {
	Date     model.Date
	SaleID   string
	Location string
	Category string
	Product  string
	Supplier string
	Quantity int
	Revenue  float64
	Profit   float64
	Refund   float64
}

// Add appends one line item.
func (b *SalesBuilder) Add(s Sale) *SalesBuilder {
	if s.SaleID == "" {
		s.SaleID = fmt.Sprintf("TXN-%04d", b.nextID)
	}
	b.nextID++
	if s.Quantity == 0 {
		s.Quantity = 1
	}
	if s.Supplier != "" {
		b.columns.HasSupplier = true
	}
	b.rows = append(b.rows, model.SaleRecord{
		Date:     s.Date,
		SaleID:   s.SaleID,
		Location: s.Location,
		Category: s.Category,
		Product:  s.Product,
		Supplier: s.Supplier,
		Quantity: s.Quantity,
		Revenue:  s.Revenue,
		Profit:   s.Profit,
		Refund:   s.Refund,
	})
	return b
}

// AddDaily appends one line item per day for days consecutive days
// starting at start, each with the same location, category, product, and
// revenue. Useful for flat baseline histories.
func (b *SalesBuilder) AddDaily(start model.Date, days int, location, category, product string, revenue float64) *SalesBuilder {
	for i := 0; i < days; i++ {
		b.Add(Sale{
			Date:     start.AddDays(i),
			Location: location,
			Category: category,
			Product:  product,
			Revenue:  revenue,
		})
	}
	return b
}

// WithSupplierColumn marks the supplier column present even if no row
// names a supplier.
func (b *SalesBuilder) WithSupplierColumn() *SalesBuilder {
	b.columns.HasSupplier = true
	return b
}

// WithProfitColumn marks the profit column present.
func (b *SalesBuilder) WithProfitColumn() *SalesBuilder {
	b.columns.HasProfit = true
	return b
}

// WithRefundColumn marks the refund column present.
func (b *SalesBuilder) WithRefundColumn() *SalesBuilder {
	b.columns.HasRefund = true
	return b
}

// Build assembles the date-indexed sales table.
func (b *SalesBuilder) Build() *dataset.SalesTable {
	return dataset.NewSalesTable(b.rows, b.columns)
}

// Inventory builds an inventory snapshot from (location, category,
// product, stock) tuples.
type Inventory struct {
	rows []model.InventoryRecord
}

// NewInventory creates an empty inventory fixture.
func NewInventory() *Inventory {
	return &Inventory{}
}

// Stock adds one snapshot row.
func (f *Inventory) Stock(location, category, product string, units float64) *Inventory {
	f.rows = append(f.rows, model.InventoryRecord{
		Location:   location,
		Category:   category,
		Product:    product,
		StockLevel: units,
	})
	return f
}

// Build assembles the snapshot table.
func (f *Inventory) Build() *dataset.InventoryTable {
	return dataset.NewInventoryTable(f.rows)
}
