// Package dataset holds the raw transaction and inventory tables in
// memory and provides date-indexed access to them. The tables are
// immutable once built; every transform downstream works from these
// snapshots.
package dataset

import (
	"sort"

	"github.com/ciaranwalsh/retailpulse/internal/model"
)

// Columns records which optional columns were present in the source sales
// table. Presence is a table-level fact: a missing column means the
// dependent features are omitted entirely, never zero-filled.
type Columns struct {
	HasSupplier bool
	HasProfit   bool
	HasDiscount bool
	HasRefund   bool
}

// SalesTable is the in-memory sales transaction log, indexed by date.
type SalesTable struct {
	rows    []model.SaleRecord
	byDate  map[model.Date][]int
	columns Columns
}

// NewSalesTable builds a date-indexed table over rows. The rows slice is
// retained; callers must not mutate it afterwards.
func NewSalesTable(rows []model.SaleRecord, columns Columns) *SalesTable {
	byDate := make(map[model.Date][]int)
	for i, r := range rows {
		byDate[r.Date] = append(byDate[r.Date], i)
	}
	return &SalesTable{rows: rows, byDate: byDate, columns: columns}
}

// Len returns the number of line items in the table.
func (t *SalesTable) Len() int {
	return len(t.rows)
}

// Columns reports which optional columns the source carried.
func (t *SalesTable) Columns() Columns {
	return t.columns
}

// ForDate returns all line items recorded on a single date.
func (t *SalesTable) ForDate(d model.Date) []model.SaleRecord {
	idx := t.byDate[d]
	if len(idx) == 0 {
		return nil
	}
	out := make([]model.SaleRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.rows[i])
	}
	return out
}

// Between returns all line items with start <= date <= end.
func (t *SalesTable) Between(start, end model.Date) []model.SaleRecord {
	var out []model.SaleRecord
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, t.ForDate(d)...)
	}
	return out
}

// Dates returns every date with at least one line item, sorted ascending.
func (t *SalesTable) Dates() []model.Date {
	dates := make([]model.Date, 0, len(t.byDate))
	for d := range t.byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Rows returns the full table. The result must be treated as read-only.
func (t *SalesTable) Rows() []model.SaleRecord {
	return t.rows
}

// InventoryTable is the in-memory point-in-time stock snapshot.
type InventoryTable struct {
	rows []model.InventoryRecord
}

// NewInventoryTable wraps rows in an InventoryTable. The slice is
// retained; callers must not mutate it afterwards.
func NewInventoryTable(rows []model.InventoryRecord) *InventoryTable {
	return &InventoryTable{rows: rows}
}

// Len returns the number of snapshot rows.
func (t *InventoryTable) Len() int {
	return len(t.rows)
}

// Rows returns the full snapshot. The result must be treated as read-only.
func (t *InventoryTable) Rows() []model.InventoryRecord {
	return t.rows
}

// StockForLocation sums on-hand units across all products at a location.
func (t *InventoryTable) StockForLocation(location string) float64 {
	var total float64
	for _, r := range t.rows {
		if r.Location == location {
			total += r.StockLevel
		}
	}
	return total
}

// StockForCategory sums on-hand units across all locations for a category.
func (t *InventoryTable) StockForCategory(category string) float64 {
	var total float64
	for _, r := range t.rows {
		if r.Category == category {
			total += r.StockLevel
		}
	}
	return total
}

// StockForProduct sums on-hand units across all locations for a product.
func (t *InventoryTable) StockForProduct(product string) float64 {
	var total float64
	for _, r := range t.rows {
		if r.Product == product {
			total += r.StockLevel
		}
	}
	return total
}
