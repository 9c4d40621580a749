package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

// Column headers as they appear in the retail system's CSV exports.
const (
	colSaleID     = "Sale ID"
	colSaleDate   = "Sale Date"
	colBranch     = "Branch Name"
	colDept       = "Dept Fullname"
	colProduct    = "Product"
	colQtySold    = "Qty Sold"
	colTurnover   = "Turnover"
	colSupplier   = "OrderList"
	colProfit     = "Profit"
	colDiscount   = "Discount"
	colRefund     = "Refund Value"
	colStockLevel = "Branch Stock Level"
	colTradePrice = "Trade Price"
	colRRP        = "RRP"
)

// LoadSalesCSV reads a sales export into a SalesTable, normalizing the
// day-first date column and recording which optional columns were present.
func LoadSalesCSV(path string) (*SalesTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadSales(f)
}

// ReadSales parses sales CSV content from r.
func ReadSales(r io.Reader) (*SalesTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read sales header: %w", err)
	}
	cols := indexColumns(header)

	for _, required := range []string{colSaleID, colSaleDate, colBranch, colDept, colProduct, colQtySold, colTurnover} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("sales table %q: %w", required, common.ErrMissingColumn)
		}
	}

	columns := Columns{
		HasSupplier: hasColumn(cols, colSupplier),
		HasProfit:   hasColumn(cols, colProfit),
		HasDiscount: hasColumn(cols, colDiscount),
		HasRefund:   hasColumn(cols, colRefund),
	}

	var rows []model.SaleRecord
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sales row %d: %w", line, err)
		}
		line++

		date, err := ParseDayFirst(field(record, cols, colSaleDate))
		if err != nil {
			return nil, fmt.Errorf("sales row %d: %w", line, err)
		}
		qty, err := parseInt(field(record, cols, colQtySold))
		if err != nil {
			return nil, fmt.Errorf("sales row %d quantity: %w", line, err)
		}
		revenue, err := parseFloat(field(record, cols, colTurnover))
		if err != nil {
			return nil, fmt.Errorf("sales row %d turnover: %w", line, err)
		}

		row := model.SaleRecord{
			Date:     date,
			SaleID:   field(record, cols, colSaleID),
			Location: field(record, cols, colBranch),
			Category: field(record, cols, colDept),
			Product:  field(record, cols, colProduct),
			Quantity: qty,
			Revenue:  revenue,
		}
		if columns.HasSupplier {
			row.Supplier = field(record, cols, colSupplier)
		}
		if columns.HasProfit {
			row.Profit, _ = parseFloat(field(record, cols, colProfit))
		}
		if columns.HasDiscount {
			row.Discount, _ = parseFloat(field(record, cols, colDiscount))
		}
		if columns.HasRefund {
			row.Refund, _ = parseFloat(field(record, cols, colRefund))
		}
		rows = append(rows, row)
	}

	return NewSalesTable(rows, columns), nil
}

// LoadInventoryCSV reads an inventory snapshot export.
func LoadInventoryCSV(path string) (*InventoryTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadInventory(f)
}

// ReadInventory parses inventory CSV content from r.
func ReadInventory(r io.Reader) (*InventoryTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory header: %w", err)
	}
	cols := indexColumns(header)

	for _, required := range []string{colBranch, colDept, colProduct, colStockLevel} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("inventory table %q: %w", required, common.ErrMissingColumn)
		}
	}

	var rows []model.InventoryRecord
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read inventory row %d: %w", line, err)
		}
		line++

		stock, err := parseFloat(field(record, cols, colStockLevel))
		if err != nil {
			return nil, fmt.Errorf("inventory row %d stock level: %w", line, err)
		}

		row := model.InventoryRecord{
			Location:   field(record, cols, colBranch),
			Category:   field(record, cols, colDept),
			Product:    field(record, cols, colProduct),
			StockLevel: stock,
		}
		if hasColumn(cols, colTradePrice) {
			row.TradePrice, _ = parseFloat(field(record, cols, colTradePrice))
		}
		if hasColumn(cols, colRRP) {
			row.RRP, _ = parseFloat(field(record, cols, colRRP))
		}
		rows = append(rows, row)
	}

	return NewInventoryTable(rows), nil
}

// indexColumns maps header names to positions, stripping the UTF-8 BOM
// the retail system prepends to its exports.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func hasColumn(cols map[string]int, name string) bool {
	_, ok := cols[name]
	return ok
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "€")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
