package featurecache

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ciaranwalsh/retailpulse/internal/model"
)

// exportColumns is the stable flattened column order for exports: daily
// totals, selected historical context, then anomaly flags.
var exportColumns = []string{
	"date",
	"total_revenue",
	"total_units",
	"transaction_count",
	"line_items",
	"unique_products",
	"unique_categories",
	"avg_ticket",
	"refund_value",
	"refund_percentage",
	"total_profit",
	"profit_margin",
	"7_day_avg",
	"30_day_avg",
	"has_anomaly",
	"is_true_anomaly",
}

// ExportCSV flattens each cached bundle in the optional date range into
// one CSV row per date and returns the number of rows written. Nil range
// bounds mean unbounded.
func (c *Cache) ExportCSV(path string, start, end *model.Date) (int, error) {
	rows, err := c.exportRows(start, end)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(exportColumns); err != nil {
		return 0, fmt.Errorf("failed to write export header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush export: %w", err)
	}
	return len(rows), nil
}

// ExportXLSX writes the same flattened rows as ExportCSV into a single
// spreadsheet sheet and returns the number of rows written.
func (c *Cache) ExportXLSX(path string, start, end *model.Date) (int, error) {
	rows, err := c.exportRows(start, end)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Daily Features"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return 0, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("failed to save spreadsheet: %w", err)
	}
	return len(rows), nil
}

func (c *Cache) exportRows(start, end *model.Date) ([][]string, error) {
	dates, err := c.ListDates()
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, d := range dates {
		if start != nil && d.Before(*start) {
			continue
		}
		if end != nil && d.After(*end) {
			continue
		}
		bundle, err := c.Get(d)
		if err != nil {
			return nil, err
		}
		rows = append(rows, flattenBundle(bundle))
	}
	return rows, nil
}

func flattenBundle(b *model.FeatureBundle) []string {
	totals := b.DailyTotals
	row := []string{
		b.Date.String(),
		formatFloat(totals.TotalRevenue),
		strconv.Itoa(totals.TotalUnits),
		strconv.Itoa(totals.TransactionCount),
		strconv.Itoa(totals.LineItems),
		strconv.Itoa(totals.UniqueProducts),
		strconv.Itoa(totals.UniqueCategories),
		formatFloat(totals.AvgTicket),
		formatOptional(totals.RefundValue),
		formatOptional(totals.RefundPercentage),
		formatOptional(totals.TotalProfit),
		formatOptional(totals.ProfitMargin),
		formatOptional(b.HistoricalContext.SevenDayAverage),
		formatOptional(b.HistoricalContext.ThirtyDayAverage),
	}
	hasAnomaly, isTrue := false, false
	if b.Anomalies != nil {
		hasAnomaly = b.Anomalies.HasAnomaly
		isTrue = b.Anomalies.IsTrueAnomaly
	}
	return append(row, strconv.FormatBool(hasAnomaly), strconv.FormatBool(isTrue))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOptional renders a missing value as an empty cell, preserving the
// absent-vs-zero distinction in exports.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
