package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ciaranwalsh/retailpulse/internal/dataset"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptyTable   = errors.New("table cannot be empty")
	ErrInvalidRow   = errors.New("invalid row")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSalesTable ensures a sales table is importable.
func validateSalesTable(table *dataset.SalesTable) error {
	if table == nil {
		return fmt.Errorf("%w: sales table", ErrNilParameter)
	}
	if table.Len() == 0 {
		return fmt.Errorf("%w: sales table", ErrEmptyTable)
	}
	for i, r := range table.Rows() {
		if r.Date.IsZero() {
			return fmt.Errorf("%w: sale at index %d missing date", ErrInvalidRow, i)
		}
		if r.Location == "" {
			return fmt.Errorf("%w: sale at index %d missing location", ErrInvalidRow, i)
		}
		if r.Product == "" {
			return fmt.Errorf("%w: sale at index %d missing product", ErrInvalidRow, i)
		}
	}
	return nil
}

// validateInventoryTable ensures an inventory snapshot is importable.
func validateInventoryTable(table *dataset.InventoryTable) error {
	if table == nil {
		return fmt.Errorf("%w: inventory table", ErrNilParameter)
	}
	if table.Len() == 0 {
		return fmt.Errorf("%w: inventory table", ErrEmptyTable)
	}
	for i, r := range table.Rows() {
		if r.Product == "" {
			return fmt.Errorf("%w: inventory at index %d missing product", ErrInvalidRow, i)
		}
	}
	return nil
}
