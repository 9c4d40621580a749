package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ciaranwalsh/retailpulse/internal/cli"
	"github.com/ciaranwalsh/retailpulse/internal/dataset"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import sales and inventory data from CSV exports",
		Long: `Import raw retail data into the local database.

Sales imports replace the stored sales log wholesale; inventory imports
replace the point-in-time stock snapshot. Dates in the source files are
read day-first (DD/MM/YYYY).`,
	}

	cmd.AddCommand(importSalesCmd())
	cmd.AddCommand(importInventoryCmd())
	return cmd
}

func importSalesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sales <file>",
		Short: "Import a sales transaction log CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			table, err := dataset.LoadSalesCSV(args[0])
			if err != nil {
				return fmt.Errorf("failed to load sales file: %w", err)
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ReplaceSales(ctx, table); err != nil {
				return fmt.Errorf("failed to store sales: %w", err)
			}

			cols := table.Columns()
			slog.Info(cli.FormatSuccess("Sales imported"),
				"rows", table.Len(),
				"dates", len(table.Dates()),
				"has_supplier", cols.HasSupplier,
				"has_profit", cols.HasProfit,
				"has_refund", cols.HasRefund)
			return nil
		},
	}
}

func importInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory <file>",
		Short: "Import an inventory snapshot CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			table, err := dataset.LoadInventoryCSV(args[0])
			if err != nil {
				return fmt.Errorf("failed to load inventory file: %w", err)
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ReplaceInventory(ctx, table); err != nil {
				return fmt.Errorf("failed to store inventory: %w", err)
			}

			slog.Info(cli.FormatSuccess("Inventory imported"), "rows", table.Len())
			return nil
		},
	}
}
