package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciaranwalsh/retailpulse/internal/anomaly"
	"github.com/ciaranwalsh/retailpulse/internal/cli"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show a cached day's features and anomaly report",
		RunE:  runReport,
	}

	cmd.Flags().StringP("date", "d", "", "Date to report (format: 2006-01-02, default: latest cached)")
	cmd.Flags().Bool("json", false, "Print the full feature bundle as JSON")

	_ = viper.BindPFlag("report.date", cmd.Flags().Lookup("date"))
	_ = viper.BindPFlag("report.json", cmd.Flags().Lookup("json"))

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}

	target, err := parseDateFlag(viper.GetString("report.date"), model.Date{})
	if err != nil {
		return err
	}
	if target.IsZero() {
		if target, err = cache.LatestDate(); err != nil {
			return err
		}
	}

	bundle, err := cache.Get(target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("report.json") {
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode bundle: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	totals := bundle.DailyTotals
	fmt.Fprintln(out, cli.StyleTitle(fmt.Sprintf("%s Daily features for %s", cli.ChartIcon, bundle.Date)))
	fmt.Fprintf(out, "Revenue: %.2f across %d transactions (%d units, avg ticket %.2f)\n",
		totals.TotalRevenue, totals.TransactionCount, totals.TotalUnits, totals.AvgTicket)
	fmt.Fprintf(out, "Assortment: %d products in %d categories\n",
		totals.UniqueProducts, totals.UniqueCategories)
	if totals.RefundValue != nil && totals.RefundPercentage != nil {
		fmt.Fprintf(out, "Refunds: %.2f (%.1f%% of revenue)\n", *totals.RefundValue, *totals.RefundPercentage)
	}
	if totals.TotalProfit != nil && totals.ProfitMargin != nil {
		fmt.Fprintf(out, "Profit: %.2f (%.1f%% margin)\n", *totals.TotalProfit, *totals.ProfitMargin)
	}
	if avg := bundle.HistoricalContext.SevenDayAverage; avg != nil {
		fmt.Fprintf(out, "7-day average revenue: %.2f\n", *avg)
	}
	if avg := bundle.HistoricalContext.ThirtyDayAverage; avg != nil {
		fmt.Fprintf(out, "30-day average revenue: %.2f\n", *avg)
	}

	fmt.Fprintln(out)
	if bundle.Anomalies == nil {
		fmt.Fprintln(out, cli.FormatInfo("No anomaly scoring recorded for this date"))
		return nil
	}
	fmt.Fprintln(out, cli.RenderBox(cli.AlertIcon+" Anomaly check", anomaly.Report(bundle.Anomalies)))
	return nil
}
