package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciaranwalsh/retailpulse/internal/anomaly"
	"github.com/ciaranwalsh/retailpulse/internal/cli"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

func baselinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baselines",
		Short: "Recompute and display baseline statistics",
		Long: `Recompute the rolling-window baseline statistics used for anomaly
scoring, persist them to the feature cache, and print a summary.`,
		RunE: runBaselines,
	}

	cmd.Flags().String("as-of", "", "Window end date (format: 2006-01-02, default: today)")
	cmd.Flags().Int("window", anomaly.DefaultWindowDays, "Baseline window in days")

	_ = viper.BindPFlag("baselines.as_of", cmd.Flags().Lookup("as-of"))
	_ = viper.BindPFlag("baselines.window", cmd.Flags().Lookup("window"))

	return cmd
}

func runBaselines(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sales, _, err := loadTables(ctx, store)
	if err != nil {
		return err
	}

	asOf, err := parseDateFlag(viper.GetString("baselines.as_of"), model.Today())
	if err != nil {
		return err
	}

	detector := anomaly.NewDetector(viper.GetInt("baselines.window"))
	baselines, err := detector.ComputeBaselines(sales, asOf)
	if err != nil {
		return fmt.Errorf("failed to compute baselines: %w", err)
	}

	cache, err := openCache()
	if err != nil {
		return err
	}
	if err := cache.PutBaselines(baselines); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Baselines (%d days ending %s)", baselines.WindowDays, baselines.CalculationDate)))
	fmt.Fprintf(out, "Total revenue: mean %.2f, std %.2f, median %.2f\n\n",
		baselines.TotalRevenue.Mean, baselines.TotalRevenue.Std, baselines.TotalRevenue.Median)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tMEAN\tSTD\tMEDIAN\tP95")
	for _, name := range sortedKeys(baselines.ByCategory) {
		b := baselines.ByCategory[name]
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\n", name, b.Mean, b.Std, b.Median, b.P95)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOCATION\tMEAN\tSTD\tMEDIAN")
	locations := make([]string, 0, len(baselines.ByLocation))
	for name := range baselines.ByLocation {
		locations = append(locations, name)
	}
	sort.Strings(locations)
	for _, name := range locations {
		b := baselines.ByLocation[name]
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\n", name, b.Mean, b.Std, b.Median)
	}
	return w.Flush()
}

func sortedKeys(m map[string]model.CategoryRevenueBaseline) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
