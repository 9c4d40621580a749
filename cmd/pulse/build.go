package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciaranwalsh/retailpulse/internal/anomaly"
	"github.com/ciaranwalsh/retailpulse/internal/cli"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/pipeline"
)

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and cache daily feature bundles",
		Long: `Build daily feature bundles for a date or date range.

Each day is aggregated from the imported sales log, scored against the
window baselines, and written to the feature cache. Days already cached
are skipped unless --force is given.`,
		RunE: runBuild,
	}

	cmd.Flags().StringP("date", "d", "", "Single date to build (format: 2006-01-02, default: yesterday)")
	cmd.Flags().StringP("start", "s", "", "Range start date (format: 2006-01-02)")
	cmd.Flags().StringP("end", "e", "", "Range end date (format: 2006-01-02)")
	cmd.Flags().Bool("force", false, "Rebuild days that are already cached")

	_ = viper.BindPFlag("build.date", cmd.Flags().Lookup("date"))
	_ = viper.BindPFlag("build.start", cmd.Flags().Lookup("start"))
	_ = viper.BindPFlag("build.end", cmd.Flags().Lookup("end"))
	_ = viper.BindPFlag("build.force", cmd.Flags().Lookup("force"))

	return cmd
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sales, inventory, err := loadTables(ctx, store)
	if err != nil {
		return err
	}

	cache, err := openCache()
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithProgress(os.Stderr)}
	if viper.GetBool("build.force") {
		opts = append(opts, pipeline.WithForce())
	}
	builder := pipeline.NewBuilder(sales, inventory, cache, opts...)

	startFlag := viper.GetString("build.start")
	endFlag := viper.GetString("build.end")

	// Range mode when either range flag is set; single-date mode otherwise.
	if startFlag != "" || endFlag != "" {
		start, err := parseDateFlag(startFlag, model.Date{})
		if err != nil {
			return err
		}
		end, err := parseDateFlag(endFlag, model.Today())
		if err != nil {
			return err
		}
		if start.IsZero() {
			return fmt.Errorf("--start is required when building a range")
		}

		result, err := builder.BuildRange(ctx, start, end)
		if err != nil {
			return fmt.Errorf("failed to build range: %w", err)
		}

		slog.Info(cli.FormatSuccess("Build finished"),
			"built", result.Built,
			"skipped", result.Skipped,
			"empty", result.Empty)
		return nil
	}

	target, err := parseDateFlag(viper.GetString("build.date"), model.Today().AddDays(-1))
	if err != nil {
		return err
	}

	bundle, err := builder.BuildDate(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", target, err)
	}

	slog.Info(cli.FormatSuccess("Features built"),
		"date", target,
		"revenue", bundle.DailyTotals.TotalRevenue,
		"transactions", bundle.DailyTotals.TransactionCount)

	if bundle.Anomalies != nil && bundle.Anomalies.HasAnomaly {
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(cli.AlertIcon+" Anomaly check", anomaly.Report(bundle.Anomalies)))
	}
	return nil
}
