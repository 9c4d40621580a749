package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciaranwalsh/retailpulse/internal/cli"
	"github.com/ciaranwalsh/retailpulse/internal/featurecache"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the feature cache",
	}

	cmd.AddCommand(cacheStatsCmd())
	cmd.AddCommand(cacheCleanCmd())
	cmd.AddCommand(cacheExportCmd())
	return cmd
}

func cacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache contents and size",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := openCache()
			if err != nil {
				return err
			}

			stats, err := cache.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.StyleTitle(cli.CacheIcon+" Feature cache"))
			fmt.Fprintf(out, "Directory: %s\n", cache.Dir())
			fmt.Fprintf(out, "Cached days: %d\n", stats.Count)
			if stats.Count > 0 {
				fmt.Fprintf(out, "Date range: %s to %s\n", stats.OldestDate, stats.NewestDate)
			}
			fmt.Fprintf(out, "Total size: %.1f KB\n", float64(stats.TotalSizeBytes)/1024)
			if !stats.HasBaselines {
				fmt.Fprintln(out, cli.FormatWarning("No baselines cached; the next build will recompute them"))
			}
			return nil
		},
	}
}

func cacheCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Evict cached days past the retention window",
		RunE: func(_ *cobra.Command, _ []string) error {
			cache, err := openCache()
			if err != nil {
				return err
			}

			retention := viper.GetInt("cache.retention_days")
			if retention <= 0 {
				retention = featurecache.DefaultRetentionDays
			}

			deleted, err := cache.EvictOlderThan(retention)
			if err != nil {
				return err
			}

			slog.Info(cli.FormatSuccess("Cache cleaned"),
				"deleted", deleted,
				"retention_days", retention)
			return nil
		},
	}

	cmd.Flags().Int("retention-days", featurecache.DefaultRetentionDays, "Days of cached features to keep")
	_ = viper.BindPFlag("cache.retention_days", cmd.Flags().Lookup("retention-days"))

	return cmd
}

func cacheExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export cached features to CSV or XLSX",
		Long: `Flatten every cached feature bundle into one row per day and write
the result to a file. The format is chosen with --format; the optional
--start and --end flags bound the exported date range.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache()
			if err != nil {
				return err
			}

			var start, end *model.Date
			if s, err := parseDateFlag(viper.GetString("export.start"), model.Date{}); err != nil {
				return err
			} else if !s.IsZero() {
				start = &s
			}
			if e, err := parseDateFlag(viper.GetString("export.end"), model.Date{}); err != nil {
				return err
			} else if !e.IsZero() {
				end = &e
			}

			var rows int
			switch format := viper.GetString("export.format"); format {
			case "csv":
				rows, err = cache.ExportCSV(args[0], start, end)
			case "xlsx":
				rows, err = cache.ExportXLSX(args[0], start, end)
			default:
				return fmt.Errorf("invalid export format %q (expected csv or xlsx)", format)
			}
			if err != nil {
				return err
			}

			slog.Info(cli.FormatSuccess("Export written"), "file", args[0], "rows", rows)
			return nil
		},
	}

	cmd.Flags().String("format", "csv", "Export format (csv, xlsx)")
	cmd.Flags().String("start", "", "First date to export (format: 2006-01-02)")
	cmd.Flags().String("end", "", "Last date to export (format: 2006-01-02)")

	_ = viper.BindPFlag("export.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("export.start", cmd.Flags().Lookup("start"))
	_ = viper.BindPFlag("export.end", cmd.Flags().Lookup("end"))

	return cmd
}
