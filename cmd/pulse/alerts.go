package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciaranwalsh/retailpulse/internal/alertfeatures"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Compute alert-specific feature read-models",
		Long: `Compute the specialized feature sets behind operational alerts.

Each subcommand answers one alert archetype's data questions from the
imported sales log and inventory snapshot, printing the result as JSON
for the downstream decision engine.`,
	}

	cmd.PersistentFlags().String("as-of", "", "Reference date (format: 2006-01-02, default: today)")
	_ = viper.BindPFlag("alerts.as_of", cmd.PersistentFlags().Lookup("as-of"))

	cmd.AddCommand(alertsEventCmd())
	cmd.AddCommand(alertsHealthCmd())
	cmd.AddCommand(alertsWeatherCmd())
	cmd.AddCommand(alertsSupplyCmd())
	cmd.AddCommand(alertsViralCmd())
	return cmd
}

func alertsEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "event <location>",
		Short: "Major-event features for a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlert(cmd, alertfeatures.AlertMajorEvent, alertfeatures.Params{Location: args[0]})
		},
	}
}

func alertsHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health <category>",
		Short: "Health-emergency features for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlert(cmd, alertfeatures.AlertHealthEmergency, alertfeatures.Params{Category: args[0]})
		},
	}
}

func alertsWeatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather <type>",
		Short: "Extreme-weather features (heatwave, cold_snap, flooding)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlert(cmd, alertfeatures.AlertWeatherExtreme,
				alertfeatures.Params{Weather: alertfeatures.WeatherType(args[0])})
		},
	}
}

func alertsSupplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Supply-disruption features across all suppliers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAlert(cmd, alertfeatures.AlertSupplyDisruption, alertfeatures.Params{})
		},
	}
}

func alertsViralCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "viral <keyword>",
		Short: "Viral-trend features for products matching a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlert(cmd, alertfeatures.AlertViralTrend, alertfeatures.Params{Keyword: args[0]})
		},
	}
}

func runAlert(cmd *cobra.Command, alertType alertfeatures.AlertType, params alertfeatures.Params) error {
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

	asOf, err := parseDateFlag(viper.GetString("alerts.as_of"), model.Today())
	if err != nil {
		return err
	}

	calc := alertfeatures.NewCalculator(sales, inventory)
	features, err := calc.Compute(alertType, params, asOf)
	if err != nil {
		return fmt.Errorf("failed to compute %s features: %w", alertType, err)
	}

	data, err := json.MarshalIndent(features, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
