package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"farness/internal/model"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Manage forecasts on a decision",
}

var forecastSetCmd = &cobra.Command{
	Use:   "set <decision-id> <option> <kpi>",
	Short: "Set a forecast for an option on a KPI",
	Long: `Record a numeric forecast for one option x KPI pair: a point estimate
plus a confidence interval. Setting a forecast again for the same pair
replaces the previous one.

Examples:
  farness forecast set 3fa8 "rewrite in place" "monthly revenue" \
    --estimate 48000 --low 40000 --high 60000
  farness forecast set 3fa8 "incremental strangler" "team morale" \
    --estimate 7 --low 5 --high 9 --confidence 0.9 \
    --reasoning "Less big-bang risk, steady wins"`,
	Args: cobra.ExactArgs(3),
	RunE: runForecastSet,
}

func init() {
	f := forecastSetCmd.Flags()
	f.Float64("estimate", 0, "point estimate (required)")
	f.Float64("low", 0, "confidence interval lower bound (required)")
	f.Float64("high", 0, "confidence interval upper bound (required)")
	f.Float64("confidence", model.DefaultConfidenceLevel, "confidence level in (0, 1)")
	f.String("reasoning", "", "how the number was reached")
	f.Float64("base-rate", 0, "outside-view base rate, if one informed the estimate")
	f.String("base-rate-source", "", "where the base rate comes from")
	_ = forecastSetCmd.MarkFlagRequired("estimate")
	_ = forecastSetCmd.MarkFlagRequired("low")
	_ = forecastSetCmd.MarkFlagRequired("high")

	forecastCmd.AddCommand(forecastSetCmd)
	rootCmd.AddCommand(forecastCmd)
}

func runForecastSet(cmd *cobra.Command, args []string) error {
	s := decisionStore()
	d, err := lookupDecision(s, args[0])
	if err != nil {
		return err
	}

	estimate, _ := cmd.Flags().GetFloat64("estimate")
	low, _ := cmd.Flags().GetFloat64("low")
	high, _ := cmd.Flags().GetFloat64("high")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	reasoning, _ := cmd.Flags().GetString("reasoning")

	f := model.Forecast{
		PointEstimate:      estimate,
		ConfidenceInterval: model.Interval{Low: low, High: high},
		ConfidenceLevel:    confidence,
		Reasoning:          reasoning,
	}
	if cmd.Flags().Changed("base-rate") {
		baseRate, _ := cmd.Flags().GetFloat64("base-rate")
		f.BaseRate = &baseRate
		f.BaseRateSource, _ = cmd.Flags().GetString("base-rate-source")
	}

	option, kpi := args[1], args[2]
	if err := d.SetForecast(option, kpi, f); err != nil {
		return err
	}
	if err := s.Update(d); err != nil {
		return eris.Wrap(err, "forecast: update decision")
	}

	fmt.Printf("Forecast set on %s: %s x %s = %g [%g, %g] @ %g%%\n",
		shortID(d.ID), option, kpi, estimate, low, high, confidence*100)
	return nil
}
