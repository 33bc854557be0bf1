package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"farness/internal/calibration"
)

var calibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "Show the forecasting calibration summary",
	Long: `Aggregate forecast accuracy across every scored decision: how often
actuals landed inside the stated confidence intervals, mean absolute
and relative errors, and whether the track record reads as over- or
underconfident.`,
	RunE: runCalibration,
}

func init() {
	rootCmd.AddCommand(calibrationCmd)
}

func runCalibration(cmd *cobra.Command, _ []string) error {
	all, err := decisionStore().ListAll()
	if err != nil {
		return eris.Wrap(err, "calibration: read store")
	}
	printCalibrationSummary(calibration.Summarize(all))
	return nil
}

func printCalibrationSummary(summary calibration.Summary) {
	fmt.Println("Calibration:")
	fmt.Printf("  Scored decisions: %d\n", summary.Decisions)
	fmt.Printf("  Forecasts:        %d\n", summary.Forecasts)
	if summary.Coverage != nil {
		fmt.Printf("  Coverage:         %.0f%%", *summary.Coverage*100)
		if summary.ExpectedCoverage != nil {
			fmt.Printf(" (stated %.0f%%)", *summary.ExpectedCoverage*100)
		}
		fmt.Println()
	}
	if summary.MeanAbsoluteError != nil {
		fmt.Printf("  Mean abs error:   %.2f\n", *summary.MeanAbsoluteError)
	}
	if summary.MeanRelativeError != nil {
		fmt.Printf("  Mean rel error:   %.0f%%\n", *summary.MeanRelativeError*100)
	}
	fmt.Printf("  %s\n", summary.Interpretation)
}
