package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"farness/internal/calibration"
)

var scoreCmd = &cobra.Command{
	Use:   "score <decision-id>",
	Short: "Record actual outcomes for a decided decision",
	Long: `Record what actually happened, KPI by KPI, and score the forecasts
against it. Scoring is terminal: outcomes are recorded exactly once.
Leave an entry blank to skip a KPI with no observable actual.

Prints the per-KPI forecast errors and the refreshed calibration
summary afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	s := decisionStore()
	d, err := lookupDecision(s, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Scoring %s: %s\n", shortID(d.ID), d.Question)
	if d.ChosenOption != "" {
		fmt.Printf("Chosen option: %q\n\n", d.ChosenOption)
	}

	reader := bufio.NewReader(os.Stdin)
	outcomes := make(map[string]float64, len(d.KPIs))
	for _, k := range d.KPIs {
		prompt := fmt.Sprintf("Actual for %s", k.Name)
		if k.Unit != "" {
			prompt += fmt.Sprintf(" (%s)", k.Unit)
		}
		value, entered, err := readFloat(reader, prompt+": ")
		if err != nil {
			return err
		}
		if entered {
			outcomes[k.Name] = value
		}
	}

	fmt.Print("Reflections (optional): ")
	reflections, _ := reader.ReadString('\n')
	reflections = strings.TrimSpace(reflections)

	if err := d.Score(outcomes, reflections); err != nil {
		return err
	}
	if err := s.Update(d); err != nil {
		return eris.Wrap(err, "score: update decision")
	}

	fmt.Println("\nForecast vs actual:")
	for _, pair := range calibration.Pairs(d) {
		inCI := "outside CI"
		if pair.InInterval() {
			inCI = "in CI"
		}
		fmt.Printf("  %s: forecast %g, actual %g, error %+g (%s)\n",
			pair.KPI, pair.Forecast.PointEstimate, pair.Actual, pair.Error(), inCI)
	}

	all, err := s.ListAll()
	if err != nil {
		return eris.Wrap(err, "score: read store")
	}
	fmt.Println()
	printCalibrationSummary(calibration.Summarize(all))
	return nil
}

// readFloat prompts until it gets a number or a blank line. Blank means the
// KPI has no observable actual and is skipped.
func readFloat(reader *bufio.Reader, prompt string) (float64, bool, error) {
	for {
		fmt.Print(prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return 0, false, eris.Wrap(err, "score: read input")
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return 0, false, nil
		}
		value, err := strconv.ParseFloat(line, 64)
		if err == nil {
			return value, true, nil
		}
		fmt.Printf("Not a number: %q\n", line)
	}
}
