package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"farness/internal/model"
)

var decideCmd = &cobra.Command{
	Use:   "decide <decision-id> <option>",
	Short: "Record the chosen option",
	Long: `Record which option was chosen and schedule the outcome review. The
review date is when 'farness score' should be run against actuals.

Examples:
  farness decide 3fa8 "incremental strangler"
  farness decide 3fa8 "rewrite in place" --review-after 2160h`,
	Args: cobra.ExactArgs(2),
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().Duration("review-after", model.DefaultReviewAfter,
		"how long after deciding to review outcomes")
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	s := decisionStore()
	d, err := lookupDecision(s, args[0])
	if err != nil {
		return err
	}

	reviewAfter, _ := cmd.Flags().GetDuration("review-after")
	if err := d.Decide(args[1], reviewAfter); err != nil {
		return err
	}
	if err := s.Update(d); err != nil {
		return eris.Wrap(err, "decide: update decision")
	}

	fmt.Printf("Decided %s: %q\n", shortID(d.ID), d.ChosenOption)
	fmt.Printf("Review on %s (in %s)\n",
		d.ReviewAt.Format("2006-01-02"), formatDuration(d.ReviewAt.Sub(*d.DecidedAt)))
	return nil
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days >= 1 {
		return fmt.Sprintf("%d days", days)
	}
	return d.Round(time.Minute).String()
}
