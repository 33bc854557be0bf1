package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List decisions due for outcome review",
	Long: `List decided decisions whose review date has passed but whose outcomes
have not been scored yet. Run 'farness score <id>' on each.`,
	RunE: runPending,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, _ []string) error {
	decisions, err := decisionStore().ListPendingReview(time.Now().UTC())
	if err != nil {
		return eris.Wrap(err, "pending: read store")
	}
	if len(decisions) == 0 {
		fmt.Println("Nothing pending review.")
		return nil
	}

	fmt.Printf("%d decision(s) due for review:\n\n", len(decisions))
	printDecisionTable(decisions)
	return nil
}
