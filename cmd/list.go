package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"farness/internal/model"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List decisions",
	Long: `List decisions in the store, newest last.

Examples:
  farness list
  farness list --unscored
  farness list --pending`,
	RunE: runList,
}

func init() {
	listCmd.Flags().Bool("unscored", false, "only decisions without recorded outcomes")
	listCmd.Flags().Bool("pending", false, "only decided decisions past their review date")
	listCmd.MarkFlagsMutuallyExclusive("unscored", "pending")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	s := decisionStore()

	unscored, _ := cmd.Flags().GetBool("unscored")
	pending, _ := cmd.Flags().GetBool("pending")

	var (
		decisions []*model.Decision
		err       error
	)
	switch {
	case unscored:
		decisions, err = s.ListUnscored()
	case pending:
		decisions, err = s.ListPendingReview(time.Now().UTC())
	default:
		decisions, err = s.ListAll()
	}
	if err != nil {
		return eris.Wrap(err, "list: read store")
	}

	if len(decisions) == 0 {
		fmt.Println("No decisions.")
		return nil
	}

	printDecisionTable(decisions)
	return nil
}

func printDecisionTable(decisions []*model.Decision) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCREATED\tQUESTION")
	for _, d := range decisions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			shortID(d.ID), d.Status(), d.CreatedAt.Format("2006-01-02"), truncate(d.Question, 60))
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
