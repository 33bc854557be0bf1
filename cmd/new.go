package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"farness/internal/model"
)

var newCmd = &cobra.Command{
	Use:   "new <question>",
	Short: "Create a new decision",
	Long: `Create a new open decision. Attach KPIs, options, and forecasts
afterwards with 'kpi add', 'option add', and 'forecast set'.

Examples:
  farness new "Should we rewrite the billing service?"
  farness new "Hire candidate A or B?" --context "Backfill for the platform team"`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	newCmd.Flags().String("context", "", "background context for the decision")
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	context, _ := cmd.Flags().GetString("context")

	d := model.NewDecision(args[0], context)
	if err := decisionStore().Save(d); err != nil {
		return eris.Wrap(err, "new: save decision")
	}

	zap.L().Debug("decision created", zap.String("id", d.ID))
	fmt.Printf("Created decision %s\n", shortID(d.ID))
	fmt.Printf("  %s\n", d.Question)
	return nil
}
