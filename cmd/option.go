package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"farness/internal/model"
)

var optionCmd = &cobra.Command{
	Use:   "option",
	Short: "Manage options on a decision",
}

var optionAddCmd = &cobra.Command{
	Use:   "add <decision-id> <name>",
	Short: "Attach a candidate option to a decision",
	Long: `Attach a candidate option. Forecasts are added per option and KPI
with 'forecast set'.

Examples:
  farness option add 3fa8 "rewrite in place"
  farness option add 3fa8 "incremental strangler" --description "Route by endpoint"`,
	Args: cobra.ExactArgs(2),
	RunE: runOptionAdd,
}

func init() {
	optionAddCmd.Flags().String("description", "", "what the option entails")

	optionCmd.AddCommand(optionAddCmd)
	rootCmd.AddCommand(optionCmd)
}

func runOptionAdd(cmd *cobra.Command, args []string) error {
	s := decisionStore()
	d, err := lookupDecision(s, args[0])
	if err != nil {
		return err
	}

	description, _ := cmd.Flags().GetString("description")
	if err := d.AddOption(model.NewOption(args[1], description)); err != nil {
		return err
	}
	if err := s.Update(d); err != nil {
		return eris.Wrap(err, "option: update decision")
	}

	fmt.Printf("Added option %q to %s\n", args[1], shortID(d.ID))
	return nil
}
