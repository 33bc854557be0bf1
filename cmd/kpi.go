package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"farness/internal/model"
)

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Manage KPIs on a decision",
}

var kpiAddCmd = &cobra.Command{
	Use:   "add <decision-id> <name>",
	Short: "Attach a KPI to a decision",
	Long: `Attach a named, weighted KPI to a decision. Forecasts are keyed by KPI
name, so names must be unique within the decision.

Examples:
  farness kpi add 3fa8 "monthly revenue" --unit "$" --target 50000 --weight 2
  farness kpi add 3fa8 "team morale" --description "1-10 self-reported"`,
	Args: cobra.ExactArgs(2),
	RunE: runKPIAdd,
}

func init() {
	f := kpiAddCmd.Flags()
	f.String("description", "", "what the KPI measures")
	f.String("unit", "", "unit of measurement (e.g. $, %, days)")
	f.Float64("target", 0, "target value to aim for")
	f.Float64("weight", model.DefaultKPIWeight, "relative weight in scoring")

	kpiCmd.AddCommand(kpiAddCmd)
	rootCmd.AddCommand(kpiCmd)
}

func runKPIAdd(cmd *cobra.Command, args []string) error {
	s := decisionStore()
	d, err := lookupDecision(s, args[0])
	if err != nil {
		return err
	}

	description, _ := cmd.Flags().GetString("description")
	unit, _ := cmd.Flags().GetString("unit")
	weight, _ := cmd.Flags().GetFloat64("weight")

	k := model.KPI{
		Name:        args[1],
		Description: description,
		Unit:        unit,
		Weight:      weight,
	}
	if cmd.Flags().Changed("target") {
		target, _ := cmd.Flags().GetFloat64("target")
		k.Target = &target
	}

	if err := d.AddKPI(k); err != nil {
		return err
	}
	if err := s.Update(d); err != nil {
		return eris.Wrap(err, "kpi: update decision")
	}

	fmt.Printf("Added KPI %q to %s (weight %g)\n", k.Name, shortID(d.ID), k.Weight)
	return nil
}
