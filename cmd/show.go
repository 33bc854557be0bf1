package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"farness/internal/model"
)

var showCmd = &cobra.Command{
	Use:   "show <decision-id>",
	Short: "Show a decision in full",
	Long: `Show a decision: its KPIs, options, forecasts, normalized option
scores, and a per-KPI sensitivity breakdown. A unique ID prefix is
enough; ambiguous prefixes list the candidates.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	d, err := lookupDecision(decisionStore(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Decision %s  [%s]\n", d.ID, d.Status())
	fmt.Printf("  %s\n", d.Question)
	if d.Context != "" {
		fmt.Printf("  Context: %s\n", d.Context)
	}
	fmt.Printf("  Created: %s\n", d.CreatedAt.Format("2006-01-02 15:04"))
	if d.DecidedAt != nil {
		fmt.Printf("  Decided: %s -> %q\n", d.DecidedAt.Format("2006-01-02"), d.ChosenOption)
	}
	if d.ReviewAt != nil {
		fmt.Printf("  Review:  %s\n", d.ReviewAt.Format("2006-01-02"))
	}
	if d.ScoredAt != nil {
		fmt.Printf("  Scored:  %s\n", d.ScoredAt.Format("2006-01-02"))
	}

	if len(d.KPIs) > 0 {
		fmt.Println("\nKPIs:")
		tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tUNIT\tTARGET\tWEIGHT")
		for _, k := range d.KPIs {
			target := "-"
			if k.Target != nil {
				target = fmt.Sprintf("%g", *k.Target)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%g\n", k.Name, k.Unit, target, k.Weight)
		}
		tw.Flush()
	}

	if len(d.Options) > 0 {
		scores := d.OptionScores()
		fmt.Println("\nOptions:")
		for _, o := range d.Options {
			marker := " "
			if o.Name == d.ChosenOption {
				marker = "*"
			}
			fmt.Printf("%s %s  (score %.3f)\n", marker, o.Name, scores[o.Name])
			for _, k := range d.KPIs {
				f, ok := o.Forecasts[k.Name]
				if !ok {
					continue
				}
				fmt.Printf("    %s: %g [%g, %g] @ %g%%\n",
					k.Name, f.PointEstimate,
					f.ConfidenceInterval.Low, f.ConfidenceInterval.High,
					f.ConfidenceLevel*100)
			}
		}

		if best := d.BestOption(); best != nil {
			fmt.Printf("\nHighest scoring option: %s\n", best.Name)
		}
		printSensitivity(d)
	}

	if d.ScoredAt != nil {
		printOutcomes(d)
	}
	return nil
}

func printSensitivity(d *model.Decision) {
	winners := d.SensitivityAnalysis()
	if len(winners) == 0 {
		return
	}
	kpis := make([]string, 0, len(winners))
	for k := range winners {
		kpis = append(kpis, k)
	}
	sort.Strings(kpis)

	fmt.Println("\nSensitivity (winner per KPI on raw estimates):")
	for _, k := range kpis {
		fmt.Printf("  %s -> %s\n", k, winners[k])
	}
}

func printOutcomes(d *model.Decision) {
	fmt.Println("\nOutcomes:")
	chosen := d.Chosen()
	for _, k := range d.KPIs {
		actual, ok := d.ActualOutcomes[k.Name]
		if !ok {
			continue
		}
		line := fmt.Sprintf("  %s: actual %g", k.Name, actual)
		if chosen != nil {
			if f, ok := chosen.Forecasts[k.Name]; ok {
				line += fmt.Sprintf(" (forecast %g, error %+g)", f.PointEstimate, actual-f.PointEstimate)
			}
		}
		fmt.Println(line)
	}
	if d.Reflections != "" {
		fmt.Printf("\nReflections: %s\n", d.Reflections)
	}
}
