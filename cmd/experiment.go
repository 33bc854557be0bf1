package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"farness/internal/experiment"
	"farness/pkg/anthropic"
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Run and analyze framework experiments",
	Long: `Measure whether the structured forecasting framework improves LLM
decision advice. Each experiment runs the same scenarios under a naive
prompt and a framework prompt, then compares the responses.

  run        decision advice quality, scored against a fixed rubric
  stability  whether initial estimates survive disconfirming probes
  reframing  whether advice challenges the question's framing
  analyze    statistics over all stored decision-experiment scores
  cases      print the built-in scenario sets

Results are persisted to the experiment database so analysis can run
over trials accumulated across sessions.`,
}

var experimentRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the decision advice experiment",
	RunE:  runExperimentRun,
}

var experimentStabilityCmd = &cobra.Command{
	Use:   "stability",
	Short: "Run the estimate stability experiment",
	RunE:  runExperimentStability,
}

var experimentReframingCmd = &cobra.Command{
	Use:   "reframing",
	Short: "Run the reframing experiment",
	RunE:  runExperimentReframing,
}

var experimentAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze stored decision-experiment scores",
	RunE:  runExperimentAnalyze,
}

var experimentCasesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Print the built-in scenario sets",
	RunE:  runExperimentCases,
}

func init() {
	for _, c := range []*cobra.Command{experimentRunCmd, experimentStabilityCmd, experimentReframingCmd} {
		c.Flags().Int("trials", 0, "trials per condition (default from config)")
		c.Flags().Int64("seed", 0, "shuffle seed (default from config)")
		c.Flags().Bool("randomize", true, "randomize trial order")
	}
	experimentRunCmd.Flags().String("cases", "", "YAML case pack to run instead of the built-in set")

	experimentAnalyzeCmd.Flags().Float64("alpha", 0.05, "significance level for the primary hypothesis")
	experimentAnalyzeCmd.Flags().Bool("bonferroni", true, "Bonferroni-correct the secondary hypotheses")

	experimentCmd.AddCommand(experimentRunCmd, experimentStabilityCmd,
		experimentReframingCmd, experimentAnalyzeCmd, experimentCasesCmd)
	rootCmd.AddCommand(experimentCmd)
}

func experimentRunner() (*experiment.Runner, *experiment.ResultStore, error) {
	if cfg.Anthropic.Key == "" {
		return nil, nil, eris.New("experiment: anthropic.key is not configured (set FARNESS_ANTHROPIC_KEY)")
	}
	store, err := experiment.OpenResultStore(cfg.Experiment.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	client := anthropic.NewClient(cfg.Anthropic.Key)
	runner := experiment.NewRunner(client, store,
		cfg.Anthropic.Model, int64(cfg.Anthropic.MaxTokens), cfg.Anthropic.Temperature)
	return runner, store, nil
}

func experimentOptions(cmd *cobra.Command) experiment.Options {
	opts := experiment.Options{
		TrialsPerCondition: cfg.Experiment.Trials,
		Seed:               cfg.Experiment.Seed,
	}
	if v, _ := cmd.Flags().GetInt("trials"); v > 0 {
		opts.TrialsPerCondition = v
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	opts.RandomizeOrder, _ = cmd.Flags().GetBool("randomize")
	return opts
}

func runExperimentRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, store, err := experimentRunner()
	if err != nil {
		return err
	}
	defer store.Close()

	cases := experiment.DecisionCases()
	if path, _ := cmd.Flags().GetString("cases"); path != "" {
		cases, err = experiment.LoadDecisionCases(path)
		if err != nil {
			return err
		}
	}

	opts := experimentOptions(cmd)
	log := zap.L().With(zap.String("command", "experiment run"))
	log.Info("running decision experiment",
		zap.Int("cases", len(cases)),
		zap.Int("trials_per_condition", opts.TrialsPerCondition),
	)

	trials, scores, err := runner.RunDecisionExperiment(ctx, cases, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Completed %d trials.\n\n", len(trials))

	analysis, err := experiment.Analyze(scores, 0.05, true)
	if err != nil {
		return err
	}
	analysis.WriteTable(os.Stdout)
	return nil
}

func runExperimentStability(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, store, err := experimentRunner()
	if err != nil {
		return err
	}
	defer store.Close()

	cases := experiment.StabilityCases()
	results, err := runner.RunStabilityExperiment(ctx, cases, experimentOptions(cmd))
	if err != nil {
		return err
	}
	fmt.Printf("Completed %d stability trials.\n\n", len(results))

	printStabilityAnalysis(experiment.AnalyzeStability(results, cases))
	return nil
}

func runExperimentReframing(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, store, err := experimentRunner()
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := runner.RunReframingExperiment(ctx, experiment.ReframingCases(), experimentOptions(cmd))
	if err != nil {
		return err
	}
	fmt.Printf("Completed %d reframing trials.\n\n", len(results))

	analysis := experiment.AnalyzeReframing(results)
	payload, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return eris.Wrap(err, "experiment: marshal reframing analysis")
	}
	fmt.Println(string(payload))
	return nil
}

func runExperimentAnalyze(cmd *cobra.Command, _ []string) error {
	store, err := experiment.OpenResultStore(cfg.Experiment.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	scores, err := store.ListScores(cmd.Context())
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		fmt.Println("No stored scores. Run 'farness experiment run' first.")
		return nil
	}

	alpha, _ := cmd.Flags().GetFloat64("alpha")
	bonferroni, _ := cmd.Flags().GetBool("bonferroni")
	analysis, err := experiment.Analyze(scores, alpha, bonferroni)
	if err != nil {
		return err
	}
	analysis.WriteTable(os.Stdout)
	return nil
}

func runExperimentCases(cmd *cobra.Command, _ []string) error {
	fmt.Println("Decision cases:")
	for _, c := range experiment.DecisionCases() {
		fmt.Printf("  %-22s %s\n", c.ID, c.Name)
	}
	fmt.Println("\nStability cases:")
	for _, c := range experiment.StabilityCases() {
		fmt.Printf("  %-22s %s (%s)\n", c.ID, c.Name, c.EstimateUnit)
	}
	fmt.Println("\nReframing cases:")
	for _, c := range experiment.ReframingCases() {
		fmt.Printf("  %-22s %s\n", c.ID, c.Name)
	}
	return nil
}

func printStabilityAnalysis(a *experiment.StabilityAnalysis) {
	fmt.Printf("N (naive): %d, N (farness): %d\n\n", a.NNaive, a.NFarness)
	printStabilityGroup("naive", a.Naive)
	printStabilityGroup("farness", a.Farness)

	if a.Convergence != nil {
		fmt.Printf("Convergence ratio: %.2f\n", a.Convergence.MeanConvergenceRatio)
		fmt.Println(a.Convergence.Interpretation)
	}
}

func printStabilityGroup(name string, stats experiment.StabilityGroupStats) {
	fmt.Printf("%s:\n", name)
	if stats.MeanUpdateMagnitude != nil {
		fmt.Printf("  Mean update magnitude: %.2f\n", *stats.MeanUpdateMagnitude)
	}
	if stats.MeanRelativeUpdate != nil {
		fmt.Printf("  Mean relative update:  %.0f%%\n", *stats.MeanRelativeUpdate*100)
	}
	if stats.InitialCIRate != nil {
		fmt.Printf("  Initial CI rate:       %.0f%%\n", *stats.InitialCIRate*100)
	}
	if stats.CorrectDirectionRate != nil {
		fmt.Printf("  Correct direction:     %.0f%%\n", *stats.CorrectDirectionRate*100)
	}
	fmt.Println()
}
