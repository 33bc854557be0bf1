package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"farness/internal/config"
	"farness/internal/model"
	"farness/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "farness",
	Short: "Forecasting as a harness for decision-making",
	Long: `Records decisions, forecasts outcomes per option across weighted KPIs,
scores forecasts against reality once outcomes are known, and tracks
forecasting calibration over time.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func decisionStore() *store.DecisionStore {
	return store.New(cfg.Store.Path)
}

// lookupDecision resolves an id or prefix, printing the candidate list when
// the prefix is ambiguous.
func lookupDecision(s *store.DecisionStore, id string) (*model.Decision, error) {
	d, err := s.Get(id)
	if err != nil {
		var ambiguous *store.AmbiguousIDError
		if errors.As(err, &ambiguous) {
			fmt.Printf("Prefix %q matches %d decisions:\n", ambiguous.Prefix, len(ambiguous.Candidates))
			for _, candidate := range ambiguous.Candidates {
				fmt.Printf("  %s\n", candidate)
			}
		}
		return nil, err
	}
	return d, nil
}

// shortID truncates a decision ID for table display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
