package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"farness/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a decision from a JSON file",
	Long: `Import a full decision record authored outside the CLI. The file holds
one decision object in the same shape the store uses; it is validated
before saving, so malformed forecasts or dangling name references are
rejected up front.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return eris.Wrapf(err, "import: read %s", args[0])
	}

	var d model.Decision
	if err := json.Unmarshal(data, &d); err != nil {
		return eris.Wrapf(err, "import: parse %s", args[0])
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	if err := decisionStore().Save(&d); err != nil {
		return eris.Wrap(err, "import: save decision")
	}

	fmt.Printf("Imported decision %s\n", shortID(d.ID))
	fmt.Printf("  %s\n", d.Question)
	fmt.Printf("  %d KPIs, %d options\n", len(d.KPIs), len(d.Options))
	return nil
}
