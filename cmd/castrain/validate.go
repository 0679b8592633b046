package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/milmed-sim/castrain/pkg/markov"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <injuries.yaml> <fronts.yaml> [matrices.yaml]",
		Short: "Validate configuration documents without generating a cohort",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			matrixPath := ""
			if len(args) == 3 {
				matrixPath = args[2]
			}
			return runValidate(args[0], args[1], matrixPath)
		},
	}
	return cmd
}

func runValidate(injuriesPath, frontsPath, matrixPath string) error {
	logger := setupLogger()

	cfg, err := loadAndValidate(injuriesPath, frontsPath, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Injuries config version: %s\n", cfg.Injuries.ConfigVersion)
	fmt.Printf("Fronts config version:   %s\n", cfg.Fronts.ConfigVersion)
	fmt.Printf("Warfare scenario:        %s\n", cfg.Scenario.WarfareScenario)
	fmt.Printf("Total patients:          %d\n", cfg.Scenario.TotalPatients)
	fmt.Printf("Fronts:                  %d\n", len(cfg.Fronts.Fronts))
	for _, f := range cfg.Fronts.Fronts {
		fmt.Printf("  - %s (ratio %.2f, %d nations)\n", f.ID, f.Ratio, len(f.Nations))
	}

	if matrixPath != "" {
		data, err := os.ReadFile(matrixPath)
		if err != nil {
			return &exitError{2, fmt.Errorf("read transition matrix file: %w", err)}
		}
		doc, err := markov.ParseDocument(data)
		if err != nil {
			return &exitError{2, fmt.Errorf("parse transition matrix file: %w", err)}
		}
		if _, err := markov.NewChain(doc); err != nil {
			return &exitError{2, err}
		}
		fmt.Printf("Transition matrix:       %d facilities, all rows sum to 1 +/- 0.01\n", len(doc.BaseTransitions))
	}

	fmt.Println("Configuration is valid.")
	return nil
}
