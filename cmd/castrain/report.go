package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/milmed-sim/castrain/pkg/report"
	"github.com/milmed-sim/castrain/pkg/trajectory"
)

func reportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <cohort.jsonl>",
		Short: "Summarize a generated cohort's triage and outcome breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(args[0], format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func runReport(path, format string) error {
	f, err := os.Open(path)
	if err != nil {
		return &exitError{1, fmt.Errorf("open cohort file: %w", err)}
	}
	defer f.Close()

	var records []trajectory.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r trajectory.Record
		if err := json.Unmarshal(line, &r); err != nil {
			return &exitError{1, fmt.Errorf("parse cohort record: %w", err)}
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return &exitError{1, fmt.Errorf("read cohort file: %w", err)}
	}

	breakdown := report.Summarize(records)

	switch format {
	case "json":
		return report.WriteJSON(os.Stdout, breakdown)
	case "table":
		report.WriteTable(os.Stdout, breakdown)
		return nil
	default:
		return &exitError{1, fmt.Errorf("unsupported format %q, want table or json", format)}
	}
}
