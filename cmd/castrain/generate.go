package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/milmed-sim/castrain/pkg/checkpoint"
	"github.com/milmed-sim/castrain/pkg/cohort"
	"github.com/milmed-sim/castrain/pkg/config"
	"github.com/milmed-sim/castrain/pkg/console"
	"github.com/milmed-sim/castrain/pkg/evac"
	"github.com/milmed-sim/castrain/pkg/markov"
	"github.com/milmed-sim/castrain/pkg/sink"
	"github.com/milmed-sim/castrain/pkg/trajectory"
)

func generateCmd() *cobra.Command {
	var (
		seed      int64
		chunkSize int
		workers   int
		output    string
	)

	cmd := &cobra.Command{
		Use:   "generate <injuries.yaml> <fronts.yaml> <matrices.yaml>",
		Short: "Generate a synthetic casualty cohort",
		Long: `Generate reads the injuries, fronts, and transition-matrix
configuration documents, validates them, then streams one patient record
per line to the output sink.

Examples:
  castrain generate injuries.yaml fronts.yaml matrices.yaml -o cohort.jsonl
  castrain generate injuries.yaml fronts.yaml matrices.yaml --seed 12345 --workers 8`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(args[0], args[1], args[2], seed, chunkSize, workers, output)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 = derive from current time)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "Patients generated per streamed chunk")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines per chunk (0 = GOMAXPROCS)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output JSON-lines path (default: stdout)")

	return cmd
}

func runGenerate(injuriesPath, frontsPath, matrixPath string, seed int64, chunkSize, workers int, output string) error {
	logger := setupLogger()
	con := console.Console{}

	cfg, err := loadAndValidate(injuriesPath, frontsPath, logger)
	if err != nil {
		return err
	}

	matrixBytes, err := os.ReadFile(matrixPath)
	if err != nil {
		return &exitError{2, fmt.Errorf("read transition matrix file: %w", err)}
	}
	doc, err := markov.ParseDocument(matrixBytes)
	if err != nil {
		return &exitError{2, fmt.Errorf("parse transition matrix file: %w", err)}
	}
	chain, err := markov.NewChain(doc)
	if err != nil {
		return &exitError{2, err}
	}
	evacModel, err := evac.NewModel(doc.EvacuationTimesRaw)
	if err != nil {
		return &exitError{2, err}
	}
	checkpointModel, err := checkpoint.NewModel(doc.MortalityCheckpoints)
	if err != nil {
		return &exitError{2, err}
	}

	fronts := make([]trajectory.FrontInput, len(cfg.Fronts.Fronts))
	for i, f := range cfg.Fronts.Fronts {
		nations := make([]trajectory.NationInput, len(f.Nations))
		for j, n := range f.Nations {
			nations[j] = trajectory.NationInput{Code: n.NationalityCode, Percentage: n.Percentage}
		}
		fronts[i] = trajectory.FrontInput{ID: f.ID, Name: f.Name, Ratio: f.Ratio, Nations: nations}
	}

	baseDate := time.Now().UTC()
	if cfg.Scenario.BaseDate != "" {
		if parsed, err := time.Parse("2006-01-02", cfg.Scenario.BaseDate); err == nil {
			baseDate = parsed
		}
	}

	assembler, err := trajectory.NewAssembler(
		fronts,
		cfg.Scenario.WarfareScenario,
		chain,
		evacModel,
		checkpointModel,
		cfg.Scenario.MassCasualty,
		cfg.Scenario.EnvironmentFlags,
		baseDate,
		cfg.Scenario.DaysOfFighting,
	)
	if err != nil {
		return &exitError{2, err}
	}

	var outSink sink.Sink
	if output == "" {
		outSink = sink.NewJSONLinesSink(os.Stdout)
	} else {
		f, err := os.Create(output)
		if err != nil {
			return &exitError{3, fmt.Errorf("create output file: %w", err)}
		}
		outSink = sink.NewJSONLinesSink(f)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	opts := []cohort.Option{
		cohort.WithChunkSize(chunkSize),
		cohort.WithLogger(logger),
	}
	if workers > 0 {
		opts = append(opts, cohort.WithWorkers(workers))
	}

	totalPatients := cfg.Scenario.TotalPatients
	con.PrintHeader(cfg.Scenario.WarfareScenario, totalPatients, seed)
	opts = append(opts, cohort.WithProgressCallback(func(p cohort.ProgressSignal) {
		con.PrintProgress(p)
	}))

	generator := cohort.NewGenerator(assembler, outSink, totalPatients, seed, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received interrupt, cancelling")
		cancel()
	}()

	summary, err := generator.Run(ctx)
	con.ClearProgress()
	if err != nil {
		var sinkErr *sink.Error
		if errors.As(err, &sinkErr) {
			return &exitError{3, err}
		}
		return &exitError{1, err}
	}

	con.PrintSummary(summary)

	switch summary.Status {
	case cohort.StatusCancelled:
		return &exitError{4, fmt.Errorf("generation cancelled after %d patients", summary.TotalGenerated)}
	case cohort.StatusFailed:
		return &exitError{1, fmt.Errorf("generation failed: %s", summary.Error)}
	}

	logger.Info("completed", slog.Int("total_generated", summary.TotalGenerated))
	return nil
}

func loadAndValidate(injuriesPath, frontsPath string, logger *slog.Logger) (*config.Config, error) {
	injuriesBytes, err := os.ReadFile(injuriesPath)
	if err != nil {
		return nil, &exitError{2, fmt.Errorf("read injuries config: %w", err)}
	}
	frontsBytes, err := os.ReadFile(frontsPath)
	if err != nil {
		return nil, &exitError{2, fmt.Errorf("read fronts config: %w", err)}
	}

	merged := append(append([]byte{}, injuriesBytes...), []byte("\n---\n")...)
	merged = append(merged, frontsBytes...)

	cfg, err := config.Parse(merged)
	if err != nil {
		return nil, &exitError{2, fmt.Errorf("parse configuration: %w", err)}
	}
	cfg.Defaults()

	result := cfg.Validate()
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if !result.IsValid() {
		for _, e := range result.Errors {
			logger.Error(e)
		}
		return nil, &exitError{2, fmt.Errorf("configuration validation failed with %d error(s)", len(result.Errors))}
	}

	logger.Info("loaded configuration", slog.String("injuries", injuriesPath), slog.String("fronts", frontsPath))
	return cfg, nil
}
