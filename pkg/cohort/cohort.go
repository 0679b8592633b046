// Package cohort drives the Trajectory Assembler over a whole cohort in
// fixed-size chunks, fanning patient assembly out across bounded worker
// goroutines while preserving index-ordered output, bounded memory, and
// cooperative cancellation.
package cohort

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/milmed-sim/castrain/pkg/clock"
	"github.com/milmed-sim/castrain/pkg/rngstream"
	"github.com/milmed-sim/castrain/pkg/sink"
	"github.com/milmed-sim/castrain/pkg/trajectory"
)

const defaultChunkSize = 1000

// ProgressSignal is emitted at chunk boundaries.
type ProgressSignal struct {
	JobID     string `json:"job_id,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// Summary is the single user-visible object produced on completion.
type Summary struct {
	JobID            string           `json:"job_id,omitempty"`
	TotalGenerated   int              `json:"total_generated"`
	DurationSeconds  float64          `json:"duration_seconds"`
	ProgressCurve    []ProgressSignal `json:"progress_curve"`
	SamplingErrors   int              `json:"sampling_errors"`
	PathLengthErrors int              `json:"path_length_errors"`
	Status           string           `json:"status"` // completed, failed, cancelled
	Error            string           `json:"error,omitempty"`
}

// Status values for Summary.Status.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Generator drives the Assembler over TotalPatients items in chunks,
// streaming each chunk to a Sink in index order.
type Generator struct {
	assembler     *trajectory.Assembler
	sink          sink.Sink
	totalPatients int
	rootSeed      int64
	chunkSize     int
	workers       int
	clk           clock.Clock
	logger        *slog.Logger
	jobID         string
	onProgress    func(ProgressSignal)
}

// Option configures a Generator.
type Option func(*Generator)

func WithChunkSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.chunkSize = n
		}
	}
}

func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(g *Generator) { g.clk = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

func WithJobID(id string) Option {
	return func(g *Generator) { g.jobID = id }
}

func WithProgressCallback(fn func(ProgressSignal)) Option {
	return func(g *Generator) { g.onProgress = fn }
}

// NewGenerator builds a Generator with sensible defaults: chunk size 1000,
// worker count bounded by hardware parallelism, a real clock, and a
// discard logger.
func NewGenerator(assembler *trajectory.Assembler, s sink.Sink, totalPatients int, rootSeed int64, opts ...Option) *Generator {
	g := &Generator{
		assembler:     assembler,
		sink:          s,
		totalPatients: totalPatients,
		rootSeed:      rootSeed,
		chunkSize:     defaultChunkSize,
		workers:       runtime.GOMAXPROCS(0),
		clk:           clock.Real(),
		logger:        slog.New(slog.NewTextHandler(discardWriter{}, nil)),
		jobID:         uuid.NewString(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.chunkSize < g.workers {
		g.workers = g.chunkSize
	}
	return g
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// chunkResult is one worker's output, tagged with its cohort index so the
// coordinator can place it at the right slot regardless of completion
// order.
type chunkResult struct {
	index  int
	record trajectory.Record
	diag   trajectory.Diagnostics
	err    error
}

// Run generates the cohort, returning a Summary describing the outcome.
// Run itself never returns an error for recoverable conditions
// (SamplingError, PathLengthError); it returns an error only for a fatal
// SinkError or a failed patient assembly, and nil error with
// Summary.Status == "cancelled" for cooperative cancellation.
func (g *Generator) Run(ctx context.Context) (*Summary, error) {
	start := g.clk.Now()
	rootStream := rngstream.New(g.rootSeed)

	summary := &Summary{JobID: g.jobID}
	completed := 0

	for chunkStart := 0; chunkStart < g.totalPatients; chunkStart += g.chunkSize {
		select {
		case <-ctx.Done():
			summary.Status = StatusCancelled
			g.finalizeAndReturn(summary, start, completed)
			return summary, nil
		default:
		}

		chunkEnd := chunkStart + g.chunkSize
		if chunkEnd > g.totalPatients {
			chunkEnd = g.totalPatients
		}

		results, err := g.runChunk(ctx, rootStream, chunkStart, chunkEnd)
		if err != nil {
			summary.Status = StatusFailed
			summary.Error = err.Error()
			_ = g.sink.Finalize()
			summary.DurationSeconds = g.clk.Since(start).Seconds()
			return summary, err
		}

		for _, r := range results {
			if err := g.sink.Append(r.record); err != nil {
				summary.Status = StatusFailed
				summary.Error = err.Error()
				_ = g.sink.Finalize()
				summary.DurationSeconds = g.clk.Since(start).Seconds()
				return summary, err
			}
			summary.SamplingErrors += r.diag.SamplingErrors
			summary.PathLengthErrors += r.diag.PathLengthErrors
			completed++
		}

		if err := g.sink.Flush(); err != nil {
			summary.Status = StatusFailed
			summary.Error = err.Error()
			_ = g.sink.Finalize()
			summary.DurationSeconds = g.clk.Since(start).Seconds()
			return summary, err
		}

		progress := ProgressSignal{
			JobID:     g.jobID,
			Completed: completed,
			Total:     g.totalPatients,
			Percent:   percentOf(completed, g.totalPatients),
		}
		summary.ProgressCurve = append(summary.ProgressCurve, progress)
		if g.onProgress != nil {
			g.onProgress(progress)
		}
	}

	summary.Status = StatusCompleted
	g.finalizeAndReturn(summary, start, completed)
	return summary, nil
}

func (g *Generator) finalizeAndReturn(summary *Summary, start time.Time, completed int) {
	_ = g.sink.Finalize()
	summary.TotalGenerated = completed
	summary.DurationSeconds = g.clk.Since(start).Seconds()
}

// runChunk fans the chunk's patient indices out across g.workers
// semaphore-bounded goroutines and collects results in index order.
func (g *Generator) runChunk(ctx context.Context, rootStream *rngstream.Stream, start, end int) ([]chunkResult, error) {
	n := end - start
	results := make([]chunkResult, n)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, g.workers)
	errCh := make(chan error, n)

	for i := start; i < end; i++ {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(index int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			record, diag, err := g.assembler.Assemble(rootStream.Child(index), index)
			if err != nil {
				errCh <- fmt.Errorf("patient %d: %w", index, err)
				return
			}
			results[index-start] = chunkResult{index: index, record: record, diag: diag}
		}(i)
	}

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}

	return results, nil
}

func percentOf(completed, total int) int {
	if total <= 0 {
		return 100
	}
	return completed * 100 / total
}
