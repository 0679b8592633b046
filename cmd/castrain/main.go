package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// exitError carries the exit code spec.md assigns to each terminal
// condition: 0 success, 2 configuration-validation failure, 3 Sink I/O
// failure, 4 cancelled, 1 otherwise.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

var (
	verbose bool
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "castrain",
	Short: "Synthetic casualty cohort generator",
	Long: `castrain generates synthetic casualty cohorts for medical-planning
exercises: demographics, warfare-pattern injuries, triage classification,
and an evacuation trajectory from point of injury to a terminal outcome,
all reproducible from a single seed.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(reportCmd())
}

func setupLogger() *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	} else if verbose {
		level = slog.LevelInfo
	}
	return slog.New(NewCastrainHandler(os.Stdout, level))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ee *exitError
		if ok := asExitError(err, &ee); ok {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func asExitError(err error, target **exitError) bool {
	for err != nil {
		if ee, ok := err.(*exitError); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
