// Package clock provides a time abstraction so the cohort generator's
// elapsed-duration accounting can be driven deterministically in tests.
//
// In production, use Real() which wraps the standard time package.
// In tests, use NewFakeClock() to control elapsed time explicitly.
package clock

import "time"

// Clock provides the time operations the generator needs.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration
}
