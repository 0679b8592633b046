// Package sink defines the minimal output contract the core depends on:
// append one record, flush, finalize. Everything about durability,
// compression, encryption, or file splitting is the Sink implementation's
// concern, never the generator's.
package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/milmed-sim/castrain/pkg/trajectory"
)

// Error is a fatal Sink failure (append, flush, or finalize). The core
// stops the run, calls Finalize best-effort, and reports the failure
// upstream as a SinkError.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sink: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Sink is the only interface the generator depends on for output. The core
// never holds open file handles itself.
type Sink interface {
	Append(record trajectory.Record) error
	Flush() error
	Finalize() error
}

// JSONLinesSink writes one JSON object per line to an underlying writer,
// buffering writes and flushing on demand or when told to by the
// generator between chunks.
type JSONLinesSink struct {
	mu     sync.Mutex
	writer *bufio.Writer
	closer io.Closer // nil if the underlying writer doesn't need closing
	enc    *json.Encoder
}

// NewJSONLinesSink wraps w (and, if it implements io.Closer, closes it on
// Finalize).
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	buffered := bufio.NewWriter(w)
	s := &JSONLinesSink{
		writer: buffered,
		enc:    json.NewEncoder(buffered),
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Append writes one record as a JSON line.
func (s *JSONLinesSink) Append(record trajectory.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(record); err != nil {
		return &Error{Op: "append", Err: err}
	}
	return nil
}

// Flush pushes buffered bytes to the underlying writer.
func (s *JSONLinesSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Flush(); err != nil {
		return &Error{Op: "flush", Err: err}
	}
	return nil
}

// Finalize flushes and, if the underlying writer is closeable, closes it.
// Durability is guaranteed only after Finalize returns without error.
func (s *JSONLinesSink) Finalize() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			return &Error{Op: "finalize", Err: err}
		}
	}
	return nil
}

// MemorySink accumulates records in memory; used by tests.
type MemorySink struct {
	mu        sync.Mutex
	Records   []trajectory.Record
	Finalized bool
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(record trajectory.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = append(s.Records, record)
	return nil
}

func (s *MemorySink) Flush() error {
	return nil
}

func (s *MemorySink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Finalized = true
	return nil
}
