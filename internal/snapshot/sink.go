package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink consumes snapshot records. Sinks are called only from the run loop
// and need not be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// FileSink writes the three text streams into a directory.
type FileSink struct {
	dir     string
	files   [len(streamInfo)]*os.File
	writers [len(streamInfo)]*bufio.Writer
}

// NewFileSink creates (or truncates) the stream files in dir, creating dir
// if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	s := &FileSink{dir: dir}
	for _, st := range Streams {
		f, err := os.Create(filepath.Join(dir, st.FileName()))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("create %s stream: %w", st, err)
		}
		s.files[st] = f
		s.writers[st] = bufio.NewWriter(f)
	}
	return s, nil
}

// Dir returns the output directory.
func (s *FileSink) Dir() string { return s.dir }

// Write appends rec's line to its stream.
func (s *FileSink) Write(_ context.Context, rec Record) error {
	if int(rec.Stream) >= len(s.writers) || s.writers[rec.Stream] == nil {
		return fmt.Errorf("write %s: stream not open", rec.Stream)
	}
	w := s.writers[rec.Stream]
	if _, err := w.WriteString(rec.Line()); err != nil {
		return fmt.Errorf("write %s: %w", rec.Stream, err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write %s: %w", rec.Stream, err)
	}
	return nil
}

// Close flushes and closes every stream file. Safe to call twice.
func (s *FileSink) Close() error {
	var errs []error
	for i, f := range s.files {
		if f == nil {
			continue
		}
		if w := s.writers[i]; w != nil {
			if err := w.Flush(); err != nil {
				errs = append(errs, fmt.Errorf("flush %s: %w", Stream(i), err))
			}
		}
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", Stream(i), err))
		}
		s.files[i] = nil
		s.writers[i] = nil
	}
	return errors.Join(errs...)
}

// MultiSink fans records out to several sinks in order.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks. Nil sinks are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Write forwards rec to every sink and stops at the first error.
func (m *MultiSink) Write(ctx context.Context, rec Record) error {
	for _, s := range m.sinks {
		if err := s.Write(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemorySink keeps records in memory. Safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
	closed  bool
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write stores rec.
func (m *MemorySink) Write(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("memory sink closed")
	}
	m.records = append(m.records, rec)
	return nil
}

// Close marks the sink closed.
func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Records returns a copy of everything written.
func (m *MemorySink) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

// Lines returns the text-stream lines written to st.
func (m *MemorySink) Lines(st Stream) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.records {
		if r.Stream == st {
			out = append(out, r.Line())
		}
	}
	return out
}

// Closed reports whether Close was called.
func (m *MemorySink) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
