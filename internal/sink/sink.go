// Package sink writes newline-delimited gram output to files or stdout.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/gramify/internal/cache"
	"github.com/ppiankov/gramify/internal/rule"
)

// StdoutID identifies output written to standard output
const StdoutID = "-"

// Sink is one output stream
type Sink interface {
	// ID is the file path, or StdoutID
	ID() string
	WriteLine(line string) error
	Close() error
}

// Opener creates sinks, either files or views onto one shared writer
type Opener struct {
	shared *bufio.Writer
}

// NewFileOpener creates an opener that writes every sink to its own file
func NewFileOpener() *Opener {
	return &Opener{}
}

// NewSharedOpener creates an opener whose sinks all write to w (e.g. os.Stdout)
// through a single buffer, so lines from different sinks never interleave
func NewSharedOpener(w io.Writer) *Opener {
	return &Opener{shared: bufio.NewWriter(w)}
}

// Open creates the sink for path. Shared openers ignore path.
func (o *Opener) Open(path string) (Sink, error) {
	if o.shared != nil {
		return &writerSink{w: o.shared}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &fileSink{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

type fileSink struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

func (s *fileSink) ID() string { return s.path }

func (s *fileSink) WriteLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *fileSink) Close() error {
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	if flushErr != nil {
		return fmt.Errorf("flush %s: %w", s.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", s.path, closeErr)
	}
	return nil
}

// writerSink writes to a writer it does not own; Close only flushes
type writerSink struct {
	w *bufio.Writer
}

func (s *writerSink) ID() string { return StdoutID }

func (s *writerSink) WriteLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *writerSink) Close() error {
	return s.w.Flush()
}

// Dedup drops lines already written through it
type Dedup struct {
	Sink
	seen    cache.Seen
	Dropped int
}

// NewDedup wraps s so each distinct line is written once
func NewDedup(s Sink, seen cache.Seen) *Dedup {
	if seen == nil {
		seen = cache.NewMemorySeen()
	}
	return &Dedup{Sink: s, seen: seen}
}

// WriteLine writes line unless it was written before
func (d *Dedup) WriteLine(line string) error {
	if !d.seen.Mark(line) {
		d.Dropped++
		return nil
	}
	return d.Sink.WriteLine(line)
}

// Distinct returns the number of distinct lines written
func (d *Dedup) Distinct() int {
	return d.seen.Len()
}

// Close closes the wrapped sink and releases the seen-set
func (d *Dedup) Close() error {
	d.seen.Clear()
	return d.Sink.Close()
}

// Rules writes each line as a rule string instead of literal text
type Rules struct {
	Sink
	enc *rule.Encoder
}

// NewRules wraps s with a rule encoder
func NewRules(s Sink, enc *rule.Encoder) *Rules {
	return &Rules{Sink: s, enc: enc}
}

// WriteLine encodes line and writes the rule; empty lines are skipped
func (r *Rules) WriteLine(line string) error {
	if line == "" {
		return nil
	}
	return r.Sink.WriteLine(r.enc.Encode(line))
}

// Set holds named sinks in creation order
type Set struct {
	names []string
	sinks map[string]Sink
}

// NewSet creates an empty set
func NewSet() *Set {
	return &Set{sinks: make(map[string]Sink)}
}

// Add registers a sink under name, replacing nothing
func (s *Set) Add(name string, sink Sink) error {
	if _, exists := s.sinks[name]; exists {
		return fmt.Errorf("duplicate sink %q", name)
	}
	s.names = append(s.names, name)
	s.sinks[name] = sink
	return nil
}

// Get returns the sink registered under name
func (s *Set) Get(name string) Sink {
	return s.sinks[name]
}

// IDs returns the distinct output identifiers in creation order
func (s *Set) IDs() []string {
	var ids []string
	seen := make(map[string]bool)
	for _, name := range s.names {
		id := s.sinks[name].ID()
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// Duplicates returns the lines dropped by deduplicating sinks in the set
func (s *Set) Duplicates() int {
	n := 0
	for _, name := range s.names {
		if d, ok := s.sinks[name].(*Dedup); ok {
			n += d.Dropped
		}
	}
	return n
}

// Discard closes every sink and removes the files they created
func (s *Set) Discard() error {
	errs := []error{s.Close()}
	for _, id := range s.IDs() {
		if id == StdoutID {
			continue
		}
		if err := os.Remove(id); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors
func (s *Set) Close() error {
	var errs []error
	for _, name := range s.names {
		if err := s.sinks[name].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
