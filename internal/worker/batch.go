package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// LineFunc turns one input line into a value. It must be safe to call from
// several goroutines at once.
type LineFunc func(line string) interface{}

// LineJob applies a LineFunc to one line
type LineJob struct {
	Index int
	Line  string
	Fn    LineFunc
}

// Execute executes the line job
func (j *LineJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &LineResult{Index: j.Index, Error: err}
	}
	return &LineResult{Index: j.Index, Value: j.Fn(j.Line)}
}

// LineResult is the value computed for one line
type LineResult struct {
	Index int
	Value interface{}
	Error error
}

// GetError returns the error from the line result
func (r *LineResult) GetError() error {
	return r.Error
}

// Seq returns the index of the line
func (r *LineResult) Seq() int {
	return r.Index
}

// BatchProcessor runs a LineFunc over many lines and hands the results back
// in input order
type BatchProcessor struct {
	concurrency int
	batchSize   int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(concurrency, batchSize int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	if batchSize <= 0 {
		batchSize = 1024
	}
	return &BatchProcessor{
		concurrency: concurrency,
		batchSize:   batchSize,
	}
}

// ProcessLines computes fn for every line and calls emit with the results
// in line order. Lines are processed in batches so at most one batch of
// results is held in memory. With a single worker everything runs on the
// calling goroutine.
func (b *BatchProcessor) ProcessLines(ctx context.Context, lines []string, fn LineFunc, emit func(*LineResult) error) error {
	for start := 0; start < len(lines); start += b.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + b.batchSize
		if end > len(lines) {
			end = len(lines)
		}

		results, err := b.processBatch(ctx, lines[start:end], start, fn)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Error != nil {
				return fmt.Errorf("line %d: %w", r.Index+1, r.Error)
			}
			if err := emit(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *BatchProcessor) processBatch(ctx context.Context, lines []string, offset int, fn LineFunc) ([]*LineResult, error) {
	out := make([]*LineResult, 0, len(lines))

	if b.concurrency == 1 {
		for i, line := range lines {
			job := &LineJob{Index: offset + i, Line: line, Fn: fn}
			out = append(out, job.Execute(ctx).(*LineResult))
		}
		return out, nil
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, line := range lines {
		if !pool.Submit(&LineJob{Index: offset + i, Line: line, Fn: fn}) {
			pool.Shutdown()
			return nil, ctx.Err()
		}
	}

	for _, r := range pool.Wait() {
		out = append(out, r.(*LineResult))
	}
	if len(out) != len(lines) {
		// workers stopped early because ctx was cancelled
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("batch incomplete: %d of %d lines processed", len(out), len(lines))
	}
	return out, nil
}

// ReadLines reads a file and returns its non-empty lines, trimmed, in order
func ReadLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
