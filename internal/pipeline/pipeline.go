package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/gramify/internal/model"
	"github.com/ppiankov/gramify/internal/sink"
	"github.com/ppiankov/gramify/internal/worker"
	"golang.org/x/time/rate"
)

// ErrInputUnavailable is returned when the input lines cannot be read
var ErrInputUnavailable = errors.New("input unavailable")

// Pipeline orchestrates reading lines, extracting grams and writing sinks
type Pipeline struct {
	config *model.Config
	logger *slog.Logger

	// Stdout receives output when config.Output.Stdout is set
	Stdout io.Writer

	progressInterval time.Duration
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		config:           cfg,
		logger:           logger,
		Stdout:           os.Stdout,
		progressInterval: 2 * time.Second,
	}
}

// Result describes what one mode produced
type Result struct {
	Mode  model.Mode
	Lines int

	// Written counts grams handed to the sinks, before deduplication
	Written int

	// Duplicates counts grams dropped by deduplicating outputs
	Duplicates int

	// Outputs are the file paths written, or sink.StdoutID
	Outputs []string
}

// Run extracts grams of one mode from the input file into output.
// Configuration and input errors are returned before any output is created.
func (p *Pipeline) Run(ctx context.Context, mode model.Mode, input, output string) (*Result, error) {
	if err := p.config.Validate(mode); err != nil {
		return nil, err
	}

	lines, err := readInput(input)
	if err != nil {
		return nil, err
	}

	return p.runMode(ctx, mode, lines, output, p.config.Output.Stdout)
}

// RunAll runs word, character and charset extraction in that order.
// Each mode writes to output plus its own suffix. With stdout output the
// charset grams still go to a file next to the input. A failing mode does
// not undo modes that already finished; all results and errors are returned.
func (p *Pipeline) RunAll(ctx context.Context, input, output string) ([]*Result, error) {
	for _, mode := range model.Modes {
		if err := p.config.Validate(mode); err != nil {
			return nil, err
		}
	}

	lines, err := readInput(input)
	if err != nil {
		return nil, err
	}

	base := output
	if base == "" {
		base = input
	}

	var results []*Result
	var errs []error
	for _, mode := range model.Modes {
		stdout := p.config.Output.Stdout
		if mode == model.ModeCharset {
			stdout = false
		}

		res, err := p.runMode(ctx, mode, lines, base+mode.Suffix(), stdout)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			p.logger.Error("mode failed", slog.String("mode", mode.String()), slog.String("err", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", mode, err))
		}
	}

	return results, errors.Join(errs...)
}

func readInput(input string) ([]string, error) {
	lines, err := worker.ReadLines(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputUnavailable, err)
	}
	return lines, nil
}

// extraction is the per-mode part of a run
type extraction interface {
	// open creates the sinks for the mode under base
	open(opener *sink.Opener, base string) (*sink.Set, error)
	// process turns one line into the value handed to write; it runs on
	// worker goroutines and must not touch sinks
	process(line string) interface{}
	// write sends one processed line to the sinks and returns lines written
	write(set *sink.Set, value interface{}) (int, error)
}

func (p *Pipeline) extractionFor(mode model.Mode) (extraction, error) {
	switch mode {
	case model.ModeWord:
		return newWordExtraction(p.config), nil
	case model.ModeCharacter:
		return newCharExtraction(p.config), nil
	case model.ModeCharset:
		return newCharsetExtraction(p.config)
	default:
		return nil, &model.ConfigError{Field: "mode", Reason: fmt.Sprintf("unsupported mode %s", mode)}
	}
}

func (p *Pipeline) runMode(ctx context.Context, mode model.Mode, lines []string, base string, stdout bool) (res *Result, err error) {
	ex, err := p.extractionFor(mode)
	if err != nil {
		return nil, err
	}

	opener := sink.NewFileOpener()
	if stdout {
		opener = sink.NewSharedOpener(p.Stdout)
	}

	set, err := ex.open(opener, base)
	if err != nil {
		if set != nil {
			if discardErr := set.Discard(); discardErr != nil {
				p.logger.Warn("remove partial outputs", slog.String("err", discardErr.Error()))
			}
		}
		return nil, fmt.Errorf("open outputs: %w", err)
	}

	res = &Result{Mode: mode, Lines: len(lines), Outputs: set.IDs()}
	defer func() {
		if closeErr := set.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close outputs: %w", closeErr)
		}
	}()

	if mode == model.ModeCharset && p.config.Charset.Mixed && len(p.config.FilterKeys()) > 0 {
		p.logger.Warn("mixed c-grams are not used with a filter; filter keys select whole runs",
			slog.Any("filter", p.config.FilterKeys()))
	}

	p.logger.Debug("processing",
		slog.String("mode", mode.String()),
		slog.Int("lines", len(lines)),
		slog.Any("outputs", res.Outputs))

	progress := rate.Sometimes{Interval: p.progressInterval}
	processor := worker.NewBatchProcessor(p.config.Concurrency.Workers, p.config.Concurrency.BatchSize)

	err = processor.ProcessLines(ctx, lines, ex.process, func(r *worker.LineResult) error {
		n, err := ex.write(set, r.Value)
		if err != nil {
			return fmt.Errorf("write line %d: %w", r.Index+1, err)
		}
		res.Written += n

		progress.Do(func() {
			p.logger.Info("progress",
				slog.String("mode", mode.String()),
				slog.Int("line", r.Index+1),
				slog.Int("total", len(lines)),
				slog.Int("written", res.Written))
		})
		return nil
	})
	res.Duplicates = set.Duplicates()
	if err != nil {
		return res, err
	}

	p.logger.Debug("done",
		slog.String("mode", mode.String()),
		slog.Int("written", res.Written),
		slog.Int("duplicates", res.Duplicates))

	return res, nil
}
