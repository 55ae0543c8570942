package model

import (
	"errors"
	"fmt"

	"github.com/ppiankov/gramify/internal/charset"
)

// MaxFilterComboLength bounds filter_combo_length; every generated key opens
// its own output file, and 5 parts already yield 363 keys
const MaxFilterComboLength = 5

// ErrConfig is the sentinel wrapped by every configuration error
var ErrConfig = errors.New("invalid configuration")

// ConfigError describes one invalid configuration field
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is reports ErrConfig for every ConfigError
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Config holds gram extraction settings
type Config struct {
	// Bounds, counted in words, characters or charset runs depending on mode
	MinLength int `yaml:"min_length" mapstructure:"min_length"`
	MaxLength int `yaml:"max_length" mapstructure:"max_length"`

	Word    WordConfig    `yaml:"word" mapstructure:"word"`
	Char    CharConfig    `yaml:"character" mapstructure:"character"`
	Charset CharsetConfig `yaml:"charset" mapstructure:"charset"`

	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// WordConfig configures word grams
type WordConfig struct {
	// More adds lowercased and punctuation-free spellings of each gram
	More bool `yaml:"more" mapstructure:"more"`
}

// CharConfig configures character grams
type CharConfig struct {
	// Rolling writes one output ordered by length instead of start/mid/end files
	Rolling bool `yaml:"rolling" mapstructure:"rolling"`
}

// CharsetConfig configures charset-boundary grams
type CharsetConfig struct {
	Mixed     bool     `yaml:"mixed" mapstructure:"mixed"`
	MixedSpan int      `yaml:"mixed_span" mapstructure:"mixed_span"`
	Filter    []string `yaml:"filter" mapstructure:"filter"`

	// FilterComboLength adds every start/mid/end combination up to this many tokens
	FilterComboLength int `yaml:"filter_combo_length" mapstructure:"filter_combo_length"`

	// Rulify writes hashcat rules instead of literal grams (beta)
	Rulify bool `yaml:"rulify" mapstructure:"rulify"`
}

// OutputConfig controls where output goes
type OutputConfig struct {
	Stdout  bool `yaml:"stdout" mapstructure:"stdout"`
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// ConcurrencyConfig controls per-line parallelism
type ConcurrencyConfig struct {
	Workers   int `yaml:"workers" mapstructure:"workers"`
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MinLength: 1,
		MaxLength: 3,
		Charset: CharsetConfig{
			MixedSpan: 2,
		},
		Concurrency: ConcurrencyConfig{
			Workers:   1,
			BatchSize: 1024,
		},
	}
}

// FilterKeys returns the configured filter keys followed by generated combos
func (c *Config) FilterKeys() []string {
	keys := append([]string(nil), c.Charset.Filter...)
	if c.Charset.FilterComboLength > 0 {
		keys = append(keys, charset.Combos(c.Charset.FilterComboLength)...)
	}
	return keys
}

// Filter parses the configured filter keys
func (c *Config) Filter() (*charset.Filter, error) {
	f, err := charset.NewFilter(c.FilterKeys())
	if err != nil {
		return nil, &ConfigError{Field: "filter", Reason: "cannot parse filter", Err: err}
	}
	return f, nil
}

// Validate checks the configuration before any processing starts
func (c *Config) Validate(mode Mode) error {
	if c.MinLength < 1 {
		return &ConfigError{Field: "min_length", Reason: fmt.Sprintf("must be at least 1, got %d", c.MinLength)}
	}
	if c.MaxLength < 1 {
		return &ConfigError{Field: "max_length", Reason: fmt.Sprintf("must be at least 1, got %d", c.MaxLength)}
	}
	if c.MinLength > c.MaxLength {
		return &ConfigError{Field: "min_length", Reason: fmt.Sprintf("%d is greater than max_length %d", c.MinLength, c.MaxLength)}
	}
	if c.Concurrency.Workers < 1 {
		return &ConfigError{Field: "workers", Reason: "must be at least 1"}
	}
	if c.Concurrency.BatchSize < 1 {
		return &ConfigError{Field: "batch_size", Reason: "must be at least 1"}
	}

	if mode != ModeCharset {
		return nil
	}

	if c.Charset.Mixed && c.Charset.MixedSpan < 1 {
		return &ConfigError{Field: "mixed_span", Reason: "must be at least 1"}
	}
	if c.Charset.FilterComboLength < 0 {
		return &ConfigError{Field: "filter_combo_length", Reason: "must not be negative"}
	}
	if c.Charset.FilterComboLength > MaxFilterComboLength {
		return &ConfigError{Field: "filter_combo_length", Reason: fmt.Sprintf("must be at most %d, got %d", MaxFilterComboLength, c.Charset.FilterComboLength)}
	}
	if _, err := c.Filter(); err != nil {
		return err
	}
	return nil
}
