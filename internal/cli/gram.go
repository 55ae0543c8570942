package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ppiankov/gramify/internal/model"
	"github.com/ppiankov/gramify/internal/pipeline"
	"github.com/ppiankov/gramify/internal/sink"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags to their config keys
var flagKeys = map[string]string{
	"min-length":          "min_length",
	"max-length":          "max_length",
	"ngram-more":          "word.more",
	"rolling":             "character.rolling",
	"mixed":               "charset.mixed",
	"mixed-span":          "charset.mixed_span",
	"filter":              "charset.filter",
	"filter-combo-length": "charset.filter_combo_length",
	"cgram-rulify-beta":   "charset.rulify",
	"stdout":              "output.stdout",
	"workers":             "concurrency.workers",
	"batch-size":          "concurrency.batch_size",
}

var wordCmd = &cobra.Command{
	Use:   "word <input_file> [output_file]",
	Short: "Generate word-based n-grams",
	Long: `Word splits every line on whitespace and writes every run of
min-length..max-length consecutive words.

Example:
  gramify word quotes.txt quotes.ngram --min-length 2 --max-length 4
  gramify word quotes.txt --stdout --ngram-more`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGram(model.ModeWord),
}

var characterCmd = &cobra.Command{
	Use:   "character <input_file> [output_file]",
	Short: "Generate character-based k-grams",
	Long: `Character writes every window of min-length..max-length characters.

By default grams are split into three outputs: grams at the start of the line
(<output>.start), at its end (<output>.end) and everything in between
(<output>.mid). --rolling writes a single output ordered by length.

Example:
  gramify character leaked.txt leaked.kgram --min-length 3 --max-length 6
  gramify character leaked.txt out.kgram --rolling`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGram(model.ModeCharacter),
}

var charsetCmd = &cobra.Command{
	Use:   "charset <input_file> [output_file]",
	Short: "Generate charset-boundary c-grams",
	Long: `Charset splits every line into runs of lowercase, uppercase, digit and
special characters and writes every window of min-length..max-length runs.
Unfiltered output is deduplicated.

Filter:
  Format the filter as a comma separated list of keys. Each key gets its
  own output file (<output>.<key>).
  solo                 lines made of exactly 1 run
  duo,duostart,duoend  lines made of exactly 2 runs: both, first, second
  start,mid,end        first run, runs in between, last run (3+ runs)
  startmid             first and middle runs, good for -a6 hybrid attacks
  midend               middle and last runs, good for -a7 hybrid attacks
  Any concatenation of start, mid and end is valid, e.g.
  "startmidstartmidendmidstart". solo/duo keys cannot be combined with
  start/mid/end keys.

Example:
  gramify charset rockyou.txt rockyou.cgram --max-length 4
  gramify charset rockyou.txt rockyou.cgram --filter start,mid,end
  gramify charset rockyou.txt rockyou.cgram --filter startmid,midend --cgram-rulify-beta`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGram(model.ModeCharset),
}

var allCmd = &cobra.Command{
	Use:   "all <input_file> [output_file]",
	Short: "Generate word, character and charset grams",
	Long: `All runs word, character and charset extraction one after another.
Outputs are written to <output>.ngram, <output>.kgram* and <output>.cgram*.
With --stdout, n-grams and k-grams are printed and c-grams are written to
<input_file>.cgram.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAll,
}

func init() {
	for _, cmd := range []*cobra.Command{wordCmd, characterCmd, charsetCmd, allCmd} {
		rootCmd.AddCommand(cmd)
		addCommonFlags(cmd.Flags())
	}

	for _, cmd := range []*cobra.Command{wordCmd, allCmd} {
		addWordFlags(cmd.Flags())
	}
	for _, cmd := range []*cobra.Command{characterCmd, allCmd} {
		addCharacterFlags(cmd.Flags())
	}
	for _, cmd := range []*cobra.Command{charsetCmd, allCmd} {
		addCharsetFlags(cmd.Flags())
	}
}

func addCommonFlags(fs *pflag.FlagSet) {
	def := model.DefaultConfig()
	fs.Int("min-length", def.MinLength, "minimum size of k,n,c-gram output")
	fs.Int("max-length", def.MaxLength, "maximum size of k,n,c-gram output")
	fs.Bool("stdout", def.Output.Stdout, "print output to screen (STDOUT)")
	fs.Int("workers", def.Concurrency.Workers, "number of lines processed in parallel")
	fs.Int("batch-size", def.Concurrency.BatchSize, "lines per ordered batch when workers > 1")
}

func addWordFlags(fs *pflag.FlagSet) {
	fs.Bool("ngram-more", false, "add extra candidates by removing casing and special characters")
}

func addCharacterFlags(fs *pflag.FlagSet) {
	fs.Bool("rolling", false, "write k-grams into one output ordered by length instead of start/mid/end")
}

func addCharsetFlags(fs *pflag.FlagSet) {
	def := model.DefaultConfig()
	fs.Bool("mixed", false, "allow mixed charset c-grams")
	fs.Int("mixed-span", def.Charset.MixedSpan, "runs a mixed unit may merge")
	fs.StringSlice("filter", nil, "filter for specific outputs using solo, duo, duostart, duoend, start, mid and end")
	fs.Int("filter-combo-length", 0, "add every start/mid/end filter combination up to this many parts [BETA]")
	fs.Bool("cgram-rulify-beta", false, "convert c-gram output into hashcat rules [BETA]")
}

// loadConfig layers flags over env and config file over defaults
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func outputArg(cfg *model.Config, args []string) (string, error) {
	if len(args) > 1 {
		return args[1], nil
	}
	if cfg.Output.Stdout {
		return "", nil
	}
	return "", &model.ConfigError{Field: "output_file", Reason: "required unless --stdout is set"}
}

func runGram(mode model.Mode) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		output, err := outputArg(cfg, args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		p := pipeline.NewPipeline(cfg, newLogger(cfg.Output.Verbose))
		res, err := p.Run(ctx, mode, args[0], output)
		if err != nil {
			return fmt.Errorf("%s grams: %w", mode, err)
		}

		printSummary(cfg, args[0], []*pipeline.Result{res})
		return nil
	}
}

func runAll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	output, err := outputArg(cfg, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.NewPipeline(cfg, newLogger(cfg.Output.Verbose))
	results, err := p.RunAll(ctx, args[0], output)

	// report whatever finished, even if a later mode failed
	if len(results) > 0 {
		printSummary(cfg, args[0], results)
	}
	return err
}

func printSummary(cfg *model.Config, input string, results []*pipeline.Result) {
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
		fmt.Fprintf(os.Stderr, "  Gramify Complete\n")
		fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "  Input:     %s\n", input)
		fmt.Fprintf(os.Stderr, "  Lengths:   %d-%d\n", cfg.MinLength, cfg.MaxLength)
		for _, res := range results {
			fmt.Fprintf(os.Stderr, "  %-10s %d lines, %d grams", res.Mode.String()+":", res.Lines, res.Written)
			if res.Duplicates > 0 {
				fmt.Fprintf(os.Stderr, ", %d duplicates dropped", res.Duplicates)
			}
			fmt.Fprintf(os.Stderr, "\n")
		}
	}

	var files []string
	for _, res := range results {
		for _, out := range res.Outputs {
			if out != sink.StdoutID {
				files = append(files, out)
			}
		}
	}
	if len(files) == 0 {
		return
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Don't forget to de-duplicate and sort the output.\nRecommended commands:\n")
	for _, f := range files {
		fmt.Fprintln(os.Stderr, sortCommand(f))
	}
}

// sortCommand returns a shell pipeline that ranks the grams in path by
// frequency and keeps those seen at least 5 times
func sortCommand(path string) string {
	return fmt.Sprintf(`cat %q | sort | uniq -c | sort -rn | awk '($1 >= 5)' | awk '{if ($1 >=1) {$1=""; print substr($0, index($0, $2))}}' > %q`,
		path, path+".sorted")
}
