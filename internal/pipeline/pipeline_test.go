package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/gramify/internal/charset"
	"github.com/ppiankov/gramify/internal/model"
	"github.com/ppiankov/gramify/internal/sink"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func readOutput(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestRun_CharsetUnfiltered(t *testing.T) {
	input := writeInput(t, "pass123!", "", "  pass123!  ", "abc")
	output := filepath.Join(t.TempDir(), "out.cgram")

	cfg := model.DefaultConfig()
	res, err := NewPipeline(cfg, quietLogger()).Run(context.Background(), model.ModeCharset, input, output)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := readOutput(t, output)
	want := []string{"pass", "123", "!", "pass123", "123!", "pass123!", "abc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}

	if res.Lines != 3 {
		t.Errorf("expected 3 input lines, got %d", res.Lines)
	}
	if res.Written != 13 || res.Duplicates != 6 {
		t.Errorf("expected 13 written and 6 duplicates, got %d and %d", res.Written, res.Duplicates)
	}
	if !reflect.DeepEqual(res.Outputs, []string{output}) {
		t.Errorf("unexpected outputs %q", res.Outputs)
	}
}

func TestRun_CharsetFiltered(t *testing.T) {
	input := writeInput(t, "pass123!", "summer2024", "ab12CD!!", "solo")
	base := filepath.Join(t.TempDir(), "out")

	cfg := model.DefaultConfig()
	cfg.Charset.Filter = []string{"start", "mid", "end", "startmidend"}

	res, err := NewPipeline(cfg, quietLogger()).Run(context.Background(), model.ModeCharset, input, base)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	expect := map[string][]string{
		"start":       {"pass", "ab"},
		"mid":         {"123", "12CD"},
		"end":         {"!", "!!"},
		"startmidend": {"pass123!", "ab12CD!!"},
	}
	for key, want := range expect {
		if got := readOutput(t, base+"."+key); !reflect.DeepEqual(got, want) {
			t.Errorf("%s: expected %q, got %q", key, want, got)
		}
	}

	if len(res.Outputs) != 4 || res.Outputs[0] != base+".start" {
		t.Errorf("unexpected outputs %q", res.Outputs)
	}
}

func TestRun_CharsetSoloDuo(t *testing.T) {
	input := writeInput(t, "password", "summer2024", "pass123!")
	base := filepath.Join(t.TempDir(), "out")

	cfg := model.DefaultConfig()
	cfg.Charset.Filter = []string{"solo", "duo", "duostart", "duoend"}

	if _, err := NewPipeline(cfg, quietLogger()).Run(context.Background(), model.ModeCharset, input, base); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expect := map[string][]string{
		"solo":     {"password"},
		"duo":      {"summer2024"},
		"duostart": {"summer"},
		"duoend":   {"2024"},
	}
	for key, want := range expect {
		if got := readOutput(t, base+"."+key); !reflect.DeepEqual(got, want) {
			t.Errorf("%s: expected %q, got %q", key, want, got)
		}
	}
}

func TestRun_CharsetRulify(t *testing.T) {
	input := writeInput(t, "pass123!")
	base := filepath.Join(t.TempDir(), "out")

	cfg := model.DefaultConfig()
	cfg.Charset.Filter = []string{"start", "end"}
	cfg.Charset.Rulify = true

	res, err := NewPipeline(cfg, quietLogger()).Run(context.Background(), model.ModeCharset, input, base)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := readOutput(t, base+".start.rule"); !reflect.DeepEqual(got, []string{"^s ^s ^a ^p"}) {
		t.Errorf("unexpected start rules %q", got)
	}
	if got := readOutput(t, base+".end.rule"); !reflect.DeepEqual(got, []string{"$!"}) {
		t.Errorf("unexpected end rules %q", got)
	}
	if res.Outputs[0] != base+".start.rule" {
		t.Errorf("unexpected outputs %q", res.Outputs)
	}
}

func TestRun_CharsetMixedSuperset(t *testing.T) {
	input := writeInput(t, "Password2024!!", "abc123", "x")
	dir := t.TempDir()

	run := func(mixed bool, name string) map[string]bool {
		cfg := model.DefaultConfig()
		cfg.MinLength, cfg.MaxLength = 1, 2
		cfg.Charset.Mixed = mixed
		out := filepath.Join(dir, name)
		if _, err := NewPipeline(cfg, quietLogger()).Run(context.Background(), model.ModeCharset, input, out); err != nil {
			t.Fatalf("Run: %v", err)
		}
		set := make(map[string]bool)
		for _, l := range readOutput(t, out) {
			set[l] = true
		}
		return set
	}

	plain := run(false, "plain")
	mixed := run(true, "mixed")

	for gram := range plain {
		if !mixed[gram] {
			t.Errorf("mixed output lacks %q", gram)
		}
	}
	if !mixed["Password2024!!"] || plain["Password2024!!"] {
		t.Error("expected the 4-run line only in mixed output")
	}
}

func TestRun_CharsetMixedWithFilterWarns(t *testing.T) {
	input := writeInput(t, "pass123!")
	base := filepath.Join(t.TempDir(), "out")

	cfg := model.DefaultConfig()
	cfg.Charset.Mixed = true
	cfg.Charset.Filter = []string{"start"}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	if _, err := NewPipeline(cfg, logger).Run(context.Background(), model.ModeCharset, input, base); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "mixed c-grams") {
		t.Errorf("expected a warning about mixed mode, got %q", logs.String())
	}
	if got := readOutput(t, base+".start"); !reflect.DeepEqual(got, []string{"pass"}) {
		t.Errorf("unexpected start output %q", got)
	}
}

func TestRun_OpenFailureRemovesOutputs(t *testing.T) {
	input := writeInput(t, "pass123!")
	dir := t.TempDir()
	base := filepath.Join(dir, "out")

	// a directory where the mid output should go makes the second open fail
	if err := os.Mkdir(base+".mid", 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg := model.DefaultConfig()
	cfg.Charset.Filter = []string{"start", "mid", "end"}

	if _, err := NewPipeline(cfg, quietLogger()).Run(context.Background(), model.ModeCharset, input, base); err == nil {
		t.Fatal("expected open failure")
	}

	if _, err := os.Stat(base + ".start"); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed, got %v", base+".start", err)
	}
	if _, err := os.Stat(base + ".end"); !os.IsNotExist(err) {
		t.Errorf("expected %s not to be created, got %v", base+".end", err)
	}
}

func TestRun_Deterministic(t *testing.T) {
	lines := []string{"pass123!", "Summer2024", "a1b2c3d4", "P@ssw0rd!", "zzz"}
	for i := 0; i < 200; i++ {
		lines = append(lines, strings.Repeat("ab1", i%5+1)+"!")
	}
	input := writeInput(t, lines...)
	dir := t.TempDir()

	run := func(workers int, name string) []byte {
		cfg := model.DefaultConfig()
		cfg.MaxLength = 4
		cfg.Concurrency.Workers = workers
		cfg.Concurrency.BatchSize = 16
		out := filepath.Join(dir, name)
		if _, err := NewPipeline(cfg, quietLogger()).Run(context.Background(), model.ModeCharset, input, out); err != nil {
			t.Fatalf("Run: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return data
	}

	first := run(1, "a")
	again := run(1, "b")
	parallel := run(6, "c")

	if !bytes.Equal(first, again) {
		t.Error("repeated runs differ")
	}
	if !bytes.Equal(first, parallel) {
		t.Error("parallel run differs from sequential run")
	}
}

func TestRun_Word(t *testing.T) {
	input := writeInput(t, "Crème Brûlée recipe", "one")
	output := filepath.Join(t.TempDir(), "out.ngram")

	cfg := model.DefaultConfig()
	cfg.MinLength, cfg.MaxLength = 2, 2
	cfg.Word.More = true

	if _, err := NewPipeline(cfg, quietLogger()).Run(context.Background(), model.ModeWord, input, output); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"Crème Brûlée", "crème brûlée", "creme brulee",
		"Brûlée recipe", "brûlée recipe", "brulee recipe",
	}
	if got := readOutput(t, output); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRun_CharacterGroups(t *testing.T) {
	input := writeInput(t, "abcd")
	base := filepath.Join(t.TempDir(), "out")

	cfg := model.DefaultConfig()
	cfg.MinLength, cfg.MaxLength = 2, 2

	res, err := NewPipeline(cfg, quietLogger()).Run(context.Background(), model.ModeCharacter, input, base)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for suffix, want := range map[string][]string{".start": {"ab"}, ".mid": {"bc"}, ".end": {"cd"}} {
		if got := readOutput(t, base+suffix); !reflect.DeepEqual(got, want) {
			t.Errorf("%s: expected %q, got %q", suffix, want, got)
		}
	}
	if len(res.Outputs) != 3 {
		t.Errorf("expected 3 outputs, got %q", res.Outputs)
	}
}

func TestRun_CharacterRollingStdout(t *testing.T) {
	input := writeInput(t, "abc")

	cfg := model.DefaultConfig()
	cfg.MinLength, cfg.MaxLength = 1, 2
	cfg.Char.Rolling = true
	cfg.Output.Stdout = true

	var buf bytes.Buffer
	p := NewPipeline(cfg, quietLogger())
	p.Stdout = &buf

	res, err := p.Run(context.Background(), model.ModeCharacter, input, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := buf.String(); got != "a\nb\nc\nab\nbc\n" {
		t.Errorf("unexpected stdout %q", got)
	}
	if !reflect.DeepEqual(res.Outputs, []string{sink.StdoutID}) {
		t.Errorf("unexpected outputs %q", res.Outputs)
	}
}

func TestRun_ConfigError(t *testing.T) {
	input := writeInput(t, "pass123!")
	output := filepath.Join(t.TempDir(), "out")

	cfg := model.DefaultConfig()
	cfg.Charset.Filter = []string{"startfinish"}

	_, err := NewPipeline(cfg, quietLogger()).Run(context.Background(), model.ModeCharset, input, output)
	if !errors.Is(err, model.ErrConfig) || !errors.Is(err, charset.ErrInvalidKey) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("expected no output to be created")
	}
}

func TestRun_InputUnavailable(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out")

	_, err := NewPipeline(model.DefaultConfig(), quietLogger()).Run(context.Background(), model.ModeWord, filepath.Join(dir, "missing.txt"), output)
	if !errors.Is(err, ErrInputUnavailable) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrInputUnavailable, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("expected no output to be created")
	}
}

func TestRun_Cancelled(t *testing.T) {
	input := writeInput(t, "pass123!", "abc")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(model.DefaultConfig(), quietLogger()).Run(ctx, model.ModeCharset, input, filepath.Join(t.TempDir(), "out"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunAll(t *testing.T) {
	input := writeInput(t, "pass 123!")
	base := filepath.Join(t.TempDir(), "out")

	cfg := model.DefaultConfig()
	cfg.MinLength, cfg.MaxLength = 1, 1

	results, err := NewPipeline(cfg, quietLogger()).RunAll(context.Background(), input, base)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if got := readOutput(t, base+".ngram"); !reflect.DeepEqual(got, []string{"pass", "123!"}) {
		t.Errorf("unexpected word grams %q", got)
	}
	if got := readOutput(t, base+".kgram.start"); !reflect.DeepEqual(got, []string{"p"}) {
		t.Errorf("unexpected start k-grams %q", got)
	}
	if got := readOutput(t, base+".cgram"); !reflect.DeepEqual(got, []string{"pass", " ", "123", "!"}) {
		t.Errorf("unexpected c-grams %q", got)
	}
}

func TestRunAll_StdoutSendsCharsetToFile(t *testing.T) {
	input := writeInput(t, "ab1")

	cfg := model.DefaultConfig()
	cfg.MinLength, cfg.MaxLength = 1, 1
	cfg.Output.Stdout = true

	var buf bytes.Buffer
	p := NewPipeline(cfg, quietLogger())
	p.Stdout = &buf

	results, err := p.RunAll(context.Background(), input, "")
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	if got := results[2].Outputs; !reflect.DeepEqual(got, []string{input + ".cgram"}) {
		t.Errorf("expected charset output next to input, got %q", got)
	}
	if got := readOutput(t, input+".cgram"); !reflect.DeepEqual(got, []string{"ab", "1"}) {
		t.Errorf("unexpected c-grams %q", got)
	}
	if !strings.HasPrefix(buf.String(), "ab1\n") {
		t.Errorf("expected word grams on stdout, got %q", buf.String())
	}
}
