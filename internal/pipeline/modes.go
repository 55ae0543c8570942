package pipeline

import (
	"github.com/ppiankov/gramify/internal/cache"
	"github.com/ppiankov/gramify/internal/charset"
	"github.com/ppiankov/gramify/internal/gram"
	"github.com/ppiankov/gramify/internal/model"
	"github.com/ppiankov/gramify/internal/rule"
	"github.com/ppiankov/gramify/internal/sink"
)

const ruleSuffix = ".rule"

func openInto(set *sink.Set, opener *sink.Opener, name, path string) (sink.Sink, error) {
	s, err := opener.Open(path)
	if err != nil {
		return nil, err
	}
	if err := set.Add(name, s); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// writeAll writes lines to one sink and returns how many were written
func writeAll(s sink.Sink, lines []string) (int, error) {
	for i, line := range lines {
		if err := s.WriteLine(line); err != nil {
			return i, err
		}
	}
	return len(lines), nil
}

// word grams

type wordExtraction struct {
	minLength, maxLength int
	more                 bool
}

func newWordExtraction(cfg *model.Config) *wordExtraction {
	return &wordExtraction{
		minLength: cfg.MinLength,
		maxLength: cfg.MaxLength,
		more:      cfg.Word.More,
	}
}

func (w *wordExtraction) open(opener *sink.Opener, base string) (*sink.Set, error) {
	set := sink.NewSet()
	_, err := openInto(set, opener, "word", base)
	return set, err
}

func (w *wordExtraction) process(line string) interface{} {
	grams := gram.WordGrams(line, w.minLength, w.maxLength)
	if !w.more {
		return grams
	}

	out := make([]string, 0, len(grams)*2)
	for _, g := range grams {
		out = append(out, g)
		out = append(out, gram.Variants(g)...)
	}
	return out
}

func (w *wordExtraction) write(set *sink.Set, value interface{}) (int, error) {
	return writeAll(set.Get("word"), value.([]string))
}

// character grams

type charExtraction struct {
	minLength, maxLength int
	rolling              bool
}

func newCharExtraction(cfg *model.Config) *charExtraction {
	return &charExtraction{
		minLength: cfg.MinLength,
		maxLength: cfg.MaxLength,
		rolling:   cfg.Char.Rolling,
	}
}

func (c *charExtraction) open(opener *sink.Opener, base string) (*sink.Set, error) {
	set := sink.NewSet()
	if c.rolling {
		_, err := openInto(set, opener, "rolling", base)
		return set, err
	}

	for _, pos := range []gram.Position{gram.PosStart, gram.PosMid, gram.PosEnd} {
		if _, err := openInto(set, opener, pos.String(), base+"."+pos.String()); err != nil {
			return set, err
		}
	}
	return set, nil
}

func (c *charExtraction) process(line string) interface{} {
	return gram.CharGrams(line, c.minLength, c.maxLength)
}

func (c *charExtraction) write(set *sink.Set, value interface{}) (int, error) {
	grams := value.([]gram.CharGram)
	for i, g := range grams {
		name := "rolling"
		if !c.rolling {
			name = g.Position.String()
		}
		if err := set.Get(name).WriteLine(g.Text); err != nil {
			return i, err
		}
	}
	return len(grams), nil
}

// charset grams

type charsetExtraction struct {
	extractor *charset.Extractor
	filter    *charset.Filter
	rulify    bool
}

// charsetLine is what one line yields: candidates when unfiltered,
// selections when a filter is configured
type charsetLine struct {
	candidates []charset.Candidate
	selections []charset.Selection
}

func newCharsetExtraction(cfg *model.Config) (*charsetExtraction, error) {
	filter, err := cfg.Filter()
	if err != nil {
		return nil, err
	}

	ex := charset.NewExtractor(cfg.MinLength, cfg.MaxLength)
	if cfg.Charset.Mixed {
		ex.WithMixed(cfg.Charset.MixedSpan)
	}

	return &charsetExtraction{
		extractor: ex,
		filter:    filter,
		rulify:    cfg.Charset.Rulify,
	}, nil
}

const unfiltered = "charset"

func (c *charsetExtraction) open(opener *sink.Opener, base string) (*sink.Set, error) {
	set := sink.NewSet()

	if c.filter.Empty() {
		path := base
		if c.rulify {
			path += ruleSuffix
		}
		s, err := opener.Open(path)
		if err != nil {
			return set, err
		}
		if c.rulify {
			s = sink.NewRules(s, rule.NewEncoder(false))
		}
		// dedup on the literal gram, before rule encoding
		return set, set.Add(unfiltered, sink.NewDedup(s, cache.NewMemorySeen()))
	}

	for _, key := range c.filter.Keys() {
		path := base + "." + key.Name
		if c.rulify {
			path += ruleSuffix
		}
		s, err := opener.Open(path)
		if err != nil {
			return set, err
		}
		if c.rulify {
			s = sink.NewRules(s, rule.NewEncoder(key.Prefix()))
		}
		if err := set.Add(key.Name, s); err != nil {
			_ = s.Close()
			return set, err
		}
	}
	return set, nil
}

func (c *charsetExtraction) process(line string) interface{} {
	runs := charset.Segment(line)
	if c.filter.Empty() {
		return charsetLine{candidates: c.extractor.Extract(runs)}
	}
	return charsetLine{selections: c.filter.Apply(runs)}
}

func (c *charsetExtraction) write(set *sink.Set, value interface{}) (int, error) {
	cl := value.(charsetLine)

	if c.filter.Empty() {
		s := set.Get(unfiltered)
		for i, cand := range cl.candidates {
			if err := s.WriteLine(cand.Text); err != nil {
				return i, err
			}
		}
		return len(cl.candidates), nil
	}

	for i, sel := range cl.selections {
		if err := set.Get(sel.Key.Name).WriteLine(sel.Text); err != nil {
			return i, err
		}
	}
	return len(cl.selections), nil
}
