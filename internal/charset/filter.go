package charset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned for filter keys that do not parse
var ErrInvalidKey = errors.New("invalid filter key")

// ErrMixedKeys is returned when solo/duo keys are combined with start/mid/end keys
var ErrMixedKeys = errors.New("solo and duo keys cannot be combined with start/mid/end keys")

// Token is one positional span reference inside a compound filter key
type Token int

const (
	TokenStart Token = iota
	TokenMid
	TokenEnd
)

var tokenNames = [...]string{"start", "mid", "end"}

func (t Token) String() string {
	if t < TokenStart || t > TokenEnd {
		return "unknown"
	}
	return tokenNames[t]
}

// KeyKind classifies a filter key
type KeyKind int

const (
	KindCompound KeyKind = iota
	KindSolo
	KindDuo
	KindDuoStart
	KindDuoEnd
)

// Key is a parsed filter key
type Key struct {
	Name   string
	Kind   KeyKind
	Tokens []Token // only for KindCompound
}

// Prefix reports whether the selected span covers the start of the line but
// not its end. Such spans are material placed in front of a base word.
func (k Key) Prefix() bool {
	switch k.Kind {
	case KindDuoStart:
		return true
	case KindCompound:
		if len(k.Tokens) == 0 || k.Tokens[0] != TokenStart {
			return false
		}
		for _, t := range k.Tokens {
			if t == TokenEnd {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ParseKey parses a single filter key such as "solo", "duoend" or "startmidend"
func ParseKey(name string) (Key, error) {
	switch name {
	case "solo":
		return Key{Name: name, Kind: KindSolo}, nil
	case "duo":
		return Key{Name: name, Kind: KindDuo}, nil
	case "duostart":
		return Key{Name: name, Kind: KindDuoStart}, nil
	case "duoend":
		return Key{Name: name, Kind: KindDuoEnd}, nil
	}

	tokens, err := tokenize(name)
	if err != nil {
		return Key{}, err
	}
	return Key{Name: name, Kind: KindCompound, Tokens: tokens}, nil
}

// tokenize consumes "start", "mid" and "end" prefixes left to right
func tokenize(name string) ([]Token, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	var tokens []Token
	rest := name
	for rest != "" {
		matched := false
		for i, tn := range tokenNames {
			if strings.HasPrefix(rest, tn) {
				tokens = append(tokens, Token(i))
				rest = rest[len(tn):]
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: %q (unexpected %q)", ErrInvalidKey, name, rest)
		}
	}
	return tokens, nil
}

// Filter selects positional spans of a line's runs, one output per key
type Filter struct {
	keys []Key
}

// NewFilter parses the configured keys. Blank and repeated keys are dropped;
// the remaining keys keep their configured order.
func NewFilter(names []string) (*Filter, error) {
	f := &Filter{}
	seen := make(map[string]bool)
	positional, compound := false, false

	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		key, err := ParseKey(name)
		if err != nil {
			return nil, err
		}
		if key.Kind == KindCompound {
			compound = true
		} else {
			positional = true
		}
		f.keys = append(f.keys, key)
	}

	if positional && compound {
		return nil, ErrMixedKeys
	}

	return f, nil
}

// Keys returns the parsed keys in configured order
func (f *Filter) Keys() []Key {
	return f.keys
}

// Empty reports whether no key is configured
func (f *Filter) Empty() bool {
	return f == nil || len(f.keys) == 0
}

// Selection is the literal text one key selected from a line
type Selection struct {
	Key  Key
	Text string
}

// Apply evaluates every key against the full run list of one line.
// Keys that need more (or a different number of) runs produce nothing.
func (f *Filter) Apply(runs []Run) []Selection {
	if f.Empty() {
		return nil
	}

	var out []Selection
	for _, key := range f.keys {
		if text, ok := Select(key, runs); ok {
			out = append(out, Selection{Key: key, Text: text})
		}
	}
	return out
}

// Select returns the text a single key selects from a line's runs
func Select(key Key, runs []Run) (string, bool) {
	n := len(runs)
	switch key.Kind {
	case KindSolo:
		if n != 1 {
			return "", false
		}
		return runs[0].Text, true
	case KindDuo:
		if n != 2 {
			return "", false
		}
		return runs[0].Text + runs[1].Text, true
	case KindDuoStart:
		if n != 2 {
			return "", false
		}
		return runs[0].Text, true
	case KindDuoEnd:
		if n != 2 {
			return "", false
		}
		return runs[1].Text, true
	}

	if n < 3 {
		return "", false
	}

	start, mid, end := runs[0], runs[1:n-1], runs[n-1]
	var spans []Run
	for _, t := range key.Tokens {
		switch t {
		case TokenStart:
			spans = append(spans, start)
		case TokenMid:
			spans = append(spans, mid...)
		case TokenEnd:
			spans = append(spans, end)
		}
	}
	if len(spans) == 0 {
		return "", false
	}
	return Join(spans), true
}

// Combos returns every compound key built from 1..length tokens, shortest
// first, tokens ordered start < mid < end within each length
func Combos(length int) []string {
	var out []string
	prev := []string{""}
	for l := 1; l <= length; l++ {
		next := make([]string, 0, len(prev)*len(tokenNames))
		for _, p := range prev {
			for _, tn := range tokenNames {
				next = append(next, p+tn)
			}
		}
		out = append(out, next...)
		prev = next
	}
	return out
}
