package model

import "fmt"

// Mode selects the gram extractor
type Mode int

const (
	ModeWord Mode = iota
	ModeCharacter
	ModeCharset
)

// Modes lists every mode in the order "all" runs them
var Modes = []Mode{ModeWord, ModeCharacter, ModeCharset}

func (m Mode) String() string {
	switch m {
	case ModeWord:
		return "word"
	case ModeCharacter:
		return "character"
	case ModeCharset:
		return "charset"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Suffix is the output file suffix used when several modes share one base path
func (m Mode) Suffix() string {
	switch m {
	case ModeWord:
		return ".ngram"
	case ModeCharacter:
		return ".kgram"
	default:
		return ".cgram"
	}
}
