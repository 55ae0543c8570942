// Package rule encodes literal text as hashcat-style transformation rules.
package rule

import (
	"fmt"
	"strings"
)

// Op is a rule function
type Op byte

const (
	Append  Op = '$'
	Prepend Op = '^'
)

// Token is a single rule function applied to one character
type Token struct {
	Op   Op
	Char byte
}

// String renders the token in rule syntax. Bytes outside printable ASCII use
// the \xNN escape understood by rule engines.
func (t Token) String() string {
	if t.Char > ' ' && t.Char <= '~' {
		return string([]byte{byte(t.Op), t.Char})
	}
	return fmt.Sprintf("%c\\x%02X", t.Op, t.Char)
}

// Tokens returns the rule functions that add text to a word.
// Prepend tokens are emitted in reverse so applying them left to right
// rebuilds the text in its original order.
func Tokens(op Op, text string) []Token {
	tokens := make([]Token, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if op == Prepend {
			c = text[len(text)-1-i]
		}
		tokens[i] = Token{Op: op, Char: c}
	}
	return tokens
}

// Encode renders text as one rule line of space-separated tokens
func Encode(op Op, text string) string {
	tokens := Tokens(op, text)

	var b strings.Builder
	for i, t := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.String())
	}
	return b.String()
}

// Encoder converts selected spans into rule lines
type Encoder struct {
	op Op
}

// NewEncoder creates an encoder that either prepends (prefix spans) or appends
func NewEncoder(prefix bool) *Encoder {
	if prefix {
		return &Encoder{op: Prepend}
	}
	return &Encoder{op: Append}
}

// Encode renders text with the encoder's operation
func (e *Encoder) Encode(text string) string {
	return Encode(e.op, text)
}
