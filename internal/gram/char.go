package gram

// Position tells where in the line a character gram was taken from
type Position int

const (
	PosStart Position = iota
	PosMid
	PosEnd
)

func (p Position) String() string {
	switch p {
	case PosStart:
		return "start"
	case PosEnd:
		return "end"
	default:
		return "mid"
	}
}

// CharGram is a window of characters and where it sits in the line
type CharGram struct {
	Text     string
	Position Position
}

// CharGrams returns every window of minLength..maxLength characters, ordered
// by window length then start. A window at offset 0 is a start gram, one that
// ends the line (and does not start it) is an end gram, the rest are mid grams.
func CharGrams(line string, minLength, maxLength int) []CharGram {
	// byte offset of every rune, plus the line length as sentinel
	offsets := make([]int, 0, len(line)+1)
	for i := range line {
		offsets = append(offsets, i)
	}
	count := len(offsets)
	offsets = append(offsets, len(line))

	if maxLength > count {
		maxLength = count
	}

	var out []CharGram
	for n := minLength; n <= maxLength; n++ {
		for i := 0; i+n <= count; i++ {
			pos := PosMid
			switch {
			case i == 0:
				pos = PosStart
			case i+n == count:
				pos = PosEnd
			}
			out = append(out, CharGram{
				Text:     line[offsets[i]:offsets[i+n]],
				Position: pos,
			})
		}
	}
	return out
}
