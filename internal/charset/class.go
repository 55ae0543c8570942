package charset

// Class is the charset category of a single character
type Class int

const (
	Other Class = iota
	Lower
	Upper
	Digit
	Special
)

// String returns the class name
func (c Class) String() string {
	switch c {
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	case Digit:
		return "digit"
	case Special:
		return "special"
	default:
		return "other"
	}
}

// Classify maps a character to its charset class.
// Only printable ASCII is split into lower/upper/digit/special; everything
// else (control characters, non-ASCII) is Other.
func Classify(r rune) Class {
	switch {
	case r >= 'a' && r <= 'z':
		return Lower
	case r >= 'A' && r <= 'Z':
		return Upper
	case r >= '0' && r <= '9':
		return Digit
	case r >= ' ' && r <= '~':
		return Special
	default:
		return Other
	}
}
