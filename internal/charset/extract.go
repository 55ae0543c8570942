package charset

// Candidate is a contiguous span of runs [First, Last) taken from one line
type Candidate struct {
	First int
	Last  int
	Text  string

	// Mixed marks spans that only qualify because adjacent runs were merged
	// into wider units (mixed mode)
	Mixed bool
}

// Len returns the number of fine runs the candidate spans
func (c Candidate) Len() int {
	return c.Last - c.First
}

// Extractor enumerates candidates over a run list
type Extractor struct {
	MinLength int
	MaxLength int

	// Mixed lets a unit span up to MixedSpan adjacent runs of different classes
	Mixed     bool
	MixedSpan int
}

// NewExtractor creates an extractor for the given run-length bounds.
// Bounds are validated by the caller.
func NewExtractor(minLength, maxLength int) *Extractor {
	return &Extractor{
		MinLength: minLength,
		MaxLength: maxLength,
		MixedSpan: 1,
	}
}

// WithMixed enables mixed mode with the given unit span
func (e *Extractor) WithMixed(span int) *Extractor {
	if span < 1 {
		span = 1
	}
	e.Mixed = true
	e.MixedSpan = span
	return e
}

// Extract returns every window of runs within the configured bounds,
// ordered by window length and then by start index.
//
// In mixed mode a window of L runs qualifies when it splits into n units of at
// most MixedSpan runs with MinLength <= n <= MaxLength. The plain windows come
// first in the same order as without mixed mode, followed by the wider ones.
func (e *Extractor) Extract(runs []Run) []Candidate {
	upper := e.MaxLength
	if e.Mixed {
		upper = e.MaxLength * e.MixedSpan
	}
	if upper > len(runs) {
		upper = len(runs)
	}
	if e.MinLength > upper {
		return nil
	}

	candidates := make([]Candidate, 0, CountWindows(len(runs), e.MinLength, upper))
	for n := e.MinLength; n <= upper; n++ {
		for i := 0; i+n <= len(runs); i++ {
			candidates = append(candidates, Candidate{
				First: i,
				Last:  i + n,
				Text:  Join(runs[i : i+n]),
				Mixed: n > e.MaxLength,
			})
		}
	}

	return candidates
}

// CountWindows returns how many windows of length min..max fit in total runs
func CountWindows(total, minLength, maxLength int) int {
	if maxLength > total {
		maxLength = total
	}
	count := 0
	for n := minLength; n <= maxLength; n++ {
		count += total - n + 1
	}
	return count
}
