package charset

import "strings"

// Run is a maximal slice of a line whose characters share one class.
// Start and End are byte offsets into the line, End exclusive.
type Run struct {
	Start int
	End   int
	Class Class
	Text  string
}

// Segment splits a line into maximal same-class runs, left to right.
// The runs partition the line exactly: joining their Text gives the line back.
func Segment(line string) []Run {
	if line == "" {
		return nil
	}

	var runs []Run
	start := 0
	current := Other
	for i, r := range line {
		class := Classify(r)
		if i == 0 {
			current = class
			continue
		}
		if class != current {
			runs = append(runs, Run{Start: start, End: i, Class: current, Text: line[start:i]})
			start = i
			current = class
		}
	}
	runs = append(runs, Run{Start: start, End: len(line), Class: current, Text: line[start:]})

	return runs
}

// Join concatenates the literal text of runs in order
func Join(runs []Run) string {
	switch len(runs) {
	case 0:
		return ""
	case 1:
		return runs[0].Text
	}

	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}
