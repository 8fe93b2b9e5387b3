package finding

import "fmt"

// Comparison selects how a priority is compared against the issue threshold.
type Comparison string

const (
	// AtMost opens an issue when priority <= threshold. This matches PMD,
	// where 1 is the most severe priority.
	AtMost Comparison = "lte"
	// AtLeast opens an issue when priority >= threshold.
	AtLeast Comparison = "gte"
)

// ParseComparison validates a comparison name. Empty selects AtMost.
func ParseComparison(s string) (Comparison, error) {
	switch Comparison(s) {
	case "", AtMost:
		return AtMost, nil
	case AtLeast:
		return AtLeast, nil
	default:
		return "", fmt.Errorf("unknown issue comparison %q (want %q or %q)", s, AtMost, AtLeast)
	}
}

// IssuePolicy decides whether a finding is flagged as an issue rather than a
// passive comment.
type IssuePolicy struct {
	Enabled    bool
	Threshold  Priority
	Comparison Comparison
}

// Opens reports whether a finding with priority p should open an issue.
func (ip IssuePolicy) Opens(p Priority) bool {
	if !ip.Enabled {
		return false
	}
	if ip.Comparison == AtLeast {
		return p >= ip.Threshold
	}
	return p <= ip.Threshold
}
