package finding

import (
	"errors"
	"fmt"
)

// ErrInvalidMerge is returned by Combine when the two findings are not
// consecutive.
var ErrInvalidMerge = errors.New("cannot combine non-consecutive findings")

// Priority is a PMD rule priority. 1 is the most severe, 5 the least.
type Priority int

const (
	PriorityMin Priority = 1
	PriorityMax Priority = 5
)

// Valid reports whether p lies in [PriorityMin, PriorityMax].
func (p Priority) Valid() bool {
	return p >= PriorityMin && p <= PriorityMax
}

// Finding is one reported problem at a line range of a single file.
// Line numbers are 1-based and inclusive.
type Finding struct {
	Rule      string   `json:"rule"`
	Priority  Priority `json:"priority"`
	Message   string   `json:"message"`
	URL       string   `json:"url"`
	FirstLine int      `json:"firstLine"`
	LastLine  int      `json:"lastLine"`
}

// NumLines returns the number of lines covered by f.
func (f Finding) NumLines() int {
	return f.LastLine - f.FirstLine + 1
}

// SameIssue reports whether f and o carry identical content. Location is
// ignored.
func (f Finding) SameIssue(o Finding) bool {
	return f.Rule == o.Rule &&
		f.Priority == o.Priority &&
		f.Message == o.Message &&
		f.URL == o.URL
}

// Adjacent reports whether one range starts exactly one line after the other
// ends, in either order.
func (f Finding) Adjacent(o Finding) bool {
	return f.FirstLine == o.LastLine+1 || o.FirstLine == f.LastLine+1
}

// IsConsecutive reports whether f and o are the same issue on adjacent lines.
func (f Finding) IsConsecutive(o Finding) bool {
	return f.SameIssue(o) && f.Adjacent(o)
}

// Combine merges two consecutive findings into one spanning both ranges.
// Content fields are taken from f.
func (f Finding) Combine(o Finding) (Finding, error) {
	if !f.IsConsecutive(o) {
		return Finding{}, fmt.Errorf("%w: %s at %d-%d and %s at %d-%d", ErrInvalidMerge,
			f.Rule, f.FirstLine, f.LastLine, o.Rule, o.FirstLine, o.LastLine)
	}
	return f.span(o), nil
}

// span returns f widened to cover o. Callers must have checked SameIssue.
func (f Finding) span(o Finding) Finding {
	merged := f
	merged.FirstLine = min(f.FirstLine, o.FirstLine)
	merged.LastLine = max(f.LastLine, o.LastLine)
	return merged
}

// GroupConsecutive folds every maximal run of consecutive findings into a
// single finding. Each finding is compared with its immediate predecessor in
// the input, not with the merged run so far. Input order is preserved and
// never re-sorted.
func GroupConsecutive(findings []Finding) []Finding {
	if len(findings) == 0 {
		return []Finding{}
	}

	grouped := make([]Finding, 0, len(findings))
	start := 0
	for i := 1; i <= len(findings); i++ {
		if i < len(findings) && findings[i].IsConsecutive(findings[i-1]) {
			continue
		}
		grouped = append(grouped, foldRun(findings[start:i]))
		start = i
	}
	return grouped
}

// foldRun merges a validated run left to right. Every member shares the
// first member's content, so the span union cannot fail even when the run
// is not in line order.
func foldRun(run []Finding) Finding {
	merged := run[0]
	for _, f := range run[1:] {
		merged = merged.span(f)
	}
	return merged
}
