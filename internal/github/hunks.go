package github

import (
	"regexp"
	"strconv"
	"strings"
)

// LineRange is an inclusive range of new-side line numbers.
type LineRange struct {
	Start int
	End   int
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ParseHunks returns the new-side line ranges covered by a unified diff
// patch, one per hunk. These are the lines GitHub accepts review comments on.
func ParseHunks(patch string) []LineRange {
	var ranges []LineRange
	for _, line := range strings.Split(patch, "\n") {
		m := hunkHeaderRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, _ := strconv.Atoi(m[1])
		count := 1
		if m[2] != "" {
			count, _ = strconv.Atoi(m[2])
		}
		if count == 0 {
			continue // pure deletion
		}
		ranges = append(ranges, LineRange{Start: start, End: start + count - 1})
	}
	return ranges
}

// Within reports whether [first, last] lies inside a single hunk.
func Within(ranges []LineRange, first, last int) bool {
	for _, r := range ranges {
		if first >= r.Start && last <= r.End {
			return true
		}
	}
	return false
}
