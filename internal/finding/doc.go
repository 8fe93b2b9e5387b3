// Package finding defines the Finding value type and the consolidation rules
// that merge findings repeated on adjacent lines into a single finding.
//
// Two findings are consecutive when their rule, priority, message and URL are
// identical and one range starts exactly one line after the other ends.
// [GroupConsecutive] walks findings in report order and folds every maximal
// run of consecutive findings into one finding spanning the whole run.
//
// The package is pure: no I/O, no shared state, safe for concurrent use.
package finding
