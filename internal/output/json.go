package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/pmdreview/internal/review"
)

// JSONWriter outputs the full report as indented JSON. Every ignored file,
// unsupported ones included, is kept.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *review.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	// PMD messages quote generics and markdown bodies carry links; keep
	// <, > and & readable instead of \u003c escapes.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return nil
}
