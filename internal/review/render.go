package review

import (
	"fmt"

	"github.com/dshills/pmdreview/internal/finding"
)

// Render formats a finding as a comment body.
//
//	plain:    "<rule>: <message>\n\nMore info: <url>"
//	markdown: "[<rule>](<url>): <message>"
func Render(f finding.Finding, format TextFormat) string {
	if format == Markdown {
		return fmt.Sprintf("[%s](%s): %s", f.Rule, f.URL, f.Message)
	}
	return fmt.Sprintf("%s: %s\n\nMore info: %s", f.Rule, f.Message, f.URL)
}
