package output

import (
	"io"
	"strings"

	"github.com/dshills/pmdreview/internal/finding"
	"github.com/dshills/pmdreview/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("## PMD Review\n\n")

	counts := priorityCounts(report)
	ew.printf("| Priority | Count |\n")
	ew.printf("|----------|-------|\n")
	for p := finding.PriorityMin; p <= finding.PriorityMax; p++ {
		ew.printf("| %d        | %d    |\n", p, counts[p])
	}
	ew.printf("| **Total** | **%d** |\n\n", s.Comments)

	if s.Comments == 0 {
		ew.println("No violations found. :white_check_mark:")
		writeIgnored(ew, report)
		return ew.err
	}

	for _, f := range report.Files {
		if len(f.Comments) == 0 {
			continue
		}
		ew.printf("<details>\n<summary>%s <code>%s</code> (%d)</summary>\n\n",
			mdFileIcon(f), f.Path, len(f.Comments))
		for _, c := range f.Comments {
			ew.printf("**`%s:%s`** | priority %d", f.Path, lineSpan(c), c.Priority)
			if c.Issue {
				ew.printf(" | :warning: issue")
			}
			ew.printf("\n\n")
			ew.printf("%s\n\n", mdBody(c))
		}
		ew.printf("</details>\n\n")
	}

	writeIgnored(ew, report)

	ew.printf("*Reviewed in %dms (PMD: %dms)*\n", report.Timing.TotalMs, report.Timing.AnalyzeMs)
	return ew.err
}

// mdBody returns the comment as markdown. Plain comments are quoted so their
// "More info" line stays readable.
func mdBody(c review.Comment) string {
	if c.Format == review.Markdown {
		return c.Text
	}
	return "> " + strings.ReplaceAll(c.Text, "\n", "\n> ")
}

func mdFileIcon(f review.FileResult) string {
	if f.Issues() > 0 {
		return ":red_circle:"
	}
	return ":yellow_circle:"
}

func writeIgnored(ew *errWriter, report *review.Report) {
	first := true
	for _, f := range report.Files {
		if f.Status != review.StatusIgnored || f.Reason == review.ErrUnsupported.Error() {
			continue
		}
		if first {
			ew.printf("**Ignored files**\n\n")
			first = false
		}
		ew.printf("- `%s`: %s\n", f.Path, f.Reason)
	}
	if !first {
		ew.printf("\n")
	}
}
