package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/pmdreview/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("PMD Review (%s mode)\n", report.Inputs.Mode)
	if report.Inputs.Range != "" {
		ew.printf("Range: %s\n", report.Inputs.Range)
	}
	if len(report.Inputs.Rulesets) > 0 {
		ew.printf("Rulesets: %s\n", strings.Join(report.Inputs.Rulesets, ", "))
	}
	if report.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", report.Repo.Root, report.Repo.Branch)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Files: %d (%d analyzed, %d ignored)\n", s.Files, s.Processed, s.Ignored)
	ew.printf("Comments: %d total, %d issues\n", s.Comments, s.Issues)
	ew.println(strings.Repeat("─", 60))

	for _, f := range report.Files {
		if len(f.Comments) == 0 {
			continue
		}
		ew.printf("\n%s\n", f.Path)
		for _, c := range f.Comments {
			marker := "   "
			if c.Issue {
				marker = "[!]"
			}
			ew.printf("  %s %s:%s  P%d %s\n", marker, f.Path, lineSpan(c), c.Priority, c.Rule)
			for _, line := range strings.Split(c.Text, "\n") {
				if strings.TrimSpace(line) == "" {
					continue
				}
				for _, wrapped := range wrapText(line, 70) {
					ew.printf("      %s\n", wrapped)
				}
			}
		}
	}

	if s.Comments == 0 {
		ew.println("\nNo violations found. Looks good!")
	}

	var ignored []review.FileResult
	for _, f := range report.Files {
		if f.Status == review.StatusIgnored && f.Reason != review.ErrUnsupported.Error() {
			ignored = append(ignored, f)
		}
	}
	if len(ignored) > 0 {
		ew.println("\nIgnored files:")
		for _, f := range ignored {
			ew.printf("  %s: %s\n", f.Path, f.Reason)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (PMD: %dms)\n", report.Timing.TotalMs, report.Timing.AnalyzeMs)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
