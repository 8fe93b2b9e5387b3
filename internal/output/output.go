package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/pmdreview/internal/finding"
	"github.com/dshills/pmdreview/internal/review"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *review.Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *review.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}

// priorityCounts returns comment counts indexed by priority. Index 0 is
// unused.
func priorityCounts(report *review.Report) [finding.PriorityMax + 1]int {
	var counts [finding.PriorityMax + 1]int
	for _, c := range report.Comments() {
		if c.Priority.Valid() {
			counts[c.Priority]++
		}
	}
	return counts
}

func lineSpan(c review.Comment) string {
	if c.NumLines <= 1 {
		return fmt.Sprintf("%d", c.FirstLine)
	}
	return fmt.Sprintf("%d-%d", c.FirstLine, c.LastLine())
}
