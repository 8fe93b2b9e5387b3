package pmd

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dshills/pmdreview/internal/finding"
)

// xmlReport mirrors PMD's XML renderer output. Tags carry no namespace so
// both the namespaced 2.0.0 format and older unqualified reports decode.
type xmlReport struct {
	XMLName xml.Name   `xml:"pmd"`
	Version string     `xml:"version,attr"`
	Files   []xmlFile  `xml:"file"`
	Errors  []xmlError `xml:"error"`
}

type xmlFile struct {
	Name       string         `xml:"name,attr"`
	Violations []xmlViolation `xml:"violation"`
}

type xmlViolation struct {
	BeginLine       string `xml:"beginline,attr"`
	EndLine         string `xml:"endline,attr"`
	Rule            string `xml:"rule,attr"`
	RuleSet         string `xml:"ruleset,attr"`
	Priority        string `xml:"priority,attr"`
	ExternalInfoURL string `xml:"externalInfoUrl,attr"`
	Text            string `xml:",chardata"`
}

type xmlError struct {
	Filename string `xml:"filename,attr"`
	Msg      string `xml:"msg,attr"`
}

// ParseReportFile parses the PMD report at reportPath. See ParseReport.
func ParseReportFile(reportPath, sourcePath string) ([]finding.Finding, error) {
	f, err := os.Open(reportPath)
	if err != nil {
		return nil, fmt.Errorf("opening PMD report: %w", err)
	}
	defer f.Close()
	return ParseReport(f, sourcePath)
}

// ParseReport decodes a PMD XML report that was produced for exactly one
// source file and returns its violations in report order.
//
// A report without any <file> element means the file had no violations.
// A report naming more than one file, or a different file, is rejected.
func ParseReport(r io.Reader, sourcePath string) ([]finding.Finding, error) {
	var doc xmlReport
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Msg: "decoding XML", Err: err}
	}

	for _, e := range doc.Errors {
		if e.Filename == "" || samePath(e.Filename, sourcePath) {
			return nil, &ParseError{Msg: fmt.Sprintf("PMD failed to process %s: %s", sourcePath, strings.TrimSpace(e.Msg))}
		}
	}

	switch len(doc.Files) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, &ParseError{Msg: fmt.Sprintf("report should contain results for one and only one file, got %d", len(doc.Files))}
	}

	file := doc.Files[0]
	if !samePath(file.Name, sourcePath) {
		return nil, &ParseError{Msg: fmt.Sprintf("report does not contain results for file %s (got %s)", sourcePath, file.Name)}
	}

	findings := make([]finding.Finding, 0, len(file.Violations))
	for i, v := range file.Violations {
		f, err := v.toFinding()
		if err != nil {
			return nil, &ParseError{Msg: fmt.Sprintf("violation %d (%s)", i+1, v.Rule), Err: err}
		}
		findings = append(findings, f)
	}
	return findings, nil
}

func (v xmlViolation) toFinding() (finding.Finding, error) {
	first, err := strconv.Atoi(strings.TrimSpace(v.BeginLine))
	if err != nil {
		return finding.Finding{}, fmt.Errorf("beginline: %w", err)
	}
	last, err := strconv.Atoi(strings.TrimSpace(v.EndLine))
	if err != nil {
		return finding.Finding{}, fmt.Errorf("endline: %w", err)
	}
	if first < 1 || last < first {
		return finding.Finding{}, fmt.Errorf("invalid line range %d-%d", first, last)
	}
	p, err := strconv.Atoi(strings.TrimSpace(v.Priority))
	if err != nil {
		return finding.Finding{}, fmt.Errorf("priority: %w", err)
	}
	priority := finding.Priority(p)
	if !priority.Valid() {
		return finding.Finding{}, fmt.Errorf("priority %d out of range [%d, %d]", p, finding.PriorityMin, finding.PriorityMax)
	}
	return finding.Finding{
		Rule:      v.Rule,
		Priority:  priority,
		Message:   strings.TrimSpace(v.Text),
		URL:       v.ExternalInfoURL,
		FirstLine: first,
		LastLine:  last,
	}, nil
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
