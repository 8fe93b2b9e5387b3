package review

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/dshills/pmdreview/internal/finding"
)

// Tool is the name reported in every Report.
const Tool = "pmdreview"

// TextFormat selects how a comment body is rendered.
type TextFormat string

const (
	Plain    TextFormat = "plain"
	Markdown TextFormat = "markdown"
)

// FormatFor maps the markdown switch to a TextFormat.
func FormatFor(markdown bool) TextFormat {
	if markdown {
		return Markdown
	}
	return Plain
}

// Comment is one inline review comment anchored to a line range.
type Comment struct {
	Path      string           `json:"path"`
	FirstLine int              `json:"firstLine"`
	NumLines  int              `json:"numLines"`
	Text      string           `json:"text"`
	Issue     bool             `json:"issueOpened"`
	Format    TextFormat       `json:"textType"`
	Rule      string           `json:"rule"`
	Priority  finding.Priority `json:"priority"`
	URL       string           `json:"url,omitempty"`
}

// LastLine returns the last line covered by the comment.
func (c Comment) LastLine() int {
	return c.FirstLine + c.NumLines - 1
}

// FileStatus records what happened to one file.
type FileStatus string

const (
	StatusProcessed FileStatus = "processed"
	StatusIgnored   FileStatus = "ignored"
)

// FileResult is the outcome of reviewing one file.
type FileResult struct {
	Path      string     `json:"path"`
	Status    FileStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	Cached    bool       `json:"cached,omitempty"`
	Comments  []Comment  `json:"comments"`
	ElapsedMs int64      `json:"elapsedMs"`
}

// Issues returns the number of comments that open an issue.
func (r FileResult) Issues() int {
	n := 0
	for _, c := range r.Comments {
		if c.Issue {
			n++
		}
	}
	return n
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root,omitempty"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// InputInfo describes what was reviewed.
type InputInfo struct {
	Mode     string   `json:"mode"`
	Range    string   `json:"range,omitempty"`
	Rulesets []string `json:"rulesets,omitempty"`
}

// Summary provides an overview of a run.
type Summary struct {
	Files     int `json:"files"`
	Processed int `json:"processed"`
	Ignored   int `json:"ignored"`
	Comments  int `json:"comments"`
	Issues    int `json:"issues"`
	// HighestPriority is the most severe priority seen, 0 when there are no
	// comments.
	HighestPriority finding.Priority `json:"highestPriority,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	AnalyzeMs int64 `json:"analyzeMs"`
	TotalMs   int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool    string       `json:"tool"`
	Version string       `json:"version"`
	RunID   string       `json:"runId"`
	Repo    RepoInfo     `json:"repo"`
	Inputs  InputInfo    `json:"inputs"`
	Summary Summary      `json:"summary"`
	Files   []FileResult `json:"files"`
	Timing  Timing       `json:"timing"`
}

// NewReport assembles a Report from per-file results.
func NewReport(version string, repo RepoInfo, inputs InputInfo, files []FileResult, start time.Time) *Report {
	if files == nil {
		files = []FileResult{}
	}
	var analyzeMs int64
	for _, f := range files {
		analyzeMs += f.ElapsedMs
	}
	return &Report{
		Tool:    Tool,
		Version: version,
		RunID:   generateRunID(),
		Repo:    repo,
		Inputs:  inputs,
		Summary: ComputeSummary(files),
		Files:   files,
		Timing: Timing{
			AnalyzeMs: analyzeMs,
			TotalMs:   time.Since(start).Milliseconds(),
		},
	}
}

// Comments returns every comment in file order.
func (r *Report) Comments() []Comment {
	var all []Comment
	for _, f := range r.Files {
		all = append(all, f.Comments...)
	}
	return all
}

// HasIssues reports whether any comment opened an issue.
func (r *Report) HasIssues() bool {
	return r.Summary.Issues > 0
}

// ComputeSummary calculates the summary from file results.
func ComputeSummary(files []FileResult) Summary {
	s := Summary{Files: len(files)}
	for _, f := range files {
		switch f.Status {
		case StatusProcessed:
			s.Processed++
		case StatusIgnored:
			s.Ignored++
		}
		for _, c := range f.Comments {
			s.Comments++
			if c.Issue {
				s.Issues++
			}
			if s.HighestPriority == 0 || c.Priority < s.HighestPriority {
				s.HighestPriority = c.Priority
			}
		}
	}
	return s
}

func generateRunID() string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	return fmt.Sprintf("%x", h[:16])
}
