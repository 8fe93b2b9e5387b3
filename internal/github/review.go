package github

import (
	"fmt"
	"strings"

	"github.com/dshills/pmdreview/internal/review"
)

const (
	EventComment        = "COMMENT"
	EventRequestChanges = "REQUEST_CHANGES"
)

// BuildGitHubReview converts a report into a PR review request. hunks maps
// each PR file to its diff hunks; comments outside them are listed in the
// review body instead. The review requests changes when any comment opened
// an issue.
func BuildGitHubReview(report *review.Report, hunks map[string][]LineRange, commitSHA string) ReviewRequest {
	var bodyComments []string
	comments := []ReviewComment{}

	for _, c := range report.Comments() {
		if !Within(hunks[c.Path], c.FirstLine, c.LastLine()) {
			bodyComments = append(bodyComments, formatBodyComment(c))
			continue
		}
		rc := ReviewComment{
			Path: c.Path,
			Line: c.LastLine(),
			Side: "RIGHT",
			Body: c.Text,
		}
		if c.NumLines > 1 {
			rc.StartLine = c.FirstLine
			rc.StartSide = "RIGHT"
		}
		comments = append(comments, rc)
	}

	event := EventComment
	if report.HasIssues() {
		event = EventRequestChanges
	}

	s := report.Summary
	var sb strings.Builder
	sb.WriteString("## PMD Review\n\n")
	fmt.Fprintf(&sb, "Analyzed %d of %d files: %d comments, %d issues.\n\n", s.Processed, s.Files, s.Comments, s.Issues)

	if len(bodyComments) > 0 {
		sb.WriteString("### Outside the diff\n\n")
		for _, c := range bodyComments {
			sb.WriteString(c)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	var ignored []string
	for _, f := range report.Files {
		if f.Status == review.StatusIgnored && f.Reason != review.ErrUnsupported.Error() {
			ignored = append(ignored, fmt.Sprintf("- `%s`: %s", f.Path, f.Reason))
		}
	}
	if len(ignored) > 0 {
		sb.WriteString("### Ignored files\n\n")
		sb.WriteString(strings.Join(ignored, "\n"))
		sb.WriteString("\n")
	}

	return ReviewRequest{
		CommitID: commitSHA,
		Body:     sb.String(),
		Event:    event,
		Comments: comments,
	}
}

func formatBodyComment(c review.Comment) string {
	loc := fmt.Sprintf("%d", c.FirstLine)
	if c.NumLines > 1 {
		loc = fmt.Sprintf("%d-%d", c.FirstLine, c.LastLine())
	}
	text := strings.ReplaceAll(c.Text, "\n\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return fmt.Sprintf("- `%s:%s` %s", c.Path, loc, text)
}
