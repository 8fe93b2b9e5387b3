// Package output formats review reports for display or machine consumption.
//
// Four formats are supported:
//   - text     (human-readable terminal output, the default)
//   - json     (full structured JSON report)
//   - markdown (PR-comment-friendly, one collapsible section per file)
//   - sarif    (SARIF v2.1.0 for upload to GitHub code scanning and other CI tools)
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*review.Report]. [WriteReport]
// handles destination selection.
package output
