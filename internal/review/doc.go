// Package review turns PMD findings into inline review comments.
//
// The Engine runs an Analyzer (the PMD runner) over each changed file with
// bounded concurrency, consolidates repeated findings on adjacent lines with
// finding.GroupConsecutive, renders each consolidated finding as plain text
// or markdown, decides whether it opens an issue, and hands the resulting
// Comment to a Sink. Per-file failures never stop the run: the file is
// recorded as ignored with a reason and the others continue.
//
// Report, FileResult and Summary are the structures consumed by the output
// writers and the GitHub poster.
package review
