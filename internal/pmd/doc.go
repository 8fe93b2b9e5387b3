// Package pmd runs the PMD command-line analyzer on a single source file and
// parses its XML report into findings.
//
// A Runner wraps PMD's launcher script (<install>/bin/run.sh). Each call to
// [Runner.Analyze] writes the report to a temporary file, waits for PMD with
// a timeout, parses the report and removes the file again.
package pmd
