package pmd

import "fmt"

// SetupError reports an unusable PMD installation or configuration.
type SetupError struct {
	Msg string
}

func (e *SetupError) Error() string {
	return "pmd setup: " + e.Msg
}

// RunError reports a failed PMD invocation.
type RunError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RunError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("error running PMD (exit %d): %v\ncommand output:\n%s", e.ExitCode, e.Err, e.Stderr)
	}
	return fmt.Sprintf("error running PMD (exit %d): %v", e.ExitCode, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// ParseError reports a report that is malformed or does not describe the
// analyzed file.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid PMD report: %s: %v", e.Msg, e.Err)
	}
	return "invalid PMD report: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }
