package pmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/pmdreview/internal/finding"
)

// DefaultTimeout bounds a single PMD invocation.
const DefaultTimeout = 2 * time.Minute

// exitViolations is PMD's exit status when the analysis succeeded and found
// at least one violation.
const exitViolations = 4

// Options configures a Runner.
type Options struct {
	InstallPath string
	Rulesets    []string
	Timeout     time.Duration
}

// Runner invokes the PMD command-line tool.
type Runner struct {
	script   string
	rulesets []string
	timeout  time.Duration
}

// NewRunner validates opts and locates the PMD launcher script.
func NewRunner(opts Options) (*Runner, error) {
	script := ScriptPath(opts.InstallPath)
	info, err := os.Stat(script)
	if err != nil || info.IsDir() {
		return nil, &SetupError{Msg: fmt.Sprintf("could not find valid PMD executable at '%s'", script)}
	}

	rulesets := uniqueRulesets(opts.Rulesets)
	if len(rulesets) == 0 {
		return nil, &SetupError{Msg: "no PMD rulesets configured"}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Runner{
		script:   script,
		rulesets: rulesets,
		timeout:  timeout,
	}, nil
}

// ScriptPath returns the launcher path for a PMD installation directory.
func ScriptPath(installPath string) string {
	return filepath.Join(installPath, "bin", "run.sh")
}

// Rulesets returns the deduplicated rulesets passed to PMD.
func (r *Runner) Rulesets() []string {
	return append([]string(nil), r.rulesets...)
}

// Script returns the resolved launcher path.
func (r *Runner) Script() string {
	return r.script
}

// CheckDependencies reports whether the Java runtime PMD needs is on PATH.
func CheckDependencies() error {
	if _, err := exec.LookPath("java"); err != nil {
		return fmt.Errorf("java executable not found in PATH: %w", err)
	}
	return nil
}

// Analyze runs PMD on sourcePath and returns its findings in report order.
func (r *Runner) Analyze(ctx context.Context, sourcePath string) ([]finding.Finding, error) {
	reportPath, err := r.Run(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	defer os.Remove(reportPath)

	return ParseReportFile(reportPath, sourcePath)
}

// Run executes PMD on sourcePath and returns the path of the XML report.
// The caller owns the report file.
func (r *Runner) Run(ctx context.Context, sourcePath string) (string, error) {
	tmp, err := os.CreateTemp("", "pmdreview-*.xml")
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	reportPath := tmp.Name()
	tmp.Close()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.script, r.args(sourcePath, reportPath)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err = cmd.Run()
	if ctx.Err() != nil {
		os.Remove(reportPath)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &RunError{ExitCode: -1, Stderr: stderr.String(), Err: fmt.Errorf("timed out after %s", r.timeout)}
		}
		return "", &RunError{ExitCode: -1, Stderr: stderr.String(), Err: ctx.Err()}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == exitViolations {
			return reportPath, nil
		}
		os.Remove(reportPath)
		code := -1
		if exitErr != nil {
			code = exitErr.ExitCode()
		}
		return "", &RunError{ExitCode: code, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return reportPath, nil
}

func (r *Runner) args(sourcePath, reportPath string) []string {
	return []string{
		"pmd",
		"-d", sourcePath,
		"-R", strings.Join(r.rulesets, ","),
		"-f", "xml",
		"-r", reportPath,
	}
}

func uniqueRulesets(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// Supported reports whether path has one of the given extensions, compared
// case-insensitively.
func Supported(path string, extensions []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range extensions {
		if ext != "" && strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// DefaultExtensions are the file types PMD's default language modules handle.
var DefaultExtensions = []string{".java", ".js", ".xml", ".xsl"}
