package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/pmdreview/internal/cache"
	"github.com/dshills/pmdreview/internal/config"
	"github.com/dshills/pmdreview/internal/gitctx"
	"github.com/dshills/pmdreview/internal/output"
	"github.com/dshills/pmdreview/internal/pmd"
	"github.com/dshills/pmdreview/internal/review"
)

// Shared review flags
var (
	flagPaths        string
	flagExclude      string
	flagFormat       string
	flagOut          string
	flagRulesets     string
	flagPMDPath      string
	flagMarkdown     bool
	flagFailOnIssues bool
	flagMaxPriority  int
	flagConcurrency  int
	flagNoCache      bool
	flagNoRedact     bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagRulesets, "rulesets", "", "PMD rulesets (comma-separated)")
	cmd.Flags().StringVar(&flagPMDPath, "pmd", "", "PMD installation directory")
	cmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Render comments as markdown")
	cmd.Flags().BoolVar(&flagFailOnIssues, "fail-on-issues", false, "Exit 1 when any comment opens an issue")
	cmd.Flags().IntVar(&flagMaxPriority, "max-priority", 0, "Open issues for violations at or above this priority (1-5)")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Number of files analyzed in parallel")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the PMD result cache")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagRulesets != "" {
		m["rulesets"] = flagRulesets
	}
	if flagPMDPath != "" {
		m["pmdInstallPath"] = flagPMDPath
	}
	if flagMarkdown {
		m["markdown"] = "true"
	}
	if flagFailOnIssues {
		m["failOnIssues"] = "true"
	}
	if flagMaxPriority > 0 {
		m["maxPriorityForIssue"] = strconv.Itoa(flagMaxPriority)
	}
	if flagConcurrency > 0 {
		m["concurrency"] = strconv.Itoa(flagConcurrency)
	}
	if flagNoCache {
		m["cache.enabled"] = "false"
	}
	if flagNoRedact {
		m["privacy.redactSecrets"] = "false"
	}
	return m
}

func buildSourceOpts(cfg config.Config) gitctx.Options {
	opts := gitctx.Options{
		Include: cfg.Include,
		Exclude: cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = config.SplitList(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(append([]string(nil), opts.Exclude...), config.SplitList(flagExclude)...)
	}
	return opts
}

// newEngine builds the PMD runner and review engine for cfg. Only
// *pmd.SetupError is returned, and it means no file can be analyzed.
func newEngine(cfg config.Config, log *zap.SugaredLogger) (*review.Engine, error) {
	if err := pmd.CheckDependencies(); err != nil {
		log.Warnw("PMD dependencies missing", "error", err)
	}
	runner, err := pmd.NewRunner(pmd.Options{
		InstallPath: cfg.PMDInstallPath,
		Rulesets:    cfg.Rulesets,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		log.Warnw("Cache unavailable, continuing without it", "error", err)
		c = nil
	}

	return review.NewEngine(runner, c, review.Options{
		Format:      review.FormatFor(cfg.Markdown),
		Policy:      cfg.IssuePolicy(),
		Extensions:  cfg.Extensions,
		Concurrency: cfg.Concurrency,
		Redact:      cfg.Privacy.RedactSecrets,
		CacheScope:  cache.ScopeOf(cfg.PMDInstallPath, runner.Rulesets()),
	}, log), nil
}

// analyzeFiles reviews files with PMD. When PMD cannot be set up every file
// is reported as ignored and the setup error is returned alongside.
func analyzeFiles(ctx context.Context, cfg config.Config, log *zap.SugaredLogger, files []review.File) ([]review.FileResult, error) {
	engine, err := newEngine(cfg, log)
	if err != nil {
		log.Errorw("PMD setup failed, ignoring all files", "error", err)
		return review.IgnoreAll(files, err.Error()), err
	}
	return engine.HandleFiles(ctx, files), nil
}

func runReview(cs *gitctx.ChangeSet, cfg config.Config) {
	defer cs.Cleanup()
	start := time.Now()

	log := newLogger(cfg)
	defer log.Sync()

	if !cfg.Privacy.RedactSecrets {
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	files := make([]review.File, len(cs.Files))
	for i, f := range cs.Files {
		files[i] = f
	}
	results, setupErr := analyzeFiles(ctx, cfg, log, files)

	report := review.NewReport(version,
		review.RepoInfo{Root: cs.Repo.Root, Head: cs.Repo.Head, Branch: cs.Repo.Branch},
		review.InputInfo{Mode: cs.Mode, Range: cs.Range, Rulesets: cfg.Rulesets},
		results, start)

	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fail(ExitRuntimeError, fmt.Errorf("writing output: %w", err))
		return
	}
	if setupErr != nil {
		fail(ExitRuntimeError, setupErr)
		return
	}
	if cfg.FailOnIssues && report.HasIssues() {
		exitCode = ExitFindings
	}
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Run PMD on changed files and report consolidated violations. Use subcommands to specify what to review.",
}

// sourceCmd builds a review subcommand that collects files with load.
func sourceCmd(use, short string, posArgs cobra.PositionalArgs, load func(args []string, opts gitctx.Options) (*gitctx.ChangeSet, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  posArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(buildOverrides())
			if err != nil {
				return err
			}
			cs, err := load(args, buildSourceOpts(cfg))
			if err != nil {
				fail(ExitRuntimeError, err)
				return nil
			}
			runReview(cs, cfg)
			return nil
		},
	}
	addReviewFlags(cmd)
	return cmd
}

var (
	reviewUnstagedCmd = sourceCmd("unstaged", "Review unstaged changes (working tree vs index)", cobra.NoArgs,
		func(_ []string, opts gitctx.Options) (*gitctx.ChangeSet, error) { return gitctx.Unstaged(opts) })

	reviewStagedCmd = sourceCmd("staged", "Review staged changes (index vs HEAD)", cobra.NoArgs,
		func(_ []string, opts gitctx.Options) (*gitctx.ChangeSet, error) { return gitctx.Staged(opts) })

	reviewCommitCmd = sourceCmd("commit <sha>", "Review the files changed by a commit", cobra.ExactArgs(1),
		func(args []string, opts gitctx.Options) (*gitctx.ChangeSet, error) { return gitctx.Commit(args[0], opts) })

	reviewRangeCmd = sourceCmd("range <revRange>", "Review a revision range (e.g., origin/main..HEAD)", cobra.ExactArgs(1),
		func(args []string, opts gitctx.Options) (*gitctx.ChangeSet, error) { return gitctx.Range(args[0], opts) })

	reviewFilesCmd = sourceCmd("files <path>...", "Review the given files", cobra.MinimumNArgs(1),
		func(args []string, opts gitctx.Options) (*gitctx.ChangeSet, error) { return gitctx.Files(args, opts) })

	reviewTrackedCmd = sourceCmd("tracked", "Review all tracked files in the repository", cobra.NoArgs,
		func(_ []string, opts gitctx.Options) (*gitctx.ChangeSet, error) { return gitctx.Tracked(opts) })
)

func init() {
	reviewCmd.AddCommand(reviewUnstagedCmd)
	reviewCmd.AddCommand(reviewStagedCmd)
	reviewCmd.AddCommand(reviewCommitCmd)
	reviewCmd.AddCommand(reviewRangeCmd)
	reviewCmd.AddCommand(reviewFilesCmd)
	reviewCmd.AddCommand(reviewTrackedCmd)
}
