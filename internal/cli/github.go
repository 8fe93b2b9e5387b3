package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/pmdreview/internal/github"
	"github.com/dshills/pmdreview/internal/output"
	"github.com/dshills/pmdreview/internal/review"
)

var (
	flagGHOwner  string
	flagGHRepo   string
	flagGHDryRun bool
)

var githubCmd = &cobra.Command{
	Use:   "github <pr-number>",
	Short: "Review a GitHub pull request",
	Long:  "Download a PR's changed files at its head commit, run PMD on them, and post the comments as a PR review.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil || prNumber < 1 {
			fail(ExitUsageError, fmt.Errorf("invalid PR number %q", args[0]))
			return nil
		}

		cfg, err := loadConfig(buildOverrides())
		if err != nil {
			return err
		}
		start := time.Now()
		log := newLogger(cfg)
		defer log.Sync()

		// Detect owner/repo if not provided
		owner, repo := flagGHOwner, flagGHRepo
		if owner == "" || repo == "" {
			detected, detectedRepo, err := github.DetectRepo()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\nUse --owner and --repo flags to specify manually.\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			if owner == "" {
				owner = detected
			}
			if repo == "" {
				repo = detectedRepo
			}
		}

		ghClient, err := github.NewClient(log)
		if err != nil {
			fail(ExitAuthError, err)
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Fprintf(os.Stderr, "Fetching PR #%d from %s/%s...\n", prNumber, owner, repo)
		change, err := ghClient.LoadPR(ctx, owner, repo, prNumber, buildSourceOpts(cfg).Match)
		if err != nil {
			fail(apiExitCode(err), err)
			return nil
		}
		defer change.Cleanup()

		files := make([]review.File, len(change.Files))
		for i, f := range change.Files {
			files[i] = f
		}
		results, setupErr := analyzeFiles(ctx, cfg, log, files)

		report := review.NewReport(version,
			review.RepoInfo{Head: change.PR.Head.SHA, Branch: change.PR.Head.Ref},
			review.InputInfo{Mode: "github-pr", Range: fmt.Sprintf("#%d", prNumber), Rulesets: cfg.Rulesets},
			results, start)

		if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
			fail(ExitRuntimeError, fmt.Errorf("writing output: %w", err))
			return nil
		}
		if setupErr != nil {
			fail(ExitRuntimeError, setupErr)
			return nil
		}

		if flagGHDryRun {
			fmt.Fprintf(os.Stderr, "Dry run: %d comments found, not posting to GitHub.\n", report.Summary.Comments)
		} else {
			ghReview := github.BuildGitHubReview(report, change.Hunks, change.PR.Head.SHA)
			fmt.Fprintf(os.Stderr, "Posting review (%d inline comments)...\n", len(ghReview.Comments))

			if err := ghClient.PostReview(ctx, owner, repo, prNumber, ghReview); err != nil {
				fail(apiExitCode(err), err)
				return nil
			}
			fmt.Fprintf(os.Stderr, "Review posted to PR #%d.\n", prNumber)
		}

		if cfg.FailOnIssues && report.HasIssues() {
			exitCode = ExitFindings
		}
		return nil
	},
}

func apiExitCode(err error) int {
	if github.IsAuthError(err) {
		return ExitAuthError
	}
	return ExitRuntimeError
}

func init() {
	addReviewFlags(githubCmd)
	githubCmd.Flags().StringVar(&flagGHOwner, "owner", "", "GitHub repository owner (auto-detected if omitted)")
	githubCmd.Flags().StringVar(&flagGHRepo, "repo", "", "GitHub repository name (auto-detected if omitted)")
	githubCmd.Flags().BoolVar(&flagGHDryRun, "dry-run", false, "Run review but don't post to GitHub")
}
