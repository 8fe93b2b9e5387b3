package review

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/pmdreview/internal/cache"
	"github.com/dshills/pmdreview/internal/finding"
	"github.com/dshills/pmdreview/internal/pmd"
	"github.com/dshills/pmdreview/internal/redact"
)

const defaultConcurrency = 4

// ErrUnsupported is returned by HandleFile for files PMD is not configured
// to analyze.
var ErrUnsupported = errors.New("unsupported file type")

// File is a changed file to review.
type File interface {
	// Path is the repository-relative path comments are anchored to.
	Path() string
	// PatchedPath returns a local path holding the file's new content. It
	// may materialize a fresh copy on every call.
	PatchedPath(ctx context.Context) (string, error)
}

// Analyzer produces findings for a single local file, in report order.
type Analyzer interface {
	Analyze(ctx context.Context, sourcePath string) ([]finding.Finding, error)
}

// Options configures an Engine.
type Options struct {
	Format      TextFormat
	Policy      finding.IssuePolicy
	Extensions  []string
	Concurrency int
	Redact      bool
	// CacheScope identifies the analyzer configuration in cache keys,
	// typically the PMD install path followed by the rulesets.
	CacheScope []string
}

// Engine reviews files with an Analyzer.
type Engine struct {
	analyzer Analyzer
	cache    *cache.Cache
	opts     Options
	log      *zap.SugaredLogger
}

// NewEngine returns an Engine. c may be nil to disable caching.
func NewEngine(a Analyzer, c *cache.Cache, opts Options, log *zap.SugaredLogger) *Engine {
	if opts.Format == "" {
		opts.Format = Plain
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = pmd.DefaultExtensions
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{analyzer: a, cache: c, opts: opts, log: log}
}

// HandleFiles reviews files concurrently and returns one result per file, in
// input order. Failures are recorded on the file's result.
func (e *Engine) HandleFiles(ctx context.Context, files []File) []FileResult {
	results := make([]FileResult, len(files))
	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			results[i] = e.handle(ctx, f)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Engine) handle(ctx context.Context, f File) FileResult {
	start := time.Now()
	var sink Collector
	res := FileResult{Path: f.Path(), Status: StatusProcessed}

	cached, err := e.handleFile(ctx, f, &sink)
	res.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Status = StatusIgnored
		res.Reason = err.Error()
		res.Comments = []Comment{}
		return res
	}
	res.Cached = cached
	res.Comments = sink.Comments
	if res.Comments == nil {
		res.Comments = []Comment{}
	}
	return res
}

// HandleFile analyzes one file and posts its comments to sink. A non-nil
// error means the file was ignored; it has already been logged.
func (e *Engine) HandleFile(ctx context.Context, f File, sink Sink) error {
	_, err := e.handleFile(ctx, f, sink)
	return err
}

func (e *Engine) handleFile(ctx context.Context, f File, sink Sink) (bool, error) {
	path := f.Path()
	if !pmd.Supported(path, e.opts.Extensions) {
		e.log.Debugw("Skipping unsupported file", "file", path)
		return false, ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	e.log.Debugw("PMD will start analyzing file", "file", path)
	// PatchedPath may hand out a new copy each call; resolve it once.
	src, err := f.PatchedPath(ctx)
	if err != nil {
		e.log.Warnw("Failed to get patched file, ignoring file", "file", path, "error", err)
		return false, fmt.Errorf("getting patched file: %w", err)
	}
	if src == "" {
		e.log.Warnw("No patched file available, ignoring file", "file", path)
		return false, fmt.Errorf("getting patched file: no content for %s", path)
	}

	findings, cached, err := e.analyze(ctx, path, src)
	if err != nil {
		e.log.Errorw("PMD analysis failed", "file", path, "error", err)
		return false, err
	}
	e.log.Infow("PMD detected violations", "file", path, "count", len(findings), "cached", cached)

	e.PostComments(path, findings, sink)
	return cached, nil
}

func (e *Engine) analyze(ctx context.Context, path, src string) ([]finding.Finding, bool, error) {
	if !e.cache.Enabled() {
		findings, err := e.analyzer.Analyze(ctx, src)
		return findings, false, err
	}

	content, err := os.ReadFile(src)
	if err != nil {
		return nil, false, fmt.Errorf("reading patched file: %w", err)
	}
	// PMD picks the language module from the file name, so it is part of the key.
	scope := append(slices.Clip(e.opts.CacheScope), filepath.Base(path))
	key := cache.BuildCacheKey(scope, content)
	if findings, ok := e.cache.Get(key); ok {
		return findings, true, nil
	}

	findings, err := e.analyzer.Analyze(ctx, src)
	if err != nil {
		return nil, false, err
	}
	if err := e.cache.Put(key, findings); err != nil {
		e.log.Warnw("Failed to cache PMD result", "error", err)
	}
	return findings, false, nil
}

// PostComments consolidates findings and emits one comment per consolidated
// finding to sink, in consolidation order. It returns the number of issues
// opened.
func (e *Engine) PostComments(path string, findings []finding.Finding, sink Sink) int {
	issues := 0
	for _, v := range finding.GroupConsecutive(findings) {
		text := Render(v, e.opts.Format)
		if e.opts.Redact {
			if kinds := redact.Detect(text); len(kinds) > 0 {
				e.log.Debugw("Redacted secrets from comment", "file", path, "rule", v.Rule, "kinds", kinds)
				text = redact.Secrets(text)
			}
		}
		open := e.opts.Policy.Opens(v.Priority)
		if open {
			e.log.Debugw("Opening issue for violation", "rule", v.Rule, "file", path)
			issues++
		}
		sink.AddComment(Comment{
			Path:      path,
			FirstLine: v.FirstLine,
			NumLines:  v.NumLines(),
			Text:      text,
			Issue:     open,
			Format:    e.opts.Format,
			Rule:      v.Rule,
			Priority:  v.Priority,
			URL:       v.URL,
		})
	}
	return issues
}

// IgnoreAll marks every file as ignored with the same reason. It is used when
// setup fails and no file can be analyzed.
func IgnoreAll(files []File, reason string) []FileResult {
	results := make([]FileResult, len(files))
	for i, f := range files {
		results[i] = FileResult{
			Path:     f.Path(),
			Status:   StatusIgnored,
			Reason:   reason,
			Comments: []Comment{},
		}
	}
	return results
}
