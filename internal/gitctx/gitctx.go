package gitctx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Options controls which changed files are returned.
type Options struct {
	Include []string
	Exclude []string
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// ChangeSet is the list of files touched by a change.
type ChangeSet struct {
	Files []*ChangedFile
	Mode  string
	Range string
	Repo  RepoMeta

	workDir string
}

// Paths returns the repository-relative paths in the set.
func (cs *ChangeSet) Paths() []string {
	paths := make([]string, len(cs.Files))
	for i, f := range cs.Files {
		paths[i] = f.path
	}
	return paths
}

// Cleanup removes any content materialized for the set.
func (cs *ChangeSet) Cleanup() error {
	if cs.workDir == "" {
		return nil
	}
	return os.RemoveAll(cs.workDir)
}

// ChangedFile is one file of a ChangeSet. Its new content either lives in
// the working tree or is read from a git revision on demand.
type ChangedFile struct {
	path  string
	root  string
	local string // working tree path, empty when rev is set
	rev   string // ":" for the index, a commit otherwise

	workDir string
	once    sync.Once
	patched string
	err     error
}

// Path returns the repository-relative path.
func (f *ChangedFile) Path() string { return f.path }

// PatchedPath returns a local file holding the new content. Content from a
// revision is written below the change set's work dir on first use.
func (f *ChangedFile) PatchedPath(ctx context.Context) (string, error) {
	if f.rev == "" {
		if _, err := os.Stat(f.local); err != nil {
			return "", fmt.Errorf("reading %s: %w", f.path, err)
		}
		return f.local, nil
	}
	f.once.Do(func() {
		f.patched, f.err = f.materialize(ctx)
	})
	return f.patched, f.err
}

func (f *ChangedFile) materialize(ctx context.Context) (string, error) {
	spec := ":" + f.path
	if f.rev != ":" {
		spec = f.rev + ":" + f.path
	}
	content, err := gitOutputContext(ctx, f.root, "show", spec)
	if err != nil {
		return "", fmt.Errorf("git show %s: %w", spec, err)
	}
	// Keep the relative layout so the file name and extension survive.
	dst := filepath.Join(f.workDir, filepath.FromSlash(f.path))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("creating work dir: %w", err)
	}
	if err := os.WriteFile(dst, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing patched file: %w", err)
	}
	return dst, nil
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta() (RepoMeta, error) {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Unstaged returns files changed in the working tree relative to the index.
// Content is read from the working tree.
func Unstaged(opts Options) (*ChangeSet, error) {
	meta, err := GetRepoMeta()
	if err != nil {
		return nil, err
	}
	out, err := gitOutput(append([]string{"diff", "--name-only", "--diff-filter=ACMR", "-z"}, pathspec(opts)...)...)
	if err != nil {
		return nil, fmt.Errorf("git diff: %w", err)
	}
	return buildSet(meta, "unstaged", "", "", splitZ(out), opts)
}

// Staged returns files changed in the index relative to HEAD. Content is the
// staged blob, not the working tree copy.
func Staged(opts Options) (*ChangeSet, error) {
	meta, err := GetRepoMeta()
	if err != nil {
		return nil, err
	}
	out, err := gitOutput(append([]string{"diff", "--cached", "--name-only", "--diff-filter=ACMR", "-z"}, pathspec(opts)...)...)
	if err != nil {
		return nil, fmt.Errorf("git diff --cached: %w", err)
	}
	return buildSet(meta, "staged", "", ":", splitZ(out), opts)
}

// Commit returns files added or modified by a single commit, with content at
// that commit. Root commits are supported.
func Commit(sha string, opts Options) (*ChangeSet, error) {
	meta, err := GetRepoMeta()
	if err != nil {
		return nil, err
	}
	resolved, err := gitOutput("rev-parse", "--verify", sha+"^{commit}")
	if err != nil {
		return nil, fmt.Errorf("unknown commit %s: %w", sha, err)
	}
	rev := strings.TrimSpace(resolved)
	args := append([]string{"diff-tree", "--no-commit-id", "--name-only", "-r", "--root", "--diff-filter=ACMR", "-z", rev}, pathspec(opts)...)
	out, err := gitOutput(args...)
	if err != nil {
		return nil, fmt.Errorf("git diff-tree %s: %w", sha, err)
	}
	return buildSet(meta, "commit", sha, rev, splitZ(out), opts)
}

// Range returns files changed across a revision range ("a..b" or "a...b"),
// with content at the range's end.
func Range(revRange string, opts Options) (*ChangeSet, error) {
	meta, err := GetRepoMeta()
	if err != nil {
		return nil, err
	}
	end := rangeEnd(revRange)
	resolved, err := gitOutput("rev-parse", "--verify", end+"^{commit}")
	if err != nil {
		return nil, fmt.Errorf("unknown revision %s: %w", end, err)
	}
	out, err := gitOutput(append([]string{"diff", "--name-only", "--diff-filter=ACMR", "-z", revRange}, pathspec(opts)...)...)
	if err != nil {
		return nil, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return buildSet(meta, "range", revRange, strings.TrimSpace(resolved), splitZ(out), opts)
}

// Files returns the given working tree paths, filtered by opts. Paths are
// taken relative to the current directory and need not be tracked.
func Files(paths []string, opts Options) (*ChangeSet, error) {
	meta, _ := GetRepoMeta()
	cs := &ChangeSet{Mode: "files", Repo: meta}
	seen := make(map[string]bool)
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] || !keep(filepath.ToSlash(clean), opts) {
			continue
		}
		seen[clean] = true
		cs.Files = append(cs.Files, &ChangedFile{path: filepath.ToSlash(clean), local: clean})
	}
	return cs, nil
}

// Tracked returns every tracked file in the repository, sorted by path, with
// content from the working tree.
func Tracked(opts Options) (*ChangeSet, error) {
	meta, err := GetRepoMeta()
	if err != nil {
		return nil, err
	}
	out, err := gitOutputDir(meta.Root, "ls-files", "-z")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}
	files := splitZ(out)
	sort.Strings(files)
	return buildSet(meta, "tracked", "", "", files, opts)
}

func buildSet(meta RepoMeta, mode, rangeStr, rev string, paths []string, opts Options) (*ChangeSet, error) {
	cs := &ChangeSet{Mode: mode, Range: rangeStr, Repo: meta}
	if rev != "" {
		dir, err := os.MkdirTemp("", "pmdreview-*")
		if err != nil {
			return nil, fmt.Errorf("creating work dir: %w", err)
		}
		cs.workDir = dir
	}
	for _, p := range filterPaths(paths, opts) {
		f := &ChangedFile{path: p, root: meta.Root, rev: rev, workDir: cs.workDir}
		if rev == "" {
			f.local = filepath.Join(meta.Root, filepath.FromSlash(p))
		}
		cs.Files = append(cs.Files, f)
	}
	return cs, nil
}

// rangeEnd returns the right-hand revision of a range, HEAD when omitted.
func rangeEnd(revRange string) string {
	end := revRange
	if i := strings.LastIndex(revRange, ".."); i >= 0 {
		end = strings.TrimPrefix(revRange[i+2:], ".")
	}
	if end == "" {
		return "HEAD"
	}
	return end
}

// pathspec passes include patterns to git as a coarse pre-filter. Exact
// matching still happens in filterPaths.
func pathspec(opts Options) []string {
	args := []string{"--"}
	for _, p := range opts.Include {
		if p != "**/*" {
			args = append(args, ":(glob)"+p)
		}
	}
	return args
}

func splitZ(out string) []string {
	var files []string
	for _, p := range strings.Split(out, "\x00") {
		p = strings.TrimSpace(p)
		if p != "" {
			files = append(files, p)
		}
	}
	return files
}

func filterPaths(files []string, opts Options) []string {
	var result []string
	for _, f := range files {
		if keep(f, opts) {
			result = append(result, f)
		}
	}
	return result
}

// Match reports whether path passes the include and exclude globs.
func (o Options) Match(path string) bool {
	return keep(path, o)
}

func keep(path string, opts Options) bool {
	if len(opts.Include) > 0 && !MatchesAny(path, opts.Include) {
		return false
	}
	return !MatchesAny(path, opts.Exclude)
}

// MatchesAny returns true if the path matches any of the given glob patterns.
// A "**" segment matches zero or more path segments, as in git's glob
// pathspec magic; other segments use path.Match.
func MatchesAny(p string, patterns []string) bool {
	segs := strings.Split(p, "/")
	for _, pattern := range patterns {
		if matchSegments(strings.Split(pattern, "/"), segs) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, segs []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for len(pattern) > 1 && pattern[1] == "**" {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(pattern[1:], segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], segs[0]); err != nil || !ok {
			return false
		}
		pattern, segs = pattern[1:], segs[1:]
	}
	return len(segs) == 0
}

func gitOutput(args ...string) (string, error) {
	return gitOutputContext(context.Background(), "", args...)
}

func gitOutputDir(dir string, args ...string) (string, error) {
	return gitOutputContext(context.Background(), dir, args...)
}

func gitOutputContext(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
