package github

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PRChange is a pull request's changed files, ready for review.
type PRChange struct {
	Owner string
	Repo  string
	PR    PullRequest
	Files []*RemoteFile
	// Hunks maps each file to the new-side ranges of its diff.
	Hunks map[string][]LineRange

	workDir string
}

// Paths returns the paths of the files to review.
func (p *PRChange) Paths() []string {
	paths := make([]string, len(p.Files))
	for i, f := range p.Files {
		paths[i] = f.path
	}
	return paths
}

// Cleanup removes downloaded file content.
func (p *PRChange) Cleanup() error {
	if p.workDir == "" {
		return nil
	}
	return os.RemoveAll(p.workDir)
}

// LoadPR fetches a pull request and its changed files. Removed files are
// skipped, as are files keep rejects (keep may be nil).
func (c *Client) LoadPR(ctx context.Context, owner, repo string, number int, keep func(path string) bool) (*PRChange, error) {
	pr, err := c.GetPR(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	files, err := c.GetPRFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "pmdreview-pr-*")
	if err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	change := &PRChange{
		Owner:   owner,
		Repo:    repo,
		PR:      pr,
		Hunks:   make(map[string][]LineRange),
		workDir: dir,
	}
	for _, f := range files {
		if f.Status == "removed" {
			continue
		}
		if keep != nil && !keep(f.Filename) {
			continue
		}
		change.Hunks[f.Filename] = ParseHunks(f.Patch)
		change.Files = append(change.Files, &RemoteFile{
			client:  c,
			owner:   owner,
			repo:    repo,
			ref:     pr.Head.SHA,
			path:    f.Filename,
			workDir: dir,
		})
	}
	c.logger().Infow("Loaded pull request", "pr", number, "head", pr.Head.SHA, "files", len(change.Files))
	return change, nil
}

// RemoteFile is a pull request file whose content is downloaded on demand.
type RemoteFile struct {
	client  *Client
	owner   string
	repo    string
	ref     string
	path    string
	workDir string

	once    sync.Once
	patched string
	err     error
}

// Path returns the repository-relative path.
func (f *RemoteFile) Path() string { return f.path }

// PatchedPath downloads the file at the PR head on first use and returns its
// local path.
func (f *RemoteFile) PatchedPath(ctx context.Context) (string, error) {
	f.once.Do(func() {
		f.patched, f.err = f.download(ctx)
	})
	return f.patched, f.err
}

func (f *RemoteFile) download(ctx context.Context) (string, error) {
	data, err := f.client.GetFileContent(ctx, f.owner, f.repo, f.path, f.ref)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(f.workDir, filepath.FromSlash(f.path))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("creating work dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("writing patched file: %w", err)
	}
	return dst, nil
}
