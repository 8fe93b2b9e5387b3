package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL  = "https://api.github.com"
	defaultRetries = 3
	filesPerPage   = 100
	// GitHub stops listing PR files after 3000 entries.
	maxFilePages = 30
)

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
	log     *zap.SugaredLogger

	retries int
	backoff time.Duration
}

// NewClient creates a new GitHub client. Requires GITHUB_TOKEN env var.
func NewClient(log *zap.SugaredLogger) (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	apiURL = strings.TrimRight(apiURL, "/")

	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		token:   token,
		apiURL:  apiURL,
		httpCli: &http.Client{Timeout: 60 * time.Second},
		log:     log,
		retries: defaultRetries,
		backoff: time.Second,
	}, nil
}

// do sends one API request, retrying when rate limited. A nil out discards
// the body; a *[]byte out receives it raw.
func (c *Client) do(ctx context.Context, method, path, accept string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}
	log := c.logger()

	return retryWithBackoff(ctx, c.retries, c.backoff, func() error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", accept)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpCli.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if err := checkResponse(resp, data); err != nil {
			log.Debugw("GitHub request failed", "method", method, "path", path, "status", resp.StatusCode)
			return err
		}

		switch o := out.(type) {
		case nil:
			return nil
		case *[]byte:
			*o = data
			return nil
		default:
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			return nil
		}
	})
}

func (c *Client) logger() *zap.SugaredLogger {
	if c.log == nil {
		return zap.NewNop().Sugar()
	}
	return c.log
}

func checkResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: apiMessage(body)}
	limited := resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0")
	if limited {
		var wait time.Duration
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait = time.Duration(s) * time.Second
		}
		return &rateLimitError{APIError: apiErr, retryAfter: wait}
	}
	return apiErr
}

func apiMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &m) == nil && m.Message != "" {
		return m.Message
	}
	return strings.TrimSpace(string(body))
}

// Ref is one side of a pull request.
type Ref struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// PullRequest holds the pull request fields pmdreview needs.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Head   Ref    `json:"head"`
	Base   Ref    `json:"base"`
}

// GetPR fetches pull request metadata.
func (c *Client) GetPR(ctx context.Context, owner, repo string, prNumber int) (PullRequest, error) {
	var pr PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, prNumber)
	if err := c.do(ctx, http.MethodGet, path, "application/vnd.github+json", nil, &pr); err != nil {
		if IsNotFound(err) {
			return PullRequest{}, fmt.Errorf("PR #%d not found in %s/%s: %w", prNumber, owner, repo, err)
		}
		return PullRequest{}, fmt.Errorf("fetching PR: %w", err)
	}
	return pr, nil
}

// PRFile represents a file changed in a pull request.
type PRFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Patch    string `json:"patch,omitempty"`
}

// GetPRFiles fetches every file changed in a pull request, following pages.
func (c *Client) GetPRFiles(ctx context.Context, owner, repo string, prNumber int) ([]PRFile, error) {
	var all []PRFile
	for page := 1; page <= maxFilePages; page++ {
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d", owner, repo, prNumber, filesPerPage, page)
		var files []PRFile
		if err := c.do(ctx, http.MethodGet, path, "application/vnd.github+json", nil, &files); err != nil {
			return nil, fmt.Errorf("fetching PR files: %w", err)
		}
		all = append(all, files...)
		if len(files) < filesPerPage {
			break
		}
	}
	return all, nil
}

// GetFileContent returns the raw content of path at ref.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	p := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", owner, repo, strings.Join(segments, "/"), url.QueryEscape(ref))
	var data []byte
	if err := c.do(ctx, http.MethodGet, p, "application/vnd.github.raw+json", nil, &data); err != nil {
		return nil, fmt.Errorf("fetching %s@%s: %w", path, ref, err)
	}
	return data, nil
}

// ReviewComment represents an inline comment on a PR review. StartLine is
// set only for comments spanning more than one line.
type ReviewComment struct {
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Side      string `json:"side"`
	StartLine int    `json:"start_line,omitempty"`
	StartSide string `json:"start_side,omitempty"`
	Body      string `json:"body"`
}

// ReviewRequest represents a PR review to post.
type ReviewRequest struct {
	CommitID string          `json:"commit_id,omitempty"`
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// PostReview posts a pull request review with inline comments.
func (c *Client) PostReview(ctx context.Context, owner, repo string, prNumber int, review ReviewRequest) error {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", owner, repo, prNumber)
	if err := c.do(ctx, http.MethodPost, path, "application/vnd.github+json", review, nil); err != nil {
		return fmt.Errorf("posting review: %w", err)
	}
	return nil
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(remote string) (owner, repo string, err error) {
	// Strip .git suffix
	remote = strings.TrimSuffix(remote, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", remote)
}
