package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/pmdreview/internal/review"
)

func testClient(server *httptest.Server) *Client {
	return &Client{
		token:   "test-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
		retries: 2,
		backoff: time.Millisecond,
	}
}

func TestGetPR(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Authorization = %q, want %q", r.Header.Get("Authorization"), "Bearer test-token")
		}
		if r.URL.Path != "/repos/owner/repo/pulls/42" {
			t.Errorf("Path = %q, want %q", r.URL.Path, "/repos/owner/repo/pulls/42")
		}
		w.Write([]byte(`{"number":42,"title":"Fix","state":"open","head":{"ref":"feature","sha":"abc123"},"base":{"ref":"main","sha":"def456"}}`))
	}))
	defer server.Close()

	pr, err := testClient(server).GetPR(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetPR error: %v", err)
	}
	if pr.Head.SHA != "abc123" || pr.Base.Ref != "main" {
		t.Errorf("pr = %+v", pr)
	}
}

func TestGetPR_404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	_, err := testClient(server).GetPR(context.Background(), "owner", "repo", 99)
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false", err)
	}
	if !strings.Contains(err.Error(), "PR #99 not found in owner/repo") {
		t.Errorf("error = %q", err)
	}
}

func TestGetPR_401(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(401)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	_, err := testClient(server).GetPR(context.Background(), "owner", "repo", 1)
	if err == nil {
		t.Fatal("Expected error for 401")
	}
	if !IsAuthError(err) {
		t.Errorf("IsAuthError(%v) = false", err)
	}
	if !strings.Contains(err.Error(), "Bad credentials") {
		t.Errorf("error = %q, want API message", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("auth errors should not be retried, got %d calls", n)
	}
}

func TestRateLimitRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"API rate limit exceeded"}`))
			return
		}
		w.Write([]byte(`{"number":5}`))
	}))
	defer server.Close()

	pr, err := testClient(server).GetPR(context.Background(), "o", "r", 5)
	if err != nil {
		t.Fatalf("GetPR error: %v", err)
	}
	if n := atomic.LoadInt32(&calls); pr.Number != 5 || n != 2 {
		t.Errorf("number = %d, calls = %d, want 5 and 2", pr.Number, n)
	}
}

func TestRateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server).GetPR(context.Background(), "o", "r", 5)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want 429 APIError", err)
	}
	if IsAuthError(err) {
		t.Error("rate limit should not count as an auth error")
	}
}

func TestGetPRFiles_Paginates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/pulls/42/files" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		n := filesPerPage
		if r.URL.Query().Get("page") == "2" {
			n = 3
		}
		files := make([]PRFile, n)
		for i := range files {
			files[i] = PRFile{Filename: fmt.Sprintf("F%d.java", i), Status: "modified"}
		}
		json.NewEncoder(w).Encode(files)
	}))
	defer server.Close()

	files, err := testClient(server).GetPRFiles(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetPRFiles error: %v", err)
	}
	if len(files) != filesPerPage+3 {
		t.Errorf("len(files) = %d, want %d", len(files), filesPerPage+3)
	}
}

func TestGetFileContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/o/r/contents/src/My File.java" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("ref"); got != "abc123" {
			t.Errorf("ref = %q, want abc123", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github.raw+json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte("class A {}\n"))
	}))
	defer server.Close()

	data, err := testClient(server).GetFileContent(context.Background(), "o", "r", "src/My File.java", "abc123")
	if err != nil {
		t.Fatalf("GetFileContent error: %v", err)
	}
	if string(data) != "class A {}\n" {
		t.Errorf("content = %q", data)
	}
}

func TestPostReview(t *testing.T) {
	var received ReviewRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/repos/owner/repo/pulls/42/reviews" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	req := ReviewRequest{
		CommitID: "abc123",
		Body:     "summary",
		Event:    EventComment,
		Comments: []ReviewComment{{Path: "A.java", Line: 3, Side: "RIGHT", Body: "x"}},
	}
	if err := testClient(server).PostReview(context.Background(), "owner", "repo", 42, req); err != nil {
		t.Fatalf("PostReview error: %v", err)
	}
	if received.CommitID != "abc123" || len(received.Comments) != 1 || received.Comments[0].Line != 3 {
		t.Errorf("received = %+v", received)
	}
}

func TestPostReview_422(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Line could not be resolved"}`))
	}))
	defer server.Close()

	err := testClient(server).PostReview(context.Background(), "o", "r", 1, ReviewRequest{})
	if err == nil || !strings.Contains(err.Error(), "Line could not be resolved") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadPR(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/o/r/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"number":7,"head":{"sha":"headsha"},"base":{"sha":"basesha"}}`))
	})
	mux.HandleFunc("GET /repos/o/r/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]PRFile{
			{Filename: "src/A.java", Status: "modified", Patch: "@@ -1,2 +1,3 @@\n a\n+b\n c"},
			{Filename: "src/Gone.java", Status: "removed"},
			{Filename: "README.md", Status: "added"},
		})
	})
	mux.HandleFunc("GET /repos/o/r/contents/src/A.java", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ref") != "headsha" {
			t.Errorf("ref = %q, want headsha", r.URL.Query().Get("ref"))
		}
		w.Write([]byte("class A {}\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	keep := func(p string) bool { return strings.HasSuffix(p, ".java") }
	change, err := testClient(server).LoadPR(context.Background(), "o", "r", 7, keep)
	if err != nil {
		t.Fatalf("LoadPR error: %v", err)
	}
	defer change.Cleanup()

	if got := strings.Join(change.Paths(), ","); got != "src/A.java" {
		t.Fatalf("Paths = %q, want src/A.java", got)
	}
	if got := change.Hunks["src/A.java"]; len(got) != 1 || got[0] != (LineRange{Start: 1, End: 3}) {
		t.Errorf("Hunks = %v", got)
	}

	p, err := change.Files[0].PatchedPath(context.Background())
	if err != nil {
		t.Fatalf("PatchedPath error: %v", err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "class A {}\n" {
		t.Errorf("content = %q", data)
	}
	if !strings.HasSuffix(p, "A.java") {
		t.Errorf("patched path %q should keep the file name", p)
	}

	if err := change.Cleanup(); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("Cleanup should remove downloaded files")
	}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"https://github.com/dshills/pmdreview.git", "dshills", "pmdreview", false},
		{"https://github.com/dshills/pmdreview", "dshills", "pmdreview", false},
		{"git@github.com:dshills/pmdreview.git", "dshills", "pmdreview", false},
		{"git@github.com:dshills/pmdreview", "dshills", "pmdreview", false},
		{"ssh://git@github.com/org/repo.git", "", "", true},
		{"not-a-url", "", "", true},
	}
	for _, tt := range tests {
		owner, repo, err := ParseRemoteURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRemoteURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if owner != tt.wantOwner || repo != tt.wantRepo {
			t.Errorf("ParseRemoteURL(%q) = %q/%q, want %q/%q", tt.url, owner, repo, tt.wantOwner, tt.wantRepo)
		}
	}
}

func TestParseHunks(t *testing.T) {
	patch := "@@ -1,3 +1,4 @@\n a\n+b\n c\n d\n@@ -20 +21 @@\n-x\n+y\n@@ -40,2 +42,0 @@\n-gone\n-gone"
	got := ParseHunks(patch)
	want := []LineRange{{1, 4}, {21, 21}}
	if len(got) != len(want) {
		t.Fatalf("ParseHunks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hunk %d = %v, want %v", i, got[i], want[i])
		}
	}
	if ParseHunks("") != nil {
		t.Error("empty patch should have no hunks")
	}
}

func TestWithin(t *testing.T) {
	ranges := []LineRange{{1, 4}, {10, 12}}
	tests := []struct {
		first, last int
		want        bool
	}{
		{1, 1, true},
		{2, 4, true},
		{10, 12, true},
		{4, 10, false},
		{5, 5, false},
		{12, 13, false},
	}
	for _, tt := range tests {
		if got := Within(ranges, tt.first, tt.last); got != tt.want {
			t.Errorf("Within(%d, %d) = %v, want %v", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestBuildGitHubReview(t *testing.T) {
	files := []review.FileResult{
		{
			Path:   "src/A.java",
			Status: review.StatusProcessed,
			Comments: []review.Comment{
				{Path: "src/A.java", FirstLine: 2, NumLines: 1, Text: "R1: one", Priority: 3},
				{Path: "src/A.java", FirstLine: 2, NumLines: 3, Text: "R2: two", Priority: 1, Issue: true},
				{Path: "src/A.java", FirstLine: 30, NumLines: 1, Text: "R3: far\n\nMore info: u", Priority: 4},
			},
		},
		{Path: "src/B.java", Status: review.StatusIgnored, Reason: "PMD run failed", Comments: []review.Comment{}},
		{Path: "README.md", Status: review.StatusIgnored, Reason: review.ErrUnsupported.Error(), Comments: []review.Comment{}},
	}
	report := &review.Report{Files: files, Summary: review.ComputeSummary(files)}
	hunks := map[string][]LineRange{"src/A.java": {{1, 5}}}

	req := BuildGitHubReview(report, hunks, "abc123")

	if req.CommitID != "abc123" {
		t.Errorf("CommitID = %q", req.CommitID)
	}
	if req.Event != EventRequestChanges {
		t.Errorf("Event = %q, want %q", req.Event, EventRequestChanges)
	}
	if len(req.Comments) != 2 {
		t.Fatalf("len(Comments) = %d, want 2", len(req.Comments))
	}
	single := req.Comments[0]
	if single.Line != 2 || single.StartLine != 0 || single.Side != "RIGHT" {
		t.Errorf("single-line comment = %+v", single)
	}
	multi := req.Comments[1]
	if multi.StartLine != 2 || multi.Line != 4 || multi.StartSide != "RIGHT" {
		t.Errorf("multi-line comment = %+v", multi)
	}
	if !strings.Contains(req.Body, "`src/A.java:30` R3: far More info: u") {
		t.Errorf("comment outside the diff should move to the body:\n%s", req.Body)
	}
	if !strings.Contains(req.Body, "`src/B.java`: PMD run failed") {
		t.Errorf("body should list ignored files:\n%s", req.Body)
	}
	if strings.Contains(req.Body, "README.md") {
		t.Errorf("unsupported files should not be listed:\n%s", req.Body)
	}
}

func TestBuildGitHubReview_NoIssues(t *testing.T) {
	files := []review.FileResult{{
		Path:     "A.java",
		Status:   review.StatusProcessed,
		Comments: []review.Comment{{Path: "A.java", FirstLine: 1, NumLines: 1, Text: "x"}},
	}}
	report := &review.Report{Files: files, Summary: review.ComputeSummary(files)}
	req := BuildGitHubReview(report, nil, "")
	if req.Event != EventComment {
		t.Errorf("Event = %q, want %q", req.Event, EventComment)
	}
	if len(req.Comments) != 0 {
		t.Errorf("comments without hunks should not be inline, got %d", len(req.Comments))
	}
	if req.Comments == nil {
		t.Error("Comments should marshal as an empty array")
	}
}
