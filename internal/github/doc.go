// Package github provides a minimal GitHub REST API client for reviewing
// pull requests with PMD.
//
// It fetches a pull request's head commit and changed files, downloads each
// file's content at the head commit for analysis, and posts the resulting
// comments as a single pull-request review. Comments that span several lines
// use GitHub's multi-line form (start_line/line on the RIGHT side); comments
// outside the diff hunks are folded into the review body, since GitHub
// rejects inline comments there.
//
// The client reads GITHUB_TOKEN and, optionally, GITHUB_API_URL for GitHub
// Enterprise. Rate-limited requests are retried with exponential backoff.
package github
