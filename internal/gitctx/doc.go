// Package gitctx lists the files touched by a local git change and gives
// access to their new content.
//
// It supports the unstaged, staged, commit, range and tracked review modes
// by shelling out to git, plus explicit file lists. Results are filtered by
// include/exclude glob patterns. Staged, commit and range content is read
// from git objects with `git show` and materialized into a temporary work
// dir, so PMD always sees exactly the revision under review.
package gitctx
