// Pmdreview runs the PMD static analyzer on changed files and reports the
// violations as review comments.
//
// Violations of the same rule with the same message on consecutive lines are
// merged into one multi-line comment. A comment opens an issue when its
// priority passes the configured threshold, and --fail-on-issues turns opened
// issues into a failing exit code for CI gating and git hooks.
//
// Usage:
//
//	pmdreview review staged                    # review staged changes
//	pmdreview review unstaged                  # review working tree changes
//	pmdreview review commit <sha>              # review a specific commit
//	pmdreview review range origin/main..HEAD   # review a revision range
//	pmdreview review files src/Main.java       # review explicit files
//	pmdreview github 42                        # review and comment on a pull request
//	pmdreview check                            # verify java and the PMD install
//
// See https://github.com/dshills/pmdreview for full documentation.
package main
