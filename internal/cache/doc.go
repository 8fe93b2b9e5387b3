// Package cache provides a file-based cache for parsed PMD results.
//
// Entries are keyed by a SHA-256 hash of the PMD installation path, the
// ruleset list and the analyzed file's content, so a changed ruleset or an
// upgraded PMD never serves stale findings. Each entry stores the findings
// as JSON along with a creation timestamp and a TTL (in seconds). Expired
// entries are skipped on read and removed during cache-clear operations.
//
// The default cache directory is $XDG_CACHE_HOME/pmdreview (or the
// OS-appropriate equivalent).
package cache
