// Package cli wires together the Cobra command tree for the pmdreview binary.
//
// It defines the root command and all subcommands (review, github, check,
// config, cache, hook, version), binds flags, reads configuration, runs PMD
// through the review engine, and returns deterministic exit codes for CI
// gating.
package cli
