// Package config loads and merges pmdreview configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PMDREVIEW_PMD_INSTALL_PATH, PMDREVIEW_RULESETS, etc.)
//  3. Config file ($XDG_CONFIG_HOME/pmdreview/config.json, or config.yaml)
//  4. Built-in defaults
//
// Config files are checked against an embedded JSON Schema before they are
// decoded. Use [Load] to obtain a merged [Config], [Save] to write one back,
// and [SetField] to update a single key.
package config
