// Package redact removes secrets from review comment text before it leaves
// the machine.
//
// PMD messages quote source fragments (string literals, variable names), so
// a rule such as HardCodedCryptoKey can echo the very key it complains
// about. Detection uses regex heuristics covering common secret shapes: API
// keys, JWTs, private keys, AWS access key IDs and secret access keys,
// bearer tokens, and provider-specific tokens (GitHub, Slack and others).
package redact
