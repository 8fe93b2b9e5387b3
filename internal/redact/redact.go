package redact

import (
	"regexp"
)

const placeholder = "[REDACTED]"

type pattern struct {
	name string
	re   *regexp.Regexp
}

// patterns are regex heuristics for common secret types.
var patterns = []pattern{
	{"api key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	{"aws access key id", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws secret access key", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`)},
	{"assigned secret", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`)},
	{"bearer token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"private key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`)},
	{"github token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"anthropic key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"hex secret", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
	// JDBC URLs with inline credentials, e.g. jdbc:mysql://user:pw@host/db.
	{"jdbc credentials", regexp.MustCompile(`jdbc:[a-z0-9]+://[^\s:/@'"]+:[^\s@'"]+@`)},
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, p := range patterns {
		result = p.re.ReplaceAllLiteralString(result, placeholder)
	}
	return result
}

// Detect returns the names of the secret kinds found in text, in pattern
// order. It is used for logging and never reports the matched text.
func Detect(text string) []string {
	var kinds []string
	for _, p := range patterns {
		if p.re.MatchString(text) {
			kinds = append(kinds, p.name)
		}
	}
	return kinds
}
