package sanitize

import "regexp"

// RedactionMarker replaces every secret-shaped substring found by the
// redaction rules.
const RedactionMarker = "[REDACTED]"

// redactionRule pairs a compiled pattern with its replacement template
type redactionRule struct {
	name string
	re   *regexp.Regexp
	repl string
}

// redactionRules is applied in order by Redact. Replacement templates keep
// the key name and drop only the value, so redacted text stays readable.
//
// The rules are heuristic best-effort, not a security boundary: the set
// favors over-redaction, and legitimate text that happens to look like a
// secret will be redacted too.
var redactionRules = []redactionRule{
	{
		name: "api-key assignment",
		re:   regexp.MustCompile(`(?i)\b(api[_-]?key)\b(\s*[:=]\s*)\S+`),
		repl: "${1}${2}" + RedactionMarker,
	},
	{
		name: "bearer token",
		re:   regexp.MustCompile(`(?i)\b(bearer)\s+[A-Za-z0-9._=-]{8,}`),
		repl: "${1} " + RedactionMarker,
	},
	{
		// Long base64url triplets shaped like signed tokens (JWTs)
		name: "signed token",
		re:   regexp.MustCompile(`\b[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{5,}\b`),
		repl: RedactionMarker,
	},
	{
		name: "password assignment",
		re:   regexp.MustCompile(`(?i)\b(password|passwd|pwd)\b(\s*[:=]\s*)\S+`),
		repl: "${1}${2}" + RedactionMarker,
	},
	{
		name: "secret-key assignment",
		re:   regexp.MustCompile(`(?i)\b((?:secret|access|private|auth)[_-]?key|secret|token|credentials?)\b(\s*[:=]\s*)\S+`),
		repl: "${1}${2}" + RedactionMarker,
	},
}

// Redact replaces secret-shaped substrings in s with the redaction marker.
// It is idempotent: running it over already-redacted text changes nothing,
// because a re-matched value position is replaced with the marker again.
func Redact(s string) string {
	for _, rule := range redactionRules {
		s = rule.re.ReplaceAllString(s, rule.repl)
	}
	return s
}

// RedactAll applies Redact to every element of ss in place and returns ss
func RedactAll(ss []string) []string {
	for i := range ss {
		ss[i] = Redact(ss[i])
	}
	return ss
}
