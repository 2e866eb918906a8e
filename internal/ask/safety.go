package ask

import (
	"regexp"
	"strings"
)

// Patterns matched against the upper-cased query text.
var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`;\s*(DROP|DELETE|UPDATE|INSERT|ALTER|CREATE|TRUNCATE|EXECUTE|EXEC)`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`XP_`),
	regexp.MustCompile(`SP_`),
}

// IsSafe reports whether text looks like a single read-only SELECT. It is a
// denylist check, not a parser; generated statements also run inside a
// read-only transaction.
func IsSafe(text string) bool {
	upper := strings.ToUpper(text)
	for _, p := range unsafePatterns {
		if p.MatchString(upper) {
			return false
		}
	}

	if !strings.HasPrefix(strings.TrimSpace(upper), "SELECT") {
		return false
	}

	// One statement only; a trailing separator is tolerated.
	if strings.Contains(strings.TrimRight(text, ";"), ";") {
		return false
	}
	return true
}
