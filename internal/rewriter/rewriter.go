// Package rewriter injects a hard TOP (N) row cap into an already-validated
// SELECT, per spec.md §4.5. The pattern below is taken verbatim from the
// spec: it is the contract, not a starting point.
package rewriter

import (
	"fmt"
	"regexp"
	"strings"
)

var capPattern = regexp.MustCompile(`(?is)^(\s*WITH\s+.*?\bAS\s+\(.*?\)\s*)?(\s*SELECT\b)(\s+DISTINCT\b)?`)

// Rewrite caps a validated SELECT to at most n rows, preserving an
// optional leading CTE and an optional DISTINCT. When the primary
// pattern doesn't match (queries with more than one leading CTE, or
// anything else the regex doesn't recognize), it falls back to
// wrapping the whole query — a best-effort path that can disrupt an
// outer ORDER BY, documented as such in spec.md §4.5.
func Rewrite(query string, n int) string {
	cleaned := strings.TrimRight(strings.TrimSpace(query), " \t\r\n;")

	loc := capPattern.FindStringSubmatchIndex(cleaned)
	if loc != nil && loc[0] == 0 {
		var b strings.Builder
		if loc[2] != -1 {
			b.WriteString(cleaned[loc[2]:loc[3]])
		}
		b.WriteString(cleaned[loc[4]:loc[5]])
		if loc[6] != -1 {
			b.WriteString(cleaned[loc[6]:loc[7]])
		}
		fmt.Fprintf(&b, " TOP (%d)", n)
		b.WriteString(cleaned[loc[1]:])
		return b.String()
	}

	return fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS q", n, cleaned)
}
