// Package sqlsafety implements the Validator of spec.md §4.4: a
// deliberately conservative, string-level filter over a SELECT/WITH
// query, never a parser. spec.md §4.4/§9 are explicit that the rule
// set below IS the contract — no comment-stripping, no string-literal
// tokenization, no cleverness beyond what is listed.
//
// Structurally this mirrors the teacher's SQLValidator
// (server/sql_validator.go: a struct holding compiled regexes, a
// ValidateQuery entrypoint applying rules in order), but the rule set
// itself is spec.md's fixed five-step list rather than the teacher's
// configurable whitelist/blacklist/injection-bank, per spec.md §4.4's
// explicit "MUST NOT try to be smarter" instruction.
package sqlsafety

import (
	"regexp"
	"strings"

	"github.com/OmprakashShyamalan/querybench/internal/models"
)

var bannedTokens = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "TRUNCATE", "ALTER", "EXEC",
	"EXECUTE", "MERGE", "GRANT", "REVOKE", "XP_CMDSHELL", "SP_CONFIGURE",
	"OPENROWSET", "OPENDATASOURCE", "CREATE", "INTO", "OUTPUT", "BACKUP",
	"RESTORE",
}

var bannedTokenRegexes = compileBannedTokens(bannedTokens)

func compileBannedTokens(tokens []string) map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(tokens))
	for _, t := range tokens {
		out[t] = regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)
	}
	return out
}

// Validate applies spec.md §4.4's rules in order, first rejection wins.
func Validate(query string, isSolution bool) models.ValidationVerdict {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)

	// 1. Must begin with SELECT or WITH.
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return models.ValidationVerdict{Reason: "Query must start with SELECT or WITH."}
	}

	// 2. No semicolons before the rstrip-ed end — trailing "; " is fine,
	// anything earlier blocks multi-statement queries.
	rstripped := strings.TrimRight(query, " \t\r\n;")
	if strings.Contains(rstripped, ";") {
		return models.ValidationVerdict{Reason: "Multi-statement queries are disallowed."}
	}

	// 3. No comment-based evasion or obfuscation.
	if strings.Contains(query, "--") || strings.Contains(query, "/*") {
		return models.ValidationVerdict{Reason: "Comments are not allowed in submitted SQL."}
	}

	// 4. No banned tokens, whole-word, case-insensitive.
	for _, tok := range bannedTokens {
		if bannedTokenRegexes[tok].MatchString(upper) {
			return models.ValidationVerdict{Reason: "Query contains a disallowed keyword: " + tok + "."}
		}
	}

	// 5. ORDER BY is required for determinism.
	if !strings.Contains(upper, "ORDER BY") {
		if isSolution {
			return models.ValidationVerdict{Reason: "Solution query must include an ORDER BY clause."}
		}
		return models.ValidationVerdict{Reason: "ORDER BY is required for a deterministic result."}
	}

	return models.ValidationVerdict{Ok: true}
}
