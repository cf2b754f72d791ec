// Package safety classifies candidate statements as permitted read-only
// queries. It is a lexical gate, not a SQL parser: decisions are made with
// word-boundary keyword matching only, so identifiers that merely contain a
// blocked keyword (created_at, update_source) do not trigger rejection.
// The flip side is a known limitation — the gate cannot see through dynamic
// SQL that the engine itself would assemble at runtime.
package safety

import (
	"errors"
	"regexp"
	"strings"
)

// ErrRejected is returned for every rejected statement. The message is
// deliberately generic: naming the keyword that triggered rejection would
// help an adversarial caller probe the gate.
var ErrRejected = errors.New("only safe SELECT queries are allowed")

var (
	leadingSelect = regexp.MustCompile(`(?i)^select\b`)
	denylist      = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|truncate|merge|exec|execute|grant|revoke|create)\b`)
)

// Check returns nil if the candidate is a permitted read-only query, or
// ErrRejected otherwise. A candidate is permitted only if it begins with the
// whole word SELECT (after trimming), contains no denylisted keyword as a
// whole word, and is a single statement.
func Check(candidate string) error {
	trimmed := strings.TrimSpace(candidate)
	if !leadingSelect.MatchString(trimmed) {
		return ErrRejected
	}
	// A statement terminator followed by anything non-blank is a stacked
	// batch. Rejecting outright is stricter than the denylist alone, but
	// stacked input has no legitimate use on this surface.
	if i := strings.Index(trimmed, ";"); i >= 0 && strings.TrimSpace(trimmed[i+1:]) != "" {
		return ErrRejected
	}
	if denylist.MatchString(trimmed) {
		return ErrRejected
	}
	return nil
}

// IsPermitted reports whether the candidate passes Check.
func IsPermitted(candidate string) bool {
	return Check(candidate) == nil
}
