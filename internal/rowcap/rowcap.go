// Package rowcap rewrites permitted SELECT statements so they can never
// return more than a configured number of rows, using the T-SQL TOP clause.
// The rewrite is purely textual and looks only at the statement's leading
// SELECT keyword — a TOP appearing in a subquery or as an identifier
// elsewhere in the statement is never touched.
package rowcap

import (
	"regexp"
	"strconv"
)

var (
	// TOP with a literal count directly after the leading SELECT, with or
	// without parentheses: "SELECT TOP 10", "select top(50)".
	leadingTop = regexp.MustCompile(`(?i)^(\s*select\s+top\s*\(?\s*)(\d+)`)

	leadingSelect = regexp.MustCompile(`(?i)^(\s*select)\b`)
)

// Apply returns the query with a row ceiling enforced. If the leading SELECT
// already carries TOP with a literal count, the literal is replaced with
// maxCap only when it exceeds maxCap; a compliant author-specified limit is
// respected and the statement is returned unchanged. If no TOP clause is
// present, TOP defaultCap is inserted directly after the leading SELECT.
// The caller must have classified the query as a permitted SELECT already.
func Apply(query string, defaultCap, maxCap int) string {
	if m := leadingTop.FindStringSubmatchIndex(query); m != nil {
		lit := query[m[4]:m[5]]
		n, err := strconv.Atoi(lit)
		if err != nil || n <= maxCap {
			return query
		}
		return query[:m[4]] + strconv.Itoa(maxCap) + query[m[5]:]
	}
	m := leadingSelect.FindStringSubmatchIndex(query)
	if m == nil {
		return query
	}
	return query[:m[3]] + " TOP " + strconv.Itoa(defaultCap) + query[m[3]:]
}
