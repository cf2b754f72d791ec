// Package sanitize applies regex-based masking to result row field values
// before they leave the server, so credentials or personal data stored in
// the database never reach the calling agent verbatim.
//
// The value domain is what the query pipeline's row conversion emits:
// strings (including RFC3339-rendered datetimes and base64-rendered binary),
// numerics, bools, and nil. Rules only ever apply to strings; binary columns
// are base64 text by the time they arrive here, so masking rules written for
// plaintext will not fire on them. Maps and slices are walked recursively so
// a JSON column decoded upstream is masked down to its leaf strings.
package sanitize

import (
	"fmt"
	"regexp"
)

// Rule is one masking rule: any substring of a result value matching
// Pattern is replaced with Replacement.
type Rule struct {
	Pattern     string
	Replacement string
}

type masker struct {
	pattern     *regexp.Regexp
	replacement string
}

// Sanitizer applies a fixed ordered rule set to result rows. Immutable and
// safe for concurrent use once built.
type Sanitizer struct {
	maskers []masker
}

// NewSanitizer compiles the rule set. Returns an error on invalid regex patterns.
func NewSanitizer(rules []Rule) (*Sanitizer, error) {
	maskers := make([]masker, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("sanitize: invalid regex pattern %q: %v", r.Pattern, err)
		}
		maskers[i] = masker{pattern: re, replacement: r.Replacement}
	}
	return &Sanitizer{maskers: maskers}, nil
}

// HasRules reports whether any rules are configured. Callers use it to skip
// logging a sanitization marker on untouched results.
func (s *Sanitizer) HasRules() bool {
	return len(s.maskers) > 0
}

// SanitizeRows masks every field value in the result rows in place and
// returns the same slice.
func (s *Sanitizer) SanitizeRows(rows []map[string]interface{}) []map[string]interface{} {
	if len(s.maskers) == 0 {
		return rows
	}
	for _, row := range rows {
		for field, value := range row {
			row[field] = s.sanitizeValue(value)
		}
	}
	return rows
}

func (s *Sanitizer) sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return s.mask(v)
	case map[string]interface{}:
		for k, inner := range v {
			v[k] = s.sanitizeValue(inner)
		}
		return v
	case []interface{}:
		for i, inner := range v {
			v[i] = s.sanitizeValue(inner)
		}
		return v
	default:
		// int64/float64/bool/nil from the row converter — nothing to mask.
		return value
	}
}

// mask runs every rule over s in configuration order. Later rules see the
// output of earlier ones.
func (s *Sanitizer) mask(text string) string {
	for _, m := range s.maskers {
		text = m.pattern.ReplaceAllString(text, m.replacement)
	}
	return text
}
