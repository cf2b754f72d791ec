package sanitize

import "testing"

var emailRule = Rule{
	Pattern:     `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`,
	Replacement: "[EMAIL]",
}

var ssnRule = Rule{
	Pattern:     `\b\d{3}-\d{2}-\d{4}\b`,
	Replacement: "[SSN]",
}

func TestSanitizeEmail(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer([]Rule{emailRule})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := []map[string]interface{}{
		{"contact": "reach me at jane.doe@example.com please"},
	}
	got := s.SanitizeRows(rows)
	if got[0]["contact"] != "reach me at [EMAIL] please" {
		t.Fatalf("expected email masked, got %q", got[0]["contact"])
	}
}

func TestSanitizeSSN(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer([]Rule{ssnRule})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := []map[string]interface{}{
		{"notes": "ssn 123-45-6789 on file"},
	}
	got := s.SanitizeRows(rows)
	if got[0]["notes"] != "ssn [SSN] on file" {
		t.Fatalf("expected SSN masked, got %q", got[0]["notes"])
	}
}

func TestNoMatchLeavesValueUntouched(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer([]Rule{emailRule})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := []map[string]interface{}{
		{"name": "Jane Doe"},
	}
	got := s.SanitizeRows(rows)
	if got[0]["name"] != "Jane Doe" {
		t.Fatalf("expected value untouched, got %q", got[0]["name"])
	}
}

func TestMultipleRulesApplyInOrder(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer([]Rule{emailRule, ssnRule})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := []map[string]interface{}{
		{"blob": "jane@example.com / 123-45-6789"},
	}
	got := s.SanitizeRows(rows)
	if got[0]["blob"] != "[EMAIL] / [SSN]" {
		t.Fatalf("expected both rules applied, got %q", got[0]["blob"])
	}
}

func TestSanitizeNestedStructuredValue(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer([]Rule{emailRule})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := []map[string]interface{}{
		{"payload": map[string]interface{}{
			"owner": "jane@example.com",
			"tags":  []interface{}{"a", "bob@example.com"},
		}},
	}
	got := s.SanitizeRows(rows)
	payload := got[0]["payload"].(map[string]interface{})
	if payload["owner"] != "[EMAIL]" {
		t.Fatalf("expected nested map value masked, got %q", payload["owner"])
	}
	tags := payload["tags"].([]interface{})
	if tags[1] != "[EMAIL]" {
		t.Fatalf("expected nested slice value masked, got %q", tags[1])
	}
}

func TestSanitizeNonStringValuesPassThrough(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer([]Rule{emailRule})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := []map[string]interface{}{
		{"count": 42, "ratio": 3.14, "active": true, "missing": nil},
	}
	got := s.SanitizeRows(rows)
	if got[0]["count"] != 42 || got[0]["ratio"] != 3.14 || got[0]["active"] != true || got[0]["missing"] != nil {
		t.Fatalf("expected non-string values untouched, got %v", got[0])
	}
}

func TestHasRules(t *testing.T) {
	t.Parallel()
	empty, err := NewSanitizer([]Rule{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.HasRules() {
		t.Fatal("expected HasRules false for empty sanitizer")
	}
	some, err := NewSanitizer([]Rule{emailRule})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !some.HasRules() {
		t.Fatal("expected HasRules true")
	}
}

func TestSanitizeRowsWithoutRulesReturnsInputUnchanged(t *testing.T) {
	t.Parallel()
	s, err := NewSanitizer(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := []map[string]interface{}{
		{"email": "jane@example.com"},
	}
	got := s.SanitizeRows(rows)
	if got[0]["email"] != "jane@example.com" {
		t.Fatalf("expected value untouched with no rules, got %q", got[0]["email"])
	}
}

func TestNewSanitizerErrorsOnInvalidRegex(t *testing.T) {
	t.Parallel()
	_, err := NewSanitizer([]Rule{{Pattern: `[invalid`, Replacement: "x"}})
	if err == nil {
		t.Fatal("expected error for invalid regex pattern")
	}
}
