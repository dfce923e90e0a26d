// File path: internal/document/placeholder_test.go
package document

import "testing"

func TestContainsPlaceholders(t *testing.T) {
	if !ContainsPlaceholders("Name: {{name}}") {
		t.Fatalf("double-curly token not detected")
	}
	if !ContainsPlaceholders("Sign here: ___") {
		t.Fatalf("underscore run not detected")
	}
	if !ContainsPlaceholders("Amount: [TODO]") {
		t.Fatalf("bracketed sentinel not detected")
	}
	if !ContainsPlaceholders("Campo: [da compilare]") {
		t.Fatalf("localized sentinel not detected")
	}
	if ContainsPlaceholders("Name: John") {
		t.Fatalf("filled text flagged as incomplete")
	}
	if ContainsPlaceholders("a __ b") {
		t.Fatalf("two underscores are not a placeholder")
	}
}

func TestCountPlaceholders(t *testing.T) {
	if got := CountPlaceholders("___ and ____ and [TODO]"); got != 3 {
		t.Fatalf("expected 3 placeholders, got %d", got)
	}
	if got := CountPlaceholders("{{a}} {{b}}"); got != 2 {
		t.Fatalf("expected 2 placeholders, got %d", got)
	}
	if got := CountPlaceholders(""); got != 0 {
		t.Fatalf("expected 0 placeholders for empty text, got %d", got)
	}
}
