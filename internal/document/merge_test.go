// File path: internal/document/merge_test.go
package document

import (
	"strings"
	"testing"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

func TestMergeStructuredScenario(t *testing.T) {
	compiled := "Nome: Mario\nEmail: mario@x.com"
	merger := NewMerger(nil)
	edits := map[string]Edit{
		"field-1": {FieldID: "field-1", Content: "Luigi", Timestamp: time.Now()},
	}
	result := merger.Merge(compiled, edits, nil)
	if !strings.Contains(result.MergedContent, "Nome: Luigi") {
		t.Fatalf("edit not applied: %q", result.MergedContent)
	}
	if strings.Contains(result.MergedContent, "Nome: Mario") {
		t.Fatalf("old value survived: %q", result.MergedContent)
	}
	if result.AppliedEdits != 1 || result.TotalFields != 2 {
		t.Fatalf("unexpected report: %+v", result)
	}
	if !result.HasUserEdits {
		t.Fatalf("expected HasUserEdits")
	}
}

func TestMergeIdempotence(t *testing.T) {
	compiled := "Nome: Mario\nEmail: mario@x.com"
	merger := NewMerger(nil)
	edits := map[string]Edit{
		"field-1": {FieldID: "field-1", Content: "Luigi"},
	}
	first := merger.Merge(compiled, edits, nil)
	second := merger.Merge(compiled, edits, nil)
	if first != second {
		t.Fatalf("merge not idempotent: %+v vs %+v", first, second)
	}
}

func TestMergeNonDestructionWithoutEdits(t *testing.T) {
	compiled := "Nome: Mario\nEmail: mario@x.com\n\nnote finali"
	result := NewMerger(nil).Merge(compiled, nil, nil)
	if result.MergedContent != compiled {
		t.Fatalf("content changed with no edits")
	}
	if result.AppliedEdits != 0 || result.HasUserEdits {
		t.Fatalf("unexpected report: %+v", result)
	}
	dmp := diffmatchpatch.New()
	for _, diff := range dmp.DiffMain(compiled, result.MergedContent, false) {
		if diff.Type != diffmatchpatch.DiffEqual {
			t.Fatalf("non-equal diff found: %+v", diff)
		}
	}
}

func TestMergeSkipsUnlocatableEdit(t *testing.T) {
	compiled := "Nome: Mario\nEmail: mario@x.com"
	merger := NewMerger(nil)
	parser := NewParser(DefaultParserConfig())
	// Structure parsed from an older snapshot whose field text the model
	// has since regenerated.
	stale := parser.Parse("Nome: Carlo\nEmail: mario@x.com")
	edits := map[string]Edit{
		"field-1": {FieldID: "field-1", Content: "Luigi"},
	}
	result := merger.Merge(compiled, edits, stale)
	if result.MergedContent != compiled {
		t.Fatalf("miss must leave content untouched: %q", result.MergedContent)
	}
	if result.AppliedEdits != 0 {
		t.Fatalf("expected zero applied edits, got %d", result.AppliedEdits)
	}
}

func TestMergeSequentialApplication(t *testing.T) {
	compiled := "Nome: Mario\nCognome: Rossi"
	merger := NewMerger(nil)
	edits := map[string]Edit{
		"field-1": {FieldID: "field-1", Content: "Luigi"},
		"field-2": {FieldID: "field-2", Content: "Verdi"},
	}
	result := merger.Merge(compiled, edits, nil)
	if result.MergedContent != "Nome: Luigi\nCognome: Verdi" {
		t.Fatalf("unexpected merge: %q", result.MergedContent)
	}
	if result.AppliedEdits != 2 {
		t.Fatalf("expected 2 applied edits, got %d", result.AppliedEdits)
	}
}

func TestMergeSingleFieldModePicksLatestEdit(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	edits := map[string]Edit{
		"field-1": {FieldID: "field-1", Content: "old content", Timestamp: older},
		"field-2": {FieldID: "field-2", Content: "new content", Timestamp: newer},
	}
	result := NewMerger(nil).Merge("anything", edits, []Field{})
	if result.MergedContent != "new content" {
		t.Fatalf("expected latest edit to win, got %q", result.MergedContent)
	}
	if result.AppliedEdits != 1 || result.TotalFields != 1 {
		t.Fatalf("unexpected report: %+v", result)
	}
}

func TestMergeSingleFieldModeTieBreaksDeterministically(t *testing.T) {
	same := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	edits := map[string]Edit{
		"field-2": {FieldID: "field-2", Content: "second", Timestamp: same},
		"field-1": {FieldID: "field-1", Content: "first", Timestamp: same},
	}
	for i := 0; i < 10; i++ {
		result := NewMerger(nil).Merge("anything", edits, []Field{})
		if result.MergedContent != "first" {
			t.Fatalf("tie-break not deterministic: got %q", result.MergedContent)
		}
	}
}

func TestMergeEmptyInputsPassThrough(t *testing.T) {
	merger := NewMerger(nil)
	if result := merger.Merge("", map[string]Edit{"f": {Content: "x"}}, nil); result.MergedContent != "" || result.AppliedEdits != 0 {
		t.Fatalf("empty compiled text must pass through: %+v", result)
	}
	if result := merger.Merge("text", map[string]Edit{}, nil); result.MergedContent != "text" || result.AppliedEdits != 0 {
		t.Fatalf("empty edit set must pass through: %+v", result)
	}
}

func TestMergeSkipsEmptyLiteralField(t *testing.T) {
	// Two empty fields render identically; applying by literal match would
	// hit an arbitrary position, so the merger refuses.
	compiled := "Nome:\nCognome:"
	edits := map[string]Edit{
		"field-1": {FieldID: "field-1", Content: "Mario"},
	}
	result := NewMerger(nil).Merge(compiled, edits, nil)
	if result.MergedContent != compiled {
		t.Fatalf("empty-literal edit must be skipped: %q", result.MergedContent)
	}
	if result.AppliedEdits != 0 {
		t.Fatalf("expected zero applied edits, got %d", result.AppliedEdits)
	}
}

func TestDiffStats(t *testing.T) {
	inserted, deleted := DiffStats("Nome: Mario", "Nome: Luigi")
	if inserted == 0 || deleted == 0 {
		t.Fatalf("expected both insertions and deletions, got %d/%d", inserted, deleted)
	}
	inserted, deleted = DiffStats("same", "same")
	if inserted != 0 || deleted != 0 {
		t.Fatalf("identical text must produce zero stats, got %d/%d", inserted, deleted)
	}
}
