// File path: internal/document/parser_test.go
package document

import (
	"strings"
	"testing"
)

func TestParseBilingualTemplate(t *testing.T) {
	text := strings.Join([]string{
		"Dati Personali",
		"Nome: Mario",
		"Cognome: Rossi",
		"",
		"Contatti",
		"Email: mario@example.com",
	}, "\n")
	fields := NewParser(DefaultParserConfig()).Parse(text)
	if len(fields) != 5 {
		t.Fatalf("expected 5 fields, got %d: %+v", len(fields), fields)
	}
	if !fields[0].IsSection || fields[0].ID != "section-1" {
		t.Fatalf("expected leading section, got %+v", fields[0])
	}
	if fields[1].ID != "field-2" || fields[1].CompiledContent != "Mario" {
		t.Fatalf("unexpected first field: %+v", fields[1])
	}
	if fields[2].ID != "field-3" || fields[2].CompiledContent != "Rossi" {
		t.Fatalf("unexpected second field: %+v", fields[2])
	}
	if !fields[3].IsSection || fields[3].ID != "section-4" {
		t.Fatalf("expected contacts section, got %+v", fields[3])
	}
	if fields[4].CompiledContent != "mario@example.com" {
		t.Fatalf("unexpected email field: %+v", fields[4])
	}
}

func TestParseContinuationLinesJoinOpenField(t *testing.T) {
	text := "Descrizione: prima riga\nseconda riga\nterza riga"
	fields := NewParser(DefaultParserConfig()).Parse(text)
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	want := "prima riga\nseconda riga\nterza riga"
	if fields[0].CompiledContent != want {
		t.Fatalf("expected %q, got %q", want, fields[0].CompiledContent)
	}
}

func TestParseEmptyLinesDoNotTerminateFields(t *testing.T) {
	text := "Note: first\n\n\nsecond"
	fields := NewParser(DefaultParserConfig()).Parse(text)
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].CompiledContent != "first\nsecond" {
		t.Fatalf("empty lines broke the field: %q", fields[0].CompiledContent)
	}
}

func TestParseUnmatchedTextCollapsesToSyntheticField(t *testing.T) {
	text := "just some prose\nwith no labels anywhere"
	fields := NewParser(DefaultParserConfig()).Parse(text)
	if len(fields) != 1 {
		t.Fatalf("expected synthetic field, got %d fields", len(fields))
	}
	if fields[0].ID != "field-1" || fields[0].Label != "Document Content" {
		t.Fatalf("unexpected synthetic field: %+v", fields[0])
	}
	if fields[0].CompiledContent != text {
		t.Fatalf("synthetic field must carry the entire text")
	}
}

func TestParseUnmatchedLinesBeforeAnyFieldAreDropped(t *testing.T) {
	text := "Dati Personali\nstray line\nNome: Anna"
	fields := NewParser(DefaultParserConfig()).Parse(text)
	if len(fields) != 2 {
		t.Fatalf("expected section and field, got %d", len(fields))
	}
	if strings.Contains(fields[1].CompiledContent, "stray") {
		t.Fatalf("stray line leaked into field: %q", fields[1].CompiledContent)
	}
}

func TestParseCatalogueOrderWins(t *testing.T) {
	// "Data di nascita" must hit the date-of-birth pattern, declared ahead
	// of the generic date pattern.
	fields := NewParser(DefaultParserConfig()).Parse("Data di nascita: 01/01/1990")
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if !strings.EqualFold(fields[0].Label, "data di nascita") {
		t.Fatalf("expected date-of-birth label, got %q", fields[0].Label)
	}
}

func TestParseContentIsSubstringOfSource(t *testing.T) {
	text := "Nome: Mario\nEmail: mario@x.com"
	for _, field := range NewParser(DefaultParserConfig()).Parse(text) {
		if field.IsSection {
			continue
		}
		if !strings.Contains(text, field.CompiledContent) {
			t.Fatalf("field content %q not found in source", field.CompiledContent)
		}
	}
}
