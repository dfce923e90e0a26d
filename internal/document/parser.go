// File path: internal/document/parser.go
package document

import (
	"fmt"
	"strings"
)

// Field is one addressable unit of a parsed document. Fields are a parse
// view over the compiled text, recomputed whenever the source changes; ids
// are stable within a single parse only.
type Field struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	OriginalContent string `json:"original_content"`
	CompiledContent string `json:"compiled_content"`
	IsSection       bool   `json:"is_section"`
}

// Parser converts flat compiled text into an ordered field list.
type Parser struct {
	config ParserConfig
}

// NewParser builds a parser over the provided catalogue. An empty config
// falls back to the built-in bilingual catalogue.
func NewParser(cfg ParserConfig) *Parser {
	if len(cfg.SectionPatterns) == 0 && len(cfg.FieldPatterns) == 0 {
		cfg = DefaultParserConfig()
	}
	return &Parser{config: cfg}
}

// Parse scans the text line by line. Section headers emit non-editable
// section fields; label lines open a new editable field seeded with the
// captured value; other non-empty lines append to the open field and are
// dropped when no field is open. Empty lines never terminate a field.
//
// When nothing in the whole document matches either catalogue the entire
// text collapses into one synthetic "Document Content" field.
func (p *Parser) Parse(text string) []Field {
	var fields []Field
	counter := 0
	var open *Field

	closeOpen := func() {
		if open != nil {
			fields = append(fields, *open)
			open = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if p.matchSection(line) {
			closeOpen()
			counter++
			fields = append(fields, Field{
				ID:              fmt.Sprintf("section-%d", counter),
				Label:           strings.TrimSpace(line),
				OriginalContent: line,
				CompiledContent: line,
				IsSection:       true,
			})
			continue
		}
		if label, value, ok := p.matchField(line); ok {
			closeOpen()
			counter++
			open = &Field{
				ID:              fmt.Sprintf("field-%d", counter),
				Label:           label,
				CompiledContent: value,
			}
			continue
		}
		if open != nil {
			if open.CompiledContent == "" {
				open.CompiledContent = line
			} else {
				open.CompiledContent += "\n" + line
			}
		}
	}
	closeOpen()

	if len(fields) == 0 && text != "" {
		return []Field{{
			ID:              "field-1",
			Label:           "Document Content",
			OriginalContent: text,
			CompiledContent: text,
		}}
	}
	for i := range fields {
		if !fields[i].IsSection {
			fields[i].OriginalContent = fields[i].CompiledContent
		}
	}
	return fields
}

func (p *Parser) matchSection(line string) bool {
	for _, re := range p.config.SectionPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func (p *Parser) matchField(line string) (label, value string, ok bool) {
	for _, re := range p.config.FieldPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}
