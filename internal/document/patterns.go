// File path: internal/document/patterns.go
package document

import "regexp"

// ParserConfig carries the ordered pattern catalogues the structure parser
// scans with. Catalogue order is part of the public contract: the first
// pattern that matches a line wins, checked in declaration order.
type ParserConfig struct {
	// SectionPatterns match non-editable structural headers.
	SectionPatterns []*regexp.Regexp
	// FieldPatterns match editable labeled values. Each pattern captures the
	// label in group 1 and the value in group 2.
	FieldPatterns []*regexp.Regexp
}

// DefaultParserConfig returns the built-in bilingual catalogue covering the
// form and contract templates the service is fed in practice.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		SectionPatterns: compileAll(
			`^\s*(?:personal information|dati personali|informazioni personali)\s*:?\s*$`,
			`^\s*(?:contact information|contatti|recapiti)\s*:?\s*$`,
			`^\s*(?:work experience|esperienza lavorativa|esperienze lavorative)\s*:?\s*$`,
			`^\s*(?:education|istruzione|formazione)\s*:?\s*$`,
			`^\s*(?:skills|competenze)\s*:?\s*$`,
			`^\s*(?:billing information|dati di fatturazione)\s*:?\s*$`,
			`^\s*(?:general information|informazioni generali)\s*:?\s*$`,
			`^\s*(?:references|referenze)\s*:?\s*$`,
			`^\s*(?:notes|note)\s*:?\s*$`,
		),
		FieldPatterns: compileAll(
			`^\s*(full name|nome completo)\s*:\s*(.*)$`,
			`^\s*(name|nome)\s*:\s*(.*)$`,
			`^\s*(surname|cognome)\s*:\s*(.*)$`,
			`^\s*(date of birth|data di nascita)\s*:\s*(.*)$`,
			`^\s*(e-?mail)\s*:\s*(.*)$`,
			`^\s*(phone|telephone|telefono|cellulare)\s*:\s*(.*)$`,
			`^\s*(address|indirizzo)\s*:\s*(.*)$`,
			`^\s*(city|città|citta)\s*:\s*(.*)$`,
			`^\s*(postal code|zip|cap)\s*:\s*(.*)$`,
			`^\s*(country|paese|nazione)\s*:\s*(.*)$`,
			`^\s*(tax code|codice fiscale)\s*:\s*(.*)$`,
			`^\s*(vat(?: number)?|partita iva)\s*:\s*(.*)$`,
			`^\s*(company|azienda|società|societa|ditta)\s*:\s*(.*)$`,
			`^\s*(role|position|ruolo|posizione|mansione)\s*:\s*(.*)$`,
			`^\s*(date|data)\s*:\s*(.*)$`,
			`^\s*(place|luogo)\s*:\s*(.*)$`,
			`^\s*(amount|importo|totale)\s*:\s*(.*)$`,
			`^\s*(description|descrizione|oggetto)\s*:\s*(.*)$`,
			`^\s*(signature|firma)\s*:\s*(.*)$`,
		),
	}
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+expr))
	}
	return out
}
