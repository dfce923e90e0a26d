// File path: internal/document/placeholder.go
package document

import "regexp"

// placeholderPatterns is the fixed marker catalogue for unresolved fields:
// double-curly tokens, runs of three or more underscores, and bracketed
// sentinels in both languages the templates ship in.
var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\{\{[^{}]*\}\}`),
	regexp.MustCompile(`_{3,}`),
	regexp.MustCompile(`(?i)\[(?:blank|todo|tbd|vuoto|da compilare|da inserire|inserire)\]`),
}

// ContainsPlaceholders reports whether any unresolved-field marker remains
// in the text.
func ContainsPlaceholders(text string) bool {
	if text == "" {
		return false
	}
	for _, re := range placeholderPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// CountPlaceholders counts unresolved-field markers across the catalogue.
func CountPlaceholders(text string) int {
	if text == "" {
		return 0
	}
	count := 0
	for _, re := range placeholderPatterns {
		count += len(re.FindAllStringIndex(text, -1))
	}
	return count
}
