package quote

import "strings"

// ParseTerms normalizes raw search input into part-number tokens.
// The input may be a single term or a bulk blob delimited by any mix of
// whitespace, commas and semicolons. Tokens are trimmed, uppercased and
// deduplicated, preserving first-seen order. An all-delimiter input
// yields an empty slice; callers treat that as a validation failure.
func ParseTerms(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ' ', '\t', '\r', '\n', ',', ';':
			return true
		}
		return false
	})

	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.ToUpper(strings.TrimSpace(f))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return terms
}
