package tracker

import (
	"strings"
	"unicode"
)

const searchPunct = ".,'’\"!?;:-_()[]{}&/\\`"

// Normalize strips whitespace and punctuation and upper-cases s.
func Normalize(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(searchPunct, r) {
			return -1
		}
		return r
	}, s))
}

// Matches reports whether query is a substring of the pub's name or address
// after normalisation. An empty query matches everything.
func Matches(query string, p Pub) bool {
	q := Normalize(query)
	if q == "" {
		return true
	}
	return strings.Contains(Normalize(p.Name), q) || strings.Contains(Normalize(p.Address), q)
}
