// Package normalizer canonicalizes raw address strings into stable lookup
// keys. The same raw text always yields the same key, which is what makes
// cache hits and in-job deduplication correct.
package normalizer

import (
	"strings"
	"unicode"
)

// abbreviations maps common postal abbreviations to their long form. Only
// whole tokens are folded, so "Stuart St" becomes "stuart street" while
// "Stuart" is left alone. Punctuation is stripped before the lookup, so
// "St." and "St" fold the same way.
var abbreviations = map[string]string{
	"st":   "street",
	"str":  "street",
	"ave":  "avenue",
	"av":   "avenue",
	"rd":   "road",
	"blvd": "boulevard",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"pl":   "place",
	"sq":   "square",
	"hwy":  "highway",
	"pkwy": "parkway",
	"apt":  "apartment",
	"ste":  "suite",
	"fl":   "floor",
	"n":    "north",
	"s":    "south",
	"e":    "east",
	"w":    "west",
}

// Normalize canonicalizes a raw address into a comparable key. It is pure
// and total: malformed input yields a best-effort canonical form (possibly
// empty), never an error. Steps: lowercase, strip punctuation, collapse
// whitespace, fold postal abbreviations.
func Normalize(raw string) string {
	lowered := strings.ToLower(raw)

	// Replace punctuation with spaces so "221B,Baker St." splits cleanly.
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, lowered)

	tokens := strings.Fields(cleaned)
	for i, token := range tokens {
		if long, ok := abbreviations[token]; ok {
			tokens[i] = long
		}
	}

	return strings.Join(tokens, " ")
}
