package intent

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a raw transcript for registry lookup: lowercase,
// strip everything except letters, digits, underscores, and spaces, then
// collapse whitespace runs to single spaces and trim. Normalize is
// idempotent — applying it twice yields the same string as applying it
// once — so transcripts can be renormalized freely across tiers.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// scrub strips punctuation and collapses whitespace like [Normalize] but
// preserves the original letter casing. Formatter and raw-type remainders
// are extracted from the unlowered transcript so that spoken casing
// survives into the formatted output.
func scrub(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
