// Package fuzzy implements near-miss correction of command words using
// Double Metaphone phonetic encoding combined with Jaro-Winkler string
// similarity.
//
// Speech recognizers routinely mangle short command words ("go lift" for
// "go left", "sef" for "save"). Before the engine escalates a failed
// utterance to the remote disambiguator, each word is tested against the
// command vocabulary:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     the word and for each vocabulary entry. Entries sharing at least one
//     code become phonetic candidates.
//
//  2. Jaro-Winkler ranking: among phonetic candidates, the entry with the
//     highest Jaro-Winkler similarity is selected — provided its score
//     exceeds the phonetic threshold. When no phonetic candidate exists, a
//     secondary pass tests pure Jaro-Winkler similarity using a stricter
//     fuzzy threshold.
//
// Words already present in the vocabulary, digit strings, and words shorter
// than three runes are never rewritten.
package fuzzy

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.80
	defaultFuzzyThreshold    = 0.90

	// minWordLen is the shortest word eligible for correction. One- and
	// two-letter words carry too little signal for metaphone codes.
	minWordLen = 3
)

// Option is a functional option for configuring a [Corrector].
type Option func(*Corrector)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched vocabulary word to be accepted. Default: 0.80.
func WithPhoneticThreshold(threshold float64) Option {
	return func(c *Corrector) {
		c.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic candidate is found and the corrector falls back to pure string
// similarity. Default: 0.90.
func WithFuzzyThreshold(threshold float64) Option {
	return func(c *Corrector) {
		c.fuzzyThreshold = threshold
	}
}

// Corrector rewrites near-miss command words toward a fixed vocabulary.
// All methods are safe for concurrent use — the Corrector is read-only
// after construction.
type Corrector struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a new [Corrector] configured with the supplied options.
func New(opts ...Option) *Corrector {
	c := &Corrector{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CorrectUtterance rewrites each word of the normalized utterance that is a
// near-miss of a vocabulary word. It returns the corrected utterance and
// whether any word changed. Words that already appear in vocabulary are
// left untouched, so a correct utterance always round-trips unchanged.
func (c *Corrector) CorrectUtterance(normalized string, vocabulary map[string]struct{}) (string, bool) {
	if normalized == "" || len(vocabulary) == 0 {
		return normalized, false
	}

	ws := strings.Fields(normalized)
	changed := false
	for i, w := range ws {
		if corrected, ok := c.correctWord(w, vocabulary); ok {
			ws[i] = corrected
			changed = true
		}
	}
	if !changed {
		return normalized, false
	}
	return strings.Join(ws, " "), true
}

// correctWord finds the best vocabulary replacement for word, if any.
func (c *Corrector) correctWord(word string, vocabulary map[string]struct{}) (string, bool) {
	if len(word) < minWordLen || isDigits(word) {
		return word, false
	}
	if _, ok := vocabulary[word]; ok {
		return word, false
	}

	wp, ws := matchr.DoubleMetaphone(word)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)

	for entry := range vocabulary {
		if len(entry) < minWordLen {
			continue
		}

		ep, es := matchr.DoubleMetaphone(entry)
		phonetic := codesOverlap(wp, ws, ep, es)

		score := matchr.JaroWinkler(word, entry, false)

		if phonetic {
			if score >= c.phoneticThreshold && (!bestPhonetic || score > bestScore) {
				best, bestScore, bestPhonetic = entry, score, true
			}
		} else if !bestPhonetic {
			if score >= c.fuzzyThreshold && score > bestScore {
				best, bestScore = entry, score
			}
		}
	}

	if best == "" {
		return word, false
	}
	return best, true
}

// codesOverlap reports whether the two Double Metaphone code pairs share at
// least one non-empty code.
func codesOverlap(ap, as, bp, bs string) bool {
	for _, a := range [2]string{ap, as} {
		if a == "" {
			continue
		}
		if a == bp || (bs != "" && a == bs) {
			return true
		}
	}
	return false
}

// isDigits reports whether s consists entirely of decimal digits.
func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
