package intent

import "strings"

// natoAlphabet maps NATO phonetic words to their letters, plus spoken digit
// names. Decoding is lowercase; capitalization is requested per-letter with
// a cap prefix.
var natoAlphabet = map[string]string{
	"alpha": "a", "alfa": "a", "bravo": "b", "charlie": "c", "delta": "d",
	"echo": "e", "foxtrot": "f", "golf": "g", "hotel": "h", "india": "i",
	"juliet": "j", "juliett": "j", "kilo": "k", "lima": "l", "mike": "m",
	"november": "n", "oscar": "o", "papa": "p", "quebec": "q", "romeo": "r",
	"sierra": "s", "tango": "t", "uniform": "u", "victor": "v",
	"whiskey": "w", "xray": "x", "yankee": "y", "zulu": "z",

	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
}

// capPrefixes are the words that uppercase the phonetic letter that follows
// ("cap bravo" types "B").
var capPrefixes = []string{"cap", "capital", "uppercase"}

func isCapPrefix(w string) bool {
	for _, p := range capPrefixes {
		if w == p {
			return true
		}
	}
	return false
}

// decodePhonetic spells out a normalized utterance made entirely of NATO
// alphabet words, digit names, and cap prefixes. Decoding is all or
// nothing: a single unrecognised word rejects the whole utterance, and
// single-word utterances are never spelled (words like "delta" and "echo"
// occur in ordinary prose). A cap prefix is only valid immediately before
// an alphabet word, so doubled or trailing prefixes reject.
func decodePhonetic(norm string) (string, bool) {
	words := strings.Fields(norm)
	if len(words) < 2 {
		return "", false
	}
	var b strings.Builder
	upper := false
	for _, w := range words {
		if isCapPrefix(w) {
			if upper {
				return "", false
			}
			upper = true
			continue
		}
		letter, ok := natoAlphabet[w]
		if !ok {
			return "", false
		}
		if upper {
			letter = strings.ToUpper(letter)
			upper = false
		}
		b.WriteString(letter)
	}
	if upper || b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}
