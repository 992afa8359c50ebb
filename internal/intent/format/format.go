// Package format implements the pure text transforms behind voice-driven
// identifier formatting ("snake hello world" → "hello_world").
//
// Every transform is a total function from an utterance remainder to a
// formatted string; no transform touches the keyboard or any other state.
// The prefix table maps spoken formatter keys (single words and two-word
// "<name> case" variants) to transforms. Key matching is done by the intent
// registry; this package only owns the table and the transforms.
package format

import (
	"sort"
	"strings"
)

// Func is a pure text transform applied to the remainder of a formatter
// utterance.
type Func func(string) string

// words splits text into lowercase words.
func words(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// capitalize uppercases the first rune of a lowercase word.
func capitalize(w string) string {
	if w == "" {
		return ""
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

// Snake joins words with underscores: "hello world" → "hello_world".
func Snake(text string) string {
	return strings.Join(words(text), "_")
}

// Camel lower-cases the first word and capitalizes the rest:
// "hello world" → "helloWorld".
func Camel(text string) string {
	ws := words(text)
	if len(ws) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(ws[0])
	for _, w := range ws[1:] {
		sb.WriteString(capitalize(w))
	}
	return sb.String()
}

// Pascal capitalizes every word: "hello world" → "HelloWorld".
func Pascal(text string) string {
	var sb strings.Builder
	for _, w := range words(text) {
		sb.WriteString(capitalize(w))
	}
	return sb.String()
}

// Kebab joins words with hyphens: "hello world" → "hello-world".
func Kebab(text string) string {
	return strings.Join(words(text), "-")
}

// Dot joins words with periods: "hello world" → "hello.world".
func Dot(text string) string {
	return strings.Join(words(text), ".")
}

// Slash joins words with slashes: "hello world" → "hello/world".
func Slash(text string) string {
	return strings.Join(words(text), "/")
}

// Upper uppercases the text unchanged otherwise: "hello world" → "HELLO WORLD".
func Upper(text string) string {
	return strings.ToUpper(text)
}

// Lower lowercases the text: "Hello World" → "hello world".
func Lower(text string) string {
	return strings.ToLower(text)
}

// Title capitalizes each word, preserving single spaces:
// "hello world" → "Hello World".
func Title(text string) string {
	ws := words(text)
	for i, w := range ws {
		ws[i] = capitalize(w)
	}
	return strings.Join(ws, " ")
}

// Constant joins uppercased words with underscores:
// "hello world" → "HELLO_WORLD".
func Constant(text string) string {
	return strings.ToUpper(strings.Join(words(text), "_"))
}

// table maps spoken formatter keys to transforms. Two-word keys must be
// checked before their single-word prefixes; use [Keys] for the correct
// ordering.
var table = map[string]Func{
	"snake":         Snake,
	"snake case":    Snake,
	"camel":         Camel,
	"camel case":    Camel,
	"pascal":        Pascal,
	"pascal case":   Pascal,
	"kebab":         Kebab,
	"kebab case":    Kebab,
	"dot":           Dot,
	"dot case":      Dot,
	"slash":         Slash,
	"slash case":    Slash,
	"upper":         Upper,
	"upper case":    Upper,
	"lower":         Lower,
	"lower case":    Lower,
	"title":         Title,
	"title case":    Title,
	"constant":      Constant,
	"constant case": Constant,
	"all caps":      Constant,
}

// keysByLength caches the formatter keys sorted longest-first. Ties break
// alphabetically so the order is deterministic.
var keysByLength = func() []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Keys returns the formatter keys sorted longest-first, so a multi-word key
// like "snake case" is always tried before its single-word prefix "snake".
// The returned slice is shared; callers must not mutate it.
func Keys() []string {
	return keysByLength
}

// Lookup returns the transform registered under key.
func Lookup(key string) (Func, bool) {
	f, ok := table[key]
	return f, ok
}
