package format_test

import (
	"strings"
	"testing"

	"github.com/grizzdank/vozctl/internal/intent/format"
)

func TestTransforms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   format.Func
		in   string
		want string
	}{
		{"snake", format.Snake, "hello world", "hello_world"},
		{"snake single", format.Snake, "hello", "hello"},
		{"camel", format.Camel, "hello world again", "helloWorldAgain"},
		{"camel empty", format.Camel, "", ""},
		{"pascal", format.Pascal, "hello world", "HelloWorld"},
		{"kebab", format.Kebab, "hello world", "hello-world"},
		{"dot", format.Dot, "hello world", "hello.world"},
		{"slash", format.Slash, "hello world", "hello/world"},
		{"upper", format.Upper, "hello world", "HELLO WORLD"},
		{"lower", format.Lower, "Hello World", "hello world"},
		{"title", format.Title, "hello world", "Hello World"},
		{"constant", format.Constant, "hello world", "HELLO_WORLD"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.fn(tc.in); got != tc.want {
				t.Errorf("%s(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
			}
		})
	}
}

func TestTransformsNormalizeCasing(t *testing.T) {
	t.Parallel()

	// Joining transforms lowercase their input words so the output is a
	// well-formed identifier regardless of STT casing.
	if got := format.Snake("Hello World"); got != "hello_world" {
		t.Errorf("Snake(%q) = %q, want %q", "Hello World", got, "hello_world")
	}
	if got := format.Camel("FOO BAR"); got != "fooBar" {
		t.Errorf("Camel(%q) = %q, want %q", "FOO BAR", got, "fooBar")
	}
}

func TestKeysLongestFirst(t *testing.T) {
	t.Parallel()

	keys := format.Keys()
	if len(keys) == 0 {
		t.Fatal("Keys() returned no formatter keys")
	}
	for i := 1; i < len(keys); i++ {
		if len(keys[i-1]) < len(keys[i]) {
			t.Fatalf("Keys() not sorted longest-first: %q before %q", keys[i-1], keys[i])
		}
	}

	// "snake case" must come before "snake".
	caseIdx, bareIdx := -1, -1
	for i, k := range keys {
		switch k {
		case "snake case":
			caseIdx = i
		case "snake":
			bareIdx = i
		}
	}
	if caseIdx == -1 || bareIdx == -1 {
		t.Fatalf("Keys() missing snake entries: %v", keys)
	}
	if caseIdx > bareIdx {
		t.Errorf("%q (index %d) must precede %q (index %d)", "snake case", caseIdx, "snake", bareIdx)
	}
}

func TestLookupAliases(t *testing.T) {
	t.Parallel()

	fn, ok := format.Lookup("all caps")
	if !ok {
		t.Fatal(`Lookup("all caps") not found`)
	}
	if got := fn("max retry count"); got != "MAX_RETRY_COUNT" {
		t.Errorf(`all caps("max retry count") = %q, want "MAX_RETRY_COUNT"`, got)
	}

	for _, key := range format.Keys() {
		if _, ok := format.Lookup(key); !ok {
			t.Errorf("Lookup(%q) failed for key returned by Keys()", key)
		}
		if strings.TrimSpace(key) != key {
			t.Errorf("key %q has surrounding whitespace", key)
		}
	}
}
