package intent

import (
	"regexp"
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if len(r.exact) == 0 || len(r.patterns) == 0 || len(r.punct) == 0 {
		t.Fatal("registry tables unexpectedly empty")
	}
	for i := 1; i < len(r.patterns); i++ {
		if r.patterns[i].tier < r.patterns[i-1].tier {
			t.Fatalf("patterns not tier-ordered: %q (tier %d) after %q (tier %d)",
				r.patterns[i].name, r.patterns[i].tier,
				r.patterns[i-1].name, r.patterns[i-1].tier)
		}
	}
}

func TestMatchPatternPrecedence(t *testing.T) {
	t.Parallel()
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	tests := []struct {
		utterance string
		want      string
		args      map[string]string
	}{
		{"go word left", "word_move", map[string]string{"direction": "left"}},
		{"go two words left", "word_move", map[string]string{"count": "two", "direction": "left"}},
		{"go 3 left", "go_n_direction", map[string]string{"count": "3", "direction": "left"}},
		{"delete two words", "delete_words", map[string]string{"count": "two"}},
		{"delete 3", "delete_n", map[string]string{"count": "3"}},
		{"select line 7", "select_line_n", map[string]string{"number": "7"}},
		{"go to line 42", "go_to_line", map[string]string{"number": "42"}},
		{"type hello world", "type_text", map[string]string{"text": "hello world"}},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			t.Parallel()
			p, args, ok := r.matchPattern(Normalize(tt.utterance))
			if !ok {
				t.Fatalf("matchPattern(%q): no match", tt.utterance)
			}
			if p.name != tt.want {
				t.Fatalf("matchPattern(%q) = %q, want %q", tt.utterance, p.name, tt.want)
			}
			for name, want := range tt.args {
				if got := args.Get(name); got != want {
					t.Errorf("arg %q = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestMatchPatternArgsOrdered(t *testing.T) {
	t.Parallel()
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	_, args, ok := r.matchPattern("go two words left")
	if !ok {
		t.Fatal("no match")
	}
	if len(args) != 2 || args[0].Name != "count" || args[1].Name != "direction" {
		t.Fatalf("args not in capture order: %+v", args)
	}
}

func TestValidateProbesDetectsShadowing(t *testing.T) {
	t.Parallel()
	// A general pattern placed ahead of the specific one it shadows must
	// fail probe validation.
	r := &Registry{}
	general := patternEntry{
		name:   "general",
		tier:   tierSpecific,
		expr:   `^go (?P<count>\w+) (?P<rest>.+)$`,
		probes: []string{"go 3 left"},
	}
	specific := patternEntry{
		name:   "specific",
		tier:   tierSpecific,
		expr:   `^go (?P<count>\w+) words$`,
		probes: []string{"go three words"},
	}
	general.re = regexp.MustCompile(general.expr)
	specific.re = regexp.MustCompile(specific.expr)
	r.patterns = []patternEntry{general, specific}

	errs := r.validateProbes()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Error(), "shadowed") {
		t.Fatalf("unexpected error: %v", errs[0])
	}
}

func TestMatchTrailingPunctuation(t *testing.T) {
	t.Parallel()
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	tests := []struct {
		name       string
		utterance  string
		wantChar   string
		wantBefore int
		wantMatch  bool
	}{
		{name: "standalone word", utterance: "comma", wantChar: ",", wantBefore: 0, wantMatch: true},
		{name: "trailing word", utterance: "hello world comma", wantChar: ",", wantBefore: 2, wantMatch: true},
		{name: "two word phrase", utterance: "done question mark", wantChar: "?", wantBefore: 1, wantMatch: true},
		{name: "ambiguous standalone", utterance: "dash", wantChar: "-", wantBefore: 0, wantMatch: true},
		{name: "ambiguous trailing rejected", utterance: "the hundred yard dash", wantMatch: false},
		{name: "bang trailing rejected", utterance: "big bang", wantMatch: false},
		{name: "no punctuation", utterance: "hello world", wantMatch: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			before, pe, ok := r.matchTrailingPunctuation(tt.utterance)
			if ok != tt.wantMatch {
				t.Fatalf("match = %v, want %v", ok, tt.wantMatch)
			}
			if !ok {
				return
			}
			if pe.char != tt.wantChar || before != tt.wantBefore {
				t.Errorf("got char=%q before=%d, want char=%q before=%d",
					pe.char, before, tt.wantChar, tt.wantBefore)
			}
		})
	}
}

func TestVocabulary(t *testing.T) {
	t.Parallel()
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	for _, w := range []string{"go", "delete", "select", "save", "snake", "sierra", "comma", "words"} {
		if _, ok := r.vocabulary[w]; !ok {
			t.Errorf("vocabulary missing %q", w)
		}
	}
	if r.containsVocabulary("tell me about whales") {
		t.Error("prose with no command words reported as command-like")
	}
	if !r.containsVocabulary("please go somewhere") {
		t.Error("utterance containing a command verb not reported")
	}
}

func TestParseCountCoversOneThroughTwenty(t *testing.T) {
	t.Parallel()
	words := []string{
		"one", "two", "three", "four", "five", "six", "seven", "eight",
		"nine", "ten", "eleven", "twelve", "thirteen", "fourteen",
		"fifteen", "sixteen", "seventeen", "eighteen", "nineteen", "twenty",
	}
	for i, w := range words {
		n, ok := parseCount(w)
		if !ok || n != i+1 {
			t.Errorf("parseCount(%q) = %d, %v, want %d", w, n, ok, i+1)
		}
	}
	if n, ok := parseCount(""); !ok || n != 1 {
		t.Errorf("parseCount(\"\") = %d, %v, want 1", n, ok)
	}
	if _, ok := parseCount("umpteen"); ok {
		t.Error("unknown count word accepted")
	}
}
