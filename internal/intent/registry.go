package intent

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/grizzdank/vozctl/internal/intent/format"
)

// Pattern tiers. Lower tiers match before higher ones, so a specific form
// ("go word left") always wins over the general form that would otherwise
// swallow it ("go <count> <direction>"). Within a tier, declaration order
// decides.
const (
	tierSpecific = 1 // fixed keywords with optional captures
	tierGeneral  = 2 // broad count/direction forms
	tierCapture  = 3 // trailing free-text captures ("type ...")
)

// exactEntry is a fixed phrase bound to a command handler.
type exactEntry struct {
	name string

	// dictationSafe entries still fire in dictation mode ("scratch that",
	// the mode switches).
	dictationSafe bool

	run func(e *Engine) error
}

// patternEntry is a parameterized command: an anchored regular expression
// with named capture groups.
type patternEntry struct {
	name string
	tier int
	expr string

	// keywords are the literal words of the pattern, used to seed the
	// command vocabulary for phonetic correction and escalation gating.
	keywords []string

	// probes are sample utterances this pattern must match, and must be the
	// FIRST pattern to match. They pin the tier ordering: reordering the
	// catalog so a broader pattern shadows this one fails construction.
	probes []string

	re  *regexp.Regexp
	run func(e *Engine, args Args) error
}

// punctEntry maps a spoken punctuation word to its character.
type punctEntry struct {
	word string
	char string

	// ambiguous words ("dash", "bang", "dot") double as prose and only
	// resolve as punctuation when spoken alone.
	ambiguous bool

	// opening marks characters that attach to the following word, so no
	// trailing space is typed after them.
	opening bool
}

// Registry is the immutable rule set: exact phrases, parameterized
// patterns, text formatters, punctuation words, and the phonetic alphabet.
// It is read-only after construction and safe for concurrent lookup.
type Registry struct {
	exact    map[string]exactEntry
	patterns []patternEntry // sorted by tier, declaration order within
	punct    map[string]punctEntry

	// vocabulary is every word a command phrase can contain. The fuzzy
	// corrector snaps near-miss words onto it; the escalation gate requires
	// at least one vocabulary word before spending a remote call.
	vocabulary map[string]struct{}
}

// NewRegistry builds the rule registry from the built-in catalog and
// validates it: patterns must compile, names must be unique, and every
// pattern probe must select its own pattern first. All violations are
// reported together.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		exact:      make(map[string]exactEntry),
		punct:      make(map[string]punctEntry),
		vocabulary: make(map[string]struct{}),
	}

	var errs []error

	for _, e := range catalogExact() {
		key := Normalize(e.name)
		if key == "" {
			errs = append(errs, fmt.Errorf("intent: exact command with empty phrase"))
			continue
		}
		if _, dup := r.exact[key]; dup {
			errs = append(errs, fmt.Errorf("intent: duplicate exact phrase %q", key))
			continue
		}
		r.exact[key] = e
	}

	seen := make(map[string]bool)
	for _, p := range catalogPatterns() {
		if seen[p.name] {
			errs = append(errs, fmt.Errorf("intent: duplicate pattern name %q", p.name))
			continue
		}
		seen[p.name] = true
		re, err := regexp.Compile(p.expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("intent: pattern %q: %w", p.name, err))
			continue
		}
		p.re = re
		r.patterns = append(r.patterns, p)
	}
	sort.SliceStable(r.patterns, func(i, j int) bool {
		return r.patterns[i].tier < r.patterns[j].tier
	})

	for _, pe := range catalogPunctuation() {
		if _, dup := r.punct[pe.word]; dup {
			errs = append(errs, fmt.Errorf("intent: duplicate punctuation word %q", pe.word))
			continue
		}
		r.punct[pe.word] = pe
	}

	errs = append(errs, r.validateProbes()...)

	r.buildVocabulary()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// validateProbes checks that each pattern's probe utterances select that
// pattern under first-match semantics.
func (r *Registry) validateProbes() []error {
	var errs []error
	for _, p := range r.patterns {
		if p.re == nil {
			continue
		}
		for _, probe := range p.probes {
			norm := Normalize(probe)
			got, _, ok := r.matchPattern(norm)
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("intent: pattern %q: probe %q matches nothing", p.name, probe))
			case got.name != p.name:
				errs = append(errs, fmt.Errorf("intent: pattern %q: probe %q shadowed by %q", p.name, probe, got.name))
			}
		}
	}
	return errs
}

// buildVocabulary collects every word that can appear in a command phrase.
func (r *Registry) buildVocabulary() {
	add := func(phrase string) {
		for _, w := range strings.Fields(phrase) {
			r.vocabulary[w] = struct{}{}
		}
	}
	for key := range r.exact {
		add(key)
	}
	for _, p := range r.patterns {
		for _, w := range p.keywords {
			add(w)
		}
	}
	for _, key := range format.Keys() {
		add(key)
	}
	for word := range r.punct {
		add(word)
	}
	for word := range natoAlphabet {
		add(word)
	}
	for _, w := range capPrefixes {
		add(w)
	}
	for word := range numberWords {
		add(word)
	}
}

// lookupExact returns the exact command for a normalized utterance.
func (r *Registry) lookupExact(norm string) (exactEntry, bool) {
	e, ok := r.exact[norm]
	return e, ok
}

// matchPattern returns the first parameterized pattern matching the
// normalized utterance, with its captured arguments in group order.
func (r *Registry) matchPattern(norm string) (patternEntry, Args, bool) {
	for _, p := range r.patterns {
		m := p.re.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		var args Args
		for i, name := range p.re.SubexpNames() {
			if i == 0 || name == "" || m[i] == "" {
				continue
			}
			args = append(args, Arg{Name: name, Value: m[i]})
		}
		return p, args, true
	}
	return patternEntry{}, nil, false
}

// maxPunctWords is the longest punctuation phrase in the catalog, in words.
const maxPunctWords = 2

// matchTrailingPunctuation checks whether the normalized utterance ends in
// a known punctuation phrase, trying the longest phrase length first. It
// returns the number of leading words before the phrase. Ambiguous phrases
// ("dash", "bang") only match when they are the entire utterance.
func (r *Registry) matchTrailingPunctuation(norm string) (beforeWords int, pe punctEntry, ok bool) {
	fields := strings.Fields(norm)
	for n := maxPunctWords; n >= 1; n-- {
		if len(fields) < n {
			continue
		}
		phrase := strings.Join(fields[len(fields)-n:], " ")
		entry, found := r.punct[phrase]
		if !found {
			continue
		}
		if entry.ambiguous && len(fields) > n {
			continue
		}
		return len(fields) - n, entry, true
	}
	return 0, punctEntry{}, false
}

// Vocabulary returns the command word set. The returned map is shared;
// callers must not modify it.
func (r *Registry) Vocabulary() map[string]struct{} {
	return r.vocabulary
}

// containsVocabulary reports whether any word of the normalized utterance
// is a known command word.
func (r *Registry) containsVocabulary(norm string) bool {
	for _, w := range strings.Fields(norm) {
		if _, ok := r.vocabulary[w]; ok {
			return true
		}
	}
	return false
}
