package intent

import (
	"regexp"
	"strings"

	"github.com/grizzdank/vozctl/internal/intent/format"
	"github.com/grizzdank/vozctl/pkg/inject"
)

// typeRawPattern matches the explicit "type/insert <text>" form on the raw
// transcript, before normalization, so the captured text keeps its spoken
// casing.
var typeRawPattern = regexp.MustCompile(`(?i)^\s*(?:type|insert)\s+(\S.*)$`)

// splitPattern breaks a raw transcript into sub-utterances on runs of
// sentence punctuation inserted by the recognizer.
var splitPattern = regexp.MustCompile(`[.!?,;]+`)

// typedKeyNames maps spoken names of non-printable keys to key presses, so
// "type enter" presses the key instead of typing the word.
var typedKeyNames = map[string]string{
	"space":   inject.KeySpace,
	"tab":     inject.KeyTab,
	"enter":   inject.KeyReturn,
	"newline": inject.KeyReturn,
}

// fastPath applies the rule registry to a raw transcript with strict
// precedence, short-circuiting on the first tier that matches:
//
//  1. raw "type/insert <text>" with original casing
//  2. exact phrase
//  3. parameterized pattern
//  4. formatter prefix
//  5. phonetic-alphabet decode
//  6. multi-utterance split, re-running 2–5 per piece
//
// A false return signals the caller to escalate.
func (e *Engine) fastPath(raw string) ([]Action, bool) {
	norm := Normalize(raw)
	if norm == "" {
		return nil, false
	}

	if a, ok := e.matchRawType(raw); ok {
		return []Action{a}, true
	}
	if a, ok := e.matchSingle(raw, norm); ok {
		return []Action{a}, true
	}

	// Multi-utterance: the recognizer often glues several commands into one
	// transcript, separated by inserted punctuation. Pieces that resolve
	// run in order; pieces that resolve to nothing are dropped, not typed.
	pieces := splitUtterances(raw)
	if len(pieces) < 2 {
		return nil, false
	}
	var actions []Action
	for _, piece := range pieces {
		if a, ok := e.matchSingle(piece, Normalize(piece)); ok {
			actions = append(actions, a)
		} else {
			e.log.Debug("dropping unmatched sub-utterance", "piece", piece)
		}
	}
	if len(actions) == 0 {
		return nil, false
	}
	return actions, true
}

// matchRawType handles the explicit literal-typing form. The captured text
// keeps its original casing; spoken names of non-printable keys become key
// presses instead.
func (e *Engine) matchRawType(raw string) (Action, bool) {
	m := typeRawPattern.FindStringSubmatch(raw)
	if m == nil {
		return Action{}, false
	}
	captured := strings.TrimSpace(m[1])
	if captured == "" {
		return Action{}, false
	}
	// Only the key-name check normalizes; the typed text itself goes out
	// verbatim, dots, digits and all.
	if key, ok := typedKeyNames[Normalize(captured)]; ok {
		entry := exactEntry{
			name: "type " + Normalize(captured),
			run: func(e *Engine) error {
				return e.pressKey(key)
			},
		}
		return e.commandAction(entry), true
	}
	return Action{
		Kind:    KindDictation,
		Name:    "type_text",
		Text:    captured,
		handler: func() error { return e.emitText(captured, false) },
	}, true
}

// matchSingle runs the whole-utterance tiers (exact, parameterized,
// formatter, phonetic) against one utterance. rawPiece carries the original
// casing for formatter remainders.
func (e *Engine) matchSingle(rawPiece, norm string) (Action, bool) {
	if norm == "" {
		return Action{}, false
	}
	if entry, ok := e.reg.lookupExact(norm); ok {
		return e.commandAction(entry), true
	}
	if p, args, ok := e.reg.matchPattern(norm); ok {
		return e.patternAction(p, args), true
	}
	if a, ok := e.matchFormatter(rawPiece, norm); ok {
		return a, true
	}
	if text, ok := decodePhonetic(norm); ok {
		return e.phoneticAction(text), true
	}
	return Action{}, false
}

// matchFormatter checks formatter keys longest-first against the start of
// the normalized utterance. The key must be followed by at least one more
// word; the transform is applied to the remainder of the original-cased
// text so spoken casing survives ("snake User ID" types "user_id", "camel
// User ID" types "userID").
func (e *Engine) matchFormatter(rawPiece, norm string) (Action, bool) {
	for _, key := range format.Keys() {
		if !strings.HasPrefix(norm, key+" ") {
			continue
		}
		fn, ok := format.Lookup(key)
		if !ok {
			continue
		}
		keyWords := len(strings.Fields(key))
		fields := strings.Fields(scrub(rawPiece))
		if len(fields) <= keyWords {
			continue
		}
		remainder := strings.Join(fields[keyWords:], " ")
		return e.formatAction("format:"+key, fn(remainder)), true
	}
	return Action{}, false
}

// splitUtterances breaks a raw transcript on sentence punctuation runs and
// returns the trimmed non-empty pieces.
func splitUtterances(raw string) []string {
	var pieces []string
	for _, p := range splitPattern.Split(raw, -1) {
		if p = strings.TrimSpace(p); p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}
