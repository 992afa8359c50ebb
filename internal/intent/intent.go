// Package intent implements the intent resolution engine: the layered
// matcher that turns a speech transcript into a deterministic sequence of
// executable actions (key presses, typed text, mode changes).
//
// Resolution is tiered. The fast path applies the rule registry — exact
// phrases, parameterized patterns, text formatters, the phonetic alphabet,
// and multi-utterance splitting — to the transcript with zero added latency.
// Utterances the fast path cannot resolve may be escalated to a remote
// small-language-model disambiguator under a hard time budget; anything
// still unresolved is typed verbatim as dictation. Resolution never fails:
// the worst case for any input is literal dictation.
//
// The [Engine] owns all mutable state (the mode gate and the scratch
// buffer) and is driven synchronously, one completed utterance at a time,
// from a single processing loop. Registry lookups are read-only after
// construction and safe to share.
package intent

import (
	"time"
)

// ActionKind classifies what an [Action] does.
type ActionKind string

const (
	// KindCommand is a key press, hotkey, or other editor command.
	KindCommand ActionKind = "command"

	// KindDictation types spoken words verbatim, with a trailing space.
	KindDictation ActionKind = "dictation"

	// KindFormat types the output of a text formatter, without a trailing
	// space — formatted identifiers are usually completed by hand.
	KindFormat ActionKind = "format"

	// KindPunctuation inserts a punctuation character with smart spacing.
	KindPunctuation ActionKind = "punctuation"
)

// Source records which resolution tier produced an [IntentResult]. It is
// observability and test surface only — downstream behavior never branches
// on it.
type Source string

const (
	// SourceFastPath marks results from rule-based matching.
	SourceFastPath Source = "fast_path"

	// SourceRemoteModel marks results from the remote disambiguator.
	SourceRemoteModel Source = "slm"

	// SourceFallback marks literal-dictation fallback results.
	SourceFallback Source = "fallback"
)

// Mode is the engine's matching context.
type Mode string

const (
	// ModeCommand applies the full fast-path matcher to every utterance.
	ModeCommand Mode = "command"

	// ModeDictation types utterances verbatim; only dictation-safe exact
	// commands and punctuation words are still recognised.
	ModeDictation Mode = "dictation"
)

// IsValid reports whether m is a recognised engine mode.
func (m Mode) IsValid() bool {
	return m == ModeCommand || m == ModeDictation
}

// Arg is one named argument captured from a parameterized pattern.
type Arg struct {
	Name  string
	Value string
}

// Args is an ordered list of captured arguments. Order follows the named
// capture groups of the pattern that produced them.
type Args []Arg

// Get returns the value of the argument with the given name, or "".
func (a Args) Get(name string) string {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value
		}
	}
	return ""
}

// Action is a single atomic action to execute. It is immutable once
// constructed; the handler closes over everything it needs (captured
// arguments, resolved text, the injector) so execution requires no further
// lookup and — except for remote-model results — no network access.
type Action struct {
	// Kind classifies the action.
	Kind ActionKind

	// Name is the command name or a short description ("save",
	// "go_n_direction", "format:snake", "dictation").
	Name string

	// Args holds captured pattern arguments, in capture order.
	Args Args

	// Text is the text to type for dictation/format/punctuation actions.
	Text string

	// handler executes the action. Nil handlers are skipped with a warning.
	handler func() error
}

// IntentResult is the outcome of resolving one utterance.
type IntentResult struct {
	// Actions is the ordered action sequence. Multi-utterance transcripts
	// produce more than one action; execution isolates per-action failures.
	Actions []Action

	// Source is the resolution tier that produced this result.
	Source Source

	// Latency is the end-to-end resolution time, including any remote call.
	Latency time.Duration
}

// AppContext is a snapshot of the frontmost application, included in the
// escalation prompt when available so the disambiguator can bias toward the
// active program's conventions.
type AppContext struct {
	// AppName is the human-readable application name (e.g., "Ghostty").
	AppName string

	// AppID is the platform identifier (e.g., "com.mitchellh.ghostty").
	AppID string
}
