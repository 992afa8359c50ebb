package intent

import (
	"strconv"

	"github.com/grizzdank/vozctl/pkg/inject"
)

// numberWords maps spoken count words to their values. Digit strings are
// handled by [parseCount] directly.
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
	"nineteen": 19, "twenty": 20,
}

// parseCount interprets a captured count argument. Empty means one.
func parseCount(s string) (int, bool) {
	if s == "" {
		return 1, true
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n, true
	}
	n, ok := numberWords[s]
	return n, ok
}

// key builds an exact-command handler that presses one key chord.
func key(name string, mods ...string) func(*Engine) error {
	return func(e *Engine) error { return e.pressKey(name, mods...) }
}

// catalogExact is the built-in exact phrase table. Phrases are given in
// spoken form; [NewRegistry] normalizes them into lookup keys.
func catalogExact() []exactEntry {
	entries := []exactEntry{
		// Editing.
		{name: "undo", run: key("z", inject.ModCmd)},
		{name: "redo", run: key("z", inject.ModCmd, inject.ModShift)},
		{name: "copy", run: key("c", inject.ModCmd)},
		{name: "cut", run: key("x", inject.ModCmd)},
		{name: "paste", run: key("v", inject.ModCmd)},
		{name: "save", run: key("s", inject.ModCmd)},
		{name: "select all", run: key("a", inject.ModCmd)},
		{name: "select line", run: key("l", inject.ModCmd)},
		{name: "delete", run: key(inject.KeyBackspace)},
		{name: "delete that", run: key(inject.KeyBackspace)},
		{name: "backspace", run: key(inject.KeyBackspace)},
		{name: "delete word", run: key(inject.KeyBackspace, inject.ModAlt)},
		{name: "delete line", run: key("k", inject.ModCmd, inject.ModShift)},
		{name: "new line", run: key(inject.KeyReturn)},

		// Navigation.
		{name: "go up", run: key(inject.KeyUp)},
		{name: "go down", run: key(inject.KeyDown)},
		{name: "go left", run: key(inject.KeyLeft)},
		{name: "go right", run: key(inject.KeyRight)},
		{name: "page up", run: key(inject.KeyPageUp)},
		{name: "page down", run: key(inject.KeyPageDown)},
		{name: "go home", run: key(inject.KeyHome)},
		{name: "go end", run: key(inject.KeyEnd)},
		{name: "head", run: key(inject.KeyUp, inject.ModCmd)},
		{name: "tail", run: key(inject.KeyDown, inject.ModCmd)},

		// Bare keys.
		{name: "tab", run: key(inject.KeyTab)},
		{name: "escape", run: key(inject.KeyEscape)},
		{name: "enter", run: key(inject.KeyReturn)},
		{name: "space", run: key(inject.KeySpace)},

		// Terminal.
		{name: "cancel", run: key("c", inject.ModCtrl)},
		{name: "clear", run: key("l", inject.ModCtrl)},
		{name: "exit", run: key("d", inject.ModCtrl)},

		// Tabs and windows.
		{name: "new tab", run: key("t", inject.ModCmd)},
		{name: "close tab", run: key("w", inject.ModCmd)},
		{name: "next tab", run: key(inject.KeyTab, inject.ModCtrl)},
		{name: "previous tab", run: key(inject.KeyTab, inject.ModCtrl, inject.ModShift)},

		// Engine state. These stay live in dictation mode: without them a
		// dictation session could neither be corrected nor left.
		{name: "scratch that", dictationSafe: true, run: (*Engine).scratchThat},
		{name: "command mode", dictationSafe: true, run: func(e *Engine) error { return e.setMode(ModeCommand) }},
		{name: "dictation mode", dictationSafe: true, run: func(e *Engine) error { return e.setMode(ModeDictation) }},
	}
	return entries
}

// catalogPatterns is the built-in parameterized pattern table. Patterns are
// anchored and matched in tier order; probes pin that ordering at
// construction time.
func catalogPatterns() []patternEntry {
	return []patternEntry{
		{
			name:     "select_words",
			tier:     tierSpecific,
			expr:     `^select (?:(?P<count>\w+) )?words? (?P<direction>left|right)$`,
			keywords: []string{"select", "word", "words", "left", "right"},
			probes:   []string{"select word left", "select two words right"},
			run: func(e *Engine, args Args) error {
				return e.repeatKey(args, "count", args.Get("direction"), inject.ModAlt, inject.ModShift)
			},
		},
		{
			name:     "word_move",
			tier:     tierSpecific,
			expr:     `^(?:go )?(?:(?P<count>\w+) )?words? (?P<direction>left|right)$`,
			keywords: []string{"go", "word", "words", "left", "right"},
			probes:   []string{"go word left", "word left", "go two words left", "go 3 words right"},
			run: func(e *Engine, args Args) error {
				return e.repeatKey(args, "count", args.Get("direction"), inject.ModAlt)
			},
		},
		{
			name:     "delete_words",
			tier:     tierSpecific,
			expr:     `^delete (?P<count>\w+) words?$`,
			keywords: []string{"delete", "word", "words"},
			probes:   []string{"delete two words", "delete 3 words"},
			run: func(e *Engine, args Args) error {
				return e.repeatKey(args, "count", inject.KeyBackspace, inject.ModAlt)
			},
		},
		{
			name:     "go_to_line",
			tier:     tierSpecific,
			expr:     `^go to line (?P<number>\d+)$`,
			keywords: []string{"go", "to", "line"},
			probes:   []string{"go to line 42"},
			run: func(e *Engine, args Args) error {
				return e.goToLine(args.Get("number"))
			},
		},
		{
			name:     "select_line_n",
			tier:     tierSpecific,
			expr:     `^select line (?P<number>\d+)$`,
			keywords: []string{"select", "line"},
			probes:   []string{"select line 7"},
			run: func(e *Engine, args Args) error {
				if err := e.goToLine(args.Get("number")); err != nil {
					return err
				}
				return e.pressKey("l", inject.ModCmd)
			},
		},
		{
			name:     "go_n_direction",
			tier:     tierGeneral,
			expr:     `^go (?P<count>\w+) (?P<direction>up|down|left|right)$`,
			keywords: []string{"go", "up", "down", "left", "right"},
			probes:   []string{"go 3 left", "go two up"},
			run: func(e *Engine, args Args) error {
				return e.repeatKey(args, "count", args.Get("direction"))
			},
		},
		{
			name:     "select_n_direction",
			tier:     tierGeneral,
			expr:     `^select (?P<count>\w+) (?P<direction>up|down|left|right)$`,
			keywords: []string{"select", "up", "down", "left", "right"},
			probes:   []string{"select 3 left", "select two down"},
			run: func(e *Engine, args Args) error {
				return e.repeatKey(args, "count", args.Get("direction"), inject.ModShift)
			},
		},
		{
			name:     "delete_n",
			tier:     tierGeneral,
			expr:     `^delete (?P<count>\w+)$`,
			keywords: []string{"delete"},
			probes:   []string{"delete 3", "delete two"},
			run: func(e *Engine, args Args) error {
				return e.repeatKey(args, "count", inject.KeyBackspace)
			},
		},
		{
			name:     "focus_direction",
			tier:     tierGeneral,
			expr:     `^focus (?P<direction>up|down|left|right)$`,
			keywords: []string{"focus", "up", "down", "left", "right"},
			probes:   []string{"focus left"},
			run: func(e *Engine, args Args) error {
				return e.pressKey(args.Get("direction"), inject.ModCmd, inject.ModAlt)
			},
		},
		{
			name:     "type_text",
			tier:     tierCapture,
			expr:     `^(?:type|insert) (?P<text>.+)$`,
			keywords: []string{"type", "insert"},
			probes:   []string{"type hello world", "insert foo"},
			run: func(e *Engine, args Args) error {
				return e.emitText(args.Get("text"), false)
			},
		},
	}
}

// catalogPunctuation is the built-in spoken punctuation table.
func catalogPunctuation() []punctEntry {
	return []punctEntry{
		{word: "period", char: "."},
		{word: "full stop", char: "."},
		{word: "comma", char: ","},
		{word: "question mark", char: "?"},
		{word: "exclamation mark", char: "!"},
		{word: "exclamation point", char: "!"},
		{word: "semicolon", char: ";"},
		{word: "colon", char: ":"},
		{word: "underscore", char: "_"},
		{word: "hyphen", char: "-"},
		{word: "ampersand", char: "&"},
		{word: "at sign", char: "@"},

		// Double-duty words: common in prose, so they only resolve as
		// punctuation when spoken as the entire utterance.
		{word: "dash", char: "-", ambiguous: true},
		{word: "bang", char: "!", ambiguous: true},
		{word: "dot", char: ".", ambiguous: true},
		{word: "point", char: ".", ambiguous: true},

		// Opening characters attach to the word that follows them.
		{word: "open paren", char: "(", opening: true},
		{word: "open bracket", char: "[", opening: true},
		{word: "open brace", char: "{", opening: true},
		{word: "open quote", char: `"`, opening: true},
		{word: "backtick", char: "`", opening: true},

		{word: "close paren", char: ")"},
		{word: "close bracket", char: "]"},
		{word: "close brace", char: "}"},
		{word: "close quote", char: `"`},
	}
}
