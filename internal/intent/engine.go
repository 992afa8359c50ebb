package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/metric"

	"github.com/grizzdank/vozctl/internal/intent/fuzzy"
	"github.com/grizzdank/vozctl/internal/observe"
	"github.com/grizzdank/vozctl/pkg/inject"
	"github.com/grizzdank/vozctl/pkg/provider/slm"
)

// defaultEscalationTimeout bounds the remote disambiguation round trip. The
// budget is tight on purpose: past roughly half a second the user would
// rather see their words typed than wait for a smarter answer.
const defaultEscalationTimeout = 600 * time.Millisecond

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMode sets the initial engine mode. Defaults to [ModeCommand].
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithProvider sets the remote disambiguation provider. Defaults to
// [slm.Disabled], which makes every escalation a miss.
func WithProvider(p slm.Provider) Option {
	return func(e *Engine) { e.slm = p }
}

// WithEscalationTimeout overrides the remote disambiguation time budget.
func WithEscalationTimeout(d time.Duration) Option {
	return func(e *Engine) { e.slmTimeout = d }
}

// WithFuzzyCorrector enables phonetic snapping of near-miss transcript
// words onto the command vocabulary before escalation. Nil disables it.
func WithFuzzyCorrector(c *fuzzy.Corrector) Option {
	return func(e *Engine) { e.fuzzy = c }
}

// WithMetrics sets the OTel instrument set. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithStats sets the in-process rolling stats collector. Nil disables it.
func WithStats(s *observe.ResolutionStats) Option {
	return func(e *Engine) { e.stats = s }
}

// Engine is the intent resolution engine. It owns the mode gate and the
// scratch buffer and must only be driven from a single processing loop;
// see the package documentation for the tier ordering.
type Engine struct {
	log        *slog.Logger
	keys       inject.Injector
	reg        *Registry
	slm        slm.Provider
	slmTimeout time.Duration
	fuzzy      *fuzzy.Corrector
	metrics    *observe.Metrics
	stats      *observe.ResolutionStats

	mode Mode

	// scratch is the rune count of the last emitted text block, consumed
	// by "scratch that".
	scratch int

	// trailingSpace tracks whether the last emission ended in a space, so
	// dictation punctuation can close up against the preceding word.
	trailingSpace bool
}

// NewEngine builds an engine around the given action sink. Registry
// construction validates the built-in catalog; a malformed pattern or
// duplicate phrase fails here rather than silently shadowing a command at
// match time.
func NewEngine(sink inject.Injector, opts ...Option) (*Engine, error) {
	if sink == nil {
		return nil, fmt.Errorf("intent: nil action sink")
	}
	reg, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		log:        slog.Default(),
		keys:       sink,
		reg:        reg,
		slm:        slm.Disabled{},
		slmTimeout: defaultEscalationTimeout,
		mode:       ModeCommand,
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.mode.IsValid() {
		return nil, fmt.Errorf("intent: invalid initial mode %q", e.mode)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e, nil
}

// Mode returns the current engine mode.
func (e *Engine) Mode() Mode { return e.mode }

// Vocabulary exposes the registry's command word set, for callers that
// want to seed a recognizer bias list.
func (e *Engine) Vocabulary() map[string]struct{} { return e.reg.Vocabulary() }

// Resolve turns one completed transcript into an action sequence. It never
// fails: the worst case for any input is a literal-dictation result. The
// returned actions are not yet executed; pass the result to [Engine.Execute].
func (e *Engine) Resolve(ctx context.Context, raw string, app *AppContext) *IntentResult {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "intent.resolve")
	defer span.End()

	res := e.resolve(ctx, raw, app)
	res.Latency = time.Since(start)

	e.metrics.RecordResolution(ctx, string(res.Source), string(e.mode), res.Latency.Seconds())
	if e.stats != nil {
		e.stats.RecordResolution(string(res.Source), res.Latency)
	}
	observe.Logger(ctx, e.log).Debug("resolved utterance",
		"source", res.Source,
		"mode", e.mode,
		"actions", len(res.Actions),
		"latency", res.Latency)
	return res
}

func (e *Engine) resolve(ctx context.Context, raw string, app *AppContext) *IntentResult {
	if e.mode == ModeDictation {
		return e.resolveDictation(raw)
	}
	if actions, ok := e.fastPath(raw); ok {
		return &IntentResult{Actions: actions, Source: SourceFastPath}
	}

	// A near-miss transcript ("go lift") often snaps onto the vocabulary;
	// retry the fast path on the corrected form before paying for a remote
	// call.
	if e.fuzzy != nil {
		if corrected, changed := e.fuzzy.CorrectUtterance(Normalize(raw), e.reg.Vocabulary()); changed {
			if actions, ok := e.fastPath(corrected); ok {
				e.log.Debug("fuzzy correction matched", "raw", raw, "corrected", corrected)
				return &IntentResult{Actions: actions, Source: SourceFastPath}
			}
		}
	}

	if actions, ok := e.escalate(ctx, raw, app); ok {
		return &IntentResult{Actions: actions, Source: SourceRemoteModel}
	}

	return &IntentResult{Actions: e.fallbackActions(raw), Source: SourceFallback}
}

// resolveDictation handles an utterance while the engine is in dictation
// mode: dictation-safe exact commands and punctuation words still resolve,
// everything else is typed verbatim.
func (e *Engine) resolveDictation(raw string) *IntentResult {
	norm := Normalize(raw)
	if norm == "" {
		return &IntentResult{Source: SourceFastPath}
	}

	if entry, ok := e.reg.lookupExact(norm); ok && entry.dictationSafe {
		return &IntentResult{
			Actions: []Action{e.commandAction(entry)},
			Source:  SourceFastPath,
		}
	}

	if beforeWords, pe, ok := e.reg.matchTrailingPunctuation(norm); ok {
		var actions []Action
		if beforeWords > 0 {
			fields := strings.Fields(scrub(raw))
			before := strings.Join(fields[:beforeWords], " ")
			actions = append(actions, e.dictationAction(before))
		}
		actions = append(actions, e.punctuationAction(pe))
		return &IntentResult{Actions: actions, Source: SourceFastPath}
	}

	return &IntentResult{Actions: e.fallbackActions(raw), Source: SourceFallback}
}

// fallbackActions builds the literal-dictation result that terminates every
// unresolved path.
func (e *Engine) fallbackActions(raw string) []Action {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	return []Action{e.dictationAction(text)}
}

// Execute runs every action of a result in order. A failing action is
// logged and counted; it never prevents its siblings from running, since
// multi-command utterances are common and a stuck middle action should not
// swallow the rest.
func (e *Engine) Execute(ctx context.Context, res *IntentResult) {
	for i, a := range res.Actions {
		if a.handler == nil {
			e.log.Warn("skipping action with no handler", "name", a.Name, "index", i)
			continue
		}
		if err := a.handler(); err != nil {
			e.log.Warn("action failed",
				"name", a.Name,
				"kind", a.Kind,
				"index", i,
				"error", err)
			e.metrics.ActionFailures.Add(ctx, 1, metric.WithAttributes(
				observe.Attr("name", a.Name),
				observe.Attr("kind", string(a.Kind)),
			))
			if e.stats != nil {
				e.stats.IncrActionFailures()
			}
		}
	}
}

// ── action constructors ──

func (e *Engine) commandAction(entry exactEntry) Action {
	run := entry.run
	return Action{
		Kind:    KindCommand,
		Name:    entry.name,
		handler: func() error { return run(e) },
	}
}

func (e *Engine) patternAction(p patternEntry, args Args) Action {
	run := p.run
	return Action{
		Kind:    KindCommand,
		Name:    p.name,
		Args:    args,
		handler: func() error { return run(e, args) },
	}
}

func (e *Engine) dictationAction(text string) Action {
	return Action{
		Kind:    KindDictation,
		Name:    "dictation",
		Text:    text,
		handler: func() error { return e.emitText(text, true) },
	}
}

func (e *Engine) formatAction(name, formatted string) Action {
	return Action{
		Kind:    KindFormat,
		Name:    name,
		Text:    formatted,
		handler: func() error { return e.emitText(formatted, false) },
	}
}

func (e *Engine) phoneticAction(text string) Action {
	return Action{
		Kind:    KindDictation,
		Name:    "phonetic",
		Text:    text,
		handler: func() error { return e.emitText(text, false) },
	}
}

func (e *Engine) punctuationAction(pe punctEntry) Action {
	return Action{
		Kind:    KindPunctuation,
		Name:    pe.word,
		Text:    pe.char,
		handler: func() error { return e.emitPunctuation(pe) },
	}
}

// ── emission primitives ──

// pressKey forwards a key chord to the sink. Any key press invalidates the
// smart-spacing state: the cursor may no longer sit after our last space.
func (e *Engine) pressKey(key string, mods ...string) error {
	e.trailingSpace = false
	return e.keys.PressKey(key, mods...)
}

// repeatKey presses a key chord N times, where N comes from the named count
// argument ("three", "3", or absent meaning one).
func (e *Engine) repeatKey(args Args, countArg, key string, mods ...string) error {
	n, ok := parseCount(args.Get(countArg))
	if !ok {
		return fmt.Errorf("intent: unrecognised count %q", args.Get(countArg))
	}
	for i := 0; i < n; i++ {
		if err := e.pressKey(key, mods...); err != nil {
			return err
		}
	}
	return nil
}

// goToLine drives the editor's go-to-line prompt.
func (e *Engine) goToLine(number string) error {
	if err := e.pressKey("g", inject.ModCtrl); err != nil {
		return err
	}
	if err := e.keys.TypeText(number); err != nil {
		return err
	}
	return e.pressKey(inject.KeyReturn)
}

// emitText types text through the sink, optionally with a trailing space,
// and records the emission in the scratch buffer. The scratch count
// includes the trailing space so "scratch that" removes exactly what was
// typed.
func (e *Engine) emitText(text string, trailing bool) error {
	if text == "" {
		return nil
	}
	out := text
	if trailing {
		out += " "
	}
	if err := e.keys.TypeText(out); err != nil {
		return err
	}
	e.scratch = utf8.RuneCountInString(out)
	e.trailingSpace = strings.HasSuffix(out, " ")
	return nil
}

// emitPunctuation inserts a punctuation character with smart spacing. An
// opening character keeps the preceding space and adds none after it; any
// other character first consumes the trailing space of the preceding
// emission, then types itself followed by one space.
func (e *Engine) emitPunctuation(pe punctEntry) error {
	if pe.opening {
		if err := e.keys.TypeText(pe.char); err != nil {
			return err
		}
		e.scratch = utf8.RuneCountInString(pe.char)
		e.trailingSpace = false
		return nil
	}
	if e.trailingSpace {
		if err := e.keys.PressKey(inject.KeyBackspace); err != nil {
			return err
		}
	}
	out := pe.char + " "
	if err := e.keys.TypeText(out); err != nil {
		return err
	}
	e.scratch = utf8.RuneCountInString(out)
	e.trailingSpace = true
	return nil
}

// scratchThat undoes the last emitted text block by pressing backspace once
// per rune. It consumes the counter, so a second consecutive invocation is
// a no-op.
func (e *Engine) scratchThat() error {
	n := e.scratch
	e.scratch = 0
	e.trailingSpace = false
	for i := 0; i < n; i++ {
		if err := e.keys.PressKey(inject.KeyBackspace); err != nil {
			return err
		}
	}
	return nil
}

// setMode switches the mode gate and notifies the sink. The switch takes
// effect before the next utterance is resolved.
func (e *Engine) setMode(m Mode) error {
	if e.mode == m {
		return nil
	}
	e.mode = m
	e.trailingSpace = false
	e.log.Info("mode changed", "mode", m)
	return e.keys.NotifyMode(string(m))
}
