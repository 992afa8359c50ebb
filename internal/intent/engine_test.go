package intent

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/grizzdank/vozctl/internal/intent/fuzzy"
	"github.com/grizzdank/vozctl/pkg/inject"
	injectmock "github.com/grizzdank/vozctl/pkg/inject/mock"
)

func TestNewEngineRejectsNilSink(t *testing.T) {
	t.Parallel()
	if _, err := NewEngine(nil); err == nil {
		t.Fatal("expected error for nil sink")
	}
}

func TestNewEngineRejectsInvalidMode(t *testing.T) {
	t.Parallel()
	if _, err := NewEngine(&injectmock.Injector{}, WithMode("half-duplex")); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestModeSwitch(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t)

	if e.Mode() != ModeCommand {
		t.Fatalf("initial mode = %q", e.Mode())
	}
	resolveAndRun(t, e, "dictation mode")
	if e.Mode() != ModeDictation {
		t.Fatalf("mode = %q after switch", e.Mode())
	}
	resolveAndRun(t, e, "command mode")
	if e.Mode() != ModeCommand {
		t.Fatalf("mode = %q after switch back", e.Mode())
	}
	if !reflect.DeepEqual(sink.ModeChanges, []string{"dictation", "command"}) {
		t.Fatalf("mode notifications = %v", sink.ModeChanges)
	}
}

func TestDictationModeGating(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t, WithMode(ModeDictation))

	// A phrase that is a command in command mode becomes literal text.
	res := resolveAndRun(t, e, "go left")
	if res.Source != SourceFallback {
		t.Fatalf("source = %q, want %q", res.Source, SourceFallback)
	}
	if !reflect.DeepEqual(sink.TypedText, []string{"go left "}) {
		t.Fatalf("typed = %v", sink.TypedText)
	}
	if len(sink.PressKeyCalls) != 0 {
		t.Fatalf("unexpected key presses: %+v", sink.PressKeyCalls)
	}

	// Dictation-safe commands stay reachable.
	sink.Reset()
	res = resolveAndRun(t, e, "command mode")
	if res.Source != SourceFastPath || e.Mode() != ModeCommand {
		t.Fatalf("mode switch not reachable from dictation: %+v, mode %q", res, e.Mode())
	}
}

func TestDictationModeScratchReachable(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t, WithMode(ModeDictation))

	resolveAndRun(t, e, "hello")
	sink.Reset()
	res := resolveAndRun(t, e, "scratch that")
	if res.Source != SourceFastPath {
		t.Fatalf("source = %q", res.Source)
	}
	// "hello " is six runes.
	if got := len(sink.PressKeyCalls); got != 6 {
		t.Fatalf("backspaces = %d, want 6", got)
	}
}

func TestScratchUndoExactLength(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t)

	resolveAndRun(t, e, "type hello")
	if !reflect.DeepEqual(sink.TypedText, []string{"hello"}) {
		t.Fatalf("typed = %v", sink.TypedText)
	}

	sink.Reset()
	resolveAndRun(t, e, "scratch that")
	if got := len(sink.PressKeyCalls); got != 5 {
		t.Fatalf("backspaces = %d, want 5", got)
	}
	for _, c := range sink.PressKeyCalls {
		if c.Key != inject.KeyBackspace {
			t.Fatalf("unexpected key %q", c.Key)
		}
	}

	// A second consecutive undo removes nothing.
	sink.Reset()
	resolveAndRun(t, e, "scratch that")
	if got := len(sink.PressKeyCalls); got != 0 {
		t.Fatalf("second undo pressed %d keys, want 0", got)
	}
}

func TestScratchTracksLatestEmission(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t)

	resolveAndRun(t, e, "type something long here")
	resolveAndRun(t, e, "type ab")
	sink.Reset()
	resolveAndRun(t, e, "scratch that")
	if got := len(sink.PressKeyCalls); got != 2 {
		t.Fatalf("backspaces = %d, want 2 (only the last emission is undoable)", got)
	}
}

func TestDictationPunctuationSpacing(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t, WithMode(ModeDictation))

	resolveAndRun(t, e, "hello world")
	resolveAndRun(t, e, "comma")

	// The trailing space of "hello world " is consumed before the comma.
	wantTyped := []string{"hello world ", ", "}
	if !reflect.DeepEqual(sink.TypedText, wantTyped) {
		t.Fatalf("typed = %v, want %v", sink.TypedText, wantTyped)
	}
	if got := sink.Keys(); !reflect.DeepEqual(got, []string{inject.KeyBackspace}) {
		t.Fatalf("keys = %v, want one backspace", got)
	}
}

func TestDictationTrailingPunctuationWord(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t, WithMode(ModeDictation))

	res := resolveAndRun(t, e, "hello world period")
	if len(res.Actions) != 2 {
		t.Fatalf("actions = %+v", res.Actions)
	}
	wantTyped := []string{"hello world ", ". "}
	if !reflect.DeepEqual(sink.TypedText, wantTyped) {
		t.Fatalf("typed = %v, want %v", sink.TypedText, wantTyped)
	}
}

func TestDictationOpeningPunctuation(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t, WithMode(ModeDictation))

	resolveAndRun(t, e, "hello")
	resolveAndRun(t, e, "open paren")

	// Opening characters keep the preceding space and add none after.
	wantTyped := []string{"hello ", "("}
	if !reflect.DeepEqual(sink.TypedText, wantTyped) {
		t.Fatalf("typed = %v, want %v", sink.TypedText, wantTyped)
	}
	if len(sink.PressKeyCalls) != 0 {
		t.Fatalf("unexpected key presses: %+v", sink.PressKeyCalls)
	}
}

func TestDictationAmbiguousPunctuationWord(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t, WithMode(ModeDictation))

	// Alone, "dash" is punctuation.
	resolveAndRun(t, e, "dash")
	if !reflect.DeepEqual(sink.TypedText, []string{"- "}) {
		t.Fatalf("typed = %v", sink.TypedText)
	}

	// Trailing after other words, it is prose.
	sink.Reset()
	resolveAndRun(t, e, "the hundred yard dash")
	if !reflect.DeepEqual(sink.TypedText, []string{"the hundred yard dash "}) {
		t.Fatalf("typed = %v", sink.TypedText)
	}
}

func TestFuzzyCorrectionRecoversNearMiss(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t, WithFuzzyCorrector(fuzzy.New()))

	res := resolveAndRun(t, e, "go lift")
	if res.Source != SourceFastPath {
		t.Fatalf("source = %q, want %q", res.Source, SourceFastPath)
	}
	if got := sink.Keys(); !reflect.DeepEqual(got, []string{inject.KeyLeft}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestExecuteIsolatesFailures(t *testing.T) {
	t.Parallel()
	sink := &injectmock.Injector{PressKeyErr: errors.New("device gone")}
	e, err := NewEngine(sink)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx := context.Background()
	res := e.Resolve(ctx, "go left, type ok.", nil)
	if len(res.Actions) != 2 {
		t.Fatalf("actions = %+v", res.Actions)
	}
	e.Execute(ctx, res)

	// The failing key press must not stop the typing action after it.
	if !reflect.DeepEqual(sink.TypedText, []string{"ok"}) {
		t.Fatalf("typed = %v, want [ok]", sink.TypedText)
	}
}

func TestResolveRecordsLatency(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	res := e.Resolve(context.Background(), "save", nil)
	if res.Latency <= 0 {
		t.Fatalf("latency = %v, want > 0", res.Latency)
	}
}

func TestEmptyTranscript(t *testing.T) {
	t.Parallel()
	e, sink := newTestEngine(t)

	res := resolveAndRun(t, e, "   ")
	if len(res.Actions) != 0 {
		t.Fatalf("actions = %+v, want none", res.Actions)
	}
	if len(sink.TypedText) != 0 || len(sink.PressKeyCalls) != 0 {
		t.Fatal("empty transcript produced side effects")
	}
}

// logCapture records structured log entries, flattening With-bound attrs
// into each entry.
type logCapture struct {
	mu      sync.Mutex
	entries []map[string]string
}

func (c *logCapture) find(msg string) (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e["msg"] == msg {
			return e, true
		}
	}
	return nil, false
}

type captureHandler struct {
	cap   *logCapture
	attrs []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	entry := map[string]string{"msg": r.Message}
	for _, a := range h.attrs {
		entry[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry[a.Key] = a.Value.String()
		return true
	})
	h.cap.mu.Lock()
	h.cap.entries = append(h.cap.entries, entry)
	h.cap.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &captureHandler{cap: h.cap, attrs: merged}
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func TestResolveLogsCarryTraceContext(t *testing.T) {
	// Swaps the global tracer provider, so no t.Parallel.
	tp := sdktrace.NewTracerProvider()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	capture := &logCapture{}
	e, _ := newTestEngine(t, WithLogger(slog.New(&captureHandler{cap: capture})))

	e.Resolve(context.Background(), "save", nil)

	entry, ok := capture.find("resolved utterance")
	if !ok {
		t.Fatal("no resolution log entry recorded")
	}
	if entry["trace_id"] == "" {
		t.Error("resolution log entry missing trace_id")
	}
	if entry["span_id"] == "" {
		t.Error("resolution log entry missing span_id")
	}
}
