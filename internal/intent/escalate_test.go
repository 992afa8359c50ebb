package intent

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/grizzdank/vozctl/pkg/inject"
	injectmock "github.com/grizzdank/vozctl/pkg/inject/mock"
	"github.com/grizzdank/vozctl/pkg/provider/slm"
	slmmock "github.com/grizzdank/vozctl/pkg/provider/slm/mock"
)

func TestEscalationSkippedWithoutVocabulary(t *testing.T) {
	t.Parallel()
	p := &slmmock.Provider{AvailableValue: true}
	e, sink := newTestEngine(t, WithProvider(p))

	res := resolveAndRun(t, e, "tell me about whales")
	if res.Source != SourceFallback {
		t.Fatalf("source = %q, want %q", res.Source, SourceFallback)
	}
	if p.CallCount() != 0 {
		t.Fatalf("remote called %d times for plain prose, want 0", p.CallCount())
	}
	if !reflect.DeepEqual(sink.TypedText, []string{"tell me about whales "}) {
		t.Fatalf("typed = %v", sink.TypedText)
	}
}

func TestEscalationSkippedWhenDisabled(t *testing.T) {
	t.Parallel()
	p := &slmmock.Provider{AvailableValue: false}
	e, _ := newTestEngine(t, WithProvider(p))

	res := resolveAndRun(t, e, "please go somewhere")
	if res.Source != SourceFallback {
		t.Fatalf("source = %q", res.Source)
	}
	if p.CallCount() != 0 {
		t.Fatal("disabled provider was called")
	}
}

func TestEscalationResolvesCommand(t *testing.T) {
	t.Parallel()
	p := &slmmock.Provider{
		AvailableValue: true,
		CompleteResponse: &slm.CompletionResponse{
			Content: `[{"kind":"command","name":"go_n_direction","args":{"count":"three","direction":"up"}}]`,
		},
	}
	e, sink := newTestEngine(t, WithProvider(p))

	res := resolveAndRun(t, e, "please go up a few lines")
	if res.Source != SourceRemoteModel {
		t.Fatalf("source = %q, want %q", res.Source, SourceRemoteModel)
	}
	if got := sink.Keys(); !reflect.DeepEqual(got, []string{"up", "up", "up"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestEscalationResolvesExactByUnderscoreName(t *testing.T) {
	t.Parallel()
	p := &slmmock.Provider{
		AvailableValue: true,
		CompleteResponse: &slm.CompletionResponse{
			Content: `[{"kind":"command","name":"select_all"}]`,
		},
	}
	e, sink := newTestEngine(t, WithProvider(p))

	res := resolveAndRun(t, e, "go ahead and grab everything")
	if res.Source != SourceRemoteModel {
		t.Fatalf("source = %q", res.Source)
	}
	want := []injectmock.PressKeyCall{{Key: "a", Mods: []string{inject.ModCmd}}}
	if !reflect.DeepEqual(sink.PressKeyCalls, want) {
		t.Fatalf("presses = %+v", sink.PressKeyCalls)
	}
}

func TestEscalationResolvesFormatter(t *testing.T) {
	t.Parallel()
	p := &slmmock.Provider{
		AvailableValue: true,
		CompleteResponse: &slm.CompletionResponse{
			Content: `[{"kind":"command","name":"snake","args":{"text":"user id"}}]`,
		},
	}
	e, sink := newTestEngine(t, WithProvider(p))

	res := resolveAndRun(t, e, "make that snake cased please")
	if res.Source != SourceRemoteModel {
		t.Fatalf("source = %q", res.Source)
	}
	if !reflect.DeepEqual(sink.TypedText, []string{"user_id"}) {
		t.Fatalf("typed = %v", sink.TypedText)
	}
}

func TestEscalationDictationItem(t *testing.T) {
	t.Parallel()
	p := &slmmock.Provider{
		AvailableValue: true,
		CompleteResponse: &slm.CompletionResponse{
			Content: `[{"kind":"dictation","text":"Hello there"}]`,
		},
	}
	e, sink := newTestEngine(t, WithProvider(p))

	res := resolveAndRun(t, e, "go hello there")
	if res.Source != SourceRemoteModel {
		t.Fatalf("source = %q", res.Source)
	}
	if !reflect.DeepEqual(sink.TypedText, []string{"Hello there "}) {
		t.Fatalf("typed = %v", sink.TypedText)
	}
}

func TestEscalationStripsFencedResponse(t *testing.T) {
	t.Parallel()
	p := &slmmock.Provider{
		AvailableValue: true,
		CompleteResponse: &slm.CompletionResponse{
			Content: "```json\n[{\"kind\":\"command\",\"name\":\"save\"}]\n```",
		},
	}
	e, sink := newTestEngine(t, WithProvider(p))

	res := resolveAndRun(t, e, "go ahead and save everything now thanks")
	if res.Source != SourceRemoteModel {
		t.Fatalf("source = %q", res.Source)
	}
	if got := sink.Keys(); !reflect.DeepEqual(got, []string{"s"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestEscalationMalformedJSONFallsBack(t *testing.T) {
	t.Parallel()
	for name, content := range map[string]string{
		"not json":      "sure, here you go",
		"not an array":  `{"kind":"command","name":"save"}`,
		"empty array":   `[]`,
		"only unusable": `[{"kind":"command","name":"summon_dragon"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := &slmmock.Provider{
				AvailableValue:   true,
				CompleteResponse: &slm.CompletionResponse{Content: content},
			}
			e, sink := newTestEngine(t, WithProvider(p))

			res := resolveAndRun(t, e, "please go somewhere")
			if res.Source != SourceFallback {
				t.Fatalf("source = %q, want %q", res.Source, SourceFallback)
			}
			if !reflect.DeepEqual(sink.TypedText, []string{"please go somewhere "}) {
				t.Fatalf("typed = %v", sink.TypedText)
			}
		})
	}
}

func TestEscalationTransportErrorFallsBack(t *testing.T) {
	t.Parallel()
	p := &slmmock.Provider{
		AvailableValue: true,
		CompleteErr:    errors.New("connection refused"),
	}
	e, sink := newTestEngine(t, WithProvider(p))

	res := resolveAndRun(t, e, "please go somewhere")
	if res.Source != SourceFallback {
		t.Fatalf("source = %q", res.Source)
	}
	if !reflect.DeepEqual(sink.TypedText, []string{"please go somewhere "}) {
		t.Fatalf("typed = %v", sink.TypedText)
	}
}

func TestEscalationTimeoutFallsBack(t *testing.T) {
	t.Parallel()
	p := &slmmock.Provider{
		AvailableValue: true,
		CompleteFunc: func(ctx context.Context, _ slm.CompletionRequest) (*slm.CompletionResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	e, sink := newTestEngine(t, WithProvider(p), WithEscalationTimeout(10*time.Millisecond))

	start := time.Now()
	res := resolveAndRun(t, e, "please go somewhere")
	if res.Source != SourceFallback {
		t.Fatalf("source = %q", res.Source)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("resolution took %v, timeout not enforced", elapsed)
	}
	if !reflect.DeepEqual(sink.TypedText, []string{"please go somewhere "}) {
		t.Fatalf("typed = %v", sink.TypedText)
	}
}

func TestEscalationTimeoutOnHungTransport(t *testing.T) {
	t.Parallel()
	// The provider ignores cancellation entirely; the engine must still
	// return within its budget.
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	p := &slmmock.Provider{
		AvailableValue: true,
		CompleteFunc: func(context.Context, slm.CompletionRequest) (*slm.CompletionResponse, error) {
			<-release
			return nil, errors.New("too late")
		},
	}
	e, _ := newTestEngine(t, WithProvider(p), WithEscalationTimeout(10*time.Millisecond))

	res := e.Resolve(context.Background(), "please go somewhere", nil)
	if res.Source != SourceFallback {
		t.Fatalf("source = %q", res.Source)
	}
}

func TestEscalationPromptIncludesCatalogAndContext(t *testing.T) {
	t.Parallel()
	p := &slmmock.Provider{
		AvailableValue:   true,
		CompleteResponse: &slm.CompletionResponse{Content: `[]`},
	}
	e, _ := newTestEngine(t, WithProvider(p))

	app := &AppContext{AppName: "Ghostty", AppID: "com.mitchellh.ghostty"}
	e.Resolve(context.Background(), "please go somewhere", app)

	if p.CallCount() != 1 {
		t.Fatalf("calls = %d", p.CallCount())
	}
	prompt := p.CompleteCalls[0].Req.SystemPrompt
	for _, want := range []string{"go_n_direction", "save", "snake", "Ghostty"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if got := p.CompleteCalls[0].Req.UserText; got != "please go somewhere" {
		t.Errorf("user text = %q", got)
	}
}

func TestCandidatePhrases(t *testing.T) {
	t.Parallel()
	got := candidatePhrases("move", map[string]string{"count": "three", "direction": "up"})
	contains := func(s string) bool {
		for _, c := range got {
			if c == s {
				return true
			}
		}
		return false
	}
	for _, want := range []string{"move", "move three up", "go three up", "three words up", "delete three"} {
		if !contains(want) {
			t.Errorf("candidates missing %q: %v", want, got)
		}
	}
}

func TestStripMarkdownFence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: `[1]`, want: `[1]`},
		{name: "fenced json", in: "```json\n[1]\n```", want: "[1]"},
		{name: "fenced no tag", in: "```\n[1]\n```", want: "[1]"},
		{name: "surrounding whitespace", in: "  ```json\n[1]\n```  ", want: "[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := stripMarkdownFence(tt.in); got != tt.want {
				t.Errorf("stripMarkdownFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
