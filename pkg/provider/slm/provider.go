// Package slm defines the Provider interface for the small-language-model
// disambiguation backend used by the intent engine's slow path.
//
// The engine only needs two things from the remote model: a cheap capability
// check ([Provider.Available]) and a single bounded text completion
// ([Provider.Complete]). Everything else — tool calling, streaming,
// conversation history — is deliberately absent: disambiguation is a
// one-shot request/response exchange, and the fast path must stay entirely
// independent of it.
//
// Implementors must be safe for concurrent use and must propagate context
// cancellation promptly: when ctx is cancelled or its deadline expires,
// Complete must return as quickly as possible. The engine enforces its own
// hard timeout around every call, so a hung transport never stalls the
// processing loop.
package slm

import "context"

// CompletionRequest carries one disambiguation exchange to the model.
type CompletionRequest struct {
	// SystemPrompt is the instruction block enumerating the command catalog
	// and the expected JSON action schema.
	SystemPrompt string

	// UserText is the raw transcript to disambiguate, sent verbatim.
	UserText string

	// MaxTokens caps the completion length. Zero means the provider default.
	MaxTokens int

	// Temperature controls output randomness. The engine always requests
	// low temperatures; disambiguation must be deterministic, not creative.
	Temperature float64
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	// Content is the full text of the reply. The engine expects a JSON array
	// of actions, optionally wrapped in a markdown code fence.
	Content string
}

// Provider is the capability interface over a disambiguation backend.
type Provider interface {
	// Available reports whether the backend can currently serve requests
	// (credentials present, endpoint configured). It must be cheap and must
	// not perform network I/O; the engine consults it before every
	// escalation.
	Available() bool

	// Complete sends req to the model and waits for the full response.
	// Returns an error if the request fails or ctx is cancelled first.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Disabled is the null Provider: never available, never called.
// Use it when remote disambiguation is turned off so callers can hold a
// non-nil Provider unconditionally.
type Disabled struct{}

// Available implements [Provider]. Always false.
func (Disabled) Available() bool { return false }

// Complete implements [Provider]. It never succeeds; the engine must not
// call Complete on an unavailable provider, so reaching this is a bug.
func (Disabled) Complete(context.Context, CompletionRequest) (*CompletionResponse, error) {
	return nil, ErrDisabled
}

// ErrDisabled is returned by Disabled.Complete.
var ErrDisabled = errDisabled{}

type errDisabled struct{}

func (errDisabled) Error() string { return "slm: provider disabled" }

// Ensure Disabled implements Provider at compile time.
var _ Provider = Disabled{}
