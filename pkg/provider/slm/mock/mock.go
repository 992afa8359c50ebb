// Package mock provides a test double for the slm.Provider interface.
//
// Use Provider in unit tests to feed controlled disambiguation responses
// without a live model backend, and to verify the prompts the engine sends.
//
// Example:
//
//	p := &mock.Provider{
//	    AvailableValue:   true,
//	    CompleteResponse: &slm.CompletionResponse{Content: `[{"kind":"command","name":"save"}]`},
//	}
package mock

import (
	"context"
	"sync"

	"github.com/grizzdank/vozctl/pkg/provider/slm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req slm.CompletionRequest
}

// Provider is a mock implementation of slm.Provider.
// Zero values cause Available to report false and Complete to return
// (nil, nil). Set Err fields to inject errors.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// AvailableValue is returned by Available.
	AvailableValue bool

	// CompleteResponse is returned by Complete. May be nil.
	CompleteResponse *slm.CompletionResponse

	// CompleteErr, if non-nil, is returned as the error from Complete.
	CompleteErr error

	// CompleteFunc, if non-nil, overrides CompleteResponse/CompleteErr
	// entirely. Useful for simulating hangs that honour ctx cancellation.
	CompleteFunc func(ctx context.Context, req slm.CompletionRequest) (*slm.CompletionResponse, error)

	// --- Call records (read after test) ---

	// CompleteCalls records every invocation of Complete in order.
	CompleteCalls []CompleteCall
}

// Available returns AvailableValue.
func (p *Provider) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.AvailableValue
}

// Complete records the call and returns the configured response.
func (p *Provider) Complete(ctx context.Context, req slm.CompletionRequest) (*slm.CompletionResponse, error) {
	p.mu.Lock()
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})
	fn := p.CompleteFunc
	resp, err := p.CompleteResponse, p.CompleteErr
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return resp, err
}

// CallCount returns the number of Complete invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.CompleteCalls)
}

// Reset clears all recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = nil
}

// Ensure Provider implements slm.Provider at compile time.
var _ slm.Provider = (*Provider)(nil)
