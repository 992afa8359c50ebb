package slm

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [Breaker.Complete] while the breaker is open
// and the reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("slm: circuit breaker is open")

// BreakerState represents the current operating mode of a [Breaker].
type BreakerState int

const (
	// BreakerClosed is the normal operating state. Calls are forwarded.
	BreakerClosed BreakerState = iota

	// BreakerOpen indicates the breaker tripped on consecutive failures.
	// The wrapped provider reports unavailable until the reset timeout
	// elapses, so the engine skips escalation entirely instead of paying
	// the timeout budget on every utterance.
	BreakerOpen

	// BreakerHalfOpen is the probe state entered after the reset timeout.
	// One call is let through; success closes the breaker, failure
	// re-opens it.
	BreakerHalfOpen
)

// String returns the human-readable name of the state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds tuning knobs for a [Breaker].
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the breaker
	// opens. Default: 3.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before a probe call
	// is allowed through. Default: 15s.
	ResetTimeout time.Duration
}

// Breaker wraps a [Provider] with a circuit breaker. A remote model that
// keeps failing or timing out stops being offered to the engine: Available
// reports false while the breaker is open, which is exactly the capability
// signal the escalation gate checks before spending a round trip.
//
// Breaker is safe for concurrent use, though the engine drives it from a
// single loop.
type Breaker struct {
	inner        Provider
	maxFailures  int
	resetTimeout time.Duration

	mu              sync.Mutex
	state           BreakerState
	consecutiveFail int
	lastFailure     time.Time
	probeInFlight   bool
}

// NewBreaker wraps inner with a circuit breaker. Zero-value config fields
// are replaced with defaults.
func NewBreaker(inner Provider, cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 15 * time.Second
	}
	return &Breaker{
		inner:        inner,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
	}
}

// Available reports whether the wrapped provider is worth calling: the
// provider itself must be available and the breaker must not be open.
// Half-open counts as available so a probe call can go through.
func (b *Breaker) Available() bool {
	return b.State() != BreakerOpen && b.inner.Available()
}

// Complete forwards the request through the breaker. In the open state it
// returns [ErrCircuitOpen] without calling the provider.
func (b *Breaker) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	b.mu.Lock()
	switch b.effectiveState() {
	case BreakerOpen:
		b.mu.Unlock()
		return nil, ErrCircuitOpen
	case BreakerHalfOpen:
		if b.probeInFlight {
			b.mu.Unlock()
			return nil, ErrCircuitOpen
		}
		b.state = BreakerHalfOpen
		b.probeInFlight = true
		slog.Debug("slm breaker probing", "after", time.Since(b.lastFailure))
	}
	b.mu.Unlock()

	resp, err := b.inner.Complete(ctx, req)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeInFlight = false
	if err != nil {
		b.recordFailure()
		return nil, err
	}
	b.recordSuccess()
	return resp, nil
}

// effectiveState folds the reset-timeout transition into the reported
// state. Must be called with b.mu held.
func (b *Breaker) effectiveState() BreakerState {
	if b.state == BreakerOpen && time.Since(b.lastFailure) >= b.resetTimeout {
		return BreakerHalfOpen
	}
	return b.state
}

// recordFailure must be called with b.mu held.
func (b *Breaker) recordFailure() {
	b.lastFailure = time.Now()
	if b.state == BreakerHalfOpen {
		// A failed probe re-opens immediately.
		b.state = BreakerOpen
		slog.Warn("slm breaker re-opened after failed probe")
		return
	}
	b.consecutiveFail++
	if b.consecutiveFail >= b.maxFailures {
		b.state = BreakerOpen
		slog.Warn("slm breaker opened; escalation suspended",
			"consecutive_failures", b.consecutiveFail,
			"reset_timeout", b.resetTimeout)
	}
}

// recordSuccess must be called with b.mu held.
func (b *Breaker) recordSuccess() {
	if b.state == BreakerHalfOpen {
		slog.Info("slm breaker closed after successful probe")
	}
	b.state = BreakerClosed
	b.consecutiveFail = 0
}

// State returns the current [BreakerState], accounting for an elapsed
// reset timeout.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.effectiveState()
}

// Reset manually forces the breaker closed, clearing all failure counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.consecutiveFail = 0
	b.probeInFlight = false
}

var _ Provider = (*Breaker)(nil)
