// Package mock provides a test double for the inject.Injector interface.
//
// Use Injector in unit tests to verify which key events and text emissions an
// intent resolution produced, without touching a real keyboard backend.
//
// Example:
//
//	sink := &mock.Injector{}
//	eng, _ := intent.NewEngine(sink)
//	eng.Execute(ctx, eng.Resolve(ctx, "go left", nil))
//	// inspect sink.PressKeyCalls
package mock

import (
	"sync"

	"github.com/grizzdank/vozctl/pkg/inject"
)

// PressKeyCall records a single invocation of PressKey.
type PressKeyCall struct {
	// Key is the key name passed to PressKey.
	Key string
	// Mods are the modifier names passed to PressKey.
	Mods []string
}

// Injector is a mock implementation of inject.Injector.
// Zero values cause all methods to succeed. Set Err fields to inject errors.
type Injector struct {
	mu sync.Mutex

	// --- Configurable errors ---

	// PressKeyErr, if non-nil, is returned by every PressKey call.
	PressKeyErr error

	// TypeTextErr, if non-nil, is returned by every TypeText call.
	TypeTextErr error

	// NotifyModeErr, if non-nil, is returned by every NotifyMode call.
	NotifyModeErr error

	// --- Call records (read after test) ---

	// PressKeyCalls records every invocation of PressKey in order.
	PressKeyCalls []PressKeyCall

	// TypedText records the text of every TypeText invocation in order.
	TypedText []string

	// ModeChanges records the mode of every NotifyMode invocation in order.
	ModeChanges []string
}

// PressKey records the call and returns PressKeyErr.
func (m *Injector) PressKey(key string, mods ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(mods))
	copy(cp, mods)
	m.PressKeyCalls = append(m.PressKeyCalls, PressKeyCall{Key: key, Mods: cp})
	return m.PressKeyErr
}

// TypeText records the call and returns TypeTextErr.
func (m *Injector) TypeText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TypedText = append(m.TypedText, text)
	return m.TypeTextErr
}

// NotifyMode records the call and returns NotifyModeErr.
func (m *Injector) NotifyMode(mode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ModeChanges = append(m.ModeChanges, mode)
	return m.NotifyModeErr
}

// Keys returns the key names of all PressKey calls, in order. Convenience
// for assertions that do not care about modifiers.
func (m *Injector) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, len(m.PressKeyCalls))
	for i, c := range m.PressKeyCalls {
		keys[i] = c.Key
	}
	return keys
}

// Reset clears all recorded calls.
func (m *Injector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PressKeyCalls = nil
	m.TypedText = nil
	m.ModeChanges = nil
}

// Ensure Injector implements inject.Injector at compile time.
var _ inject.Injector = (*Injector)(nil)
