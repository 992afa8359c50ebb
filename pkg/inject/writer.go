package inject

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Writer is an [Injector] that renders every event as a line of text on an
// io.Writer. It backs the replay mode of cmd/vozctl, where transcripts are
// resolved and printed instead of being injected into a real application.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer sink that prints events to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// PressKey implements [Injector].
func (s *Writer) PressKey(key string, mods ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(mods) == 0 {
		_, err := fmt.Fprintf(s.w, "  key   %s\n", key)
		return err
	}
	_, err := fmt.Fprintf(s.w, "  key   %s+%s\n", strings.Join(mods, "+"), key)
	return err
}

// TypeText implements [Injector].
func (s *Writer) TypeText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "  type  %q\n", text)
	return err
}

// NotifyMode implements [Injector].
func (s *Writer) NotifyMode(mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "  mode  %s\n", mode)
	return err
}

// Ensure Writer implements Injector at compile time.
var _ Injector = (*Writer)(nil)
