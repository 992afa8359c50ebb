// Package inject defines the action-sink interface through which resolved
// voice commands reach the operating system: key presses, literal text, and
// mode-change notifications.
//
// The intent engine only calls these methods; it never implements keyboard
// injection itself. Platform backends (CGEvent on macOS, uinput on Linux)
// live outside this repository and plug in behind the [Injector] interface.
// The [Writer] sink in this package renders actions as text for replay and
// debugging, and the mock subpackage records calls for tests.
//
// Implementations must be safe for sequential use from a single processing
// loop; the engine never calls an Injector concurrently.
package inject

// Well-known key names accepted by [Injector.PressKey]. Backends may support
// additional names (function keys, media keys), but every backend must handle
// these.
const (
	KeyReturn    = "return"
	KeyEnter     = "enter"
	KeyTab       = "tab"
	KeySpace     = "space"
	KeyBackspace = "backspace"
	KeyDelete    = "delete"
	KeyEscape    = "escape"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyLeft      = "left"
	KeyRight     = "right"
	KeyHome      = "home"
	KeyEnd       = "end"
	KeyPageUp    = "pageup"
	KeyPageDown  = "pagedown"
)

// Modifier names accepted by [Injector.PressKey].
const (
	ModShift = "shift"
	ModCtrl  = "ctrl"
	ModAlt   = "alt"
	ModCmd   = "cmd"
)

// Injector is the abstraction over an OS-level keyboard event sink.
type Injector interface {
	// PressKey presses and releases a single key with the given modifiers.
	// key is one of the well-known key names or a single character.
	PressKey(key string, mods ...string) error

	// TypeText types text verbatim as individual key events.
	TypeText(text string) error

	// NotifyMode informs the sink that the engine switched modes ("command"
	// or "dictation"). Backends may surface this as a UI indicator or sound;
	// a no-op implementation is valid.
	NotifyMode(mode string) error
}
