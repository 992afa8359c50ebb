// Package config provides the configuration schema, loader, and provider
// registry for the vozctl intent engine.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// LogFormat selects the log output encoding.
type LogFormat string

const (
	LogText LogFormat = "text"
	LogJSON LogFormat = "json"
)

// IsValid reports whether f is a recognised log format.
func (f LogFormat) IsValid() bool {
	return f == LogText || f == LogJSON
}

// Mode is the engine's startup matching context.
type Mode string

const (
	ModeCommand   Mode = "command"
	ModeDictation Mode = "dictation"
)

// IsValid reports whether m is a recognised mode.
func (m Mode) IsValid() bool {
	return m == ModeCommand || m == ModeDictation
}

// Config is the root configuration structure for vozctl.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Engine        EngineConfig        `yaml:"engine"`
	SLM           SLMConfig           `yaml:"slm"`
	Fuzzy         FuzzyConfig         `yaml:"fuzzy"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// EngineConfig holds core resolution engine settings.
type EngineConfig struct {
	// InitialMode is the mode the engine starts in. Defaults to "command".
	InitialMode Mode `yaml:"initial_mode"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// LogFormat selects text or JSON log output. Defaults to "text".
	LogFormat LogFormat `yaml:"log_format"`
}

// SLMConfig configures the remote disambiguation model. Resolution works
// without it; unresolved utterances then fall straight through to
// dictation.
type SLMConfig struct {
	// Provider selects the registered backend (e.g., "openai", "ollama").
	// Empty or "disabled" turns escalation off.
	Provider string `yaml:"provider"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// Model selects a specific model within the provider
	// (e.g., "gpt-4o-mini", "qwen2.5:3b").
	Model string `yaml:"model"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Timeout is the hard budget for one disambiguation round trip,
	// enforced by the engine regardless of transport behaviour.
	// Defaults to 600ms.
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether a remote disambiguation backend is configured.
func (c SLMConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != "disabled"
}

// FuzzyConfig configures phonetic correction of near-miss transcripts.
type FuzzyConfig struct {
	// Enabled turns the corrector on. Defaults to true when the section is
	// present.
	Enabled bool `yaml:"enabled"`

	// PhoneticThreshold is the minimum string similarity for a
	// phonetically-equivalent vocabulary word to be accepted, in (0, 1].
	// Zero means the built-in default.
	PhoneticThreshold float64 `yaml:"phonetic_threshold"`

	// FuzzyThreshold is the minimum string similarity for a correction with
	// no phonetic agreement, in (0, 1]. Zero means the built-in default.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
}

// ObservabilityConfig holds metrics exposure settings.
type ObservabilityConfig struct {
	// MetricsAddr is the TCP address the Prometheus /metrics endpoint
	// listens on (e.g., "localhost:9464"). Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	// StatsWindow is the sample count of the rolling latency window used
	// for the shutdown report. Zero means the built-in default.
	StatsWindow int `yaml:"stats_window"`
}
