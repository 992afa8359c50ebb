package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known remote-model provider names. [Validate]
// warns about unrecognised names rather than rejecting them, since the
// registry accepts third-party registrations.
var ValidProviderNames = []string{
	"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral",
	"groq", "llamacpp", "llamafile", "disabled",
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty file is a valid all-defaults config.
			err = nil
		} else {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration used when no config file is
// given: command mode, text logs at info, escalation disabled, fuzzy
// correction on.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Fuzzy.Enabled = true
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.InitialMode == "" {
		cfg.Engine.InitialMode = ModeCommand
	}
	if cfg.Engine.LogLevel == "" {
		cfg.Engine.LogLevel = LogInfo
	}
	if cfg.Engine.LogFormat == "" {
		cfg.Engine.LogFormat = LogText
	}
	if cfg.SLM.Timeout == 0 {
		cfg.SLM.Timeout = 600 * time.Millisecond
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Engine.InitialMode.IsValid() {
		errs = append(errs, fmt.Errorf("engine.initial_mode %q is invalid; valid values: command, dictation", cfg.Engine.InitialMode))
	}
	if !cfg.Engine.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("engine.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Engine.LogLevel))
	}
	if !cfg.Engine.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("engine.log_format %q is invalid; valid values: text, json", cfg.Engine.LogFormat))
	}

	if cfg.SLM.Enabled() {
		if !slices.Contains(ValidProviderNames, cfg.SLM.Provider) {
			slog.Warn("unknown slm provider name — may be a typo or third-party provider",
				"name", cfg.SLM.Provider,
				"known", ValidProviderNames,
			)
		}
		if cfg.SLM.Model == "" {
			errs = append(errs, fmt.Errorf("slm.model is required when slm.provider is set"))
		}
		if cfg.SLM.Timeout < 0 {
			errs = append(errs, fmt.Errorf("slm.timeout %s is negative", cfg.SLM.Timeout))
		}
		if cfg.SLM.Timeout > 3*time.Second {
			slog.Warn("slm.timeout is unusually high; the processing loop blocks for the full budget on a hung call",
				"timeout", cfg.SLM.Timeout,
			)
		}
	}

	if t := cfg.Fuzzy.PhoneticThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("fuzzy.phonetic_threshold %.2f is out of range (0, 1]", t))
	}
	if t := cfg.Fuzzy.FuzzyThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("fuzzy.fuzzy_threshold %.2f is out of range (0, 1]", t))
	}

	if cfg.Observability.StatsWindow < 0 {
		errs = append(errs, fmt.Errorf("observability.stats_window %d is negative", cfg.Observability.StatsWindow))
	}

	return errors.Join(errs...)
}
