package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// FuzzyChanged is true when the correction thresholds or the enabled
	// flag changed. The corrector is stateless and can be swapped live.
	FuzzyChanged bool

	// SLMChanged is true when the remote-model selection changed. The
	// provider must be reconstructed through the [Registry].
	SLMChanged bool
}

// Changed reports whether the diff contains any change at all.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.FuzzyChanged || d.SLMChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart; the initial
// mode and metrics address are read once at startup and ignored here.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Engine.LogLevel != new.Engine.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Engine.LogLevel
	}
	if old.Fuzzy != new.Fuzzy {
		d.FuzzyChanged = true
	}
	if old.SLM != new.SLM {
		d.SLMChanged = true
	}
	return d
}
