package config_test

import (
	"testing"
	"time"

	"github.com/grizzdank/vozctl/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			InitialMode: config.ModeCommand,
			LogLevel:    config.LogInfo,
			LogFormat:   config.LogText,
		},
		SLM: config.SLMConfig{
			Provider: "ollama",
			Model:    "qwen2.5:3b",
			Timeout:  600 * time.Millisecond,
		},
		Fuzzy: config.FuzzyConfig{Enabled: true},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	if d := config.Diff(old, new); d.Changed() {
		t.Errorf("identical configs reported changed: %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.Engine.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("got %+v, want log level change to debug", d)
	}
	if d.FuzzyChanged || d.SLMChanged {
		t.Errorf("unrelated change flags set: %+v", d)
	}
}

func TestDiff_Fuzzy(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.Fuzzy.PhoneticThreshold = 0.7

	d := config.Diff(old, new)
	if !d.FuzzyChanged {
		t.Errorf("fuzzy threshold change not detected: %+v", d)
	}
}

func TestDiff_SLM(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.SLM.Model = "llama3.2:1b"

	d := config.Diff(old, new)
	if !d.SLMChanged {
		t.Errorf("slm model change not detected: %+v", d)
	}
}

func TestDiff_IgnoresInitialMode(t *testing.T) {
	t.Parallel()
	// The initial mode is consumed once at startup; flipping it in the
	// file must not report a hot-reloadable change.
	old, new := baseConfig(), baseConfig()
	new.Engine.InitialMode = config.ModeDictation

	if d := config.Diff(old, new); d.Changed() {
		t.Errorf("initial mode flip reported as change: %+v", d)
	}
}
