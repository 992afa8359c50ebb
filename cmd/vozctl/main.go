// Command vozctl runs the intent resolution engine against a stream of
// transcripts: interactively from stdin, or from a replay file. Resolved
// actions are rendered to stdout through the text sink, which makes the
// binary useful for tuning the catalog and the remote model without a
// keyboard injection backend.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/grizzdank/vozctl/internal/config"
	"github.com/grizzdank/vozctl/internal/health"
	"github.com/grizzdank/vozctl/internal/intent"
	"github.com/grizzdank/vozctl/internal/intent/fuzzy"
	"github.com/grizzdank/vozctl/internal/observe"
	"github.com/grizzdank/vozctl/pkg/inject"
	"github.com/grizzdank/vozctl/pkg/provider/slm"
	"github.com/grizzdank/vozctl/pkg/provider/slm/anyllm"
	slmopenai "github.com/grizzdank/vozctl/pkg/provider/slm/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	replayPath := flag.String("replay", "", "file of transcripts to resolve, one per line (default: stdin)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	var watcher *config.Watcher
	if *configPath != "" {
		var err error
		watcher, err = config.NewWatcher(*configPath, onConfigChange)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vozctl: %v\n", err)
			return 1
		}
		defer watcher.Stop()
		cfg = watcher.Current()
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Engine)
	slog.SetDefault(logger)

	slog.Info("vozctl starting",
		"config", *configPath,
		"mode", cfg.Engine.InitialMode,
		"slm", cfg.SLM.Provider,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Remote disambiguation provider ────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)
	provider, err := reg.CreateSLM(cfg.SLM)
	if err != nil {
		slog.Error("failed to create slm provider", "err", err)
		return 1
	}
	if cfg.SLM.Enabled() {
		// A dead remote model should stop costing the timeout budget on
		// every unresolved utterance.
		provider = slm.NewBreaker(provider, slm.BreakerConfig{})
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	statsWindow := cfg.Observability.StatsWindow
	if statsWindow == 0 {
		statsWindow = 512
	}
	stats := observe.NewResolutionStats(statsWindow)

	opts := []intent.Option{
		intent.WithLogger(logger),
		intent.WithMode(intent.Mode(cfg.Engine.InitialMode)),
		intent.WithProvider(provider),
		intent.WithEscalationTimeout(cfg.SLM.Timeout),
		intent.WithStats(stats),
	}
	if cfg.Fuzzy.Enabled {
		var fopts []fuzzy.Option
		if cfg.Fuzzy.PhoneticThreshold > 0 {
			fopts = append(fopts, fuzzy.WithPhoneticThreshold(cfg.Fuzzy.PhoneticThreshold))
		}
		if cfg.Fuzzy.FuzzyThreshold > 0 {
			fopts = append(fopts, fuzzy.WithFuzzyThreshold(cfg.Fuzzy.FuzzyThreshold))
		}
		opts = append(opts, intent.WithFuzzyCorrector(fuzzy.New(fopts...)))
	}

	engine, err := intent.NewEngine(inject.NewWriter(os.Stdout), opts...)
	if err != nil {
		slog.Error("failed to build engine", "err", err)
		return 1
	}

	// ── Transcript source ─────────────────────────────────────────────────────
	input := io.Reader(os.Stdin)
	if *replayPath != "" {
		f, err := os.Open(*replayPath)
		if err != nil {
			slog.Error("failed to open replay file", "path", *replayPath, "err", err)
			return 1
		}
		defer f.Close()
		input = f
	}

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		g.Go(func() error { return serveMetrics(gctx, addr, provider) })
	}
	g.Go(func() error {
		defer stop() // end of input shuts the whole process down
		return resolveLoop(gctx, engine, input)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	fmt.Fprintln(os.Stderr, stats.Report())
	slog.Info("goodbye")
	return 0
}

// resolveLoop reads transcripts line by line and runs each through the full
// resolve-execute cycle, annotating output with the resolution tier.
func resolveLoop(ctx context.Context, engine *intent.Engine, input io.Reader) error {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		res := engine.Resolve(ctx, line, nil)
		fmt.Printf("[%s] %q -> %d action(s) in %s\n",
			res.Source, line, len(res.Actions), res.Latency.Round(time.Microsecond))
		engine.Execute(ctx, res)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read transcripts: %w", err)
	}
	return nil
}

// serveMetrics exposes the Prometheus bridge on /metrics, plus health and
// readiness probes, until ctx is done.
func serveMetrics(ctx context.Context, addr string, provider slm.Provider) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	health.New(health.SLMChecker(provider)).Register(mux)
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	slog.Info("metrics endpoint listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the built-in remote-model factories into
// reg. The native openai client handles the OpenAI-compatible case; every
// other vendor goes through the any-llm backends.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterSLM("openai", func(c config.SLMConfig) (slm.Provider, error) {
		var opts []slmopenai.Option
		if c.BaseURL != "" {
			opts = append(opts, slmopenai.WithBaseURL(c.BaseURL))
		}
		return slmopenai.New(c.APIKey, c.Model, opts...)
	})

	for _, name := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		providerName := name
		reg.RegisterSLM(providerName, func(c config.SLMConfig) (slm.Provider, error) {
			var opts []anyllmlib.Option
			if c.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(c.APIKey))
			}
			if c.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(c.BaseURL))
			}
			return anyllm.New(providerName, c.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not a key.
	reg.RegisterSLM("ollama", func(c config.SLMConfig) (slm.Provider, error) {
		var opts []anyllmlib.Option
		if c.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(c.BaseURL))
		}
		return anyllm.New("ollama", c.Model, opts...)
	})
}

// ── Config reload ─────────────────────────────────────────────────────────────

// logLevel is mutated on config reload so log verbosity follows the file.
var logLevel = new(slog.LevelVar)

func onConfigChange(old, new *config.Config) {
	d := config.Diff(old, new)
	if d.LogLevelChanged {
		logLevel.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.SLMChanged || d.FuzzyChanged {
		slog.Warn("slm/fuzzy configuration changed; restart to apply")
	}
}

// ── Logger ────────────────────────────────────────────────────────────────────

func newLogger(cfg config.EngineConfig) *slog.Logger {
	logLevel.Set(slogLevel(cfg.LogLevel))
	hopts := &slog.HandlerOptions{Level: logLevel}
	if cfg.LogFormat == config.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, hopts))
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
