package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dshills/raggraph-go/graph"
	"github.com/dshills/raggraph-go/graph/emit"
	"github.com/dshills/raggraph-go/graph/model"
	"github.com/dshills/raggraph-go/graph/model/anthropic"
	"github.com/dshills/raggraph-go/graph/model/google"
	"github.com/dshills/raggraph-go/graph/model/openai"
	"github.com/dshills/raggraph-go/graph/store"
	"github.com/dshills/raggraph-go/graph/tool"
	"github.com/dshills/raggraph-go/internal/config"
	"github.com/dshills/raggraph-go/rag/agents"
	"github.com/dshills/raggraph-go/rag/nodes"
)

// chatFactory creates the chat model for a backend.
type chatFactory func(backend model.Backend, apiKey string) (model.ChatModel, error)

type app struct {
	stdout  io.Writer
	stderr  io.Writer
	newChat chatFactory
}

func (a *app) run(ctx context.Context, args Args) error {
	cfg, err := config.Load(config.Options{ConfigFile: args.ConfigFile, EnvFile: args.EnvFile})
	if err != nil {
		return err
	}
	if args.Agent != "" {
		cfg.Agent = args.Agent
	}
	if args.Model != "" {
		cfg.Model = args.Model
	}

	logger := newLogger(cfg.Log, a.stderr)

	backend, err := model.DefaultRegistry().Lookup(cfg.Model)
	if err != nil {
		return err
	}
	chat, err := a.newChat(backend, os.Getenv(backend.APIKeyEnv))
	if err != nil {
		return err
	}

	mem, err := openMemory(cfg.Memory)
	if err != nil {
		return err
	}
	defer func() {
		if err := mem.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close memory store")
		}
	}()

	emitter := emit.MultiEmitter{emit.NewLogEmitterFrom(logger)}
	if cfg.Tracing.Enabled {
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(newLogExporter(logger)))
		defer func() { _ = tp.Shutdown(context.Background()) }()
		emitter = append(emitter, emit.NewOTelEmitter(tp.Tracer("raggraph")))
	}

	costs := graph.NewCostTracker(backend.Model)
	opts := []graph.Option{
		graph.WithEmitter(emitter),
		graph.WithCostTracker(costs),
		graph.WithNodeTimeout(cfg.NodeTimeout),
		graph.WithRunTimeout(cfg.RunTimeout),
		graph.WithMaxLayers(cfg.MaxLayers),
	}
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		opts = append(opts, graph.WithMetrics(graph.NewPrometheusMetrics(registry)))
		srv := serveMetrics(cfg.Metrics.Addr, registry, logger)
		defer func() { _ = srv.Close() }()
	}

	build, err := agents.Lookup(cfg.Agent)
	if err != nil {
		return err
	}
	g, err := build(agents.Deps{
		Model:        chat,
		Search:       newSearch(cfg.Search),
		Memory:       tool.NewMemoryLookup(mem, cfg.Memory.Limit),
		GraphOptions: opts,
		NodeOptions:  []nodes.Option{nodes.WithSampling(cfg.MaxTokens, cfg.Temperature)},
	})
	if err != nil {
		return err
	}

	logger.Info().Str("agent", cfg.Agent).Str("model", backend.Model).Msg("running agent")

	out, err := g.Run(ctx, graph.NewState(args.Prompt, nil))
	in, outTokens := costs.TokenUsage()
	logger.Info().
		Int64("input_tokens", in).
		Int64("output_tokens", outTokens).
		Float64("cost_usd", costs.TotalCost()).
		Msg("usage")
	for _, msg := range out.Messages {
		fmt.Fprintf(a.stdout, "[%s] %s\n", msg.Kind, msg.Content)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", out.RunID, err)
	}

	answer, err := finalAnswer(out)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, answer)

	remember(ctx, mem, out.RunID, args.Prompt, answer, logger)
	return nil
}

// finalAnswer renders the terminal response, or explains why the final
// layer produced none.
func finalAnswer(out graph.Outcome) (string, error) {
	if out.Response != nil {
		return fmt.Sprint(out.Response), nil
	}
	for name, res := range out.State.ParentResults {
		if res.Err != nil {
			return "", fmt.Errorf("no answer: %w", res.Err)
		}
		return "", fmt.Errorf("no answer: %s did not produce a response", name)
	}
	return "", errors.New("no answer")
}

func remember(ctx context.Context, mem store.Store, runID, prompt, answer string, logger zerolog.Logger) {
	now := time.Now().UTC()
	for _, e := range []store.Entry{
		{RunID: runID, Role: model.RoleUser, Content: prompt, CreatedAt: now},
		{RunID: runID, Role: model.RoleAssistant, Content: answer, CreatedAt: now.Add(time.Millisecond)},
	} {
		if err := mem.Save(ctx, e); err != nil {
			logger.Warn().Err(err).Msg("failed to save conversation to memory")
			return
		}
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	w = zerolog.SyncWriter(w)
	if cfg.Format == "json" {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

func newChatModel(backend model.Backend, apiKey string) (model.ChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("model %s needs an API key: set %s", backend.Model, backend.APIKeyEnv)
	}
	var (
		chat model.ChatModel
		err  error
	)
	switch backend.Provider {
	case model.ProviderOpenAI, model.ProviderDeepInfra:
		chat, err = openai.NewChatModel(openai.Config{
			APIKey:       apiKey,
			Model:        backend.Model,
			BaseURL:      backend.BaseURL,
			SupportsJSON: backend.SupportsJSON,
		})
	case model.ProviderAnthropic:
		chat, err = anthropic.NewChatModel(apiKey, backend.Model)
	case model.ProviderGoogle:
		chat, err = google.NewChatModel(apiKey, backend.Model)
	default:
		err = fmt.Errorf("unsupported provider %q", backend.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", backend.Model, err)
	}
	return chat, nil
}

func openMemory(cfg config.MemoryConfig) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return store.NewSQLiteStore(cfg.DSN)
	case "mysql":
		return store.NewMySQLStore(cfg.DSN)
	case "memory", "":
		return store.NewMemStore(), nil
	}
	return nil, fmt.Errorf("unknown memory driver %q", cfg.Driver)
}

func newSearch(cfg config.SearchConfig) tool.Tool {
	opts := []tool.WebSearchOption{}
	if cfg.URL != "" {
		opts = append(opts, tool.WithSearchURL(cfg.URL))
	}
	if cfg.FetchPages > 0 {
		opts = append(opts, tool.WithPageFetch(tool.NewWebFetch(), cfg.FetchPages))
	}
	return tool.NewWebSearch(opts...)
}

func serveMetrics(addr string, registry *prometheus.Registry, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}
