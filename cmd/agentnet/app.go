package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/agentnet"
	"github.com/hupe1980/agentnet/agent"
	"github.com/hupe1980/agentnet/config"
	"github.com/hupe1980/agentnet/logging"
	"github.com/hupe1980/agentnet/metrics"
	"github.com/hupe1980/agentnet/model"
	"github.com/hupe1980/agentnet/model/anthropic"
	"github.com/hupe1980/agentnet/model/openai"
	"github.com/hupe1980/agentnet/networks/research"
	"github.com/hupe1980/agentnet/tool"
	"github.com/hupe1980/agentnet/tool/analysis"
	"github.com/hupe1980/agentnet/tool/search"
	"github.com/hupe1980/agentnet/workflow"
	"github.com/hupe1980/agentnet/workflows/weather"
)

// app bundles what a command needs.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	metrics  *metrics.Metrics
	registry *agentnet.Registry
	shutdown func()
}

// deps are the external collaborators. Tests replace them with fakes.
type deps struct {
	model      model.Model
	search     tool.Tool
	forecaster weather.Forecaster
}

// newModel builds the provider client selected by cfg.
func newModel(cfg *config.Config) model.Model {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.OpenAIAPIKey
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		})
	default:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		})
	}
}

// newSearch builds the search tool selected by cfg.
func newSearch(cfg *config.Config, toolOpts func(o *tool.Options)) tool.Tool {
	if cfg.SearchBackend == config.SearchBrave {
		return search.NewBrave(func(o *search.BraveOptions) {
			o.APIKey = cfg.BraveAPIKey
			o.Tool = append(o.Tool, toolOpts)
		})
	}
	return search.NewTavily(func(o *search.TavilyOptions) {
		o.APIKey = cfg.TavilyAPIKey
		o.Tool = append(o.Tool, toolOpts)
	})
}

// productionDeps returns a builder of the real collaborators. It checks the
// model credential, and the search credential only when withSearch is set;
// commands that never search run without a search key.
func productionDeps(withSearch bool) func(*config.Config, *metrics.Metrics, logging.Logger) (deps, error) {
	return func(cfg *config.Config, m *metrics.Metrics, logger logging.Logger) (deps, error) {
		if err := cfg.RequireModel(); err != nil {
			return deps{}, err
		}
		if withSearch {
			if err := cfg.RequireSearch(); err != nil {
				return deps{}, err
			}
		}

		return deps{
			model:      newModel(cfg),
			search:     newSearch(cfg, toolOptions(cfg, m, logger)),
			forecaster: weather.NewOpenMeteo(),
		}, nil
	}
}

func toolOptions(cfg *config.Config, m *metrics.Metrics, logger logging.Logger) func(o *tool.Options) {
	return func(o *tool.Options) {
		o.Logger = logger
		o.Metrics = m
		o.Timeout = cfg.ToolTimeout
	}
}

// newRegistry wires the research network and the weather workflow.
func newRegistry(cfg *config.Config, d deps, m *metrics.Metrics, logger logging.Logger) (*agentnet.Registry, error) {
	reg := agentnet.New(func(o *agentnet.Options) {
		o.Logger = logger
	})

	nw, err := research.New(research.Deps{
		Model:    d.model,
		Search:   d.search,
		Analysis: analysis.New(toolOptions(cfg, m, logger)),
	}, func(o *research.Options) {
		o.Logger = logger
		o.Metrics = m
		o.MaxConcurrency = cfg.MaxConcurrency
		o.AgentTimeout = cfg.AgentTimeout
	})
	if err != nil {
		return nil, err
	}
	if err := reg.RegisterNetwork(nw); err != nil {
		return nil, err
	}

	planner, err := weather.NewAgent(d.model, func(o *agent.Options) {
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}
	if err := reg.RegisterAgent(planner); err != nil {
		return nil, err
	}

	wf, err := weather.New(d.forecaster, planner, func(o *workflow.Options) {
		o.Logger = logger
		o.Metrics = m
		o.StepTimeout = cfg.StepTimeout
	})
	if err != nil {
		return nil, err
	}
	if err := reg.RegisterWorkflow(wf); err != nil {
		return nil, err
	}

	return reg, nil
}

// newApp loads configuration and wires everything a command needs. The
// returned shutdown function stops the metrics listener.
func newApp(cfg *config.Config, build func(*config.Config, *metrics.Metrics, logging.Logger) (deps, error)) (*app, error) {
	logger := cfg.Logger(rootCmd.ErrOrStderr())

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(promReg)

	d, err := build(cfg, m, logger)
	if err != nil {
		return nil, err
	}

	reg, err := newRegistry(cfg, d, m, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		registry: reg,
		shutdown: serveMetrics(cfg.MetricsAddr, promReg, logger),
	}, nil
}

// serveMetrics exposes gatherer on addr until the returned function is
// called. An empty addr disables it.
func serveMetrics(addr string, gatherer prometheus.Gatherer, logger logging.Logger) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics.listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics.listen.error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
