package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sushant23/ai-agent-demo-sub001/internal/assistant"
	"github.com/sushant23/ai-agent-demo-sub001/internal/flow"
	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"github.com/sushant23/ai-agent-demo-sub001/internal/orchestration"
	"github.com/sushant23/ai-agent-demo-sub001/internal/session"
	"github.com/sushant23/ai-agent-demo-sub001/internal/tools"
	"github.com/sushant23/ai-agent-demo-sub001/pkg/config"
	"go.uber.org/zap"
)

// app is everything a command needs, built from the configuration
type app struct {
	orchestrator *assistant.Orchestrator
	sessions     session.Manager
	providers    *provider.Registry
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	providers, err := buildProviders(ctx, cfg.LLM.Providers, logger)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterSampleTools(registry); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	sessions, err := buildSessions(cfg.Session)
	if err != nil {
		return nil, err
	}

	deps := orchestration.Deps{
		LLM:    providers,
		Tools:  registry,
		Flows:  flow.NewCatalogRouter(cfg.Flows, flow.WithLLM(providers), flow.WithLogger(logger)),
		Logger: logger,
	}

	orch := assistant.New(deps,
		assistant.WithContextManager(sessions),
		assistant.WithLogger(logger),
	)

	patterns, err := cfg.Patterns()
	if err != nil {
		_ = sessions.Close()
		return nil, err
	}
	if err := orch.Initialize(ctx, assistant.Config{EnabledPatterns: patterns}); err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("initialize orchestrator: %w", err)
	}

	return &app{
		orchestrator: orch,
		sessions:     sessions,
		providers:    providers,
	}, nil
}

func (a *app) Close(ctx context.Context) error {
	return errors.Join(
		a.orchestrator.Shutdown(ctx),
		a.sessions.Close(),
	)
}

// buildProviders creates one instrumented provider per entry. A provider
// without an API key is skipped with a warning; the assistant then answers
// from static flows and fallbacks.
func buildProviders(ctx context.Context, cfgs []config.ProviderConfig, logger *zap.Logger) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	for _, pc := range cfgs {
		if pc.APIKey == "" {
			logger.Warn("skipping LLM provider without API key", zap.String("provider", pc.Name))
			continue
		}

		var p provider.Provider
		switch pc.Name {
		case config.ProviderOpenAI:
			op, err := provider.NewOpenAIProvider(provider.OpenAIConfig{
				APIKey:  pc.APIKey,
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
			})
			if err != nil {
				return nil, fmt.Errorf("openai provider: %w", err)
			}
			p = op
		case config.ProviderGemini:
			gp, err := provider.NewGeminiProvider(ctx, provider.GeminiConfig{
				APIKey: pc.APIKey,
				Model:  pc.Model,
			})
			if err != nil {
				return nil, fmt.Errorf("gemini provider: %w", err)
			}
			p = gp
		default:
			return nil, fmt.Errorf("unknown provider %q", pc.Name)
		}

		if err := registry.Add(provider.NewInstrumentedProvider(p, pc.RateLimit, pc.Burst)); err != nil {
			return nil, err
		}
		logger.Info("LLM provider ready",
			zap.String("provider", pc.Name),
			zap.String("model", pc.Model),
			zap.Float64("rate_limit", pc.RateLimit),
		)
	}

	return registry, nil
}

func buildSessions(cfg config.SessionConfig) (session.Manager, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		store, err := session.NewRedisStore(session.RedisConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			Prefix:     cfg.Redis.Prefix,
			TTL:        cfg.TTL,
			PoolSize:   cfg.Redis.PoolSize,
			MaxHistory: cfg.MaxHistory,
		})
		if err != nil {
			return nil, fmt.Errorf("redis session store: %w", err)
		}
		return store, nil
	default:
		return session.NewMemoryStore(cfg.MaxHistory), nil
	}
}
