package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/sushant23/ai-agent-demo-sub001/internal/observability"
	metrics "github.com/sushant23/ai-agent-demo-sub001/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// InstrumentedProvider wraps a Provider with tracing, metrics and an optional
// request rate limit.
type InstrumentedProvider struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewInstrumentedProvider wraps provider. A requestsPerSecond of zero or less
// disables throttling.
func NewInstrumentedProvider(provider Provider, requestsPerSecond float64, burst int) *InstrumentedProvider {
	ip := &InstrumentedProvider{provider: provider}
	if requestsPerSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		ip.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return ip
}

// Name returns the wrapped provider's name
func (p *InstrumentedProvider) Name() string {
	return p.provider.Name()
}

// SupportsTools delegates to the wrapped provider
func (p *InstrumentedProvider) SupportsTools() bool {
	return p.provider.SupportsTools()
}

// GenerateText delegates with instrumentation
func (p *InstrumentedProvider) GenerateText(ctx context.Context, req Request) (*Response, error) {
	return p.call(ctx, "generate_text", req, p.provider.GenerateText)
}

// GenerateWithTools delegates with instrumentation
func (p *InstrumentedProvider) GenerateWithTools(ctx context.Context, req Request) (*Response, error) {
	return p.call(ctx, "generate_with_tools", req, p.provider.GenerateWithTools)
}

func (p *InstrumentedProvider) call(ctx context.Context, op string, req Request,
	fn func(context.Context, Request) (*Response, error)) (*Response, error) {
	ctx, span := observability.StartSpanWithOtel(ctx, fmt.Sprintf("llm.%s", op),
		trace.WithAttributes(
			attribute.String("llm.provider", p.provider.Name()),
			attribute.Int("llm.messages", len(req.Messages)),
			attribute.Int("llm.tools", len(req.Tools)),
		),
	)
	defer span.End()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := fn(ctx, req)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		metrics.RecordLLMCall(p.provider.Name(), "error", duration)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("llm.tool_calls", len(resp.ToolCalls)),
		attribute.Int("llm.total_tokens", resp.Usage.TotalTokens),
	)
	metrics.RecordLLMCall(p.provider.Name(), "success", duration)
	return resp, nil
}
