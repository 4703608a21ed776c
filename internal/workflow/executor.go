package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sushant23/ai-agent-demo-sub001/internal/observability"
	metrics "github.com/sushant23/ai-agent-demo-sub001/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// FailureDetails is attached to WORKFLOW_EXECUTION_FAILED errors.
type FailureDetails struct {
	Pattern  PatternType
	Metadata ExecutionMetadata
}

// Executor runs handlers from a registry and keeps their metrics current.
// It never swallows a failure: every error is returned to the caller.
type Executor struct {
	registry *Registry
	metrics  *MetricsTracker
	logger   *zap.Logger
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the logger
func WithExecutorLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor creates a new executor over a registry and metrics tracker
func NewExecutor(registry *Registry, tracker *MetricsTracker, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		metrics:  tracker,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute looks up the handler for p, validates params, runs it and records
// the outcome. Handler failures come back as WORKFLOW_EXECUTION_FAILED with
// the original error as the cause.
func (e *Executor) Execute(ctx context.Context, p PatternType, params *Parameters) (*Result, error) {
	ctx, span := observability.StartSpanWithOtel(ctx, fmt.Sprintf("workflow.execute.%s", p),
		trace.WithAttributes(attribute.String("workflow.pattern", string(p))),
	)
	defer span.End()

	h, ok := e.registry.Get(p)
	if !ok {
		err := errWorkflowNotFound(p)
		span.RecordError(err)
		return nil, err
	}

	if !h.Validate(params) {
		err := errInvalidParameters(p)
		span.RecordError(err)
		return nil, err
	}

	start := time.Now()
	result, err := safeExecute(ctx, h, params)
	elapsed := time.Since(start)

	if err == nil {
		switch {
		case result == nil:
			err = errors.New("handler returned no result")
		case result.Response == nil:
			err = errors.New("handler returned no response")
		}
	}

	span.SetAttributes(
		attribute.Int64("workflow.duration_ms", elapsed.Milliseconds()),
		attribute.Bool("workflow.success", err == nil),
	)

	if !e.metrics.Record(p, elapsed, err == nil) {
		e.logger.Debug("pattern not tracked", zap.String("pattern", string(p)))
	}

	if err != nil {
		metrics.RecordWorkflowExecution(string(p), "error", elapsed)
		span.RecordError(err)

		meta := ExecutionMetadata{
			Pattern:       string(p),
			ExecutionTime: elapsed.Milliseconds(),
			Steps:         []string{fmt.Sprintf("execute %s", p)},
		}
		meta.AddError(err)

		e.logger.Warn("pattern execution failed",
			zap.String("pattern", string(p)),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		// a tagged cause decides whether recovery may try a fallback
		recoverable := true
		var inner *AgentError
		if errors.As(err, &inner) {
			recoverable = inner.Recoverable
		}
		return nil, WrapError(CodeWorkflowExecutionFailed,
			fmt.Sprintf("pattern %s failed", p), recoverable, err,
			FailureDetails{Pattern: p, Metadata: meta},
		)
	}

	metrics.RecordWorkflowExecution(string(p), "success", elapsed)
	result.Metadata.Pattern = string(p)
	result.Metadata.ExecutionTime = elapsed.Milliseconds()
	return result, nil
}

func safeExecute(ctx context.Context, h Handler, params *Parameters) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Execute(ctx, params)
}
