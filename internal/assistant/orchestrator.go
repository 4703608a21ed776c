// Package assistant is the entry point of the business assistant: it picks a
// pattern for each request, runs it and turns every failure into a response.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/flow"
	"github.com/sushant23/ai-agent-demo-sub001/internal/observability"
	"github.com/sushant23/ai-agent-demo-sub001/internal/orchestration"
	"github.com/sushant23/ai-agent-demo-sub001/internal/recovery"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	metrics "github.com/sushant23/ai-agent-demo-sub001/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// defaultIntentConfidence is used when no flow router is configured.
const defaultIntentConfidence = 0.5

// ErrAlreadyInitialized is returned by a second call to Initialize.
var ErrAlreadyInitialized = errors.New("orchestrator already initialized")

// ContextManager persists conversation state after a successful request.
type ContextManager interface {
	UpdateContext(ctx context.Context, conv *agent.Conversation) error
}

// Config selects the patterns an orchestrator serves.
type Config struct {
	// EnabledPatterns defaults to the built-in patterns when empty.
	EnabledPatterns []workflow.PatternType
}

// Orchestrator owns its handler registry, metrics and status counters, so
// several can coexist in one process.
type Orchestrator struct {
	deps     orchestration.Deps
	contexts ContextManager

	registry *workflow.Registry
	metrics  *workflow.MetricsTracker
	executor *workflow.Executor
	status   *workflow.StatusTracker
	recovery *recovery.Coordinator
	logger   *zap.Logger

	mu          sync.RWMutex
	initialized bool
	enabled     map[workflow.PatternType]bool
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithContextManager sets where successful conversations are saved
func WithContextManager(cm ContextManager) Option {
	return func(o *Orchestrator) {
		o.contexts = cm
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an orchestrator. It serves nothing until Initialize is called.
func New(deps orchestration.Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps:     deps,
		registry: workflow.NewRegistry(),
		metrics:  workflow.NewMetricsTracker(nil),
		status:   workflow.NewStatusTracker(),
		logger:   zap.NewNop(),
		enabled:  make(map[workflow.PatternType]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.deps.Logger == nil {
		o.deps.Logger = o.logger
	}
	o.executor = workflow.NewExecutor(o.registry, o.metrics, workflow.WithExecutorLogger(o.logger))
	o.recovery = recovery.NewCoordinator(deps.LLM, recovery.WithLogger(o.logger))
	return o
}

// Initialize enables the configured patterns, creates their metrics records,
// registers the built-in handlers that are not already registered and marks
// the orchestrator as running.
func (o *Orchestrator) Initialize(ctx context.Context, cfg Config) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return ErrAlreadyInitialized
	}

	patterns := cfg.EnabledPatterns
	if len(patterns) == 0 {
		patterns = workflow.BuiltinPatterns()
	}

	builtins := make(map[workflow.PatternType]workflow.Handler)
	for _, h := range orchestration.Builtins(o.deps) {
		builtins[h.Pattern()] = h
	}

	for _, p := range patterns {
		o.enabled[p] = true
		o.metrics.Enable(p)

		if _, ok := o.registry.Get(p); ok {
			continue
		}
		if h, ok := builtins[p]; ok {
			if err := o.registry.Register(h); err != nil {
				return fmt.Errorf("register %s: %w", p, err)
			}
		}
	}

	o.initialized = true
	o.status.SetRunning(true)

	o.logger.Info("orchestrator initialized",
		zap.Int("patterns", len(patterns)),
		zap.Any("enabled", patterns),
	)
	return nil
}

// Shutdown marks the orchestrator as stopped. Counters and metrics are kept.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.status.SetRunning(false)
	o.logger.Info("orchestrator stopped")
	return nil
}

// Status returns a snapshot of the process counters
func (o *Orchestrator) Status() workflow.Status {
	return o.status.Snapshot()
}

// RegisterWorkflowHandler binds h to p, replacing any existing handler.
func (o *Orchestrator) RegisterWorkflowHandler(p workflow.PatternType, h workflow.Handler) error {
	if err := o.registry.RegisterAs(p, h); err != nil {
		return err
	}
	o.logger.Info("workflow handler registered", zap.String("pattern", string(p)))
	return nil
}

// ExecuteWorkflow runs one pattern directly. Unlike ProcessUserInput it
// returns failures to the caller.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, p workflow.PatternType, params *workflow.Parameters) (*workflow.Result, error) {
	return o.executor.Execute(ctx, p, params)
}

// WorkflowMetrics returns the metrics of an enabled pattern.
func (o *Orchestrator) WorkflowMetrics(p workflow.PatternType) (workflow.PatternMetrics, error) {
	return o.metrics.Get(p)
}

// MetricsSnapshot returns the metrics of every enabled pattern.
func (o *Orchestrator) MetricsSnapshot() map[workflow.PatternType]workflow.PatternMetrics {
	return o.metrics.Snapshot()
}

// EnabledPatterns lists the enabled patterns in sorted order.
func (o *Orchestrator) EnabledPatterns() []workflow.PatternType {
	return slices.Sorted(maps.Keys(o.metrics.Snapshot()))
}

func (o *Orchestrator) isEnabled(p workflow.PatternType) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.enabled[p]
}

// SelectPattern classifies input and returns the pattern ProcessUserInput
// would run, along with the intent. An explicit "pattern" entry in the input
// metadata naming an enabled pattern takes precedence.
func (o *Orchestrator) SelectPattern(ctx context.Context, input agent.UserInput, conv *agent.Conversation) (workflow.PatternType, agent.Intent, error) {
	intent := agent.Intent{Name: flow.GeneralInquiry, Confidence: defaultIntentConfidence}
	if o.deps.Flows != nil {
		var err error
		intent, err = o.deps.Flows.ClassifyIntent(ctx, input, conv)
		if err != nil {
			return "", intent, fmt.Errorf("classify intent: %w", err)
		}
	}

	if name, ok := input.Metadata[workflow.OptionPattern]; ok && name != "" {
		p := workflow.PatternType(name)
		if o.isEnabled(p) {
			return p, intent, nil
		}
		o.logger.Warn("ignoring pattern override", zap.String("pattern", name))
	}

	return workflow.SelectPattern(intent, conv), intent, nil
}

// ProcessUserInput handles one request end to end. It always returns a
// response: errors and panics are counted, logged and turned into a fallback
// or a request to rephrase, each with at least one suggested action.
func (o *Orchestrator) ProcessUserInput(ctx context.Context, input agent.UserInput, conv *agent.Conversation) (resp *agent.AgentResponse) {
	start := time.Now()
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if input.Timestamp.IsZero() {
		input.Timestamp = start
	}
	if conv == nil {
		conv = agent.NewConversation(input.SessionID, input.UserID)
	}

	ctx, span := observability.StartSpanWithOtel(ctx, "assistant.process_user_input",
		trace.WithAttributes(
			attribute.String("request.id", input.ID),
			attribute.String("session.id", input.SessionID),
		),
	)
	defer span.End()

	logger := o.logger.With(
		zap.String("request_id", input.ID),
		zap.String("session_id", input.SessionID),
	)

	o.status.Begin()
	metrics.SetActiveWorkflows(o.status.Snapshot().ActiveWorkflows)

	var pattern workflow.PatternType
	defer func() {
		if r := recover(); r != nil {
			err := workflow.NewError(workflow.CodeUnknown, fmt.Sprintf("panic: %v", r), true)
			span.RecordError(err)
			resp = o.fail(ctx, err, input, conv, pattern, start, logger)
		}
	}()

	pattern, intent, err := o.SelectPattern(ctx, input, conv)
	if err != nil {
		span.RecordError(err)
		return o.fail(ctx, err, input, conv, pattern, start, logger)
	}
	span.SetAttributes(
		attribute.String("workflow.pattern", string(pattern)),
		attribute.String("intent.name", intent.Name),
	)

	result, err := o.executor.Execute(ctx, pattern, &workflow.Parameters{
		Input:   input,
		Context: conv,
		Options: map[string]any{
			workflow.OptionIntent:  intent,
			workflow.OptionPattern: pattern,
		},
	})
	if err != nil {
		span.RecordError(err)
		return o.fail(ctx, err, input, conv, pattern, start, logger)
	}

	if o.contexts != nil && result.Context != nil {
		if err := o.contexts.UpdateContext(ctx, result.Context); err != nil {
			logger.Warn("failed to save conversation", zap.Error(err))
		}
	}

	elapsed := time.Since(start)
	o.status.Complete(elapsed)
	metrics.SetActiveWorkflows(o.status.Snapshot().ActiveWorkflows)
	metrics.RecordRequest("success")

	out := *result.Response
	out.Pattern = string(pattern)
	out.RequestID = input.ID
	out.ProcessingTime = elapsed.Milliseconds()

	logger.Info("request completed",
		zap.String("pattern", string(pattern)),
		zap.Duration("duration", elapsed),
	)
	return &out
}

func (o *Orchestrator) fail(ctx context.Context, err error, input agent.UserInput, conv *agent.Conversation,
	pattern workflow.PatternType, start time.Time, logger *zap.Logger) *agent.AgentResponse {
	o.status.Fail()
	metrics.SetActiveWorkflows(o.status.Snapshot().ActiveWorkflows)
	metrics.RecordRequest("error")

	handled := o.recovery.HandleError(ctx, err, input, conv)
	out := *handled.Response()
	out.Pattern = string(pattern)
	out.RequestID = input.ID
	out.ProcessingTime = time.Since(start).Milliseconds()
	out.Metadata = map[string]any{
		"error_code":  string(handled.Error.Code),
		"recoverable": handled.Error.Recoverable,
	}

	logger.Debug("request answered by error recovery",
		zap.String("code", string(handled.Error.Code)),
		zap.Bool("fallback", handled.Fallback != nil),
	)
	return &out
}
