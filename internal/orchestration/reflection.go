package orchestration

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"github.com/sushant23/ai-agent-demo-sub001/internal/observability"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultQualityThreshold = 0.8
	defaultMaxIterations    = 3
	confidenceStep          = 0.1
)

// Deficiency tags reported by the rubric.
const (
	DeficiencyTooShort          = "too_short"
	DeficiencyTooLong           = "too_long"
	DeficiencyMissingNextAction = "missing_next_actions"
	DeficiencyFewNextActions    = "few_next_actions"
	DeficiencyTooManyActions    = "too_many_next_actions"
	DeficiencyLowConfidence     = "low_confidence"
)

// Evaluation is a quality score in [0,1] with the reasons it fell short.
type Evaluation struct {
	Score        float64
	Deficiencies []string
}

// Evaluator scores a response.
type Evaluator interface {
	Evaluate(resp *agent.AgentResponse) Evaluation
}

// EvaluatorFunc adapts a function to Evaluator
type EvaluatorFunc func(resp *agent.AgentResponse) Evaluation

// Evaluate calls f
func (f EvaluatorFunc) Evaluate(resp *agent.AgentResponse) Evaluation {
	return f(resp)
}

// RubricEvaluator is the fixed heuristic rubric. Length under 50 characters
// scores 0.3, over 1000 scores 0.6, otherwise 1.0. No actions score 0.3,
// two to four score 1.0, anything else 0.7. The two are averaged and then
// averaged again with the response's own confidence.
type RubricEvaluator struct{}

// Evaluate implements Evaluator
func (RubricEvaluator) Evaluate(resp *agent.AgentResponse) Evaluation {
	if resp == nil {
		return Evaluation{Score: 0, Deficiencies: []string{DeficiencyTooShort, DeficiencyMissingNextAction}}
	}

	var tags []string

	length := utf8.RuneCountInString(resp.Content)
	lengthScore := 1.0
	switch {
	case length < 50:
		lengthScore = 0.3
		tags = append(tags, DeficiencyTooShort)
	case length > 1000:
		lengthScore = 0.6
		tags = append(tags, DeficiencyTooLong)
	}

	n := len(resp.NextActions)
	actionScore := 0.7
	switch {
	case n == 0:
		actionScore = 0.3
		tags = append(tags, DeficiencyMissingNextAction)
	case n >= 2 && n <= 4:
		actionScore = 1.0
	case n == 1:
		tags = append(tags, DeficiencyFewNextActions)
	default:
		tags = append(tags, DeficiencyTooManyActions)
	}

	confidence := clamp01(resp.Confidence)
	if confidence < defaultQualityThreshold {
		tags = append(tags, DeficiencyLowConfidence)
	}

	score := ((lengthScore+actionScore)/2 + confidence) / 2
	return Evaluation{Score: clamp01(score), Deficiencies: tags}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// EvaluatorOptimizerHandler generates a response and rewrites it until the
// evaluator is satisfied or the iteration limit is reached. Iterations are
// strictly sequential.
type EvaluatorOptimizerHandler struct {
	*BaseHandler
	evaluator     Evaluator
	threshold     float64
	maxIterations int
}

// EvaluatorOption configures an EvaluatorOptimizerHandler
type EvaluatorOption func(*EvaluatorOptimizerHandler)

// WithEvaluator replaces the rubric
func WithEvaluator(e Evaluator) EvaluatorOption {
	return func(h *EvaluatorOptimizerHandler) {
		if e != nil {
			h.evaluator = e
		}
	}
}

// WithQualityThreshold sets the score at which iteration stops
func WithQualityThreshold(threshold float64) EvaluatorOption {
	return func(h *EvaluatorOptimizerHandler) {
		h.threshold = threshold
	}
}

// WithMaxIterations sets the maximum number of evaluation rounds
func WithMaxIterations(max int) EvaluatorOption {
	return func(h *EvaluatorOptimizerHandler) {
		if max > 0 {
			h.maxIterations = max
		}
	}
}

// NewEvaluatorOptimizerHandler creates an evaluator-optimizer handler
func NewEvaluatorOptimizerHandler(deps Deps, opts ...EvaluatorOption) *EvaluatorOptimizerHandler {
	h := &EvaluatorOptimizerHandler{
		BaseHandler: NewBaseHandler(workflow.PatternEvaluatorOptimizer, deps,
			"text_generation", "quality_evaluation", "iterative_refinement"),
		evaluator:     RubricEvaluator{},
		threshold:     defaultQualityThreshold,
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute performs generate, then evaluate and rewrite rounds
func (h *EvaluatorOptimizerHandler) Execute(ctx context.Context, params *workflow.Parameters) (*workflow.Result, error) {
	ctx, span := observability.StartSpanWithOtel(ctx, "orchestration.evaluator_optimizer",
		trace.WithAttributes(
			attribute.String("orchestration.pattern", string(h.pattern)),
			attribute.Int("orchestration.max_iterations", h.maxIterations),
		),
	)
	defer span.End()

	var meta workflow.ExecutionMetadata

	current, _, err := runStep(ctx, h.deps, params.Input.Text, params.Context)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("initial generation: %w", err)
	}
	meta.AddStep("generated initial response")

	stopReason := "max_iterations"
	iterations := 0
	for iteration := 1; iteration <= h.maxIterations; iteration++ {
		iterations = iteration
		eval := h.evaluator.Evaluate(current)
		meta.AddStep("iteration %d scored %.2f", iteration, eval.Score)
		span.SetAttributes(attribute.Float64(fmt.Sprintf("iteration.%d.score", iteration), eval.Score))

		if eval.Score >= h.threshold {
			stopReason = "quality_threshold_met"
			break
		}

		improved, err := h.rewrite(ctx, params.Input.Text, current, eval)
		if err != nil {
			h.deps.logger().Warn("rewrite failed, keeping current response",
				zap.Int("iteration", iteration),
				zap.Error(err),
			)
			meta.AddError(fmt.Errorf("iteration %d rewrite: %w", iteration, err))
			stopReason = "rewrite_failed"
			break
		}
		meta.AddStep("iteration %d rewrote response (%s)", iteration, strings.Join(eval.Deficiencies, ", "))
		current = improved
	}

	span.SetAttributes(
		attribute.Int("orchestration.iterations", iterations),
		attribute.String("orchestration.stop_reason", stopReason),
	)

	return &workflow.Result{
		Response: current,
		Context:  finalConversation(params.Context, params.Input, current),
		Metadata: meta,
	}, nil
}

// rewrite asks the provider to fix the listed deficiencies. Confidence rises
// by a fixed step, capped at 1.
func (h *EvaluatorOptimizerHandler) rewrite(ctx context.Context, request string, current *agent.AgentResponse, eval Evaluation) (*agent.AgentResponse, error) {
	p, err := h.deps.provider()
	if err != nil {
		return nil, err
	}

	deficiencies := "general quality"
	if len(eval.Deficiencies) > 0 {
		deficiencies = strings.Join(eval.Deficiencies, ", ")
	}

	prompt := fmt.Sprintf("Improve the response below to the request. Address these issues: %s. "+
		"Keep what is correct, be specific and end with concrete next steps.\n\nRequest: %s\n\nResponse: %s",
		deficiencies, request, current.Content)

	resp, err := p.GenerateText(ctx, provider.Request{
		SystemPrompt: systemPrompt,
		Messages:     []provider.Message{{Role: agent.RoleUser, Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	return &agent.AgentResponse{
		Content:        resp.Content,
		NextActions:    mergeActions(current.NextActions, suggestActions(request+" "+resp.Content)),
		Confidence:     math.Min(current.Confidence+confidenceStep, 1),
		ProcessingTime: current.ProcessingTime,
		Metadata:       current.Metadata,
	}, nil
}
