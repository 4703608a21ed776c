package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"github.com/sushant23/ai-agent-demo-sub001/internal/observability"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Complexity is the lexical complexity tier of a task.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

var conjunctions = map[string]bool{
	"and": true, "also": true, "then": true, "plus": true, "while": true, "but": true,
}

// TaskAnalysis is the outcome of AnalyzeTask.
type TaskAnalysis struct {
	Complexity        Complexity
	Capabilities      []string
	EstimatedDuration time.Duration
	WordCount         int
}

// AnalyzeTask scores text by length, repeated questions and conjunctions.
// More than 50 words scores 2, more than 20 scores 1; more than one '?' and
// any conjunction score 1 each. 3+ is high, 1+ medium, otherwise low.
func AnalyzeTask(text string) TaskAnalysis {
	words := strings.Fields(strings.ToLower(text))

	score := 0
	switch {
	case len(words) > 50:
		score += 2
	case len(words) > 20:
		score++
	}
	if strings.Count(text, "?") > 1 {
		score++
	}
	for _, w := range words {
		if conjunctions[strings.Trim(w, ".,;:!?")] {
			score++
			break
		}
	}

	a := TaskAnalysis{
		Complexity:        ComplexityLow,
		Capabilities:      []string{"general_reasoning"},
		EstimatedDuration: 2 * time.Second,
		WordCount:         len(words),
	}
	if score >= 1 {
		a.Complexity = ComplexityMedium
		a.Capabilities = append(a.Capabilities, "multi_step_planning")
		a.EstimatedDuration = 5 * time.Second
	}
	if score >= 3 {
		a.Complexity = ComplexityHigh
		a.Capabilities = append(a.Capabilities, "data_analysis", "synthesis")
		a.EstimatedDuration = 10 * time.Second
	}
	return a
}

// Worker is one member of the roster.
type Worker struct {
	ID             string
	Specialization string
	Task           string
}

func buildWorkers(text string, analysis TaskAnalysis) []Worker {
	workers := []Worker{{ID: uuid.NewString(), Specialization: "general", Task: text}}
	if analysis.Complexity == ComplexityHigh {
		workers = append(workers,
			Worker{
				ID:             uuid.NewString(),
				Specialization: "analysis",
				Task:           "Analyze the data, metrics and trends relevant to this request: " + text,
			},
			Worker{
				ID:             uuid.NewString(),
				Specialization: "synthesis",
				Task:           "Summarize the key conclusions and recommend concrete next steps for: " + text,
			},
		)
	}
	return workers
}

// OrchestratorWorkersHandler assigns a task to a roster of workers sized by
// its complexity, runs them concurrently and synthesizes their answers. Any
// worker failure fails the whole request.
type OrchestratorWorkersHandler struct {
	*BaseHandler
}

// NewOrchestratorWorkersHandler creates an orchestrator-workers handler
func NewOrchestratorWorkersHandler(deps Deps) *OrchestratorWorkersHandler {
	return &OrchestratorWorkersHandler{
		BaseHandler: NewBaseHandler(workflow.PatternOrchestratorWorkers, deps,
			"text_generation", "task_analysis", "concurrent_execution", "synthesis"),
	}
}

// Execute runs the roster
func (h *OrchestratorWorkersHandler) Execute(ctx context.Context, params *workflow.Parameters) (*workflow.Result, error) {
	ctx, span := observability.StartSpanWithOtel(ctx, "orchestration.orchestrator_workers",
		trace.WithAttributes(attribute.String("orchestration.pattern", string(h.pattern))),
	)
	defer span.End()

	var meta workflow.ExecutionMetadata

	analysis := AnalyzeTask(params.Input.Text)
	workers := buildWorkers(params.Input.Text, analysis)
	meta.AddStep("complexity %s, %d workers", analysis.Complexity, len(workers))
	span.SetAttributes(
		attribute.String("orchestration.complexity", string(analysis.Complexity)),
		attribute.StringSlice("orchestration.capabilities", analysis.Capabilities),
		attribute.Int("orchestration.worker_count", len(workers)),
	)

	tasks := make([]workflow.Task[*agent.AgentResponse], len(workers))
	for i, w := range workers {
		tasks[i] = func(ctx context.Context) (*agent.AgentResponse, error) {
			resp, _, err := runStep(ctx, h.deps, w.Task, params.Context)
			if err != nil {
				return nil, fmt.Errorf("worker %d (%s): %w", i+1, w.Specialization, err)
			}
			return resp, nil
		}
	}

	results, err := workflow.FailFast(ctx, tasks)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	meta.AddStep("%d workers completed", len(results))

	resp, err := h.synthesize(ctx, params.Input.Text, workers, results, &meta)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &workflow.Result{
		Response: resp,
		Context:  finalConversation(params.Context, params.Input, resp),
		Metadata: meta,
	}, nil
}

// synthesize merges worker answers with one generation call, falling back to
// AggregateResponses when there is no provider or the call fails.
func (h *OrchestratorWorkersHandler) synthesize(ctx context.Context, request string, workers []Worker,
	results []*agent.AgentResponse, meta *workflow.ExecutionMetadata) (*agent.AgentResponse, error) {
	aggregated, err := AggregateResponses(results)
	if err != nil || len(results) <= 1 {
		return aggregated, err
	}

	p := provider.First(h.deps.LLM)
	if p == nil {
		meta.AddStep("aggregated worker results")
		return aggregated, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Combine the following contributions into one coherent answer to: %s\n\n", request)
	for i, r := range results {
		fmt.Fprintf(&sb, "Worker %d (%s): %s\n\n", i+1, workers[i].Specialization, r.Content)
	}

	merged, err := p.GenerateText(ctx, provider.Request{
		SystemPrompt: systemPrompt,
		Messages:     []provider.Message{{Role: agent.RoleUser, Content: sb.String()}},
	})
	if err != nil {
		h.deps.logger().Warn("worker synthesis failed, aggregating", zap.Error(err))
		meta.AddError(fmt.Errorf("synthesis: %w", err))
		meta.AddStep("aggregated worker results")
		return aggregated, nil
	}

	meta.AddStep("synthesized %d worker results", len(results))
	aggregated.Content = merged.Content
	return aggregated, nil
}
