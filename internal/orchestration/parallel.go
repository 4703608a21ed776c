package orchestration

import (
	"context"
	"fmt"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/observability"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ParallelHandler splits a request into independent subtasks, runs them
// concurrently and aggregates whichever ones succeed.
//
// Use cases:
// - Comparing several products at once
// - Multi-part questions
// - Independent data gathering
type ParallelHandler struct {
	*BaseHandler
}

// NewParallelHandler creates a parallel fan-out handler
func NewParallelHandler(deps Deps) *ParallelHandler {
	return &ParallelHandler{
		BaseHandler: NewBaseHandler(workflow.PatternParallelFanout, deps,
			"text_generation", "task_decomposition", "concurrent_execution"),
	}
}

// Execute fans out over the subtasks and waits for all of them
func (h *ParallelHandler) Execute(ctx context.Context, params *workflow.Parameters) (*workflow.Result, error) {
	ctx, span := observability.StartSpanWithOtel(ctx, "orchestration.parallel",
		trace.WithAttributes(attribute.String("orchestration.pattern", string(h.pattern))),
	)
	defer span.End()

	var meta workflow.ExecutionMetadata

	subtasks, fallback := decompose(ctx, h.deps, subtasksPrompt, params.Input.Text, maxSubtasks)
	if fallback {
		meta.AddStep("decomposition fell back to the original task")
	} else {
		meta.AddStep("decomposed request into %d subtasks", len(subtasks))
	}

	tasks := make([]workflow.Task[*agent.AgentResponse], len(subtasks))
	for i, sub := range subtasks {
		tasks[i] = func(ctx context.Context) (*agent.AgentResponse, error) {
			resp, _, err := runStep(ctx, h.deps, sub, params.Context)
			return resp, err
		}
	}

	settled := workflow.SettleAll(ctx, tasks)
	for _, s := range settled {
		if s.Err != nil {
			meta.AddError(fmt.Errorf("subtask %d: %w", s.Index+1, s.Err))
			h.deps.logger().Warn("subtask failed",
				zap.Int("subtask", s.Index+1),
				zap.Error(s.Err),
			)
		}
	}

	responses := workflow.Fulfilled(settled)
	span.SetAttributes(
		attribute.Int("orchestration.subtask_count", len(subtasks)),
		attribute.Int("orchestration.success_count", len(responses)),
	)
	meta.AddStep("%d of %d subtasks succeeded", len(responses), len(subtasks))

	resp, err := AggregateResponses(responses)
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
