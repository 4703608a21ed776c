package orchestration

import (
	"context"
	"fmt"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/observability"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SequentialHandler splits a task into ordered steps and runs them one after
// another. Each step sees the outputs of the steps before it as assistant
// turns in a private copy of the conversation. The last step's response is
// the result.
type SequentialHandler struct {
	*BaseHandler
}

// NewSequentialHandler creates a sequential chaining handler
func NewSequentialHandler(deps Deps) *SequentialHandler {
	return &SequentialHandler{
		BaseHandler: NewBaseHandler(workflow.PatternSequentialChaining, deps,
			"text_generation", "task_decomposition"),
	}
}

// Execute runs the step chain
func (h *SequentialHandler) Execute(ctx context.Context, params *workflow.Parameters) (*workflow.Result, error) {
	ctx, span := observability.StartSpanWithOtel(ctx, "orchestration.sequential",
		trace.WithAttributes(attribute.String("orchestration.pattern", string(h.pattern))),
	)
	defer span.End()

	var meta workflow.ExecutionMetadata

	steps, fallback := decompose(ctx, h.deps, stepsPrompt, params.Input.Text, maxSequentialSteps)
	if fallback {
		meta.AddStep("decomposition fell back to the original task")
	} else {
		meta.AddStep("decomposed task into %d steps", len(steps))
	}
	span.SetAttributes(attribute.Int("orchestration.step_count", len(steps)))

	local := params.Context.Clone()
	var final *agent.AgentResponse

	for i, step := range steps {
		resp, outcomes, err := runStep(ctx, h.deps, step, local)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("step %d of %d: %w", i+1, len(steps), err)
		}
		if len(outcomes) > 0 {
			meta.AddStep("step %d executed %d tool calls", i+1, len(outcomes))
		}
		meta.AddStep("step %d: %s", i+1, truncate(step, 80))

		local.Append(agent.RoleAssistant, resp.Content)
		final = resp
	}

	return &workflow.Result{
		Response: final,
		Context:  finalConversation(params.Context, params.Input, final),
		Metadata: meta,
	}, nil
}
