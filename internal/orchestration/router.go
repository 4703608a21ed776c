package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/flow"
	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"github.com/sushant23/ai-agent-demo-sub001/internal/observability"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RoutingHandler hands the request to the flow selected by the Flow Router.
// Requests that call for tools are answered with tool-augmented generation
// instead of the flow's own execution.
type RoutingHandler struct {
	*BaseHandler
}

// NewRoutingHandler creates a routing handler
func NewRoutingHandler(deps Deps) *RoutingHandler {
	return &RoutingHandler{
		BaseHandler: NewBaseHandler(workflow.PatternRouting, deps,
			"intent_classification", "flow_execution"),
	}
}

// Execute classifies (unless an intent was passed in), selects a flow and runs it
func (h *RoutingHandler) Execute(ctx context.Context, params *workflow.Parameters) (*workflow.Result, error) {
	ctx, span := observability.StartSpanWithOtel(ctx, "orchestration.routing",
		trace.WithAttributes(attribute.String("orchestration.pattern", string(h.pattern))),
	)
	defer span.End()

	if h.deps.Flows == nil {
		err := errors.New("flow router is not configured")
		span.RecordError(err)
		return nil, err
	}

	var meta workflow.ExecutionMetadata

	intent, ok := params.Intent()
	if !ok {
		var err error
		intent, err = h.deps.Flows.ClassifyIntent(ctx, params.Input, params.Context)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("classify intent: %w", err)
		}
		meta.AddStep("classified intent %s (%.2f)", intent.Name, intent.Confidence)
	}

	selected, err := h.deps.Flows.SelectFlow(ctx, intent)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("select flow: %w", err)
	}
	meta.AddStep("selected flow %s", selected.Name)
	span.SetAttributes(
		attribute.String("orchestration.intent", intent.Name),
		attribute.String("orchestration.flow", selected.Name),
	)

	var resp *agent.AgentResponse
	state := map[string]any{}

	if p := provider.First(h.deps.LLM); p != nil {
		if _, ok := h.deps.useTools(p, params.Input.Text); ok {
			r, outcomes, err := runStep(ctx, h.deps, params.Input.Text, params.Context)
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
			meta.AddStep("answered with tools (%d tool calls)", len(outcomes))
			resp = r
			state["last_flow"] = selected.Name
			state["last_intent"] = intent.Name
		}
	}

	if resp == nil {
		fr, err := h.deps.Flows.ExecuteFlow(ctx, selected, flow.Request{
			Input:   params.Input,
			Context: params.Context,
			Intent:  intent,
		})
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if fr == nil || fr.Response == nil {
			err := fmt.Errorf("flow %s returned no response", selected.Name)
			span.RecordError(err)
			return nil, err
		}
		meta.AddStep("executed flow %s", selected.Name)
		resp = fr.Response
		for k, v := range fr.State {
			state[k] = v
		}
	}

	out := finalConversation(params.Context, params.Input, resp)
	for k, v := range state {
		out.State[k] = v
	}

	return &workflow.Result{
		Response: resp,
		Context:  out,
		Metadata: meta,
	}, nil
}
