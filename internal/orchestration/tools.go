package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"github.com/sushant23/ai-agent-demo-sub001/internal/tools"
)

// toolKeywords is the business vocabulary that makes a step worth a tool call.
var toolKeywords = []string{
	"analyze", "analysis", "revenue", "sales", "seo", "inventory", "stock",
	"product", "listing", "price", "pricing", "profit", "performance",
	"report", "marketing", "customer", "order", "trend", "competitor",
	"keyword", "metrics",
}

// ShouldUseTools reports whether step mentions business vocabulary and at
// least one tool is available.
func ShouldUseTools(step string, available []provider.Tool) bool {
	if len(available) == 0 {
		return false
	}
	lower := strings.ToLower(step)
	for _, kw := range toolKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ToolOutcome is the result of one requested tool call.
type ToolOutcome struct {
	CallID  string `json:"call_id,omitempty"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ExecuteToolCalls runs calls one after another. A failing call is recorded
// in its outcome and never stops the batch. Outcomes are in call order.
func ExecuteToolCalls(ctx context.Context, executor tools.Executor, calls []provider.ToolCall) []ToolOutcome {
	outcomes := make([]ToolOutcome, 0, len(calls))
	for _, call := range calls {
		out := ToolOutcome{CallID: call.ID, Name: call.Name}

		if executor == nil {
			out.Error = "no tool registry configured"
			outcomes = append(outcomes, out)
			continue
		}

		res, err := executor.ExecuteTool(ctx, call.Name, call.Arguments)
		switch {
		case err != nil:
			out.Error = err.Error()
		case res == nil:
			out.Error = "tool returned no result"
		default:
			out.Success = res.Success
			out.Data = res.Data
			out.Error = res.Error
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// formatToolOutcomes renders outcomes for a follow-up prompt, one JSON
// object per line.
func formatToolOutcomes(outcomes []ToolOutcome) string {
	var sb strings.Builder
	for _, o := range outcomes {
		data, err := json.Marshal(o)
		if err != nil {
			data = []byte(fmt.Sprintf(`{"name":%q,"success":false,"error":"unprintable result"}`, o.Name))
		}
		sb.Write(data)
		sb.WriteString("\n")
	}
	return sb.String()
}
