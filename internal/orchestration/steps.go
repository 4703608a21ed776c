package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"go.uber.org/zap"
)

const (
	systemPrompt = "You are a business assistant for online sellers. " +
		"Give concise, specific and actionable answers."

	defaultStepConfidence = 0.8
	maxNextActions        = 4
)

var actionRules = []struct {
	keywords []string
	action   agent.NextStepAction
}{
	{[]string{"sales", "revenue", "profit"}, agent.NextStepAction{ID: "view_sales_report", Label: "View sales report", Description: "Open a detailed breakdown of sales and revenue"}},
	{[]string{"inventory", "stock", "restock"}, agent.NextStepAction{ID: "check_inventory", Label: "Check inventory levels", Description: "Review stock levels and restock needs"}},
	{[]string{"seo", "keyword", "listing"}, agent.NextStepAction{ID: "optimize_seo", Label: "Optimize listing SEO", Description: "Improve titles, keywords and descriptions"}},
	{[]string{"price", "pricing", "competitor"}, agent.NextStepAction{ID: "review_pricing", Label: "Review pricing", Description: "Compare prices against competitors"}},
	{[]string{"marketing", "campaign", "promotion"}, agent.NextStepAction{ID: "plan_campaign", Label: "Plan a campaign", Description: "Draft a marketing campaign"}},
	{[]string{"customer", "review", "feedback"}, agent.NextStepAction{ID: "analyze_customers", Label: "Analyze customer feedback", Description: "Summarize reviews and customer trends"}},
}

// suggestActions maps business keywords in text to follow-up actions.
func suggestActions(text string) []agent.NextStepAction {
	lower := strings.ToLower(text)
	var out []agent.NextStepAction
	for _, rule := range actionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, rule.action)
				break
			}
		}
		if len(out) == maxNextActions {
			break
		}
	}
	return out
}

// mergeActions concatenates action lists, dropping repeated IDs and keeping
// the first maxNextActions in first-seen order.
func mergeActions(lists ...[]agent.NextStepAction) []agent.NextStepAction {
	seen := make(map[string]bool)
	var out []agent.NextStepAction
	for _, list := range lists {
		for _, a := range list {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, a)
			if len(out) == maxNextActions {
				return out
			}
		}
	}
	return out
}

func historyMessages(conv *agent.Conversation) []provider.Message {
	if conv == nil {
		return nil
	}
	msgs := make([]provider.Message, 0, len(conv.History)+1)
	for _, m := range conv.History {
		role := m.Role
		if role == agent.RoleTool {
			role = agent.RoleUser
		}
		msgs = append(msgs, provider.Message{Role: role, Content: m.Content})
	}
	return msgs
}

// useTools reports whether step should go through tool-augmented generation
// with provider p.
func (d Deps) useTools(p provider.Provider, step string) ([]provider.Tool, bool) {
	if !p.SupportsTools() {
		return nil, false
	}
	defs := d.toolDefinitions()
	return defs, ShouldUseTools(step, defs)
}

// runStep executes one unit of work with the first provider. Steps that call
// for tools run tool-augmented generation; requested calls are executed in
// order and answered with one follow-up generation. conv is only read.
func runStep(ctx context.Context, deps Deps, step string, conv *agent.Conversation) (*agent.AgentResponse, []ToolOutcome, error) {
	start := time.Now()

	p, err := deps.provider()
	if err != nil {
		return nil, nil, err
	}

	req := provider.Request{
		SystemPrompt: systemPrompt,
		Messages:     append(historyMessages(conv), provider.Message{Role: agent.RoleUser, Content: step}),
	}

	var content string
	var outcomes []ToolOutcome

	if defs, ok := deps.useTools(p, step); ok {
		req.Tools = defs
		resp, err := p.GenerateWithTools(ctx, req)
		if err != nil {
			return nil, nil, fmt.Errorf("generate with tools: %w", err)
		}
		content = resp.Content

		if len(resp.ToolCalls) > 0 {
			outcomes = ExecuteToolCalls(ctx, deps.Tools, resp.ToolCalls)

			follow := req
			follow.Tools = nil
			follow.Messages = append([]provider.Message(nil), req.Messages...)
			if resp.Content != "" {
				follow.Messages = append(follow.Messages, provider.Message{Role: agent.RoleAssistant, Content: resp.Content})
			}
			follow.Messages = append(follow.Messages, provider.Message{
				Role: agent.RoleUser,
				Content: fmt.Sprintf("Tool results:\n%s\nUse these results to answer: %s",
					formatToolOutcomes(outcomes), step),
			})

			final, err := p.GenerateText(ctx, follow)
			if err != nil {
				return nil, outcomes, fmt.Errorf("generate tool follow-up: %w", err)
			}
			content = final.Content
		}
	} else {
		resp, err := p.GenerateText(ctx, req)
		if err != nil {
			return nil, nil, fmt.Errorf("generate text: %w", err)
		}
		content = resp.Content
	}

	deps.logger().Debug("step completed",
		zap.String("step", truncate(step, 80)),
		zap.Int("tool_calls", len(outcomes)),
	)

	return &agent.AgentResponse{
		Content:        content,
		NextActions:    suggestActions(step + " " + content),
		Confidence:     defaultStepConfidence,
		ProcessingTime: time.Since(start).Milliseconds(),
	}, outcomes, nil
}
