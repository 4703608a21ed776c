// Package orchestration implements the built-in workflow patterns: sequential
// chaining, routing, parallel fan-out, orchestrator-workers and
// evaluator-optimizer.
package orchestration

import (
	"fmt"
	"strings"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/flow"
	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"github.com/sushant23/ai-agent-demo-sub001/internal/tools"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"go.uber.org/zap"
)

// Deps are the external collaborators handed to every built-in handler.
// Any of them may be nil; handlers fail or degrade when one they need is missing.
type Deps struct {
	LLM    provider.Client
	Tools  tools.Executor
	Flows  flow.Router
	Logger *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// provider returns the first configured provider.
func (d Deps) provider() (provider.Provider, error) {
	p := provider.First(d.LLM)
	if p == nil {
		return nil, workflow.NewError(workflow.CodeLLMProviderUnavailable, "no LLM provider configured", false)
	}
	return p, nil
}

func (d Deps) toolDefinitions() []provider.Tool {
	if d.Tools == nil {
		return nil
	}
	return d.Tools.Definitions()
}

// BaseHandler provides the parts of workflow.Handler the built-ins share.
type BaseHandler struct {
	pattern      workflow.PatternType
	capabilities []string
	deps         Deps
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(pattern workflow.PatternType, deps Deps, capabilities ...string) *BaseHandler {
	return &BaseHandler{
		pattern:      pattern,
		capabilities: capabilities,
		deps:         deps,
	}
}

// Pattern returns the pattern type
func (b *BaseHandler) Pattern() workflow.PatternType {
	return b.pattern
}

// RequiredCapabilities returns a copy of the capability tags
func (b *BaseHandler) RequiredCapabilities() []string {
	return append([]string(nil), b.capabilities...)
}

// Validate requires non-blank input text and a conversation.
func (b *BaseHandler) Validate(params *workflow.Parameters) bool {
	return params != nil &&
		strings.TrimSpace(params.Input.Text) != "" &&
		params.Context != nil
}

// Builtins returns one handler per built-in pattern, in workflow.BuiltinPatterns order.
func Builtins(deps Deps) []workflow.Handler {
	return []workflow.Handler{
		NewSequentialHandler(deps),
		NewRoutingHandler(deps),
		NewParallelHandler(deps),
		NewOrchestratorWorkersHandler(deps),
		NewEvaluatorOptimizerHandler(deps),
	}
}

// finalConversation returns a copy of conv with the user turn and the final
// assistant turn appended. conv itself is left untouched.
func finalConversation(conv *agent.Conversation, input agent.UserInput, resp *agent.AgentResponse) *agent.Conversation {
	out := conv.Clone()
	if out == nil {
		out = agent.NewConversation(input.SessionID, input.UserID)
	}
	out.Append(agent.RoleUser, input.Text)
	if resp != nil {
		out.Append(agent.RoleAssistant, resp.Content)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return fmt.Sprintf("%s...", string(r[:n]))
}
