// Package recovery turns workflow failures into responses the user can act on.
package recovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	metrics "github.com/sushant23/ai-agent-demo-sub001/pkg/observability"
	"go.uber.org/zap"
)

const (
	fallbackConfidence = 0.3
	genericMessage     = "I'm sorry, I couldn't process that request. Could you please rephrase it or provide more details?"
)

var (
	actionTryAgain     = agent.NextStepAction{ID: "try_again", Label: "Try again", Description: "Send the same request again"}
	actionRephrase     = agent.NextStepAction{ID: "rephrase_request", Label: "Rephrase your request", Description: "Describe what you need in different words"}
	actionAddDetails   = agent.NextStepAction{ID: "provide_details", Label: "Add more details", Description: "Include products, dates or amounts"}
	actionSimplify     = agent.NextStepAction{ID: "simplify_request", Label: "Simplify the request", Description: "Ask about one thing at a time"}
	actionTryLater     = agent.NextStepAction{ID: "try_later", Label: "Try again later", Description: "The AI service is temporarily unavailable"}
	actionSupport      = agent.NextStepAction{ID: "contact_support", Label: "Contact support"}
	actionCheckSetting = agent.NextStepAction{ID: "check_configuration", Label: "Check configuration", Description: "Make sure the pattern is enabled"}
)

// ErrorResponse is the outcome of HandleError. Fallback is only set for
// recoverable errors.
type ErrorResponse struct {
	Error            *workflow.AgentError
	UserMessage      string
	SuggestedActions []agent.NextStepAction
	Fallback         *agent.AgentResponse
}

// Response returns the fallback when there is one, otherwise a generic
// request to rephrase carrying the suggested actions.
func (r ErrorResponse) Response() *agent.AgentResponse {
	if r.Fallback != nil {
		return r.Fallback
	}
	actions := r.SuggestedActions
	if len(actions) == 0 {
		actions = []agent.NextStepAction{actionRephrase}
	}
	return &agent.AgentResponse{
		Content:     genericMessage,
		NextActions: append([]agent.NextStepAction(nil), actions...),
		Confidence:  0,
	}
}

// Coordinator maps errors to user-facing guidance.
type Coordinator struct {
	llm    provider.Client
	logger *zap.Logger
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a coordinator. llm may be nil, in which case
// fallbacks are always rendered from templates.
func NewCoordinator(llm provider.Client, opts ...Option) *Coordinator {
	c := &Coordinator{llm: llm, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// guidance is the closed mapping from code to message and actions.
func guidance(code workflow.Code) (string, []agent.NextStepAction) {
	switch code {
	case workflow.CodeWorkflowNotFound:
		return "I couldn't find a way to handle that kind of request.",
			[]agent.NextStepAction{actionRephrase, actionSupport}
	case workflow.CodeInvalidWorkflowParameters:
		return "I need a bit more information to help with that.",
			[]agent.NextStepAction{actionRephrase, actionAddDetails}
	case workflow.CodeWorkflowExecutionFailed:
		return "Something went wrong while working on your request.",
			[]agent.NextStepAction{actionTryAgain, actionSimplify}
	case workflow.CodeLLMProviderUnavailable:
		return "The AI service is currently unavailable.",
			[]agent.NextStepAction{actionTryLater, actionSupport}
	case workflow.CodeNoResponsesToAggregate:
		return "None of the parts of your request could be completed.",
			[]agent.NextStepAction{actionSimplify, actionTryAgain}
	case workflow.CodeWorkflowMetricsNotFound:
		return "That workflow isn't enabled.",
			[]agent.NextStepAction{actionCheckSetting}
	default:
		return "Something unexpected happened.",
			[]agent.NextStepAction{actionTryAgain, actionSupport}
	}
}

// HandleError classifies err and, when it is recoverable, builds a
// best-effort fallback answer to input. It never fails: provider errors or
// panics while building the fallback drop back to a template.
func (c *Coordinator) HandleError(ctx context.Context, err error, input agent.UserInput, conv *agent.Conversation) ErrorResponse {
	ae := workflow.AsAgentError(err)
	if ae == nil {
		ae = workflow.NewError(workflow.CodeUnknown, "unknown error", true)
	}

	message, actions := guidance(ae.Code)
	out := ErrorResponse{
		Error:            ae,
		UserMessage:      message,
		SuggestedActions: actions,
	}

	metrics.RecordError(string(ae.Code))
	fields := []zap.Field{
		zap.String("code", string(ae.Code)),
		zap.Bool("recoverable", ae.Recoverable),
		zap.String("session_id", input.SessionID),
		zap.Error(err),
	}
	if !ae.Recoverable {
		c.logger.Error("request failed", fields...)
		return out
	}
	c.logger.Warn("request failed, building fallback", fields...)

	out.Fallback = c.fallback(ctx, input, conv, message, actions)
	return out
}

func (c *Coordinator) fallback(ctx context.Context, input agent.UserInput, conv *agent.Conversation,
	message string, actions []agent.NextStepAction) (resp *agent.AgentResponse) {
	start := time.Now()
	template := &agent.AgentResponse{
		Content:     fmt.Sprintf("%s You can try one of the suggestions below.", message),
		NextActions: append([]agent.NextStepAction(nil), actions...),
		Confidence:  fallbackConfidence,
	}

	p := provider.First(c.llm)
	if p == nil || strings.TrimSpace(input.Text) == "" {
		return template
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("fallback generation panicked", zap.Any("panic", r))
			resp = template
		}
	}()

	req := provider.Request{
		SystemPrompt: "You are a business assistant for online sellers. The full workflow for this request failed. " +
			"Give a short, helpful answer from general knowledge and say if details are missing.",
	}
	if conv != nil {
		for _, m := range conv.History {
			req.Messages = append(req.Messages, provider.Message{Role: m.Role, Content: m.Content})
		}
	}
	req.Messages = append(req.Messages, provider.Message{Role: agent.RoleUser, Content: input.Text})

	gen, err := p.GenerateText(ctx, req)
	if err != nil || gen == nil || strings.TrimSpace(gen.Content) == "" {
		if err != nil {
			c.logger.Warn("fallback generation failed", zap.Error(err))
		}
		return template
	}

	return &agent.AgentResponse{
		Content:        gen.Content,
		NextActions:    append([]agent.NextStepAction(nil), actions...),
		Confidence:     fallbackConfidence,
		ProcessingTime: time.Since(start).Milliseconds(),
	}
}
