package orchestration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"github.com/sushant23/ai-agent-demo-sub001/internal/tools"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
)

// echoProvider answers "done: <last prompt>" and lets a test override
// specific prompts by prefix.
func echoProvider(overrides map[string]func() (*provider.Response, error)) *provider.MockProvider {
	m := provider.NewMockProvider("mock")
	m.Respond = func(req provider.Request, withTools bool) (*provider.Response, error) {
		prompt := provider.LastPrompt(req)
		for prefix, fn := range overrides {
			if strings.HasPrefix(prompt, prefix) {
				return fn()
			}
		}
		return &provider.Response{Content: "done: " + prompt}, nil
	}
	return m
}

func reply(content string) func() (*provider.Response, error) {
	return func() (*provider.Response, error) {
		return &provider.Response{Content: content}, nil
	}
}

func fail(msg string) func() (*provider.Response, error) {
	return func() (*provider.Response, error) {
		return nil, errors.New(msg)
	}
}

func testParams(text string) *workflow.Parameters {
	conv := agent.NewConversation("session-1", "user-1")
	conv.Append(agent.RoleUser, "hello")
	conv.Append(agent.RoleAssistant, "hi, how can I help?")
	return &workflow.Parameters{
		Input:   agent.UserInput{ID: "req-1", UserID: "user-1", SessionID: "session-1", Text: text},
		Context: conv,
		Options: map[string]any{},
	}
}

func salesTools(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	require.NoError(t, r.Register(tools.Tool{
		Name:        "sales_report",
		Description: "Returns revenue for a period",
		Parameters:  map[string]any{"type": "object"},
		Fn: func(ctx context.Context, params map[string]any) (any, error) {
			return map[string]any{"revenue": 1200}, nil
		},
	}))
	require.NoError(t, r.Register(tools.Tool{
		Name: "broken",
		Fn: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, errors.New("backend down")
		},
	}))
	return r
}
