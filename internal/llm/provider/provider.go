// Package provider defines the LLM client contract the workflow core consumes
// and ships OpenAI and Gemini implementations plus a scripted mock.
package provider

import (
	"context"
	"encoding/json"
)

// Client hands out the configured providers in priority order. The core
// always uses the first one.
type Client interface {
	Providers() []Provider
}

// Provider generates text, optionally with tool calling.
type Provider interface {
	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string

	// SupportsTools reports whether GenerateWithTools can return tool calls
	SupportsTools() bool

	// GenerateText produces a plain completion
	GenerateText(ctx context.Context, req Request) (*Response, error)

	// GenerateWithTools produces a completion that may request tool calls
	GenerateWithTools(ctx context.Context, req Request) (*Response, error)
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // The message content
}

// Tool is a function the model may call
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"` // JSON Schema
}

// Request is a generation request
type Request struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`
	Tools        []Tool    `json:"tools,omitempty"`
	Model        string    `json:"model,omitempty"`
	Temperature  float64   `json:"temperature,omitempty"`
	MaxTokens    int       `json:"max_tokens,omitempty"`
}

// Response is a generation response
type Response struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage"`
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// First returns the first provider of c, or nil when c is nil or empty.
func First(c Client) Provider {
	if c == nil {
		return nil
	}
	ps := c.Providers()
	if len(ps) == 0 {
		return nil
	}
	return ps[0]
}

// UserPrompt builds a single-message request.
func UserPrompt(prompt string) Request {
	return Request{Messages: []Message{{Role: "user", Content: prompt}}}
}
