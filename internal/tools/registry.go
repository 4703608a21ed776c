// Package tools is the registry of business tools the assistant can call.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	metrics "github.com/sushant23/ai-agent-demo-sub001/pkg/observability"
)

// Func implements a tool.
type Func func(ctx context.Context, params map[string]any) (any, error)

// Tool is a registered tool definition.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object describing params.
	Parameters map[string]any
	Fn         Func
}

// Result is the outcome of one tool execution.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Executor runs tools by name and lists what is available.
type Executor interface {
	ExecuteTool(ctx context.Context, name string, params map[string]any) (*Result, error)
	Definitions() []provider.Tool
}

// Registry is an in-memory Executor.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Fn == nil {
		return fmt.Errorf("tool %s has no function", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
	return nil
}

// Definitions lists registered tools sorted by name
func (r *Registry) Definitions() []provider.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]provider.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		def := provider.Tool{Name: t.Name, Description: t.Description}
		if t.Parameters != nil {
			if raw, err := json.Marshal(t.Parameters); err == nil {
				def.Parameters = raw
			}
		}
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExecuteTool runs a tool. Tool failures, including panics and unknown
// names, are reported in the Result; the error return is reserved for
// registry-level problems and is always nil here.
func (r *Registry) ExecuteTool(ctx context.Context, name string, params map[string]any) (*Result, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		metrics.RecordToolCall(name, "not_found")
		return &Result{Success: false, Error: fmt.Sprintf("tool not found: %s", name)}, nil
	}

	data, err := invoke(ctx, t.Fn, params)
	if err != nil {
		metrics.RecordToolCall(name, "error")
		return &Result{Success: false, Error: err.Error()}, nil
	}

	metrics.RecordToolCall(name, "success")
	return &Result{Success: true, Data: data}, nil
}

func invoke(ctx context.Context, fn Func, params map[string]any) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return fn(ctx, params)
}
