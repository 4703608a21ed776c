// Package workflow holds the pattern execution core: the handler contract,
// the registry and executor, per-pattern metrics, process status counters,
// the pattern selector and the join primitives used by concurrent patterns.
package workflow

import (
	"context"
	"fmt"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
)

// PatternType identifies an execution pattern.
type PatternType string

const (
	PatternSequentialChaining  PatternType = "sequential_chaining"
	PatternRouting             PatternType = "routing"
	PatternParallelFanout      PatternType = "parallel_fanout"
	PatternOrchestratorWorkers PatternType = "orchestrator_workers"
	PatternEvaluatorOptimizer  PatternType = "evaluator_optimizer"
	// PatternAutonomous has no built-in handler; it is reserved for extensions.
	PatternAutonomous PatternType = "autonomous"
)

// BuiltinPatterns returns the patterns that ship with a handler, in a stable order.
func BuiltinPatterns() []PatternType {
	return []PatternType{
		PatternSequentialChaining,
		PatternRouting,
		PatternParallelFanout,
		PatternOrchestratorWorkers,
		PatternEvaluatorOptimizer,
	}
}

// ParsePattern converts a configured name into a PatternType.
func ParsePattern(name string) (PatternType, error) {
	p := PatternType(name)
	switch p {
	case PatternSequentialChaining, PatternRouting, PatternParallelFanout,
		PatternOrchestratorWorkers, PatternEvaluatorOptimizer, PatternAutonomous:
		return p, nil
	}
	return "", fmt.Errorf("unknown pattern: %q", name)
}

// Handler is the pluggable unit implementing one pattern. Built-in patterns
// and extensions implement the same contract and are bound by Pattern().
type Handler interface {
	Pattern() PatternType
	Validate(params *Parameters) bool
	Execute(ctx context.Context, params *Parameters) (*Result, error)
	RequiredCapabilities() []string
}

// Parameters is the input to a handler for one request.
type Parameters struct {
	Input agent.UserInput
	// Context is borrowed for this call only.
	Context *agent.Conversation
	Options map[string]any
}

// Intent returns the classified intent passed in Options, if any.
func (p *Parameters) Intent() (agent.Intent, bool) {
	if p == nil || p.Options == nil {
		return agent.Intent{}, false
	}
	intent, ok := p.Options[OptionIntent].(agent.Intent)
	return intent, ok
}

// Well-known option keys.
const (
	OptionIntent  = "intent"
	OptionPattern = "pattern"
)

// Result is what a handler produces.
type Result struct {
	Response *agent.AgentResponse
	Context  *agent.Conversation
	Metadata ExecutionMetadata
}

// ExecutionMetadata describes how a result was produced.
type ExecutionMetadata struct {
	Steps         []string `json:"steps"`
	ExecutionTime int64    `json:"execution_time_ms"`
	// TokensUsed is not computed and stays zero.
	TokensUsed int      `json:"tokens_used"`
	Errors     []string `json:"errors,omitempty"`
	Pattern    string   `json:"pattern"`
}

// AddStep appends to the ordered step log.
func (m *ExecutionMetadata) AddStep(format string, args ...any) {
	m.Steps = append(m.Steps, fmt.Sprintf(format, args...))
}

// AddError records a non-fatal error.
func (m *ExecutionMetadata) AddError(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err.Error())
	}
}
