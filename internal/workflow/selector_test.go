package workflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
)

func conversationWithTurns(n int) *agent.Conversation {
	conv := agent.NewConversation("s", "u")
	for i := 0; i < n; i++ {
		conv.Append(agent.RoleUser, fmt.Sprintf("turn %d", i))
	}
	return conv
}

func entities(names ...string) []agent.Entity {
	out := make([]agent.Entity, len(names))
	for i, n := range names {
		out[i] = agent.Entity{Name: n, Value: n}
	}
	return out
}

func TestSelectPattern(t *testing.T) {
	tests := []struct {
		name   string
		intent agent.Intent
		turns  int
		want   PatternType
	}{
		{"low confidence wins over everything", agent.Intent{Name: "analyze and compare", Confidence: 0.5}, 20, PatternRouting},
		{"long conversation", agent.Intent{Name: "sales_analysis", Confidence: 0.9}, 11, PatternOrchestratorWorkers},
		{"ten turns is not long", agent.Intent{Name: "sales_analysis", Confidence: 0.9}, 10, PatternRouting},
		{"many entities", agent.Intent{Name: "x", Confidence: 0.9, Entities: entities("a", "b", "c", "d")}, 0, PatternOrchestratorWorkers},
		{"three entities is not many", agent.Intent{Name: "x", Confidence: 0.9, Entities: entities("a", "b", "c")}, 0, PatternRouting},
		{"analyze and compare", agent.Intent{Name: "analyze and compare", Confidence: 0.9}, 0, PatternOrchestratorWorkers},
		{"precedence over fan-out", agent.Intent{Name: "analyze and compare", Confidence: 0.9}, 11, PatternOrchestratorWorkers},
		{"product list", agent.Intent{Name: "x", Confidence: 0.9, Entities: entities("product_list")}, 0, PatternParallelFanout},
		{"name with and", agent.Intent{Name: "inventory_and_pricing", Confidence: 0.9}, 0, PatternParallelFanout},
		{"name with also", agent.Intent{Name: "also_check", Confidence: 0.9}, 0, PatternParallelFanout},
		{"improve", agent.Intent{Name: "improve_listing", Confidence: 0.9}, 0, PatternEvaluatorOptimizer},
		{"optimize", agent.Intent{Name: "optimize_price", Confidence: 0.9}, 0, PatternEvaluatorOptimizer},
		{"better", agent.Intent{Name: "better_title", Confidence: 0.9}, 0, PatternEvaluatorOptimizer},
		{"step", agent.Intent{Name: "step_by_step", Confidence: 0.9}, 0, PatternSequentialChaining},
		{"guide", agent.Intent{Name: "setup_guide", Confidence: 0.9}, 0, PatternSequentialChaining},
		{"process", agent.Intent{Name: "returns_process", Confidence: 0.9}, 0, PatternSequentialChaining},
		{"default", agent.Intent{Name: "seo_analysis", Confidence: 0.8}, 0, PatternRouting},
		{"case sensitive", agent.Intent{Name: "IMPROVE", Confidence: 0.9}, 0, PatternRouting},
		{"threshold is inclusive", agent.Intent{Name: "improve", Confidence: 0.6}, 0, PatternEvaluatorOptimizer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectPattern(tt.intent, conversationWithTurns(tt.turns)))
		})
	}
}

func TestSelectPatternNilConversation(t *testing.T) {
	assert.Equal(t, PatternRouting, SelectPattern(agent.Intent{Name: "hello", Confidence: 0.9}, nil))
}
