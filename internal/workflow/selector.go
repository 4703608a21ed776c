package workflow

import (
	"strings"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
)

const (
	lowConfidenceThreshold = 0.6
	longConversationTurns  = 10
	manyEntities           = 3
)

// SelectPattern maps an intent and the conversation to a pattern. Rules are
// checked in order and the first match wins, even when a later rule is more
// specific.
func SelectPattern(intent agent.Intent, conv *agent.Conversation) PatternType {
	name := intent.Name

	switch {
	case intent.Confidence < lowConfidenceThreshold:
		return PatternRouting

	case conv.HistoryLen() > longConversationTurns,
		len(intent.Entities) > manyEntities,
		strings.Contains(name, "analyze") && strings.Contains(name, "compare"):
		return PatternOrchestratorWorkers

	case intent.HasEntity("product_list"),
		containsAny(name, "and", "also"):
		return PatternParallelFanout

	case containsAny(name, "improve", "optimize", "better"):
		return PatternEvaluatorOptimizer

	case containsAny(name, "step", "process", "guide"):
		return PatternSequentialChaining
	}

	return PatternRouting
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
