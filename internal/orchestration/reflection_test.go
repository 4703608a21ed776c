package orchestration

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
)

// scriptedEvaluator returns scores in order, repeating the last one.
type scriptedEvaluator struct {
	scores []float64
	calls  int
	mu     sync.Mutex
}

func (s *scriptedEvaluator) Evaluate(resp *agent.AgentResponse) Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := min(s.calls, len(s.scores)-1)
	s.calls++
	return Evaluation{Score: s.scores[i], Deficiencies: []string{DeficiencyTooShort}}
}

func TestEvaluatorOptimizerIterations(t *testing.T) {
	tests := []struct {
		name          string
		scores        []float64
		wantEvals     int
		wantLLMCalls  int
		wantRewritten bool
	}{
		{"stops at third", []float64{0.3, 0.5, 0.9}, 3, 3, true},
		{"stops at first", []float64{0.85, 0.1}, 1, 1, false},
		{"never satisfied", []float64{0.3}, 3, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := echoProvider(map[string]func() (*provider.Response, error){
				"Improve the response": reply("improved answer about sales"),
			})
			eval := &scriptedEvaluator{scores: tt.scores}
			h := NewEvaluatorOptimizerHandler(Deps{LLM: provider.NewRegistry(mock)}, WithEvaluator(eval))

			res, err := h.Execute(context.Background(), testParams("Make my listing better"))
			require.NoError(t, err)

			assert.Equal(t, tt.wantEvals, eval.calls)
			assert.Equal(t, tt.wantLLMCalls, mock.CallCount())
			if tt.wantRewritten {
				assert.Equal(t, "improved answer about sales", res.Response.Content)
			} else {
				assert.Equal(t, "done: Make my listing better", res.Response.Content)
			}
		})
	}
}

func TestEvaluatorOptimizerRaisesConfidence(t *testing.T) {
	mock := echoProvider(map[string]func() (*provider.Response, error){
		"Improve the response": reply("better"),
	})
	h := NewEvaluatorOptimizerHandler(Deps{LLM: provider.NewRegistry(mock)},
		WithEvaluator(&scriptedEvaluator{scores: []float64{0.1, 0.1, 0.9}}))

	res, err := h.Execute(context.Background(), testParams("improve it"))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Response.Confidence, 1e-9)
}

func TestEvaluatorOptimizerRewriteFailureKeepsResponse(t *testing.T) {
	mock := echoProvider(map[string]func() (*provider.Response, error){
		"Improve the response": fail("down"),
	})
	eval := &scriptedEvaluator{scores: []float64{0.2}}
	h := NewEvaluatorOptimizerHandler(Deps{LLM: provider.NewRegistry(mock)}, WithEvaluator(eval))

	res, err := h.Execute(context.Background(), testParams("optimize pricing"))
	require.NoError(t, err)
	assert.Equal(t, "done: optimize pricing", res.Response.Content)
	assert.Equal(t, 1, eval.calls)
	assert.Len(t, res.Metadata.Errors, 1)
}

func TestEvaluatorOptimizerInitialFailure(t *testing.T) {
	h := NewEvaluatorOptimizerHandler(Deps{})
	_, err := h.Execute(context.Background(), testParams("optimize pricing"))
	assert.Error(t, err)
}

func TestRubricEvaluator(t *testing.T) {
	actions := func(n int) []agent.NextStepAction {
		out := make([]agent.NextStepAction, n)
		for i := range out {
			out[i] = agent.NextStepAction{ID: strings.Repeat("a", i+1)}
		}
		return out
	}
	medium := strings.Repeat("x", 100)

	tests := []struct {
		name  string
		resp  *agent.AgentResponse
		score float64
		tags  []string
	}{
		{"nil", nil, 0, []string{DeficiencyTooShort, DeficiencyMissingNextAction}},
		{"short without actions", &agent.AgentResponse{Content: "ok", Confidence: 0.8},
			0.55, []string{DeficiencyTooShort, DeficiencyMissingNextAction}},
		{"good", &agent.AgentResponse{Content: medium, NextActions: actions(2), Confidence: 0.8},
			0.9, nil},
		{"long with one action", &agent.AgentResponse{Content: strings.Repeat("x", 1001), NextActions: actions(1), Confidence: 1},
			0.825, []string{DeficiencyTooLong, DeficiencyFewNextActions}},
		{"too many actions", &agent.AgentResponse{Content: medium, NextActions: actions(5), Confidence: 0.5},
			0.675, []string{DeficiencyTooManyActions, DeficiencyLowConfidence}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RubricEvaluator{}.Evaluate(tt.resp)
			assert.InDelta(t, tt.score, got.Score, 1e-9)
			assert.Equal(t, tt.tags, got.Deficiencies)
		})
	}
}
