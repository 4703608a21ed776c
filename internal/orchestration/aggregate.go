package orchestration

import (
	"fmt"
	"strings"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
)

// AggregateResponses merges several responses into one. Nil entries are
// ignored. No responses is a NO_RESPONSES_TO_AGGREGATE error; a single
// response is returned as is. Otherwise contents become a numbered list,
// actions are merged by ID (first seen wins, at most four), confidence is
// the mean and processing time the maximum.
func AggregateResponses(responses []*agent.AgentResponse) (*agent.AgentResponse, error) {
	var live []*agent.AgentResponse
	for _, r := range responses {
		if r != nil {
			live = append(live, r)
		}
	}

	switch len(live) {
	case 0:
		return nil, workflow.NewError(workflow.CodeNoResponsesToAggregate, "no responses to aggregate", false)
	case 1:
		return live[0], nil
	}

	var sb strings.Builder
	lists := make([][]agent.NextStepAction, 0, len(live))
	var confidence float64
	var elapsed int64

	for i, r := range live {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, r.Content)
		lists = append(lists, r.NextActions)
		confidence += r.Confidence
		elapsed = max(elapsed, r.ProcessingTime)
	}

	return &agent.AgentResponse{
		Content:        sb.String(),
		NextActions:    mergeActions(lists...),
		Confidence:     confidence / float64(len(live)),
		ProcessingTime: elapsed,
	}, nil
}
