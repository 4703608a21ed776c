package orchestration

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"go.uber.org/zap"
)

const (
	maxSequentialSteps = 4
	maxSubtasks        = 5

	stepsPrompt = "Break the following task into 2 to 4 ordered steps. " +
		"Return one step per line and nothing else.\n\nTask: %s"
	subtasksPrompt = "List the independent subtasks needed to complete the following request. " +
		"Return one subtask per line and nothing else.\n\nRequest: %s"
)

var listMarker = regexp.MustCompile(`(?i)^\s*(?:[-*•]+|\d+[.)]|step\s*\d+\s*[:.)-])\s*`)

// parseLines splits a model reply into list items, stripping bullets and
// numbering. At most max items are returned.
func parseLines(content string, max int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		item := strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		out = append(out, item)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// decompose asks the first provider to split task into list items using
// promptFormat. Generation failure, a missing provider or a reply with at
// most one usable line all yield the single original task; fallback is then true.
func decompose(ctx context.Context, deps Deps, promptFormat, task string, max int) (items []string, fallback bool) {
	p := provider.First(deps.LLM)
	if p == nil {
		return []string{task}, true
	}

	resp, err := p.GenerateText(ctx, provider.UserPrompt(fmt.Sprintf(promptFormat, task)))
	if err != nil {
		deps.logger().Warn("task decomposition failed, using original task", zap.Error(err))
		return []string{task}, true
	}

	items = parseLines(resp.Content, max)
	if len(items) <= 1 {
		return []string{task}, true
	}
	return items, false
}
