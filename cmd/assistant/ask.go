package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
)

var (
	askPattern string
	askSession string
	askUser    string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the assistant one question",
	Long: `Processes one message and prints the answer with suggested next steps.

Example:
  assistant ask "How did SKU-1001 sell last month?"
  assistant ask --pattern evaluator_optimizer "Improve my listing title for BAG-3300"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askPattern, "pattern", "", "Force a pattern instead of letting the selector choose")
	askCmd.Flags().StringVar(&askSession, "session", "", "Session ID (default: new session)")
	askCmd.Flags().StringVar(&askUser, "user", "cli", "User ID")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full response as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if askPattern != "" {
		if _, err := workflow.ParsePattern(askPattern); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	sessionID := askSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	resp, err := ask(ctx, a, sessionID, askUser, strings.Join(args, " "), askPattern)
	if err != nil {
		return err
	}

	if askJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(cmd.OutOrStdout(), resp)
	return nil
}

// ask loads the session and processes one message
func ask(ctx context.Context, a *app, sessionID, userID, text, pattern string) (*agent.AgentResponse, error) {
	conv, err := a.sessions.Load(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	input := agent.UserInput{
		SessionID: sessionID,
		UserID:    userID,
		Text:      text,
	}
	if pattern != "" {
		input.Metadata = map[string]string{workflow.OptionPattern: pattern}
	}

	return a.orchestrator.ProcessUserInput(ctx, input, conv), nil
}

func printResponse(w io.Writer, resp *agent.AgentResponse) {
	fmt.Fprintln(w, resp.Content)
	if len(resp.NextActions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Next steps:")
		for i, action := range resp.NextActions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, action.Label)
		}
	}
	fmt.Fprintf(w, "\n[%s, confidence %.2f, %dms]\n", resp.Pattern, resp.Confidence, resp.ProcessingTime)
}
