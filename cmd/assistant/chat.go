package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Starts an interactive session. Every message goes through the pattern
selector; conversation history is kept for the whole session.

Commands:
  /pattern <name>  force a pattern for the following messages ("/pattern" clears it)
  /status          show process counters
  /reset           start a new session
  /quit            exit`,
	RunE: runChat,
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".assistant_history")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	hist := historyFile()
	if hist != "" {
		if f, err := os.Open(hist); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}

	out := cmd.OutOrStdout()
	sessionID := uuid.NewString()
	pattern := ""

	fmt.Fprintln(out, "Business assistant. Type /quit to exit.")

	for {
		text, err := line.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		line.AppendHistory(text)

		if strings.HasPrefix(text, "/") {
			fields := strings.Fields(text)
			switch fields[0] {
			case "/quit", "/exit":
				return saveHistory(line, hist)
			case "/reset":
				sessionID = uuid.NewString()
				fmt.Fprintln(out, "Started a new session.")
			case "/status":
				s := a.orchestrator.Status()
				fmt.Fprintf(out, "requests %d, active %d, error rate %.2f, avg %.0fms\n",
					s.TotalRequests, s.ActiveWorkflows, s.ErrorRate, s.AverageResponseTime)
			case "/pattern":
				if len(fields) == 1 {
					pattern = ""
					fmt.Fprintln(out, "Pattern selection is automatic.")
					continue
				}
				p, err := workflow.ParsePattern(fields[1])
				if err != nil {
					fmt.Fprintln(out, err)
					continue
				}
				pattern = string(p)
				fmt.Fprintf(out, "Using pattern %s.\n", pattern)
			default:
				fmt.Fprintf(out, "Unknown command %s\n", fields[0])
			}
			continue
		}

		resp, err := ask(ctx, a, sessionID, "cli", text, pattern)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		printResponse(out, resp)
		fmt.Fprintln(out)
	}

	return saveHistory(line, hist)
}

func saveHistory(line *liner.State, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	_, err = line.WriteHistory(f)
	return err
}
