package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
)

var selectCmd = &cobra.Command{
	Use:   "select [message]",
	Short: "Show which pattern a message would run, without running it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(context.Background()) }()

		input := agent.UserInput{UserID: "cli", Text: strings.Join(args, " ")}
		p, intent, err := a.orchestrator.SelectPattern(ctx, input, nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "intent:     %s (%.2f)\n", intent.Name, intent.Confidence)
		for _, e := range intent.Entities {
			fmt.Fprintf(out, "entity:     %s = %s\n", e.Name, e.Value)
		}
		fmt.Fprintf(out, "pattern:    %s\n", p)
		return nil
	},
}
