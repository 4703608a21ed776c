package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sushant23/ai-agent-demo-sub001/internal/flow"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"github.com/sushant23/ai-agent-demo-sub001/pkg/config"
)

var initForce bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a starter configuration file",
	Long: `init-config writes the default configuration, the built-in patterns and
the default flow catalog to a YAML file (assistant.yaml when no path is
given). API keys are never written; set them through the environment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "assistant.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		starter := config.Default()
		for _, p := range workflow.BuiltinPatterns() {
			starter.Assistant.EnabledPatterns = append(starter.Assistant.EnabledPatterns, string(p))
		}
		starter.Flows = flow.DefaultFlows()

		if err := config.SaveConfig(starter, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
}
