package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var nodesFormat string

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List registered node definitions",
	Long: `Print the definitions of every registered node, including display names,
categories and input slots.

Examples:
  automata nodes
  automata nodes --format json`,
	Args: cobra.NoArgs,
	RunE: runNodes,
}

func init() {
	rootCmd.AddCommand(nodesCmd)

	nodesCmd.Flags().StringVar(&nodesFormat, "format", "yaml", "Output format: yaml, json")
}

func runNodes(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	defs := a.registry.Definitions()

	var output []byte
	switch nodesFormat {
	case "yaml":
		output, err = yaml.Marshal(defs)
	case "json":
		output, err = json.MarshalIndent(defs, "", "  ")
		output = append(output, '\n')
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml' or 'json')", nodesFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to encode definitions: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(output))
	return nil
}
