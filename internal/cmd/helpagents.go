// Package cmd implements the help-agents command for fswparse CLI.
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// helpAgentsCmd represents the help-agents command
var helpAgentsCmd = &cobra.Command{
	Use:   "help-agents",
	Short: "Output agent-optimized command reference",
	Long: `Output a concise, token-efficient command reference for AI agents.

Examples:
  fswparse help-agents                # Markdown output (default)
  fswparse help-agents --format json  # JSON output for parsing`,
	Args: cobra.NoArgs,
	RunE: runHelpAgents,
}

func init() {
	rootCmd.AddCommand(helpAgentsCmd)
}

func runHelpAgents(cmd *cobra.Command, args []string) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(agentReference)
	}
	fmt.Fprint(cmd.OutOrStdout(), generateAgentReference())
	return nil
}

// agentCommand is one entry of the agent reference.
type agentCommand struct {
	Command string `json:"command"`
	Purpose string `json:"purpose"`
}

var agentReference = []agentCommand{
	{"fswparse parse --cmd <cmd.c> --tlm <tlm.c>", "Dictionary of command and telemetry functions (JSON on stdout)"},
	{"fswparse parse ... --cmd-keyword <K> --tlm-keyword <K>", "Override the name filters; an empty keyword selects every function"},
	{"fswparse parse ... -I <dir> -D NAME=VALUE", "Extra include directories and predefined macros"},
	{"fswparse parse ... -o <file> --save", "Write to a file and record the run"},
	{"fswparse types <file.c>...", "Structs, unions and typedefs before expansion; later files win"},
	{"fswparse types <file.c>... --graph [--focus <Type>]", "Mermaid flowchart of references between declared types"},
	{"fswparse init", "Create .fswparse with config, detected include dirs and run history"},
	{"fswparse runs", "Saved runs, newest first"},
	{"fswparse show <run-id>", "Dictionary of a saved run"},
	{"fswparse serve --mcp", "MCP tools fsw_parse, fsw_types, fsw_runs, fsw_show"},
}

func generateAgentReference() string {
	s := "# fswparse Command Reference for AI Agents\n\n"
	s += "Descriptors carry a \"kind\": primitive, struct, union, array, pointer, enum, typedef, function.\n"
	s += "Recursive types stop at a primitive whose spelling names the record (e.g. \"struct Node\").\n\n"
	for _, c := range agentReference {
		s += fmt.Sprintf("- `%s`\n  %s\n", c.Command, c.Purpose)
	}
	return s
}
