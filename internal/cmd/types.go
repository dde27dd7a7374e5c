package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flightsw/fswparse/internal/graph"
)

// typesCmd represents the types command
var typesCmd = &cobra.Command{
	Use:   "types FILE...",
	Short: "Print the structs, unions and typedefs declared by C sources",
	Long: `Print the Declared-Types Table of one or more C source files.

Every named struct, union and typedef is listed with its structural
description, before any expansion. When several files declare the same name,
the file given last wins, which is the rule parse applies to the command and
telemetry files.

With --graph the table is rendered as a Mermaid flowchart of the references
between declared types instead: solid arrows for by-value members, dotted
arrows for pointers and thick arrows from a typedef to what it aliases.
--focus limits the diagram to one type and everything it reaches.`,
	Example: `  fswparse types src/cmd.c src/tlm.c
  fswparse types tlm.c --format yaml -o types.yaml
  fswparse types tlm.c --graph --focus Housekeeping_t -o tlm.mmd`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTypes,
}

var (
	typesOutputPath string
	typesIncludes   []string
	typesDefines    []string
	typesGraph      bool
	typesFocus      string
	typesDirection  string
)

func init() {
	rootCmd.AddCommand(typesCmd)

	typesCmd.Flags().StringVarP(&typesOutputPath, "output", "o", "", "Write the table to this file instead of stdout")
	typesCmd.Flags().BoolVar(&typesGraph, "graph", false, "Render type references as a Mermaid flowchart")
	typesCmd.Flags().StringVar(&typesFocus, "focus", "", "With --graph, show only this type and the types it reaches")
	typesCmd.Flags().StringVar(&typesDirection, "direction", "LR", "With --graph, layout direction (LR or TD)")
	addPreprocessorFlags(typesCmd, &typesIncludes, &typesDefines)
}

func runTypes(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	index, err := e.index(typesIncludes, typesDefines)
	if err != nil {
		return err
	}

	table, err := newBuilder(index).Types(cmd.Context(), args...)
	if err != nil {
		return err
	}

	if !typesGraph {
		if typesFocus != "" {
			return fmt.Errorf("--focus requires --graph")
		}
		return e.emit(cmd, table, typesOutputPath)
	}

	g := graph.FromTable(table)
	if typesFocus != "" {
		reachable := g.Reachable(typesFocus)
		if reachable == nil {
			return fmt.Errorf("type %q is not declared in %v", typesFocus, args)
		}
		g = g.Subgraph(reachable)
	}

	diagram := graph.GenerateMermaid(g, &graph.MermaidOptions{Direction: typesDirection})
	if typesOutputPath == "" {
		fmt.Fprint(cmd.OutOrStdout(), diagram)
		return nil
	}

	if dir := filepath.Dir(typesOutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(typesOutputPath, []byte(diagram), 0644); err != nil {
		return fmt.Errorf("writing diagram: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", typesOutputPath)
	return nil
}
