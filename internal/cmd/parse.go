package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flightsw/fswparse/internal/dictionary"
	"github.com/flightsw/fswparse/internal/store"
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract the command and telemetry dictionary",
	Long: `Extract command and telemetry function signatures from two C source files.

Both files are parsed first; if either cannot be read or parsed nothing is
written. Types declared in both files are merged, with the telemetry file's
declarations winning on name collisions. Functions are then selected from each
file by keyword: a function is kept when its name contains the keyword and it
is declared in that file (not in a header it includes).

Keywords default to keywords.command and keywords.telemetry from the config
(Cmd and Tlm). Pass an empty keyword to select every function.`,
	Example: `  fswparse parse --cmd src/cmd.c --tlm src/tlm.c
  fswparse parse --cmd cmd.c --tlm tlm.c -o dictionary.json
  fswparse parse --cmd cmd.c --tlm tlm.c --cmd-keyword Command_ --format yaml
  fswparse parse --cmd cmd.c --tlm tlm.c -I include -D SENSOR_COUNT=8 --save`,
	Args: cobra.NoArgs,
	RunE: runParse,
}

var (
	parseCommandFile      string
	parseTelemetryFile    string
	parseCommandKeyword   string
	parseTelemetryKeyword string
	parseOutputPath       string
	parseSave             bool
	parseIncludes         []string
	parseDefines          []string
)

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseCommandFile, "cmd", "", "Command C source file (required)")
	parseCmd.Flags().StringVar(&parseTelemetryFile, "tlm", "", "Telemetry C source file (required)")
	parseCmd.Flags().StringVar(&parseCommandKeyword, "cmd-keyword", "", "Substring command function names must contain (default from config)")
	parseCmd.Flags().StringVar(&parseTelemetryKeyword, "tlm-keyword", "", "Substring telemetry function names must contain (default from config)")
	parseCmd.Flags().StringVarP(&parseOutputPath, "output", "o", "", "Write the dictionary to this file instead of stdout")
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "Record the run in the history database")
	addPreprocessorFlags(parseCmd, &parseIncludes, &parseDefines)
	parseCmd.MarkFlagRequired("cmd")
	parseCmd.MarkFlagRequired("tlm")
}

// addPreprocessorFlags registers -I and -D on commands that read sources.
func addPreprocessorFlags(cmd *cobra.Command, includes, defines *[]string) {
	cmd.Flags().StringSliceVarP(includes, "include", "I", nil, "Additional include directory (repeatable)")
	cmd.Flags().StringArrayVarP(defines, "define", "D", nil, "Predefine a macro as NAME or NAME=VALUE (repeatable)")
}

func runParse(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	req := dictionary.Request{
		CommandFile:      parseCommandFile,
		TelemetryFile:    parseTelemetryFile,
		CommandKeyword:   e.cfg.Keywords.Command,
		TelemetryKeyword: e.cfg.Keywords.Telemetry,
	}
	if cmd.Flags().Changed("cmd-keyword") {
		req.CommandKeyword = parseCommandKeyword
	}
	if cmd.Flags().Changed("tlm-keyword") {
		req.TelemetryKeyword = parseTelemetryKeyword
	}

	index, err := e.index(parseIncludes, parseDefines)
	if err != nil {
		return err
	}

	result, err := newBuilder(index).Build(cmd.Context(), req)
	if err != nil {
		return err
	}

	if parseSave {
		if err := saveRun(cmd, e, req, result); err != nil {
			return err
		}
	}

	return e.emit(cmd, result, parseOutputPath)
}

// saveRun records a run in the history and reports its id on stderr.
func saveRun(cmd *cobra.Command, e *env, req dictionary.Request, result *dictionary.Result) error {
	st, err := e.openStore(true)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.SaveRun(store.InputFromRequest(req), result)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %d\n", id)
	return nil
}
