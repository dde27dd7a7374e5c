package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flightsw/fswparse/internal/store"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Print the dictionary saved by a run",
	Long: `Print the dictionary saved by an extraction run.

A warning is printed on stderr when a source file of the run has changed
since it was saved; use --rerun to extract again with the run's inputs.`,
	Example: `  fswparse show 3
  fswparse show 3 -o dictionary.json
  fswparse show 3 --rerun --save`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var (
	showOutputPath string
	showRerun      bool
	showSave       bool
)

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showOutputPath, "output", "o", "", "Write the dictionary to this file instead of stdout")
	showCmd.Flags().BoolVar(&showRerun, "rerun", false, "Extract again from the run's source files")
	showCmd.Flags().BoolVar(&showSave, "save", false, "With --rerun, record the new extraction as a run")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	st, err := e.openStore(false)
	if err != nil {
		return err
	}
	run, result, err := st.LoadRun(id)
	st.Close()
	if err != nil {
		return err
	}

	if !showRerun {
		if changed := store.ChangedSources(run); len(changed) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: sources changed since run %d: %s\n",
				id, strings.Join(changed, ", "))
		}
		return e.emit(cmd, result, showOutputPath)
	}

	req := run.Input().Request()

	index, err := e.index(nil, nil)
	if err != nil {
		return err
	}
	fresh, err := newBuilder(index).Build(cmd.Context(), req)
	if err != nil {
		return err
	}
	if showSave {
		if err := saveRun(cmd, e, req, fresh); err != nil {
			return err
		}
	}
	return e.emit(cmd, fresh, showOutputPath)
}
