package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/flightsw/fswparse/internal/config"
	"github.com/flightsw/fswparse/internal/dictionary"
	"github.com/flightsw/fswparse/internal/output"
	"github.com/flightsw/fswparse/internal/parser"
)

// wizardCmd represents the wizard command
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive form for building a dictionary",
	Long: `Walk through building a dictionary in two pages.

The first page asks for the command and telemetry C source files. The second
asks for the keyword filters, where to save the dictionary and whether to
record the run in the history. The dictionary is then extracted and saved
exactly as 'fswparse parse' would.`,
	Example: `  fswparse wizard
  fswparse wizard --accessible`,
	Args: cobra.NoArgs,
	RunE: runWizard,
}

var wizardAccessible bool

func init() {
	rootCmd.AddCommand(wizardCmd)
	wizardCmd.Flags().BoolVar(&wizardAccessible, "accessible", false, "Plain prompts instead of the full-screen form")
}

// wizardAnswers holds everything the form collects.
type wizardAnswers struct {
	CommandFile      string
	TelemetryFile    string
	CommandKeyword   string
	TelemetryKeyword string
	Format           string
	OutputPath       string
	Save             bool
}

// newWizardAnswers seeds the form with the configured defaults.
func newWizardAnswers(cfg *config.Config) *wizardAnswers {
	return &wizardAnswers{
		CommandKeyword:   cfg.Keywords.Command,
		TelemetryKeyword: cfg.Keywords.Telemetry,
		Format:           cfg.Output.Format,
		OutputPath:       "dictionary." + cfg.Output.Format,
		Save:             cfg.Store.Enabled,
	}
}

func (a *wizardAnswers) request() dictionary.Request {
	return dictionary.Request{
		CommandFile:      strings.TrimSpace(a.CommandFile),
		TelemetryFile:    strings.TrimSpace(a.TelemetryFile),
		CommandKeyword:   a.CommandKeyword,
		TelemetryKeyword: a.TelemetryKeyword,
	}
}

// validateSourceFile accepts an existing regular file.
func validateSourceFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("a file is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if !parser.IsCSource(path) {
		return fmt.Errorf("%s is not a .c or .h file", path)
	}
	return nil
}

func validateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("an output file is required")
	}
	return nil
}

// newWizardForm builds the two-page form writing into a.
func newWizardForm(a *wizardAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Command source file").
				Description("C file declaring the command functions").
				Placeholder("src/cmd.c").
				Value(&a.CommandFile).
				Validate(validateSourceFile),
			huh.NewInput().
				Title("Telemetry source file").
				Description("C file declaring the telemetry functions").
				Placeholder("src/tlm.c").
				Value(&a.TelemetryFile).
				Validate(validateSourceFile),
		).Title("Source files"),
		huh.NewGroup(
			huh.NewInput().
				Title("Command keyword").
				Description("Command function names must contain this (empty selects all)").
				Value(&a.CommandKeyword),
			huh.NewInput().
				Title("Telemetry keyword").
				Description("Telemetry function names must contain this (empty selects all)").
				Value(&a.TelemetryKeyword),
			huh.NewSelect[string]().
				Title("Format").
				Options(huh.NewOptions(config.ValidFormats...)...).
				Value(&a.Format),
			huh.NewInput().
				Title("Save dictionary to").
				Value(&a.OutputPath).
				Validate(validateOutputPath),
			huh.NewConfirm().
				Title("Record this run in the history?").
				Value(&a.Save),
		).Title("Keywords and output"),
	)
}

func runWizard(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	answers := newWizardAnswers(e.cfg)
	form := newWizardForm(answers).WithAccessible(wizardAccessible)
	if err := form.RunWithContext(cmd.Context()); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled")
			return nil
		}
		return err
	}

	return finishWizard(cmd, e, answers)
}

// finishWizard extracts and saves the dictionary described by the answers.
func finishWizard(cmd *cobra.Command, e *env, a *wizardAnswers) error {
	format, err := output.ParseFormat(a.Format)
	if err != nil {
		return err
	}

	index, err := e.index(nil, nil)
	if err != nil {
		return err
	}

	req := a.request()
	result, err := newBuilder(index).Build(cmd.Context(), req)
	if err != nil {
		return err
	}

	if a.Save {
		if err := saveRun(cmd, e, req, result); err != nil {
			return err
		}
	}

	path := strings.TrimSpace(a.OutputPath)
	if err := output.SaveToFile(path, result, format, e.cfg.Output.Indent); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d commands and %d telemetry functions to %s\n",
		len(result.Commands), len(result.Telemetry), path)
	return nil
}
