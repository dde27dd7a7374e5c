// Package cmd implements the init command for fswparse CLI.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flightsw/fswparse/internal/config"
	"github.com/flightsw/fswparse/internal/incdirs"
	"github.com/flightsw/fswparse/internal/store"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .fswparse directory, config and run history",
	Long: `Initialize the .fswparse directory in the current directory.

This writes .fswparse/config.yaml with the default settings and creates the
run history database. Header directories named include/, inc/ or headers/
are detected and written to parse.include_dirs. Edit the config to adjust
include directories, predefined macros, default keywords and the output format.

Examples:
  fswparse init              # Initialize in current directory
  fswparse init --no-detect  # Skip include directory detection
  fswparse init --force      # Rewrite the config with defaults`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initForce    bool
	initNoDetect bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config with defaults")
	initCmd.Flags().BoolVar(&initNoDetect, "no-detect", false, "Do not detect include directories")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	configDir := filepath.Join(cwd, config.ConfigDirName)
	configFile := filepath.Join(configDir, config.ConfigFileName)

	if _, err := os.Stat(configFile); err == nil && !initForce {
		relPath, _ := filepath.Rel(cwd, configDir)
		fmt.Fprintf(cmd.OutOrStdout(), "Already initialized at %s\n", relPath)
		return nil
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	}

	cfg := config.DefaultConfig()
	if !initNoDetect {
		detected := incdirs.Detect(cwd)
		for _, dir := range detected.Directories {
			fmt.Fprintf(cmd.OutOrStdout(), "  include %s (%s)\n", filepath.ToSlash(dir), detected.Reasons[dir])
			cfg.Parse.IncludeDirs = append(cfg.Parse.IncludeDirs, filepath.ToSlash(dir))
		}
	}

	if _, err := config.Save(cwd, cfg, initForce); err != nil {
		return err
	}

	storeDB, err := store.OpenFile(cfg.StorePath(configDir))
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer storeDB.Close()

	relPath, _ := filepath.Rel(cwd, configDir)
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized fswparse at %s\n", relPath)

	return nil
}
