package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flightsw/fswparse/internal/ast"
	"github.com/flightsw/fswparse/internal/config"
	"github.com/flightsw/fswparse/internal/dictionary"
	"github.com/flightsw/fswparse/internal/output"
	"github.com/flightsw/fswparse/internal/store"
)

// Shared utility functions for command implementations

// env is the configuration a command runs with.
type env struct {
	cfg *config.Config
	// configDir is the .fswparse directory, empty when none was found
	configDir string
}

// loadEnv loads the config named by --config, or discovers it by walking up
// from the working directory.
func loadEnv() (*env, error) {
	if configPath != "" {
		cfg, err := config.LoadFromPath(configPath)
		if err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		return &env{cfg: cfg, configDir: filepath.Dir(abs)}, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	configDir, err := config.FindConfigDir(cwd)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return &env{cfg: config.DefaultConfig()}, nil
		}
		return nil, err
	}

	cfg, err := config.LoadFromPath(filepath.Join(configDir, config.ConfigFileName))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, configDir: configDir}, nil
}

// projectRoot is the directory holding .fswparse, or the working directory.
func (e *env) projectRoot() string {
	if e.configDir != "" {
		return filepath.Dir(e.configDir)
	}
	cwd, _ := os.Getwd()
	return cwd
}

// index builds the source reader from the parse section plus any -I and -D
// flags given on the command line. Relative configured include directories
// are resolved against the project root.
func (e *env) index(includes, defines []string) (ast.Index, error) {
	p := e.cfg.Parse

	dirs := make([]string, 0, len(p.IncludeDirs)+len(includes))
	for _, dir := range p.IncludeDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(e.projectRoot(), dir)
		}
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, includes...)

	macros := make(map[string]string, len(p.Defines)+len(defines))
	for name, value := range p.Defines {
		macros[name] = value
	}
	for _, d := range defines {
		name, value, err := parseDefine(d)
		if err != nil {
			return nil, err
		}
		macros[name] = value
	}

	return ast.NewSitterIndex(
		ast.WithIncludeDirs(dirs...),
		ast.WithDefines(macros),
		ast.WithSystemIncludes(p.SystemIncludes),
		ast.WithSyntaxErrorsTolerated(p.TolerateSyntaxErrors),
		ast.WithLogger(slog.Default()),
	), nil
}

// newBuilder returns a dictionary builder logging through the default logger.
func newBuilder(index ast.Index) *dictionary.Builder {
	return dictionary.NewBuilder(index, dictionary.WithLogger(slog.Default()))
}

// parseDefine splits a -D argument. NAME alone defines NAME as 1.
func parseDefine(s string) (string, string, error) {
	name, value, found := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("invalid define %q: missing macro name", s)
	}
	if !found {
		value = "1"
	}
	return name, value, nil
}

// format resolves the output format: --format wins over the config.
func (e *env) format() (output.Format, error) {
	if outputFormat != "" {
		return output.ParseFormat(outputFormat)
	}
	return output.ParseFormat(e.cfg.Output.Format)
}

// emit writes v to the -o path when one is given, else to the command's
// stdout. A file path with a .json/.yaml extension picks its own format
// unless --format was given explicitly.
func (e *env) emit(cmd *cobra.Command, v interface{}, path string) error {
	format, err := e.format()
	if err != nil {
		return err
	}

	if path == "" {
		return output.Write(cmd.OutOrStdout(), v, format, e.cfg.Output.Indent)
	}

	if outputFormat == "" {
		format = output.FormatForPath(path, format)
	}
	if err := output.SaveToFile(path, v, format, e.cfg.Output.Indent); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", path)
	return nil
}

// errStoreUnavailable is returned by history commands when no store exists.
var errStoreUnavailable = errors.New("no run history: run 'fswparse init' first")

// openStore opens the run history. With create set, a missing .fswparse
// directory is created in the working directory first.
func (e *env) openStore(create bool) (*store.Store, error) {
	if !e.cfg.Store.Enabled {
		return nil, fmt.Errorf("run history is disabled (store.enabled: false)")
	}

	configDir := e.configDir
	if configDir == "" {
		if !create {
			return nil, errStoreUnavailable
		}
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		if configDir, err = config.EnsureConfigDir(cwd); err != nil {
			return nil, err
		}
		e.configDir = configDir
	}

	path := e.cfg.StorePath(configDir)
	if !create {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, errStoreUnavailable
		}
	}
	return store.OpenFile(path)
}
