// Package dictionary produces the command and telemetry function dictionary
// for a pair of C source files.
//
// Both files are parsed before anything is extracted, so a failure on either
// one fails the whole run. Their Declared-Types Tables are merged into one,
// with telemetry declarations replacing command declarations of the same
// name, and each file's functions are then extracted against the merged
// table with that file's keyword filter.
package dictionary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flightsw/fswparse/internal/ast"
	"github.com/flightsw/fswparse/internal/ctype"
	"github.com/flightsw/fswparse/internal/extract"
)

// Request names the two source files and their keyword filters. An empty
// keyword matches every function.
type Request struct {
	CommandFile      string
	TelemetryFile    string
	CommandKeyword   string
	TelemetryKeyword string
}

// Result is the combined dictionary.
type Result struct {
	Commands  []ctype.Function `json:"commands" yaml:"commands"`
	Telemetry []ctype.Function `json:"telemetry" yaml:"telemetry"`
}

// Builder runs dictionary extraction against an AST index.
type Builder struct {
	index     ast.Index
	extractor *extract.Extractor
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used by the builder and its extractor.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder reading sources through index.
func NewBuilder(index ast.Index, opts ...Option) *Builder {
	b := &Builder{index: index, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.extractor = extract.NewExtractor(extract.WithLogger(b.logger))
	return b
}

// Parse builds the dictionary for req.
func Parse(ctx context.Context, index ast.Index, req Request) (*Result, error) {
	return NewBuilder(index).Build(ctx, req)
}

// Build parses both files, merges their type tables and extracts each
// file's functions. No partial result is returned on error.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	units, err := b.parseAll(ctx, req.CommandFile, req.TelemetryFile)
	if err != nil {
		return nil, err
	}
	cmdUnit, tlmUnit := units[0], units[1]

	table := b.merge(units)

	result := &Result{
		Commands:  b.extractor.ExtractFunctions(cmdUnit, req.CommandFile, req.CommandKeyword, table),
		Telemetry: b.extractor.ExtractFunctions(tlmUnit, req.TelemetryFile, req.TelemetryKeyword, table),
	}

	b.logger.Info("dictionary built",
		"command_file", req.CommandFile,
		"telemetry_file", req.TelemetryFile,
		"types", len(table),
		"commands", len(result.Commands),
		"telemetry", len(result.Telemetry))

	return result, nil
}

// Types returns the merged Declared-Types Table of the given files. Later
// files win on name collisions.
func (b *Builder) Types(ctx context.Context, paths ...string) (ctype.Table, error) {
	units, err := b.parseAll(ctx, paths...)
	if err != nil {
		return nil, err
	}
	return b.merge(units), nil
}

func (b *Builder) parseAll(ctx context.Context, paths ...string) ([]ast.TranslationUnit, error) {
	units := make([]ast.TranslationUnit, 0, len(paths))
	for _, path := range paths {
		tu, err := b.index.Parse(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		units = append(units, tu)
	}
	return units, nil
}

func (b *Builder) merge(units []ast.TranslationUnit) ctype.Table {
	table := make(ctype.Table)
	for _, tu := range units {
		collected := b.extractor.CollectTypes(tu)
		for name := range collected {
			if _, exists := table[name]; exists {
				b.logger.Debug("type redeclared, later file wins", "name", name, "file", tu.Path())
			}
		}
		table.Merge(collected)
	}
	return table
}
