package ast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flightsw/fswparse/internal/parser"
)

// SitterIndex is an Index backed by the tree-sitter C grammar. The
// preprocessor is approximated: includes are spliced in, object-like macros
// are tracked for conditionals and constant expressions, and conditional
// blocks are evaluated. Function-like macros are never expanded.
//
// A SitterIndex is safe for concurrent use; each Parse call uses its own
// parser.
type SitterIndex struct {
	includeDirs    []string
	defines        map[string]string
	systemIncludes bool
	tolerateErrors bool
	logger         *slog.Logger
}

// Option configures a SitterIndex.
type Option func(*SitterIndex)

// WithIncludeDirs adds directories searched for #include files.
func WithIncludeDirs(dirs ...string) Option {
	return func(x *SitterIndex) {
		x.includeDirs = append(x.includeDirs, dirs...)
	}
}

// WithDefines predefines object-like macros, as -D would.
func WithDefines(defines map[string]string) Option {
	return func(x *SitterIndex) {
		for name, value := range defines {
			x.defines[name] = value
		}
	}
}

// WithSystemIncludes enables resolving <...> includes against the include
// directories. They are skipped otherwise.
func WithSystemIncludes(enabled bool) Option {
	return func(x *SitterIndex) {
		x.systemIncludes = enabled
	}
}

// WithSyntaxErrorsTolerated makes Parse accept a main file with syntax
// errors, using whatever the parser recovered.
func WithSyntaxErrorsTolerated(enabled bool) Option {
	return func(x *SitterIndex) {
		x.tolerateErrors = enabled
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(x *SitterIndex) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// NewSitterIndex creates an index.
func NewSitterIndex(opts ...Option) *SitterIndex {
	x := &SitterIndex{
		defines: make(map[string]string),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Parse implements Index.
func (x *SitterIndex) Parse(ctx context.Context, path string) (TranslationUnit, error) {
	p, err := parser.NewParser()
	if err != nil {
		return nil, &SourceUnavailableError{Path: path, Err: fmt.Errorf("creating parser: %w", err)}
	}
	defer p.Close()

	b := newUnitBuilder(ctx, x, p, path)
	if err := b.processFile(path, true); err != nil {
		return nil, &SourceUnavailableError{Path: path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.logger.Debug("parsed translation unit",
		"path", path,
		"files", len(b.included),
		"declarations", len(b.root.children))

	return &translationUnit{path: path, root: b.root}, nil
}
