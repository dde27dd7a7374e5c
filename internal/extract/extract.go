// Package extract turns a C translation unit into type descriptors and
// function signatures.
//
// Extraction runs in two passes. The first pass builds descriptors straight
// from the AST without resolving names against anything else (Build), and
// collects every named struct, union and typedef into a Declared-Types Table
// (CollectTypes). The second pass expands descriptors against that table,
// inlining typedefs and record references until only cycles remain
// (Expand). ExtractFunctions combines both for the functions of one file.
package extract

import (
	"log/slog"
)

// Extractor runs the collection and extraction passes.
// An Extractor holds no per-run state and is safe for concurrent use.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
