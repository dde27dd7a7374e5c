package parser

import (
	"errors"
	"fmt"
)

// ErrSyntax matches every *ParseError via errors.Is.
var ErrSyntax = errors.New("syntax error")

// ParseError locates the first syntax problem tree-sitter reported in a
// C source. Line and Column are 1-based.
type ParseError struct {
	Message string
	File    string
	Line    uint32
	Column  uint32
	// Excerpt is the offending source line, trimmed; empty when unknown
	Excerpt string
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.File != "" {
		loc = e.File + ":" + loc
	}
	if e.Excerpt != "" {
		return fmt.Sprintf("%s: %s near %q", loc, e.Message, e.Excerpt)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrSyntax
}

// FileReadError wraps the I/O error for a source that could not be read.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}
