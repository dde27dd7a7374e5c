package ast

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable is matched by every error reporting a source file that
// could not be read or parsed.
var ErrSourceUnavailable = errors.New("source unavailable")

// SourceUnavailableError is returned when a translation unit cannot be
// produced for a file.
type SourceUnavailableError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrSourceUnavailable.
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}
