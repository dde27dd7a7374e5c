package output

import (
	"fmt"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatJSON is the default JSON output format
	FormatJSON Format = "json"

	// FormatYAML is the YAML output format
	FormatYAML Format = "yaml"
)

// DefaultFormat is the default output format when none is specified.
const DefaultFormat = FormatJSON

// DefaultIndent is the JSON indent width when none is configured.
const DefaultIndent = 4

// ParseFormat parses a format string into a Format value.
// Accepts: "json", "yaml", "yml" (case-insensitive)
// Returns an error for invalid format values.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid format: %q (expected json or yaml)", s)
	}
}

// FormatForPath guesses the format from a file extension, falling back to
// the given default.
func FormatForPath(path string, fallback Format) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	}
	return fallback
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// ValidateFormat checks if a format value is valid.
func ValidateFormat(f Format) bool {
	switch f {
	case FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}
