package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formatter renders a value in one output format.
type Formatter interface {
	// Format returns the rendered value.
	Format(v interface{}) (string, error)

	// FormatToWriter writes the rendered value directly to a writer.
	FormatToWriter(w io.Writer, v interface{}) error
}

// YAMLFormatter formats values as YAML output.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format formats a value as YAML.
func (f *YAMLFormatter) Format(v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := f.FormatToWriter(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatToWriter writes YAML output to a writer.
func (f *YAMLFormatter) FormatToWriter(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(v); err != nil {
		encoder.Close()
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return encoder.Close()
}

// JSONFormatter formats values as indented JSON output.
type JSONFormatter struct {
	indent int
}

// NewJSONFormatter creates a JSON formatter indenting by the given number of
// spaces. Non-positive values use DefaultIndent.
func NewJSONFormatter(indent int) *JSONFormatter {
	if indent <= 0 {
		indent = DefaultIndent
	}
	return &JSONFormatter{indent: indent}
}

// Format formats a value as JSON.
func (f *JSONFormatter) Format(v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := f.FormatToWriter(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatToWriter writes JSON output to a writer.
func (f *JSONFormatter) FormatToWriter(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", strings.Repeat(" ", f.indent))
	// leave < > & literal in C spellings
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// GetFormatter returns a formatter for the specified format.
func GetFormatter(format Format, indent int) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(indent), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Write renders v to w.
func Write(w io.Writer, v interface{}, format Format, indent int) error {
	formatter, err := GetFormatter(format, indent)
	if err != nil {
		return err
	}
	return formatter.FormatToWriter(w, v)
}

// SaveToFile renders v and writes it to path, creating parent directories
// as needed. The previous contents of path are replaced only once the new
// document has been written completely.
func SaveToFile(path string, v interface{}, format Format, indent int) error {
	formatter, err := GetFormatter(format, indent)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := formatter.FormatToWriter(tmp, v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
