package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the fswparse configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the fswparse configuration directory
const ConfigDirName = ".fswparse"

// Config holds all fswparse configuration
type Config struct {
	Parse    ParseConfig   `yaml:"parse"`
	Keywords KeywordConfig `yaml:"keywords"`
	Output   OutputConfig  `yaml:"output"`
	Store    StoreConfig   `yaml:"store"`
	Serve    ServeConfig   `yaml:"serve"`
}

// ParseConfig controls how C sources are read
type ParseConfig struct {
	IncludeDirs          []string          `yaml:"include_dirs"`
	Defines              map[string]string `yaml:"defines"`
	SystemIncludes       bool              `yaml:"system_includes"`
	TolerateSyntaxErrors bool              `yaml:"tolerate_syntax_errors"`
}

// KeywordConfig holds the default function name filters
type KeywordConfig struct {
	Command   string `yaml:"command"`
	Telemetry string `yaml:"telemetry"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	Format string `yaml:"format"`
	Indent int    `yaml:"indent"`
}

// StoreConfig controls the run history database
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServeConfig holds MCP server settings
type ServeConfig struct {
	Timeout string `yaml:"timeout"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .fswparse/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	return LoadFromPath(filepath.Join(configDir, ConfigFileName))
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .fswparse directory by walking up from startDir.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .fswparse directory if it doesn't exist.
// Returns the path to the .fswparse directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if !IsValidFormat(cfg.Output.Format) {
		return fmt.Errorf("%w: output.format must be one of %v, got %q",
			ErrInvalidConfig, ValidFormats, cfg.Output.Format)
	}

	if cfg.Output.Indent < 1 || cfg.Output.Indent > 16 {
		return fmt.Errorf("%w: output.indent must be between 1 and 16, got %d",
			ErrInvalidConfig, cfg.Output.Indent)
	}

	for _, dir := range cfg.Parse.IncludeDirs {
		if dir == "" {
			return fmt.Errorf("%w: parse.include_dirs must not contain empty entries", ErrInvalidConfig)
		}
	}

	for name := range cfg.Parse.Defines {
		if name == "" {
			return fmt.Errorf("%w: parse.defines must not contain an empty macro name", ErrInvalidConfig)
		}
	}

	if cfg.Store.Path == "" {
		return fmt.Errorf("%w: store.path must not be empty", ErrInvalidConfig)
	}

	timeout, err := time.ParseDuration(cfg.Serve.Timeout)
	if err != nil {
		return fmt.Errorf("%w: serve.timeout: %v", ErrInvalidConfig, err)
	}
	if timeout < 0 {
		return fmt.Errorf("%w: serve.timeout must not be negative, got %s",
			ErrInvalidConfig, cfg.Serve.Timeout)
	}

	return nil
}

// ServeTimeout returns the parsed idle timeout of the MCP server.
// Zero means no timeout.
func (c *Config) ServeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Serve.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// StorePath returns the database path, resolving a relative store.path
// against configDir.
func (c *Config) StorePath(configDir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(configDir, c.Store.Path)
}

// SaveDefault writes the default configuration to .fswparse/config.yaml in
// workDir, creating the directory if needed. An existing file is kept unless
// force is set.
func SaveDefault(workDir string, force bool) (string, error) {
	return Save(workDir, DefaultConfig(), force)
}

// Save validates cfg and writes it to .fswparse/config.yaml in workDir.
func Save(workDir string, cfg *Config, force bool) (string, error) {
	if err := Validate(cfg); err != nil {
		return "", err
	}

	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !force {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# fswparse configuration\n# Keywords filter function names; include_dirs and defines feed the C preprocessor.\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
