package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Keywords.Command != "Cmd" {
		t.Errorf("expected Keywords.Command=Cmd, got %s", cfg.Keywords.Command)
	}
	if cfg.Keywords.Telemetry != "Tlm" {
		t.Errorf("expected Keywords.Telemetry=Tlm, got %s", cfg.Keywords.Telemetry)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("expected Output.Format=json, got %s", cfg.Output.Format)
	}
	if cfg.Output.Indent != 4 {
		t.Errorf("expected Output.Indent=4, got %d", cfg.Output.Indent)
	}
	if !cfg.Store.Enabled || cfg.Store.Path != "dictionary.db" {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.ServeTimeout() != 30*time.Minute {
		t.Errorf("expected 30m serve timeout, got %s", cfg.ServeTimeout())
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"json", true},
		{"yaml", true},
		{"", false},
		{"JSON", false},
		{"cgf", false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if got := IsValidFormat(tt.format); got != tt.valid {
				t.Errorf("IsValidFormat(%q) = %v, want %v", tt.format, got, tt.valid)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "yaml format",
			modify:  func(c *Config) { c.Output.Format = "yaml" },
			wantErr: false,
		},
		{
			name:    "invalid format",
			modify:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "indent too small",
			modify:  func(c *Config) { c.Output.Indent = 0 },
			wantErr: true,
		},
		{
			name:    "indent too large",
			modify:  func(c *Config) { c.Output.Indent = 17 },
			wantErr: true,
		},
		{
			name:    "empty include dir",
			modify:  func(c *Config) { c.Parse.IncludeDirs = []string{"inc", ""} },
			wantErr: true,
		},
		{
			name:    "empty define name",
			modify:  func(c *Config) { c.Parse.Defines = map[string]string{"": "1"} },
			wantErr: true,
		},
		{
			name:    "empty store path",
			modify:  func(c *Config) { c.Store.Path = "" },
			wantErr: true,
		},
		{
			name:    "bad timeout",
			modify:  func(c *Config) { c.Serve.Timeout = "soon" },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Serve.Timeout = "-1s" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.Serve.Timeout = "0s" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	loaded := &Config{
		Parse: ParseConfig{
			IncludeDirs: []string{"include"},
			Defines:     map[string]string{"SENSOR_COUNT": "8"},
		},
		Keywords: KeywordConfig{Command: "Command"},
		Output:   OutputConfig{Format: "yaml"},
	}

	merged := Merge(loaded, DefaultConfig())

	if merged.Keywords.Command != "Command" {
		t.Errorf("loaded keyword should win, got %s", merged.Keywords.Command)
	}
	if merged.Keywords.Telemetry != "Tlm" {
		t.Errorf("missing keyword should fall back to default, got %s", merged.Keywords.Telemetry)
	}
	if merged.Output.Format != "yaml" || merged.Output.Indent != 4 {
		t.Errorf("unexpected output section: %+v", merged.Output)
	}
	if len(merged.Parse.IncludeDirs) != 1 || merged.Parse.Defines["SENSOR_COUNT"] != "8" {
		t.Errorf("unexpected parse section: %+v", merged.Parse)
	}
	if merged.Store.Path != "dictionary.db" || !merged.Store.Enabled {
		t.Errorf("store should keep defaults, got %+v", merged.Store)
	}
	if merged.Serve.Timeout != "30m" {
		t.Errorf("serve timeout should keep default, got %s", merged.Serve.Timeout)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	content := `keywords:
  command: Cmd_
output:
  format: yaml
  indent: 2
store:
  enabled: false
  path: /tmp/runs.db
serve:
  timeout: 5m
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Keywords.Command != "Cmd_" || cfg.Keywords.Telemetry != "Tlm" {
		t.Errorf("unexpected keywords: %+v", cfg.Keywords)
	}
	if cfg.Output.Format != "yaml" || cfg.Output.Indent != 2 {
		t.Errorf("unexpected output: %+v", cfg.Output)
	}
	if cfg.Store.Enabled {
		t.Error("explicit store.enabled=false should be honored")
	}
	if got := cfg.StorePath(dir); got != "/tmp/runs.db" {
		t.Errorf("absolute store path should be kept, got %s", got)
	}
	if cfg.ServeTimeout() != 5*time.Minute {
		t.Errorf("expected 5m timeout, got %s", cfg.ServeTimeout())
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte("output:\n  format: xml\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := LoadFromPath(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults, got %v", err)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("expected default format, got %s", cfg.Output.Format)
	}
}

func TestLoad_WalksUp(t *testing.T) {
	root := t.TempDir()
	if _, err := SaveDefault(root, false); err != nil {
		t.Fatalf("SaveDefault failed: %v", err)
	}
	nested := filepath.Join(root, "src", "cmd")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create nested dir: %v", err)
	}

	found, err := FindConfigDir(nested)
	if err != nil {
		t.Fatalf("FindConfigDir failed: %v", err)
	}
	want, _ := filepath.Abs(filepath.Join(root, ConfigDirName))
	if found != want {
		t.Errorf("expected %s, got %s", want, found)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StorePath(found) != filepath.Join(found, "dictionary.db") {
		t.Errorf("relative store path should resolve under config dir, got %s", cfg.StorePath(found))
	}
}

func TestSaveDefault(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveDefault(dir, false)
	if err != nil {
		t.Fatalf("SaveDefault failed: %v", err)
	}

	if _, err := SaveDefault(dir, false); err == nil {
		t.Error("expected error when config already exists")
	}
	if _, err := SaveDefault(dir, true); err != nil {
		t.Errorf("force should overwrite: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("saved default should load: %v", err)
	}
	if cfg.Keywords.Command != "Cmd" {
		t.Errorf("unexpected saved keywords: %+v", cfg.Keywords)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Parse.IncludeDirs = []string{"include", "fsw/inc"}

	path, err := Save(dir, cfg, false)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("saved config should load: %v", err)
	}
	if len(loaded.Parse.IncludeDirs) != 2 || loaded.Parse.IncludeDirs[1] != "fsw/inc" {
		t.Errorf("include dirs lost: %v", loaded.Parse.IncludeDirs)
	}

	cfg.Output.Format = "xml"
	if _, err := Save(t.TempDir(), cfg, false); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
