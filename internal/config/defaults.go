package config

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Parse: ParseConfig{
			IncludeDirs: []string{},
			Defines:     map[string]string{},
		},
		Keywords: KeywordConfig{
			Command:   "Cmd",
			Telemetry: "Tlm",
		},
		Output: OutputConfig{
			Format: "json",
			Indent: 4,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "dictionary.db",
		},
		Serve: ServeConfig{
			Timeout: "30m",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	return &Config{
		Parse:    mergeParseConfig(loaded.Parse, defaults.Parse),
		Keywords: mergeKeywordConfig(loaded.Keywords, defaults.Keywords),
		Output:   mergeOutputConfig(loaded.Output, defaults.Output),
		Store:    mergeStoreConfig(loaded.Store, defaults.Store),
		Serve:    mergeServeConfig(loaded.Serve, defaults.Serve),
	}
}

func mergeParseConfig(loaded, defaults ParseConfig) ParseConfig {
	result := ParseConfig{
		// Booleans can't distinguish unset from false; false is the default anyway
		SystemIncludes:       loaded.SystemIncludes,
		TolerateSyntaxErrors: loaded.TolerateSyntaxErrors,
	}

	if len(loaded.IncludeDirs) > 0 {
		result.IncludeDirs = loaded.IncludeDirs
	} else {
		result.IncludeDirs = defaults.IncludeDirs
	}

	result.Defines = make(map[string]string, len(defaults.Defines)+len(loaded.Defines))
	for name, value := range defaults.Defines {
		result.Defines[name] = value
	}
	for name, value := range loaded.Defines {
		result.Defines[name] = value
	}

	return result
}

func mergeKeywordConfig(loaded, defaults KeywordConfig) KeywordConfig {
	result := KeywordConfig{}

	if loaded.Command != "" {
		result.Command = loaded.Command
	} else {
		result.Command = defaults.Command
	}

	if loaded.Telemetry != "" {
		result.Telemetry = loaded.Telemetry
	} else {
		result.Telemetry = defaults.Telemetry
	}

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	result := OutputConfig{}

	if loaded.Format != "" {
		result.Format = loaded.Format
	} else {
		result.Format = defaults.Format
	}

	if loaded.Indent != 0 {
		result.Indent = loaded.Indent
	} else {
		result.Indent = defaults.Indent
	}

	return result
}

func mergeStoreConfig(loaded, defaults StoreConfig) StoreConfig {
	result := StoreConfig{}

	// Enabled: an unset bool reads as false, so only an explicit path in the
	// file signals intent to configure the store
	if loaded.Path != "" {
		result.Path = loaded.Path
		result.Enabled = loaded.Enabled
	} else {
		result.Path = defaults.Path
		result.Enabled = loaded.Enabled || defaults.Enabled
	}

	return result
}

func mergeServeConfig(loaded, defaults ServeConfig) ServeConfig {
	if loaded.Timeout != "" {
		return loaded
	}
	return defaults
}

// ValidFormats lists the valid values for output format
var ValidFormats = []string{"json", "yaml"}

// IsValidFormat checks if the given format value is valid
func IsValidFormat(format string) bool {
	for _, valid := range ValidFormats {
		if format == valid {
			return true
		}
	}
	return false
}
