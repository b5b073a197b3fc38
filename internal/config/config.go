// SPDX-License-Identifier: MPL-2.0

// Package config loads nugo's configuration: built-in defaults, then an
// optional CUE config file, then NUGO_* environment variables, each layer
// overriding the previous one.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"nugo-cli/pkg/cueutil"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "nugo"
	// ConfigFileName is the config file name within the config directory.
	ConfigFileName = "config.cue"

	// DefaultSource is the registry used when none is configured.
	DefaultSource = "https://api.nuget.org/v3/index.json"
)

//go:embed config_schema.cue
var configSchema string

type (
	// Config is nugo's resolved configuration.
	Config struct {
		// Source is the registry service index URL.
		Source string `mapstructure:"source"`
		// Timeout bounds a single operation end to end.
		Timeout time.Duration `mapstructure:"timeout"`
		// Verbose enables debug logging.
		Verbose bool `mapstructure:"verbose"`
		// Retry tunes the transport retry policy.
		Retry RetryConfig `mapstructure:"retry"`
	}

	// RetryConfig mirrors the transport retry policy knobs.
	RetryConfig struct {
		MaxAttempts int           `mapstructure:"max_attempts"`
		MaxElapsed  time.Duration `mapstructure:"max_elapsed"`
		BaseDelay   time.Duration `mapstructure:"base_delay"`
	}
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source:  DefaultSource,
		Timeout: 30 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			MaxElapsed:  30 * time.Second,
			BaseDelay:   500 * time.Millisecond,
		},
	}
}

// Dir returns the nugo configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Load resolves the configuration. configPath, when non-empty, names the
// config file to use exclusively; otherwise the file under Dir() is used
// when present, and its absence is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("source", defaults.Source)
	v.SetDefault("timeout", defaults.Timeout.String())
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("retry.max_attempts", defaults.Retry.MaxAttempts)
	v.SetDefault("retry.max_elapsed", defaults.Retry.MaxElapsed.String())
	v.SetDefault("retry.base_delay", defaults.Retry.BaseDelay.String())

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case configPath != "":
		if err := loadCUEIntoViper(v, configPath); err != nil {
			return nil, err
		}
	default:
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		defaultPath := filepath.Join(dir, ConfigFileName)
		if fileExists(defaultPath) {
			if err := loadCUEIntoViper(v, defaultPath); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	return &cfg, nil
}

// loadCUEIntoViper parses a CUE config file, validates it against the
// #Config schema, and merges it into viper. Decoding goes through a plain
// map because config fields are optional and viper owns layering.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: compiling config schema: %w", schemaValue.Err())
	}
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("merging config: %w", err)
	}
	return nil
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
