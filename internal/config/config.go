// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads doc-reader settings from defaults, an optional YAML
// config file, a .env file and DOC_READER_* environment variables, in
// increasing order of precedence. Command-line flags bound by the CLI take
// precedence over all of them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc-reader/pkg/types"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. DOC_READER_WORKERS.
	EnvPrefix = "DOC_READER"
	// Name is the config file base name searched for without --config.
	Name = "doc-reader"
)

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("conversion.backend", string(types.BackendContainer))
	v.SetDefault("conversion.image", "markitdown:latest")
	v.SetDefault("conversion.binary", "markitdown")
	v.SetDefault("fallback.backend", string(types.FallbackPDF))
	v.SetDefault("output.dir", "converted")
	v.SetDefault("output.formats", []string{"md", "txt"})
	v.SetDefault("output.frontmatter", false)
	v.SetDefault("preview.lines", 20)
	v.SetDefault("temp.dir", "")
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "doc-reader.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("workers", 1)
}

// Configure prepares v to read cfgFile, or to search ./doc-reader.yaml and
// ~/.config/doc-reader/doc-reader.yaml when cfgFile is empty, and enables
// environment overrides. It returns the config file used, if any.
func Configure(v *viper.Viper, cfgFile string) (string, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// LoadDotEnv loads environment variables from path without overriding
// variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load decodes the settings held by v and validates them.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks enumerated settings and numeric ranges.
func Validate(cfg types.Config) error {
	var errs []error

	switch cfg.Conversion.Backend {
	case types.BackendContainer, types.BackendBinary:
	default:
		errs = append(errs, fmt.Errorf("conversion.backend: unknown backend %q (want container or binary)", cfg.Conversion.Backend))
	}

	switch cfg.Fallback.Backend {
	case types.FallbackPDF, types.FallbackMuPDF, types.FallbackNone:
	default:
		errs = append(errs, fmt.Errorf("fallback.backend: unknown backend %q (want pdf, mupdf or none)", cfg.Fallback.Backend))
	}

	for _, f := range cfg.Output.Formats {
		if f != "md" && f != "txt" {
			errs = append(errs, fmt.Errorf("output.formats: unknown format %q (want md or txt)", f))
		}
	}

	if cfg.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers: must be at least 1, got %d", cfg.Workers))
	}
	if cfg.Preview.Lines < 0 {
		errs = append(errs, fmt.Errorf("preview.lines: must not be negative, got %d", cfg.Preview.Lines))
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		errs = append(errs, errors.New("history.path: required when history is enabled"))
	}

	return errors.Join(errs...)
}
