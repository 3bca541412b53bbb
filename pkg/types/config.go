// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PrimaryBackend selects how the markitdown engine is run.
type PrimaryBackend string

const (
	BackendContainer PrimaryBackend = "container"
	BackendBinary    PrimaryBackend = "binary"
)

// FallbackBackend selects the PDF text extractor used when the primary
// engine fails on a PDF.
type FallbackBackend string

const (
	FallbackPDF   FallbackBackend = "pdf"
	FallbackMuPDF FallbackBackend = "mupdf"
	FallbackNone  FallbackBackend = "none"
)

// ConversionConfig holds settings for the primary engine.
type ConversionConfig struct {
	// Backend runs markitdown in a container or as a local binary.
	Backend PrimaryBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Image is the container image used by the container backend.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Binary is the executable used by the binary backend.
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`
}

// FallbackConfig holds settings for the PDF fallback engine.
type FallbackConfig struct {
	Backend FallbackBackend `json:"backend" yaml:"backend" mapstructure:"backend"`
}

// OutputConfig controls the files written for successful conversions.
type OutputConfig struct {
	// Dir receives <stem>_converted.<format> files.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Formats lists the download formats to write: md, txt.
	Formats []string `json:"formats" yaml:"formats" mapstructure:"formats"`

	// Frontmatter prepends YAML frontmatter to the Markdown output.
	Frontmatter bool `json:"frontmatter" yaml:"frontmatter" mapstructure:"frontmatter"`
}

// PreviewConfig controls the terminal preview of converted text.
type PreviewConfig struct {
	// Lines is the number of leading lines shown; 0 disables the preview.
	Lines int `json:"lines" yaml:"lines" mapstructure:"lines"`
}

// TempConfig controls where temporary resources are created.
type TempConfig struct {
	// Dir is the parent directory; empty means the OS temp directory.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// HistoryConfig controls the optional conversion history database.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for a doc-reader run.
type Config struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Fallback   FallbackConfig   `json:"fallback" yaml:"fallback" mapstructure:"fallback"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	Preview    PreviewConfig    `json:"preview" yaml:"preview" mapstructure:"preview"`
	Temp       TempConfig       `json:"temp" yaml:"temp" mapstructure:"temp"`
	History    HistoryConfig    `json:"history" yaml:"history" mapstructure:"history"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`

	// Workers is the number of documents converted concurrently. 1 keeps
	// processing strictly sequential.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}
