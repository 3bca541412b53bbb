// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
)

// SupportedExtensions is the upload allow-list. The CLI rejects files
// outside it before they reach the conversion core; the core itself
// accepts any extension.
var SupportedExtensions = []string{
	".docx", ".xlsx", ".pptx", ".pdf", ".html", ".txt", ".csv", ".json",
}

// IsSupported reports whether filename carries an allow-listed extension.
// The comparison is case-insensitive.
func IsSupported(filename string) bool {
	ext := Extension(filename)
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Extension returns the lower-cased extension of filename including the
// leading dot, or "" when there is none.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// UploadedDocument is a read-only view of one submitted file for the
// duration of a single processing pass.
type UploadedDocument struct {
	// Name is the original filename including its extension.
	Name string `json:"name" yaml:"name"`

	// SizeBytes is the size of the upload as reported by the submitter.
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`

	// Content is the raw file content.
	Content []byte `json:"-" yaml:"-"`
}

// NewUploadedDocument builds a document whose size is the content length.
func NewUploadedDocument(name string, content []byte) UploadedDocument {
	return UploadedDocument{
		Name:      name,
		SizeBytes: int64(len(content)),
		Content:   content,
	}
}

// Engine identifies which conversion engine produced a result.
type Engine string

const (
	EngineNone     Engine = ""
	EnginePrimary  Engine = "primary"
	EngineFallback Engine = "fallback"
)

// DocumentState tracks one document through processing. Succeeded and
// Failed are terminal.
type DocumentState string

const (
	StatePending    DocumentState = "pending"
	StateConverting DocumentState = "converting"
	StateSucceeded  DocumentState = "succeeded"
	StateFailed     DocumentState = "failed"
)

// Terminal reports whether no further transition is possible from s.
func (s DocumentState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// ConversionOutcome is the result of converting one document.
type ConversionOutcome struct {
	Succeeded bool `json:"succeeded" yaml:"succeeded"`

	// Text is the converted content; empty when the conversion failed.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Diagnostics holds one message per failed attempt, in attempt order.
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`

	EngineUsed Engine `json:"engine_used,omitempty" yaml:"engine_used,omitempty"`

	// DisplayName is the label shown to the user. It differs from the
	// filename only when the fallback engine produced the text.
	DisplayName string `json:"display_name" yaml:"display_name"`
}

// AddDiagnostic appends msg, keeping earlier messages.
func (o *ConversionOutcome) AddDiagnostic(msg string) {
	o.Diagnostics = append(o.Diagnostics, msg)
}

// State maps the outcome onto its terminal DocumentState.
func (o ConversionOutcome) State() DocumentState {
	if o.Succeeded {
		return StateSucceeded
	}
	return StateFailed
}

// SizeReport compares the original upload size with the converted text.
type SizeReport struct {
	OriginalBytes  int64 `json:"original_bytes" yaml:"original_bytes"`
	ConvertedBytes int64 `json:"converted_bytes" yaml:"converted_bytes"`

	// PercentDelta is positive when the text is smaller than the original
	// and negative when it is larger.
	PercentDelta float64 `json:"percent_delta" yaml:"percent_delta"`
}

// Direction returns "smaller" or "larger" for display.
func (r SizeReport) Direction() string {
	if r.PercentDelta < 0 {
		return "larger"
	}
	return "smaller"
}
