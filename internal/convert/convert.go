// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns uploaded office documents into Markdown text. A
// primary engine (markitdown) handles every format; when it fails on a PDF
// a text-layer extractor is tried as a fallback. Engine failures never
// escape this package as errors: they are recorded as diagnostics on the
// ConversionOutcome so one bad document cannot abort a batch.
package convert

import (
	"context"
	"fmt"

	"github.com/pdiddy/doc-reader/pkg/types"
)

// Converter is a primary conversion engine. Implementations detect the
// input format from the extension of path.
type Converter interface {
	// Name identifies the engine in diagnostics.
	Name() string

	// Convert reads the file at path and returns its Markdown content.
	Convert(ctx context.Context, path string) (string, error)
}

// PDFExtractor opens PDFs for page-by-page text extraction.
type PDFExtractor interface {
	// Name identifies the engine in diagnostics and display labels.
	Name() string

	// Open parses the PDF at path.
	Open(path string) (PDFDocument, error)
}

// PDFDocument is an opened PDF.
type PDFDocument interface {
	// NumPage returns the number of pages.
	NumPage() int

	// PageText returns the text of the zero-based page i. ok is false when
	// the page has no extractable text layer.
	PageText(i int) (text string, ok bool)

	Close() error
}

// pdfExt is the only extension eligible for the fallback engine.
const pdfExt = ".pdf"

// EnginesFor returns the engines attempted for filename, in order. Every
// file gets the primary engine; PDFs also get the fallback.
func EnginesFor(filename string) []types.Engine {
	if types.Extension(filename) == pdfExt {
		return []types.Engine{types.EnginePrimary, types.EngineFallback}
	}
	return []types.Engine{types.EnginePrimary}
}

// runPrimary calls c and converts a panic into an error.
func runPrimary(ctx context.Context, c Converter, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Convert(ctx, path)
}
