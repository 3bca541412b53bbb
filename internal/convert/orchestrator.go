// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/doc-reader/pkg/types"
)

// pageSeparator joins the text of consecutive PDF pages.
const pageSeparator = "\n\n"

// Orchestrator runs the primary engine and, for PDFs it fails on, the
// fallback extractor. It never returns an error: every engine failure is
// recorded as a diagnostic on the outcome.
type Orchestrator struct {
	primary  Converter
	fallback PDFExtractor
	log      zerolog.Logger
}

// NewOrchestrator builds an Orchestrator. fallback may be nil, in which
// case PDFs get only the primary attempt.
func NewOrchestrator(primary Converter, fallback PDFExtractor, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{primary: primary, fallback: fallback, log: log}
}

// Convert converts the file at path. originalFilename decides whether the
// fallback applies and labels the outcome.
//
// A primary success is accepted even when its text is empty. A fallback
// result is accepted only when it contains non-whitespace text.
func (o *Orchestrator) Convert(ctx context.Context, path, originalFilename string) types.ConversionOutcome {
	out := types.ConversionOutcome{DisplayName: originalFilename}
	log := o.log.With().Str("document", originalFilename).Logger()

	text, err := runPrimary(ctx, o.primary, path)
	if err == nil {
		out.Succeeded = true
		out.EngineUsed = types.EnginePrimary
		out.Text = text
		log.Debug().Str("engine", o.primary.Name()).Int("bytes", len(text)).Msg("primary conversion succeeded")
		return out
	}
	out.AddDiagnostic(fmt.Sprintf("%s failed: %v", o.primary.Name(), err))
	log.Info().Err(err).Str("engine", o.primary.Name()).Msg("primary conversion failed")

	if len(EnginesFor(originalFilename)) < 2 || o.fallback == nil {
		return out
	}
	if err := ctx.Err(); err != nil {
		out.AddDiagnostic(fmt.Sprintf("cancelled: %v", err))
		log.Info().Err(err).Msg("skipping fallback after cancellation")
		return out
	}

	text, err = extractPages(o.fallback, path)
	if err != nil {
		out.AddDiagnostic(fmt.Sprintf("%s fallback failed: %v", o.fallback.Name(), err))
		log.Info().Err(err).Str("engine", o.fallback.Name()).Msg("fallback extraction failed")
		return out
	}
	if strings.TrimSpace(text) == "" {
		out.AddDiagnostic(fmt.Sprintf("PDF appears empty: %s extracted no text", o.fallback.Name()))
		log.Info().Str("engine", o.fallback.Name()).Msg("fallback extraction found no text")
		return out
	}

	out.Succeeded = true
	out.EngineUsed = types.EngineFallback
	out.Text = text
	out.DisplayName = fmt.Sprintf("%s (processed with %s fallback)", originalFilename, o.fallback.Name())
	log.Debug().Str("engine", o.fallback.Name()).Int("bytes", len(text)).Msg("fallback extraction succeeded")
	return out
}

// extractPages opens the PDF with x and joins the text of every page. A
// page without text, or one whose extraction panics, contributes an empty
// string rather than failing the document.
func extractPages(x PDFExtractor, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	doc, err := x.Open(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	pages := make([]string, doc.NumPage())
	for i := range pages {
		pages[i] = pageText(doc, i)
	}
	return strings.Join(pages, pageSeparator), nil
}

func pageText(doc PDFDocument, i int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	t, ok := doc.PageText(i)
	if !ok {
		return ""
	}
	return t
}
