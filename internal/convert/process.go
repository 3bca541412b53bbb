// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/doc-reader/internal/tempres"
	"github.com/pdiddy/doc-reader/pkg/types"
)

// documentConverter converts one materialized document. *Orchestrator is
// the production implementation.
type documentConverter interface {
	Convert(ctx context.Context, path, originalFilename string) types.ConversionOutcome
}

// Result is the processing result for one uploaded document.
type Result struct {
	Name      string
	SizeBytes int64
	Outcome   types.ConversionOutcome

	// Report is set only when Outcome.Succeeded.
	Report *types.SizeReport
}

// State returns the terminal state of the document.
func (r Result) State() types.DocumentState { return r.Outcome.State() }

// Processor materializes uploads, converts them and computes size reports.
type Processor struct {
	bridge    *tempres.Bridge
	converter documentConverter
	workers   int
	log       zerolog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithWorkers sets how many documents are converted at once. Values below
// 2 keep processing sequential.
func WithWorkers(n int) Option {
	return func(p *Processor) { p.workers = n }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Processor) { p.log = log }
}

// NewProcessor returns a Processor using bridge for temporary resources and
// orch for conversion. The same orchestrator serves every document.
func NewProcessor(bridge *tempres.Bridge, orch *Orchestrator, opts ...Option) *Processor {
	return newProcessor(bridge, orch, opts...)
}

func newProcessor(bridge *tempres.Bridge, c documentConverter, opts ...Option) *Processor {
	p := &Processor{bridge: bridge, converter: c, workers: 1, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessDocument converts one document. The temporary resource is released
// before returning on every path. Failures outside the engine calls are
// reported as a system-error outcome rather than returned.
func (p *Processor) ProcessDocument(ctx context.Context, doc types.UploadedDocument) (res Result) {
	res = Result{
		Name:      doc.Name,
		SizeBytes: doc.SizeBytes,
		Outcome:   types.ConversionOutcome{DisplayName: doc.Name},
	}

	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Str("document", doc.Name).Interface("panic", r).Msg("unexpected failure processing document")
			res.Outcome = systemError(doc.Name, fmt.Errorf("%v", r))
			res.Report = nil
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Outcome.AddDiagnostic(fmt.Sprintf("cancelled: %v", err))
		return res
	}

	rsc, err := p.bridge.Acquire(doc.Content, types.Extension(doc.Name))
	if err != nil {
		p.log.Error().Err(err).Str("document", doc.Name).Msg("could not materialize upload")
		res.Outcome = systemError(doc.Name, err)
		return res
	}
	defer rsc.Release()

	res.Outcome = p.converter.Convert(ctx, rsc.Path(), doc.Name)
	if res.Outcome.Succeeded {
		report := Compare(doc.SizeBytes, res.Outcome.Text)
		res.Report = &report
	}
	return res
}

// ProcessBatch converts docs and returns their results in upload order. A
// failing document never stops the others.
func (p *Processor) ProcessBatch(ctx context.Context, docs []types.UploadedDocument) []Result {
	results := make([]Result, len(docs))

	if p.workers < 2 {
		for i, doc := range docs {
			results[i] = p.ProcessDocument(ctx, doc)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, doc := range docs {
		g.Go(func() error {
			results[i] = p.ProcessDocument(ctx, doc)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func systemError(name string, err error) types.ConversionOutcome {
	out := types.ConversionOutcome{DisplayName: name}
	out.AddDiagnostic(fmt.Sprintf("system error: %v", err))
	return out
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Fallback  int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Summarize counts results by outcome. Fallback conversions are counted in
// both Converted and Fallback.
func Summarize(results []Result) BatchResult {
	var b BatchResult
	for _, r := range results {
		switch {
		case !r.Outcome.Succeeded:
			b.Failed++
		case r.Outcome.EngineUsed == types.EngineFallback:
			b.Converted++
			b.Fallback++
		default:
			b.Converted++
		}
	}
	return b
}

// PrintSummary writes the batch summary line to w.
func PrintSummary(w io.Writer, b BatchResult) {
	fmt.Fprintf(w, "\nBatch summary: %d converted (%d via fallback), %d failed (total: %d)\n",
		b.Converted, b.Fallback, b.Failed, b.Total())
}
