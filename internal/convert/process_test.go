// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc-reader/internal/tempres"
	"github.com/pdiddy/doc-reader/pkg/types"
)

const tempDir = "/tmp"

func newMemFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(tempDir, 0o755))
	return fs
}

// tempFiles lists the files left in the temp directory.
func tempFiles(t *testing.T, fs afero.Fs) []string {
	t.Helper()
	entries, err := afero.ReadDir(fs, tempDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// pathRecorder wraps a documentConverter and records each path it sees,
// along with whether the file existed during conversion.
type pathRecorder struct {
	fs    afero.Fs
	inner documentConverter

	mu      sync.Mutex
	paths   []string
	existed []bool
}

func (p *pathRecorder) Convert(ctx context.Context, path, name string) types.ConversionOutcome {
	exists, _ := afero.Exists(p.fs, path)
	p.mu.Lock()
	p.paths = append(p.paths, path)
	p.existed = append(p.existed, exists)
	p.mu.Unlock()
	return p.inner.Convert(ctx, path, name)
}

// panickingConverter fails outside the engine call sites.
type panickingConverter struct{}

func (panickingConverter) Convert(context.Context, string, string) types.ConversionOutcome {
	panic("nil map write")
}

func TestProcessDocumentScenarios(t *testing.T) {
	tests := []struct {
		name        string
		doc         types.UploadedDocument
		primary     *fakeConverter
		fallback    *fakeExtractor
		wantOK      bool
		wantEngine  types.Engine
		wantDiags   int
		wantDelta   float64
		wantDiagSub string
	}{
		{
			name:       "pdf recovered by fallback",
			doc:        types.UploadedDocument{Name: "report.pdf", SizeBytes: 5000, Content: []byte("%PDF-1.7")},
			primary:    &fakeConverter{err: errors.New("unsupported encoding")},
			fallback:   &fakeExtractor{pages: []fakePage{{text: "Page 1 text"}, {text: "Page 2 text"}}},
			wantOK:     true,
			wantEngine: types.EngineFallback,
			wantDiags:  1,
			wantDelta:  99.52,
		},
		{
			name:       "empty primary output accepted",
			doc:        types.UploadedDocument{Name: "sheet.xlsx", SizeBytes: 2000, Content: []byte("PK")},
			primary:    &fakeConverter{output: ""},
			fallback:   &fakeExtractor{},
			wantOK:     true,
			wantEngine: types.EnginePrimary,
			wantDelta:  100,
		},
		{
			name:      "broken pdf",
			doc:       types.UploadedDocument{Name: "broken.pdf", SizeBytes: 10, Content: []byte("garbage")},
			primary:   &fakeConverter{err: errors.New("parse error")},
			fallback:  &fakeExtractor{openErr: errors.New("malformed")},
			wantDiags: 2,
		},
		{
			name:        "empty pdf",
			doc:         types.UploadedDocument{Name: "empty.pdf", SizeBytes: 10, Content: []byte("%PDF")},
			primary:     &fakeConverter{err: errors.New("no text")},
			fallback:    &fakeExtractor{pages: []fakePage{{text: " "}, {text: "\n"}}},
			wantDiags:   2,
			wantDiagSub: "appears empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newMemFs(t)
			rec := &pathRecorder{fs: fs, inner: newTestOrchestrator(tt.primary, tt.fallback)}
			p := newProcessor(tempres.NewBridge(fs, tempDir, zerolog.Nop()), rec)

			res := p.ProcessDocument(context.Background(), tt.doc)

			assert.Equal(t, tt.wantOK, res.Outcome.Succeeded)
			assert.Len(t, res.Outcome.Diagnostics, tt.wantDiags)
			if tt.wantDiagSub != "" {
				assert.Contains(t, strings.Join(res.Outcome.Diagnostics, "\n"), tt.wantDiagSub)
			}
			if tt.wantOK {
				assert.Equal(t, tt.wantEngine, res.Outcome.EngineUsed)
				require.NotNil(t, res.Report)
				assert.InDelta(t, tt.wantDelta, res.Report.PercentDelta, 0.01)
				assert.Equal(t, types.StateSucceeded, res.State())
			} else {
				assert.Nil(t, res.Report)
				assert.Equal(t, types.StateFailed, res.State())
			}

			require.Len(t, rec.paths, 1)
			assert.True(t, rec.existed[0], "resource should exist while converting")
			assert.True(t, strings.HasSuffix(rec.paths[0], types.Extension(tt.doc.Name)))
			assert.Empty(t, tempFiles(t, fs), "temporary resource must be released")
		})
	}
}

func TestProcessDocumentLowerCasesExtension(t *testing.T) {
	fs := newMemFs(t)
	rec := &pathRecorder{fs: fs, inner: newTestOrchestrator(&fakeConverter{output: "ok"}, nil)}
	p := newProcessor(tempres.NewBridge(fs, tempDir, zerolog.Nop()), rec)

	p.ProcessDocument(context.Background(), types.NewUploadedDocument("Slides.PPTX", []byte("PK")))

	require.Len(t, rec.paths, 1)
	assert.True(t, strings.HasSuffix(rec.paths[0], ".pptx"))
}

func TestProcessDocumentPrimaryPanicReleasesResource(t *testing.T) {
	fs := newMemFs(t)
	orch := newTestOrchestrator(&fakeConverter{panicMsg: "segfault in parser"}, nil)
	p := newProcessor(tempres.NewBridge(fs, tempDir, zerolog.Nop()), orch)

	res := p.ProcessDocument(context.Background(), types.NewUploadedDocument("a.docx", []byte("x")))

	assert.False(t, res.Outcome.Succeeded)
	assert.Empty(t, tempFiles(t, fs))
}

func TestProcessDocumentUnexpectedPanic(t *testing.T) {
	fs := newMemFs(t)
	p := newProcessor(tempres.NewBridge(fs, tempDir, zerolog.Nop()), panickingConverter{})

	res := p.ProcessDocument(context.Background(), types.NewUploadedDocument("a.docx", []byte("x")))

	assert.False(t, res.Outcome.Succeeded)
	assert.Nil(t, res.Report)
	require.Len(t, res.Outcome.Diagnostics, 1)
	assert.Equal(t, "system error: nil map write", res.Outcome.Diagnostics[0])
	assert.Empty(t, tempFiles(t, fs), "resource must be released even on unexpected failure")
}

func TestProcessDocumentAcquireFailure(t *testing.T) {
	fs := afero.NewReadOnlyFs(newMemFs(t))
	orch := newTestOrchestrator(&fakeConverter{output: "never"}, nil)
	p := newProcessor(tempres.NewBridge(fs, tempDir, zerolog.Nop()), orch)

	res := p.ProcessDocument(context.Background(), types.NewUploadedDocument("a.txt", []byte("x")))

	assert.False(t, res.Outcome.Succeeded)
	require.Len(t, res.Outcome.Diagnostics, 1)
	assert.True(t, strings.HasPrefix(res.Outcome.Diagnostics[0], "system error:"))
}

func TestProcessDocumentCancelled(t *testing.T) {
	fs := newMemFs(t)
	primary := &fakeConverter{output: "x"}
	p := newProcessor(tempres.NewBridge(fs, tempDir, zerolog.Nop()), newTestOrchestrator(primary, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := p.ProcessDocument(ctx, types.NewUploadedDocument("a.txt", []byte("x")))

	assert.False(t, res.Outcome.Succeeded)
	assert.Contains(t, res.Outcome.Diagnostics[0], "cancelled")
	assert.Equal(t, 0, primary.calls)
}

// selectiveConverter returns different results per document name.
type selectiveConverter struct {
	mu      sync.Mutex
	outputs map[string]string
	order   []string
}

func (s *selectiveConverter) Convert(ctx context.Context, path, name string) types.ConversionOutcome {
	s.mu.Lock()
	s.order = append(s.order, name)
	s.mu.Unlock()
	out := types.ConversionOutcome{DisplayName: name}
	if text, ok := s.outputs[name]; ok {
		out.Succeeded = true
		out.EngineUsed = types.EnginePrimary
		out.Text = text
		return out
	}
	out.AddDiagnostic("MarkItDown failed: bad input")
	return out
}

func batchDocs() []types.UploadedDocument {
	return []types.UploadedDocument{
		types.NewUploadedDocument("a.docx", []byte("aaaa")),
		types.NewUploadedDocument("b.pdf", []byte("bbbb")),
		types.NewUploadedDocument("c.csv", []byte("cccc")),
	}
}

func TestProcessBatchSequential(t *testing.T) {
	fs := newMemFs(t)
	conv := &selectiveConverter{outputs: map[string]string{"a.docx": "# A", "c.csv": "| c |"}}
	p := newProcessor(tempres.NewBridge(fs, tempDir, zerolog.Nop()), conv)

	results := p.ProcessBatch(context.Background(), batchDocs())

	require.Len(t, results, 3)
	assert.Equal(t, []string{"a.docx", "b.pdf", "c.csv"}, conv.order, "documents run in upload order")
	assert.True(t, results[0].Outcome.Succeeded)
	assert.False(t, results[1].Outcome.Succeeded, "one failure must not stop the batch")
	assert.True(t, results[2].Outcome.Succeeded)
	assert.Empty(t, tempFiles(t, fs))
}

func TestProcessBatchConcurrentKeepsOrder(t *testing.T) {
	fs := newMemFs(t)
	outputs := make(map[string]string)
	var docs []types.UploadedDocument
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("doc%02d.txt", i)
		outputs[name] = "text " + name
		docs = append(docs, types.NewUploadedDocument(name, []byte(name)))
	}
	rec := &pathRecorder{fs: fs, inner: &selectiveConverter{outputs: outputs}}
	p := newProcessor(tempres.NewBridge(fs, tempDir, zerolog.Nop()), rec, WithWorkers(4))

	results := p.ProcessBatch(context.Background(), docs)

	require.Len(t, results, len(docs))
	for i, r := range results {
		assert.Equal(t, docs[i].Name, r.Name)
		assert.Equal(t, "text "+docs[i].Name, r.Outcome.Text)
	}

	seen := make(map[string]bool)
	for _, path := range rec.paths {
		assert.False(t, seen[path], "temporary paths must not be shared")
		seen[path] = true
	}
	assert.Empty(t, tempFiles(t, fs))
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Outcome: types.ConversionOutcome{Succeeded: true, EngineUsed: types.EnginePrimary}},
		{Outcome: types.ConversionOutcome{Succeeded: true, EngineUsed: types.EngineFallback}},
		{Outcome: types.ConversionOutcome{Succeeded: false}},
	}
	b := Summarize(results)

	assert.Equal(t, 2, b.Converted)
	assert.Equal(t, 1, b.Fallback)
	assert.Equal(t, 1, b.Failed)
	assert.Equal(t, 3, b.Total())
	assert.True(t, b.HasFailures())

	var out bytes.Buffer
	PrintSummary(&out, b)
	assert.Contains(t, out.String(), "Batch summary: 2 converted (1 via fallback), 1 failed (total: 3)")
}
