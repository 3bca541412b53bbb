// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doc-reader/pkg/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fallbackEntry() Entry {
	report := types.SizeReport{OriginalBytes: 5000, ConvertedBytes: 24, PercentDelta: 99.52}
	outcome := types.ConversionOutcome{
		Succeeded:   true,
		Text:        "Page 1 text\n\nPage 2 text",
		Diagnostics: []string{"MarkItDown failed: unsupported encoding"},
		EngineUsed:  types.EngineFallback,
		DisplayName: "report.pdf (processed with PDF text layer fallback)",
	}
	return NewEntry("report.pdf", 5000, outcome, &report)
}

func TestNewEntry(t *testing.T) {
	e := fallbackEntry()
	assert.Equal(t, "report.pdf", e.Name)
	assert.True(t, e.Succeeded)
	assert.Equal(t, types.EngineFallback, e.Engine)
	assert.Equal(t, int64(24), e.ConvertedBytes)

	failed := NewEntry("broken.pdf", 10, types.ConversionOutcome{Diagnostics: []string{"a", "b"}}, nil)
	assert.False(t, failed.Succeeded)
	assert.Zero(t, failed.ConvertedBytes)
	assert.Equal(t, []string{"a", "b"}, failed.Diagnostics)
}

func TestRecordAndList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	stored, err := s.Record(ctx, fallbackEntry())
	require.NoError(t, err)
	_, err = uuid.Parse(stored.ID)
	require.NoError(t, err, "ID should be a UUID")

	failed := NewEntry("broken.pdf", 10, types.ConversionOutcome{
		DisplayName: "broken.pdf",
		Diagnostics: []string{"MarkItDown failed: x", "PDF text layer fallback failed: y"},
	}, nil)
	_, err = s.Record(ctx, failed)
	require.NoError(t, err)

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "broken.pdf", entries[0].Name, "newest first")
	assert.False(t, entries[0].Succeeded)
	assert.Len(t, entries[0].Diagnostics, 2)

	got := entries[1]
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, types.EngineFallback, got.Engine)
	assert.Equal(t, int64(5000), got.OriginalBytes)
	assert.Equal(t, int64(24), got.ConvertedBytes)
	assert.InDelta(t, 99.52, got.PercentDelta, 0.001)
	assert.Equal(t, []string{"MarkItDown failed: unsupported encoding"}, got.Diagnostics)
	assert.True(t, fixed.Equal(got.CreatedAt))
}

func TestListLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, NewEntry("a.txt", 1, types.ConversionOutcome{Succeeded: true}, nil))
		require.NoError(t, err)
	}

	entries, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), fallbackEntry())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportYAML(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var empty bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &empty, 10))
	assert.Equal(t, "[]\n", empty.String())

	_, err := s.Record(ctx, fallbackEntry())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &buf, 10))

	var decoded []Entry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "report.pdf", decoded[0].Name)
	assert.Equal(t, types.EngineFallback, decoded[0].Engine)
	assert.NotContains(t, buf.String(), "Page 1 text", "converted text is never stored")
}
