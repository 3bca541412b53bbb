// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/doc-reader/internal/container"
	"github.com/pdiddy/doc-reader/pkg/types"
)

// DefaultImage is the markitdown container image used when none is configured.
const DefaultImage = "markitdown:latest"

// markitdownName labels the engine in diagnostics.
const markitdownName = "MarkItDown"

// MarkitdownConverter converts documents by piping them through the
// markitdown container image. Because the file arrives on stdin, the
// extension is passed as a hint so markitdown still picks the right
// format converter.
type MarkitdownConverter struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdownConverter creates a converter that uses the given container
// runtime to run image. It verifies that the image exists locally before
// returning.
func NewMarkitdownConverter(rt container.Runtime, image string) (*MarkitdownConverter, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt, image: image}, nil
}

// Name implements Converter.
func (m *MarkitdownConverter) Name() string { return markitdownName }

// Convert reads the file at path, pipes it through the markitdown container,
// and returns the resulting Markdown text. Empty output is returned as-is.
func (m *MarkitdownConverter) Convert(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var args []string
	if ext := strings.TrimPrefix(types.Extension(path), "."); ext != "" {
		args = []string{"--extension", ext}
	}

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, m.image, args, f, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

// hostTool is the subset of container.Tool used by MarkitdownBinary.
type hostTool interface {
	Name() string
	Available() error
	Run(ctx context.Context, args []string, stdout io.Writer) error
}

// MarkitdownBinary converts documents with a markitdown executable
// installed on the host. The file path is passed directly so markitdown
// sniffs the format from its extension.
type MarkitdownBinary struct {
	tool hostTool
}

// NewMarkitdownBinary returns a converter for the named binary after
// checking that it is on PATH.
func NewMarkitdownBinary(bin string) (*MarkitdownBinary, error) {
	return newMarkitdownBinary(container.NewTool(bin))
}

func newMarkitdownBinary(t hostTool) (*MarkitdownBinary, error) {
	if err := t.Available(); err != nil {
		return nil, fmt.Errorf("markitdown binary not available: %w", err)
	}
	return &MarkitdownBinary{tool: t}, nil
}

// Name implements Converter.
func (m *MarkitdownBinary) Name() string { return markitdownName }

// Convert runs the binary on path and returns its stdout.
func (m *MarkitdownBinary) Convert(ctx context.Context, path string) (string, error) {
	var out bytes.Buffer
	if err := m.tool.Run(ctx, []string{path}, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}
