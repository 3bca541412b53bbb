// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doc-reader/pkg/types"
)

// Download formats.
const (
	FormatMarkdown = "md"
	FormatText     = "txt"
)

// DefaultFormats lists the formats written when none are configured.
var DefaultFormats = []string{FormatMarkdown, FormatText}

// DownloadName returns the output filename for filename in format, e.g.
// "report.pdf" and "md" give "report_converted.md".
func DownloadName(filename, format string) string {
	return downloadStem(filename) + "_converted." + format
}

func downloadStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// frontmatter is the YAML header optionally written before Markdown output.
type frontmatter struct {
	Source         string       `yaml:"source"`
	Engine         types.Engine `yaml:"engine"`
	ConvertedAt    string       `yaml:"converted_at"`
	OriginalBytes  int64        `yaml:"original_bytes"`
	ConvertedBytes int64        `yaml:"converted_bytes"`
}

// WriteOutputs writes the converted text of a successful result into dir,
// one file per format, and returns the written paths. Only the Markdown
// file receives frontmatter, and only when withFrontmatter is set.
func WriteOutputs(dir string, res Result, formats []string, withFrontmatter bool) ([]string, error) {
	return writeOutputs(dir, downloadStem(res.Name), res, formats, withFrontmatter)
}

// OutputWriter writes the results of one batch into a directory. Documents
// whose names share a stem, such as report.pdf and report.docx, get
// numbered stems in upload order so no output overwrites another:
// report_converted.md, then report_2_converted.md.
type OutputWriter struct {
	dir         string
	formats     []string
	frontmatter bool
	used        map[string]bool
}

// NewOutputWriter returns an OutputWriter for dir.
func NewOutputWriter(dir string, formats []string, withFrontmatter bool) *OutputWriter {
	return &OutputWriter{dir: dir, formats: formats, frontmatter: withFrontmatter, used: make(map[string]bool)}
}

// Write writes the outputs of res and returns the written paths.
func (w *OutputWriter) Write(res Result) ([]string, error) {
	if !res.Outcome.Succeeded {
		return nil, fmt.Errorf("no output for failed conversion of %s", res.Name)
	}
	return writeOutputs(w.dir, w.reserve(downloadStem(res.Name)), res, w.formats, w.frontmatter)
}

// reserve returns the first unused stem of stem, stem_2, stem_3, ...
// Stems are compared case-insensitively for case-insensitive filesystems.
func (w *OutputWriter) reserve(stem string) string {
	candidate := stem
	for n := 2; w.used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s_%d", stem, n)
	}
	w.used[strings.ToLower(candidate)] = true
	return candidate
}

func writeOutputs(dir, stem string, res Result, formats []string, withFrontmatter bool) ([]string, error) {
	if !res.Outcome.Succeeded {
		return nil, fmt.Errorf("no output for failed conversion of %s", res.Name)
	}
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	var written []string
	for _, format := range formats {
		var content string
		switch format {
		case FormatMarkdown:
			content = res.Outcome.Text
			if withFrontmatter {
				header, err := addFrontmatter(res)
				if err != nil {
					return written, err
				}
				content = header + content
			}
		case FormatText:
			content = res.Outcome.Text
		default:
			return written, fmt.Errorf("unknown output format %q (want %s or %s)", format, FormatMarkdown, FormatText)
		}

		path := filepath.Join(dir, stem+"_converted."+format)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// addFrontmatter renders the YAML header block for res.
func addFrontmatter(res Result) (string, error) {
	fm := frontmatter{
		Source:      res.Name,
		Engine:      res.Outcome.EngineUsed,
		ConvertedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if res.Report != nil {
		fm.OriginalBytes = res.Report.OriginalBytes
		fm.ConvertedBytes = res.Report.ConvertedBytes
	}
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	return b.String(), nil
}

// Preview returns at most n leading lines of text, noting how many lines
// were cut.
func Preview(text string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[:n], "\n") + fmt.Sprintf("\n... (%d more lines)", len(lines)-n)
}
