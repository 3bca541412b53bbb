// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc-reader/internal/container"
	"github.com/pdiddy/doc-reader/internal/convert"
	"github.com/pdiddy/doc-reader/internal/history"
	"github.com/pdiddy/doc-reader/internal/tempres"
	"github.com/pdiddy/doc-reader/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert documents to Markdown and text",
	Long: `Convert reads each file, converts it with markitdown and writes
<name>_converted.md and <name>_converted.txt to the output directory.

Files are processed in the order given. A file that cannot be converted is
reported and skipped; the rest of the batch continues. PDFs that markitdown
cannot read are retried with a PDF text extractor.

Accepted extensions: ` + strings.Join(types.SupportedExtensions, ", "),
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("out-dir", "o", "converted", "directory for converted files")
	convertCmd.Flags().StringSlice("format", []string{"md", "txt"}, "output formats to write: md, txt")
	convertCmd.Flags().Bool("frontmatter", false, "prepend YAML frontmatter to Markdown output")
	convertCmd.Flags().Int("preview-lines", 20, "lines of converted text to preview (0 disables)")
	convertCmd.Flags().Int("workers", 1, "documents converted concurrently")
	convertCmd.Flags().String("backend", "container", "markitdown backend: container or binary")
	convertCmd.Flags().String("fallback", "pdf", "PDF fallback extractor: pdf, mupdf or none")
	convertCmd.Flags().Bool("details", false, "show diagnostics for failed documents")
	convertCmd.Flags().Bool("no-write", false, "preview only; do not write output files")

	_ = viper.BindPFlag("output.dir", convertCmd.Flags().Lookup("out-dir"))
	_ = viper.BindPFlag("output.formats", convertCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("output.frontmatter", convertCmd.Flags().Lookup("frontmatter"))
	_ = viper.BindPFlag("preview.lines", convertCmd.Flags().Lookup("preview-lines"))
	_ = viper.BindPFlag("workers", convertCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("conversion.backend", convertCmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag("fallback.backend", convertCmd.Flags().Lookup("fallback"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	details, _ := cmd.Flags().GetBool("details")
	noWrite, _ := cmd.Flags().GetBool("no-write")

	docs, rejected := loadDocuments(args, out)
	if len(docs) == 0 {
		return fmt.Errorf("no convertible files given (%d rejected)", rejected)
	}

	proc, err := buildProcessor(cfg, logger)
	if err != nil {
		return err
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx := cmd.Context()
	results := proc.ProcessBatch(ctx, docs)

	var outputs *convert.OutputWriter
	if !noWrite {
		outputs = convert.NewOutputWriter(cfg.Output.Dir, cfg.Output.Formats, cfg.Output.Frontmatter)
	}
	opts := renderOptions{
		previewLines: cfg.Preview.Lines,
		details:      details,
	}
	writeFailures := 0
	for _, res := range results {
		if err := emitResult(out, res, outputs, opts); err != nil {
			logger.Error().Err(err).Str("document", res.Name).Msg("could not write outputs")
			writeFailures++
		}

		if store != nil {
			entry := history.NewEntry(res.Name, res.SizeBytes, res.Outcome, res.Report)
			if _, err := store.Record(ctx, entry); err != nil {
				logger.Warn().Err(err).Str("document", res.Name).Msg("could not record history")
			}
		}
	}

	summary := convert.Summarize(results)
	convert.PrintSummary(out, summary)

	failed := summary.Failed + rejected
	switch {
	case failed > 0 && writeFailures > 0:
		return fmt.Errorf("%d file(s) could not be converted, %d could not be written", failed, writeFailures)
	case failed > 0:
		return fmt.Errorf("%d file(s) could not be converted", failed)
	case writeFailures > 0:
		return fmt.Errorf("%d converted file(s) could not be written", writeFailures)
	}
	return nil
}

// emitResult writes the outputs of a successful result through outputs,
// when set, and renders the result to w. It returns the write error, if
// any, after rendering it.
func emitResult(w io.Writer, res convert.Result, outputs *convert.OutputWriter, opts renderOptions) error {
	var err error
	if res.Outcome.Succeeded && outputs != nil {
		opts.written, err = outputs.Write(res)
		opts.writeErr = err
	}
	renderResult(w, res, opts)
	return err
}

// loadDocuments reads each allow-listed path into an UploadedDocument,
// reporting rejected and unreadable files to w. It returns the documents
// in argument order and the number of files skipped.
func loadDocuments(paths []string, w io.Writer) ([]types.UploadedDocument, int) {
	var docs []types.UploadedDocument
	rejected := 0
	for _, p := range paths {
		name := filepath.Base(p)
		if !types.IsSupported(name) {
			fmt.Fprintf(w, "rejected: %s (unsupported file type)\n", name)
			rejected++
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
			rejected++
			continue
		}
		docs = append(docs, types.NewUploadedDocument(name, data))
	}
	return docs, rejected
}

// buildProcessor wires the configured engines into a Processor. The engines
// are built once and shared by every document in the batch.
func buildProcessor(c types.Config, log zerolog.Logger) (*convert.Processor, error) {
	var primary convert.Converter
	switch c.Conversion.Backend {
	case types.BackendBinary:
		m, err := convert.NewMarkitdownBinary(c.Conversion.Binary)
		if err != nil {
			return nil, err
		}
		primary = m
	default:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		m, err := convert.NewMarkitdownConverter(rt, c.Conversion.Image)
		if err != nil {
			return nil, err
		}
		primary = m
	}

	var fallback convert.PDFExtractor
	switch c.Fallback.Backend {
	case types.FallbackPDF:
		fallback = convert.TextLayerExtractor{}
	case types.FallbackMuPDF:
		fallback = convert.MuPDFExtractor{}
	}

	orch := convert.NewOrchestrator(primary, fallback, log)
	bridge := tempres.NewOSBridge(c.Temp.Dir, log)
	return convert.NewProcessor(bridge, orch,
		convert.WithWorkers(c.Workers),
		convert.WithLogger(log),
	), nil
}

// renderOptions controls how one result is printed.
type renderOptions struct {
	previewLines int
	details      bool
	written      []string
	writeErr     error
}

// renderResult prints one document's result. Diagnostics are shown only
// for failed documents; a success supersedes earlier failed attempts.
func renderResult(w io.Writer, res convert.Result, opts renderOptions) {
	if !res.Outcome.Succeeded {
		fmt.Fprintf(w, "failed:  %s (could not read %s, please check the format)\n", res.Name, res.Name)
		if opts.details {
			for _, d := range res.Outcome.Diagnostics {
				fmt.Fprintf(w, "  - %s\n", d)
			}
		}
		return
	}

	fmt.Fprintf(w, "converted: %s\n", res.Outcome.DisplayName)
	if res.Report != nil {
		fmt.Fprintf(w, "  size: %s\n", convert.FormatReport(*res.Report))
	}
	if preview := convert.Preview(res.Outcome.Text, opts.previewLines); preview != "" {
		fmt.Fprintln(w, "  preview:")
		for _, line := range strings.Split(preview, "\n") {
			fmt.Fprintf(w, "    | %s\n", line)
		}
	}
	for _, p := range opts.written {
		fmt.Fprintf(w, "  wrote: %s\n", p)
	}
	if opts.writeErr != nil {
		fmt.Fprintf(w, "  write failed: %v\n", opts.writeErr)
	}
}
