// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// TextLayerExtractor reads the embedded text layer of a PDF with a pure-Go
// parser. Scanned, image-only pages yield no text.
type TextLayerExtractor struct{}

// Name implements PDFExtractor.
func (TextLayerExtractor) Name() string { return "PDF text layer" }

// Open implements PDFExtractor.
func (TextLayerExtractor) Open(path string) (PDFDocument, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	return &textLayerDoc{f: f, r: r, fonts: make(map[string]*pdf.Font)}, nil
}

type textLayerDoc struct {
	f     *os.File
	r     *pdf.Reader
	fonts map[string]*pdf.Font
}

func (d *textLayerDoc) NumPage() int { return d.r.NumPage() }

func (d *textLayerDoc) PageText(i int) (string, bool) {
	p := d.r.Page(i + 1)
	if p.V.IsNull() {
		return "", false
	}

	// Fonts are shared across pages; cache them once per document.
	for _, name := range p.Fonts() {
		if _, ok := d.fonts[name]; !ok {
			font := p.Font(name)
			d.fonts[name] = &font
		}
	}

	text, err := p.GetPlainText(d.fonts)
	if err != nil {
		return "", false
	}
	return text, true
}

func (d *textLayerDoc) Close() error { return d.f.Close() }

// MuPDFExtractor extracts page text through MuPDF. It copes with more
// damaged files than the pure-Go parser but needs the MuPDF libraries.
type MuPDFExtractor struct{}

// Name implements PDFExtractor.
func (MuPDFExtractor) Name() string { return "MuPDF" }

// Open implements PDFExtractor.
func (MuPDFExtractor) Open(path string) (PDFDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s with mupdf: %w", path, err)
	}
	return &mupdfDoc{doc: doc}, nil
}

type mupdfDoc struct {
	doc *fitz.Document
}

func (d *mupdfDoc) NumPage() int { return d.doc.NumPage() }

func (d *mupdfDoc) PageText(i int) (string, bool) {
	text, err := d.doc.Text(i)
	if err != nil {
		return "", false
	}
	return text, true
}

func (d *mupdfDoc) Close() error { return d.doc.Close() }
