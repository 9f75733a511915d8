package ingest

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// PDFDocument is one opened PDF. Callers must Close it when done.
type PDFDocument interface {
	PageCount() int
	PageText(page int) (string, error)
	RenderPage(page int, dpi float64) ([]byte, error)
	Close() error
}

// PDFReader opens PDF documents from raw bytes.
type PDFReader interface {
	Open(data []byte) (PDFDocument, error)
}

// FitzReader reads PDFs through MuPDF.
type FitzReader struct{}

func NewFitzReader() *FitzReader { return &FitzReader{} }

func (FitzReader) Open(data []byte) (PDFDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int { return d.doc.NumPage() }

func (d *fitzDocument) PageText(page int) (string, error) {
	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("extract pdf page %d: %w", page, err)
	}
	return text, nil
}

// RenderPage rasterizes one page to PNG at the given DPI for OCR.
func (d *fitzDocument) RenderPage(page int, dpi float64) ([]byte, error) {
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("render pdf page %d: %w", page, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode pdf page %d: %w", page, err)
	}
	return buf.Bytes(), nil
}

func (d *fitzDocument) Close() error { return d.doc.Close() }
