// Package ingest turns uploaded files into plain-text documents. Text
// formats decode directly, images go through OCR, and PDFs extract text
// per page with an OCR fallback for pages that carry no text layer
// (scanned pages).
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jcs-corp/jcs-assistant/internal/config"
	"github.com/jcs-corp/jcs-assistant/internal/telemetry"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

// Ingester extracts text from uploaded files. A failed file is skipped,
// not fatal: the remaining files still produce documents.
type Ingester struct {
	cfg     func() config.IngestConfig
	pdf     PDFReader
	ocr     OCREngine
	metrics *telemetry.Metrics
}

func New(cfg func() config.IngestConfig, pdf PDFReader, ocr OCREngine, metrics *telemetry.Metrics) *Ingester {
	return &Ingester{cfg: cfg, pdf: pdf, ocr: ocr, metrics: metrics}
}

// Ingest extracts every readable file into an ExtractedDocument. Uploaded
// bytes are spooled to a request-scoped temp directory that is removed
// before return on every path. Files that fail extraction or yield no
// text are dropped with a log line.
func (ing *Ingester) Ingest(ctx context.Context, requestID string, files []types.FileRef) ([]types.ExtractedDocument, error) {
	if len(files) == 0 {
		return nil, nil
	}
	cfg := ing.cfg()

	dir, err := os.MkdirTemp(cfg.TempDir, "ingest-"+uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("create ingest temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	docs := make([]types.ExtractedDocument, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, fmt.Sprintf("%03d%s", i, f.Ext()))
		if err := os.WriteFile(path, f.Content, 0o600); err != nil {
			return nil, fmt.Errorf("spool %s: %w", f.Filename, err)
		}

		text, method, err := ing.extract(path, f.Ext())
		if err != nil {
			slog.Warn("file extraction failed, skipping",
				"request_id", requestID,
				"filename", f.Filename,
				"error", err)
			ing.record(method, "failed")
			continue
		}
		if strings.TrimSpace(text) == "" {
			slog.Info("file yielded no text, dropping",
				"request_id", requestID,
				"filename", f.Filename,
				"method", method)
			ing.record(method, "empty")
			continue
		}

		ing.record(method, "ok")
		slog.Info("file extracted",
			"request_id", requestID,
			"filename", f.Filename,
			"method", method,
			"chars", len(text))
		docs = append(docs, types.ExtractedDocument{
			SourceFilename: f.Filename,
			Text:           text,
			Method:         method,
		})
	}
	return docs, nil
}

func (ing *Ingester) extract(path, ext string) (string, types.ExtractionMethod, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", types.ExtractDirect, fmt.Errorf("read spooled file: %w", err)
	}
	switch ext {
	case ".txt", ".md", ".docx":
		return decodeText(data), types.ExtractDirect, nil
	case ".png", ".jpg", ".jpeg", ".tiff", ".bmp":
		text, err := ing.ocr.Recognize(data)
		if err != nil {
			return "", types.ExtractOCRImage, err
		}
		return text, types.ExtractOCRImage, nil
	case ".pdf":
		return ing.extractPDF(data)
	default:
		return "", types.ExtractDirect, fmt.Errorf("no extraction strategy for %q", ext)
	}
}

// extractPDF pulls the text layer page by page. A page with no text layer
// is rasterized and sent through OCR instead; if any page needed that
// fallback the whole document is reported as ocr_pdf_page_fallback.
func (ing *Ingester) extractPDF(data []byte) (string, types.ExtractionMethod, error) {
	doc, err := ing.pdf.Open(data)
	if err != nil {
		return "", types.ExtractDirect, err
	}
	defer doc.Close()

	cfg := ing.cfg()
	var (
		pages   []string
		usedOCR bool
	)
	for p := 0; p < doc.PageCount(); p++ {
		text, err := doc.PageText(p)
		if err != nil {
			return "", types.ExtractDirect, err
		}
		if strings.TrimSpace(text) == "" {
			img, err := doc.RenderPage(p, cfg.RenderDPI)
			if err != nil {
				return "", types.ExtractOCRPDFPageFallback, err
			}
			text, err = ing.ocr.Recognize(img)
			if err != nil {
				return "", types.ExtractOCRPDFPageFallback, err
			}
			usedOCR = true
		}
		pages = append(pages, text)
	}

	method := types.ExtractDirect
	if usedOCR {
		method = types.ExtractOCRPDFPageFallback
	}
	return strings.Join(pages, "\n"), method, nil
}

// decodeText interprets raw bytes as UTF-8, replacing invalid sequences.
func decodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

func (ing *Ingester) record(method types.ExtractionMethod, outcome string) {
	if ing.metrics != nil {
		ing.metrics.RecordIngestFile(string(method), outcome)
	}
}
