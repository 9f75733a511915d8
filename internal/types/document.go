package types

// ExtractionMethod records how an upload's text was recovered.
type ExtractionMethod string

const (
	// ExtractDirect means the file bytes decoded to text without OCR.
	ExtractDirect ExtractionMethod = "direct"
	// ExtractOCRImage means the whole file was run through OCR as an image.
	ExtractOCRImage ExtractionMethod = "ocr_image"
	// ExtractOCRPDFPageFallback means at least one PDF page yielded no
	// selectable text and was rasterized and OCR'd.
	ExtractOCRPDFPageFallback ExtractionMethod = "ocr_pdf_page_fallback"
)

// ExtractedDocument is the queryable text recovered from one upload.
// Text is never empty: uploads yielding no text are dropped by the
// ingester, not retained as empty entries.
type ExtractedDocument struct {
	SourceFilename string           `json:"source_filename"`
	Text           string           `json:"text"`
	Method         ExtractionMethod `json:"extraction_method"`
}
