package ingest

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// OCREngine recognizes text in rendered or uploaded images. Implementations
// must be safe for concurrent use by multiple in-flight requests.
type OCREngine interface {
	Recognize(imageBytes []byte) (string, error)
}

// TesseractEngine runs OCR through a local Tesseract installation.
type TesseractEngine struct {
	languages []string
}

// NewTesseractEngine creates an OCR engine. languages uses Tesseract's
// "+"-separated form, e.g. "eng" or "eng+deu".
func NewTesseractEngine(languages string) *TesseractEngine {
	langs := strings.Split(languages, "+")
	if languages == "" {
		langs = []string{"eng"}
	}
	return &TesseractEngine{languages: langs}
}

// Recognize runs OCR over one image. A fresh client per call: gosseract
// clients are not safe for concurrent use.
func (e *TesseractEngine) Recognize(imageBytes []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("set ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(imageBytes); err != nil {
		return "", fmt.Errorf("load image for ocr: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr recognize: %w", err)
	}
	return text, nil
}
