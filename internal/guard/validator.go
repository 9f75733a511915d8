package guard

import (
	"strings"

	"github.com/jcs-corp/jcs-assistant/internal/types"
)

// allowedExtensions is the canonical upload allow-list: the text formats the
// ingester decodes directly plus the OCR-eligible image and PDF formats.
// Checked case-insensitively; anything else is rejected before any external
// call is made.
var allowedExtensions = map[string]struct{}{
	".txt":  {},
	".md":   {},
	".docx": {},
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".tiff": {},
	".bmp":  {},
}

// ExtensionAllowed reports whether ext (lowercased, dot-prefixed) is on the
// canonical allow-list.
func ExtensionAllowed(ext string) bool {
	_, ok := allowedExtensions[strings.ToLower(ext)]
	return ok
}

// ValidateShape performs the pure syntactic gate over a request: non-blank
// prompt and allow-listed file extensions. No side effects, no external
// calls.
func ValidateShape(req *types.ChatRequest) *RequestError {
	if strings.TrimSpace(req.Prompt) == "" {
		return ErrEmptyPrompt()
	}
	for _, f := range req.Files {
		if !ExtensionAllowed(f.Ext()) {
			return ErrUnsupportedFileFormat(f.Filename)
		}
	}
	return nil
}
