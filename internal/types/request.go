package types

import (
	"path/filepath"
	"strings"
	"time"
)

// ChatRequest is the canonical internal representation of an incoming
// assistant request. It is immutable once constructed and scoped to a
// single pipeline invocation.
type ChatRequest struct {
	// Identity (set by auth middleware)
	RequestID      string `json:"request_id"`
	OrganizationID string `json:"organization_id"`
	TeamID         string `json:"team_id"`
	UserID         string `json:"user_id"`
	APIKeyID       string `json:"api_key_id"`

	// Request content
	Prompt   string    `json:"prompt"`
	TaskHint string    `json:"task,omitempty"`
	Files    []FileRef `json:"files,omitempty"`

	// Internal tracking
	ReceivedAt time.Time `json:"-"`
}

// HasFiles reports whether the request carries any uploads.
func (r *ChatRequest) HasFiles() bool { return len(r.Files) > 0 }

// FileNames returns the upload filenames in request order.
func (r *ChatRequest) FileNames() []string {
	names := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		names = append(names, f.Filename)
	}
	return names
}

// FileRef is one uploaded file. The bytes are owned by the request for its
// lifetime; the ingester reads them but does not retain them past the call.
type FileRef struct {
	Filename string `json:"filename"`
	Content  []byte `json:"-"`
}

// Ext returns the lowercased filename extension, including the dot.
func (f FileRef) Ext() string {
	return strings.ToLower(filepath.Ext(f.Filename))
}
