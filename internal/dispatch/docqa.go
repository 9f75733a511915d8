package dispatch

import (
	"context"

	"github.com/jcs-corp/jcs-assistant/internal/index"
	"github.com/jcs-corp/jcs-assistant/internal/llm"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

const noContentMessage = "The uploaded files contained no readable or extractable content. " +
	"Please check the files and try again."

// DocumentHandler answers prompts against the request's uploaded documents.
// It builds a throwaway vector index over the extracted text, retrieves the
// most relevant passages, and synthesizes an answer; the index is discarded
// with the request.
type DocumentHandler struct {
	client llm.Client
}

func NewDocumentHandler(client llm.Client) *DocumentHandler {
	return &DocumentHandler{client: client}
}

// Answer returns a grounded answer, or a fixed no-content message when
// every upload was dropped during ingestion. The no-content path makes no
// model calls.
func (h *DocumentHandler) Answer(ctx context.Context, prompt string, docs []types.ExtractedDocument) (string, error) {
	if len(docs) == 0 {
		return noContentMessage, nil
	}
	idx, err := index.Build(ctx, h.client, docs)
	if err != nil {
		return "", err
	}
	return idx.Query(ctx, prompt)
}
