// Package dispatch routes a guarded, classified request to the handler
// that can answer it, or produces a status result when no handler fits.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcs-corp/jcs-assistant/internal/guard"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

const (
	statusNotSupported  = "Task not supported."
	statusNotRecognized = "Task not recognized or unsupported."
)

// DocumentIngester extracts uploaded files into plain-text documents.
// Satisfied by ingest.Ingester.
type DocumentIngester interface {
	Ingest(ctx context.Context, requestID string, files []types.FileRef) ([]types.ExtractedDocument, error)
}

// Dispatcher picks a handler from the accepted classification and the
// presence of files. Routing itself makes no model calls; ingestion runs
// only when the document path is actually taken.
type Dispatcher struct {
	conversation *ConversationHandler
	document     *DocumentHandler
	ingester     DocumentIngester
}

func New(conversation *ConversationHandler, document *DocumentHandler, ingester DocumentIngester) *Dispatcher {
	return &Dispatcher{
		conversation: conversation,
		document:     document,
		ingester:     ingester,
	}
}

// Dispatch routes one request:
//   - general_conversation without files goes to the conversation handler
//   - file_qa goes to the document handler, rejecting when no files came
//   - summarization with files goes to the document handler; without files
//     it is unsupported and answered with a status result, no model call
//   - every other combination gets a not-recognized status result; files
//     on those paths are ignored and never ingested
func (d *Dispatcher) Dispatch(ctx context.Context, req *types.ChatRequest, cls types.TaskClassification) (types.ChatResult, error) {
	switch {
	case cls.Category == types.TaskGeneralConversation && !req.HasFiles():
		answer, err := d.conversation.Answer(ctx, req.Prompt)
		if err != nil {
			return types.ChatResult{}, err
		}
		return types.AnswerResult(answer), nil

	case cls.Category == types.TaskFileQA:
		if !req.HasFiles() {
			return types.ChatResult{}, guard.ErrMissingFiles()
		}
		return d.answerFromDocuments(ctx, req)

	case cls.Category == types.TaskSummarization && req.HasFiles():
		return d.answerFromDocuments(ctx, req)

	case cls.Category == types.TaskSummarization:
		return types.StatusResult(cls, statusNotSupported), nil

	default:
		slog.Info("no handler for classification",
			"request_id", req.RequestID,
			"category", cls.Category,
			"has_files", req.HasFiles())
		return types.StatusResult(cls, statusNotRecognized), nil
	}
}

func (d *Dispatcher) answerFromDocuments(ctx context.Context, req *types.ChatRequest) (types.ChatResult, error) {
	docs, err := d.ingester.Ingest(ctx, req.RequestID, req.Files)
	if err != nil {
		return types.ChatResult{}, fmt.Errorf("ingest files: %w", err)
	}
	answer, err := d.document.Answer(ctx, req.Prompt, docs)
	if err != nil {
		return types.ChatResult{}, err
	}
	return types.AnswerResult(answer), nil
}
