package dispatch

import (
	"context"
	"fmt"

	"github.com/jcs-corp/jcs-assistant/internal/llm"
)

const conversationInstruction = "You are JCS Bot, a concise, informative enterprise assistant. " +
	"Answer the user's question directly and professionally."

// ConversationHandler answers free-form prompts with a single completion
// call. The model's text is returned verbatim.
type ConversationHandler struct {
	client llm.Client
}

func NewConversationHandler(client llm.Client) *ConversationHandler {
	return &ConversationHandler{client: client}
}

func (h *ConversationHandler) Answer(ctx context.Context, prompt string) (string, error) {
	answer, err := h.client.Complete(ctx, conversationInstruction, prompt)
	if err != nil {
		return "", fmt.Errorf("conversation completion: %w", err)
	}
	return answer, nil
}
