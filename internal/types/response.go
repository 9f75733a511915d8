package types

// ChatResult is the user-visible outcome of a chat request: either an answer
// from one of the handlers, or a status payload carrying the classification
// when the task could not be resolved to a handler.
type ChatResult struct {
	RequestID  string       `json:"request_id"`
	Response   string       `json:"response,omitempty"`
	Category   TaskCategory `json:"category,omitempty"`
	Confidence float64      `json:"confidence,omitempty"`
	Status     string       `json:"status,omitempty"`
}

// AnswerResult wraps a handler answer.
func AnswerResult(answer string) ChatResult {
	return ChatResult{Response: answer}
}

// StatusResult wraps an unresolved classification with a human-readable status.
func StatusResult(cls TaskClassification, status string) ChatResult {
	return ChatResult{
		Category:   cls.Category,
		Confidence: cls.Confidence,
		Status:     status,
	}
}
