package guard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jcs-corp/jcs-assistant/internal/llm"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

const classifierRubric = `You are a helpful assistant that classifies user prompts into one of the following task categories:
- general_conversation
- summarization
- comparison
- data_analysis_forecast
- file_qa

Use the optional context (task hint, file names) to improve classification.
If the intent is unclear, use the category "unknown".

Respond with a JSON object: {"category": <category>, "confidence": <float between 0 and 1>}.`

// Classifier determines the task category of a request with a single
// classification call. No retries.
type Classifier struct {
	client llm.Client
}

func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{client: client}
}

// Classify returns the task category and confidence for a request.
// Categories outside the fixed set are coerced to unknown.
func (c *Classifier) Classify(ctx context.Context, prompt, taskHint string, fileNames []string) (types.TaskClassification, error) {
	var sb strings.Builder
	sb.WriteString(prompt)
	if len(fileNames) > 0 {
		sb.WriteString("\nfiles: ")
		sb.WriteString(strings.Join(fileNames, ", "))
	}
	if taskHint != "" {
		sb.WriteString("\ntask: ")
		sb.WriteString(taskHint)
	}

	var raw struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	if err := c.client.ClassifyJSON(ctx, classifierRubric, sb.String(), &raw); err != nil {
		return types.TaskClassification{}, fmt.Errorf("task classification: %w", err)
	}

	category, ok := types.ParseTaskCategory(raw.Category)
	if !ok {
		category = types.TaskUnknown
	}

	cls := types.TaskClassification{Category: category, Confidence: raw.Confidence}
	slog.Info("task classified", "category", cls.Category, "confidence", fmt.Sprintf("%.2f", cls.Confidence))
	return cls, nil
}
