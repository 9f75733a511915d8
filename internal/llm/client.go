package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jcs-corp/jcs-assistant/internal/config"
)

// Client is the process-wide handle for the external language-model
// capability. One instance is shared by all in-flight requests; it is
// stateless and safe for concurrent use.
type Client interface {
	// Complete sends a system instruction plus user prompt and returns the
	// model's text output verbatim.
	Complete(ctx context.Context, system, user string) (string, error)
	// ClassifyJSON issues a single classification call in JSON mode and
	// unmarshals the structured result into out. The expected schema is
	// described in the system rubric.
	ClassifyJSON(ctx context.Context, system, user string, out any) error
	// Embed returns one embedding vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIClient implements Client against an OpenAI-compatible API.
type OpenAIClient struct {
	api *openai.Client
	cfg func() config.LLMConfig
}

func NewOpenAIClient(cfg func() config.LLMConfig) *OpenAIClient {
	c := cfg()
	apiCfg := openai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		apiCfg.BaseURL = c.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: c.Timeout}
	return &OpenAIClient{
		api: openai.NewClientWithConfig(apiCfg),
		cfg: cfg,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg().CompletionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion call: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) ClassifyJSON(ctx context.Context, system, user string, out any) error {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg().ClassifierModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return fmt.Errorf("classification call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("classification call: empty choices")
	}
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode classification result: %w", err)
	}
	return nil
}

func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.cfg().EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding call: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding call: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding call: index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
