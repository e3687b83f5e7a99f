package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/sashabaranov/go-openai"
)

const (
	openAIModel = "gpt-4o-mini"
	xaiBaseURL  = "https://api.x.ai/v1"
	xaiModel    = "grok-3-mini"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openAIModel
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

// NewXAIClient uses the OpenAI wire format against the xAI endpoint.
func NewXAIClient(apiKey, model string) *OpenAIClient {
	return newCompatibleClient(apiKey, xaiBaseURL, model, xaiModel)
}

func newCompatibleClient(apiKey, baseURL, model, fallback string) *OpenAIClient {
	if model == "" {
		model = fallback
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) Assess(ctx context.Context, h domain.Hypothesis, batch *domain.ObservationBatch) (domain.ReasoningVerdict, error) {
	return assess(ctx, c, h, batch)
}
