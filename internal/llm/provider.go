package llm

import (
	"fmt"

	"github.com/Harshitk-cp/marketmind/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderXAI       = "xai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
	ProviderNone      = "none"
)

// NewClient creates a reasoning client based on the provider name.
// ProviderNone returns a nil client: the engine then relies on verdicts
// supplied with the observation batch. Returns an error if the provider is
// unknown or the API key is empty (except for mock and none).
func NewClient(provider, apiKey, model string) (domain.ReasoningClient, error) {
	switch provider {
	case ProviderNone, "":
		return nil, nil

	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey, model), nil

	case ProviderXAI:
		if apiKey == "" {
			return nil, fmt.Errorf("XAI_API_KEY is required for xAI provider")
		}
		return NewXAIClient(apiKey, model), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(apiKey, model), nil

	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(apiKey, model), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown reasoning provider: %s (valid options: openai, xai, anthropic, gemini, mock, none)", provider)
	}
}
