package perception

import (
	"context"
	"fmt"

	"ntrl/internal/config"
)

// Provider represents an LLM provider.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderStub   Provider = "stub"
)

// NewClientFromConfig builds an LLMClient for the configured provider.
// Provider selection happens once, here; nothing downstream branches on
// provider strings.
func NewClientFromConfig(cfg config.LLMConfig) (LLMClient, error) {
	switch Provider(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}), nil
	case ProviderGemini:
		return NewGeminiClient(GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	case ProviderStub, Provider(""):
		return NewStubClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// StubClient is a deterministic offline client. It answers every prompt
// with an empty JSON array, which every JSON-consuming caller treats as
// "nothing found". Used for scan-only deployments and tests.
type StubClient struct{}

// NewStubClient creates a stub client.
func NewStubClient() *StubClient { return &StubClient{} }

// Model returns the stub model identifier.
func (s *StubClient) Model() string { return "stub" }

// Complete returns an empty JSON array.
func (s *StubClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "[]", nil
}

// CompleteWithSystem returns an empty JSON array.
func (s *StubClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "[]", nil
}
