package ai

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient adapts the Google Gemini API to the Provider interface.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini-backed provider.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) Name() string { return ProviderGemini }

// Generate performs a single completion against the configured Gemini model.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, cfg ModelConfig) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, cfg.ModelID, genai.Text(prompt), nil)
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "request failed", Err: err}
	}

	if len(resp.Candidates) == 0 {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "empty candidates"}
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "output truncated at max tokens"}
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "empty content"}
	}

	return content, nil
}
