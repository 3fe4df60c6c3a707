package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// OpenAIConfig configures the OpenAI-compatible chat completions client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAIClient creates a client for an OpenAI-compatible API.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *OpenAIClient) Name() string { return ProviderOpenAI }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate performs a single chat completion. It never retries; fallback
// policy belongs to the caller.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, cfg ModelConfig) (string, error) {
	payload := chatRequest{
		Model: cfg.ModelID,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "request failed", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "non-2xx response", StatusCode: resp.StatusCode}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "decode response", Err: err}
	}
	if result.Error != nil {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "api error: " + result.Error.Message}
	}
	if len(result.Choices) == 0 {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "empty choices"}
	}

	choice := result.Choices[0]
	if choice.FinishReason == "length" {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "output truncated at max tokens"}
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", &ProviderError{Provider: c.Name(), Model: cfg.ModelID, Reason: "empty content"}
	}

	return content, nil
}
