package trend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ReplyGenerator generates conversational replies grounded in a trend
// context block. Implementations may call OpenAI or Anthropic.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, system string, messages []ChatMessage) (string, error)
}

// ChatMessage is a single turn in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// LLMClient calls an OpenAI- or Anthropic-style chat completion API.
type LLMClient struct {
	client   *http.Client
	provider string // "openai" or "anthropic"
	model    string
	apiKey   string
	baseURL  string
}

// NewLLMClient creates a chat completion client.
func NewLLMClient(provider, model, apiKey, baseURL string) *LLMClient {
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-sonnet-4-20250514"
		default:
			model = "gpt-4o-mini"
		}
	}
	return &LLMClient{
		client:   &http.Client{Timeout: 60 * time.Second},
		provider: provider,
		model:    model,
		apiKey:   apiKey,
		baseURL:  baseURL,
	}
}

// GenerateReply sends the conversation and returns the assistant's reply.
func (c *LLMClient) GenerateReply(ctx context.Context, system string, messages []ChatMessage) (string, error) {
	if c.provider == "anthropic" {
		return c.anthropicReply(ctx, system, messages)
	}
	return c.openAIReply(ctx, system, messages)
}

func (c *LLMClient) openAIReply(ctx context.Context, system string, messages []ChatMessage) (string, error) {
	msgs := make([]ChatMessage, 0, len(messages)+1)
	if system != "" {
		msgs = append(msgs, ChatMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, messages...)

	payload := map[string]any{
		"model":       c.model,
		"messages":    msgs,
		"temperature": 0.7,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	url := c.endpoint("https://api.openai.com", "/v1/chat/completions")
	if err := c.roundTrip(ctx, url, headers, payload, &result); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion")
	}
	return result.Choices[0].Message.Content, nil
}

func (c *LLMClient) anthropicReply(ctx context.Context, system string, messages []ChatMessage) (string, error) {
	payload := map[string]any{
		"model":      c.model,
		"max_tokens": 1024,
		"messages":   messages,
	}
	if system != "" {
		payload["system"] = system
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	url := c.endpoint("https://api.anthropic.com", "/v1/messages")
	if err := c.roundTrip(ctx, url, headers, payload, &result); err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic: empty completion")
	}
	return result.Content[0].Text, nil
}

func (c *LLMClient) endpoint(defaultBase, path string) string {
	base := c.baseURL
	if base == "" {
		base = defaultBase
	}
	return base + path
}

// roundTrip POSTs payload as JSON and decodes the response into out.
// The provider's error body is folded into the returned error.
func (c *LLMClient) roundTrip(ctx context.Context, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody map[string]any
		json.NewDecoder(resp.Body).Decode(&errBody)
		return fmt.Errorf("status %d: %v", resp.StatusCode, errBody)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
