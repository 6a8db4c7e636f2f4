package anthropic

import (
	"errors"
	"strings"
)

// Anthropic API request/response types

// MessagesRequest represents a Messages API request.
type MessagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
}

// Message represents a message in Anthropic format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagesResponse represents a Messages API response.
type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// ContentBlock represents a content block in a response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage represents token usage in Anthropic format.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Transformation functions

// transformRequest wraps the prompt in a single user message. The Messages
// API requires max_tokens, so it is always sent.
func transformRequest(prompt, model string, temperature float64, maxTokens int) *MessagesRequest {
	return &MessagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
	}
}

// transformResponse concatenates the text blocks of the reply.
func transformResponse(resp *MessagesResponse) (string, int, error) {
	var sb strings.Builder
	found := false
	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		found = true
		sb.WriteString(block.Text)
	}
	if !found {
		return "", 0, errors.New("response contained no text content")
	}
	return strings.TrimSpace(sb.String()), resp.Usage.InputTokens + resp.Usage.OutputTokens, nil
}
