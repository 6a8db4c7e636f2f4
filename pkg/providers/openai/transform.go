package openai

import (
	"errors"
	"strings"
)

// OpenAI API request/response types

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a message in OpenAI format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse represents a chat completion response.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Transformation functions

// transformRequest wraps the prompt in a single user message.
func transformRequest(prompt, model string, temperature float64, maxTokens int) *ChatRequest {
	return &ChatRequest{
		Model: model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

// transformResponse extracts the first choice's text and the token count.
func transformResponse(resp *ChatResponse) (string, int, error) {
	if len(resp.Choices) == 0 {
		return "", 0, errors.New("response contained no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	return text, resp.Usage.TotalTokens, nil
}
