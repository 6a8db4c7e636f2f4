package testutil

import (
	"net/http"
	"time"
)

// OllamaTags creates a mock /api/tags response listing models.
func OllamaTags(models ...string) MockResponse {
	list := make([]map[string]any, 0, len(models))
	for _, m := range models {
		list = append(list, map[string]any{
			"name":        m,
			"modified_at": time.Now().UTC().Format(time.RFC3339),
			"size":        3825819519,
		})
	}
	return MockResponse{StatusCode: http.StatusOK, Body: map[string]any{"models": list}}
}

// OllamaGenerate creates a mock /api/generate response.
func OllamaGenerate(text string, evalCount int) MockResponse {
	body := map[string]any{
		"model":    "llama3.2",
		"response": text,
		"done":     true,
	}
	if evalCount > 0 {
		body["eval_count"] = evalCount
	}
	return MockResponse{StatusCode: http.StatusOK, Body: body}
}

// OpenAIChat creates a mock chat completion response.
func OpenAIChat(content, model string, totalTokens int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body: map[string]any{
			"id":      "chatcmpl-123",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   model,
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     10,
				"completion_tokens": totalTokens - 10,
				"total_tokens":      totalTokens,
			},
		},
	}
}

// AnthropicMessage creates a mock messages response.
func AnthropicMessage(content, model string, inputTokens, outputTokens int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body: map[string]any{
			"id":   "msg_123",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": content},
			},
			"model":       model,
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  inputTokens,
				"output_tokens": outputTokens,
			},
		},
	}
}

// GeminiContent creates a mock generateContent response.
func GeminiContent(content string, totalTokens int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body: map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"role":  "model",
						"parts": []map[string]any{{"text": content}},
					},
					"finishReason": "STOP",
				},
			},
			"usageMetadata": map[string]any{
				"promptTokenCount":     5,
				"candidatesTokenCount": totalTokens - 5,
				"totalTokenCount":      totalTokens,
			},
		},
	}
}

// ErrorResponse creates a mock error response in the common
// {"error":{"message":...}} envelope.
func ErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"type":    "invalid_request_error",
				"code":    statusCode,
			},
		},
	}
}

// AuthError creates a 401 authentication error response.
func AuthError() MockResponse {
	return ErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// ServerError creates a 500 internal server error response.
func ServerError() MockResponse {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}
