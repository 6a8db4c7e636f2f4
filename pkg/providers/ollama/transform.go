package ollama

import "strings"

// Ollama API request/response types

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

// GenerateOptions carries sampling parameters under Ollama's native names.
type GenerateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// GenerateResponse is the non-streaming reply of /api/generate.
type GenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// TagsResponse is the reply of GET /api/tags.
type TagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ModelInfo describes one installed model.
type ModelInfo struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
	Size       int64  `json:"size,omitempty"`
}

// Transformation functions

// transformRequest builds the generate body with stream disabled.
func transformRequest(prompt, model string, temperature float64, maxTokens int) *GenerateRequest {
	return &GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: GenerateOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	}
}

// modelNames extracts installed model names in listing order.
func modelNames(tags *TagsResponse) []string {
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// hasModel reports whether model is installed. A model requested without a
// tag matches its ":latest" variant and vice versa.
func hasModel(installed []string, model string) bool {
	want := canonical(model)
	for _, name := range installed {
		if canonical(name) == want {
			return true
		}
	}
	return false
}

func canonical(name string) string {
	if !strings.Contains(name, ":") {
		return name + ":latest"
	}
	return name
}
