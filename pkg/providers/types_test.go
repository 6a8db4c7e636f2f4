package providers

import (
	"encoding/json"
	"testing"
)

func TestContentJSON(t *testing.T) {
	text, _ := json.Marshal(TextContent("hello"))
	if string(text) != `"hello"` {
		t.Errorf("unexpected text encoding: %s", text)
	}

	list, _ := json.Marshal(ListContent([]string{"a", "b"}))
	if string(list) != `["a","b"]` {
		t.Errorf("unexpected list encoding: %s", list)
	}

	var c Content
	if err := json.Unmarshal([]byte(`["x","y"]`), &c); err != nil {
		t.Fatal(err)
	}
	if !c.IsList() || len(c.Items) != 2 {
		t.Errorf("expected list content, got %+v", c)
	}
	if c.String() != "x\ny" {
		t.Errorf("unexpected string rendering %q", c.String())
	}
}

func TestGenerationRequestAttribute(t *testing.T) {
	req := &GenerationRequest{Attributes: map[string]any{
		"title":    "Q3 Audit",
		"tags":     []string{"sox", "itgc"},
		"mixed":    []any{"a", 1},
		"priority": 3,
		"nil":      nil,
	}}

	tests := map[string]string{
		"title":    "Q3 Audit",
		"tags":     "sox, itgc",
		"mixed":    "a, 1",
		"priority": "3",
		"nil":      "",
		"missing":  "",
	}
	for key, want := range tests {
		if got := req.Attribute(key); got != want {
			t.Errorf("Attribute(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestSamplingOverrides(t *testing.T) {
	temp := 0.2
	limit := 50
	req := &GenerationRequest{Temperature: &temp, MaxTokens: &limit}
	if req.TemperatureOr(0.7) != 0.2 || req.MaxTokensOr(2000) != 50 {
		t.Error("expected overrides to win")
	}

	empty := &GenerationRequest{}
	if empty.TemperatureOr(0.7) != 0.7 || empty.MaxTokensOr(2000) != 2000 {
		t.Error("expected defaults")
	}
}

func TestDescriptorWithModels(t *testing.T) {
	d := ProviderDescriptor{ID: "ollama", Models: []string{"llama3.2"}, DefaultModel: "llama3.2"}
	live := d.WithModels([]string{"phi3", "mistral"})

	if live.DefaultModel != "phi3" || !live.HasModel("mistral") {
		t.Errorf("unexpected live descriptor %+v", live)
	}
	if d.HasModel("phi3") {
		t.Error("expected original descriptor to be unchanged")
	}
}
