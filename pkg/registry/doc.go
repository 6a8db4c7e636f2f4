// Package registry holds the static catalog of supported AI providers.
//
// The catalog seeds one self-hosted, credential-free family (Ollama) and three
// hosted families that require an API key (OpenAI, Anthropic, Gemini). Each
// descriptor carries a fixed fallback model list and a default model.
//
// For the self-hosted family the registry can refresh the model list from the
// running server:
//
//	reg := registry.New(registry.WithModelLister("ollama", ollamaAdapter))
//	desc, _ := reg.WithLiveModels(ctx, "ollama", "http://gpu-box:11434")
//
// Live discovery never fails: when the server cannot be reached the static
// descriptor is returned unchanged.
package registry
