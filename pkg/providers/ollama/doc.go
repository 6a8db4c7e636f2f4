// Package ollama implements the adapter for self-hosted Ollama servers.
//
// The adapter speaks two endpoints:
//
//   - GET /api/tags lists installed models. It doubles as a reachability
//     probe with a short timeout, so an absent server fails fast with
//     installation guidance instead of hanging.
//   - POST /api/generate performs a single-shot generation with streaming
//     disabled. Temperature and max tokens map to options.temperature and
//     options.num_predict.
//
// When VerifyModel is enabled the requested model must appear in the tag
// listing; otherwise the failure names the installed models and the exact
// "ollama pull" command. No credential is required.
//
// # Basic Usage
//
//	adapter := ollama.NewProvider(providers.ProviderConfig{
//	    BaseURL:     "http://localhost:11434",
//	    VerifyModel: true,
//	})
//	defer adapter.Close()
//
//	resp := adapter.Generate(ctx, prompt, &providers.GenerationRequest{
//	    Model:     "llama3.2",
//	    FieldType: fields.Objectives,
//	})
package ollama
