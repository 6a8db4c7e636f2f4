// Package openai implements the OpenAI provider adapter.
//
// Requests go to POST {base}/v1/chat/completions with a bearer token. The
// prompt is sent as a single user message; the answer is read from
// choices[0].message.content and usage from usage.total_tokens.
//
// # Basic Usage
//
//	adapter := openai.NewProvider(providers.ProviderConfig{
//	    BaseURL: "https://api.openai.com",
//	})
//	defer adapter.Close()
//
//	resp := adapter.Generate(ctx, prompt, &providers.GenerationRequest{
//	    Model:  "gpt-4o-mini",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//
// Any service implementing the same protocol can be targeted through the
// request's Endpoint override.
package openai
