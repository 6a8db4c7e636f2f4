// Package anthropic implements the Anthropic provider adapter.
//
// Requests go to POST {base}/v1/messages with the credential in the
// x-api-key header and an explicit anthropic-version header. Text blocks of
// the reply are concatenated; usage is input plus output tokens.
//
// # Basic Usage
//
//	adapter := anthropic.NewProvider(providers.ProviderConfig{})
//	defer adapter.Close()
//
//	resp := adapter.Generate(ctx, prompt, &providers.GenerationRequest{
//	    Model:  "claude-3-5-sonnet-20241022",
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	})
package anthropic
