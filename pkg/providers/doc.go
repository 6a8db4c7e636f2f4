// Package providers implements the provider-agnostic layer of the content
// generation dispatcher.
//
// # Overview
//
// The package defines the request and response types shared by every
// backend, the Adapter contract, the typed error taxonomy and a shared HTTP
// base that concrete adapters embed.
//
// # Architecture
//
// The package is organized into several layers:
//
//  1. Types - GenerationRequest, GenerationResponse, Content, ProviderDescriptor
//  2. Adapter Interface - Generate(ctx, prompt, req) never returns an error value
//  3. Base HTTP Provider - connection pooling, bounded retries, per-call timeouts
//  4. Adapters - ollama, openai, anthropic and gemini sub-packages
//
// # Error Handling
//
// Adapters classify failures with the typed errors in this package and then
// flatten them into GenerationResponse.Error at their boundary:
//
//   - ConfigError: missing credential, detected before any network call
//   - ReachabilityError: the self-hosted backend could not be probed
//   - ModelNotFoundError: the requested model is not installed
//   - UpstreamError: non-2xx status with the provider's own message
//   - ParseError: the reply was not in the expected shape
//   - TimeoutError / NetworkError: transport failures after retries
//
// ErrorKind maps an error to a short label for metrics and logs.
//
// # Retries
//
// HTTPProvider retries network errors and 5xx responses up to MaxRetries
// times with exponential backoff starting at RetryBackoff. 4xx responses are
// never retried. The whole exchange, retries included, is bounded by the
// call timeout.
//
// # Basic Usage
//
//	adapter := openai.NewProvider(providers.ProviderConfig{
//	    Timeout:    60 * time.Second,
//	    MaxRetries: 2,
//	})
//	defer adapter.Close()
//
//	resp := adapter.Generate(ctx, prompt, &providers.GenerationRequest{
//	    Provider:  "openai",
//	    FieldType: fields.Scope,
//	    APIKey:    key,
//	})
//	if !resp.Success {
//	    fmt.Println(resp.Error)
//	}
package providers
