package providers

import "context"

// Adapter is the contract every provider family implements. An adapter
// translates a prompt plus sampling parameters into one backend's wire
// protocol and normalizes the reply.
//
// Generate never returns an error value: failures are reported through
// GenerationResponse.Success and GenerationResponse.Error so callers always
// receive a well-formed result.
//
// Example usage:
//
//	resp := adapter.Generate(ctx, prompt, &providers.GenerationRequest{
//	    Provider:  "openai",
//	    Model:     "gpt-4o-mini",
//	    FieldType: fields.Description,
//	    APIKey:    key,
//	})
//	if !resp.Success {
//	    return errors.New(resp.Error)
//	}
//	fmt.Println(resp.Content)
type Adapter interface {
	// Generate sends prompt to the backend using the model, credential,
	// endpoint and sampling overrides carried by req.
	Generate(ctx context.Context, prompt string, req *GenerationRequest) *GenerationResponse

	// Family returns the protocol family this adapter speaks.
	Family() Family

	// Health returns passive health information gathered from past calls.
	Health() ProviderHealth

	// Close releases idle connections.
	Close() error
}

// ModelLister is implemented by adapters that can enumerate installed models
// on a live backend.
type ModelLister interface {
	ListModels(ctx context.Context, endpoint string) ([]string, error)
}
