// Package generation is the content generation orchestrator.
//
// A Service ties the prompt builder, the provider adapters and the
// generation log together:
//
//	svc := generation.NewService(manager, prompts.NewBuilder(resolver),
//	    generation.WithConfigSource(settingsStore),
//	    generation.WithRecorder(recorder),
//	    generation.WithObserver(collector),
//	)
//
//	resp := svc.GenerateContent(ctx, &providers.GenerationRequest{
//	    Provider:  "ollama",
//	    FieldType: fields.Objectives,
//	    Attributes: map[string]any{"title": "Payroll audit"},
//	})
//	if !resp.Success {
//	    fmt.Println(resp.Error)
//	}
//
// GenerateContent never panics and never returns an error value. Unknown
// providers, missing credentials, unreachable backends and malformed replies
// all come back as a response with Success false and an actionable message.
//
// Each attempt is recorded through the LogRecorder without blocking; a full
// or failing log never affects the generation result.
package generation
