// Package prompts builds the prompt sent to a provider.
//
// Builder.Build resolves a persisted template for the request's field type
// and interpolates its {{placeholder}} tokens. When no template applies it
// falls back to the built-in library: one Recipe per field type, rendered as
//
//	You are <persona>.
//
//	<Entity> Information:
//	- Title: ...
//	- ...
//	- Additional Context: ...
//
//	Task: ...
//
//	Requirements:
//	- ...
//
//	<ContentOnlyInstruction>
//
// Missing attributes are rendered as NotSpecified rather than omitted, and
// every library prompt ends with ContentOnlyInstruction. Audit objectives
// additionally carry focus guidance for the audit type.
package prompts
