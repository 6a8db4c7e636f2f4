// Scribe is a multi-provider AI content generation service for governance,
// risk and compliance records.
//
// It drafts audit objectives, policy sections, risk descriptions, incident
// response plans and vendor assessments through interchangeable providers:
//   - Self-hosted Ollama servers
//   - OpenAI, Anthropic and Gemini hosted APIs
//   - Per-user provider configurations with a local fallback cache
//   - Industry and framework specific prompt templates
//   - A best-effort generation log with scheduled retention
//
// Usage:
//
//	# Start the API server
//	scribe serve --config /etc/scribe/config.yaml
//
//	# Generate one field from the command line
//	scribe generate --provider ollama --field-type objectives --attr title="Q3 Access Review"
//
//	# Check that a provider answers
//	scribe test-connection --provider openai --api-key "$OPENAI_API_KEY"
//
//	# Export the generation log
//	scribe logs export --format csv --output logs.csv
package main

func main() {
	Execute()
}
