package tracing

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys. Custom keys use the "scribe." namespace.
const (
	AttrProvider     = "scribe.provider"
	AttrModel        = "scribe.model"
	AttrFieldType    = "scribe.field_type"
	AttrPromptSource = "scribe.prompt_source"
	AttrTemplateTier = "scribe.template.tier"
	AttrSuccess      = "scribe.success"
	AttrErrorKind    = "scribe.error_kind"
	AttrTokens       = "scribe.tokens"
	AttrUser         = "scribe.user"
)

// GenerationAttributes describes one generation outcome.
func GenerationAttributes(provider, model, fieldType string, success bool, errorKind string, tokens int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
		attribute.String(AttrFieldType, fieldType),
		attribute.Bool(AttrSuccess, success),
		attribute.Int(AttrTokens, tokens),
	}
	if errorKind != "" {
		attrs = append(attrs, attribute.String(AttrErrorKind, errorKind))
	}
	return attrs
}
