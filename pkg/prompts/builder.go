package prompts

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/scribe/pkg/providers"
	"mercator-hq/scribe/pkg/templates"
)

// TemplateResolver selects a template for a query.
type TemplateResolver interface {
	Resolve(ctx context.Context, q templates.Query) (*templates.Template, templates.Tier, error)
}

// Source reports where a prompt came from.
type Source string

const (
	SourceCaller   Source = "caller"
	SourceTemplate Source = "template"
	SourceLibrary  Source = "library"
)

// Prompt is a built prompt and its provenance.
type Prompt struct {
	Text       string
	Source     Source
	TemplateID string
	Tier       templates.Tier
}

// Builder synthesizes prompts from templates or the built-in library.
type Builder struct {
	resolver TemplateResolver
	logger   *slog.Logger
}

// NewBuilder creates a builder. A nil resolver always uses the library.
func NewBuilder(resolver TemplateResolver) *Builder {
	return &Builder{
		resolver: resolver,
		logger:   slog.Default().With("component", "prompts"),
	}
}

// Build returns the prompt for req. A caller-supplied prompt is used as is.
// Otherwise the best matching template is interpolated; when there is none,
// or the template store fails, the field-type library is used.
func (b *Builder) Build(ctx context.Context, req *providers.GenerationRequest) Prompt {
	if strings.TrimSpace(req.Prompt) != "" {
		return Prompt{Text: req.Prompt, Source: SourceCaller, Tier: templates.TierNone}
	}

	if b.resolver != nil {
		t, tier, err := b.resolver.Resolve(ctx, templates.Query{
			FieldType:  req.FieldType,
			Industry:   req.Industry,
			Framework:  req.Framework,
			TemplateID: req.TemplateID,
		})
		switch {
		case err != nil:
			b.logger.Warn("template lookup failed, using prompt library",
				"field_type", req.FieldType,
				"error", err,
			)
		case t != nil:
			return Prompt{
				Text:       Interpolate(t, req),
				Source:     SourceTemplate,
				TemplateID: t.ID,
				Tier:       tier,
			}
		}
	}

	return Prompt{Text: Library(req), Source: SourceLibrary, Tier: templates.TierNone}
}

// Library renders the built-in recipe for the request's field type.
func Library(req *providers.GenerationRequest) string {
	r, ok := RecipeFor(req.Field())
	if !ok {
		r = fallbackRecipe(req.Field())
	}
	return r.Render(req)
}

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// Interpolate replaces {{key}} tokens in the template body. Values come from
// the request (context, field_type, industry, framework), then the entity
// attributes, then the template variables; unresolved tokens become
// NotSpecified. Industry and framework framing sentences are appended when
// the template carries those tags.
func Interpolate(t *templates.Template, req *providers.GenerationRequest) string {
	body := placeholder.ReplaceAllStringFunc(t.Body, func(tok string) string {
		key := placeholder.FindStringSubmatch(tok)[1]
		if v := value(t, req, key); v != "" {
			return v
		}
		return NotSpecified
	})

	var b strings.Builder
	b.WriteString(strings.TrimSpace(body))

	if t.Industry != "" {
		b.WriteString("\n\nThis content is for an organization in the ")
		b.WriteString(t.Industry)
		b.WriteString(" industry. Reflect its typical risks, terminology and regulatory expectations.")
	}
	if t.Framework != "" {
		b.WriteString("\n\nAlign the content with the ")
		b.WriteString(t.Framework)
		b.WriteString(" framework and reference its requirements where relevant.")
	}
	if !strings.Contains(body, ContentOnlyInstruction) {
		b.WriteString("\n\n")
		b.WriteString(ContentOnlyInstruction)
	}
	return b.String()
}

func value(t *templates.Template, req *providers.GenerationRequest, key string) string {
	switch key {
	case "context":
		if v := strings.TrimSpace(req.Context); v != "" {
			return v
		}
	case "field_type":
		return string(req.FieldType)
	case "industry":
		if req.Industry != "" {
			return req.Industry
		}
		return t.Industry
	case "framework":
		if req.Framework != "" {
			return req.Framework
		}
		return t.Framework
	}
	if v := strings.TrimSpace(req.Attribute(key)); v != "" {
		return v
	}
	return t.Variables[key]
}
