package templates

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"mercator-hq/scribe/pkg/fields"
)

// Tier identifies which specificity rule selected a template.
type Tier string

const (
	// TierPinned means the caller named the template id.
	TierPinned Tier = "pinned"

	// TierExact matched both industry and framework.
	TierExact Tier = "industry_framework"

	// TierIndustry matched the industry of a template without framework.
	TierIndustry Tier = "industry"

	// TierFramework matched the framework of a template without industry.
	TierFramework Tier = "framework"

	// TierDefault is the generic template carrying neither tag.
	TierDefault Tier = "default"

	// TierNone means no template applies; the prompt library is used.
	TierNone Tier = "none"
)

// MatchRecorder observes resolution outcomes.
type MatchRecorder interface {
	RecordTemplateMatch(fieldType string, tier string)
}

// Query holds the resolution inputs.
type Query struct {
	FieldType  fields.FieldType
	Industry   string
	Framework  string
	TemplateID string
}

// Resolver selects the single best-matching template for a field type.
type Resolver struct {
	store    Store
	recorder MatchRecorder
	logger   *slog.Logger
}

// NewResolver creates a resolver over store. recorder may be nil.
func NewResolver(store Store, recorder MatchRecorder) *Resolver {
	return &Resolver{
		store:    store,
		recorder: recorder,
		logger:   slog.Default().With("component", "templates.resolver"),
	}
}

// Resolve returns the most specific active template for q, or nil when none
// applies. Rules are evaluated in order and the first match wins:
//
//  1. exact match on both industry and framework
//  2. industry match on a template without framework
//  3. framework match on a template without industry
//  4. the generic template carrying neither tag
//
// Candidates arrive ordered by default flag then version, so ties inside a
// rule go to the default, then to the most recent version. A pinned
// TemplateID bypasses ranking when it names an active template of the same
// field type.
//
// Store failures are returned with a nil template; callers fall back to the
// built-in prompt library.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Template, Tier, error) {
	if q.TemplateID != "" {
		t, err := r.store.Get(ctx, q.TemplateID)
		switch {
		case err == nil && t.Active && t.FieldType == q.FieldType:
			r.record(q.FieldType, TierPinned)
			return &t, TierPinned, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, TierNone, err
		default:
			r.logger.Debug("pinned template unusable, ranking candidates",
				"template_id", q.TemplateID,
				"field_type", q.FieldType,
			)
		}
	}

	candidates, err := r.store.Candidates(ctx, q.FieldType)
	if err != nil {
		return nil, TierNone, err
	}

	t, tier := Rank(candidates, q.Industry, q.Framework)
	r.record(q.FieldType, tier)

	if t != nil {
		r.logger.Debug("template resolved",
			"field_type", q.FieldType,
			"template_id", t.ID,
			"tier", tier,
			"version", t.Version,
		)
	}
	return t, tier, nil
}

// Rank applies the specificity rules to candidates, which must already be
// ordered by default flag descending then version descending. Tag
// comparison ignores case and surrounding whitespace.
func Rank(candidates []Template, industry, framework string) (*Template, Tier) {
	industry = normalizeTag(industry)
	framework = normalizeTag(framework)

	find := func(pred func(t *Template) bool) *Template {
		for i := range candidates {
			if pred(&candidates[i]) {
				t := candidates[i]
				return &t
			}
		}
		return nil
	}

	if industry != "" && framework != "" {
		if t := find(func(t *Template) bool {
			return normalizeTag(t.Industry) == industry && normalizeTag(t.Framework) == framework
		}); t != nil {
			return t, TierExact
		}
	}

	if industry != "" {
		if t := find(func(t *Template) bool {
			return normalizeTag(t.Industry) == industry && normalizeTag(t.Framework) == ""
		}); t != nil {
			return t, TierIndustry
		}
	}

	if framework != "" {
		if t := find(func(t *Template) bool {
			return normalizeTag(t.Framework) == framework && normalizeTag(t.Industry) == ""
		}); t != nil {
			return t, TierFramework
		}
	}

	if t := find(func(t *Template) bool { return t.Generic() }); t != nil {
		return t, TierDefault
	}

	return nil, TierNone
}

func (r *Resolver) record(ft fields.FieldType, tier Tier) {
	if r.recorder != nil {
		r.recorder.RecordTemplateMatch(string(ft), string(tier))
	}
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
