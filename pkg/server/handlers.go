package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"mercator-hq/scribe/pkg/fields"
	"mercator-hq/scribe/pkg/generation"
	"mercator-hq/scribe/pkg/providers"
	"mercator-hq/scribe/pkg/settings"
	"mercator-hq/scribe/pkg/templates"
)

// MaxBatchSize bounds the number of requests in one batch call.
const MaxBatchSize = 50

// Generator runs generations. *generation.Service implements it.
type Generator interface {
	GenerateContent(ctx context.Context, req *providers.GenerationRequest) *providers.GenerationResponse
	GenerateBatch(ctx context.Context, reqs []*providers.GenerationRequest) []*providers.GenerationResponse
	TestConnection(ctx context.Context, req providers.GenerationRequest) generation.ConnectionResult
}

// Catalog lists providers. *registry.Registry implements it.
type Catalog interface {
	List() []providers.ProviderDescriptor
	Get(id string) (providers.ProviderDescriptor, bool)
	WithLiveModels(ctx context.Context, id, endpoint string) (providers.ProviderDescriptor, bool)
}

// ConfigStore manages saved provider configurations. *settings.Store
// implements it.
type ConfigStore interface {
	Save(ctx context.Context, c settings.Configuration) (settings.Configuration, error)
	List(ctx context.Context) ([]settings.Configuration, settings.Tier)
	Delete(ctx context.Context, id string) error
}

// TemplateResolver picks templates. *templates.Resolver implements it.
type TemplateResolver interface {
	Resolve(ctx context.Context, q templates.Query) (*templates.Template, templates.Tier, error)
}

// generateRequest is the wire form of a generation request. The credential
// is accepted here even though GenerationRequest never serializes it.
type generateRequest struct {
	providers.GenerationRequest
	APIKey string `json:"api_key,omitempty"`
}

func (g *generateRequest) build() *providers.GenerationRequest {
	req := g.GenerationRequest
	req.APIKey = g.APIKey
	return &req
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if !decode(w, r, &body) {
		return
	}
	if body.Provider == "" {
		badRequest(w, "provider is required", "provider")
		return
	}
	writeJSON(w, http.StatusOK, s.generator.GenerateContent(r.Context(), body.build()))
}

type batchRequest struct {
	Requests []generateRequest `json:"requests"`
}

type batchResponse struct {
	Results   []*providers.GenerationResponse `json:"results"`
	Succeeded int                             `json:"succeeded"`
	Failed    int                             `json:"failed"`
}

func (s *Server) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if !decode(w, r, &body) {
		return
	}
	if len(body.Requests) == 0 {
		badRequest(w, "requests must not be empty", "requests")
		return
	}
	if len(body.Requests) > MaxBatchSize {
		badRequest(w, fmt.Sprintf("at most %d requests per batch", MaxBatchSize), "requests")
		return
	}

	reqs := make([]*providers.GenerationRequest, len(body.Requests))
	for i := range body.Requests {
		reqs[i] = body.Requests[i].build()
	}

	resp := batchResponse{Results: s.generator.GenerateBatch(r.Context(), reqs)}
	for _, res := range resp.Results {
		if res.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type connectionResponse struct {
	OK        bool   `json:"ok"`
	Provider  string `json:"provider"`
	Model     string `json:"model,omitempty"`
	Message   string `json:"message"`
	LatencyMS int64  `json:"latency_ms"`
}

func (s *Server) handleConnectionTest(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if !decode(w, r, &body) {
		return
	}
	if body.Provider == "" {
		badRequest(w, "provider is required", "provider")
		return
	}

	result := s.generator.TestConnection(r.Context(), *body.build())
	writeJSON(w, http.StatusOK, connectionResponse{
		OK:        result.OK,
		Provider:  result.Provider,
		Model:     result.Model,
		Message:   result.Message,
		LatencyMS: result.Latency.Milliseconds(),
	})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": s.catalog.List()})
}

func (s *Server) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	live, _ := strconv.ParseBool(r.URL.Query().Get("live"))

	var (
		d  providers.ProviderDescriptor
		ok bool
	)
	if live {
		d, ok = s.catalog.WithLiveModels(r.Context(), id, r.URL.Query().Get("endpoint"))
	} else {
		d, ok = s.catalog.Get(id)
	}
	if !ok {
		writeError(w, http.StatusNotFound, ErrorTypeNotFound, fmt.Sprintf("unknown provider %q", id), "id")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type configurationsResponse struct {
	Configurations []settings.Configuration `json:"configurations"`
	Source         settings.Tier            `json:"source"`
}

func (s *Server) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	configs, tier := s.configs.List(r.Context())
	out := make([]settings.Configuration, len(configs))
	for i, c := range configs {
		out[i] = c.Redacted()
	}
	writeJSON(w, http.StatusOK, configurationsResponse{Configurations: out, Source: tier})
}

func (s *Server) handleSaveConfiguration(w http.ResponseWriter, r *http.Request) {
	var c settings.Configuration
	if !decode(w, r, &c) {
		return
	}
	saved, err := s.configs.Save(r.Context(), c)
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved.Redacted())
}

func (s *Server) handleDeleteConfiguration(w http.ResponseWriter, r *http.Request) {
	if err := s.configs.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeSettingsError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resolveResponse struct {
	Template *templates.Template `json:"template"`
	Tier     templates.Tier      `json:"tier"`
}

func (s *Server) handleResolveTemplate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ft := fields.FieldType(q.Get("field_type"))
	if !ft.Valid() {
		badRequest(w, fmt.Sprintf("unknown field type %q", ft), "field_type")
		return
	}

	t, tier, err := s.templates.Resolve(r.Context(), templates.Query{
		FieldType:  ft,
		Industry:   q.Get("industry"),
		Framework:  q.Get("framework"),
		TemplateID: q.Get("template_id"),
	})
	if err != nil {
		var storeErr *templates.StoreError
		if errors.As(err, &storeErr) {
			writeError(w, http.StatusServiceUnavailable, ErrorTypeServiceUnavailable, "template storage is unavailable", "")
			return
		}
		writeError(w, http.StatusInternalServerError, ErrorTypeServerError, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Template: t, Tier: tier})
}

type fieldTypeInfo struct {
	Name     fields.FieldType `json:"name"`
	Category fields.Category  `json:"category"`
	List     bool             `json:"list"`
}

func (s *Server) handleFieldTypes(w http.ResponseWriter, r *http.Request) {
	var types []fields.FieldType
	if c := r.URL.Query().Get("category"); c != "" {
		types = fields.InCategory(fields.Category(c))
	} else {
		types = fields.All()
	}

	out := make([]fieldTypeInfo, len(types))
	for i, ft := range types {
		out[i] = fieldTypeInfo{Name: ft, Category: ft.Category(), List: ft.IsList()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"field_types": out})
}
