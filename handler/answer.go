package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	gw "github.com/deeplooplabs/search-gateway"
	"github.com/deeplooplabs/search-gateway/hook"
	"github.com/deeplooplabs/search-gateway/quota"
	"github.com/deeplooplabs/search-gateway/registry"
	"github.com/deeplooplabs/search-gateway/searchcache"
	"github.com/deeplooplabs/search-gateway/workflow"
)

// AnswerRequest is the JSON body of an answer request
type AnswerRequest struct {
	Kind   searchcache.Kind `json:"kind"`
	Params map[string]any   `json:"params"`
}

// AnswerResponse carries the generated answer with its supporting search
type AnswerResponse struct {
	Answer    string              `json:"answer"`
	Reasoning string              `json:"reasoning,omitempty"`
	Artifacts []workflow.Artifact `json:"artifacts,omitempty"`
	Results   any                 `json:"results"`
	Metadata  *SearchMetadata     `json:"metadata"`
}

// answerPrompt instructs the model to summarize search results. The search
// payload is spliced in via the workflow input placeholder.
const answerPrompt = `Summarize the following search results for the user.
Wrap any internal reasoning in <thinking> tags and any generated code in
<artifact type="..." title="..."> tags.

Search results:
{{input}}`

// AnswerHandler answers a query by searching (cache-first) and summarizing
// the results with an LLM workflow
type AnswerHandler struct {
	cache    searchcache.Cache
	registry registry.KindRegistry
	hooks    *hook.Registry
	quotas   quota.Manager
	engine   *workflow.Engine
}

// NewAnswerHandler creates a new answer handler
func NewAnswerHandler(cache searchcache.Cache, reg registry.KindRegistry, hooks *hook.Registry, quotas quota.Manager, engine *workflow.Engine) *AnswerHandler {
	return &AnswerHandler{
		cache:    cache,
		registry: reg,
		hooks:    hooks,
		quotas:   quotas,
		engine:   engine,
	}
}

// ServeHTTP implements http.Handler
func (h *AnswerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if r.Method != http.MethodPost {
		writeError(w, r, h.hooks, gw.NewMethodNotAllowedError("method not allowed"))
		return
	}

	reqCtx := gw.NewContext(r)

	r, userID, err := authenticate(r, h.hooks)
	if err != nil {
		writeError(w, r, h.hooks, err)
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.hooks, gw.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if req.Kind == "" {
		req.Kind = searchcache.KindWeb
	}
	if !req.Kind.Valid() {
		writeError(w, r, h.hooks, gw.NewValidationError(fmt.Sprintf("unsupported search kind: %q", req.Kind)))
		return
	}
	if q, _ := req.Params["q"].(string); q == "" {
		writeError(w, r, h.hooks, gw.NewValidationError("params.q is required"))
		return
	}

	outcome, err := fetchResult(r.Context(), h.cache, h.registry, h.hooks, h.quotas, userID, req.Kind, req.Params)
	if err != nil {
		writeError(w, r, h.hooks, err)
		return
	}

	results, err := h.engine.RunSequence(r.Context(), payloadString(outcome.Value), []workflow.Step{
		{Name: "summarize", Prompt: answerPrompt},
	})
	if err != nil {
		writeError(w, r, h.hooks, gw.NewProviderError("answer generation failed", err))
		return
	}

	parsed := workflow.Parse(results[len(results)-1].Output)

	audit(r.Context(), h.hooks, &hook.AuditRecord{
		RequestID: reqCtx.RequestID,
		UserID:    userID,
		Kind:      string(req.Kind),
		Query:     queryString(req.Params),
		Cached:    outcome.Cached,
		Credits:   outcome.Credits,
		ElapsedMS: outcome.ElapsedMS,
		Provider:  outcome.Provider,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&AnswerResponse{
		Answer:    parsed.Text,
		Reasoning: parsed.Reasoning,
		Artifacts: parsed.Artifacts,
		Results:   outcome.Value,
		Metadata: &SearchMetadata{
			RequestID: reqCtx.RequestID,
			Cached:    outcome.Cached,
			ElapsedMS: outcome.ElapsedMS,
			Credits:   outcome.Credits,
			Provider:  outcome.Provider,
			Cache:     h.cache.Stats(),
		},
	})
}

// payloadString renders the cached value for prompt splicing
func payloadString(value any) string {
	switch v := value.(type) {
	case json.RawMessage:
		return string(v)
	case []byte:
		return string(v)
	case string:
		return v
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(raw)
}
