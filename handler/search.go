package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gw "github.com/deeplooplabs/search-gateway"
	"github.com/deeplooplabs/search-gateway/hook"
	"github.com/deeplooplabs/search-gateway/provider"
	"github.com/deeplooplabs/search-gateway/quota"
	"github.com/deeplooplabs/search-gateway/ratelimit"
	"github.com/deeplooplabs/search-gateway/registry"
	"github.com/deeplooplabs/search-gateway/searchcache"
)

// userIDKey is the request context key for the authenticated user
type userIDKey struct{}

// SearchRequest is the JSON body of a search request
type SearchRequest struct {
	Kind   searchcache.Kind `json:"kind"`
	Params map[string]any   `json:"params"`
}

// SearchResponse is the JSON body of a search response
type SearchResponse struct {
	Kind     searchcache.Kind `json:"kind"`
	Results  any              `json:"results"`
	Metadata *SearchMetadata  `json:"metadata"`
}

// SearchMetadata annotates a response with cache and cost attribution
type SearchMetadata struct {
	RequestID string            `json:"requestId"`
	Cached    bool              `json:"cached"`
	ElapsedMS int64             `json:"elapsedMs"`
	Credits   int               `json:"credits"`
	Provider  string            `json:"provider,omitempty"`
	Cache     searchcache.Stats `json:"cache"`
}

// SearchHandler handles search requests with cache-first dispatch
type SearchHandler struct {
	cache    searchcache.Cache
	registry registry.KindRegistry
	hooks    *hook.Registry
	limiter  ratelimit.Limiter
	quotas   quota.Manager
}

// NewSearchHandler creates a new search handler. Limiter and quota manager
// are optional; nil disables the corresponding check.
func NewSearchHandler(cache searchcache.Cache, reg registry.KindRegistry, hooks *hook.Registry, limiter ratelimit.Limiter, quotas quota.Manager) *SearchHandler {
	return &SearchHandler{
		cache:    cache,
		registry: reg,
		hooks:    hooks,
		limiter:  limiter,
		quotas:   quotas,
	}
}

// ServeHTTP implements http.Handler
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
	limitKey := userID
	if limitKey == "" {
		limitKey = r.RemoteAddr
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.hooks, gw.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if !req.Kind.Valid() {
		writeError(w, r, h.hooks, gw.NewValidationError(fmt.Sprintf("unsupported search kind: %q", req.Kind)))
		return
	}
	if q, _ := req.Params["q"].(string); q == "" {
		writeError(w, r, h.hooks, gw.NewValidationError("params.q is required"))
		return
	}

	if h.limiter != nil && !h.limiter.Allow(r.Context(), limitKey) {
		writeError(w, r, h.hooks, gw.NewRateLimitError("search rate limit exceeded"))
		return
	}

	outcome, err := fetchResult(r.Context(), h.cache, h.registry, h.hooks, h.quotas, userID, req.Kind, req.Params)
	if err != nil {
		writeError(w, r, h.hooks, err)
		return
	}

	metadata := &SearchMetadata{
		RequestID: reqCtx.RequestID,
		Cached:    outcome.Cached,
		ElapsedMS: outcome.ElapsedMS,
		Credits:   outcome.Credits,
		Provider:  outcome.Provider,
		Cache:     h.cache.Stats(),
	}

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

	if outcome.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&SearchResponse{
		Kind:     req.Kind,
		Results:  outcome.Value,
		Metadata: metadata,
	})
}

// fetchOutcome is the result of a cache-first fetch
type fetchOutcome struct {
	Value     any
	Cached    bool
	ElapsedMS int64
	Credits   int
	Provider  string
}

// fetchResult serves a search from the cache when possible, otherwise
// dispatches to the registered provider and populates the cache. Cache hits
// carry zero elapsed time and zero credits.
func fetchResult(ctx context.Context, cache searchcache.Cache, reg registry.KindRegistry, hooks *hook.Registry, quotas quota.Manager, userID string, kind searchcache.Kind, params map[string]any) (*fetchOutcome, error) {
	if value, found := cache.Get(kind, params); found {
		return &fetchOutcome{Value: value, Cached: true}, nil
	}

	if quotas != nil {
		hasQuota, _, err := quotas.CheckQuota(ctx, userID)
		if err != nil {
			return nil, gw.NewProviderError("quota check failed", err)
		}
		if !hasQuota {
			return nil, gw.NewQuotaExceededError("search credit quota exhausted")
		}
	}

	prov := reg.Resolve(kind)
	if prov == nil {
		return nil, gw.NewNotFoundError(fmt.Sprintf("no provider for search kind: %q", kind))
	}

	query := provider.NewQuery(kind, params)
	for _, hh := range hooks.SearchHooks() {
		if err := hh.BeforeSearch(ctx, query); err != nil {
			return nil, fmt.Errorf("hook error: %w", err)
		}
	}

	start := time.Now()
	result, err := prov.Search(ctx, query)
	if err != nil {
		return nil, gw.NewProviderError("provider error", err)
	}
	elapsed := time.Since(start)

	for _, hh := range hooks.SearchHooks() {
		if err := hh.AfterSearch(ctx, query, result); err != nil {
			return nil, fmt.Errorf("hook error: %w", err)
		}
	}

	cache.Set(kind, params, result.Payload)

	if quotas != nil {
		quotas.RecordCredits(ctx, userID, result.Credits)
	}

	return &fetchOutcome{
		Value:     result.Payload,
		ElapsedMS: elapsed.Milliseconds(),
		Credits:   result.Credits,
		Provider:  result.Provider,
	}, nil
}

// authenticate runs authentication hooks and stores the user ID in the
// request context
func authenticate(r *http.Request, hooks *hook.Registry) (*http.Request, string, error) {
	var userID string
	for _, hh := range hooks.AuthenticationHooks() {
		success, id, err := hh.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			return r, "", fmt.Errorf("authentication failed: %w", err)
		}
		if !success {
			return r, "", gw.NewAuthenticationError("authentication failed")
		}
		userID = id
		r = r.WithContext(context.WithValue(r.Context(), userIDKey{}, id))
	}
	return r, userID, nil
}

// audit notifies all audit hooks
func audit(ctx context.Context, hooks *hook.Registry, record *hook.AuditRecord) {
	for _, hh := range hooks.AuditHooks() {
		hh.OnSearch(ctx, record)
	}
}

func queryString(params map[string]any) string {
	q, _ := params["q"].(string)
	return q
}

// writeError writes a client-facing JSON error
func writeError(w http.ResponseWriter, r *http.Request, hooks *hook.Registry, err error) {
	searchErr, ok := err.(*gw.SearchError)
	if !ok {
		searchErr = gw.NewProviderError("internal error", err)
	}

	for _, hh := range hooks.ErrorHooks() {
		hh.OnError(r.Context(), err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(searchErr.Code)
	if encodeErr := json.NewEncoder(w).Encode(searchErr.ToResponse()); encodeErr != nil {
		fmt.Printf("failed to encode error response: %v\n", encodeErr)
	}
}
