package handler

import (
	"encoding/json"
	"net/http"

	gw "github.com/deeplooplabs/search-gateway"
	"github.com/deeplooplabs/search-gateway/hook"
	"github.com/deeplooplabs/search-gateway/quota"
	"github.com/deeplooplabs/search-gateway/searchcache"
)

// StatsResponse is the JSON body of a stats response
type StatsResponse struct {
	Cache searchcache.Stats `json:"cache"`
	Usage *quota.Usage      `json:"usage,omitempty"`
}

// StatsHandler serves cache and usage statistics for the admin dashboard
type StatsHandler struct {
	cache  searchcache.Cache
	hooks  *hook.Registry
	quotas quota.Manager
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(cache searchcache.Cache, hooks *hook.Registry, quotas quota.Manager) *StatsHandler {
	return &StatsHandler{
		cache:  cache,
		hooks:  hooks,
		quotas: quotas,
	}
}

// ServeHTTP implements http.Handler
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if r.Method != http.MethodGet {
		writeError(w, r, h.hooks, gw.NewMethodNotAllowedError("method not allowed"))
		return
	}

	r, userID, err := authenticate(r, h.hooks)
	if err != nil {
		writeError(w, r, h.hooks, err)
		return
	}

	resp := &StatsResponse{Cache: h.cache.Stats()}

	if h.quotas != nil && userID != "" {
		if usage, err := h.quotas.GetUsage(r.Context(), userID); err == nil {
			resp.Usage = usage
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
