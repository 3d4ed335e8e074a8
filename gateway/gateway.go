package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deeplooplabs/search-gateway/handler"
	"github.com/deeplooplabs/search-gateway/hook"
	"github.com/deeplooplabs/search-gateway/quota"
	"github.com/deeplooplabs/search-gateway/ratelimit"
	"github.com/deeplooplabs/search-gateway/registry"
	"github.com/deeplooplabs/search-gateway/searchcache"
	"github.com/deeplooplabs/search-gateway/workflow"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway is the main HTTP handler
type Gateway struct {
	kindRegistry registry.KindRegistry
	hooks        *hook.Registry
	mux          *http.ServeMux
	cors         *CORSConfig
	metrics      *Metrics
	cache        searchcache.Cache
	rateLimiter  ratelimit.Limiter
	quotas       quota.Manager
	llm          workflow.LLM
}

// New creates a new gateway with default options
func New(opts ...Option) *Gateway {
	// Default configuration
	g := &Gateway{
		kindRegistry: registry.NewMapKindRegistry(),
		hooks:        hook.NewRegistry(),
		mux:          http.NewServeMux(),
	}

	// Apply options
	for _, opt := range opts {
		opt(g)
	}

	if g.cache == nil {
		g.cache = searchcache.New(searchcache.DefaultConfig())
	}

	// Feed provider-level counters from audit records
	if g.metrics != nil {
		g.hooks.Register(&metricsHook{metrics: g.metrics})
	}

	// Setup routes
	g.setupRoutes()

	return g
}

func (g *Gateway) setupRoutes() {
	// Search endpoint
	searchHandler := handler.NewSearchHandler(g.cache, g.kindRegistry, g.hooks, g.rateLimiter, g.quotas)
	g.mux.Handle("/v1/search", g.instrument("search", searchHandler))

	// Cache/usage statistics for the admin dashboard
	statsHandler := handler.NewStatsHandler(g.cache, g.hooks, g.quotas)
	g.mux.Handle("/v1/search/stats", g.instrument("stats", statsHandler))

	// AI answer endpoint (if an LLM is configured)
	if g.llm != nil {
		answerHandler := handler.NewAnswerHandler(g.cache, g.kindRegistry, g.hooks, g.quotas, workflow.NewEngine(g.llm))
		g.mux.Handle("/v1/answer", g.instrument("answer", answerHandler))
	}

	// Health check
	g.mux.HandleFunc("/health", g.handleHealth)

	// Metrics endpoint (if metrics enabled)
	if g.metrics != nil {
		g.mux.Handle("/metrics", promhttp.Handler())
	}

	// 404 for unmatched routes
	g.mux.HandleFunc("/", g.handleNotFound)
}

// instrument wraps a handler with request metrics
func (g *Gateway) instrument(endpoint string, next http.Handler) http.Handler {
	if g.metrics == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.metrics.ActiveRequests.Inc()
		defer g.metrics.ActiveRequests.Dec()

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		g.metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, fmt.Sprintf("%d", recorder.status)).Inc()
		g.metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())

		switch recorder.Header().Get("X-Cache") {
		case "HIT":
			g.metrics.CacheHits.WithLabelValues(endpoint).Inc()
		case "MISS":
			g.metrics.CacheMisses.WithLabelValues(endpoint).Inc()
		}

		if recorder.status == http.StatusTooManyRequests {
			g.metrics.RateLimitExceeded.WithLabelValues(endpoint).Inc()
		}
	})
}

// metricsHook feeds provider-level counters from audit records
type metricsHook struct {
	metrics *Metrics
}

func (h *metricsHook) Name() string { return "metrics" }

func (h *metricsHook) OnSearch(ctx context.Context, record *hook.AuditRecord) {
	if record.Cached {
		return
	}
	h.metrics.ProviderRequestTotal.WithLabelValues(record.Provider, record.Kind, "ok").Inc()
	h.metrics.CreditsUsed.WithLabelValues(record.Provider, record.Kind).Add(float64(record.Credits))
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// ServeHTTP implements http.Handler
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.cors != nil {
		origin := r.Header.Get("Origin")

		// Check if origin is allowed
		if g.isOriginAllowed(origin) {
			// Set CORS headers
			if len(g.cors.AllowedOrigins) > 0 && g.cors.AllowedOrigins[0] == "*" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				g.handlePreflight(w, r)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			// Set other CORS headers
			if g.cors.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if len(g.cors.ExposedHeaders) > 0 {
				w.Header().Set("Access-Control-Expose-Headers", strings.Join(g.cors.ExposedHeaders, ", "))
			}
		}
	}

	g.mux.ServeHTTP(w, r)
}

// isOriginAllowed checks if the origin is allowed
func (g *Gateway) isOriginAllowed(origin string) bool {
	if len(g.cors.AllowedOrigins) == 0 {
		return false
	}

	for _, allowed := range g.cors.AllowedOrigins {
		if allowed == "*" {
			return true
		}
		if allowed == origin {
			return true
		}
	}

	return false
}

// handlePreflight handles OPTIONS preflight requests
func (g *Gateway) handlePreflight(w http.ResponseWriter, r *http.Request) {
	// Set allowed methods
	if len(g.cors.AllowedMethods) > 0 {
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(g.cors.AllowedMethods, ", "))
	} else {
		// If no methods specified, allow the requested method
		if method := r.Header.Get("Access-Control-Request-Method"); method != "" {
			w.Header().Set("Access-Control-Allow-Methods", method)
		}
	}

	// Set allowed headers
	if len(g.cors.AllowedHeaders) > 0 {
		if g.cors.AllowedHeaders[0] == "*" {
			// Echo back the requested headers
			if headers := r.Header.Get("Access-Control-Request-Headers"); headers != "" {
				w.Header().Set("Access-Control-Allow-Headers", headers)
			}
		} else {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(g.cors.AllowedHeaders, ", "))
		}
	}

	// Set max age
	if g.cors.MaxAge > 0 {
		w.Header().Set("Access-Control-Max-Age", formatDuration(g.cors.MaxAge))
	}

	// Set allow credentials
	if g.cors.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
}

// formatDuration converts a duration to seconds for Max-Age header
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.0f", d.Seconds())
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (g *Gateway) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":{"message":"Not found","type":"invalid_request_error"}}`))
}
