package gateway

import (
	"time"

	"github.com/deeplooplabs/search-gateway/hook"
	"github.com/deeplooplabs/search-gateway/quota"
	"github.com/deeplooplabs/search-gateway/ratelimit"
	"github.com/deeplooplabs/search-gateway/registry"
	"github.com/deeplooplabs/search-gateway/searchcache"
	"github.com/deeplooplabs/search-gateway/workflow"
)

// Option configures the Gateway
type Option func(*Gateway)

// CORSConfig configures cross-origin resource sharing
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns a permissive CORS configuration suitable for
// development
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         10 * time.Minute,
	}
}

// WithKindRegistry sets the search kind registry
func WithKindRegistry(reg registry.KindRegistry) Option {
	return func(g *Gateway) {
		g.kindRegistry = reg
	}
}

// WithCache sets the search result cache
func WithCache(cache searchcache.Cache) Option {
	return func(g *Gateway) {
		g.cache = cache
	}
}

// WithHooks sets the hook registry
func WithHooks(hooks *hook.Registry) Option {
	return func(g *Gateway) {
		g.hooks = hooks
	}
}

// WithHook registers a single hook
func WithHook(h hook.Hook) Option {
	return func(g *Gateway) {
		g.hooks.Register(h)
	}
}

// WithRateLimiter sets the per-user search rate limiter
func WithRateLimiter(limiter ratelimit.Limiter) Option {
	return func(g *Gateway) {
		g.rateLimiter = limiter
	}
}

// WithQuota sets the credit quota manager
func WithQuota(quotas quota.Manager) Option {
	return func(g *Gateway) {
		g.quotas = quotas
	}
}

// WithLLM sets the LLM used by the /v1/answer endpoint
func WithLLM(llm workflow.LLM) Option {
	return func(g *Gateway) {
		g.llm = llm
	}
}

// WithMetrics enables Prometheus metrics with the given namespace
func WithMetrics(namespace string) Option {
	return func(g *Gateway) {
		g.metrics = NewMetrics(namespace)
	}
}

// WithCORS enables CORS handling
func WithCORS(config *CORSConfig) Option {
	return func(g *Gateway) {
		g.cors = config
	}
}
