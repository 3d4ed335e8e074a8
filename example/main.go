package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	searchgateway "github.com/deeplooplabs/search-gateway"
	"github.com/deeplooplabs/search-gateway/gateway"
	"github.com/deeplooplabs/search-gateway/hook"
	"github.com/deeplooplabs/search-gateway/provider"
	"github.com/deeplooplabs/search-gateway/quota"
	"github.com/deeplooplabs/search-gateway/ratelimit"
	"github.com/deeplooplabs/search-gateway/registry"
	"github.com/deeplooplabs/search-gateway/searchcache"
	"github.com/deeplooplabs/search-gateway/workflow"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using system environment variables")
	} else {
		slog.Info("Loaded .env file")
	}

	serperKey := os.Getenv("SERPER_API_KEY")
	hibpKey := os.Getenv("HIBP_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")
	openaiBase := os.Getenv("OPENAI_BASE_URL")
	llmModel := os.Getenv("LLM_MODEL")
	slog.Info("Configuration", "OPENAI_BASE_URL", openaiBase, "LLM_MODEL", llmModel)

	// Serper-style provider for all Google-backed kinds
	serper := provider.NewSerperProvider(
		provider.NewConfig("serper").
			WithBaseURL("https://google.serper.dev").
			WithAPIKey(serperKey).
			WithTimeout(30 * time.Second),
	)

	// HaveIBeenPwned-style provider for the breach kind
	breach := provider.NewBreachProvider(
		provider.NewConfig("hibp").
			WithBaseURL("https://haveibeenpwned.com/api/v3").
			WithAPIKey(hibpKey).
			WithTimeout(30 * time.Second),
	)

	// Kind registry
	reg := registry.NewMapKindRegistry()
	reg.Register(serper,
		searchcache.KindWeb,
		searchcache.KindImages,
		searchcache.KindVideos,
		searchcache.KindPlaces,
		searchcache.KindMaps,
		searchcache.KindNews,
		searchcache.KindScholar,
		searchcache.KindShopping,
	)
	reg.Register(breach, searchcache.KindBreach)

	// Search result cache: 1000 entries, 30 day TTL, hourly sweep
	cache := searchcache.New(searchcache.DefaultConfig())
	defer cache.Stop()

	// Per-user limits
	limiter := ratelimit.NewTokenBucket(&ratelimit.Config{
		RequestsPerSecond: 10,
		Burst:             20,
		Enabled:           true,
	})
	quotas := quota.NewMemoryManager(&quota.Config{
		DefaultLimit: 2500,
		ResetPeriod:  quota.Monthly,
		Enabled:      true,
	})

	// Hooks: API-key auth with brute-force lockout, audit logging
	hooks := hook.NewRegistry()
	hooks.Register(
		&hook.APIKeyHook{
			Keys:         map[string]string{os.Getenv("GATEWAY_API_KEY"): "default"},
			LoginLimiter: ratelimit.NewLoginLimiter(ratelimit.DefaultLoginConfig()),
		},
		&AuditLogHook{},
		&ErrorLogHook{},
	)

	opts := []gateway.Option{
		gateway.WithKindRegistry(reg),
		gateway.WithCache(cache),
		gateway.WithRateLimiter(limiter),
		gateway.WithQuota(quotas),
		gateway.WithHooks(hooks),
		gateway.WithCORS(gateway.DefaultCORSConfig()),
		gateway.WithMetrics("searchgateway"),
	}

	// AI answers are optional; enabled when an OpenAI-compatible backend is set
	if openaiKey != "" {
		opts = append(opts, gateway.WithLLM(workflow.NewOpenAIClient(openaiKey, openaiBase, llmModel)))
	}

	gw := gateway.New(opts...)

	// Start server
	slog.Info("Search Gateway listening on :8083")
	log.Fatal(http.ListenAndServe(":8083", gw))
}

// AuditLogHook writes one structured log line per completed search
type AuditLogHook struct{}

func (h *AuditLogHook) Name() string {
	return "audit-log"
}

func (h *AuditLogHook) OnSearch(ctx context.Context, record *hook.AuditRecord) {
	slog.InfoContext(ctx, "[Hook] OnSearch",
		"request_id", record.RequestID,
		"user_id", record.UserID,
		"kind", record.Kind,
		"query", record.Query,
		"cached", record.Cached,
		"credits", record.Credits,
		"elapsed_ms", record.ElapsedMS,
		"provider", record.Provider,
	)
}

var _ hook.AuditHook = new(AuditLogHook)

// ErrorLogHook logs request errors
type ErrorLogHook struct{}

func (h *ErrorLogHook) Name() string {
	return "error-log"
}

func (h *ErrorLogHook) OnError(ctx context.Context, err error) {
	if _, ok := err.(*searchgateway.SearchError); ok {
		slog.WarnContext(ctx, "[Hook] OnError", "error", err)
		return
	}
	slog.ErrorContext(ctx, "[Hook] OnError", "error", err)
}

var _ hook.ErrorHook = new(ErrorLogHook)
