package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/deeplooplabs/search-gateway/hook"
	"github.com/deeplooplabs/search-gateway/provider"
	"github.com/deeplooplabs/search-gateway/quota"
	"github.com/deeplooplabs/search-gateway/ratelimit"
	"github.com/deeplooplabs/search-gateway/registry"
	"github.com/deeplooplabs/search-gateway/searchcache"
)

type fakeProvider struct {
	calls   atomic.Int32
	payload string
	credits int
}

func (p *fakeProvider) Name() string { return "fake" }
func (p *fakeProvider) Search(ctx context.Context, q *provider.Query) (*provider.Result, error) {
	p.calls.Add(1)
	return &provider.Result{
		Payload:  json.RawMessage(p.payload),
		Credits:  p.credits,
		Provider: "fake",
	}, nil
}

func newTestHandler(prov provider.Provider, limiter ratelimit.Limiter, quotas quota.Manager) (*SearchHandler, searchcache.Cache) {
	config := searchcache.DefaultConfig()
	config.SweepInterval = 0
	cache := searchcache.New(config)

	reg := registry.NewMapKindRegistry()
	reg.SetFallback(prov)

	return NewSearchHandler(cache, reg, hook.NewRegistry(), limiter, quotas), cache
}

func doSearch(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSearchHandler_MissThenHit(t *testing.T) {
	prov := &fakeProvider{payload: `{"organic":[{"title":"Go"}],"credits":2}`, credits: 2}
	h, _ := newTestHandler(prov, nil, nil)

	body := `{"kind":"web","params":{"q":"golang"}}`

	// First request misses and goes to the provider
	w := doSearch(t, h, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Cache") != "MISS" {
		t.Errorf("expected X-Cache MISS, got %s", w.Header().Get("X-Cache"))
	}

	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Metadata.Cached {
		t.Error("expected first request to be uncached")
	}
	if resp.Metadata.Credits != 2 {
		t.Errorf("expected 2 credits on miss, got %d", resp.Metadata.Credits)
	}

	// Second request is served from the cache with zero cost attribution
	w = doSearch(t, h, `{"kind":"web","params":{"q":"  GOLANG "}}`)
	if w.Header().Get("X-Cache") != "HIT" {
		t.Errorf("expected X-Cache HIT, got %s", w.Header().Get("X-Cache"))
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Metadata.Cached {
		t.Error("expected second request to be cached")
	}
	if resp.Metadata.Credits != 0 || resp.Metadata.ElapsedMS != 0 {
		t.Errorf("expected zero cost attribution on hit, got credits=%d elapsed=%d",
			resp.Metadata.Credits, resp.Metadata.ElapsedMS)
	}
	if resp.Metadata.Cache.TotalHits != 1 {
		t.Errorf("expected 1 cache hit in stats, got %d", resp.Metadata.Cache.TotalHits)
	}

	if prov.calls.Load() != 1 {
		t.Errorf("expected exactly 1 provider call, got %d", prov.calls.Load())
	}
}

func TestSearchHandler_ValidatesRequest(t *testing.T) {
	h, _ := newTestHandler(&fakeProvider{payload: `{}`}, nil, nil)

	w := doSearch(t, h, `{"kind":"bogus","params":{"q":"x"}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad kind, got %d", w.Code)
	}

	w = doSearch(t, h, `{"kind":"web","params":{}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing q, got %d", w.Code)
	}

	w = doSearch(t, h, `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid body, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}
}

func TestSearchHandler_NoProvider(t *testing.T) {
	config := searchcache.DefaultConfig()
	config.SweepInterval = 0
	cache := searchcache.New(config)

	h := NewSearchHandler(cache, registry.NewMapKindRegistry(), hook.NewRegistry(), nil, nil)

	w := doSearch(t, h, `{"kind":"web","params":{"q":"x"}}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a provider, got %d", w.Code)
	}
}

func TestSearchHandler_RateLimit(t *testing.T) {
	limiter := ratelimit.NewTokenBucket(&ratelimit.Config{
		RequestsPerSecond: 0.001,
		Burst:             1,
		Enabled:           true,
	})
	h, _ := newTestHandler(&fakeProvider{payload: `{}`}, limiter, nil)

	w := doSearch(t, h, `{"kind":"web","params":{"q":"x"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", w.Code)
	}

	w = doSearch(t, h, `{"kind":"web","params":{"q":"y"}}`)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", w.Code)
	}
}

func TestSearchHandler_QuotaExceeded(t *testing.T) {
	quotas := quota.NewMemoryManager(&quota.Config{
		DefaultLimit: 1,
		ResetPeriod:  quota.Never,
		Enabled:      true,
	})
	h, _ := newTestHandler(&fakeProvider{payload: `{}`, credits: 5}, nil, quotas)

	// First miss is allowed and burns through the limit
	w := doSearch(t, h, `{"kind":"web","params":{"q":"first"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", w.Code)
	}

	// Second miss is refused; a hit on the first query still works
	w = doSearch(t, h, `{"kind":"web","params":{"q":"second"}}`)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 when quota exhausted, got %d", w.Code)
	}

	w = doSearch(t, h, `{"kind":"web","params":{"q":"first"}}`)
	if w.Code != http.StatusOK {
		t.Errorf("expected cache hit to bypass quota, got %d", w.Code)
	}
}

type denyAllHook struct{}

func (h *denyAllHook) Name() string { return "deny_all" }
func (h *denyAllHook) Authenticate(ctx context.Context, apiKey string) (bool, string, error) {
	return false, "", nil
}

func TestSearchHandler_AuthFailure(t *testing.T) {
	config := searchcache.DefaultConfig()
	config.SweepInterval = 0
	cache := searchcache.New(config)

	hooks := hook.NewRegistry()
	hooks.Register(&denyAllHook{})

	reg := registry.NewMapKindRegistry()
	reg.SetFallback(&fakeProvider{payload: `{}`})

	h := NewSearchHandler(cache, reg, hooks, nil, nil)

	w := doSearch(t, h, `{"kind":"web","params":{"q":"x"}}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

type captureAuditHook struct {
	records []*hook.AuditRecord
}

func (h *captureAuditHook) Name() string { return "capture_audit" }
func (h *captureAuditHook) OnSearch(ctx context.Context, record *hook.AuditRecord) {
	h.records = append(h.records, record)
}

func TestSearchHandler_AuditRecords(t *testing.T) {
	config := searchcache.DefaultConfig()
	config.SweepInterval = 0
	cache := searchcache.New(config)

	auditHook := &captureAuditHook{}
	hooks := hook.NewRegistry()
	hooks.Register(auditHook)

	reg := registry.NewMapKindRegistry()
	reg.SetFallback(&fakeProvider{payload: `{}`, credits: 3})

	h := NewSearchHandler(cache, reg, hooks, nil, nil)

	doSearch(t, h, `{"kind":"news","params":{"q":"headlines"}}`)

	if len(auditHook.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(auditHook.records))
	}
	record := auditHook.records[0]
	if record.Kind != "news" || record.Query != "headlines" || record.Credits != 3 {
		t.Errorf("unexpected audit record: %+v", record)
	}
	if record.RequestID == "" {
		t.Error("expected audit record to carry a request ID")
	}
}
