package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deeplooplabs/search-gateway/gateway"
	"github.com/deeplooplabs/search-gateway/hook"
	"github.com/deeplooplabs/search-gateway/registry"
	"github.com/deeplooplabs/search-gateway/searchcache"
	"github.com/stretchr/testify/require"
)

// TestEnvironment provides a complete test setup with gateway, mock provider,
// and an HTTP client pointed at the test server
type TestEnvironment struct {
	Server       *httptest.Server
	Gateway      *gateway.Gateway
	Registry     *registry.MapKindRegistry
	Cache        searchcache.Cache
	MockProvider *E2EMockProvider
	T            *testing.T
}

// NewTestEnvironment creates a new test environment with all necessary components
func NewTestEnvironment(t *testing.T, opts ...gateway.Option) *TestEnvironment {
	// Create mock provider serving every Google-backed kind
	mockProvider := NewE2EMockProvider()

	reg := registry.NewMapKindRegistry()
	reg.Register(mockProvider,
		searchcache.KindWeb,
		searchcache.KindImages,
		searchcache.KindNews,
		searchcache.KindBreach,
	)

	cache := searchcache.New(searchcache.DefaultConfig())

	allOpts := append([]gateway.Option{
		gateway.WithKindRegistry(reg),
		gateway.WithCache(cache),
	}, opts...)

	gw := gateway.New(allOpts...)

	server := httptest.NewServer(gw)

	env := &TestEnvironment{
		Server:       server,
		Gateway:      gw,
		Registry:     reg,
		Cache:        cache,
		MockProvider: mockProvider,
		T:            t,
	}

	t.Cleanup(func() {
		server.Close()
		cache.Stop()
	})

	return env
}

// NewTestEnvironmentWithAuth creates a test environment with authentication enabled
func NewTestEnvironmentWithAuth(t *testing.T, validKey string) *TestEnvironment {
	hooks := hook.NewRegistry()
	hooks.Register(&TestAuthHook{ValidKey: validKey})
	return NewTestEnvironment(t, gateway.WithHooks(hooks))
}

// Search posts a search request and decodes the response body
func (env *TestEnvironment) Search(kind string, params map[string]any, headers map[string]string) (*http.Response, map[string]any) {
	env.T.Helper()

	body, err := json.Marshal(map[string]any{"kind": kind, "params": params})
	require.NoError(env.T, err)

	req, err := http.NewRequest("POST", env.Server.URL+"/v1/search", bytes.NewReader(body))
	require.NoError(env.T, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(env.T, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(env.T, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

// TestAuthHook is a simple authentication hook for testing
type TestAuthHook struct {
	ValidKey string
}

func (h *TestAuthHook) Name() string {
	return "test-auth"
}

func (h *TestAuthHook) Authenticate(ctx context.Context, apiKey string) (bool, string, error) {
	// Strip "Bearer " prefix if present
	apiKey = strings.TrimPrefix(apiKey, "Bearer ")

	if apiKey == h.ValidKey {
		return true, "test-user", nil
	}
	return false, "", nil
}

var _ hook.AuthenticationHook = (*TestAuthHook)(nil)
