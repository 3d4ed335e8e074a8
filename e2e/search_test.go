package e2e

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestE2E_SearchMissThenHit(t *testing.T) {
	env := NewTestEnvironment(t)

	params := map[string]any{"q": "Golang Concurrency"}

	resp, body := env.Search("web", params, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	metadata := body["metadata"].(map[string]any)
	assert.False(t, metadata["cached"].(bool))
	assert.Equal(t, float64(1), metadata["credits"])
	assert.Equal(t, "e2e-mock", metadata["provider"])
	require.Equal(t, 1, env.MockProvider.Calls())

	// Same query with different casing hits the cache
	resp, body = env.Search("web", map[string]any{"q": "golang concurrency"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	metadata = body["metadata"].(map[string]any)
	assert.True(t, metadata["cached"].(bool))
	assert.Equal(t, float64(0), metadata["credits"])
	assert.Equal(t, float64(0), metadata["elapsedMs"])
	assert.Equal(t, 1, env.MockProvider.Calls(), "cache hit must not reach the provider")
}

func TestE2E_KindsAreCachedSeparately(t *testing.T) {
	env := NewTestEnvironment(t)

	params := map[string]any{"q": "eiffel tower"}

	resp, _ := env.Search("web", params, nil)
	require.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	resp, _ = env.Search("images", params, nil)
	require.Equal(t, "MISS", resp.Header.Get("X-Cache"), "different kind must not share cache entries")

	require.Equal(t, 2, env.MockProvider.Calls())
}

func TestE2E_ParamDefaultsShareCacheEntry(t *testing.T) {
	env := NewTestEnvironment(t)

	resp, _ := env.Search("news", map[string]any{"q": "rates"}, nil)
	require.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	// Explicit defaults normalize to the same key as omitted params
	resp, _ = env.Search("news", map[string]any{
		"q": "rates", "num": 10, "gl": "us", "hl": "en", "page": 1,
	}, nil)
	require.Equal(t, "HIT", resp.Header.Get("X-Cache"))
}

func TestE2E_ValidationErrors(t *testing.T) {
	env := NewTestEnvironment(t)

	resp, body := env.Search("teleport", map[string]any{"q": "x"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errDetail := body["error"].(map[string]any)
	assert.Equal(t, "invalid_request_error", errDetail["type"])

	resp, _ = env.Search("web", map[string]any{}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestE2E_ProviderFailure(t *testing.T) {
	env := NewTestEnvironment(t)
	env.MockProvider.SetError("upstream exploded")

	resp, body := env.Search("web", map[string]any{"q": "boom"}, nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	errDetail := body["error"].(map[string]any)
	assert.Equal(t, "api_error", errDetail["type"])

	// Failed searches must not be cached
	env.MockProvider.ClearError()
	resp, _ = env.Search("web", map[string]any{"q": "boom"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
}

func TestE2E_Authentication(t *testing.T) {
	env := NewTestEnvironmentWithAuth(t, "secret-key")

	resp, _ := env.Search("web", map[string]any{"q": "hello"}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.Search("web", map[string]any{"q": "hello"}, map[string]string{
		"Authorization": "Bearer secret-key",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestE2E_StatsEndpoint(t *testing.T) {
	env := NewTestEnvironment(t)

	env.Search("web", map[string]any{"q": "one"}, nil)
	env.Search("web", map[string]any{"q": "one"}, nil)
	env.Search("web", map[string]any{"q": "two"}, nil)

	resp, err := http.Get(env.Server.URL + "/v1/search/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := env.Cache.Stats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, uint64(1), stats.TotalHits)
	assert.Equal(t, uint64(2), stats.TotalMisses)
}
