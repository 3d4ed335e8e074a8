package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/deeplooplabs/search-gateway/searchcache"
)

// endpointPaths maps search kinds to Serper API paths
var endpointPaths = map[searchcache.Kind]string{
	searchcache.KindWeb:      "/search",
	searchcache.KindImages:   "/images",
	searchcache.KindVideos:   "/videos",
	searchcache.KindPlaces:   "/places",
	searchcache.KindMaps:     "/maps",
	searchcache.KindNews:     "/news",
	searchcache.KindScholar:  "/scholar",
	searchcache.KindShopping: "/shopping",
}

// SerperProvider sends searches to a Serper-compatible API
type SerperProvider struct {
	config *Config
	client *http.Client
}

// NewSerperProvider creates a new Serper provider
func NewSerperProvider(config *Config) *SerperProvider {
	if config == nil {
		config = NewConfig("serper")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://google.serper.dev"
	}

	return &SerperProvider{
		config: config,
		client: config.GetHTTPClient(),
	}
}

// Name returns the provider name
func (p *SerperProvider) Name() string {
	return p.config.Name
}

// Search executes a search against the Serper API
func (p *SerperProvider) Search(ctx context.Context, query *Query) (*Result, error) {
	path, ok := endpointPaths[query.Kind]
	if !ok {
		return nil, fmt.Errorf("serper: unsupported search kind %q", query.Kind)
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	resp, err := retryWithBackoff(ctx, p.config.RetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-KEY", p.config.APIKey)
		return p.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(payload))
	}

	return &Result{
		Payload:  payload,
		Credits:  extractCredits(payload),
		Provider: p.Name(),
	}, nil
}

// extractCredits reads the provider-reported credit count from the payload.
// A payload without a credits field counts as one credit per request.
func extractCredits(payload []byte) int {
	var envelope struct {
		Credits int `json:"credits"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Credits == 0 {
		return 1
	}
	return envelope.Credits
}

// Ensure SerperProvider implements Provider
var _ Provider = (*SerperProvider)(nil)
