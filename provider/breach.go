package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/deeplooplabs/search-gateway/searchcache"
)

// BreachProvider looks up accounts against a HaveIBeenPwned-compatible API
type BreachProvider struct {
	config *Config
	client *http.Client
}

// NewBreachProvider creates a new breach lookup provider
func NewBreachProvider(config *Config) *BreachProvider {
	if config == nil {
		config = NewConfig("hibp")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://haveibeenpwned.com/api/v3"
	}

	return &BreachProvider{
		config: config,
		client: config.GetHTTPClient(),
	}
}

// Name returns the provider name
func (p *BreachProvider) Name() string {
	return p.config.Name
}

// Search looks up breaches for the account in the query string
func (p *BreachProvider) Search(ctx context.Context, query *Query) (*Result, error) {
	if query.Kind != searchcache.KindBreach {
		return nil, fmt.Errorf("hibp: unsupported search kind %q", query.Kind)
	}
	if query.Q == "" {
		return nil, fmt.Errorf("hibp: account is required")
	}

	endpoint := p.config.BaseURL + "/breachedaccount/" + url.PathEscape(query.Q) + "?truncateResponse=false"

	resp, err := retryWithBackoff(ctx, p.config.RetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("hibp-api-key", p.config.APIKey)
		return p.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	// The API reports a clean account as 404
	if resp.StatusCode == http.StatusNotFound {
		return &Result{
			Payload:  []byte("[]"),
			Credits:  1,
			Provider: p.Name(),
		}, nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(payload))
	}

	return &Result{
		Payload:  payload,
		Credits:  1,
		Provider: p.Name(),
	}, nil
}

// Ensure BreachProvider implements Provider
var _ Provider = (*BreachProvider)(nil)
