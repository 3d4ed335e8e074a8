package provider

import (
	"net/http"
	"time"
)

// Config contains provider configuration
type Config struct {
	// Name is the provider name
	Name string

	// BaseURL is the base URL for the provider API
	BaseURL string

	// APIKey is the authentication key
	APIKey string

	// HTTPClient is the HTTP client to use (optional)
	HTTPClient *http.Client

	// Timeout is the total request timeout (optional, default: 30s)
	Timeout time.Duration

	// ConnectionPool settings
	MaxIdleConns        int           // Maximum idle connections (default: 100)
	MaxConnsPerHost     int           // Maximum connections per host (default: 10)
	IdleConnTimeout     time.Duration // Idle connection timeout (default: 90s)
	MaxIdleConnsPerHost int           // Maximum idle connections per host (default: 10)

	// Retry configuration
	RetryConfig *RetryConfig
}

// NewConfig creates a new provider configuration with the given name
func NewConfig(name string) *Config {
	return &Config{
		Name:                name,
		Timeout:             30 * time.Second,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		RetryConfig:         DefaultRetryConfig(),
	}
}

// WithBaseURL sets the base URL
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = baseURL
	return c
}

// WithAPIKey sets the API key
func (c *Config) WithAPIKey(apiKey string) *Config {
	c.APIKey = apiKey
	return c
}

// WithTimeout sets the timeout
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRetryConfig sets the retry configuration
func (c *Config) WithRetryConfig(retryConfig *RetryConfig) *Config {
	c.RetryConfig = retryConfig
	return c
}

// WithHTTPClient sets the HTTP client
func (c *Config) WithHTTPClient(client *http.Client) *Config {
	c.HTTPClient = client
	return c
}

// GetHTTPClient returns the HTTP client, creating a default one if not set
func (c *Config) GetHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	transport := &http.Transport{
		MaxIdleConns:        c.MaxIdleConns,
		MaxConnsPerHost:     c.MaxConnsPerHost,
		MaxIdleConnsPerHost: c.MaxIdleConnsPerHost,
		IdleConnTimeout:     c.IdleConnTimeout,
		DisableKeepAlives:   false,
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}
