package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/deeplooplabs/search-gateway/provider"
)

// E2EMockProvider is a unified mock search provider for all E2E tests
type E2EMockProvider struct {
	mu sync.Mutex

	// Configuration for responses
	payload json.RawMessage
	credits int
	delay   time.Duration

	// Error simulation
	shouldError bool
	errorMsg    string

	// Call tracking
	calls     int
	lastQuery *provider.Query
}

// NewE2EMockProvider creates a new mock provider with default configuration
func NewE2EMockProvider() *E2EMockProvider {
	payload, _ := json.Marshal(map[string]any{
		"organic": []map[string]any{
			{"title": "Mock result", "link": "https://example.com", "snippet": "A mock search result"},
		},
	})
	return &E2EMockProvider{
		payload: payload,
		credits: 1,
	}
}

// Name returns the provider name
func (m *E2EMockProvider) Name() string {
	return "e2e-mock"
}

// Search returns the configured payload
func (m *E2EMockProvider) Search(ctx context.Context, q *provider.Query) (*provider.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastQuery = q

	if m.shouldError {
		return nil, fmt.Errorf("%s", m.errorMsg)
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return &provider.Result{
		Payload:  m.payload,
		Credits:  m.credits,
		Provider: m.Name(),
	}, nil
}

// SetPayload configures the response payload
func (m *E2EMockProvider) SetPayload(payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload, _ = json.Marshal(payload)
}

// SetCredits configures the per-search credit cost
func (m *E2EMockProvider) SetCredits(credits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credits = credits
}

// SetError configures the provider to fail
func (m *E2EMockProvider) SetError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldError = true
	m.errorMsg = msg
}

// ClearError disables error simulation
func (m *E2EMockProvider) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldError = false
}

// Calls returns the number of Search invocations
func (m *E2EMockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastQuery returns the most recent query the provider received
func (m *E2EMockProvider) LastQuery() *provider.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

// Ensure E2EMockProvider implements the interface
var _ provider.Provider = (*E2EMockProvider)(nil)
