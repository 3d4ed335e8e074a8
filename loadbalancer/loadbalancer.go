package loadbalancer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deeplooplabs/search-gateway/provider"
)

// Strategy defines the load balancing strategy
type Strategy int

const (
	// RoundRobin distributes searches evenly across providers
	RoundRobin Strategy = iota
	// Random selects a random provider for each search
	Random
	// LeastConnections selects the provider with fewest active searches
	LeastConnections
)

// unhealthyErrorThreshold is the consecutive-error count after which a
// provider is skipped until it recovers
const unhealthyErrorThreshold = 10

// providerState wraps a provider with request accounting and health state
type providerState struct {
	Provider          provider.Provider
	ActiveSearches    int32
	TotalSearches     uint64
	ConsecutiveErrors uint64
	Healthy           bool
}

// LoadBalancedProvider distributes searches across multiple providers and
// implements provider.Provider itself, so it can be registered for a kind
// like any single provider
type LoadBalancedProvider struct {
	name      string
	providers []*providerState
	strategy  Strategy
	counter   uint64 // For round-robin
	mu        sync.RWMutex
}

// Config holds load balancer configuration
type Config struct {
	Name      string
	Strategy  Strategy
	Providers []provider.Provider
}

// New creates a new load-balanced provider
func New(config *Config) (*LoadBalancedProvider, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if len(config.Providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	states := make([]*providerState, len(config.Providers))
	for i, p := range config.Providers {
		states[i] = &providerState{
			Provider: p,
			Healthy:  true,
		}
	}

	return &LoadBalancedProvider{
		name:      config.Name,
		providers: states,
		strategy:  config.Strategy,
	}, nil
}

// Name returns the provider name
func (lb *LoadBalancedProvider) Name() string {
	return lb.name
}

// Search dispatches the query to a provider chosen by the strategy
func (lb *LoadBalancedProvider) Search(ctx context.Context, query *provider.Query) (*provider.Result, error) {
	p, err := lb.selectProvider()
	if err != nil {
		return nil, err
	}

	atomic.AddInt32(&p.ActiveSearches, 1)
	atomic.AddUint64(&p.TotalSearches, 1)
	defer atomic.AddInt32(&p.ActiveSearches, -1)

	result, err := p.Provider.Search(ctx, query)
	if err != nil {
		if atomic.AddUint64(&p.ConsecutiveErrors, 1) >= unhealthyErrorThreshold {
			lb.mu.Lock()
			p.Healthy = false
			lb.mu.Unlock()
		}
		return nil, err
	}

	atomic.StoreUint64(&p.ConsecutiveErrors, 0)
	return result, nil
}

// MarkHealthy resets the health state of all providers
func (lb *LoadBalancedProvider) MarkHealthy() {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	for _, p := range lb.providers {
		p.Healthy = true
		atomic.StoreUint64(&p.ConsecutiveErrors, 0)
	}
}

// selectProvider selects a provider based on the load balancing strategy
func (lb *LoadBalancedProvider) selectProvider() (*providerState, error) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	healthy := make([]*providerState, 0, len(lb.providers))
	for _, p := range lb.providers {
		if p.Healthy {
			healthy = append(healthy, p)
		}
	}

	if len(healthy) == 0 {
		return nil, errors.New("no healthy providers available")
	}

	switch lb.strategy {
	case Random:
		return healthy[time.Now().UnixNano()%int64(len(healthy))], nil
	case LeastConnections:
		return lb.selectLeastConnections(healthy), nil
	default:
		count := atomic.AddUint64(&lb.counter, 1)
		return healthy[int(count-1)%len(healthy)], nil
	}
}

// selectLeastConnections selects the provider with fewest active searches
func (lb *LoadBalancedProvider) selectLeastConnections(providers []*providerState) *providerState {
	selected := providers[0]
	minActive := atomic.LoadInt32(&selected.ActiveSearches)

	for i := 1; i < len(providers); i++ {
		active := atomic.LoadInt32(&providers[i].ActiveSearches)
		if active < minActive {
			minActive = active
			selected = providers[i]
		}
	}

	return selected
}

// Ensure LoadBalancedProvider implements Provider
var _ provider.Provider = (*LoadBalancedProvider)(nil)
