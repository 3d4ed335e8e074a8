package registry

import (
	"github.com/deeplooplabs/search-gateway/provider"
	"github.com/deeplooplabs/search-gateway/searchcache"
)

// KindRegistry resolves search kinds to providers
type KindRegistry interface {
	// Resolve returns the provider for a given search kind, or nil when no
	// provider serves it
	Resolve(kind searchcache.Kind) provider.Provider
}

// MapKindRegistry is an in-memory kind registry
type MapKindRegistry struct {
	providers map[searchcache.Kind]provider.Provider
	fallback  provider.Provider
}

// NewMapKindRegistry creates a new map-based kind registry
func NewMapKindRegistry() *MapKindRegistry {
	return &MapKindRegistry{
		providers: make(map[searchcache.Kind]provider.Provider),
	}
}

// Register registers a provider for one or more search kinds
func (r *MapKindRegistry) Register(prov provider.Provider, kinds ...searchcache.Kind) {
	for _, kind := range kinds {
		r.providers[kind] = prov
	}
}

// SetFallback sets the provider used for kinds without an explicit registration
func (r *MapKindRegistry) SetFallback(prov provider.Provider) {
	r.fallback = prov
}

// Resolve returns the provider for a given search kind
func (r *MapKindRegistry) Resolve(kind searchcache.Kind) provider.Provider {
	if prov, ok := r.providers[kind]; ok {
		return prov
	}
	return r.fallback
}
