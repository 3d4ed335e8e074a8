package registry

import (
	"context"
	"testing"

	"github.com/deeplooplabs/search-gateway/provider"
	"github.com/deeplooplabs/search-gateway/searchcache"
)

type stubProvider struct {
	name string
}

func (p *stubProvider) Name() string { return p.name }
func (p *stubProvider) Search(ctx context.Context, q *provider.Query) (*provider.Result, error) {
	return &provider.Result{Provider: p.name}, nil
}

func TestMapKindRegistry_Resolve(t *testing.T) {
	r := NewMapKindRegistry()
	serper := &stubProvider{name: "serper"}
	hibp := &stubProvider{name: "hibp"}

	r.Register(serper, searchcache.KindWeb, searchcache.KindImages, searchcache.KindNews)
	r.Register(hibp, searchcache.KindBreach)

	if got := r.Resolve(searchcache.KindWeb); got != serper {
		t.Errorf("expected serper for web, got %v", got)
	}
	if got := r.Resolve(searchcache.KindBreach); got != hibp {
		t.Errorf("expected hibp for breach, got %v", got)
	}
	if got := r.Resolve(searchcache.KindMaps); got != nil {
		t.Errorf("expected nil for unregistered kind, got %v", got)
	}
}

func TestMapKindRegistry_Fallback(t *testing.T) {
	r := NewMapKindRegistry()
	fallback := &stubProvider{name: "fallback"}
	r.SetFallback(fallback)

	if got := r.Resolve(searchcache.KindMaps); got != fallback {
		t.Errorf("expected fallback provider, got %v", got)
	}
}
