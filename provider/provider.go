package provider

import (
	"context"
	"encoding/json"

	"github.com/deeplooplabs/search-gateway/searchcache"
)

// Provider defines the interface for executing searches against an upstream
// search API
type Provider interface {
	// Name returns the provider name
	Name() string
	// Search executes a search and returns the raw result payload
	Search(ctx context.Context, query *Query) (*Result, error)
}

// Query is the unified search request sent to providers
type Query struct {
	Kind        searchcache.Kind `json:"-"`
	Q           string           `json:"q"`
	Num         int              `json:"num,omitempty"`
	GL          string           `json:"gl,omitempty"`
	HL          string           `json:"hl,omitempty"`
	Autocorrect *bool            `json:"autocorrect,omitempty"`
	TBS         string           `json:"tbs,omitempty"`
	Location    string           `json:"location,omitempty"`
	Page        int              `json:"page,omitempty"`
}

// NewQuery creates a query from a caller parameter bag. Unrecognized fields
// are ignored; the cache applies its own normalization independently.
func NewQuery(kind searchcache.Kind, params map[string]any) *Query {
	q := &Query{Kind: kind}

	if s, ok := params["q"].(string); ok {
		q.Q = s
	}
	if n, ok := numParam(params["num"]); ok {
		q.Num = n
	}
	if s, ok := params["gl"].(string); ok {
		q.GL = s
	}
	if s, ok := params["hl"].(string); ok {
		q.HL = s
	}
	if b, ok := params["autocorrect"].(bool); ok {
		q.Autocorrect = &b
	}
	if s, ok := params["tbs"].(string); ok {
		q.TBS = s
	}
	if s, ok := params["location"].(string); ok {
		q.Location = s
	}
	if n, ok := numParam(params["page"]); ok {
		q.Page = n
	}

	return q
}

func numParam(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Result is the provider response. Payload is opaque to the rest of the
// gateway; only the provider knows its structure.
type Result struct {
	Payload  json.RawMessage `json:"payload"`
	Credits  int             `json:"credits"`
	Provider string          `json:"provider"`
}
