package hook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deeplooplabs/search-gateway/provider"
)

// Hook is the base interface for all hooks
type Hook interface {
	// Name returns the unique name of this hook
	Name() string
}

// AuthenticationHook is called to authenticate API keys
type AuthenticationHook interface {
	Hook
	// Authenticate validates the API key and returns (success, userID, error)
	Authenticate(ctx context.Context, apiKey string) (bool, string, error)
}

// SearchHook is called before/after dispatching a search to a provider
type SearchHook interface {
	Hook
	// BeforeSearch is called before dispatching (can modify the query)
	BeforeSearch(ctx context.Context, query *provider.Query) error
	// AfterSearch is called after a provider returns a result
	AfterSearch(ctx context.Context, query *provider.Query, result *provider.Result) error
}

// AuditHook receives a record for every completed search request
type AuditHook interface {
	Hook
	// OnSearch is called once per request after the response is decided
	OnSearch(ctx context.Context, record *AuditRecord)
}

// ErrorHook is called when an error occurs
type ErrorHook interface {
	Hook
	// OnError is called when an error occurs during request processing
	OnError(ctx context.Context, err error)
}

// AuditRecord captures what the admin dashboard's audit log needs per search
type AuditRecord struct {
	RequestID string
	UserID    string
	Kind      string
	Query     string
	Cached    bool
	Credits   int
	ElapsedMS int64
	Provider  string
}

// Registry manages registered hooks
type Registry struct {
	hooks               []Hook
	authenticationHooks []AuthenticationHook
	searchHooks         []SearchHook
	auditHooks          []AuditHook
	errorHooks          []ErrorHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		hooks:               make([]Hook, 0),
		authenticationHooks: make([]AuthenticationHook, 0),
		searchHooks:         make([]SearchHook, 0),
		auditHooks:          make([]AuditHook, 0),
		errorHooks:          make([]ErrorHook, 0),
	}
}

// Register registers a hook based on its concrete type
func (r *Registry) Register(hooks ...Hook) {
	for _, hook := range hooks {
		// Always add to general hooks list
		r.hooks = append(r.hooks, hook)

		matched := false
		if h, ok := hook.(AuthenticationHook); ok {
			r.authenticationHooks = append(r.authenticationHooks, h)
			matched = true
		}
		if h, ok := hook.(SearchHook); ok {
			r.searchHooks = append(r.searchHooks, h)
			matched = true
		}
		if h, ok := hook.(AuditHook); ok {
			r.auditHooks = append(r.auditHooks, h)
			matched = true
		}
		if h, ok := hook.(ErrorHook); ok {
			r.errorHooks = append(r.errorHooks, h)
			matched = true
		}
		if !matched {
			slog.Warn(fmt.Sprintf("unknown hook type: %T", hook))
		}
	}
}

// AuthenticationHooks returns all authentication hooks
func (r *Registry) AuthenticationHooks() []AuthenticationHook {
	return r.authenticationHooks
}

// SearchHooks returns all search hooks
func (r *Registry) SearchHooks() []SearchHook {
	return r.searchHooks
}

// AuditHooks returns all audit hooks
func (r *Registry) AuditHooks() []AuditHook {
	return r.auditHooks
}

// ErrorHooks returns all error hooks
func (r *Registry) ErrorHooks() []ErrorHook {
	return r.errorHooks
}

// All returns all registered hooks
func (r *Registry) All() []Hook {
	return r.hooks
}
