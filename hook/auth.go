package hook

import (
	"context"
	"strings"

	"github.com/deeplooplabs/search-gateway/ratelimit"
)

// APIKeyHook authenticates requests against a static key/user map and locks
// out callers that present invalid keys repeatedly
type APIKeyHook struct {
	// Keys maps API keys to user IDs
	Keys map[string]string

	// LoginLimiter, when set, enforces failed-attempt lockout
	LoginLimiter *ratelimit.LoginLimiter
}

// Name returns the hook name
func (h *APIKeyHook) Name() string {
	return "api_key_auth"
}

// Authenticate validates a bearer API key
func (h *APIKeyHook) Authenticate(ctx context.Context, apiKey string) (bool, string, error) {
	key := strings.TrimPrefix(apiKey, "Bearer ")

	if h.LoginLimiter != nil && h.LoginLimiter.Locked(key) {
		return false, "", nil
	}

	userID, ok := h.Keys[key]
	if h.LoginLimiter != nil {
		h.LoginLimiter.Record(key, ok)
	}
	if !ok {
		return false, "", nil
	}

	return true, userID, nil
}

// Ensure APIKeyHook implements AuthenticationHook
var _ AuthenticationHook = (*APIKeyHook)(nil)
