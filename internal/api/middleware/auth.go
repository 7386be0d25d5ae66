package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Navadeep1830/honeypot-api/internal/config"
)

// ContextKey is a type for context keys
type ContextKey string

const (
	// ContextKeyAPIKey is the context key for the API key
	ContextKeyAPIKey ContextKey = "api_key"
)

// DefaultAPIKeyHeader is used when no header name is configured
const DefaultAPIKeyHeader = "X-API-Key"

// APIKeyAuth returns middleware that checks the shared API key header
func APIKeyAuth(cfg config.AuthConfig) func(next http.Handler) http.Handler {
	header := cfg.Header
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	expected := []byte(cfg.APIKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for OPTIONS requests (CORS preflight)
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get(header)
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, fmt.Sprintf("Missing API key. Provide '%s' header.", header))
				return
			}

			if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(apiKey), expected) != 1 {
				writeError(w, http.StatusUnauthorized, "Invalid API key.")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAPIKey returns the API key from context
func GetAPIKey(ctx context.Context) string {
	if key, ok := ctx.Value(ContextKeyAPIKey).(string); ok {
		return key
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": message})
}
