package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"drawsync/pkg/logger"
)

type ctxIdentityKey struct{}

// Middleware rejects requests without a valid bearer token and injects the
// verified identity into the request context. The web client historically
// sends the raw token in Authorization, so the Bearer prefix is optional.
func Middleware(v Verifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get("Authorization"))
			token = strings.TrimPrefix(token, "Bearer ")
			identity, err := v.Verify(token)
			if err != nil {
				logger.Warn("rest_auth_failed", "path", r.URL.Path, "remote", r.RemoteAddr)
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxIdentityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the verified identity or empty string.
func IdentityFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxIdentityKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
