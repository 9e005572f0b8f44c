// Package auth authenticates API callers with project-scoped bearer tokens.
// Every write endpoint runs behind Require; the matched token's project ID
// is injected into the request context and all storage access is scoped
// by it.
package auth

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/ignite/campaign-sentinel/internal/config"
	"github.com/ignite/campaign-sentinel/internal/pkg/httputil"
	"github.com/ignite/campaign-sentinel/internal/pkg/logger"
)

type contextKey int

const projectIDKey contextKey = iota

// ProjectID returns the authenticated project scope for the request, or ""
// when the request was not authenticated (auth disabled).
func ProjectID(ctx context.Context) string {
	id, _ := ctx.Value(projectIDKey).(string)
	return id
}

// WithProjectID injects a project scope; used by tests and by the
// auth-disabled path.
func WithProjectID(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, projectIDKey, projectID)
}

// Middleware validates bearer tokens against the configured token set.
type Middleware struct {
	cfg config.AuthConfig
}

// NewMiddleware creates the token middleware.
func NewMiddleware(cfg config.AuthConfig) *Middleware {
	if cfg.Enabled && len(cfg.Tokens) == 0 {
		log.Printf("Auth: Enabled with no tokens configured; all API requests will be rejected")
	}
	return &Middleware{cfg: cfg}
}

// Require rejects requests without a valid bearer token. Token comparison is
// constant-time; the matched token decides the caller's project scope.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httputil.Unauthorized(w, "missing bearer token")
			return
		}

		for _, t := range m.cfg.Tokens {
			if subtle.ConstantTimeCompare([]byte(token), []byte(t.Token)) == 1 {
				ctx := WithProjectID(r.Context(), t.ProjectID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		logger.Warn("rejected bearer token", "remote", r.RemoteAddr, "path", r.URL.Path, "token", token)
		httputil.Unauthorized(w, "invalid token")
	})
}
