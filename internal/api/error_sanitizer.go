package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/ignite/campaign-sentinel/internal/pkg/httputil"
)

// Internal errors (database details, dependency addresses, stack traces) are
// never leaked to API consumers. 5xx responses carry a generic safe message;
// the full error is logged server-side.

// respondSafeError logs the internal error and sends a sanitized error
// envelope.
func respondSafeError(w http.ResponseWriter, status int, internalErr error, publicMsg string) {
	if internalErr != nil {
		log.Printf("ERROR [%d]: %s: %v", status, publicMsg, internalErr)
	}
	code := httputil.CodeInternal
	if status < 500 {
		code = httputil.CodeValidation
	}
	httputil.Error(w, status, code, publicMsg)
}

// safeErrorMessage maps internal error patterns to public-safe messages for
// 5xx responses.
func safeErrorMessage(err error) string {
	if err == nil {
		return "an internal error occurred"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "service temporarily unavailable"

	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context canceled"):
		return "request timed out"

	case strings.Contains(errStr, "sql") ||
		strings.Contains(errStr, "pq:") ||
		strings.Contains(errStr, "query") ||
		strings.Contains(errStr, "scan") ||
		strings.Contains(errStr, "database"):
		return "a storage error occurred"

	case strings.Contains(errStr, "redis"):
		return "a storage error occurred"
	}
	return "an internal error occurred"
}
