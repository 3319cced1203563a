package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	contract "studioreg/contracts/registry"
	"studioreg/pkg/requestcontext"
)

// maxPrincipalLength bounds the caller header; principals are opaque but finite.
const maxPrincipalLength = 256

// RequireCaller reads the acting principal from the X-Caller header and stores
// it in the request context. The header is an identity claim, not a credential.
func RequireCaller(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := strings.TrimSpace(r.Header.Get(contract.CallerHeader))
			if caller == "" || len(caller) > maxPrincipalLength {
				ctx := r.Context()
				logger.WarnContext(ctx, "caller principal missing or invalid",
					"request_id", GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"caller_required","error_description":"X-Caller header is required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(r.Context(), caller)))
		})
	}
}

// GetCaller retrieves the acting principal from the context.
func GetCaller(ctx context.Context) string {
	return requestcontext.Caller(ctx)
}
