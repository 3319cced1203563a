// Package admin gates routes that only the current registry admin may use.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	contract "studioreg/contracts/registry"
	"studioreg/pkg/requestcontext"
)

// AdminCheck reports whether caller currently holds the admin role.
type AdminCheck func(ctx context.Context, caller string) (bool, error)

// RequireRegistryAdmin rejects requests whose caller (set by the caller
// middleware) is not the current registry admin. The check is advisory for
// reads only: mutations are authorized atomically inside the registry.
func RequireRegistryAdmin(isAdmin AdminCheck, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller := requestcontext.Caller(ctx)
			requestID := requestcontext.RequestID(ctx)

			ok, err := isAdmin(ctx, caller)
			if err != nil {
				logger.ErrorContext(ctx, "admin check failed",
					"request_id", requestID,
					"error", err,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal_error"}`))
				return
			}
			if !ok {
				logger.WarnContext(ctx, "registry admin required",
					"request_id", requestID,
					"caller", caller,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"` + contract.ErrCodeNotAuthorized.String() +
					`","code":100,"error_description":"caller is not the registry admin"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
