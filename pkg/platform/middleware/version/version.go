// Package version negotiates the registry contract version between clients
// and the server.
package version

import (
	"log/slog"
	"net/http"

	"studioreg/pkg/platform/httputil"
	"studioreg/pkg/requestcontext"
)

// Header carries the contract version in both directions.
const Header = "X-Contract-Version"

// Negotiate advertises serverVersion on every response and rejects requests
// that declare a contract with a different major version. Requests without
// the header are accepted.
func Negotiate(serverVersion string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(Header, serverVersion)

			clientVersion := r.Header.Get(Header)
			if clientVersion != "" && !Compatible(serverVersion, clientVersion) {
				ctx := r.Context()
				logger.WarnContext(ctx, "contract version rejected",
					"request_id", requestcontext.RequestID(ctx),
					"client_version", clientVersion,
					"server_version", serverVersion,
				)
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorBody{
					Error:       "unsupported_contract_version",
					Description: "server speaks contract " + serverVersion,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
