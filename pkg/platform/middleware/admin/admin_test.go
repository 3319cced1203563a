package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"studioreg/pkg/requestcontext"
)

func TestRequireRegistryAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	check := func(_ context.Context, caller string) (bool, error) {
		if caller == "broken" {
			return false, errors.New("store unavailable")
		}
		return caller == "ST1ADMIN", nil
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := RequireRegistryAdmin(check, logger)(next)

	cases := []struct {
		name       string
		caller     string
		wantStatus int
		wantBody   string
	}{
		{"admin passes", "ST1ADMIN", http.StatusTeapot, ""},
		{"non-admin refused", "ST2STUDIO", http.StatusForbidden, `"code":100`},
		{"no caller refused", "", http.StatusForbidden, `"error":"not_authorized"`},
		{"check failure", "broken", http.StatusInternalServerError, `"internal_error"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/registry/audit", nil)
			req = req.WithContext(requestcontext.WithCaller(req.Context(), tc.caller))
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)
		})
	}
}
