package version

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompatible(t *testing.T) {
	cases := []struct {
		server, client string
		want           bool
	}{
		{"v1.0.0", "v1.0.0", true},
		{"v1.0.0", "v1.4.2", true},
		{"v1.0.0", "1", true},
		{"v1.0.0", "v2.0.0", false},
		{"v1.0.0", "latest", false},
		{"garbage", "v1.0.0", false},
	}
	for _, tc := range cases {
		t.Run(tc.server+"/"+tc.client, func(t *testing.T) {
			assert.Equal(t, tc.want, Compatible(tc.server, tc.client))
		})
	}
}

func TestNegotiate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Negotiate("v1.0.0", logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"no header", "", http.StatusNoContent},
		{"same major", "v1.2.0", http.StatusNoContent},
		{"different major", "v2.0.0", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/registry/admin", nil)
			if tc.header != "" {
				req.Header.Set(Header, tc.header)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, "v1.0.0", w.Header().Get(Header))
		})
	}
}
