package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"studioreg/pkg/requestcontext"
)

func TestWithClockPinsRequestTime(t *testing.T) {
	fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	var seen []time.Time
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = append(seen, requestcontext.Now(r.Context()), requestcontext.Now(r.Context()))
	})

	WithClock(func() time.Time { return fixed })(next).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []time.Time{fixed, fixed}, seen)
}

func TestMiddlewareSetsTime(t *testing.T) {
	before := time.Now()
	var (
		got    time.Time
		pinned bool
	)
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, pinned = requestcontext.RequestTime(r.Context())
	})

	Middleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, pinned)
	assert.False(t, got.Before(before))
}
