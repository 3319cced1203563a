// Package testutil provides common test utilities for handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contract "studioreg/contracts/registry"
)

// NewJSONRequest creates a request whose body is body marshaled to JSON.
// A string body is sent as-is so tests can exercise malformed input.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err, "failed to marshal request body")
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// AsCaller sets the acting principal header. An empty caller leaves it unset.
func AsCaller(req *http.Request, caller string) *http.Request {
	if caller != "" {
		req.Header.Set(contract.CallerHeader, caller)
	}
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// UnmarshalResponse unmarshals the response body into a T.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result), "failed to unmarshal response: %s", rr.Body.String())
	return &result
}

// AssertRegistryError asserts a registry refusal with its HTTP status and
// stable contract code.
func AssertRegistryError(t *testing.T, rr *httptest.ResponseRecorder, status int, code contract.ErrorCode) {
	t.Helper()
	assert.Equal(t, status, rr.Code, "unexpected status code")
	body := UnmarshalResponse[contract.ErrorResponse](t, rr)
	assert.Equal(t, code, body.Code, "unexpected registry code")
	assert.Equal(t, code.String(), body.Error, "unexpected error name")
}
