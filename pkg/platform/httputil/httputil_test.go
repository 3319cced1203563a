package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "studioreg/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		wantBody ErrorBody
	}{
		{
			name:     "internal error hides message",
			err:      dErrors.New(dErrors.CodeInternal, "lock poisoned"),
			status:   http.StatusInternalServerError,
			wantBody: ErrorBody{Error: "internal_error"},
		},
		{
			name:     "plain error is internal",
			err:      errors.New("boom"),
			status:   http.StatusInternalServerError,
			wantBody: ErrorBody{Error: "internal_error"},
		},
		{
			name:     "bad request keeps message",
			err:      dErrors.New(dErrors.CodeBadRequest, "studio is required"),
			status:   http.StatusBadRequest,
			wantBody: ErrorBody{Error: "bad_request", Description: "studio is required"},
		},
		{
			name:     "conflict",
			err:      dErrors.New(dErrors.CodeConflict, "studio is already verified"),
			status:   http.StatusConflict,
			wantBody: ErrorBody{Error: "conflict", Description: "studio is already verified"},
		},
		{
			name:     "lock timeout",
			err:      dErrors.Wrap(context.DeadlineExceeded, dErrors.CodeTimeout, "registry busy"),
			status:   http.StatusGatewayTimeout,
			wantBody: ErrorBody{Error: "timeout", Description: "registry busy"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]bool{"verified": true})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"verified":true}`, w.Body.String())
}
