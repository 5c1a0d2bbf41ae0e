package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType(t *testing.T) {
	assert.Equal(t, "about:blank", Type(""))
	assert.Equal(t, "https://errors.payment-notification.dev/auth/invalid-token", Type("auth/invalid-token"))
	assert.Equal(t, "https://example.com/x", Type("https://example.com/x"))
}

func TestWrite(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/notifications?x=1", nil)
	w := httptest.NewRecorder()
	w.Header().Set("X-Trace-ID", "trace-1")

	Write(w, r, http.StatusServiceUnavailable, "notifications/platform-unavailable", "try again")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var d Details
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "Service Unavailable", d.Title)
	assert.Equal(t, "/notifications?x=1", d.Instance)
	assert.Equal(t, "trace-1", d.RequestID)
	assert.True(t, d.Retryable)
}

func TestClientErrorsAreNotRetryable(t *testing.T) {
	d := New(nil, http.StatusBadRequest, "notifications/malformed-payload", "")
	assert.False(t, d.Retryable)
	assert.Empty(t, d.Instance)
}
