// Package problem renders RFC 7807 problem documents.
package problem

import (
	"encoding/json"
	"net/http"
	"strings"
)

const (
	contentType = "application/problem+json"
	typeBaseURL = "https://errors.payment-notification.dev/"
)

// Details is an RFC 7807 problem document. Retryable is an extension member telling
// the caller that the same request may succeed later.
type Details struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Type expands a slug such as "auth/invalid-token" into a problem type URL. Empty slugs
// become about:blank and absolute URLs are returned unchanged.
func Type(slug string) string {
	switch {
	case slug == "" || slug == "about:blank":
		return "about:blank"
	case strings.HasPrefix(slug, "http://"), strings.HasPrefix(slug, "https://"):
		return slug
	default:
		return typeBaseURL + strings.TrimPrefix(slug, "/")
	}
}

// New builds the document for status and slug. Throttling and unavailability are
// marked retryable.
func New(r *http.Request, status int, slug, detail string) Details {
	d := Details{
		Type:      Type(slug),
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Retryable: status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable,
	}
	if r != nil {
		d.Instance = r.URL.RequestURI()
		d.RequestID = r.Header.Get("X-Trace-ID")
	}
	return d
}

// Render writes d. The request id falls back to the X-Trace-ID response header set by
// the trace middleware.
func (d Details) Render(w http.ResponseWriter) {
	if d.RequestID == "" {
		d.RequestID = w.Header().Get("X-Trace-ID")
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(d.Status)
	_ = json.NewEncoder(w).Encode(d)
}

// Write renders a problem document in one call.
func Write(w http.ResponseWriter, r *http.Request, status int, slug, detail string) {
	New(r, status, slug, detail).Render(w)
}
