package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ayo6706/payment-notification/internal/api/problem"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes an RFC 7807 error response for a problem slug.
func RespondError(w http.ResponseWriter, r *http.Request, status int, slug, message string) {
	problem.Write(w, r, status, slug, message)
}

// pagination reads limit and offset query parameters.
func pagination(r *http.Request) (limit, offset int, ok bool) {
	limit, offset = defaultPageSize, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return 0, 0, false
		}
		limit = min(v, maxPageSize)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return 0, 0, false
		}
		offset = v
	}
	return limit, offset, true
}
