package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayo6706/payment-notification/internal/api/problem"
	"github.com/go-chi/httprate"
)

// WebhookRateLimiter limits notification deliveries per client IP. A throttled batch gets
// 429, which the provider treats as a failed delivery and retries later.
func WebhookRateLimiter(rps int) func(http.Handler) http.Handler {
	return httprate.Limit(rps, time.Second,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "1")
			problem.Write(w, r, http.StatusTooManyRequests, "rate-limit-exceeded",
				fmt.Sprintf("Rate limit of %d notification batches per second exceeded", rps))
		}),
	)
}

// OperatorRateLimiter limits operator queries per authenticated subject.
func OperatorRateLimiter(rps int) func(http.Handler) http.Handler {
	return httprate.Limit(rps, time.Second,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if subject := OperatorFromContext(r.Context()); subject != "" {
				return subject, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			problem.Write(w, r, http.StatusTooManyRequests, "rate-limit-exceeded",
				fmt.Sprintf("Rate limit of %d req/s exceeded for this operator", rps))
		}),
	)
}
