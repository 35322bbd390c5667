package middleware

import (
	"net/http"
	"time"

	"github.com/bert0h-dev/busmanage-api/internal"
)

// Timeout installs the per-request deadline on the request context. Every
// blocking call below the router observes it, so a hung repository query
// aborts with context.DeadlineExceeded instead of running until the client
// disconnects. The boundary maps that into internal.ErrRequestTimeout.
func Timeout(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := internal.WithTimeout(r.Context(), duration)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
