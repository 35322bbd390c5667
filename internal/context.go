package internal

import (
	"context"
	"time"
)

// WithTimeout returns a context with timeout, defaulting to 30 seconds if
// duration is zero or negative. Request-scoped storage calls pass through
// here so a hung query cannot outlive the request deadline.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 30 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
