package core

import (
	"math"
	"net/http"
	"strconv"

	manifest "github.com/joeydtaylor/steeze-sinks/pkg/manifest"
	"golang.org/x/time/rate"
)

// newLimiter returns nil when no positive rate is configured.
func newLimiter(rl *manifest.RateLimit) *rate.Limiter {
	if rl == nil || rl.RPS <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rl.RPS), max(rl.Burst, 1))
}

// withRateLimit shares one token bucket across every route it wraps.
func withRateLimit(next http.HandlerFunc, l *rate.Limiter) http.HandlerFunc {
	if l == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		res := l.Reserve()
		if d := res.Delay(); d > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		next(w, r)
	}
}
