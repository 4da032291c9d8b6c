package httpapi

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"waymark.ai/internal/protocol"
)

const rateLimitExceededJSON = `{"error":"%s","retry_after":%d}`

// rateLimit limits requests per remote IP. A non-positive limit disables it.
func rateLimit(limit int, window time.Duration, logger *log.Logger) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: window, Limit: int64(limit)})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			lc, err := instance.Get(r.Context(), clientIP(r))
			if err != nil {
				// Fail open.
				logger.Printf("[http] rate limiter: %v", err)
				next.ServeHTTP(rw, r)
				return
			}
			rw.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
			rw.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
			rw.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))
			if lc.Reached {
				retryAfter := int(time.Until(time.Unix(lc.Reset, 0)).Seconds())
				if retryAfter < 0 {
					retryAfter = 0
				}
				rw.Header().Set("Content-Type", "application/json")
				rw.WriteHeader(http.StatusTooManyRequests)
				_, _ = fmt.Fprintf(rw, rateLimitExceededJSON, protocol.ErrRateLimit, retryAfter)
				return
			}
			next.ServeHTTP(rw, r)
		})
	}
}

// clientIP keys on the socket peer. Forwarded headers are client-controlled and ignored.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
