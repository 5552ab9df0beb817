package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/placebench/internal/metrics"
	"github.com/osvaldoandrade/placebench/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit throttles an operation per caller. The caller is the bearer
// token when present, else the client IP.
func RateLimit(lim ratelimit.Limiter, scope string, operation string, bucket ratelimit.Bucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lim == nil || !bucket.Enabled() {
			c.Next()
			return
		}

		subject := bearerToken(c.GetHeader("Authorization"))
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}

		dec, err := lim.Allow(c.Request.Context(), scope+":"+operation, subject, bucket)
		if err != nil {
			// Fail open to avoid turning Redis hiccups into outages.
			slog.Default().Warn("rate limit check failed", "scope", scope, "op", operation, "err", err)
			c.Next()
			return
		}
		if dec.Allowed {
			c.Next()
			return
		}

		retryAfterSeconds := int(dec.RetryAfter.Seconds())
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		metrics.RateLimitHitsTotal.WithLabelValues(scope, operation).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate limit exceeded",
			"scope":             scope,
			"operation":         operation,
			"retryAfterSeconds": retryAfterSeconds,
		})
	}
}

func bearerToken(authHeader string) string {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
