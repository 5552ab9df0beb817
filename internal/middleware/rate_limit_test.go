package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/osvaldoandrade/placebench/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// mockLimiter implements ratelimit.Limiter for testing
type mockLimiter struct {
	decision ratelimit.Decision
	err      error
	subjects []string
}

func (m *mockLimiter) Allow(ctx context.Context, scope string, subject string, bucket ratelimit.Bucket) (ratelimit.Decision, error) {
	m.subjects = append(m.subjects, subject)
	return m.decision, m.err
}

var enabledBucket = ratelimit.Bucket{RequestsPerMinute: 100, BurstSize: 10}

func runRateLimit(lim ratelimit.Limiter, bucket ratelimit.Bucket, authHeader string) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/v1/placebench/runs", nil)
	if authHeader != "" {
		ctx.Request.Header.Set("Authorization", authHeader)
	}
	RateLimit(lim, "api", "start_run", bucket)(ctx)
	return ctx, rec
}

func TestRateLimit_DisabledBucket(t *testing.T) {
	limiter := &mockLimiter{decision: ratelimit.Decision{Allowed: false}}
	ctx, _ := runRateLimit(limiter, ratelimit.Bucket{}, "Bearer test-token")
	if ctx.IsAborted() {
		t.Fatal("expected request to pass through for disabled bucket")
	}
	if len(limiter.subjects) != 0 {
		t.Fatal("limiter must not be consulted for a disabled bucket")
	}
}

func TestRateLimit_AllowedDecision(t *testing.T) {
	ctx, _ := runRateLimit(&mockLimiter{decision: ratelimit.Decision{Allowed: true}}, enabledBucket, "Bearer test-token")
	if ctx.IsAborted() {
		t.Fatal("expected request to pass through when rate limit allows")
	}
}

func TestRateLimit_DeniedDecision(t *testing.T) {
	limiter := &mockLimiter{decision: ratelimit.Decision{Allowed: false, RetryAfter: 5 * time.Second}}
	ctx, rec := runRateLimit(limiter, enabledBucket, "Bearer test-token")

	if !ctx.IsAborted() {
		t.Fatal("expected request to be aborted when rate limited")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "5" {
		t.Fatalf("expected Retry-After: 5, got %s", got)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal JSON response: %v", err)
	}
	if body["error"] != "rate limit exceeded" || body["operation"] != "start_run" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["retryAfterSeconds"] != float64(5) {
		t.Fatalf("expected retryAfterSeconds=5, got %v", body["retryAfterSeconds"])
	}
}

func TestRateLimit_LimiterErrorFailsOpen(t *testing.T) {
	limiter := &mockLimiter{err: context.DeadlineExceeded}
	ctx, _ := runRateLimit(limiter, enabledBucket, "Bearer test-token")
	if ctx.IsAborted() {
		t.Fatal("expected request to pass through when limiter returns error (fail open)")
	}
}

func TestRateLimit_SubjectFallsBackToClientIP(t *testing.T) {
	limiter := &mockLimiter{decision: ratelimit.Decision{Allowed: true}}
	runRateLimit(limiter, enabledBucket, "")
	runRateLimit(limiter, enabledBucket, "Bearer tok")
	if len(limiter.subjects) != 2 || limiter.subjects[0] != "ip:192.0.2.1" || limiter.subjects[1] != "tok" {
		t.Fatalf("unexpected subjects %v", limiter.subjects)
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	ctx, _ := runRateLimit(nil, enabledBucket, "Bearer test-token")
	if ctx.IsAborted() {
		t.Fatal("expected pass through with nil limiter")
	}
}
