package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/osvaldoandrade/placebench/internal/backoff"
	"github.com/osvaldoandrade/placebench/internal/metrics"
	"github.com/osvaldoandrade/placebench/internal/ratelimit"
	"github.com/osvaldoandrade/placebench/internal/tracing"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SolverRequest is one invocation. Every algorithm of a scenario gets the
// same request apart from Algorithm.
type SolverRequest struct {
	Width        int
	Height       int
	Obstacles    []domain.Coord
	Algorithm    string
	AntennaTypes []domain.AntennaType
	MaxBudget    *float64
	MaxAntennas  *int
}

type SolverGateway interface {
	Solve(ctx context.Context, req SolverRequest) (*domain.SolverResult, error)
}

// StatusError is a non-2xx answer from the solver service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("solver returned %d: %s", e.Code, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type GatewayOptions struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     backoff.Policy
	Limiter     ratelimit.Limiter
	RateLimit   ratelimit.Bucket
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

type httpSolverGateway struct {
	endpoint    string
	client      *http.Client
	maxAttempts int
	policy      backoff.Policy
	limiter     ratelimit.Limiter
	bucket      ratelimit.Bucket
	validate    *validator.Validate
	logger      *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewHTTPSolverGateway posts requests to {BaseURL}/optimize.
func NewHTTPSolverGateway(opts GatewayOptions) SolverGateway {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &httpSolverGateway{
		endpoint:    strings.TrimSuffix(opts.BaseURL, "/") + "/optimize",
		client:      client,
		maxAttempts: opts.MaxAttempts,
		policy:      opts.Backoff,
		limiter:     opts.Limiter,
		bucket:      opts.RateLimit,
		validate:    validator.New(),
		logger:      opts.Logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type optimizeRequest struct {
	Width        int                  `json:"width"`
	Height       int                  `json:"height"`
	Obstacles    [][2]int             `json:"obstacles"`
	Algorithm    string               `json:"algorithm"`
	AntennaTypes []domain.AntennaType `json:"allowed_antenna_types"`
	MaxBudget    *float64             `json:"max_budget,omitempty"`
	MaxAntennas  *int                 `json:"max_antennas,omitempty"`
}

func (g *httpSolverGateway) Solve(ctx context.Context, req SolverRequest) (*domain.SolverResult, error) {
	if err := checkBounds(req); err != nil {
		return nil, err
	}
	body, err := json.Marshal(toWire(req))
	if err != nil {
		return nil, fmt.Errorf("marshal solver request: %w", err)
	}

	ctx, span := tracing.StartSpan(ctx, "solver.optimize",
		attribute.String("solver.algorithm", req.Algorithm),
		attribute.Int("grid.size", req.Width),
		attribute.Int("grid.obstacles", len(req.Obstacles)),
	)
	defer span.End()

	start := time.Now()
	res, err := g.solveWithRetry(ctx, req.Algorithm, body)
	metrics.SolverLatencySeconds.WithLabelValues(req.Algorithm).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SolverInvocationsTotal.WithLabelValues(req.Algorithm, "failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	metrics.SolverInvocationsTotal.WithLabelValues(req.Algorithm, "success").Inc()
	return res, nil
}

func (g *httpSolverGateway) solveWithRetry(ctx context.Context, algorithm string, body []byte) (*domain.SolverResult, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ratelimit.Wait(ctx, g.limiter, "solver", algorithm, g.bucket); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			// Fail open.
			g.logger.Warn("solver rate limiter unavailable", "algorithm", algorithm, "err", err)
		}

		res, err := g.post(ctx, algorithm, body)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == g.maxAttempts {
			break
		}
		if err := sleepOrDone(ctx, g.delay(attempt-1)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (g *httpSolverGateway) post(ctx context.Context, algorithm string, body []byte) (*domain.SolverResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	tracing.InjectHeaders(ctx, httpReq.Header)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("solver request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read solver response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out domain.SolverResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if out.Algorithm == "" {
		out.Algorithm = algorithm
	}
	switch {
	case len(out.Placements) == 0:
		out.Placements = out.Antennas
	case len(out.Antennas) == 0:
		out.Antennas = out.Placements
	}
	if err := g.validate.Struct(out); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	return &out, nil
}

// MalformedResponseError wraps a 2xx body that failed decoding or validation.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string { return "malformed solver response: " + e.Err.Error() }
func (e *MalformedResponseError) Unwrap() error { return e.Err }

func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var me *MalformedResponseError
	if errors.As(err, &me) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (g *httpSolverGateway) delay(attempt int) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.policy.Delay(attempt, g.rng)
}

func checkBounds(req SolverRequest) error {
	if req.Width <= 0 || req.Height <= 0 {
		return fmt.Errorf("%w: grid %dx%d", domain.ErrInvalidScenario, req.Width, req.Height)
	}
	for _, c := range req.Obstacles {
		if c.X < 0 || c.Y < 0 || c.X >= req.Width || c.Y >= req.Height {
			return fmt.Errorf("%w: obstacle (%d,%d) outside %dx%d grid", domain.ErrInvalidScenario, c.X, c.Y, req.Width, req.Height)
		}
	}
	return nil
}

func toWire(req SolverRequest) optimizeRequest {
	obs := make([][2]int, len(req.Obstacles))
	for i, c := range req.Obstacles {
		obs[i] = [2]int{c.X, c.Y}
	}
	return optimizeRequest{
		Width:        req.Width,
		Height:       req.Height,
		Obstacles:    obs,
		Algorithm:    req.Algorithm,
		AntennaTypes: req.AntennaTypes,
		MaxBudget:    req.MaxBudget,
		MaxAntennas:  req.MaxAntennas,
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
