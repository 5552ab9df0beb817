package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/osvaldoandrade/placebench/internal/backoff"
	"github.com/osvaldoandrade/placebench/internal/instance"
	"github.com/osvaldoandrade/placebench/internal/metrics"
	"github.com/osvaldoandrade/placebench/internal/middleware"
	"github.com/osvaldoandrade/placebench/internal/providers"
	"github.com/osvaldoandrade/placebench/internal/ratelimit"
	"github.com/osvaldoandrade/placebench/internal/services"
	"github.com/osvaldoandrade/placebench/internal/tracing"
	"github.com/osvaldoandrade/placebench/pkg/auth"
	"github.com/osvaldoandrade/placebench/pkg/config"
	"github.com/osvaldoandrade/placebench/pkg/domain"
	"github.com/osvaldoandrade/placebench/pkg/persistence"
	_ "github.com/osvaldoandrade/placebench/pkg/persistence/memory"
	_ "github.com/osvaldoandrade/placebench/pkg/persistence/redis"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type Application struct {
	Config      *config.Config
	Engine      *gin.Engine
	Logger      *slog.Logger
	TZ          *time.Location
	Redis       *redis.Client
	Persistence persistence.PluginPersistence
	Validator   auth.Validator
	RateLimiter ratelimit.Limiter

	Instances instance.Provider
	Gateway   providers.SolverGateway
	Queue     services.QueueService
	Executor  services.ExecutorService
	Runs      services.RunService
	Reports   services.ReportService
	Cleanup   services.RunCleanupService

	// RunDefaults is what a request gets when it names no algorithms or types.
	RunDefaults domain.RunConfig

	TracingShutdown func(context.Context) error
	stopCleanup     context.CancelFunc
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithValidator sets a custom bearer token validator
func WithValidator(validator auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.Validator = validator
		return nil
	}
}

// WithSolverGateway replaces the HTTP solver gateway
func WithSolverGateway(gw providers.SolverGateway) ApplicationOption {
	return func(app *Application) error {
		app.Gateway = gw
		return nil
	}
}

// WithInstanceProvider replaces the built-in obstacle generator
func WithInstanceProvider(p instance.Provider) ApplicationOption {
	return func(app *Application) error {
		app.Instances = p
		return nil
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler).With("service", "placebench", "env", cfg.Env)
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("UTC", 0)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	app := &Application{
		Config:      cfg,
		Logger:      logger,
		TZ:          loc,
		RunDefaults: cfg.DefaultRunConfig(),
	}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	app.Redis = providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
	app.RateLimiter = ratelimit.NewTokenBucketLimiter(app.Redis)

	pluginCfg := persistence.PluginConfig{Timezone: loc}
	if cfg.Persistence.Type == "redis" {
		pluginCfg.Redis = app.Redis
		metrics.RegisterRedisCollector(app.Redis, logger)
	}
	app.Persistence, err = persistence.NewPersistence(cfg.Persistence, pluginCfg)
	if err != nil {
		return nil, fmt.Errorf("init persistence: %w", err)
	}

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	app.TracingShutdown = shutdown

	if app.Instances == nil {
		app.Instances = instance.NewGenerator()
	}
	if app.Gateway == nil {
		app.Gateway = providers.NewHTTPSolverGateway(providers.GatewayOptions{
			BaseURL:     cfg.Solver.BaseURL,
			Timeout:     time.Duration(cfg.Solver.TimeoutSeconds) * time.Second,
			MaxAttempts: cfg.Solver.MaxAttempts,
			Backoff:     backoff.NewPolicy(cfg.Solver.BackoffPolicy, cfg.Solver.BackoffBaseSeconds, cfg.Solver.BackoffMaxSeconds),
			Limiter:     app.RateLimiter,
			RateLimit:   cfg.Solver.RateLimit,
			Logger:      logger,
		})
	}

	app.Queue = services.NewQueueService(app.Persistence.ScenarioStorage(), services.ScenarioDefaults{
		GridSize: cfg.DefaultGridSize,
		Pattern:  cfg.DefaultPattern,
	}, time.Now)
	app.Executor = services.NewExecutorService(app.Instances, app.Gateway, cfg.Solver.Concurrency, logger)
	app.Runs = services.NewRunService(app.Queue, app.Executor, app.Persistence.RunStorage(), logger, time.Now)
	app.Reports = services.NewReportService(app.Persistence.RunStorage(), providers.NewLocalUploader(cfg.ReportsDir), time.Now)
	app.Cleanup = services.NewRunCleanupService(app.Persistence.RunStorage(), logger, cfg.CleanupIntervalSeconds, cfg.RunRetentionHours, time.Now)

	if app.Validator == nil && cfg.Auth.Type != "" {
		validator, err := auth.NewValidator(cfg.Auth)
		if err != nil {
			return nil, err
		}
		app.Validator = validator
	}

	if n, err := app.Runs.RecoverStale(context.Background()); err != nil {
		logger.Warn("recover stale runs failed", "err", err)
	} else if n > 0 {
		logger.Info("stale runs cancelled", "count", n)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		middleware.TracingMiddleware(cfg.Tracing.ServiceName),
	)
	app.Engine = engine

	cleanupCtx, cancel := context.WithCancel(context.Background())
	app.stopCleanup = cancel
	go app.Cleanup.Start(cleanupCtx)

	return app, nil
}

// Shutdown stops the active batch and background work, then releases
// storage and flushes traces.
func (app *Application) Shutdown(ctx context.Context) error {
	if app.stopCleanup != nil {
		app.stopCleanup()
	}
	var firstErr error
	if err := app.Runs.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := app.Persistence.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := app.Redis.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if app.TracingShutdown != nil {
		if err := app.TracingShutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
