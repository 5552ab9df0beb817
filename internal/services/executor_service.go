package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osvaldoandrade/placebench/internal/instance"
	"github.com/osvaldoandrade/placebench/internal/metrics"
	"github.com/osvaldoandrade/placebench/internal/providers"
	"github.com/osvaldoandrade/placebench/internal/tracing"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// BatchHooks observe a batch as it advances. Any hook may be nil.
type BatchHooks struct {
	// OnStart runs before scenario k of N; Progress.Completed is k.
	OnStart func(p domain.Progress, sc domain.Scenario)
	// OnResult runs after a scenario produced a ScenarioResult.
	OnResult func(res domain.ScenarioResult)
	// OnSkip runs when a scenario failed and was left out.
	OnSkip func(sc domain.Scenario, err error)
}

type ExecutorService interface {
	RunSingle(ctx context.Context, sc domain.Scenario, cfg domain.RunConfig) (*domain.ScenarioResult, error)
	RunBatch(ctx context.Context, scenarios []domain.Scenario, cfg domain.RunConfig, hooks BatchHooks) (*domain.BatchRun, error)
}

type executorService struct {
	instances   instance.Provider
	gateway     providers.SolverGateway
	concurrency int
	logger      *slog.Logger
}

// NewExecutorService fans out at most concurrency solver calls per scenario.
func NewExecutorService(instances instance.Provider, gateway providers.SolverGateway, concurrency int, logger *slog.Logger) ExecutorService {
	if concurrency <= 0 {
		concurrency = len(domain.KnownAlgorithms)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &executorService{
		instances:   instances,
		gateway:     gateway,
		concurrency: concurrency,
		logger:      logger,
	}
}

func checkRunConfig(cfg domain.RunConfig) error {
	if len(cfg.Algorithms) == 0 {
		return domain.ErrNoAlgorithmsSelected
	}
	if len(cfg.AntennaTypes) == 0 {
		return domain.ErrNoCapabilitiesSelected
	}
	return nil
}

// RunSingle generates the obstacle set once and sends it to every algorithm.
// Failed invocations are logged and dropped; the returned results follow
// cfg.Algorithms order.
func (s *executorService) RunSingle(ctx context.Context, sc domain.Scenario, cfg domain.RunConfig) (*domain.ScenarioResult, error) {
	if err := checkRunConfig(cfg); err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, "scenario.run",
		attribute.String("scenario.id", sc.ID),
		attribute.String("scenario.pattern", sc.Pattern),
		attribute.Int("scenario.grid_size", sc.GridSize),
		attribute.Int("scenario.algorithms", len(cfg.Algorithms)),
	)
	defer span.End()

	obstacles, err := s.instances.Obstacles(ctx, sc.Pattern, sc.GridSize)
	if err != nil {
		return nil, fmt.Errorf("obstacles for scenario %s: %w", sc.ID, err)
	}

	slots := make([]*domain.SolverResult, len(cfg.Algorithms))
	var g errgroup.Group
	g.SetLimit(min(s.concurrency, len(cfg.Algorithms)))
	for i, alg := range cfg.Algorithms {
		req := providers.SolverRequest{
			Width:        sc.GridSize,
			Height:       sc.GridSize,
			Obstacles:    obstacles,
			Algorithm:    alg,
			AntennaTypes: cfg.AntennaTypes,
			MaxBudget:    sc.MaxBudget,
			MaxAntennas:  sc.MaxAntennas,
		}
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Warn("solver invocation panicked", "algorithm", req.Algorithm, "scenario_id", sc.ID, "panic", r)
				}
			}()
			res, err := s.gateway.Solve(ctx, req)
			if err != nil {
				s.logger.Warn("solver invocation failed", "algorithm", req.Algorithm, "scenario_id", sc.ID, "err", err)
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	_ = g.Wait()

	results := make([]domain.SolverResult, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	span.SetAttributes(attribute.Int("scenario.results", len(results)))
	return &domain.ScenarioResult{Scenario: sc, Results: results, Obstacles: obstacles}, nil
}

// RunBatch processes scenarios one at a time in order. A failing scenario is
// skipped. Once ctx is cancelled the in-flight scenario finishes and the rest
// are not started.
func (s *executorService) RunBatch(ctx context.Context, scenarios []domain.Scenario, cfg domain.RunConfig, hooks BatchHooks) (*domain.BatchRun, error) {
	if err := checkRunConfig(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()
	run := &domain.BatchRun{
		Status:   domain.RunCompleted,
		Config:   cfg,
		Progress: domain.Progress{Total: len(scenarios)},
		Results:  make([]domain.ScenarioResult, 0, len(scenarios)),
	}

	for k, sc := range scenarios {
		if ctx.Err() != nil {
			run.Status = domain.RunCancelled
			s.logger.Info("batch cancelled", "processed", k, "total", len(scenarios))
			break
		}
		run.Progress.Completed = k + 1
		if hooks.OnStart != nil {
			hooks.OnStart(run.Progress, sc)
		}

		res, err := s.runScenario(context.WithoutCancel(ctx), sc, cfg)
		if err != nil {
			s.logger.Error("scenario skipped", "scenario_id", sc.ID, "pattern", sc.Pattern, "err", err)
			metrics.ScenariosProcessedTotal.WithLabelValues("skipped").Inc()
			run.Skipped = append(run.Skipped, sc.ID)
			if hooks.OnSkip != nil {
				hooks.OnSkip(sc, err)
			}
			continue
		}
		metrics.ScenariosProcessedTotal.WithLabelValues("success").Inc()
		run.Results = append(run.Results, *res)
		if hooks.OnResult != nil {
			hooks.OnResult(*res)
		}
	}
	return run, nil
}

// runScenario turns a panic in a collaborator into a scenario failure.
func (s *executorService) runScenario(ctx context.Context, sc domain.Scenario, cfg domain.RunConfig) (res *domain.ScenarioResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("scenario %s panicked: %v", sc.ID, r)
		}
	}()
	return s.RunSingle(ctx, sc, cfg)
}
