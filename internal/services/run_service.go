package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/osvaldoandrade/placebench/internal/metrics"
	"github.com/osvaldoandrade/placebench/internal/ranking"
	"github.com/osvaldoandrade/placebench/pkg/domain"
	"github.com/osvaldoandrade/placebench/pkg/persistence"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Comparison is the outcome of a one-off scenario run outside the queue.
type Comparison struct {
	Result  domain.ScenarioResult `json:"result"`
	Ranking []domain.RankingEntry `json:"ranking"`
}

type RunService interface {
	// Start snapshots the queue and runs it in the background. Only one batch
	// runs at a time.
	Start(ctx context.Context, cfg domain.RunConfig) (*domain.BatchRun, error)
	Get(ctx context.Context, id string) (*domain.BatchRun, error)
	List(ctx context.Context, limit int) ([]domain.BatchRun, error)
	// Cancel stops a running batch after its current scenario.
	Cancel(ctx context.Context, id string) (*domain.BatchRun, error)
	// Wait blocks until the run finishes or ctx ends.
	Wait(ctx context.Context, id string) error
	Compare(ctx context.Context, def domain.ScenarioDefinition, cfg domain.RunConfig) (*Comparison, error)
	// RecoverStale marks runs left RUNNING by a previous process as cancelled.
	RecoverStale(ctx context.Context) (int, error)
	// Shutdown cancels the active batch and waits for it to stop.
	Shutdown(ctx context.Context) error
}

type activeRun struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

type runService struct {
	queue    QueueService
	executor ExecutorService
	runs     persistence.RunStorage
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time

	mu     sync.Mutex
	active *activeRun
}

func NewRunService(queue QueueService, executor ExecutorService, runs persistence.RunStorage, logger *slog.Logger, now func() time.Time) RunService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &runService{
		queue:    queue,
		executor: executor,
		runs:     runs,
		logger:   logger,
		validate: validator.New(),
		now:      now,
	}
}

func (s *runService) Start(ctx context.Context, cfg domain.RunConfig) (*domain.BatchRun, error) {
	if err := checkRunConfig(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil, domain.ErrBatchInProgress
	}

	scenarios, err := s.queue.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot queue: %w", err)
	}
	run := &domain.BatchRun{
		ID:        uuid.NewString(),
		Status:    domain.RunRunning,
		Config:    cfg,
		Progress:  domain.Progress{Total: len(scenarios)},
		Results:   []domain.ScenarioResult{},
		StartedAt: s.now(),
	}
	if err := s.runs.Save(ctx, run); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a := &activeRun{id: run.ID, cancel: cancel, done: make(chan struct{})}
	s.active = a
	snapshot := *run
	go s.execute(runCtx, a, &snapshot, scenarios)

	s.logger.Info("batch started", "run_id", run.ID, "scenarios", len(scenarios), "algorithms", cfg.Algorithms)
	return run, nil
}

func (s *runService) execute(ctx context.Context, a *activeRun, run *domain.BatchRun, scenarios []domain.Scenario) {
	defer close(a.done)
	defer a.cancel()

	persist := func() {
		if err := s.runs.Save(context.WithoutCancel(ctx), run); err != nil {
			s.logger.Warn("persist run progress failed", "run_id", run.ID, "err", err)
		}
	}

	out, err := s.executor.RunBatch(ctx, scenarios, run.Config, BatchHooks{
		OnStart: func(p domain.Progress, sc domain.Scenario) {
			run.Progress = p
			persist()
		},
		OnResult: func(res domain.ScenarioResult) {
			run.Results = append(run.Results, res)
			persist()
		},
		OnSkip: func(sc domain.Scenario, err error) {
			run.Skipped = append(run.Skipped, sc.ID)
			persist()
		},
	})
	if err != nil {
		// config was checked in Start; treat anything else as a cancelled run
		s.logger.Error("batch aborted", "run_id", run.ID, "err", err)
		run.Status = domain.RunCancelled
	} else {
		run.Status = out.Status
		run.Progress = out.Progress
		run.Results = out.Results
		run.Skipped = out.Skipped
	}
	finished := s.now()
	run.FinishedAt = &finished
	persist()
	metrics.BatchRunsTotal.WithLabelValues(string(run.Status)).Inc()
	s.logger.Info("batch finished", "run_id", run.ID, "status", run.Status,
		"results", len(run.Results), "skipped", len(run.Skipped))

	s.mu.Lock()
	if s.active == a {
		s.active = nil
	}
	s.mu.Unlock()
}

func (s *runService) Get(ctx context.Context, id string) (*domain.BatchRun, error) {
	return s.runs.Get(ctx, id)
}

func (s *runService) List(ctx context.Context, limit int) ([]domain.BatchRun, error) {
	return s.runs.List(ctx, limit)
}

func (s *runService) Cancel(ctx context.Context, id string) (*domain.BatchRun, error) {
	s.mu.Lock()
	if s.active != nil && s.active.id == id {
		s.active.cancel()
		s.logger.Info("batch cancel requested", "run_id", id)
	}
	s.mu.Unlock()
	return s.runs.Get(ctx, id)
}

func (s *runService) Wait(ctx context.Context, id string) error {
	s.mu.Lock()
	a := s.active
	s.mu.Unlock()
	if a == nil || a.id != id {
		_, err := s.runs.Get(ctx, id)
		return err
	}
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *runService) Compare(ctx context.Context, def domain.ScenarioDefinition, cfg domain.RunConfig) (*Comparison, error) {
	if err := checkRunConfig(cfg); err != nil {
		return nil, err
	}
	if err := checkDefinition(s.validate, def); err != nil {
		return nil, err
	}
	sc := domain.Scenario{
		ID:          uuid.NewString(),
		GridSize:    def.GridSize,
		Pattern:     def.Pattern,
		MaxBudget:   def.MaxBudget,
		MaxAntennas: def.MaxAntennas,
		CreatedAt:   s.now(),
	}
	res, err := s.executor.RunSingle(ctx, sc, cfg.Clone())
	if err != nil {
		return nil, err
	}
	return &Comparison{Result: *res, Ranking: ranking.Rank(res.Results)}, nil
}

func (s *runService) RecoverStale(ctx context.Context) (int, error) {
	runs, err := s.runs.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	activeID := ""
	if s.active != nil {
		activeID = s.active.id
	}
	s.mu.Unlock()

	n := 0
	for i := range runs {
		run := &runs[i]
		if run.Status != domain.RunRunning || run.ID == activeID {
			continue
		}
		run.Status = domain.RunCancelled
		finished := s.now()
		run.FinishedAt = &finished
		if err := s.runs.Save(ctx, run); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *runService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	a := s.active
	s.mu.Unlock()
	if a == nil {
		return nil
	}
	a.cancel()
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
