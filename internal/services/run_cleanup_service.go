package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/osvaldoandrade/placebench/pkg/persistence"
)

type RunCleanupService interface {
	Start(ctx context.Context)
	RunOnce(ctx context.Context) (int, error)
}

type runCleanupService struct {
	runs      persistence.RunStorage
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewRunCleanupService(runs persistence.RunStorage, logger *slog.Logger, intervalSeconds int, retentionHours int, now func() time.Time) RunCleanupService {
	if intervalSeconds <= 0 {
		intervalSeconds = 300
	}
	if retentionHours <= 0 {
		retentionHours = 168
	}
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &runCleanupService{
		runs:      runs,
		logger:    logger,
		interval:  time.Duration(intervalSeconds) * time.Second,
		retention: time.Duration(retentionHours) * time.Hour,
		now:       now,
	}
}

func (s *runCleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Warn("run cleanup failed", "err", err)
				continue
			}
			if removed > 0 {
				s.logger.Info("run cleanup removed", "count", removed)
			}
		}
	}
}

func (s *runCleanupService) RunOnce(ctx context.Context) (int, error) {
	return s.runs.CleanupExpired(ctx, s.now().Add(-s.retention), 1000)
}
