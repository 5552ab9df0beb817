package services

import (
	"context"
	"testing"
	"time"

	"github.com/osvaldoandrade/placebench/internal/repository"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestRunCleanupRemovesExpiredRuns(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	runs := repository.NewRunRepository(rdb, time.UTC)
	now := fixedNow()
	_ = runs.Save(ctx, &domain.BatchRun{ID: "old", Status: domain.RunCompleted, StartedAt: now.Add(-48 * time.Hour)})
	_ = runs.Save(ctx, &domain.BatchRun{ID: "recent", Status: domain.RunCompleted, StartedAt: now.Add(-time.Hour)})

	svc := NewRunCleanupService(runs, nil, 60, 24, fixedNow)
	removed, err := svc.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := runs.Get(ctx, "recent"); err != nil {
		t.Fatalf("recent run must survive: %v", err)
	}
}

func TestRunCleanupStopsWithContext(t *testing.T) {
	svc := NewRunCleanupService(nil, nil, 1, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
