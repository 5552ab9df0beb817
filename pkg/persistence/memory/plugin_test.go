package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/osvaldoandrade/placebench/pkg/domain"
	"github.com/osvaldoandrade/placebench/pkg/persistence"
)

func newPlugin(t *testing.T) persistence.PluginPersistence {
	t.Helper()
	plugin, err := persistence.NewPersistence(persistence.ProviderConfig{Type: "memory"}, persistence.PluginConfig{Timezone: time.UTC})
	if err != nil {
		t.Fatalf("Failed to create plugin: %v", err)
	}
	t.Cleanup(func() { _ = plugin.Close() })
	return plugin
}

func TestMemoryScenarioStorage(t *testing.T) {
	ctx := context.Background()
	plugin := newPlugin(t)
	if err := plugin.Health(ctx); err != nil {
		t.Errorf("Health check failed: %v", err)
	}
	store := plugin.ScenarioStorage()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Append(ctx, domain.Scenario{ID: id, GridSize: 10, Pattern: "grid"}); err != nil {
			t.Fatalf("Append %s: %v", id, err)
		}
	}
	if err := store.Remove(ctx, "b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove of absent id must be a no-op, got %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "c" {
		t.Fatalf("unexpected queue order: %+v", list)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := store.Len(ctx); n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
}

func TestMemoryRunStorage(t *testing.T) {
	ctx := context.Background()
	store := newPlugin(t).RunStorage()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older := &domain.BatchRun{ID: "r1", Status: domain.RunCompleted, StartedAt: base}
	newer := &domain.BatchRun{ID: "r2", Status: domain.RunRunning, StartedAt: base.Add(time.Minute)}
	for _, r := range []*domain.BatchRun{older, newer} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	newer.Progress = domain.Progress{Completed: 1, Total: 3}
	got, err := store.Get(ctx, "r2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Progress.Total != 0 {
		t.Fatal("stored run must not alias the caller's value")
	}

	runs, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "r2" {
		t.Fatalf("expected newest run first, got %+v", runs)
	}
}

func TestMemoryRunCleanupKeepsRunningBatches(t *testing.T) {
	ctx := context.Background()
	store := newPlugin(t).RunStorage()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = store.Save(ctx, &domain.BatchRun{ID: "done", Status: domain.RunCompleted, StartedAt: old})
	_ = store.Save(ctx, &domain.BatchRun{ID: "busy", Status: domain.RunRunning, StartedAt: old})

	n, err := store.CleanupExpired(ctx, old.Add(time.Hour), 0)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 removed run, got %d", n)
	}
	if _, err := store.Get(ctx, "busy"); err != nil {
		t.Fatalf("running batch must survive cleanup: %v", err)
	}
}
