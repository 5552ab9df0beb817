package services

import (
	"context"
	"errors"
	"testing"

	"github.com/osvaldoandrade/placebench/internal/repository"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupQueueTest(t *testing.T) (context.Context, QueueService) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewQueueService(repository.NewScenarioRepository(rdb), ScenarioDefaults{GridSize: 20, Pattern: "random_scattered"}, fixedNow)
	return context.Background(), svc
}

func TestQueueAddAssignsUniqueIDsInOrder(t *testing.T) {
	ctx, svc := setupQueueTest(t)
	seen := map[string]bool{}
	for i := 1; i <= 3; i++ {
		sc, err := svc.Add(ctx, domain.ScenarioDefinition{GridSize: 10 * i, Pattern: "grid"})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if sc.ID == "" || seen[sc.ID] {
			t.Fatalf("expected fresh unique id, got %q", sc.ID)
		}
		seen[sc.ID] = true
		if !sc.CreatedAt.Equal(fixedNow()) {
			t.Fatalf("unexpected CreatedAt %v", sc.CreatedAt)
		}
	}
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i, sc := range list {
		if sc.GridSize != 10*(i+1) {
			t.Fatalf("queue out of order: %+v", list)
		}
	}
}

func TestQueueAddDoesNotCheckPattern(t *testing.T) {
	ctx, svc := setupQueueTest(t)
	sc, err := svc.Add(ctx, domain.ScenarioDefinition{GridSize: 10, Pattern: "no-such-pattern"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sc.Pattern != "no-such-pattern" {
		t.Fatalf("pattern must be stored verbatim, got %q", sc.Pattern)
	}
	sc, err = svc.Add(ctx, domain.ScenarioDefinition{GridSize: 10})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sc.Pattern != "random_scattered" {
		t.Fatalf("expected default pattern, got %q", sc.Pattern)
	}
}

func TestQueueAddRejectsInvalidDefinition(t *testing.T) {
	ctx, svc := setupQueueTest(t)
	zero := 0
	neg := -5.0
	tests := []struct {
		name string
		def  domain.ScenarioDefinition
	}{
		{"zero grid", domain.ScenarioDefinition{GridSize: 0, Pattern: "grid"}},
		{"huge grid", domain.ScenarioDefinition{GridSize: 5000, Pattern: "grid"}},
		{"zero antennas", domain.ScenarioDefinition{GridSize: 5, MaxAntennas: &zero}},
		{"negative budget", domain.ScenarioDefinition{GridSize: 5, MaxBudget: &neg}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Add(ctx, tt.def); !errors.Is(err, domain.ErrInvalidScenario) {
				t.Fatalf("expected ErrInvalidScenario, got %v", err)
			}
		})
	}
	if list, _ := svc.List(ctx); len(list) != 0 {
		t.Fatalf("invalid scenarios must not be queued")
	}
}

func TestQueueRemoveAndClear(t *testing.T) {
	ctx, svc := setupQueueTest(t)
	a, _ := svc.Add(ctx, domain.ScenarioDefinition{GridSize: 5, Pattern: "grid"})
	b, _ := svc.Add(ctx, domain.ScenarioDefinition{GridSize: 6, Pattern: "grid"})

	if err := svc.Remove(ctx, a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := svc.Remove(ctx, a.ID); err != nil {
		t.Fatalf("second Remove must be a no-op: %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("unexpected queue %+v", list)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if list, _ := svc.List(ctx); len(list) != 0 {
		t.Fatalf("expected empty queue")
	}
}

func TestImportBulkAppliesDefaultsPerField(t *testing.T) {
	ctx, svc := setupQueueTest(t)
	raw := []byte(`{"scenarios":[
		{"gridSize": 30, "pattern": "clustered", "maxBudget": 40000, "maxAntennas": 3},
		{},
		{"gridSize": "big", "pattern": 7, "maxBudget": "lots", "maxAntennas": 2.5},
		{"gridSize": -4, "pattern": "border", "maxBudget": 0},
		"not an object",
		{"gridSize": 15, "extra": true, "maxAntennas": null}
	]}`)

	got, err := svc.ImportBulk(ctx, raw)
	if err != nil {
		t.Fatalf("ImportBulk: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("expected 6 scenarios, got %d", len(got))
	}

	first := got[0]
	if first.GridSize != 30 || first.Pattern != "clustered" || *first.MaxBudget != 40000 || *first.MaxAntennas != 3 {
		t.Fatalf("explicit fields lost: %+v", first)
	}
	for _, i := range []int{1, 2, 4} {
		sc := got[i]
		if sc.GridSize != 20 || sc.Pattern != "random_scattered" || sc.MaxBudget != nil || sc.MaxAntennas != nil {
			t.Fatalf("item %d: expected all defaults, got %+v", i, sc)
		}
	}
	if got[3].GridSize != 20 || got[3].Pattern != "border" || got[3].MaxBudget != nil {
		t.Fatalf("item 3: expected per-field fallback, got %+v", got[3])
	}
	if got[5].GridSize != 15 || got[5].MaxAntennas != nil {
		t.Fatalf("item 5: unexpected %+v", got[5])
	}

	list, _ := svc.List(ctx)
	if len(list) != 6 || list[0].ID != got[0].ID || list[5].ID != got[5].ID {
		t.Fatalf("imported scenarios must be appended in order")
	}
}

func TestImportBulkMalformed(t *testing.T) {
	ctx, svc := setupQueueTest(t)
	cases := map[string]string{
		"not json":         `{{`,
		"top-level array":  `[{"gridSize":5}]`,
		"missing field":    `{"items":[]}`,
		"field not a list": `{"scenarios":{"gridSize":5}}`,
		"null list":        `{"scenarios":null}`,
		"null document":    `null`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.ImportBulk(ctx, []byte(raw)); !errors.Is(err, domain.ErrMalformedImport) {
				t.Fatalf("expected ErrMalformedImport, got %v", err)
			}
		})
	}
	if list, _ := svc.List(ctx); len(list) != 0 {
		t.Fatalf("malformed imports must not touch the queue")
	}
}

func TestImportBulkEmptyList(t *testing.T) {
	ctx, svc := setupQueueTest(t)
	got, err := svc.ImportBulk(ctx, []byte(`{"scenarios":[]}`))
	if err != nil {
		t.Fatalf("ImportBulk: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected nothing imported, got %d", len(got))
	}
}
