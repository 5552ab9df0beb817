package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/osvaldoandrade/placebench/pkg/domain"
)

func newExecutor(gw *fakeGateway, concurrency int) (ExecutorService, *fakeInstances) {
	inst := &fakeInstances{}
	return NewExecutorService(inst, gw, concurrency, nil), inst
}

func TestRunSingleExcludesFailedSolvers(t *testing.T) {
	gw := &fakeGateway{fail: map[string]bool{"genetic": true, "vns": true}}
	exec, inst := newExecutor(gw, 0)
	sc := domain.Scenario{ID: "s1", GridSize: 20, Pattern: "random_scattered"}
	cfg := domain.RunConfig{Algorithms: domain.KnownAlgorithms, AntennaTypes: allTypes()}

	res, err := exec.RunSingle(context.Background(), sc, cfg)
	if err != nil {
		t.Fatalf("RunSingle: %v", err)
	}
	if len(res.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(res.Results))
	}
	want := []string{"greedy", "simulated-annealing", "tabu-search", "hill-climbing"}
	for i, r := range res.Results {
		if r.Algorithm != want[i] {
			t.Fatalf("result %d: expected %s, got %s", i, want[i], r.Algorithm)
		}
	}
	if gw.requestCount() != 6 {
		t.Fatalf("expected 6 invocations, got %d", gw.requestCount())
	}
	if inst.calls != 1 {
		t.Fatalf("obstacles must be generated once per scenario, got %d", inst.calls)
	}
}

func TestRunSingleSurvivesPanickingSolver(t *testing.T) {
	gw := &fakeGateway{panics: map[string]bool{"bad": true}}
	exec, _ := newExecutor(gw, 0)
	sc := domain.Scenario{ID: "s1", GridSize: 10, Pattern: "grid"}
	cfg := domain.RunConfig{Algorithms: []string{"greedy", "bad"}, AntennaTypes: allTypes()}

	run, err := exec.RunBatch(context.Background(), []domain.Scenario{sc}, cfg, BatchHooks{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(run.Skipped) != 0 || len(run.Results) != 1 {
		t.Fatalf("expected one scenario result and no skips, got results=%d skipped=%v", len(run.Results), run.Skipped)
	}
	got := run.Results[0].Results
	if len(got) != 1 || got[0].Algorithm != "greedy" {
		t.Fatalf("expected only greedy to survive, got %+v", got)
	}
	if gw.requestCount() != 2 {
		t.Fatalf("expected both solvers to be invoked, got %d", gw.requestCount())
	}
}

func TestRunSingleSendsIdenticalInstance(t *testing.T) {
	gw := &fakeGateway{}
	exec, _ := newExecutor(gw, 0)
	budget := 30000.0
	caps := 5
	sc := domain.Scenario{ID: "s1", GridSize: 12, Pattern: "grid", MaxBudget: &budget, MaxAntennas: &caps}
	cfg := domain.RunConfig{Algorithms: []string{"greedy", "genetic", "vns"}, AntennaTypes: []domain.AntennaType{domain.AntennaPico}}

	res, err := exec.RunSingle(context.Background(), sc, cfg)
	if err != nil {
		t.Fatalf("RunSingle: %v", err)
	}
	first := gw.requests[0]
	for _, req := range gw.requests[1:] {
		if !reflect.DeepEqual(req.Obstacles, first.Obstacles) {
			t.Fatalf("obstacle sets differ between solvers")
		}
		if req.Width != 12 || req.Height != 12 || *req.MaxBudget != budget || *req.MaxAntennas != caps {
			t.Fatalf("unexpected request %+v", req)
		}
		if !reflect.DeepEqual(req.AntennaTypes, cfg.AntennaTypes) {
			t.Fatalf("antenna types differ: %v", req.AntennaTypes)
		}
	}
	if !reflect.DeepEqual(res.Obstacles, first.Obstacles) {
		t.Fatalf("result must carry the obstacle set sent to solvers")
	}
}

func TestRunSingleValidatesBeforeRemoteCalls(t *testing.T) {
	tests := []struct {
		name string
		cfg  domain.RunConfig
		want error
	}{
		{"no algorithms", domain.RunConfig{AntennaTypes: allTypes()}, domain.ErrNoAlgorithmsSelected},
		{"no antenna types", domain.RunConfig{Algorithms: []string{"greedy"}}, domain.ErrNoCapabilitiesSelected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			exec, inst := newExecutor(gw, 0)
			_, err := exec.RunSingle(context.Background(), domain.Scenario{ID: "s", GridSize: 5, Pattern: "grid"}, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if gw.requestCount() != 0 || inst.calls != 0 {
				t.Fatalf("no collaborator may be called on invalid config")
			}
			if _, err := exec.RunBatch(context.Background(), []domain.Scenario{{ID: "s"}}, tt.cfg, BatchHooks{}); !errors.Is(err, tt.want) {
				t.Fatalf("RunBatch: expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunSingleBoundsConcurrency(t *testing.T) {
	gw := &fakeGateway{delay: 20 * time.Millisecond}
	exec, _ := newExecutor(gw, 2)
	cfg := domain.RunConfig{Algorithms: domain.KnownAlgorithms, AntennaTypes: allTypes()}
	if _, err := exec.RunSingle(context.Background(), domain.Scenario{ID: "s", GridSize: 5, Pattern: "grid"}, cfg); err != nil {
		t.Fatalf("RunSingle: %v", err)
	}
	if gw.peak > 2 {
		t.Fatalf("expected at most 2 concurrent calls, saw %d", gw.peak)
	}
}

func TestRunBatchSkipsFailingScenario(t *testing.T) {
	gw := &fakeGateway{}
	exec, _ := newExecutor(gw, 0)
	scenarios := []domain.Scenario{
		{ID: "one", GridSize: 10, Pattern: "grid"},
		{ID: "two", GridSize: 10, Pattern: "broken"},
		{ID: "three", GridSize: 10, Pattern: "panic"},
		{ID: "four", GridSize: 10, Pattern: "grid"},
	}
	cfg := domain.RunConfig{Algorithms: []string{"greedy", "genetic"}, AntennaTypes: allTypes()}

	var skipped []string
	run, err := exec.RunBatch(context.Background(), scenarios, cfg, BatchHooks{
		OnSkip: func(sc domain.Scenario, err error) { skipped = append(skipped, sc.ID) },
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if run.Status != domain.RunCompleted {
		t.Fatalf("expected COMPLETED, got %s", run.Status)
	}
	if len(run.Results) != 2 || run.Results[0].Scenario.ID != "one" || run.Results[1].Scenario.ID != "four" {
		t.Fatalf("unexpected results: %+v", run.Results)
	}
	if !reflect.DeepEqual(run.Skipped, []string{"two", "three"}) || !reflect.DeepEqual(skipped, run.Skipped) {
		t.Fatalf("unexpected skipped list: %v / %v", run.Skipped, skipped)
	}
	if run.Progress != (domain.Progress{Completed: 4, Total: 4}) {
		t.Fatalf("unexpected progress %+v", run.Progress)
	}
}

func TestRunBatchReportsProgressBeforeEachScenario(t *testing.T) {
	gw := &fakeGateway{}
	exec, _ := newExecutor(gw, 0)
	scenarios := []domain.Scenario{
		{ID: "a", GridSize: 5, Pattern: "grid"},
		{ID: "b", GridSize: 5, Pattern: "grid"},
		{ID: "c", GridSize: 5, Pattern: "grid"},
	}
	cfg := domain.RunConfig{Algorithms: []string{"greedy"}, AntennaTypes: allTypes()}

	var events []string
	_, err := exec.RunBatch(context.Background(), scenarios, cfg, BatchHooks{
		OnStart: func(p domain.Progress, sc domain.Scenario) {
			events = append(events, "start:"+sc.ID+":"+string(rune('0'+p.Completed))+"/"+string(rune('0'+p.Total)))
		},
		OnResult: func(res domain.ScenarioResult) {
			events = append(events, "done:"+res.Scenario.ID)
		},
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	want := []string{"start:a:1/3", "done:a", "start:b:2/3", "done:b", "start:c:3/3", "done:c"}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

func TestRunBatchCancellationFinishesInFlightScenario(t *testing.T) {
	gw := &fakeGateway{delay: 10 * time.Millisecond}
	exec, _ := newExecutor(gw, 0)
	scenarios := []domain.Scenario{
		{ID: "a", GridSize: 5, Pattern: "grid"},
		{ID: "b", GridSize: 5, Pattern: "grid"},
		{ID: "c", GridSize: 5, Pattern: "grid"},
	}
	cfg := domain.RunConfig{Algorithms: []string{"greedy", "genetic"}, AntennaTypes: allTypes()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	run, err := exec.RunBatch(ctx, scenarios, cfg, BatchHooks{
		OnStart: func(p domain.Progress, sc domain.Scenario) {
			if sc.ID == "a" {
				cancel()
			}
		},
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if run.Status != domain.RunCancelled {
		t.Fatalf("expected CANCELLED, got %s", run.Status)
	}
	if len(run.Results) != 1 || len(run.Results[0].Results) != 2 {
		t.Fatalf("in-flight scenario must complete with all solvers: %+v", run.Results)
	}
	if run.Progress.Completed != 1 {
		t.Fatalf("expected progress 1, got %+v", run.Progress)
	}
}

func TestRunBatchEmptyQueue(t *testing.T) {
	exec, _ := newExecutor(&fakeGateway{}, 0)
	run, err := exec.RunBatch(context.Background(), nil, domain.RunConfig{Algorithms: []string{"greedy"}, AntennaTypes: allTypes()}, BatchHooks{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if run.Status != domain.RunCompleted || len(run.Results) != 0 || run.Progress.Total != 0 {
		t.Fatalf("unexpected run %+v", run)
	}
}
