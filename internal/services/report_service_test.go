package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/osvaldoandrade/placebench/pkg/domain"
	"github.com/osvaldoandrade/placebench/pkg/persistence"
)

func setupReportTest(t *testing.T, up *fakeUploader) (persistence.RunStorage, ReportService) {
	t.Helper()
	plugin, err := persistence.NewPersistence(persistence.ProviderConfig{Type: "memory"}, persistence.PluginConfig{Timezone: time.UTC})
	if err != nil {
		t.Fatalf("persistence: %v", err)
	}
	runs := plugin.RunStorage()
	run := &domain.BatchRun{
		ID:     "run-1",
		Status: domain.RunCompleted,
		Config: domain.RunConfig{Algorithms: []string{"greedy"}, AntennaTypes: []domain.AntennaType{domain.AntennaMicro}},
		Results: []domain.ScenarioResult{{
			Scenario: domain.Scenario{ID: "s1", GridSize: 20, Pattern: "grid"},
			Results:  []domain.SolverResult{{Algorithm: "greedy", CoveragePercentage: 50, TotalCost: 12000}},
		}},
		StartedAt: fixedNow(),
	}
	if err := runs.Save(context.Background(), run); err != nil {
		t.Fatalf("save: %v", err)
	}
	return runs, NewReportService(runs, up, fixedNow)
}

func TestReportRender(t *testing.T) {
	_, svc := setupReportTest(t, &fakeUploader{})
	body, err := svc.Render(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "Antenna types: Micro") || !strings.Contains(body, "1st  greedy") {
		t.Fatalf("unexpected report:\n%s", body)
	}
	if _, err := svc.Render(context.Background(), "nope"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestReportExport(t *testing.T) {
	up := &fakeUploader{}
	_, svc := setupReportTest(t, up)
	out, err := svc.Export(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if out.Filename != "benchmark-report-20260203-040506.txt" {
		t.Fatalf("unexpected filename %q", out.Filename)
	}
	if len(up.paths) != 1 || up.paths[0] != "run-1/"+out.Filename {
		t.Fatalf("unexpected upload paths %v", up.paths)
	}
	if !strings.HasSuffix(out.URL, out.Filename) {
		t.Fatalf("unexpected url %q", out.URL)
	}

	failing := &fakeUploader{err: errors.New("disk full")}
	_, svc = setupReportTest(t, failing)
	if _, err := svc.Export(context.Background(), "run-1"); err == nil {
		t.Fatalf("expected upload error")
	}
}
