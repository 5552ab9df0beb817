package services

import (
	"context"
	"path"
	"time"

	"github.com/osvaldoandrade/placebench/internal/metrics"
	"github.com/osvaldoandrade/placebench/internal/providers"
	"github.com/osvaldoandrade/placebench/internal/report"
	"github.com/osvaldoandrade/placebench/pkg/domain"
	"github.com/osvaldoandrade/placebench/pkg/persistence"
)

type ExportedReport struct {
	RunID    string `json:"runId"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type ReportService interface {
	Render(ctx context.Context, runID string) (string, error)
	Export(ctx context.Context, runID string) (*ExportedReport, error)
}

type reportService struct {
	runs     persistence.RunStorage
	uploader providers.Uploader
	now      func() time.Time
}

func NewReportService(runs persistence.RunStorage, uploader providers.Uploader, now func() time.Time) ReportService {
	if now == nil {
		now = time.Now
	}
	return &reportService{runs: runs, uploader: uploader, now: now}
}

func (s *reportService) Render(ctx context.Context, runID string) (string, error) {
	body, _, err := s.render(ctx, runID)
	return body, err
}

func (s *reportService) render(ctx context.Context, runID string) (string, time.Time, error) {
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return "", time.Time{}, err
	}
	at := s.now()
	return report.Render(run.Results, domain.RunMetadata{
		GeneratedAt:  at,
		AntennaTypes: run.Config.AntennaTypes,
		Algorithms:   run.Config.Algorithms,
	}), at, nil
}

// Export writes the rendered report as <runID>/benchmark-report-<ts>.txt.
func (s *reportService) Export(ctx context.Context, runID string) (*ExportedReport, error) {
	body, at, err := s.render(ctx, runID)
	if err != nil {
		return nil, err
	}
	name := report.Filename(at)
	url, err := s.uploader.UploadBytes(ctx, path.Join(runID, name), "text/plain; charset=utf-8", []byte(body))
	if err != nil {
		return nil, err
	}
	metrics.ReportsExportedTotal.Inc()
	return &ExportedReport{RunID: runID, Filename: name, URL: url}, nil
}
