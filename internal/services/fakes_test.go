package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/osvaldoandrade/placebench/internal/providers"
	"github.com/osvaldoandrade/placebench/pkg/domain"
)

type fakeInstances struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeInstances) Obstacles(ctx context.Context, pattern string, size int) ([]domain.Coord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	switch pattern {
	case "broken":
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPattern, pattern)
	case "panic":
		panic("generator exploded")
	}
	return []domain.Coord{{X: 0, Y: 0}, {X: size - 1, Y: size - 1}}, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	fail     map[string]bool
	panics   map[string]bool
	delay    time.Duration
	block    chan struct{}
	requests []providers.SolverRequest
	inFlight int
	peak     int
}

func (f *fakeGateway) Solve(ctx context.Context, req providers.SolverRequest) (*domain.SolverResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.block != nil {
		<-f.block
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics[req.Algorithm] {
		var broken map[string]int
		broken[req.Algorithm]++
	}
	if f.fail[req.Algorithm] {
		return nil, errors.New("solver returned 500")
	}
	n := len(req.Algorithm)
	placements := make([]domain.Placement, n%4+1)
	return &domain.SolverResult{
		Algorithm:          req.Algorithm,
		Placements:         placements,
		Antennas:           placements,
		CoveragePercentage: float64(10 * n % 100),
		TotalCost:          float64(1000 * n),
		ExecutionTimeMs:    float64(n),
	}, nil
}

func (f *fakeGateway) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeUploader struct {
	mu    sync.Mutex
	paths []string
	data  map[string][]byte
	err   error
}

func (f *fakeUploader) UploadBytes(ctx context.Context, objectPath string, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		f.data = map[string][]byte{}
	}
	f.paths = append(f.paths, objectPath)
	f.data[objectPath] = data
	return "https://reports.example.com/" + objectPath, nil
}

func allTypes() []domain.AntennaType { return domain.AllAntennaTypes() }

func fixedNow() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }
