package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/osvaldoandrade/placebench/pkg/domain"
	"github.com/osvaldoandrade/placebench/pkg/persistence"
)

// Plugin implements PluginPersistence for in-memory storage.
// State is lost on restart; it backs local comparisons and tests.
type Plugin struct {
	mu        sync.RWMutex
	scenarios []domain.Scenario
	runs      map[string]*domain.BatchRun
	tz        *time.Location
}

// NewPlugin creates a new in-memory persistence plugin
func NewPlugin(config persistence.PluginConfig) (persistence.PluginPersistence, error) {
	return &Plugin{
		runs: make(map[string]*domain.BatchRun),
		tz:   config.Timezone,
	}, nil
}

func (p *Plugin) ScenarioStorage() persistence.ScenarioStorage {
	return &scenarioStorage{plugin: p}
}

func (p *Plugin) RunStorage() persistence.RunStorage {
	return &runStorage{plugin: p}
}

// Health always returns nil for in-memory storage
func (p *Plugin) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op for in-memory storage
func (p *Plugin) Close() error {
	return nil
}

func init() {
	persistence.RegisterProvider("memory", NewPlugin)
}

type scenarioStorage struct {
	plugin *Plugin
}

func (s *scenarioStorage) Append(ctx context.Context, sc domain.Scenario) error {
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()
	s.plugin.scenarios = append(s.plugin.scenarios, sc)
	return nil
}

func (s *scenarioStorage) Remove(ctx context.Context, id string) error {
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()
	kept := s.plugin.scenarios[:0]
	for _, sc := range s.plugin.scenarios {
		if sc.ID != id {
			kept = append(kept, sc)
		}
	}
	s.plugin.scenarios = kept
	return nil
}

func (s *scenarioStorage) Clear(ctx context.Context) error {
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()
	s.plugin.scenarios = nil
	return nil
}

func (s *scenarioStorage) List(ctx context.Context) ([]domain.Scenario, error) {
	s.plugin.mu.RLock()
	defer s.plugin.mu.RUnlock()
	out := make([]domain.Scenario, len(s.plugin.scenarios))
	copy(out, s.plugin.scenarios)
	return out, nil
}

func (s *scenarioStorage) Len(ctx context.Context) (int64, error) {
	s.plugin.mu.RLock()
	defer s.plugin.mu.RUnlock()
	return int64(len(s.plugin.scenarios)), nil
}

type runStorage struct {
	plugin *Plugin
}

func (r *runStorage) Save(ctx context.Context, run *domain.BatchRun) error {
	cp := cloneRun(run)
	r.plugin.mu.Lock()
	defer r.plugin.mu.Unlock()
	r.plugin.runs[run.ID] = cp
	return nil
}

func (r *runStorage) Get(ctx context.Context, id string) (*domain.BatchRun, error) {
	r.plugin.mu.RLock()
	defer r.plugin.mu.RUnlock()
	run, ok := r.plugin.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return cloneRun(run), nil
}

func (r *runStorage) List(ctx context.Context, limit int) ([]domain.BatchRun, error) {
	r.plugin.mu.RLock()
	out := make([]domain.BatchRun, 0, len(r.plugin.runs))
	for _, run := range r.plugin.runs {
		out = append(out, *cloneRun(run))
	}
	r.plugin.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *runStorage) CleanupExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	r.plugin.mu.Lock()
	defer r.plugin.mu.Unlock()
	removed := 0
	for id, run := range r.plugin.runs {
		if limit > 0 && removed >= limit {
			break
		}
		if run.Status == domain.RunRunning || !run.StartedAt.Before(before) {
			continue
		}
		delete(r.plugin.runs, id)
		removed++
	}
	return removed, nil
}

// cloneRun copies the slices a caller may keep appending to.
func cloneRun(run *domain.BatchRun) *domain.BatchRun {
	cp := *run
	cp.Config = run.Config.Clone()
	cp.Results = append([]domain.ScenarioResult(nil), run.Results...)
	cp.Skipped = append([]string(nil), run.Skipped...)
	return &cp
}
