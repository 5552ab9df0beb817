package persistence

import (
	"context"
	"time"

	"github.com/osvaldoandrade/placebench/pkg/domain"
)

// PluginPersistence provides storage operations for persistence plugins.
// This is the main interface that all persistence backends must implement.
type PluginPersistence interface {
	// ScenarioStorage returns the ordered scenario queue
	ScenarioStorage() ScenarioStorage

	// RunStorage returns the batch run store
	RunStorage() RunStorage

	// Health checks if the persistence backend is healthy
	Health(ctx context.Context) error

	// Close releases resources held by the persistence backend
	Close() error
}

// ScenarioStorage is the durable, ordered scenario queue.
type ScenarioStorage interface {
	// Append stores the scenario at the tail of the queue
	Append(ctx context.Context, s domain.Scenario) error

	// Remove deletes the scenario with id; absent ids are not an error
	Remove(ctx context.Context, id string) error

	// Clear empties the queue
	Clear(ctx context.Context) error

	// List returns all scenarios in queue order
	List(ctx context.Context) ([]domain.Scenario, error)

	// Len returns the number of queued scenarios
	Len(ctx context.Context) (int64, error)
}

// RunStorage keeps batch runs and their progress.
type RunStorage interface {
	// Save creates or replaces a run
	Save(ctx context.Context, run *domain.BatchRun) error

	// Get returns domain.ErrRunNotFound when id is unknown
	Get(ctx context.Context, id string) (*domain.BatchRun, error)

	// List returns up to limit runs, newest first
	List(ctx context.Context, limit int) ([]domain.BatchRun, error)

	// CleanupExpired removes finished runs started before the cutoff
	CleanupExpired(ctx context.Context, before time.Time, limit int) (int, error)
}
