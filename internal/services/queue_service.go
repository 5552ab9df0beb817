package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/osvaldoandrade/placebench/pkg/domain"
	"github.com/osvaldoandrade/placebench/pkg/persistence"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxGridSize = 1000

type QueueService interface {
	Add(ctx context.Context, def domain.ScenarioDefinition) (*domain.Scenario, error)
	Remove(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	List(ctx context.Context) ([]domain.Scenario, error)
	ImportBulk(ctx context.Context, raw []byte) ([]domain.Scenario, error)
}

// ScenarioDefaults fill fields an import item leaves out or gets wrong.
type ScenarioDefaults struct {
	GridSize int
	Pattern  string
}

type queueService struct {
	store    persistence.ScenarioStorage
	defaults ScenarioDefaults
	validate *validator.Validate
	now      func() time.Time
}

func NewQueueService(store persistence.ScenarioStorage, defaults ScenarioDefaults, now func() time.Time) QueueService {
	if defaults.GridSize <= 0 {
		defaults.GridSize = 20
	}
	if defaults.Pattern == "" {
		defaults.Pattern = "random_scattered"
	}
	if now == nil {
		now = time.Now
	}
	return &queueService{
		store:    store,
		defaults: defaults,
		validate: validator.New(),
		now:      now,
	}
}

// Add appends a scenario. The pattern is not checked here; an unknown one
// fails later when obstacles are generated.
func (s *queueService) Add(ctx context.Context, def domain.ScenarioDefinition) (*domain.Scenario, error) {
	sc, err := s.newScenario(def)
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, *sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *queueService) newScenario(def domain.ScenarioDefinition) (*domain.Scenario, error) {
	def.Pattern = strings.TrimSpace(def.Pattern)
	if def.Pattern == "" {
		def.Pattern = s.defaults.Pattern
	}
	if err := checkDefinition(s.validate, def); err != nil {
		return nil, err
	}
	return &domain.Scenario{
		ID:          uuid.NewString(),
		GridSize:    def.GridSize,
		Pattern:     def.Pattern,
		MaxBudget:   def.MaxBudget,
		MaxAntennas: def.MaxAntennas,
		CreatedAt:   s.now(),
	}, nil
}

// checkDefinition enforces grid bounds and positive optional caps.
func checkDefinition(v *validator.Validate, def domain.ScenarioDefinition) error {
	if err := v.Struct(def); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidScenario, err)
	}
	return nil
}

func (s *queueService) Remove(ctx context.Context, id string) error {
	return s.store.Remove(ctx, id)
}

func (s *queueService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *queueService) List(ctx context.Context) ([]domain.Scenario, error) {
	return s.store.List(ctx)
}

// ImportBulk reads {"scenarios":[...]}. Each item field that is missing, of
// the wrong type or out of range falls back to its default independently.
func (s *queueService) ImportBulk(ctx context.Context, raw []byte) ([]domain.Scenario, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return nil, domain.ErrMalformedImport
	}
	list, ok := doc["scenarios"]
	if !ok {
		return nil, domain.ErrMalformedImport
	}
	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil || items == nil {
		return nil, domain.ErrMalformedImport
	}

	scenarios := make([]domain.Scenario, 0, len(items))
	for _, item := range items {
		sc, err := s.newScenario(s.decodeItem(item))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *sc)
	}
	for i, sc := range scenarios {
		if err := s.store.Append(ctx, sc); err != nil {
			return scenarios[:i], fmt.Errorf("import scenario %d: %w", i, err)
		}
	}
	return scenarios, nil
}

func (s *queueService) decodeItem(raw json.RawMessage) domain.ScenarioDefinition {
	def := domain.ScenarioDefinition{GridSize: s.defaults.GridSize, Pattern: s.defaults.Pattern}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return def
	}
	if n, ok := positiveInt(fields["gridSize"]); ok && n <= maxGridSize {
		def.GridSize = n
	}
	var pattern string
	if err := json.Unmarshal(fields["pattern"], &pattern); err == nil && strings.TrimSpace(pattern) != "" {
		def.Pattern = strings.TrimSpace(pattern)
	}
	var budget float64
	if err := json.Unmarshal(fields["maxBudget"], &budget); err == nil && budget > 0 {
		def.MaxBudget = &budget
	}
	if n, ok := positiveInt(fields["maxAntennas"]); ok {
		def.MaxAntennas = &n
	}
	return def
}

func positiveInt(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
