package domain

import "time"

type Scenario struct {
	ID          string    `json:"id"`
	GridSize    int       `json:"gridSize"`
	Pattern     string    `json:"pattern"`
	MaxBudget   *float64  `json:"maxBudget,omitempty"`
	MaxAntennas *int      `json:"maxAntennas,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ScenarioDefinition is the caller-supplied part of a Scenario.
type ScenarioDefinition struct {
	GridSize    int      `json:"gridSize" validate:"gt=0,lte=1000"`
	Pattern     string   `json:"pattern"`
	MaxBudget   *float64 `json:"maxBudget,omitempty" validate:"omitempty,gt=0"`
	MaxAntennas *int     `json:"maxAntennas,omitempty" validate:"omitempty,gt=0"`
}

func (s Scenario) Definition() ScenarioDefinition {
	return ScenarioDefinition{
		GridSize:    s.GridSize,
		Pattern:     s.Pattern,
		MaxBudget:   s.MaxBudget,
		MaxAntennas: s.MaxAntennas,
	}
}

// Coord is a grid cell. Obstacles are houses; solvers never place on them.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}
