package domain

type Placement struct {
	X        int         `json:"x" validate:"gte=0"`
	Y        int         `json:"y" validate:"gte=0"`
	Type     AntennaType `json:"type" validate:"required"`
	Radius   int         `json:"radius,omitempty" validate:"gte=0"`
	MaxUsers int         `json:"max_users,omitempty" validate:"gte=0"`
	Cost     int         `json:"cost,omitempty" validate:"gte=0"`
}

// SolverResult is one successful solver invocation. Placements and Antennas
// carry the same list; Antennas is kept for the wire format.
type SolverResult struct {
	Algorithm              string      `json:"algorithm" validate:"required"`
	Placements             []Placement `json:"placements" validate:"dive"`
	Antennas               []Placement `json:"antennas" validate:"dive"`
	CoveragePercentage     float64     `json:"coverage_percentage" validate:"gte=0,lte=100"`
	TotalCost              float64     `json:"total_cost" validate:"gte=0"`
	ExecutionTimeMs        float64     `json:"execution_time_ms" validate:"gte=0"`
	UsersCovered           int         `json:"users_covered,omitempty" validate:"gte=0"`
	TotalUsers             int         `json:"total_users,omitempty" validate:"gte=0"`
	UserCoveragePercentage float64     `json:"user_coverage_percentage,omitempty" validate:"gte=0,lte=100"`
	TotalCapacity          int         `json:"total_capacity,omitempty" validate:"gte=0"`
	CapacityUtilization    float64     `json:"capacity_utilization,omitempty" validate:"gte=0"`
}

func (r SolverResult) PlacementCount() int {
	return len(r.Antennas)
}

type ScenarioResult struct {
	Scenario  Scenario       `json:"scenario"`
	Results   []SolverResult `json:"results"`
	Obstacles []Coord        `json:"obstacles"`
}

type RankingEntry struct {
	Algorithm      string  `json:"algorithm"`
	CostRank       int     `json:"costRank"`
	CoverageRank   int     `json:"coverageRank"`
	TimeRank       int     `json:"timeRank"`
	AntennasRank   int     `json:"antennasRank"`
	EfficiencyRank int     `json:"efficiencyRank"`
	OverallScore   float64 `json:"overallScore"`
}
