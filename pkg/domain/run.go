package domain

import "time"

// RunConfig is captured once when a batch or comparison starts and is never
// mutated afterwards.
type RunConfig struct {
	Algorithms   []string      `json:"algorithms"`
	AntennaTypes []AntennaType `json:"antennaTypes"`
}

func (c RunConfig) Clone() RunConfig {
	return RunConfig{
		Algorithms:   append([]string(nil), c.Algorithms...),
		AntennaTypes: append([]AntennaType(nil), c.AntennaTypes...),
	}
}

type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunCancelled RunStatus = "CANCELLED"
)

func (s RunStatus) MarshalText() ([]byte, error) { return []byte(string(s)), nil }

type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type BatchRun struct {
	ID         string           `json:"id"`
	Status     RunStatus        `json:"status"`
	Config     RunConfig        `json:"config"`
	Progress   Progress         `json:"progress"`
	Results    []ScenarioResult `json:"results"`
	Skipped    []string         `json:"skipped,omitempty"` // scenario ids
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// RunMetadata is the run-level header of an exported report.
type RunMetadata struct {
	GeneratedAt  time.Time
	AntennaTypes []AntennaType
	Algorithms   []string
}
