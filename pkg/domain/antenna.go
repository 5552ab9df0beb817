package domain

import (
	"encoding"
	"strings"
)

type AntennaType string

const (
	AntennaFemto AntennaType = "Femto"
	AntennaPico  AntennaType = "Pico"
	AntennaMicro AntennaType = "Micro"
	AntennaMacro AntennaType = "Macro"
)

type AntennaSpec struct {
	Type     AntennaType `json:"type"`
	Radius   int         `json:"radius"`
	MaxUsers int         `json:"maxUsers"`
	Cost     int         `json:"cost"`
}

// UsersPerHouse is the population of every obstacle cell.
const UsersPerHouse = 20

var AntennaSpecs = []AntennaSpec{
	{Type: AntennaFemto, Radius: 1, MaxUsers: 20, Cost: 1000},
	{Type: AntennaPico, Radius: 6, MaxUsers: 100, Cost: 5000},
	{Type: AntennaMicro, Radius: 40, MaxUsers: 500, Cost: 12000},
	{Type: AntennaMacro, Radius: 100, MaxUsers: 2000, Cost: 25000},
}

func AllAntennaTypes() []AntennaType {
	out := make([]AntennaType, 0, len(AntennaSpecs))
	for _, s := range AntennaSpecs {
		out = append(out, s.Type)
	}
	return out
}

// ParseAntennaType accepts any casing of a known type name.
func ParseAntennaType(v string) (AntennaType, bool) {
	v = strings.TrimSpace(v)
	for _, s := range AntennaSpecs {
		if strings.EqualFold(string(s.Type), v) {
			return s.Type, true
		}
	}
	return "", false
}

var (
	_ encoding.TextMarshaler = AntennaType("")
)

func (t AntennaType) MarshalText() ([]byte, error) { return []byte(string(t)), nil }

// Algorithms known to the solver service. Any other identifier is still
// forwarded; the solver decides whether it exists.
var KnownAlgorithms = []string{
	"greedy",
	"genetic",
	"simulated-annealing",
	"tabu-search",
	"hill-climbing",
	"vns",
}
