package controllers

import (
	"fmt"

	"github.com/osvaldoandrade/placebench/pkg/domain"
)

// runConfigReq selects algorithms and antenna types. A nil list means the
// server default; an explicit empty list is kept so the run fails validation.
type runConfigReq struct {
	Algorithms   *[]string `json:"algorithms,omitempty"`
	AntennaTypes *[]string `json:"antennaTypes,omitempty"`
}

func (r runConfigReq) resolve(def domain.RunConfig) (domain.RunConfig, error) {
	cfg := def.Clone()
	if r.Algorithms != nil {
		cfg.Algorithms = append([]string(nil), (*r.Algorithms)...)
	}
	if r.AntennaTypes != nil {
		cfg.AntennaTypes = make([]domain.AntennaType, 0, len(*r.AntennaTypes))
		for _, raw := range *r.AntennaTypes {
			t, ok := domain.ParseAntennaType(raw)
			if !ok {
				return domain.RunConfig{}, fmt.Errorf("%w: unknown antenna type %q", domain.ErrInvalidScenario, raw)
			}
			cfg.AntennaTypes = append(cfg.AntennaTypes, t)
		}
	}
	return cfg, nil
}
