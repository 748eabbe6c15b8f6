package model

import (
	"fmt"
)

// Scaler standardizes numerical features with the statistics fitted during
// training: z = (x - mean) / scale per column.
type Scaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

// Transform standardizes one row of numerical values, given in the scaler's
// column order.
func (s *Scaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.Columns) {
		return nil, fmt.Errorf("%w: got %d numerical values, scaler fitted on %d columns",
			ErrFeatureShape, len(values), len(s.Columns))
	}

	scaled := make([]float64, len(values))
	for i, v := range values {
		if s.Scale[i] != 0 {
			scaled[i] = (v - s.Mean[i]) / s.Scale[i]
		} else {
			scaled[i] = v - s.Mean[i]
		}
	}
	return scaled, nil
}

func (s *Scaler) validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: scaler has no columns", ErrModelArtifact)
	}
	if len(s.Mean) != len(s.Columns) || len(s.Scale) != len(s.Columns) {
		return fmt.Errorf("%w: scaler statistics do not match its %d columns",
			ErrModelArtifact, len(s.Columns))
	}
	return nil
}
