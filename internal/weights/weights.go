// Package weights resolves per-company factor weight overrides into the dense
// weight vectors consumed by the scoring engine.
package weights

import (
	"log"
)

// DefaultWeight is applied to every factor a company has not explicitly
// configured. Absence is not the same as zero importance.
const DefaultWeight = 0.1

// Override is one company-configured (factor, weight) pair.
type Override struct {
	Factor string  `json:"factor"`
	Weight float64 `json:"weight"`
}

// Resolve builds dense weight vectors over the numerical and categorical
// column sets, in their given orders. Every factor starts at defaultWeight;
// overrides are applied by name. Override names that match no known factor
// are tolerated, so company configuration can drift ahead of or behind the
// model schema, but they are logged because a typo would otherwise never
// surface.
//
// Resolve is pure: the same inputs always yield the same vectors.
func Resolve(companyID string, overrides []Override, numericalColumns, categoricalColumns []string, defaultWeight float64) (numericalWeights, categoricalWeights []float64) {
	table := make(map[string]float64, len(numericalColumns)+len(categoricalColumns))
	for _, name := range numericalColumns {
		table[name] = defaultWeight
	}
	for _, name := range categoricalColumns {
		table[name] = defaultWeight
	}

	for _, o := range overrides {
		if _, known := table[o.Factor]; !known {
			log.Printf("Warning: company %s overrides unknown factor %q, ignoring", companyID, o.Factor)
			continue
		}
		table[o.Factor] = o.Weight
	}

	numericalWeights = make([]float64, len(numericalColumns))
	for i, name := range numericalColumns {
		numericalWeights[i] = table[name]
	}
	categoricalWeights = make([]float64, len(categoricalColumns))
	for i, name := range categoricalColumns {
		categoricalWeights[i] = table[name]
	}

	return numericalWeights, categoricalWeights
}
