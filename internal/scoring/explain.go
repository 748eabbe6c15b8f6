package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultTopFactors is how many contributing features a summary names.
const DefaultTopFactors = 10

// FactorImportance pairs a feature name with its attribution magnitude.
type FactorImportance struct {
	Feature    string
	Importance float64
}

// TopFactors ranks features by absolute attribution value, descending, and
// returns the top k. Ties keep the earlier feature first (the sort is
// stable over the model's feature order). A k larger than the feature count
// returns every feature.
func TopFactors(attributions []float64, featureNames []string, k int) []FactorImportance {
	n := len(attributions)
	if len(featureNames) < n {
		n = len(featureNames)
	}

	factors := make([]FactorImportance, n)
	for i := 0; i < n; i++ {
		factors[i] = FactorImportance{
			Feature:    featureNames[i],
			Importance: math.Abs(attributions[i]),
		}
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Importance > factors[j].Importance
	})

	if k < len(factors) {
		factors = factors[:k]
	}
	return factors
}

// Summary renders ranked factors as the human-readable explanation sentence.
// Underscores in feature names become spaces.
func Summary(factors []FactorImportance) string {
	names := make([]string, len(factors))
	for i, f := range factors {
		names[i] = strings.ReplaceAll(f.Feature, "_", " ")
	}
	return fmt.Sprintf("The predicted score is arrived at based on %s.", strings.Join(names, ","))
}
