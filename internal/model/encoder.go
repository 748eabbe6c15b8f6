package model

import (
	"fmt"
)

// Encoder one-hot encodes categorical features using the vocabulary fitted
// during training. A value outside the fitted vocabulary encodes as an
// all-zero block for its column, keeping inference available for novel
// labels instead of failing.
type Encoder struct {
	Columns    []string   `json:"columns"`
	Categories [][]string `json:"categories"`
}

// Transform encodes one row of categorical labels, given in the encoder's
// column order, into the expanded one-hot vector.
func (e *Encoder) Transform(values []string) ([]float64, error) {
	if len(values) != len(e.Columns) {
		return nil, fmt.Errorf("%w: got %d categorical values, encoder fitted on %d columns",
			ErrFeatureShape, len(values), len(e.Columns))
	}

	encoded := make([]float64, 0, e.Width())
	for i, v := range values {
		block := make([]float64, len(e.Categories[i]))
		for j, cat := range e.Categories[i] {
			if cat == v {
				block[j] = 1.0
				break
			}
		}
		encoded = append(encoded, block...)
	}
	return encoded, nil
}

// Width returns the total expanded feature width.
func (e *Encoder) Width() int {
	w := 0
	for _, cats := range e.Categories {
		w += len(cats)
	}
	return w
}

// BlockSizes returns the expanded width of each source column, in column
// order. Factor-level weighting uses this to spread one weight across a
// column's one-hot block.
func (e *Encoder) BlockSizes() []int {
	sizes := make([]int, len(e.Categories))
	for i, cats := range e.Categories {
		sizes[i] = len(cats)
	}
	return sizes
}

// FeatureNames returns the expanded feature names, column order first, then
// category order within each column ("Location_Mumbai" style).
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for i, col := range e.Columns {
		for _, cat := range e.Categories[i] {
			names = append(names, fmt.Sprintf("%s_%s", col, cat))
		}
	}
	return names
}

func (e *Encoder) validate() error {
	if len(e.Columns) == 0 {
		return fmt.Errorf("%w: encoder has no columns", ErrModelArtifact)
	}
	if len(e.Categories) != len(e.Columns) {
		return fmt.Errorf("%w: encoder has %d vocabularies for %d columns",
			ErrModelArtifact, len(e.Categories), len(e.Columns))
	}
	for i, cats := range e.Categories {
		if len(cats) == 0 {
			return fmt.Errorf("%w: encoder column %q has an empty vocabulary",
				ErrModelArtifact, e.Columns[i])
		}
	}
	return nil
}
