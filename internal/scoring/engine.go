// Package scoring runs the joining-score pipeline: align a record batch to
// the reference schema, split it into feature groups, resolve per-company
// factor weights, score each row with the trained model, and explain every
// prediction.
package scoring

import (
	"fmt"

	"github.com/hirelens/joinscore/internal/model"
)

// Engine scores a single row against the loaded artifact set. It holds only
// immutable state and is safe for concurrent use.
type Engine struct {
	arts *model.Artifacts
}

// NewEngine wraps a loaded artifact set.
func NewEngine(arts *model.Artifacts) *Engine {
	return &Engine{arts: arts}
}

// FeatureNames returns the model's feature order: the expanded categorical
// block first, then the numerical columns. The explainer consumes attribution
// vectors in this exact order.
func (e *Engine) FeatureNames() []string {
	names := e.arts.Encoder.FeatureNames()
	return append(names, e.arts.Scaler.Columns...)
}

// Score transforms one row's raw feature groups and predicts its joining
// score along with per-feature attribution values.
//
// Categorical values are one-hot encoded (unseen labels become a zero block),
// numerical values standardized, then each block is weighted: a categorical
// factor's weight applies to every column of its one-hot expansion. The
// weighted categorical block followed by the weighted numerical block forms
// the model input; that order matches how the model was trained and must not
// change.
func (e *Engine) Score(numericalValues []float64, categoricalValues []string,
	numericalWeights, categoricalWeights []float64,
	numericalColumns, categoricalColumns []string) (float64, []float64, error) {

	if err := e.checkDrift(numericalColumns, categoricalColumns); err != nil {
		return 0, nil, err
	}

	encoded, err := e.arts.Encoder.Transform(categoricalValues)
	if err != nil {
		return 0, nil, err
	}
	scaled, err := e.arts.Scaler.Transform(numericalValues)
	if err != nil {
		return 0, nil, err
	}

	if len(categoricalWeights) != len(categoricalColumns) {
		return 0, nil, fmt.Errorf("%w: %d categorical weights for %d columns",
			model.ErrFeatureShape, len(categoricalWeights), len(categoricalColumns))
	}
	if len(numericalWeights) != len(numericalColumns) {
		return 0, nil, fmt.Errorf("%w: %d numerical weights for %d columns",
			model.ErrFeatureShape, len(numericalWeights), len(numericalColumns))
	}

	features := make([]float64, 0, len(encoded)+len(scaled))
	pos := 0
	for i, size := range e.arts.Encoder.BlockSizes() {
		for j := 0; j < size; j++ {
			features = append(features, encoded[pos+j]*categoricalWeights[i])
		}
		pos += size
	}
	for i, v := range scaled {
		features = append(features, v*numericalWeights[i])
	}

	prediction, err := e.arts.Forest.Predict(features)
	if err != nil {
		return 0, nil, err
	}
	_, attributions, err := e.arts.Forest.Contributions(features)
	if err != nil {
		return 0, nil, err
	}

	return prediction, attributions, nil
}

// checkDrift verifies the caller's column order against the fitted artifacts.
// A mismatch means the reference schema and the deployed model come from
// different versions.
func (e *Engine) checkDrift(numericalColumns, categoricalColumns []string) error {
	if !equalColumns(numericalColumns, e.arts.Scaler.Columns) {
		return fmt.Errorf("%w: numerical columns %v, scaler fitted on %v",
			model.ErrFeatureShape, numericalColumns, e.arts.Scaler.Columns)
	}
	if !equalColumns(categoricalColumns, e.arts.Encoder.Columns) {
		return fmt.Errorf("%w: categorical columns %v, encoder fitted on %v",
			model.ErrFeatureShape, categoricalColumns, e.arts.Encoder.Columns)
	}
	return nil
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
