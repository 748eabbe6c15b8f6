// Package model loads and serves the trained scoring artifacts: the
// tree-ensemble regressor, the numerical scaler, and the categorical encoder.
// Artifacts are produced by an external training step, loaded once, and
// treated as immutable afterwards, so concurrent scoring calls can share a
// single loaded set.
package model

import (
	"errors"
	"fmt"
)

var (
	// ErrModelArtifact indicates an artifact is missing or corrupt at load
	// time. Not per-row recoverable.
	ErrModelArtifact = errors.New("model artifact error")

	// ErrFeatureShape indicates the feature vector width does not match what
	// the model was trained on. Typically schema drift between training and
	// inference, a deployment bug rather than a user error.
	ErrFeatureShape = errors.New("feature shape mismatch")
)

// Node is one node of a regression tree. Leaves have Feature == -1. Value is
// the mean training target at the node, which internal nodes carry too so
// attribution can be read off the decision path.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a single regression tree stored as a node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is a trained tree-ensemble regressor. Predictions are the mean of
// the member trees.
type Forest struct {
	NumFeatures int    `json:"num_features"`
	Trees       []Tree `json:"trees"`
}

// Predict returns the ensemble prediction for a single feature vector.
func (f *Forest) Predict(features []float64) (float64, error) {
	if len(features) != f.NumFeatures {
		return 0, fmt.Errorf("%w: got %d features, model expects %d",
			ErrFeatureShape, len(features), f.NumFeatures)
	}

	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].predict(features)
	}
	return sum / float64(len(f.Trees)), nil
}

// Contributions returns the bias (mean root value across trees) and one
// additive attribution value per feature for a single prediction, computed
// from the decision paths: each split's change in node mean is credited to
// the split feature. The values satisfy bias + sum(contributions) ==
// Predict(features).
func (f *Forest) Contributions(features []float64) (bias float64, contributions []float64, err error) {
	if len(features) != f.NumFeatures {
		return 0, nil, fmt.Errorf("%w: got %d features, model expects %d",
			ErrFeatureShape, len(features), f.NumFeatures)
	}

	contributions = make([]float64, f.NumFeatures)
	for i := range f.Trees {
		t := &f.Trees[i]
		bias += t.Nodes[0].Value

		node := 0
		for t.Nodes[node].Feature >= 0 {
			n := t.Nodes[node]
			next := n.Left
			if features[n.Feature] > n.Threshold {
				next = n.Right
			}
			contributions[n.Feature] += t.Nodes[next].Value - n.Value
			node = next
		}
	}

	n := float64(len(f.Trees))
	bias /= n
	for i := range contributions {
		contributions[i] /= n
	}
	return bias, contributions, nil
}

func (t *Tree) predict(features []float64) float64 {
	node := 0
	for t.Nodes[node].Feature >= 0 {
		n := t.Nodes[node]
		if features[n.Feature] <= n.Threshold {
			node = n.Left
		} else {
			node = n.Right
		}
	}
	return t.Nodes[node].Value
}

// validate checks structural integrity after load: at least one tree, node
// indices in range, leaves marked consistently.
func (f *Forest) validate() error {
	if f.NumFeatures <= 0 {
		return fmt.Errorf("%w: forest declares %d features", ErrModelArtifact, f.NumFeatures)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("%w: forest has no trees", ErrModelArtifact)
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d has no nodes", ErrModelArtifact, ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature < 0 {
				continue
			}
			if n.Feature >= f.NumFeatures {
				return fmt.Errorf("%w: tree %d node %d splits on feature %d of %d",
					ErrModelArtifact, ti, ni, n.Feature, f.NumFeatures)
			}
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("%w: tree %d node %d has invalid children", ErrModelArtifact, ti, ni)
			}
		}
	}
	return nil
}
