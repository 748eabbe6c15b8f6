package model

import (
	"errors"
	"math"
	"testing"
)

// testForest builds a two-tree ensemble over three features.
//
// Tree 1: split on feature 0 at 0.5; left leaf 100, right splits on
// feature 2 at 10 into leaves 300 and 500.
// Tree 2: single split on feature 1 at 0 into leaves 200 and 400.
func testForest() *Forest {
	return &Forest{
		NumFeatures: 3,
		Trees: []Tree{
			{Nodes: []Node{
				{Feature: 0, Threshold: 0.5, Left: 1, Right: 2, Value: 250},
				{Feature: -1, Value: 100},
				{Feature: 2, Threshold: 10, Left: 3, Right: 4, Value: 400},
				{Feature: -1, Value: 300},
				{Feature: -1, Value: 500},
			}},
			{Nodes: []Node{
				{Feature: 1, Threshold: 0, Left: 1, Right: 2, Value: 300},
				{Feature: -1, Value: 200},
				{Feature: -1, Value: 400},
			}},
		},
	}
}

func TestForestPredict(t *testing.T) {
	f := testForest()

	// Tree 1: feature0=1 > 0.5, feature2=20 > 10 -> 500. Tree 2: feature1=1 > 0 -> 400.
	got, err := f.Predict([]float64{1, 1, 20})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got != 450 {
		t.Errorf("Expected prediction 450, got %v", got)
	}

	// Tree 1: feature0=0 -> 100. Tree 2: feature1=-1 -> 200.
	got, err = f.Predict([]float64{0, -1, 0})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got != 150 {
		t.Errorf("Expected prediction 150, got %v", got)
	}
}

func TestForestPredictShapeMismatch(t *testing.T) {
	f := testForest()
	_, err := f.Predict([]float64{1, 2})
	if !errors.Is(err, ErrFeatureShape) {
		t.Errorf("Expected ErrFeatureShape, got %v", err)
	}
	_, _, err = f.Contributions([]float64{1, 2, 3, 4})
	if !errors.Is(err, ErrFeatureShape) {
		t.Errorf("Expected ErrFeatureShape from Contributions, got %v", err)
	}
}

func TestContributionsAdditivity(t *testing.T) {
	f := testForest()
	inputs := [][]float64{
		{1, 1, 20},
		{0, -1, 0},
		{1, -0.5, 3},
		{0.2, 2, 40},
	}

	for _, x := range inputs {
		pred, err := f.Predict(x)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		bias, contribs, err := f.Contributions(x)
		if err != nil {
			t.Fatalf("Contributions failed: %v", err)
		}

		sum := bias
		for _, c := range contribs {
			sum += c
		}
		if math.Abs(sum-pred) > 1e-9 {
			t.Errorf("Input %v: bias + contributions = %v, prediction = %v", x, sum, pred)
		}
	}
}

func TestContributionsCreditSplitFeatures(t *testing.T) {
	f := testForest()

	// Path through tree 1 uses features 0 and 2, tree 2 uses feature 1.
	_, contribs, err := f.Contributions([]float64{1, 1, 20})
	if err != nil {
		t.Fatalf("Contributions failed: %v", err)
	}

	// Tree 1: node0 -> node2 credits feature 0 with (400-250); node2 -> node4
	// credits feature 2 with (500-400). Tree 2 credits feature 1 with
	// (400-300). All divided by the two trees.
	expected := []float64{75, 50, 50}
	for i, want := range expected {
		if math.Abs(contribs[i]-want) > 1e-9 {
			t.Errorf("Feature %d: expected contribution %v, got %v", i, want, contribs[i])
		}
	}
}

func TestForestValidate(t *testing.T) {
	bad := &Forest{NumFeatures: 2, Trees: []Tree{
		{Nodes: []Node{{Feature: 5, Threshold: 0, Left: 1, Right: 2, Value: 0}}},
	}}
	if err := bad.validate(); !errors.Is(err, ErrModelArtifact) {
		t.Errorf("Expected ErrModelArtifact for out-of-range feature, got %v", err)
	}

	empty := &Forest{NumFeatures: 2}
	if err := empty.validate(); !errors.Is(err, ErrModelArtifact) {
		t.Errorf("Expected ErrModelArtifact for empty forest, got %v", err)
	}
}
