package scoring

import (
	"errors"
	"strings"
	"testing"

	"github.com/hirelens/joinscore/internal/model"
	"github.com/hirelens/joinscore/internal/schema"
	"github.com/hirelens/joinscore/internal/weights"
)

// testArtifacts builds a minimal artifact set. Feature order is
// [Location_Mumbai, Location_Delhi, Distance, Salary]; the single tree
// splits on the weighted scaled Distance at 0.
func testArtifacts() *model.Artifacts {
	return &model.Artifacts{
		Forest: &model.Forest{
			NumFeatures: 4,
			Trees: []model.Tree{
				{Nodes: []model.Node{
					{Feature: 2, Threshold: 0, Left: 1, Right: 2, Value: 500},
					{Feature: -1, Value: 300},
					{Feature: -1, Value: 700},
				}},
			},
		},
		Scaler: &model.Scaler{
			Columns: []string{"Distance", "Salary"},
			Mean:    []float64{30, 1000000},
			Scale:   []float64{10, 500000},
		},
		Encoder: &model.Encoder{
			Columns:    []string{"Location"},
			Categories: [][]string{{"Mumbai", "Delhi"}},
		},
	}
}

func testReference() *schema.Reference {
	return &schema.Reference{
		Schema: &schema.Schema{Columns: []schema.Column{
			{Name: "Location", Kind: schema.KindCategorical},
			{Name: "Distance", Kind: schema.KindNumerical},
			{Name: "Salary", Kind: schema.KindNumerical},
		}},
		Defaults: schema.FromRows([]map[string]any{
			{"Location": "Mumbai", "Distance": 30.0, "Salary": 1000000.0},
		}),
	}
}

func TestEngineFeatureNames(t *testing.T) {
	engine := NewEngine(testArtifacts())
	names := engine.FeatureNames()

	want := []string{"Location_Mumbai", "Location_Delhi", "Distance", "Salary"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d feature names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Feature %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestEngineScore(t *testing.T) {
	engine := NewEngine(testArtifacts())

	// Distance 45 scales to 1.5; any positive weight keeps it right of the
	// split, so the tree predicts 700.
	score, attributions, err := engine.Score(
		[]float64{45, 1200000}, []string{"Mumbai"},
		[]float64{0.1, 0.1}, []float64{0.1},
		[]string{"Distance", "Salary"}, []string{"Location"})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 700 {
		t.Errorf("Expected score 700, got %v", score)
	}
	if len(attributions) != 4 {
		t.Errorf("Expected 4 attribution values, got %d", len(attributions))
	}
	if attributions[2] != 200 {
		t.Errorf("Expected Distance attribution 200, got %v", attributions[2])
	}
}

func TestEngineRejectsSchemaDrift(t *testing.T) {
	engine := NewEngine(testArtifacts())

	_, _, err := engine.Score(
		[]float64{45, 1200000}, []string{"Mumbai"},
		[]float64{0.1, 0.1}, []float64{0.1},
		[]string{"Salary", "Distance"}, []string{"Location"})
	if !errors.Is(err, model.ErrFeatureShape) {
		t.Errorf("Expected ErrFeatureShape for reordered columns, got %v", err)
	}
}

func TestPipelineRun(t *testing.T) {
	p := NewPipeline(testReference(), testArtifacts(), weights.DefaultWeight)

	incoming := schema.FromRows([]map[string]any{
		{"Distance": 45.0, "Salary": 1200000.0},
		{"Location": "Delhi", "Distance": 15.0, "Salary": 800000.0},
	})

	results, err := p.Run("company-a", incoming, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	// Row 1: Distance 45 -> above split -> 700. Row 2: Distance 15 -> 300.
	if results[0].Score != 700 {
		t.Errorf("Row 0: expected score 700, got %v", results[0].Score)
	}
	if results[1].Score != 300 {
		t.Errorf("Row 1: expected score 300, got %v", results[1].Score)
	}

	for i, r := range results {
		if !strings.HasPrefix(r.Summary, "The predicted score is arrived at based on ") {
			t.Errorf("Row %d: unexpected summary %q", i, r.Summary)
		}
		// Distance carries the only nonzero attribution, so it leads.
		if !strings.Contains(r.Summary, "based on Distance") {
			t.Errorf("Row %d: expected Distance to lead summary, got %q", i, r.Summary)
		}
	}
}

func TestPipelineRowsAreIndependent(t *testing.T) {
	p := NewPipeline(testReference(), testArtifacts(), weights.DefaultWeight)

	single := schema.FromRows([]map[string]any{
		{"Distance": 45.0, "Salary": 1200000.0},
	})
	pair := schema.FromRows([]map[string]any{
		{"Distance": 45.0, "Salary": 1200000.0},
		{"Location": "Delhi", "Distance": 15.0, "Salary": 800000.0},
	})

	alone, err := p.Run("company-a", single, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	together, err := p.Run("company-a", pair, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if alone[0] != together[0] {
		t.Errorf("Row 0 changed when scored in a batch: %v vs %v", alone[0], together[0])
	}
}

func TestPipelinePropagatesAlignmentErrors(t *testing.T) {
	ref := testReference()
	ref.Defaults = schema.FromRows([]map[string]any{{"Location": "Mumbai"}})
	p := NewPipeline(ref, testArtifacts(), weights.DefaultWeight)

	incoming := schema.FromRows([]map[string]any{
		{"Location": "Delhi"},
	})
	_, err := p.Run("company-a", incoming, nil)
	if !errors.Is(err, schema.ErrSchemaMismatch) {
		t.Errorf("Expected ErrSchemaMismatch, got %v", err)
	}
}
