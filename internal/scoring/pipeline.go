package scoring

import (
	"fmt"

	"github.com/hirelens/joinscore/internal/model"
	"github.com/hirelens/joinscore/internal/schema"
	"github.com/hirelens/joinscore/internal/weights"
)

// Result is one scored row: the raw model prediction and its explanation.
// The raw score is not normalized here; callers that display percentages own
// the score/1000*100 rescaling.
type Result struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

// Pipeline drives align, split, weight resolution, scoring, and explanation
// over a record batch. It carries only immutable configuration and loaded
// artifacts, so one pipeline serves concurrent requests.
type Pipeline struct {
	ref           *schema.Reference
	engine        *Engine
	defaultWeight float64
	topK          int
}

// NewPipeline builds a pipeline from a loaded reference schema and artifact
// set.
func NewPipeline(ref *schema.Reference, arts *model.Artifacts, defaultWeight float64) *Pipeline {
	if defaultWeight <= 0 {
		defaultWeight = weights.DefaultWeight
	}
	return &Pipeline{
		ref:           ref,
		engine:        NewEngine(arts),
		defaultWeight: defaultWeight,
		topK:          DefaultTopFactors,
	}
}

// Run scores every row of the incoming batch for the given company,
// preserving input row order. Rows are scored independently; the first
// failure aborts the whole batch.
func (p *Pipeline) Run(companyID string, incoming schema.Batch, overrides []weights.Override) ([]Result, error) {
	aligned, err := schema.Align(p.ref.Schema, incoming, p.ref.Defaults)
	if err != nil {
		return nil, err
	}

	numerical, categorical, numericalColumns, categoricalColumns, err := schema.Split(aligned, p.ref.Schema)
	if err != nil {
		return nil, err
	}

	numericalWeights, categoricalWeights := weights.Resolve(
		companyID, overrides, numericalColumns, categoricalColumns, p.defaultWeight)

	featureNames := p.engine.FeatureNames()
	results := make([]Result, len(aligned.Rows))

	for i := range aligned.Rows {
		score, attributions, err := p.engine.Score(
			numerical[i], categorical[i],
			numericalWeights, categoricalWeights,
			numericalColumns, categoricalColumns)
		if err != nil {
			return nil, fmt.Errorf("scoring row %d: %w", i, err)
		}

		top := TopFactors(attributions, featureNames, p.topK)
		results[i] = Result{
			Score:   score,
			Summary: Summary(top),
		}
	}

	return results, nil
}
