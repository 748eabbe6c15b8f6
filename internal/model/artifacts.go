package model

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Artifact file names within the model directory.
const (
	ForestFileName  = "forest.json"
	ScalerFileName  = "scaler.json"
	EncoderFileName = "encoder.json"
)

// Artifacts is the loaded trained artifact set. Load once, share read-only:
// nothing mutates after load, so concurrent scoring calls need no locking.
type Artifacts struct {
	Forest  *Forest
	Scaler  *Scaler
	Encoder *Encoder
}

// LoadArtifacts reads the regressor, scaler, and encoder from a model
// directory and cross-checks that the encoder's expanded width plus the
// scaler's column count matches the forest's expected input width.
func LoadArtifacts(dir string) (*Artifacts, error) {
	a := &Artifacts{
		Forest:  &Forest{},
		Scaler:  &Scaler{},
		Encoder: &Encoder{},
	}

	if err := loadJSON(filepath.Join(dir, ForestFileName), a.Forest); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, ScalerFileName), a.Scaler); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, EncoderFileName), a.Encoder); err != nil {
		return nil, err
	}

	if err := a.Forest.validate(); err != nil {
		return nil, err
	}
	if err := a.Scaler.validate(); err != nil {
		return nil, err
	}
	if err := a.Encoder.validate(); err != nil {
		return nil, err
	}

	width := a.Encoder.Width() + len(a.Scaler.Columns)
	if width != a.Forest.NumFeatures {
		return nil, fmt.Errorf("%w: encoder (%d) + scaler (%d) width is %d, forest trained on %d",
			ErrFeatureShape, a.Encoder.Width(), len(a.Scaler.Columns), width, a.Forest.NumFeatures)
	}

	log.Printf("Loaded model artifacts from %s (%d trees, %d features)",
		dir, len(a.Forest.Trees), a.Forest.NumFeatures)
	return a, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrModelArtifact, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", ErrModelArtifact, path, err)
	}
	return nil
}

// SaveArtifacts writes an artifact set to a model directory. The training
// step lives outside this service; this is used by tooling and tests that
// need to stage a model directory.
func SaveArtifacts(dir string, a *Artifacts) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	files := map[string]any{
		ForestFileName:  a.Forest,
		ScalerFileName:  a.Scaler,
		EncoderFileName: a.Encoder,
	}
	for name, v := range files {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
