package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Kind classifies a reference column as numerical or categorical.
// The classification is fixed by the reference schema and never re-inferred
// from batch values, so a postcode that happens to parse as a number stays
// categorical across every call.
type Kind string

const (
	KindNumerical   Kind = "numerical"
	KindCategorical Kind = "categorical"
)

// ReferenceFileName is the reference schema artifact inside a model directory.
const ReferenceFileName = "schema.json"

var (
	// ErrSchemaMismatch indicates a reference column has no value source,
	// or the defaults set cannot be mapped onto the incoming batch.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInvalidBatch indicates malformed, non-tabular input.
	ErrInvalidBatch = errors.New("invalid batch")
)

// Column is a single named column of the reference schema.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Schema is the canonical, ordered column set the scoring model expects.
type Schema struct {
	Columns []Column `json:"columns"`
}

// ColumnNames returns all column names in schema order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// NumericalColumns returns the numerical column names in schema order.
func (s *Schema) NumericalColumns() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Kind == KindNumerical {
			names = append(names, c.Name)
		}
	}
	return names
}

// CategoricalColumns returns the categorical column names in schema order.
func (s *Schema) CategoricalColumns() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Kind == KindCategorical {
			names = append(names, c.Name)
		}
	}
	return names
}

// Reference bundles the schema with the canonical default record set used to
// backfill columns absent from uploaded batches.
type Reference struct {
	Schema   *Schema `json:"schema"`
	Defaults Batch   `json:"defaults"`
}

// LoadReference reads a reference schema artifact (schema plus canonical
// defaults) from a JSON file.
func LoadReference(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference schema: %w", err)
	}

	var ref Reference
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse reference schema %s: %w", path, err)
	}
	if ref.Schema == nil || len(ref.Schema.Columns) == 0 {
		return nil, fmt.Errorf("reference schema %s has no columns", path)
	}

	// The defaults must themselves cover the full reference schema.
	for _, col := range ref.Schema.Columns {
		if !ref.Defaults.HasColumn(col.Name) {
			return nil, fmt.Errorf("%w: defaults missing column %q", ErrSchemaMismatch, col.Name)
		}
	}

	return &ref, nil
}
