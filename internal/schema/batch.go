package schema

import (
	"fmt"
)

// Batch is a sequence of rows, each mapping column name to a raw value
// (number or label). Columns records the declared column order; rows carry
// the values. After alignment a batch has exactly the reference columns in
// reference order.
type Batch struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// FromRows builds a batch from raw decoded rows. The declared column set is
// the union of keys across rows; order is whatever the first occurrence
// dictates and is normalized away by Align.
func FromRows(rows []map[string]any) Batch {
	var columns []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for name := range row {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	return Batch{Columns: columns, Rows: rows}
}

// HasColumn reports whether the batch declares the named column.
func (b Batch) HasColumn(name string) bool {
	for _, c := range b.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the row count.
func (b Batch) Len() int {
	return len(b.Rows)
}

// Align reconciles an incoming batch against the reference schema. Columns
// present in the incoming batch are kept, columns absent from it are
// backfilled from the defaults, and extra columns are dropped. The result has
// exactly the reference columns, in reference order, with the incoming
// batch's row count.
//
// Defaults with a row count equal to the incoming batch are copied row for
// row; single-row defaults are broadcast. Any other shape is a configuration
// error, not something to silently truncate or pad.
func Align(ref *Schema, incoming, defaults Batch) (Batch, error) {
	if err := validate(incoming); err != nil {
		return Batch{}, err
	}

	// defaultIndex maps an incoming row to its defaults row: matching row
	// counts copy row for row, single-row defaults broadcast. Anything else
	// is a configuration error the moment a value is actually needed.
	defaultIndex := func(i int) (int, error) {
		switch defaults.Len() {
		case incoming.Len():
			return i, nil
		case 1:
			return 0, nil
		default:
			return 0, fmt.Errorf("%w: defaults have %d rows, incoming batch has %d",
				ErrSchemaMismatch, defaults.Len(), incoming.Len())
		}
	}

	out := Batch{
		Columns: ref.ColumnNames(),
		Rows:    make([]map[string]any, len(incoming.Rows)),
	}
	for i := range out.Rows {
		out.Rows[i] = make(map[string]any, len(ref.Columns))
	}

	for _, col := range ref.Columns {
		inIncoming := incoming.HasColumn(col.Name)
		inDefaults := defaults.HasColumn(col.Name)
		if !inIncoming && !inDefaults {
			return Batch{}, fmt.Errorf("%w: column %q absent from both incoming batch and defaults",
				ErrSchemaMismatch, col.Name)
		}

		for i, row := range incoming.Rows {
			if inIncoming {
				if v, ok := row[col.Name]; ok {
					out.Rows[i][col.Name] = v
					continue
				}
			}
			if !inDefaults {
				return Batch{}, fmt.Errorf("%w: row %d has no value for column %q and defaults lack it",
					ErrInvalidBatch, i, col.Name)
			}
			di, err := defaultIndex(i)
			if err != nil {
				return Batch{}, err
			}
			out.Rows[i][col.Name] = defaults.Rows[di][col.Name]
		}
	}

	return out, nil
}

// Split partitions an aligned batch into numerical and categorical value
// groups. Classification comes strictly from the reference schema; column
// order within each group follows the schema's left-to-right order.
func Split(batch Batch, ref *Schema) (numerical [][]float64, categorical [][]string, numericalColumns, categoricalColumns []string, err error) {
	if err := validate(batch); err != nil {
		return nil, nil, nil, nil, err
	}

	numericalColumns = ref.NumericalColumns()
	categoricalColumns = ref.CategoricalColumns()

	numerical = make([][]float64, len(batch.Rows))
	categorical = make([][]string, len(batch.Rows))

	for i, row := range batch.Rows {
		numerical[i] = make([]float64, len(numericalColumns))
		for j, name := range numericalColumns {
			v, err := asFloat(row[name])
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("%w: row %d column %q: %v", ErrInvalidBatch, i, name, err)
			}
			numerical[i][j] = v
		}

		categorical[i] = make([]string, len(categoricalColumns))
		for j, name := range categoricalColumns {
			categorical[i][j] = asLabel(row[name])
		}
	}

	return numerical, categorical, numericalColumns, categoricalColumns, nil
}

func validate(b Batch) error {
	if b.Rows == nil {
		return fmt.Errorf("%w: no rows", ErrInvalidBatch)
	}
	for i, row := range b.Rows {
		if row == nil {
			return fmt.Errorf("%w: row %d is nil", ErrInvalidBatch, i)
		}
	}
	return nil
}

// asFloat coerces a raw numerical cell. JSON decoding produces float64;
// programmatic batches may carry native integer types.
func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
}

func asLabel(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
