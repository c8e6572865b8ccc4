package sqlight

import (
	"errors"
	"fmt"
)

// Row is a shaped result row. The concrete type depends on the handle's row
// factory: []any by default, map[string]any with MapFactory, *Record with
// RecordFactory.
type Row = any

// RowFactory converts a row's column names and scanned values into a
// caller-facing Row. Factories must be pure: same inputs, same output.
type RowFactory func(columns []string, values []any) (Row, error)

// ErrInvalidColumnName reports a column whose name cannot be used as a record
// field identifier.
var ErrInvalidColumnName = errors.New("column name is not a valid identifier")

// TupleFactory returns the scanned values as an ordered slice. It is the shape
// used when no factory is configured.
func TupleFactory(_ []string, values []any) (Row, error) {
	return values, nil
}

// MapFactory keys values by column name. If the engine reports duplicate
// column names, later columns overwrite earlier ones.
func MapFactory(columns []string, values []any) (Row, error) {
	m := make(map[string]any, len(columns))
	for i, c := range columns {
		m[c] = values[i]
	}

	return m, nil
}

// RecordFactory shapes a row into a *Record with fields addressable by column
// name, in column order. Column names must be identifiers of the form
// [A-Za-z_][A-Za-z0-9_]*; anything else fails with ErrInvalidColumnName.
func RecordFactory(columns []string, values []any) (Row, error) {
	index := make(map[string]int, len(columns))

	for i, c := range columns {
		if !isIdentifier(c) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColumnName, c)
		}

		index[c] = i
	}

	return &Record{columns: columns, values: values, index: index}, nil
}

// Record is a fixed-field row with fields in column order.
type Record struct {
	columns []string
	values  []any
	index   map[string]int
}

// Columns returns the field names in column order.
func (r *Record) Columns() []string { return r.columns }

// Values returns the field values in column order.
func (r *Record) Values() []any { return r.values }

// Get returns the value of the named field and whether the field exists.
func (r *Record) Get(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}

	return r.values[i], true
}

// MustGet returns the value of the named field, or nil when absent.
func (r *Record) MustGet(name string) any {
	v, _ := r.Get(name)
	return v
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}

	return true
}
