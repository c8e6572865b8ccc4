package sqlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTupleFactory(t *testing.T) {
	row, err := TupleFactory([]string{"id", "name"}, []any{int64(1), "Alice"})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "Alice"}, row)
}

func TestMapFactory(t *testing.T) {
	row, err := MapFactory([]string{"id", "name"}, []any{int64(1), "Alice"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "Alice"}, row)
}

func TestMapFactory_DuplicateColumnsLaterWins(t *testing.T) {
	row, err := MapFactory([]string{"id", "id"}, []any{int64(1), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(2)}, row)
}

func TestRecordFactory(t *testing.T) {
	row, err := RecordFactory([]string{"id", "name"}, []any{int64(1), "Alice"})
	require.NoError(t, err)

	rec, ok := row.(*Record)
	require.True(t, ok)

	assert.Equal(t, []string{"id", "name"}, rec.Columns())
	assert.Equal(t, []any{int64(1), "Alice"}, rec.Values())

	id, ok := rec.Get("id")
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	assert.Equal(t, "Alice", rec.MustGet("name"))

	_, ok = rec.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, rec.MustGet("missing"))
}

func TestRecordFactory_InvalidColumnName(t *testing.T) {
	tests := []struct {
		name   string
		column string
	}{
		{name: "expression", column: "count(*)"},
		{name: "leading digit", column: "1st"},
		{name: "empty", column: ""},
		{name: "space", column: "full name"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RecordFactory([]string{tc.column}, []any{int64(0)})
			assert.ErrorIs(t, err, ErrInvalidColumnName)
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, isIdentifier("user_id"))
	assert.True(t, isIdentifier("_private"))
	assert.True(t, isIdentifier("Col9"))
	assert.False(t, isIdentifier("9col"))
	assert.False(t, isIdentifier("col-name"))
	assert.False(t, isIdentifier(""))
}
