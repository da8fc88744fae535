package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame(t *testing.T) {
	f, err := New([]int64{10, 20, 30},
		NamedColumn{"x", FloatColumn{1, 2, 3}},
		NamedColumn{"layer", IntColumn{1, 2, 2}},
		NamedColumn{"mtype", NewCategorical([]string{"L1", "L2", "L2"})},
	)
	require.NoError(t, err)

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"x", "layer", "mtype"}, f.ColumnNames())
	assert.Equal(t, []int64{10, 20, 30}, f.IDs())

	pos, ok := f.Position(20)
	assert.True(t, ok)
	assert.Equal(t, 1, pos)

	_, ok = f.Position(99)
	assert.False(t, ok)

	col, ok := f.Column("layer")
	require.True(t, ok)
	assert.Equal(t, TypeInt, col.Type())

	_, ok = f.Column("missing")
	assert.False(t, ok)
}

func TestNewFrameErrors(t *testing.T) {
	tests := []struct {
		name    string
		ids     []int64
		columns []NamedColumn
		errMsg  string
	}{
		{
			name:   "duplicate id",
			ids:    []int64{1, 2, 1},
			errMsg: "duplicate id 1",
		},
		{
			name:    "short column",
			ids:     []int64{1, 2},
			columns: []NamedColumn{{"x", FloatColumn{1}}},
			errMsg:  `column "x" has 1 values, want 2`,
		},
		{
			name:    "duplicate column",
			ids:     []int64{1},
			columns: []NamedColumn{{"x", FloatColumn{1}}, {"x", IntColumn{1}}},
			errMsg:  `duplicate column "x"`,
		},
		{
			name:    "empty name",
			ids:     []int64{1},
			columns: []NamedColumn{{"", FloatColumn{1}}},
			errMsg:  "must not be empty",
		},
		{
			name: "bad category code",
			ids:  []int64{1},
			columns: []NamedColumn{{"m", CategoricalColumn{
				Codes:      []int32{3},
				Categories: []string{"a"},
			}}},
			errMsg: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.ids, tt.columns...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFrameIsImmutable(t *testing.T) {
	ids := []int64{1, 2}
	f, err := New(ids)
	require.NoError(t, err)

	ids[0] = 100
	assert.Equal(t, []int64{1, 2}, f.IDs())

	got := f.IDs()
	got[0] = 42
	assert.Equal(t, []int64{1, 2}, f.IDs())
}

func TestNewCategorical(t *testing.T) {
	c := NewCategorical([]string{"b", "a", "b", "c"})

	assert.Equal(t, []string{"b", "a", "c"}, c.Categories)
	assert.Equal(t, []int32{0, 1, 0, 2}, c.Codes)
	assert.Equal(t, "c", c.Value(3))
	assert.Equal(t, 4, c.Len())
}

func TestRange(t *testing.T) {
	assert.Equal(t, []int64{0, 1, 2}, Range(3))
	assert.Empty(t, Range(0))
}

func TestSelect(t *testing.T) {
	f, err := New([]int64{5, 6, 7})
	require.NoError(t, err)

	ids, err := Select(f, []bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 7}, ids)

	ids, err = Select(f, []bool{false, false, false})
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)

	_, err = Select(f, []bool{true})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindNode, k)

	k, err = ParseKind("edge")
	require.NoError(t, err)
	assert.Equal(t, KindEdge, k)

	_, err = ParseKind("vertex")
	assert.Error(t, err)
}

func TestParseColumnType(t *testing.T) {
	ct, err := ParseColumnType("categorical")
	require.NoError(t, err)
	assert.Equal(t, TypeCategorical, ct)

	_, err = ParseColumnType("decimal")
	assert.Error(t, err)
}

func TestValueAt(t *testing.T) {
	assert.Equal(t, 1.5, ValueAt(FloatColumn{1.5}, 0))
	assert.Equal(t, int64(2), ValueAt(IntColumn{2}, 0))
	assert.Equal(t, "s", ValueAt(StringColumn{"s"}, 0))
	assert.Equal(t, true, ValueAt(BoolColumn{true}, 0))
	assert.Equal(t, "x", ValueAt(NewCategorical([]string{"x"}), 0))
}
