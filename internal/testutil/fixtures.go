// Package testutil provides table fixtures and deterministic generators
// shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/snapquery/internal/frame"
)

// NodePopulation is the population name of the Nodes fixture.
const NodePopulation = "default"

// EdgePopulation is the population name of the Edges fixture.
const EdgePopulation = "default__default__chemical"

// MustFrame builds a frame or fails the test.
func MustFrame(tb testing.TB, ids []int64, columns ...frame.NamedColumn) *frame.Frame {
	tb.Helper()
	f, err := frame.New(ids, columns...)
	require.NoError(tb, err)
	return f
}

// Nodes returns a six-row node table with IDs 0-5:
//
//	id layer mtype   etype  x    excitatory
//	0  2     L2_TPC  cADpyr 0.0  true
//	1  2     L2_IPC  cNAC   2.0  false
//	2  3     L3_TPC  cADpyr 3.5  true
//	3  4     L4_PC   cADpyr 5.0  true
//	4  4     L4_SS   bNAC   5.5  false
//	5  6     L6_BPC  cNAC   10.0 true
func Nodes(tb testing.TB) *frame.Frame {
	tb.Helper()
	return MustFrame(tb, frame.Range(6),
		frame.NamedColumn{Name: "layer", Column: frame.IntColumn{2, 2, 3, 4, 4, 6}},
		frame.NamedColumn{Name: "mtype", Column: frame.NewCategorical([]string{
			"L2_TPC", "L2_IPC", "L3_TPC", "L4_PC", "L4_SS", "L6_BPC",
		})},
		frame.NamedColumn{Name: "etype", Column: frame.StringColumn{
			"cADpyr", "cNAC", "cADpyr", "cADpyr", "bNAC", "cNAC",
		}},
		frame.NamedColumn{Name: "x", Column: frame.FloatColumn{0.0, 2.0, 3.5, 5.0, 5.5, 10.0}},
		frame.NamedColumn{Name: "excitatory", Column: frame.BoolColumn{true, false, true, true, false, true}},
	)
}

// Edges returns a four-row edge table with non-contiguous IDs:
//
//	id  @source_node @target_node syn_weight
//	10  0            1            0.5
//	20  0            2            1.5
//	30  3            4            2.5
//	40  5            0            3.5
func Edges(tb testing.TB) *frame.Frame {
	tb.Helper()
	return MustFrame(tb, []int64{10, 20, 30, 40},
		frame.NamedColumn{Name: "@source_node", Column: frame.IntColumn{0, 0, 3, 5}},
		frame.NamedColumn{Name: "@target_node", Column: frame.IntColumn{1, 2, 4, 0}},
		frame.NamedColumn{Name: "syn_weight", Column: frame.FloatColumn{0.5, 1.5, 2.5, 3.5}},
	)
}

// Selected returns the row positions set in sel.
func Selected(sel []bool) []int {
	out := []int{}
	for i, ok := range sel {
		if ok {
			out = append(out, i)
		}
	}
	return out
}
