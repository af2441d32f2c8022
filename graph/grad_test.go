package graph

import (
	"math"
	"math/rand"
	"testing"

	"github.com/openfluke/lazy/mat"
	"gonum.org/v1/gonum/diff/fd"
)

type gradCase struct {
	name     string
	shapes   [][2]int
	positive bool
	build    func(in []*Node[float64]) *Node[float64]
}

// checkGradients compares Diff against central finite differences for every
// input of a case. The output is contracted with random weights so that
// transposed or misplaced entries are caught.
func checkGradients(t *testing.T, tc gradCase) {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	for wrt := range tc.shapes {
		g := New[float64](WithSeed(7))
		inputs := make([]*Node[float64], len(tc.shapes))
		for i, s := range tc.shapes {
			m := mat.RandNormal[float64](rng, s[0], s[1], 0, 1)
			if tc.positive {
				m = mat.Apply(m, func(v float64) float64 { return math.Abs(v) + 0.5 })
			}
			inputs[i] = g.Variable(m)
		}
		out := tc.build(inputs)
		r, c := out.Eval().Dims()
		weights := g.Constant(mat.RandNormal[float64](rng, r, c, 0, 1))
		loss := ReduceSum(Hadamard(out, weights), Scalar)

		x := inputs[wrt]
		got := x.Diff(loss)

		rows, cols := x.Eval().Dims()
		x0 := append([]float64(nil), x.Eval().Data()...)
		f := func(v []float64) float64 {
			x.Assign(mat.New(rows, cols, append([]float64(nil), v...)))
			return loss.Eval().At(0, 0)
		}
		want := fd.Gradient(nil, f, x0, &fd.Settings{Formula: fd.Central, Step: 1e-6})

		if !mat.EqualApprox(got, mat.New(rows, cols, want), 1e-5) {
			t.Errorf("%s: gradient wrt input %d\n got  %v\n want %v", tc.name, wrt, got, mat.New(rows, cols, want))
		}
	}
}

func TestGradientsMatchFiniteDifferences(t *testing.T) {
	cases := []gradCase{
		{name: "exp", shapes: [][2]int{{3, 4}}, build: func(in []*Node[float64]) *Node[float64] { return Exp(in[0]) }},
		{name: "log", shapes: [][2]int{{3, 4}}, positive: true, build: func(in []*Node[float64]) *Node[float64] { return Log(in[0]) }},
		{name: "sqrt", shapes: [][2]int{{2, 5}}, positive: true, build: func(in []*Node[float64]) *Node[float64] { return Sqrt(in[0]) }},
		{name: "square", shapes: [][2]int{{3, 4}}, build: func(in []*Node[float64]) *Node[float64] { return Square(in[0]) }},
		{name: "add_scalar", shapes: [][2]int{{2, 2}}, build: func(in []*Node[float64]) *Node[float64] { return AddScalar(in[0], 1.5) }},
		{name: "scale", shapes: [][2]int{{2, 3}}, build: func(in []*Node[float64]) *Node[float64] { return Scale(in[0], -2.5) }},
		{name: "neg", shapes: [][2]int{{2, 3}}, build: func(in []*Node[float64]) *Node[float64] { return Neg(in[0]) }},
		{name: "add", shapes: [][2]int{{3, 2}, {3, 2}}, build: func(in []*Node[float64]) *Node[float64] { return Add(in[0], in[1]) }},
		{name: "sub", shapes: [][2]int{{3, 2}, {3, 2}}, build: func(in []*Node[float64]) *Node[float64] { return Sub(in[0], in[1]) }},
		{name: "hadamard", shapes: [][2]int{{3, 4}, {3, 4}}, build: func(in []*Node[float64]) *Node[float64] { return Hadamard(in[0], in[1]) }},
		{name: "add_cols", shapes: [][2]int{{3, 4}, {3, 1}}, build: func(in []*Node[float64]) *Node[float64] { return AddCols(in[0], in[1]) }},
		{name: "add_rows", shapes: [][2]int{{3, 4}, {1, 4}}, build: func(in []*Node[float64]) *Node[float64] { return AddRows(in[0], in[1]) }},
		{name: "dot", shapes: [][2]int{{3, 4}, {4, 2}}, build: func(in []*Node[float64]) *Node[float64] { return Dot(in[0], in[1]) }},
		{name: "self_hadamard", shapes: [][2]int{{2, 3}}, build: func(in []*Node[float64]) *Node[float64] { return Hadamard(in[0], in[0]) }},
		{name: "chain", shapes: [][2]int{{2, 3}, {3, 2}}, build: func(in []*Node[float64]) *Node[float64] {
			h := Exp(Scale(Dot(in[0], in[1]), 0.3))
			return Hadamard(h, Square(h))
		}},
	}
	for _, axis := range []Axis{Column, Row, Scalar} {
		cases = append(cases,
			gradCase{name: "reduce_sum_" + axis.String(), shapes: [][2]int{{3, 5}},
				build: func(in []*Node[float64]) *Node[float64] { return ReduceSum(in[0], axis) }},
			gradCase{name: "reduce_mean_" + axis.String(), shapes: [][2]int{{3, 5}},
				build: func(in []*Node[float64]) *Node[float64] { return ReduceMean(in[0], axis) }},
		)
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) { checkGradients(t, tc) })
	}
}

func TestReduceShapes(t *testing.T) {
	g := New[float64]()
	x := g.Variable(mat.FromRows([][]float64{{1, 2, 3}, {4, 5, 6}}))

	tests := []struct {
		node *Node[float64]
		want *mat.Dense[float64]
	}{
		{ReduceSum(x, Column), mat.New(2, 1, []float64{6, 15})},
		{ReduceSum(x, Row), mat.New(1, 3, []float64{5, 7, 9})},
		{ReduceSum(x, Scalar), mat.Scalar(21.0)},
		{ReduceMean(x, Column), mat.New(2, 1, []float64{2, 5})},
		{ReduceMean(x, Row), mat.New(1, 3, []float64{2.5, 3.5, 4.5})},
		{ReduceMean(x, Scalar), mat.Scalar(3.5)},
	}
	for _, tt := range tests {
		if got := tt.node.Eval(); !mat.EqualApprox(got, tt.want, 1e-12) {
			t.Errorf("%s: got %v, want %v", tt.node, got, tt.want)
		}
	}
}
