package nn

import (
	"math"

	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
)

// Softmax normalises x into probabilities. axis is the shape the class
// dimension collapses to: graph.Row when every column is one sample (each
// column sums to one), graph.Column when every row is one sample.
func Softmax[T mat.Float](x *graph.Node[T], axis graph.Axis) *graph.Node[T] {
	return graph.Apply("softmax_"+axis.String(),
		func(in []*mat.Dense[T]) *mat.Dense[T] { return softmax(in[0], axis) },
		[]*graph.Node[T]{x},
		graph.VJP(func(c *graph.RuleContext[T]) *mat.Dense[T] {
			// dX = (dY - sum(Y ⊙ dY)) ⊙ Y
			y := c.Value()
			r, k := y.Dims()
			dot := graph.Broadcast(graph.SumTo(mat.MulElem(y, c.Grad), axis), axis, r, k)
			return mat.MulElem(mat.Sub(c.Grad, dot), y)
		}),
	)
}

// softmax subtracts the per-axis max for numerical stability, exponentiates
// and normalizes by the per-axis sum
func softmax[T mat.Float](m *mat.Dense[T], axis graph.Axis) *mat.Dense[T] {
	r, k := m.Dims()
	shift := graph.Broadcast(graph.MaxTo(m, axis), axis, r, k)
	exps := mat.Apply(mat.Sub(m, shift), func(v T) T { return T(math.Exp(float64(v))) })
	sums := graph.Broadcast(graph.SumTo(exps, axis), axis, r, k)
	return mat.DivElem(exps, sums)
}
