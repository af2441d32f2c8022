package nn

import (
	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
)

// ArgMax returns the index of the largest entry along the class axis, shaped
// like the reduction of x along axis. It has no derivative.
func ArgMax[T mat.Float](x *graph.Node[T], axis graph.Axis) *graph.Node[T] {
	return graph.Apply("argmax_"+axis.String(),
		func(in []*mat.Dense[T]) *mat.Dense[T] { return argMax(in[0], axis) },
		[]*graph.Node[T]{x},
		graph.NoGradient[T](),
	)
}

func argMax[T mat.Float](m *mat.Dense[T], axis graph.Axis) *mat.Dense[T] {
	switch axis {
	case graph.Column:
		idx := mat.ArgMaxRows(m)
		out := mat.Zeros[T](len(idx), 1)
		for i, v := range idx {
			out.Set(i, 0, T(v))
		}
		return out
	case graph.Row:
		idx := mat.ArgMaxCols(m)
		out := mat.Zeros[T](1, len(idx))
		for j, v := range idx {
			out.Set(0, j, T(v))
		}
		return out
	default:
		best := 0
		for i, v := range m.Data() {
			if v > m.Data()[best] {
				best = i
			}
		}
		return mat.Scalar(T(best))
	}
}

// Equal returns 1 where a and b hold the same value and 0 elsewhere. It has
// no derivative.
func Equal[T mat.Float](a, b *graph.Node[T]) *graph.Node[T] {
	return graph.Apply("equal",
		func(in []*mat.Dense[T]) *mat.Dense[T] {
			return mat.Apply2(in[0], in[1], func(x, y T) T {
				if x == y {
					return 1
				}
				return 0
			})
		},
		[]*graph.Node[T]{a, b},
		graph.NoGradient[T](),
		graph.NoGradient[T](),
	)
}

// Accuracy returns the 1x1 fraction of samples whose predicted class matches
// the label's. axis is the class axis as for Softmax.
func Accuracy[T mat.Float](pred, label *graph.Node[T], axis graph.Axis) *graph.Node[T] {
	return graph.ReduceMean(Equal(ArgMax(pred, axis), ArgMax(label, axis)), graph.Scalar)
}
