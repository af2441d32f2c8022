package graph

import (
	"fmt"

	"github.com/openfluke/lazy/mat"
)

// Axis names the shape a reduction collapses to.
type Axis int

const (
	// Column collapses every row to one entry, giving a rows x 1 column.
	Column Axis = iota
	// Row collapses every column to one entry, giving a 1 x cols row.
	Row
	// Scalar collapses everything to 1x1.
	Scalar
)

func (a Axis) String() string {
	switch a {
	case Column:
		return "column"
	case Row:
		return "row"
	case Scalar:
		return "scalar"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// SumTo sums m along axis.
func SumTo[T mat.Float](m *mat.Dense[T], axis Axis) *mat.Dense[T] {
	switch axis {
	case Column:
		return mat.RowSums(m)
	case Row:
		return mat.ColSums(m)
	default:
		return mat.Sum(m)
	}
}

// MaxTo takes the maximum of m along axis.
func MaxTo[T mat.Float](m *mat.Dense[T], axis Axis) *mat.Dense[T] {
	switch axis {
	case Column:
		return mat.RowMax(m)
	case Row:
		return mat.ColMax(m)
	default:
		return mat.Scalar(mat.ColMax(mat.RowMax(m)).At(0, 0))
	}
}

// Broadcast spreads g, shaped as the reduction of a rows x cols matrix
// along axis, back over rows x cols.
func Broadcast[T mat.Float](g *mat.Dense[T], axis Axis, rows, cols int) *mat.Dense[T] {
	switch axis {
	case Column:
		return mat.AddColVec(mat.Zeros[T](rows, cols), g)
	case Row:
		return mat.AddRowVec(mat.Zeros[T](rows, cols), g)
	default:
		return mat.Full(rows, cols, g.At(0, 0))
	}
}

// count is the number of entries folded into each reduced entry.
func count(axis Axis, rows, cols int) int {
	switch axis {
	case Column:
		return cols
	case Row:
		return rows
	default:
		return rows * cols
	}
}

// ReduceSum sums x along axis.
func ReduceSum[T mat.Float](x *Node[T], axis Axis) *Node[T] {
	return Apply("reduce_sum_"+axis.String(),
		func(in []*mat.Dense[T]) *mat.Dense[T] { return SumTo(in[0], axis) },
		[]*Node[T]{x},
		VJP(func(c *RuleContext[T]) *mat.Dense[T] {
			r, k := c.Input(0).Dims()
			return Broadcast(c.Grad, axis, r, k)
		}),
	)
}

// ReduceMean averages x along axis.
func ReduceMean[T mat.Float](x *Node[T], axis Axis) *Node[T] {
	return Apply("reduce_mean_"+axis.String(),
		func(in []*mat.Dense[T]) *mat.Dense[T] {
			r, k := in[0].Dims()
			return mat.Scale(SumTo(in[0], axis), 1/T(count(axis, r, k)))
		},
		[]*Node[T]{x},
		VJP(func(c *RuleContext[T]) *mat.Dense[T] {
			r, k := c.Input(0).Dims()
			return mat.Scale(Broadcast(c.Grad, axis, r, k), 1/T(count(axis, r, k)))
		}),
	)
}
