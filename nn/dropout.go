package nn

import (
	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
	"github.com/pkg/errors"
)

// ErrDropoutRatio is raised when a dropout ratio lies outside [0, 1].
var ErrDropoutRatio = errors.New("nn: dropout ratio outside [0, 1]")

// Dropout values for the mode placeholder.
const (
	Inference = 0
	Training  = 1
)

// Mode returns the 1x1 matrix to feed into a dropout mode placeholder.
func Mode[T mat.Float](training bool) *mat.Dense[T] {
	if training {
		return mat.Scalar[T](Training)
	}
	return mat.Scalar[T](Inference)
}

// DropoutMask returns a node shaped like x holding the dropout mask. In
// training mode (mode > 0.5) every entry is kept with probability 1-ratio and
// a fresh mask is drawn from the graph's random source each time x or mode
// changes. In inference mode every entry is 1-ratio.
//
// The mask has no derivative with respect to mode, and x only lends it a
// shape.
func DropoutMask[T mat.Float](x, mode *graph.Node[T], ratio float64) *graph.Node[T] {
	if !(ratio >= 0 && ratio <= 1) {
		panic(errors.Wrapf(ErrDropoutRatio, "nn: dropout ratio %v", ratio))
	}
	rng := x.Graph().Rand()
	keep := 1 - ratio
	return graph.Apply("dropout_mask",
		func(in []*mat.Dense[T]) *mat.Dense[T] {
			r, c := in[0].Dims()
			if in[1].At(0, 0) > 0.5 {
				return mat.Bernoulli[T](rng, r, c, keep)
			}
			return mat.Full(r, c, T(keep))
		},
		[]*graph.Node[T]{x, mode},
		graph.StopGradient[T](),
		graph.NoGradient[T](),
	)
}

// Dropout zeroes entries of x at random while training and scales x by
// 1-ratio during inference. mode is a 1x1 node, usually a placeholder fed
// with Mode.
func Dropout[T mat.Float](x, mode *graph.Node[T], ratio float64) *graph.Node[T] {
	return graph.Hadamard(x, DropoutMask(x, mode, ratio))
}
