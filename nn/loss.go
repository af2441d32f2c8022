package nn

import (
	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
)

// CrossEntropyEpsilon is added to predictions before taking the logarithm.
const CrossEntropyEpsilon = 1e-8

// batchAxis is the reduction that averages over samples once the class axis
// has been collapsed.
func batchAxis(classAxis graph.Axis) graph.Axis {
	switch classAxis {
	case graph.Row:
		return graph.Column
	case graph.Column:
		return graph.Row
	default:
		return graph.Scalar
	}
}

// CrossEntropy returns the 1x1 mean over samples of -Σ label ⊙ log(pred + ε).
// axis is the class axis as for Softmax.
func CrossEntropy[T mat.Float](pred, label *graph.Node[T], axis graph.Axis) *graph.Node[T] {
	logp := graph.Log(graph.AddScalar(pred, T(CrossEntropyEpsilon)))
	perSample := graph.ReduceSum(graph.Neg(graph.Hadamard(label, logp)), axis)
	return graph.ReduceMean(perSample, batchAxis(axis))
}

// MeanSquaredError returns the 1x1 mean of (pred - target)².
func MeanSquaredError[T mat.Float](pred, target *graph.Node[T]) *graph.Node[T] {
	return graph.ReduceMean(graph.Square(graph.Sub(pred, target)), graph.Scalar)
}
