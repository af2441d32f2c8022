package nn

import (
	"math"

	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
)

// DenseLayer is a fully-connected layer over column-major batches: x is
// [inputSize, batch] and Output is [outputSize, batch].
type DenseLayer[T mat.Float] struct {
	Weights *graph.Node[T] // [outputSize, inputSize]
	Bias    *graph.Node[T] // [outputSize, 1]
	Output  *graph.Node[T]
}

// Dense builds activation(W·x + b) on x's graph. Weights use He
// initialization and biases start at zero.
func Dense[T mat.Float](x *graph.Node[T], inputSize, outputSize int, activation ActivationType) *DenseLayer[T] {
	g := x.Graph()
	stddev := T(math.Sqrt(2.0 / float64(inputSize)))

	l := &DenseLayer[T]{
		Weights: g.RandomNormal(outputSize, inputSize, 0, stddev).Named("weights"),
		Bias:    g.Zeros(outputSize, 1).Named("bias"),
	}
	pre := graph.AddCols(graph.Dot(l.Weights, x), l.Bias)
	if activation == ActivationLinear {
		l.Output = pre
	} else {
		l.Output = Activate(pre, activation)
	}
	return l
}
