package graph_test

import (
	"fmt"

	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
)

func ExampleNode_Diff() {
	g := graph.New[float64](graph.WithSeed(1))
	x := g.Variable(mat.FromRows([][]float64{{1, 2}, {3, 4}}))
	y := graph.ReduceSum(graph.Square(x), graph.Scalar)

	fmt.Println(y.Eval().At(0, 0))
	fmt.Println(x.Diff(y).Data())

	x.Assign(mat.Ones[float64](2, 2))
	fmt.Println(y.HasValue(), x.HasDelta(y))
	// Output:
	// 30
	// [2 4 6 8]
	// false false
}
