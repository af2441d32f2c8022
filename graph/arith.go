package graph

import "github.com/openfluke/lazy/mat"

func passThrough[T mat.Float]() Rule[T] {
	return VJP(func(c *RuleContext[T]) *mat.Dense[T] { return c.Grad })
}

// Add returns a + b for operands of equal shape.
func Add[T mat.Float](a, b *Node[T]) *Node[T] {
	return Apply("add",
		func(in []*mat.Dense[T]) *mat.Dense[T] { return mat.Add(in[0], in[1]) },
		[]*Node[T]{a, b},
		passThrough[T](),
		passThrough[T](),
	)
}

// Sub returns a - b for operands of equal shape.
func Sub[T mat.Float](a, b *Node[T]) *Node[T] {
	return Apply("sub",
		func(in []*mat.Dense[T]) *mat.Dense[T] { return mat.Sub(in[0], in[1]) },
		[]*Node[T]{a, b},
		passThrough[T](),
		VJP(func(c *RuleContext[T]) *mat.Dense[T] { return mat.Scale(c.Grad, -1) }),
	)
}

// AddCols adds the column vector v (rows x 1) to every column of x.
func AddCols[T mat.Float](x, v *Node[T]) *Node[T] {
	return Apply("add_cols",
		func(in []*mat.Dense[T]) *mat.Dense[T] { return mat.AddColVec(in[0], in[1]) },
		[]*Node[T]{x, v},
		passThrough[T](),
		VJP(func(c *RuleContext[T]) *mat.Dense[T] { return mat.RowSums(c.Grad) }),
	)
}

// AddRows adds the row vector v (1 x cols) to every row of x.
func AddRows[T mat.Float](x, v *Node[T]) *Node[T] {
	return Apply("add_rows",
		func(in []*mat.Dense[T]) *mat.Dense[T] { return mat.AddRowVec(in[0], in[1]) },
		[]*Node[T]{x, v},
		passThrough[T](),
		VJP(func(c *RuleContext[T]) *mat.Dense[T] { return mat.ColSums(c.Grad) }),
	)
}

// Dot returns the matrix product a @ b computed by the graph's backend.
func Dot[T mat.Float](a, b *Node[T]) *Node[T] {
	backend := a.g.backend
	return Apply("dot",
		func(in []*mat.Dense[T]) *mat.Dense[T] { return backend.MatMul(in[0], in[1]) },
		[]*Node[T]{a, b},
		VJP(func(c *RuleContext[T]) *mat.Dense[T] {
			return c.Backend().MatMul(c.Grad, c.Input(1).T())
		}),
		VJP(func(c *RuleContext[T]) *mat.Dense[T] {
			return c.Backend().MatMul(c.Input(0).T(), c.Grad)
		}),
	)
}

// Hadamard returns the elementwise product a ⊙ b.
func Hadamard[T mat.Float](a, b *Node[T]) *Node[T] {
	return Apply("hadamard",
		func(in []*mat.Dense[T]) *mat.Dense[T] { return mat.MulElem(in[0], in[1]) },
		[]*Node[T]{a, b},
		VJP(func(c *RuleContext[T]) *mat.Dense[T] { return mat.MulElem(c.Grad, c.Input(1)) }),
		VJP(func(c *RuleContext[T]) *mat.Dense[T] { return mat.MulElem(c.Grad, c.Input(0)) }),
	)
}
