package graph

import (
	"math"

	"github.com/openfluke/lazy/mat"
)

// Map applies f to every entry of x. df is the derivative of f and is
// evaluated at the input, not the output.
func Map[T mat.Float](name string, x *Node[T], f, df func(T) T) *Node[T] {
	return Apply(name,
		func(in []*mat.Dense[T]) *mat.Dense[T] { return mat.Apply(in[0], f) },
		[]*Node[T]{x},
		VJP(func(c *RuleContext[T]) *mat.Dense[T] {
			return mat.MulElem(c.Grad, mat.Apply(c.Input(0), df))
		}),
	)
}

// AddScalar returns x + s.
func AddScalar[T mat.Float](x *Node[T], s T) *Node[T] {
	return Map("add_scalar", x,
		func(v T) T { return v + s },
		func(T) T { return 1 })
}

// Scale returns x * s.
func Scale[T mat.Float](x *Node[T], s T) *Node[T] {
	return Map("scale", x,
		func(v T) T { return v * s },
		func(T) T { return s })
}

// Neg returns -x.
func Neg[T mat.Float](x *Node[T]) *Node[T] {
	return Scale(x, -1)
}

func Exp[T mat.Float](x *Node[T]) *Node[T] {
	return Map("exp", x,
		func(v T) T { return T(math.Exp(float64(v))) },
		func(v T) T { return T(math.Exp(float64(v))) })
}

// Log is the natural logarithm.
func Log[T mat.Float](x *Node[T]) *Node[T] {
	return Map("log", x,
		func(v T) T { return T(math.Log(float64(v))) },
		func(v T) T { return 1 / v })
}

func Square[T mat.Float](x *Node[T]) *Node[T] {
	return Map("square", x,
		func(v T) T { return v * v },
		func(v T) T { return 2 * v })
}

func Sqrt[T mat.Float](x *Node[T]) *Node[T] {
	return Map("sqrt", x,
		func(v T) T { return T(math.Sqrt(float64(v))) },
		func(v T) T { return 1 / (2 * T(math.Sqrt(float64(v)))) })
}
