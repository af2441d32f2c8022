package graph

import (
	"github.com/openfluke/lazy/mat"
	"github.com/pkg/errors"
)

// Forward computes an operator's value from its evaluated inputs. It must not
// modify its arguments.
type Forward[T mat.Float] func(in []*mat.Dense[T]) *mat.Dense[T]

type ruleKind int

const (
	ruleVJP ruleKind = iota
	ruleNone
	ruleStop
)

// Rule is the local derivative of an operator with respect to one operand.
type Rule[T mat.Float] struct {
	kind ruleKind
	vjp  func(ctx *RuleContext[T]) *mat.Dense[T]
}

// VJP wraps a vector-Jacobian product: given the gradient arriving at the
// operator's output it returns the contribution to the operand.
func VJP[T mat.Float](f func(ctx *RuleContext[T]) *mat.Dense[T]) Rule[T] {
	return Rule[T]{kind: ruleVJP, vjp: f}
}

// NoGradient marks an operand whose derivative is undefined. Differentiating
// through it panics with ErrNotDifferentiable.
func NoGradient[T mat.Float]() Rule[T] {
	return Rule[T]{kind: ruleNone}
}

// StopGradient marks an operand that deliberately receives no gradient.
func StopGradient[T mat.Float]() Rule[T] {
	return Rule[T]{kind: ruleStop}
}

// RuleContext is what a VJP sees: the operator node, the operand slot being
// differentiated and the gradient arriving at the operator's output.
type RuleContext[T mat.Float] struct {
	Output *Node[T]
	Index  int
	Grad   *mat.Dense[T]
}

// Operand returns the i-th input node of the operator.
func (c *RuleContext[T]) Operand(i int) *Node[T] { return c.Output.pre[i] }

// Input returns the value of the i-th input.
func (c *RuleContext[T]) Input(i int) *mat.Dense[T] { return c.Output.pre[i].Eval() }

// Value returns the operator's own output value.
func (c *RuleContext[T]) Value() *mat.Dense[T] { return c.Output.Eval() }

// Backend returns the matrix backend of the operator's graph.
func (c *RuleContext[T]) Backend() mat.Backend[T] { return c.Output.g.backend }

// Apply creates an operator node computing forward over inputs, with one rule
// per input. The node is registered as a consumer of every input.
func Apply[T mat.Float](name string, forward Forward[T], inputs []*Node[T], rules ...Rule[T]) *Node[T] {
	if len(inputs) == 0 {
		panic(errors.Errorf("graph: operator %q has no inputs", name))
	}
	if len(rules) != len(inputs) {
		panic(errors.Errorf("graph: operator %q has %d inputs but %d rules", name, len(inputs), len(rules)))
	}
	g := inputs[0].g
	for _, in := range inputs[1:] {
		if in.g != g {
			panic(errors.Wrapf(ErrForeignNode, "operator %q: %s and %s", name, inputs[0], in))
		}
	}

	out := g.add(&Node[T]{
		kind:    KindOperator,
		name:    name,
		pre:     append([]*Node[T](nil), inputs...),
		forward: forward,
		rules:   append([]Rule[T](nil), rules...),
	})
	for i, in := range inputs {
		in.post = append(in.post, edge[T]{to: out, index: i})
	}
	return out
}

// Trainables returns the variables reachable from n through its inputs,
// each once, in depth-first order.
func Trainables[T mat.Float](n *Node[T]) []*Node[T] {
	var vars []*Node[T]
	seen := make(map[*Node[T]]bool)
	var walk func(*Node[T])
	walk = func(n *Node[T]) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, p := range n.pre {
			walk(p)
		}
		if v, ok := n.AsVariable(); ok {
			vars = append(vars, v)
		}
	}
	walk(n)
	return vars
}
