package graph

import (
	"fmt"

	"github.com/openfluke/lazy/mat"
	"github.com/pkg/errors"
)

// Kind distinguishes the node variants.
type Kind int

const (
	KindOperator Kind = iota
	KindConstant
	KindPlaceholder
	KindVariable
)

func (k Kind) String() string {
	switch k {
	case KindOperator:
		return "operator"
	case KindConstant:
		return "constant"
	case KindPlaceholder:
		return "placeholder"
	case KindVariable:
		return "variable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// edge links a node to one operand slot of a consumer.
type edge[T mat.Float] struct {
	to    *Node[T]
	index int
}

// gradient is a cached Diff result. connected reports whether any path from
// the node to the seed carries a gradient; unconnected results are zero.
type gradient[T mat.Float] struct {
	value     *mat.Dense[T]
	connected bool
}

// Node is a vertex of the computation graph. Leaves hold assigned values;
// operator nodes compute theirs from their inputs on demand.
type Node[T mat.Float] struct {
	g    *Graph[T]
	id   int
	kind Kind
	name string

	value *mat.Dense[T]
	grads map[*Node[T]]gradient[T]

	pre  []*Node[T]
	post []edge[T]

	forward Forward[T]
	rules   []Rule[T]
	evals   int
}

func (n *Node[T]) Graph() *Graph[T] { return n.g }
func (n *Node[T]) ID() int          { return n.id }
func (n *Node[T]) Kind() Kind       { return n.kind }
func (n *Node[T]) Name() string     { return n.name }

// Named sets the node's display name and returns the node.
func (n *Node[T]) Named(name string) *Node[T] {
	n.name = name
	return n
}

// Trainable reports whether the optimizer may update this node.
func (n *Node[T]) Trainable() bool { return n.kind == KindVariable }

// AsVariable returns n and true when n is a trainable variable.
func (n *Node[T]) AsVariable() (*Node[T], bool) {
	if n.kind != KindVariable {
		return nil, false
	}
	return n, true
}

// Inputs returns the operands of n in argument order.
func (n *Node[T]) Inputs() []*Node[T] { return n.pre }

// Outputs returns the consumers of n in creation order. A consumer that uses
// n in several operand slots appears once per slot.
func (n *Node[T]) Outputs() []*Node[T] {
	out := make([]*Node[T], len(n.post))
	for i, e := range n.post {
		out[i] = e.to
	}
	return out
}

// HasValue reports whether n holds a cached or assigned value.
func (n *Node[T]) HasValue() bool { return n.value != nil }

// HasDelta reports whether n holds a cached gradient for seed.
func (n *Node[T]) HasDelta(seed *Node[T]) bool {
	_, ok := n.grads[seed]
	return ok
}

// Evaluations returns how many times the forward function of n has run.
func (n *Node[T]) Evaluations() int { return n.evals }

func (n *Node[T]) String() string {
	if n.name != "" {
		return fmt.Sprintf("%s#%d(%s)", n.name, n.id, n.kind)
	}
	return fmt.Sprintf("#%d(%s)", n.id, n.kind)
}

// =============================================================================
// Forward
// =============================================================================

// Eval returns the value of n, computing and caching it on first use. The
// returned matrix is shared with the cache and must not be modified.
func (n *Node[T]) Eval() *mat.Dense[T] {
	if n.value != nil {
		return n.value
	}
	if n.kind != KindOperator {
		panic(errors.Wrapf(ErrUninitialized, "eval %s", n))
	}

	in := make([]*mat.Dense[T], len(n.pre))
	for i, p := range n.pre {
		in[i] = p.Eval()
	}
	n.value = n.forward(in)
	n.evals++
	return n.value
}

// =============================================================================
// Backward
// =============================================================================

// Diff returns the gradient of seed's summed output with respect to n. The
// result is cached per seed.
//
// A node with no consumers receives ones when it is the seed and zeros
// otherwise; any other node receives the sum of its consumers' local
// vector-Jacobian products. Constants and placeholders always receive zeros.
// Reaching the seed through an operand without a derivative panics with
// ErrNotDifferentiable.
func (n *Node[T]) Diff(seed *Node[T]) *mat.Dense[T] {
	if seed.g != n.g {
		panic(errors.Wrapf(ErrForeignNode, "diff %s by %s", n, seed))
	}
	return n.grad(seed).value
}

func (n *Node[T]) grad(seed *Node[T]) gradient[T] {
	if g, ok := n.grads[seed]; ok {
		return g
	}

	val := n.Eval()
	var g gradient[T]
	switch {
	case n.kind == KindConstant || n.kind == KindPlaceholder:
		return gradient[T]{value: mat.ZerosLike(val)}

	case n == seed:
		// Consumers of the seed are visited so a later reset still finds
		// its way back through them.
		for _, e := range n.post {
			e.to.grad(seed)
		}
		g = gradient[T]{value: mat.OnesLike(val), connected: true}

	default:
		g.value = mat.ZerosLike(val)
		for _, e := range n.post {
			out := e.to.grad(seed)
			if !out.connected {
				continue
			}
			rule := e.to.rules[e.index]
			switch rule.kind {
			case ruleStop:
				continue
			case ruleNone:
				panic(errors.Wrapf(ErrNotDifferentiable, "%s through operand %d of %s", n, e.index, e.to))
			}
			ctx := &RuleContext[T]{Output: e.to, Index: e.index, Grad: out.value}
			mat.AddInPlace(g.value, rule.vjp(ctx))
			g.connected = true
		}
	}

	if n.grads == nil {
		n.grads = make(map[*Node[T]]gradient[T])
	}
	n.grads[seed] = g
	return g
}

// =============================================================================
// Invalidation
// =============================================================================

// ResetValue drops the cached value of n and of everything computed from it.
// At a node without consumers the stale gradients are swept backward with
// ResetDelta. Constants are never reset.
func (n *Node[T]) ResetValue() {
	if n.kind == KindConstant || n.value == nil {
		return
	}
	n.value = nil
	if len(n.post) == 0 {
		n.ResetDelta()
		return
	}
	for _, e := range n.post {
		e.to.ResetValue()
	}
}

// ResetDelta drops every cached gradient of n and of everything n was
// computed from.
func (n *Node[T]) ResetDelta() {
	if len(n.grads) == 0 {
		return
	}
	clear(n.grads)
	for _, p := range n.pre {
		p.ResetDelta()
	}
}
