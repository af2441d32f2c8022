package graph

import (
	"sort"

	"github.com/openfluke/lazy/mat"
	"github.com/pkg/errors"
)

// Constant creates a leaf holding m. Its value never changes and it receives
// no gradient.
func (g *Graph[T]) Constant(m *mat.Dense[T]) *Node[T] {
	return g.add(&Node[T]{kind: KindConstant, value: m})
}

// Placeholder creates an input leaf. It has no value until one is assigned.
func (g *Graph[T]) Placeholder(name string) *Node[T] {
	return g.add(&Node[T]{kind: KindPlaceholder, name: name})
}

// Variable creates a trainable leaf initialised to m.
func (g *Graph[T]) Variable(m *mat.Dense[T]) *Node[T] {
	return g.add(&Node[T]{kind: KindVariable, value: m})
}

// Zeros creates a trainable rows x cols leaf filled with zeros.
func (g *Graph[T]) Zeros(rows, cols int) *Node[T] {
	return g.Variable(mat.Zeros[T](rows, cols))
}

// RandomNormal creates a trainable rows x cols leaf drawn from N(mean, std²)
// using the graph's random source.
func (g *Graph[T]) RandomNormal(rows, cols int, mean, std T) *Node[T] {
	return g.Variable(mat.RandNormal(g.rng, rows, cols, mean, std))
}

// Assign replaces the value of a placeholder or variable. Everything computed
// from the old value is invalidated first.
func (n *Node[T]) Assign(m *mat.Dense[T]) {
	if n.kind != KindPlaceholder && n.kind != KindVariable {
		panic(errors.Wrapf(ErrNotAssignable, "assign %s", n))
	}
	if m == nil {
		panic(errors.Wrapf(ErrUninitialized, "assign nil to %s", n))
	}
	n.ResetValue()
	n.value = m
}

// Feed binds values to placeholders and variables.
type Feed[T mat.Float] map[*Node[T]]*mat.Dense[T]

// Assign applies every binding of feed, in node creation order.
func Assign[T mat.Float](feed Feed[T]) {
	leaves := make([]*Node[T], 0, len(feed))
	for n := range feed {
		leaves = append(leaves, n)
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].id < leaves[j].id })
	for _, n := range leaves {
		n.Assign(feed[n])
	}
}
