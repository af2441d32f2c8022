// Package graph is a lazily evaluated computation graph with reverse-mode
// automatic differentiation over dense matrices.
//
// Nodes are created through a Graph, which owns them for its lifetime and
// hands out stable ids. Values are computed on the first Eval and cached until
// an input changes; gradients are computed on the first Diff for a given seed
// and cached until a value they depend on changes.
//
// A Graph and its nodes are not safe for concurrent use.
package graph

import (
	"math/rand"
	"time"

	"github.com/openfluke/lazy/mat"
	"github.com/pkg/errors"
)

// Graph is the arena that owns every node of one computation.
type Graph[T mat.Float] struct {
	nodes   []*Node[T]
	rng     *rand.Rand
	backend mat.Backend[T]
}

type options struct {
	seed    int64
	seeded  bool
	rng     *rand.Rand
	backend any
}

// Option configures a Graph.
type Option func(*options)

// WithSeed seeds the graph's random source. Weight initialisation and dropout
// masks become reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithRand makes the graph draw from rng.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithBackend selects the matrix backend used by Dot. The backend's scalar
// type must match the graph's.
func WithBackend[T mat.Float](b mat.Backend[T]) Option {
	return func(o *options) { o.backend = b }
}

// New creates an empty graph. Without options it uses the CPU backend and a
// time-seeded random source.
func New[T mat.Float](opts ...Option) *Graph[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph[T]{rng: o.rng}
	if g.rng == nil {
		seed := o.seed
		if !o.seeded {
			seed = time.Now().UnixNano()
		}
		g.rng = rand.New(rand.NewSource(seed))
	}

	switch b := o.backend.(type) {
	case nil:
		g.backend = mat.NewCPUBackend[T]()
	case mat.Backend[T]:
		g.backend = b
	default:
		panic(errors.Errorf("graph: backend %T does not match the graph's scalar type", o.backend))
	}
	return g
}

// Rand returns the graph's random source.
func (g *Graph[T]) Rand() *rand.Rand { return g.rng }

// Backend returns the matrix backend used by this graph.
func (g *Graph[T]) Backend() mat.Backend[T] { return g.backend }

// Len returns the number of nodes created so far.
func (g *Graph[T]) Len() int { return len(g.nodes) }

// Nodes returns every node in creation order. Node ids index this slice.
func (g *Graph[T]) Nodes() []*Node[T] { return g.nodes }

// Node returns the node with the given id.
func (g *Graph[T]) Node(id int) *Node[T] {
	if id < 0 || id >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

func (g *Graph[T]) add(n *Node[T]) *Node[T] {
	n.g = g
	n.id = len(g.nodes)
	g.nodes = append(g.nodes, n)
	return n
}
