package graph

import (
	"runtime"

	"github.com/pkg/errors"
)

// Errors raised by graph operations. They are delivered as panics carrying a
// stack trace; use Try to turn them back into error values.
var (
	// ErrUninitialized is raised when a placeholder or variable is read
	// before a value has been assigned.
	ErrUninitialized = errors.New("graph: leaf read before assignment")

	// ErrNotDifferentiable is raised when a gradient has to pass through an
	// operand whose derivative is undefined (argmax, equality, dropout masks).
	ErrNotDifferentiable = errors.New("graph: gradient through non-differentiable node")

	// ErrNotAssignable is raised when assigning to a constant or operator node.
	ErrNotAssignable = errors.New("graph: node is not assignable")

	// ErrForeignNode is raised when an operator combines nodes of different graphs.
	ErrForeignNode = errors.New("graph: node belongs to another graph")
)

// Try runs fn and returns the error it panicked with, if any. Runtime faults
// and panics that do not carry an error are re-raised.
func Try(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		e, ok := r.(error)
		if _, fault := r.(runtime.Error); !ok || fault {
			panic(r)
		}
		err = e
	}()
	fn()
	return nil
}
