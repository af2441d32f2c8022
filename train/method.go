package train

import (
	"fmt"
	"math"

	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
)

// Method turns raw gradients into update directions. A minimizing step moves
// every variable by -lr * direction, a maximizing step by +lr * direction.
type Method[T mat.Float] interface {
	// Prepare is called once per step, before any Direction.
	Prepare()

	// Direction returns the update direction of v given its gradient.
	Direction(v *graph.Node[T], grad *mat.Dense[T]) *mat.Dense[T]

	// Reset clears accumulated state (velocities, moments)
	Reset()

	// Name returns the method name
	Name() string
}

// lookAhead is implemented by methods that evaluate the gradient at a
// provisional position. It returns the direction of the provisional move, or
// nil when v has no history yet.
type lookAhead[T mat.Float] interface {
	LookAhead(v *graph.Node[T]) *mat.Dense[T]
}

// ============================================================================
// Gradient Descent
// ============================================================================

type GradientDescent[T mat.Float] struct{}

func NewGradientDescent[T mat.Float]() *GradientDescent[T] { return &GradientDescent[T]{} }

func (m *GradientDescent[T]) Prepare()     {}
func (m *GradientDescent[T]) Reset()       {}
func (m *GradientDescent[T]) Name() string { return "GradientDescent" }

func (m *GradientDescent[T]) Direction(_ *graph.Node[T], grad *mat.Dense[T]) *mat.Dense[T] {
	return grad
}

// ============================================================================
// Momentum (optionally Nesterov)
// ============================================================================

type Momentum[T mat.Float] struct {
	momentum   float64
	dampening  float64
	nesterov   bool
	velocities map[*graph.Node[T]]*mat.Dense[T]
}

// NewMomentum accumulates v = momentum * v + grad and steps along v. With
// nesterov the gradient is taken after a provisional move along momentum * v.
func NewMomentum[T mat.Float](momentum float64, nesterov bool) *Momentum[T] {
	return NewMomentumWithDampening[T](momentum, 0, nesterov)
}

// NewMomentumWithDampening scales the incoming gradient by 1 - dampening
// before accumulating it.
func NewMomentumWithDampening[T mat.Float](momentum, dampening float64, nesterov bool) *Momentum[T] {
	return &Momentum[T]{
		momentum:   momentum,
		dampening:  dampening,
		nesterov:   nesterov,
		velocities: make(map[*graph.Node[T]]*mat.Dense[T]),
	}
}

func (m *Momentum[T]) Prepare() {}

func (m *Momentum[T]) Direction(v *graph.Node[T], grad *mat.Dense[T]) *mat.Dense[T] {
	vel, ok := m.velocities[v]
	if !ok {
		vel = mat.ZerosLike(grad)
	}
	// v = momentum * v + (1 - dampening) * grad
	vel = mat.Add(mat.Scale(vel, T(m.momentum)), mat.Scale(grad, T(1-m.dampening)))
	m.velocities[v] = vel
	return vel
}

func (m *Momentum[T]) LookAhead(v *graph.Node[T]) *mat.Dense[T] {
	if !m.nesterov {
		return nil
	}
	vel, ok := m.velocities[v]
	if !ok {
		return nil
	}
	return mat.Scale(vel, T(m.momentum))
}

// Velocity returns the accumulated velocity of v, or nil before its first step.
func (m *Momentum[T]) Velocity(v *graph.Node[T]) *mat.Dense[T] { return m.velocities[v] }

func (m *Momentum[T]) Reset() {
	m.velocities = make(map[*graph.Node[T]]*mat.Dense[T])
}

func (m *Momentum[T]) Name() string {
	if m.nesterov {
		return "Momentum (Nesterov)"
	}
	return "Momentum"
}

// ============================================================================
// Adam
// ============================================================================

type Adam[T mat.Float] struct {
	beta1   float64
	beta2   float64
	epsilon float64

	// running powers beta1^t and beta2^t
	pow1, pow2 float64

	// First moment estimates
	m map[*graph.Node[T]]*mat.Dense[T]

	// Second moment estimates
	v map[*graph.Node[T]]*mat.Dense[T]
}

func NewAdam[T mat.Float](beta1, beta2, epsilon float64) *Adam[T] {
	return &Adam[T]{
		beta1:   beta1,
		beta2:   beta2,
		epsilon: epsilon,
		pow1:    1,
		pow2:    1,
		m:       make(map[*graph.Node[T]]*mat.Dense[T]),
		v:       make(map[*graph.Node[T]]*mat.Dense[T]),
	}
}

func NewAdamDefault[T mat.Float]() *Adam[T] {
	return NewAdam[T](0.9, 0.999, 1e-8)
}

func (a *Adam[T]) Prepare() {
	a.pow1 *= a.beta1
	a.pow2 *= a.beta2
}

// BiasCorrection returns the denominators 1 - beta1^t and 1 - beta2^t used
// at the current step t.
func (a *Adam[T]) BiasCorrection() (first, second float64) {
	return 1 - a.pow1, 1 - a.pow2
}

func (a *Adam[T]) Direction(v *graph.Node[T], grad *mat.Dense[T]) *mat.Dense[T] {
	m, ok := a.m[v]
	if !ok {
		m = mat.ZerosLike(grad)
		a.v[v] = mat.ZerosLike(grad)
	}
	s := a.v[v]

	// m = beta1 * m + (1 - beta1) * g
	m = mat.Add(mat.Scale(m, T(a.beta1)), mat.Scale(grad, T(1-a.beta1)))
	// s = beta2 * s + (1 - beta2) * g^2
	s = mat.Add(mat.Scale(s, T(a.beta2)), mat.Scale(mat.MulElem(grad, grad), T(1-a.beta2)))
	a.m[v], a.v[v] = m, s

	c1, c2 := a.BiasCorrection()
	return mat.Apply2(m, s, func(mt, st T) T {
		mHat := float64(mt) / c1
		sHat := float64(st) / c2
		return T(mHat / (math.Sqrt(sHat) + a.epsilon))
	})
}

func (a *Adam[T]) Reset() {
	a.pow1, a.pow2 = 1, 1
	a.m = make(map[*graph.Node[T]]*mat.Dense[T])
	a.v = make(map[*graph.Node[T]]*mat.Dense[T])
}

func (a *Adam[T]) Name() string { return "Adam" }

// ============================================================================
// RMSprop
// ============================================================================

type RMSprop[T mat.Float] struct {
	alpha    float64 // Decay rate
	epsilon  float64
	momentum float64

	// Running average of squared gradients
	v map[*graph.Node[T]]*mat.Dense[T]

	// Momentum buffer (if momentum > 0)
	buf map[*graph.Node[T]]*mat.Dense[T]
}

func NewRMSprop[T mat.Float](alpha, epsilon, momentum float64) *RMSprop[T] {
	return &RMSprop[T]{
		alpha:    alpha,
		epsilon:  epsilon,
		momentum: momentum,
		v:        make(map[*graph.Node[T]]*mat.Dense[T]),
		buf:      make(map[*graph.Node[T]]*mat.Dense[T]),
	}
}

func NewRMSpropDefault[T mat.Float]() *RMSprop[T] {
	return NewRMSprop[T](0.99, 1e-8, 0.0)
}

func (r *RMSprop[T]) Prepare() {}

func (r *RMSprop[T]) Direction(v *graph.Node[T], grad *mat.Dense[T]) *mat.Dense[T] {
	avg, ok := r.v[v]
	if !ok {
		avg = mat.ZerosLike(grad)
	}
	// v = alpha * v + (1 - alpha) * grad^2
	avg = mat.Add(mat.Scale(avg, T(r.alpha)), mat.Scale(mat.MulElem(grad, grad), T(1-r.alpha)))
	r.v[v] = avg

	// grad / sqrt(v + eps)
	dir := mat.Apply2(grad, avg, func(g, a T) T {
		return T(float64(g) / math.Sqrt(float64(a)+r.epsilon))
	})
	if r.momentum <= 0 {
		return dir
	}

	buf, ok := r.buf[v]
	if !ok {
		buf = mat.ZerosLike(grad)
	}
	buf = mat.Add(mat.Scale(buf, T(r.momentum)), dir)
	r.buf[v] = buf
	return buf
}

func (r *RMSprop[T]) Reset() {
	r.v = make(map[*graph.Node[T]]*mat.Dense[T])
	r.buf = make(map[*graph.Node[T]]*mat.Dense[T])
}

func (r *RMSprop[T]) Name() string {
	if r.momentum > 0 {
		return fmt.Sprintf("RMSprop (momentum %.2g)", r.momentum)
	}
	return "RMSprop"
}
