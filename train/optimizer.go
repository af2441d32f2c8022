// Package train drives gradient-based optimization of graph variables.
package train

import (
	"time"

	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
	"github.com/pkg/errors"
)

// State is the lifecycle stage of an Optimizer.
type State int

const (
	// Constructed: no step has run since creation or the last Reset.
	Constructed State = iota
	// Stepping: at least one step has run and accumulators hold history.
	Stepping
)

func (s State) String() string {
	if s == Stepping {
		return "stepping"
	}
	return "constructed"
}

// StepFunc binds feed, updates the variables once and returns the loss value
// computed before the update. Any failure during the step is returned and
// leaves the step incomplete; it is never retried. Failures while evaluating
// or differentiating leave variables and method state untouched. A failure
// after the method has been prepared leaves its accumulators advanced.
type StepFunc[T mat.Float] func(feed graph.Feed[T]) (*mat.Dense[T], error)

// Optimizer applies a Method to the variables a loss depends on.
type Optimizer[T mat.Float] struct {
	lr        float64
	method    Method[T]
	scheduler Scheduler
	observers []Observer

	state State
	steps int
}

// New creates an optimizer stepping with method at learning rate lr.
func New[T mat.Float](lr float64, method Method[T]) *Optimizer[T] {
	return &Optimizer[T]{lr: lr, method: method}
}

// NewGradientDescentOptimizer creates a plain gradient descent optimizer.
func NewGradientDescentOptimizer[T mat.Float](lr float64) *Optimizer[T] {
	return New[T](lr, NewGradientDescent[T]())
}

// NewMomentumOptimizer creates a momentum optimizer, optionally with Nesterov look-ahead.
func NewMomentumOptimizer[T mat.Float](lr, momentum float64, nesterov bool) *Optimizer[T] {
	return New[T](lr, NewMomentum[T](momentum, nesterov))
}

// NewAdamOptimizer creates an Adam optimizer.
func NewAdamOptimizer[T mat.Float](lr, beta1, beta2, epsilon float64) *Optimizer[T] {
	return New[T](lr, NewAdam[T](beta1, beta2, epsilon))
}

// NewRMSpropOptimizer creates an RMSprop optimizer.
func NewRMSpropOptimizer[T mat.Float](lr, alpha, epsilon float64) *Optimizer[T] {
	return New[T](lr, NewRMSprop[T](alpha, epsilon, 0))
}

// WithScheduler makes the learning rate follow s. It returns o.
func (o *Optimizer[T]) WithScheduler(s Scheduler) *Optimizer[T] {
	o.scheduler = s
	return o
}

// WithObserver registers observers notified after every step. It returns o.
func (o *Optimizer[T]) WithObserver(obs ...Observer) *Optimizer[T] {
	o.observers = append(o.observers, obs...)
	return o
}

func (o *Optimizer[T]) Method() Method[T] { return o.method }
func (o *Optimizer[T]) State() State      { return o.state }

// Steps returns the number of completed steps.
func (o *Optimizer[T]) Steps() int { return o.steps }

// LearningRate returns the rate the next step will use.
func (o *Optimizer[T]) LearningRate() float64 {
	if o.scheduler != nil {
		return o.scheduler.LR(o.steps)
	}
	return o.lr
}

// Reset clears the method's accumulators and the step count.
func (o *Optimizer[T]) Reset() {
	o.method.Reset()
	if o.scheduler != nil {
		o.scheduler.Reset()
	}
	o.steps = 0
	o.state = Constructed
}

// Minimize returns a step function descending loss. Without vars it updates
// every variable loss depends on, discovered anew at each step. Repeated
// entries in vars are updated once.
func (o *Optimizer[T]) Minimize(loss *graph.Node[T], vars ...*graph.Node[T]) StepFunc[T] {
	return o.stepFunc(loss, vars, 1)
}

// Maximize returns a step function ascending loss.
func (o *Optimizer[T]) Maximize(loss *graph.Node[T], vars ...*graph.Node[T]) StepFunc[T] {
	return o.stepFunc(loss, vars, -1)
}

func (o *Optimizer[T]) stepFunc(loss *graph.Node[T], vars []*graph.Node[T], sign T) StepFunc[T] {
	explicit := unique(vars)
	return func(feed graph.Feed[T]) (*mat.Dense[T], error) {
		var out *mat.Dense[T]
		err := graph.Try(func() { out = o.step(loss, explicit, sign, feed) })
		if err != nil {
			return nil, errors.WithMessagef(err, "train: step %d", o.steps+1)
		}
		return out, nil
	}
}

// unique copies vars without repeats, keeping first occurrences.
func unique[T mat.Float](vars []*graph.Node[T]) []*graph.Node[T] {
	seen := make(map[*graph.Node[T]]bool, len(vars))
	out := make([]*graph.Node[T], 0, len(vars))
	for _, v := range vars {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func gradients[T mat.Float](loss *graph.Node[T], vars []*graph.Node[T]) []*mat.Dense[T] {
	grads := make([]*mat.Dense[T], len(vars))
	for i, v := range vars {
		grads[i] = v.Diff(loss)
	}
	return grads
}

// move shifts v by -step * dir.
func move[T mat.Float](v *graph.Node[T], dir *mat.Dense[T], step T) {
	v.Assign(mat.Sub(v.Eval(), mat.Scale(dir, step)))
}

func (o *Optimizer[T]) step(loss *graph.Node[T], explicit []*graph.Node[T], sign T, feed graph.Feed[T]) *mat.Dense[T] {
	start := time.Now()
	graph.Assign(feed)

	vars := explicit
	if len(vars) == 0 {
		vars = graph.Trainables(loss)
	}
	for _, v := range vars {
		if _, ok := v.AsVariable(); !ok {
			panic(errors.Wrapf(graph.ErrNotAssignable, "train: %s is not a variable", v))
		}
	}

	lr := o.LearningRate()
	grads := gradients(loss, vars)
	value := loss.Eval()

	if la, ok := o.method.(lookAhead[T]); ok {
		saved := make([]*mat.Dense[T], len(vars))
		moved := false
		for i, v := range vars {
			saved[i] = v.Eval()
			if d := la.LookAhead(v); d != nil {
				move(v, d, sign*T(lr))
				moved = true
			}
		}
		if moved {
			grads = gradients(loss, vars)
			for i, v := range vars {
				v.Assign(saved[i])
			}
		}
	}

	o.method.Prepare()
	dirs := make([]*mat.Dense[T], len(vars))
	for i, v := range vars {
		dirs[i] = o.method.Direction(v, grads[i])
	}
	for i, v := range vars {
		move(v, dirs[i], sign*T(lr))
	}

	o.steps++
	o.state = Stepping
	if len(o.observers) > 0 {
		o.notify(StepEvent{
			Step:         o.steps,
			LearningRate: lr,
			Loss:         mean(value),
			Optimizer:    o.method.Name(),
			Duration:     time.Since(start),
			Gradients:    gradStats(vars, grads),
		})
	}
	return value
}

func (o *Optimizer[T]) notify(ev StepEvent) {
	for _, obs := range o.observers {
		obs.OnStep(ev)
	}
}

func mean[T mat.Float](m *mat.Dense[T]) float64 {
	if m.Len() == 0 {
		return 0
	}
	return float64(mat.Sum(m).At(0, 0)) / float64(m.Len())
}
