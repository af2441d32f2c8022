package train

import (
	"fmt"
	"math"
)

// Scheduler maps a 0-based step count to a learning rate.
type Scheduler interface {
	LR(step int) float64
	Reset()
	Name() string
}

// progress returns step/total clamped to [0, 1].
func progress(step, total int) float64 {
	if total <= 0 || step >= total {
		return 1
	}
	return float64(step) / float64(total)
}

// lerp moves from a towards b by t.
func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// ConstantScheduler keeps the rate fixed.
type ConstantScheduler struct{ rate float64 }

func NewConstantScheduler(rate float64) *ConstantScheduler {
	return &ConstantScheduler{rate: rate}
}

func (s *ConstantScheduler) LR(int) float64 { return s.rate }
func (s *ConstantScheduler) Reset()         {}
func (s *ConstantScheduler) Name() string   { return "Constant" }

// LinearDecayScheduler interpolates from start to end over span steps, then
// holds end.
type LinearDecayScheduler struct {
	start, end float64
	span       int
}

func NewLinearDecayScheduler(start, end float64, span int) *LinearDecayScheduler {
	return &LinearDecayScheduler{start: start, end: end, span: span}
}

func (s *LinearDecayScheduler) LR(step int) float64 {
	return lerp(s.start, s.end, progress(step, s.span))
}
func (s *LinearDecayScheduler) Reset()       {}
func (s *LinearDecayScheduler) Name() string { return "LinearDecay" }

// CosineAnnealingScheduler follows half a cosine from start down to floor.
// With warm restarts the curve starts over every period steps.
type CosineAnnealingScheduler struct {
	start, floor float64
	period       int
	restart      bool
}

func NewCosineAnnealingScheduler(start, floor float64, span int) *CosineAnnealingScheduler {
	return &CosineAnnealingScheduler{start: start, floor: floor, period: span}
}

func NewCosineAnnealingWithWarmRestarts(start, floor float64, period int) *CosineAnnealingScheduler {
	return &CosineAnnealingScheduler{start: start, floor: floor, period: period, restart: true}
}

func (s *CosineAnnealingScheduler) LR(step int) float64 {
	if s.restart && s.period > 0 {
		step %= s.period
	}
	t := progress(step, s.period)
	return s.floor + (s.start-s.floor)*(1+math.Cos(math.Pi*t))/2
}

func (s *CosineAnnealingScheduler) Reset() {}

func (s *CosineAnnealingScheduler) Name() string {
	if s.restart {
		return "CosineAnnealingWarmRestarts"
	}
	return "CosineAnnealing"
}

// ExponentialDecayScheduler multiplies the rate by factor every every steps,
// continuously: start * factor^(step/every).
type ExponentialDecayScheduler struct {
	start, factor float64
	every         int
}

func NewExponentialDecayScheduler(start, factor float64, every int) *ExponentialDecayScheduler {
	return &ExponentialDecayScheduler{start: start, factor: factor, every: every}
}

func (s *ExponentialDecayScheduler) LR(step int) float64 {
	return s.start * math.Pow(s.factor, float64(step)/float64(s.every))
}
func (s *ExponentialDecayScheduler) Reset()       {}
func (s *ExponentialDecayScheduler) Name() string { return "ExponentialDecay" }

// StepDecayScheduler is the staircase form of exponential decay:
// start * factor^floor(step/every).
type StepDecayScheduler struct {
	start, factor float64
	every         int
}

func NewStepDecayScheduler(start, factor float64, every int) *StepDecayScheduler {
	return &StepDecayScheduler{start: start, factor: factor, every: every}
}

func (s *StepDecayScheduler) LR(step int) float64 {
	return s.start * math.Pow(s.factor, float64(step/s.every))
}
func (s *StepDecayScheduler) Reset()       {}
func (s *StepDecayScheduler) Name() string { return "StepDecay" }

// PolynomialDecayScheduler decays as (1 - step/span)^power from start to end.
type PolynomialDecayScheduler struct {
	start, end float64
	span       int
	power      float64
}

func NewPolynomialDecayScheduler(start, end float64, span int, power float64) *PolynomialDecayScheduler {
	return &PolynomialDecayScheduler{start: start, end: end, span: span, power: power}
}

func (s *PolynomialDecayScheduler) LR(step int) float64 {
	remaining := math.Pow(1-progress(step, s.span), s.power)
	return s.end + (s.start-s.end)*remaining
}
func (s *PolynomialDecayScheduler) Reset()       {}
func (s *PolynomialDecayScheduler) Name() string { return "PolynomialDecay" }

// WarmupScheduler ramps linearly from initial to target over steps, then hands
// over to next (which sees its own step 0), or holds target if next is nil.
type WarmupScheduler struct {
	steps           int
	initial, target float64
	next            Scheduler
}

func NewWarmupScheduler(steps int, initial, target float64, next Scheduler) *WarmupScheduler {
	return &WarmupScheduler{steps: steps, initial: initial, target: target, next: next}
}

func (s *WarmupScheduler) LR(step int) float64 {
	switch {
	case step < s.steps:
		return lerp(s.initial, s.target, progress(step, s.steps))
	case s.next != nil:
		return s.next.LR(step - s.steps)
	}
	return s.target
}

func (s *WarmupScheduler) Reset() {
	if s.next != nil {
		s.next.Reset()
	}
}

func (s *WarmupScheduler) Name() string {
	if s.next == nil {
		return "Warmup"
	}
	return fmt.Sprintf("Warmup+%s", s.next.Name())
}
