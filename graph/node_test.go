package graph

import (
	"errors"
	"testing"

	"github.com/openfluke/lazy/mat"
)

// TestEvalMemoization verifies a node computes once per generation
func TestEvalMemoization(t *testing.T) {
	g := New[float64](WithSeed(1))
	calls := 0
	x := g.Variable(mat.FromRows([][]float64{{1, 2}, {3, 4}}))
	y := Map("count", x, func(v float64) float64 { calls++; return v * 3 }, func(float64) float64 { return 3 })

	first := y.Eval()
	second := y.Eval()
	if first != second {
		t.Errorf("Eval returned different matrices within one generation")
	}
	if !mat.Equal(first, second) {
		t.Errorf("Eval results are not identical")
	}
	if y.Evaluations() != 1 || calls != 4 {
		t.Errorf("forward ran %d times (%d scalar calls), want 1 (4)", y.Evaluations(), calls)
	}

	x.Assign(mat.Ones[float64](2, 2))
	if y.HasValue() {
		t.Fatalf("assignment did not invalidate the consumer")
	}
	if got := y.Eval().At(1, 1); got != 3 {
		t.Errorf("recomputed value %v, want 3", got)
	}
	if y.Evaluations() != 2 {
		t.Errorf("expected 2 evaluations after reassignment, got %d", y.Evaluations())
	}
}

func TestSelfGradient(t *testing.T) {
	g := New[float32](WithSeed(1))
	x := g.RandomNormal(3, 4, 0, 1)
	y := Exp(x)

	d := y.Diff(y)
	if !mat.Equal(d, mat.Ones[float32](3, 4)) {
		t.Errorf("self gradient of a sink: got %v", d)
	}

	// A seed with consumers still gets ones.
	_ = Square(y)
	g2 := New[float32](WithSeed(1))
	a := g2.RandomNormal(2, 2, 0, 1)
	b := Exp(a)
	_ = Scale(b, 2)
	if d := b.Diff(b); !mat.Equal(d, mat.Ones[float32](2, 2)) {
		t.Errorf("self gradient of a consumed node: got %v", d)
	}
}

func TestDiffLeaves(t *testing.T) {
	g := New[float64](WithSeed(1))
	c := g.Constant(mat.Full[float64](2, 3, 5))
	p := g.Placeholder("x")
	p.Assign(mat.Ones[float64](2, 3))
	v := g.Zeros(2, 3)
	out := ReduceSum(Add(Add(c, p), v), Scalar)

	if d := c.Diff(out); !mat.Equal(d, mat.Zeros[float64](2, 3)) {
		t.Errorf("constant gradient: got %v", d)
	}
	if d := p.Diff(out); !mat.Equal(d, mat.Zeros[float64](2, 3)) {
		t.Errorf("placeholder gradient: got %v", d)
	}
	if d := v.Diff(out); !mat.Equal(d, mat.Ones[float64](2, 3)) {
		t.Errorf("variable gradient: got %v", d)
	}

	// Unrelated sink: zeros.
	other := Exp(v)
	if d := v.Diff(other); !mat.Equal(d, mat.Ones[float64](2, 3)) {
		t.Errorf("gradient through exp(0): got %v", d)
	}
	if d := c.Diff(other); !mat.Equal(d, mat.Zeros[float64](2, 3)) {
		t.Errorf("constant gradient to other seed: got %v", d)
	}
}

// TestInvalidationScope checks resets reach exactly their transitive closure
func TestInvalidationScope(t *testing.T) {
	g := New[float64](WithSeed(3))
	w := g.RandomNormal(2, 2, 0, 1).Named("w")
	v := g.RandomNormal(2, 2, 0, 1).Named("v")
	a := Exp(w)
	b := Square(a)
	c := Scale(a, 2)
	d := Exp(v)
	total := Add(b, d)

	total.Eval()
	c.Eval()

	b.ResetValue()
	for _, n := range []*Node[float64]{b, total} {
		if n.HasValue() {
			t.Errorf("%s kept its value after upstream reset", n)
		}
	}
	for _, n := range []*Node[float64]{w, v, a, c, d} {
		if !n.HasValue() {
			t.Errorf("%s lost its value outside the reset closure", n)
		}
	}

	w.Diff(total)
	v.Diff(total)
	for _, n := range []*Node[float64]{w, v, a, b, c, d, total} {
		if !n.HasDelta(total) {
			t.Fatalf("%s has no cached gradient after Diff", n)
		}
	}

	b.ResetDelta()
	for _, n := range []*Node[float64]{b, a, w} {
		if n.HasDelta(total) {
			t.Errorf("%s kept its gradient after downstream ResetDelta", n)
		}
	}
	for _, n := range []*Node[float64]{total, c, d, v} {
		if !n.HasDelta(total) {
			t.Errorf("%s lost its gradient outside the reset closure", n)
		}
	}
}

func TestAssignSweepsGradients(t *testing.T) {
	g := New[float64](WithSeed(1))
	x := g.Placeholder("x")
	w := g.Variable(mat.FromRows([][]float64{{1, 2}}))
	loss := ReduceSum(Dot(w, x), Scalar)

	x.Assign(mat.New(2, 1, []float64{3, 4}))
	if d := w.Diff(loss); !mat.Equal(d, mat.FromRows([][]float64{{3, 4}})) {
		t.Fatalf("gradient: got %v", d)
	}

	// A new batch changes both the shape and the gradient.
	Assign(Feed[float64]{x: mat.FromRows([][]float64{{1, 1, 1}, {2, 0, 1}})})
	if w.HasDelta(loss) || loss.HasDelta(loss) {
		t.Fatalf("assignment left stale gradients behind")
	}
	if d := w.Diff(loss); !mat.Equal(d, mat.FromRows([][]float64{{3, 3}})) {
		t.Errorf("gradient after feed: got %v", d)
	}
	if got := loss.Eval().At(0, 0); got != 9 {
		t.Errorf("loss after feed: got %v, want 9", got)
	}
}

func TestUninitializedLeaf(t *testing.T) {
	g := New[float32]()
	p := g.Placeholder("input")
	y := Exp(p)

	err := Try(func() { y.Eval() })
	if !errors.Is(err, ErrUninitialized) {
		t.Fatalf("expected ErrUninitialized, got %v", err)
	}

	v := g.Zeros(1, 1)
	v.ResetValue()
	if err := Try(func() { v.Eval() }); !errors.Is(err, ErrUninitialized) {
		t.Errorf("reset variable: expected ErrUninitialized, got %v", err)
	}
}

func TestAssignErrors(t *testing.T) {
	g := New[float64]()
	c := g.Constant(mat.Ones[float64](1, 1))
	y := Exp(c)

	for _, n := range []*Node[float64]{c, y} {
		err := Try(func() { n.Assign(mat.Ones[float64](1, 1)) })
		if !errors.Is(err, ErrNotAssignable) {
			t.Errorf("%s: expected ErrNotAssignable, got %v", n, err)
		}
	}
}

func TestNotDifferentiable(t *testing.T) {
	g := New[float64](WithSeed(1))
	x := g.RandomNormal(2, 3, 0, 1)
	sign := Apply("sign",
		func(in []*mat.Dense[float64]) *mat.Dense[float64] {
			return mat.Apply(in[0], func(v float64) float64 {
				if v < 0 {
					return -1
				}
				return 1
			})
		},
		[]*Node[float64]{x},
		NoGradient[float64](),
	)

	// Hanging off the differentiated path is fine.
	loss := ReduceSum(Square(x), Scalar)
	if err := Try(func() { x.Diff(loss) }); err != nil {
		t.Fatalf("unconnected non-differentiable node broke Diff: %v", err)
	}

	through := ReduceSum(sign, Scalar)
	err := Try(func() { x.Diff(through) })
	if !errors.Is(err, ErrNotDifferentiable) {
		t.Fatalf("expected ErrNotDifferentiable, got %v", err)
	}
}

func TestStopGradient(t *testing.T) {
	g := New[float64]()
	x := g.Variable(mat.FromRows([][]float64{{2, 3}}))
	frozen := Apply("frozen",
		func(in []*mat.Dense[float64]) *mat.Dense[float64] { return in[0].Clone() },
		[]*Node[float64]{x},
		StopGradient[float64](),
	)
	y := ReduceSum(Hadamard(x, frozen), Scalar)

	// d/dx of x*stop(x) is stop(x).
	if d := x.Diff(y); !mat.Equal(d, mat.FromRows([][]float64{{2, 3}})) {
		t.Errorf("gradient: got %v", d)
	}
}

func TestDiamondMemoization(t *testing.T) {
	g := New[float64]()
	x := g.Variable(mat.Ones[float64](1, 1))
	y := x
	for i := 0; i < 40; i++ {
		y = Add(y, y)
	}
	if got := x.Diff(y).At(0, 0); got != 1<<40 {
		t.Errorf("gradient through 40 doublings: got %v", got)
	}
	if got := y.Eval().At(0, 0); got != 1<<40 {
		t.Errorf("value after 40 doublings: got %v", got)
	}
}

func TestTrainables(t *testing.T) {
	g := New[float32](WithSeed(1))
	x := g.Placeholder("x")
	w1 := g.RandomNormal(4, 3, 0, 1).Named("w1")
	b1 := g.Zeros(4, 1).Named("b1")
	w2 := g.RandomNormal(2, 4, 0, 1).Named("w2")
	h := AddCols(Dot(w1, x), b1)
	out := Add(Dot(w2, h), Dot(w2, h))

	vars := Trainables(out)
	want := []*Node[float32]{w2, w1, b1}
	if len(vars) != len(want) {
		t.Fatalf("found %d trainables, want %d", len(vars), len(want))
	}
	for i := range want {
		if vars[i] != want[i] {
			t.Errorf("trainable %d: got %s, want %s", i, vars[i], want[i])
		}
	}
	if _, ok := x.AsVariable(); ok {
		t.Errorf("placeholder reported as variable")
	}
}

func TestForeignNode(t *testing.T) {
	a := New[float64]().Zeros(1, 1)
	b := New[float64]().Zeros(1, 1)
	if err := Try(func() { Add(a, b) }); !errors.Is(err, ErrForeignNode) {
		t.Errorf("expected ErrForeignNode, got %v", err)
	}
}

func TestShapeMismatchPanics(t *testing.T) {
	g := New[float64]()
	y := Add(g.Zeros(2, 2), g.Zeros(3, 2))
	if err := Try(func() { y.Eval() }); !errors.Is(err, mat.ErrShape) {
		t.Errorf("expected mat.ErrShape, got %v", err)
	}
}

func TestBulkAssignOrder(t *testing.T) {
	g := New[float64]()
	a := g.Placeholder("a")
	b := g.Placeholder("b")
	sum := Add(a, b)

	Assign(Feed[float64]{b: mat.Scalar(2.0), a: mat.Scalar(1.0)})
	if got := sum.Eval().At(0, 0); got != 3 {
		t.Fatalf("sum = %v, want 3", got)
	}
	Assign(Feed[float64]{a: mat.Scalar(10.0)})
	if got := sum.Eval().At(0, 0); got != 12 {
		t.Errorf("sum after partial feed = %v, want 12", got)
	}
}

func TestWithBackendMismatch(t *testing.T) {
	err := Try(func() { New[float32](WithBackend[float64](mat.NewCPUBackend[float64]())) })
	if err == nil {
		t.Errorf("expected a backend type mismatch error")
	}
	g := New[float32](WithBackend[float32](mat.NewCPUBackend[float32]()))
	if g.Backend().Name() != "cpu" {
		t.Errorf("backend = %s", g.Backend().Name())
	}
}
