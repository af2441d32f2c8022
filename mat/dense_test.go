package mat

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func expectShapePanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("%s: expected panic", name)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrShape) {
			t.Fatalf("%s: expected ErrShape, got %v", name, r)
		}
	}()
	fn()
}

// TestDenseCreation verifies constructors and accessors
func TestDenseCreation(t *testing.T) {
	m := New(2, 3, []float64{1, 2, 3, 4, 5, 6})
	if r, c := m.Dims(); r != 2 || c != 3 {
		t.Fatalf("Expected 2x3, got %dx%d", r, c)
	}
	if m.At(1, 2) != 6 {
		t.Errorf("At(1,2): expected 6, got %v", m.At(1, 2))
	}

	z := Zeros[float32](3, 2)
	for _, v := range z.Data() {
		if v != 0 {
			t.Fatalf("Zeros contains %v", v)
		}
	}

	oh := OneHot[float32](3, 2, 0)
	if oh.At(2, 0) != 1 || oh.At(0, 1) != 1 || Sum(oh).At(0, 0) != 2 {
		t.Errorf("OneHot wrong: %v", oh)
	}

	expectShapePanic(t, "New", func() { New(2, 2, []float64{1, 2, 3}) })
	expectShapePanic(t, "At", func() { m.At(2, 0) })
}

func TestTransposeAndClone(t *testing.T) {
	m := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	tr := m.T()
	if tr.Rows() != 3 || tr.Cols() != 2 || tr.At(2, 1) != 6 || tr.At(0, 1) != 4 {
		t.Errorf("Transpose wrong: %v", tr)
	}

	c := m.Clone()
	m.Set(0, 0, 100)
	if c.At(0, 0) != 1 {
		t.Errorf("Clone was modified when original changed")
	}
}

func TestElementwise(t *testing.T) {
	a := FromRows([][]float64{{1, 2}, {3, 4}})
	b := FromRows([][]float64{{5, 6}, {7, 8}})

	if !Equal(Add(a, b), FromRows([][]float64{{6, 8}, {10, 12}})) {
		t.Errorf("Add wrong")
	}
	if !Equal(Sub(b, a), Full[float64](2, 2, 4)) {
		t.Errorf("Sub wrong")
	}
	if !Equal(MulElem(a, b), FromRows([][]float64{{5, 12}, {21, 32}})) {
		t.Errorf("MulElem wrong")
	}
	if !Equal(Scale(a, 2), FromRows([][]float64{{2, 4}, {6, 8}})) {
		t.Errorf("Scale wrong")
	}
	if !Equal(AddScalar(a, -1), FromRows([][]float64{{0, 1}, {2, 3}})) {
		t.Errorf("AddScalar wrong")
	}
	expectShapePanic(t, "Add", func() { Add(a, Zeros[float64](3, 2)) })
}

func TestBroadcast(t *testing.T) {
	m := FromRows([][]float32{{1, 2, 3}, {4, 5, 6}})

	col := New(2, 1, []float32{10, 20})
	want := FromRows([][]float32{{11, 12, 13}, {24, 25, 26}})
	if got := AddColVec(m, col); !Equal(got, want) {
		t.Errorf("AddColVec: got %v", got)
	}

	row := New(1, 3, []float32{1, 1, -1})
	want = FromRows([][]float32{{2, 3, 2}, {5, 6, 5}})
	if got := AddRowVec(m, row); !Equal(got, want) {
		t.Errorf("AddRowVec: got %v", got)
	}
	expectShapePanic(t, "AddColVec", func() { AddColVec(m, row) })
}

func TestReductions(t *testing.T) {
	m := FromRows([][]float64{{1, 5, 3}, {4, 2, 6}})

	if got := RowSums(m); !Equal(got, New(2, 1, []float64{9, 12})) {
		t.Errorf("RowSums: got %v", got)
	}
	if got := ColSums(m); !Equal(got, New(1, 3, []float64{5, 7, 9})) {
		t.Errorf("ColSums: got %v", got)
	}
	if got := Sum(m).At(0, 0); got != 21 {
		t.Errorf("Sum: got %v", got)
	}
	if got := ColMax(m); !Equal(got, New(1, 3, []float64{4, 5, 6})) {
		t.Errorf("ColMax: got %v", got)
	}
	if got := RowMax(m); !Equal(got, New(2, 1, []float64{5, 6})) {
		t.Errorf("RowMax: got %v", got)
	}

	cols := ArgMaxCols(m)
	if cols[0] != 1 || cols[1] != 0 || cols[2] != 1 {
		t.Errorf("ArgMaxCols: got %v", cols)
	}
	rows := ArgMaxRows(m)
	if rows[0] != 1 || rows[1] != 2 {
		t.Errorf("ArgMaxRows: got %v", rows)
	}
}

func naiveMul(a, b *Dense[float64]) *Dense[float64] {
	out := Zeros[float64](a.Rows(), b.Cols())
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < b.Cols(); j++ {
			var s float64
			for k := 0; k < a.Cols(); k++ {
				s += a.At(i, k) * b.At(k, j)
			}
			out.Set(i, j, s)
		}
	}
	return out
}

// TestMatMulBackends checks the gonum and tiled paths against a naive product
func TestMatMulBackends(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := RandNormal[float64](rng, 70, 90, 0, 1)
	b := RandNormal[float64](rng, 90, 130, 0, 1)
	want := naiveMul(a, b)

	if got := Mul(a, b); !EqualApprox(got, want, 1e-9) {
		t.Errorf("float64 MatMul differs from naive product")
	}

	// float32 takes the tiled path; large enough to be split across workers.
	a32 := Zeros[float32](70, 90)
	for i, v := range a.Data() {
		a32.Data()[i] = float32(v)
	}
	b32 := Zeros[float32](90, 130)
	for i, v := range b.Data() {
		b32.Data()[i] = float32(v)
	}
	for _, workers := range []int{1, 4} {
		got := (&CPUBackend[float32]{Workers: workers}).MatMul(a32, b32)
		for i, v := range got.Data() {
			if math.Abs(float64(v)-want.Data()[i]) > 1e-3 {
				t.Fatalf("workers=%d: entry %d = %v, want %v", workers, i, v, want.Data()[i])
			}
		}
	}

	expectShapePanic(t, "MatMul", func() { Mul(a, a) })
}

func TestNoGPUBackend(t *testing.T) {
	b, err := NewGPUBackend()
	if err != nil {
		if !errors.Is(err, ErrNoGPU) {
			t.Fatalf("unexpected error: %v", err)
		}
		t.Skipf("GPU not available: %v", err)
	}
	a := FromRows([][]float32{{1, 2}, {3, 4}})
	got := b.MatMul(a, a)
	if !EqualApprox(got, FromRows([][]float32{{7, 10}, {15, 22}}), 1e-5) {
		t.Errorf("GPU MatMul: got %v", got)
	}
}

func TestRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := RandNormal[float64](rng, 200, 200, 3, 0.5)
	mean := Sum(m).At(0, 0) / float64(m.Len())
	if math.Abs(mean-3) > 0.05 {
		t.Errorf("RandNormal mean %v, want ~3", mean)
	}

	mask := Bernoulli[float32](rng, 100, 100, 0.25)
	kept := Sum(mask).At(0, 0) / float32(mask.Len())
	if math.Abs(float64(kept)-0.25) > 0.03 {
		t.Errorf("Bernoulli rate %v, want ~0.25", kept)
	}
	for _, v := range mask.Data() {
		if v != 0 && v != 1 {
			t.Fatalf("Bernoulli produced %v", v)
		}
	}

	u := RandUniform[float64](rng, 50, 50, -2, 1)
	for _, v := range u.Data() {
		if v < -2 || v >= 1 {
			t.Fatalf("RandUniform produced %v outside [-2, 1)", v)
		}
	}

	again := RandNormal[float64](rand.New(rand.NewSource(7)), 200, 200, 3, 0.5)
	if !Equal(m, again) {
		t.Errorf("same seed produced different samples")
	}
}
