package mat

import "github.com/pkg/errors"

// =============================================================================
// Elementwise kernels
// =============================================================================

// Apply returns f applied to every entry of m.
func Apply[T Float](m *Dense[T], f func(T) T) *Dense[T] {
	out := ZerosLike(m)
	for i, v := range m.data {
		out.data[i] = f(v)
	}
	return out
}

// Apply2 returns f applied pairwise to the entries of a and b.
func Apply2[T Float](a, b *Dense[T], f func(x, y T) T) *Dense[T] {
	mustSameShape("Apply2", a, b)
	out := ZerosLike(a)
	for i, v := range a.data {
		out.data[i] = f(v, b.data[i])
	}
	return out
}

// Add returns a + b.
func Add[T Float](a, b *Dense[T]) *Dense[T] {
	mustSameShape("Add", a, b)
	out := ZerosLike(a)
	for i, v := range a.data {
		out.data[i] = v + b.data[i]
	}
	return out
}

// AddInPlace accumulates b into a and returns a.
func AddInPlace[T Float](a, b *Dense[T]) *Dense[T] {
	mustSameShape("AddInPlace", a, b)
	for i, v := range b.data {
		a.data[i] += v
	}
	return a
}

// Sub returns a - b.
func Sub[T Float](a, b *Dense[T]) *Dense[T] {
	mustSameShape("Sub", a, b)
	out := ZerosLike(a)
	for i, v := range a.data {
		out.data[i] = v - b.data[i]
	}
	return out
}

// MulElem returns the Hadamard product a ⊙ b.
func MulElem[T Float](a, b *Dense[T]) *Dense[T] {
	mustSameShape("MulElem", a, b)
	out := ZerosLike(a)
	for i, v := range a.data {
		out.data[i] = v * b.data[i]
	}
	return out
}

// DivElem returns a / b entrywise.
func DivElem[T Float](a, b *Dense[T]) *Dense[T] {
	mustSameShape("DivElem", a, b)
	out := ZerosLike(a)
	for i, v := range a.data {
		out.data[i] = v / b.data[i]
	}
	return out
}

// Scale returns m * s.
func Scale[T Float](m *Dense[T], s T) *Dense[T] {
	out := ZerosLike(m)
	for i, v := range m.data {
		out.data[i] = v * s
	}
	return out
}

// AddScalar returns m + s.
func AddScalar[T Float](m *Dense[T], s T) *Dense[T] {
	out := ZerosLike(m)
	for i, v := range m.data {
		out.data[i] = v + s
	}
	return out
}

// =============================================================================
// Broadcasting
// =============================================================================

// AddColVec adds the column vector v (rows x 1) to every column of m.
func AddColVec[T Float](m, v *Dense[T]) *Dense[T] {
	if v.rows != m.rows || v.cols != 1 {
		panic(errors.Wrapf(ErrShape, "AddColVec: %dx%d with vector %dx%d", m.rows, m.cols, v.rows, v.cols))
	}
	out := ZerosLike(m)
	for i := 0; i < m.rows; i++ {
		b := v.data[i]
		row := m.data[i*m.cols : (i+1)*m.cols]
		dst := out.data[i*m.cols : (i+1)*m.cols]
		for j, x := range row {
			dst[j] = x + b
		}
	}
	return out
}

// AddRowVec adds the row vector v (1 x cols) to every row of m.
func AddRowVec[T Float](m, v *Dense[T]) *Dense[T] {
	if v.cols != m.cols || v.rows != 1 {
		panic(errors.Wrapf(ErrShape, "AddRowVec: %dx%d with vector %dx%d", m.rows, m.cols, v.rows, v.cols))
	}
	out := ZerosLike(m)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		dst := out.data[i*m.cols : (i+1)*m.cols]
		for j, x := range row {
			dst[j] = x + v.data[j]
		}
	}
	return out
}
