package mat

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Float is the set of scalar types a matrix can hold.
// Every matrix and graph node carries its scalar type as a type parameter,
// so combining float32 and float64 operands is rejected by the compiler.
type Float interface {
	~float32 | ~float64
}

// ErrShape is wrapped by every panic raised for incompatible dimensions.
var ErrShape = errors.New("mat: dimension mismatch")

// Dense is a row-major dense matrix.
type Dense[T Float] struct {
	rows, cols int
	data       []T
}

// New creates a rows x cols matrix backed by data. A nil data slice allocates
// a zero matrix; otherwise len(data) must equal rows*cols.
func New[T Float](rows, cols int, data []T) *Dense[T] {
	if rows < 0 || cols < 0 {
		panic(errors.Wrapf(ErrShape, "negative dimensions %dx%d", rows, cols))
	}
	if data == nil {
		data = make([]T, rows*cols)
	} else if len(data) != rows*cols {
		panic(errors.Wrapf(ErrShape, "shape %dx%d needs %d elements, got %d", rows, cols, rows*cols, len(data)))
	}
	return &Dense[T]{rows: rows, cols: cols, data: data}
}

// Zeros returns a rows x cols matrix filled with zeros.
func Zeros[T Float](rows, cols int) *Dense[T] {
	return New[T](rows, cols, nil)
}

// Ones returns a rows x cols matrix filled with ones.
func Ones[T Float](rows, cols int) *Dense[T] {
	return Full[T](rows, cols, 1)
}

// Full returns a rows x cols matrix filled with v.
func Full[T Float](rows, cols int, v T) *Dense[T] {
	m := Zeros[T](rows, cols)
	for i := range m.data {
		m.data[i] = v
	}
	return m
}

// Scalar returns a 1x1 matrix holding v.
func Scalar[T Float](v T) *Dense[T] {
	return New(1, 1, []T{v})
}

// FromRows builds a matrix from a slice of equally sized rows.
func FromRows[T Float](rows [][]T) *Dense[T] {
	if len(rows) == 0 {
		return Zeros[T](0, 0)
	}
	cols := len(rows[0])
	m := Zeros[T](len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			panic(errors.Wrapf(ErrShape, "row %d has %d columns, want %d", i, len(r), cols))
		}
		copy(m.data[i*cols:], r)
	}
	return m
}

// OneHot returns a rows x cols matrix whose column j has a one at row idx[j].
func OneHot[T Float](rows int, idx ...int) *Dense[T] {
	m := Zeros[T](rows, len(idx))
	for j, i := range idx {
		m.Set(i, j, 1)
	}
	return m
}

// ZerosLike returns a zero matrix with the dimensions of m.
func ZerosLike[T Float](m *Dense[T]) *Dense[T] {
	return Zeros[T](m.rows, m.cols)
}

// OnesLike returns a ones matrix with the dimensions of m.
func OnesLike[T Float](m *Dense[T]) *Dense[T] {
	return Ones[T](m.rows, m.cols)
}

func (m *Dense[T]) Dims() (rows, cols int) { return m.rows, m.cols }
func (m *Dense[T]) Rows() int              { return m.rows }
func (m *Dense[T]) Cols() int              { return m.cols }
func (m *Dense[T]) Len() int               { return len(m.data) }

// Data exposes the backing row-major slice.
func (m *Dense[T]) Data() []T { return m.data }

func (m *Dense[T]) At(i, j int) T {
	m.checkIndex(i, j)
	return m.data[i*m.cols+j]
}

func (m *Dense[T]) Set(i, j int, v T) {
	m.checkIndex(i, j)
	m.data[i*m.cols+j] = v
}

func (m *Dense[T]) checkIndex(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(errors.Wrapf(ErrShape, "index (%d,%d) out of range for %dx%d", i, j, m.rows, m.cols))
	}
}

// Clone returns a deep copy of m.
func (m *Dense[T]) Clone() *Dense[T] {
	data := make([]T, len(m.data))
	copy(data, m.data)
	return &Dense[T]{rows: m.rows, cols: m.cols, data: data}
}

// T returns the transpose of m as a new matrix.
func (m *Dense[T]) T() *Dense[T] {
	out := Zeros[T](m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return out
}

// SameShape reports whether a and b have identical dimensions.
func SameShape[T Float](a, b *Dense[T]) bool {
	return a.rows == b.rows && a.cols == b.cols
}

// Equal reports whether a and b have the same shape and bit-identical entries.
func Equal[T Float](a, b *Dense[T]) bool {
	if !SameShape(a, b) {
		return false
	}
	for i, v := range a.data {
		if v != b.data[i] {
			return false
		}
	}
	return true
}

// EqualApprox reports whether a and b have the same shape and every pair of
// entries differs by at most tol, absolutely or relative to the larger magnitude.
func EqualApprox[T Float](a, b *Dense[T], tol float64) bool {
	if !SameShape(a, b) {
		return false
	}
	for i, v := range a.data {
		x, y := float64(v), float64(b.data[i])
		diff := math.Abs(x - y)
		if diff <= tol {
			continue
		}
		if diff <= tol*math.Max(math.Abs(x), math.Abs(y)) {
			continue
		}
		return false
	}
	return true
}

func (m *Dense[T]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dense %dx%d [", m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString("; ")
		}
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%.4g", float64(m.data[i*m.cols+j]))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func mustSameShape[T Float](op string, a, b *Dense[T]) {
	if !SameShape(a, b) {
		panic(errors.Wrapf(ErrShape, "%s: %dx%d vs %dx%d", op, a.rows, a.cols, b.rows, b.cols))
	}
}
