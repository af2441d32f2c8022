package mat

import "github.com/pkg/errors"

// RowSums returns the rows x 1 column holding the sum of each row.
func RowSums[T Float](m *Dense[T]) *Dense[T] {
	out := Zeros[T](m.rows, 1)
	for i := 0; i < m.rows; i++ {
		var s T
		for _, v := range m.data[i*m.cols : (i+1)*m.cols] {
			s += v
		}
		out.data[i] = s
	}
	return out
}

// ColSums returns the 1 x cols row holding the sum of each column.
func ColSums[T Float](m *Dense[T]) *Dense[T] {
	out := Zeros[T](1, m.cols)
	for i := 0; i < m.rows; i++ {
		for j, v := range m.data[i*m.cols : (i+1)*m.cols] {
			out.data[j] += v
		}
	}
	return out
}

// Sum returns the 1x1 sum of all entries.
func Sum[T Float](m *Dense[T]) *Dense[T] {
	var s T
	for _, v := range m.data {
		s += v
	}
	return Scalar(s)
}

// RowMax returns the rows x 1 column holding the maximum of each row.
func RowMax[T Float](m *Dense[T]) *Dense[T] {
	if m.cols == 0 {
		panic(errors.Wrap(ErrShape, "RowMax: matrix has no columns"))
	}
	out := Zeros[T](m.rows, 1)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		mx := row[0]
		for _, v := range row[1:] {
			if v > mx {
				mx = v
			}
		}
		out.data[i] = mx
	}
	return out
}

// ColMax returns the 1 x cols row holding the maximum of each column.
func ColMax[T Float](m *Dense[T]) *Dense[T] {
	if m.rows == 0 {
		panic(errors.Wrap(ErrShape, "ColMax: matrix has no rows"))
	}
	out := New(1, m.cols, append([]T(nil), m.data[:m.cols]...))
	for i := 1; i < m.rows; i++ {
		for j, v := range m.data[i*m.cols : (i+1)*m.cols] {
			if v > out.data[j] {
				out.data[j] = v
			}
		}
	}
	return out
}

// ArgMaxRows returns, for every row, the column index of its maximum.
// Ties resolve to the lowest index.
func ArgMaxRows[T Float](m *Dense[T]) []int {
	idx := make([]int, m.rows)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		best := 0
		for j, v := range row {
			if v > row[best] {
				best = j
			}
		}
		idx[i] = best
	}
	return idx
}

// ArgMaxCols returns, for every column, the row index of its maximum.
// Ties resolve to the lowest index.
func ArgMaxCols[T Float](m *Dense[T]) []int {
	idx := make([]int, m.cols)
	for j := 0; j < m.cols; j++ {
		best := 0
		for i := 1; i < m.rows; i++ {
			if m.data[i*m.cols+j] > m.data[best*m.cols+j] {
				best = i
			}
		}
		idx[j] = best
	}
	return idx
}
