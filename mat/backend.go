package mat

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	gonum "gonum.org/v1/gonum/mat"
)

// Backend performs the heavy matrix kernels. Swapping the backend (CPU, GPU)
// does not change any graph code.
type Backend[T Float] interface {
	// MatMul returns a @ b. a is [M, K], b is [K, N], the result is [M, N].
	MatMul(a, b *Dense[T]) *Dense[T]

	// Name identifies the backend in logs and observer events.
	Name() string
}

// ErrNoGPU is returned when a GPU backend is requested from a build without it.
var ErrNoGPU = errors.New("mat: gpu unavailable (build with -tags=gpu to enable)")

// =============================================================================
// CPUBackend Implementation
// =============================================================================

// parallelThreshold is the M*N*K work size above which MatMul splits rows
// across goroutines.
const parallelThreshold = 1 << 16

// tileSize is the blocking factor of the tiled GEMM.
const tileSize = 64

// CPUBackend runs kernels on the CPU. float64 products go through gonum's
// BLAS-backed Dense.Mul, other types use a tiled loop.
type CPUBackend[T Float] struct {
	// Workers bounds the goroutines used by large products; 0 means GOMAXPROCS.
	Workers int
}

// NewCPUBackend creates a new CPU backend.
func NewCPUBackend[T Float]() *CPUBackend[T] {
	return &CPUBackend[T]{}
}

func (b *CPUBackend[T]) Name() string { return "cpu" }

// MatMul performs matrix multiplication: result = a @ b
func (b *CPUBackend[T]) MatMul(a, other *Dense[T]) *Dense[T] {
	if a.cols != other.rows {
		panic(errors.Wrapf(ErrShape, "MatMul: %dx%d by %dx%d", a.rows, a.cols, other.rows, other.cols))
	}
	out := Zeros[T](a.rows, other.cols)
	if out.Len() == 0 || a.cols == 0 {
		return out
	}

	if af, ok := any(a).(*Dense[float64]); ok {
		bf := any(other).(*Dense[float64])
		of := any(out).(*Dense[float64])
		dst := gonum.NewDense(of.rows, of.cols, of.data)
		dst.Mul(gonum.NewDense(af.rows, af.cols, af.data), gonum.NewDense(bf.rows, bf.cols, bf.data))
		return out
	}

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || a.rows*a.cols*other.cols < parallelThreshold {
		gemmRows(a, other, out, 0, a.rows)
		return out
	}

	chunk := (a.rows + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < a.rows; lo += chunk {
		hi := min(lo+chunk, a.rows)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			gemmRows(a, other, out, lo, hi)
		}(lo, hi)
	}
	wg.Wait()
	return out
}

// gemmRows accumulates rows [lo, hi) of a @ b into out with a tiled loop.
func gemmRows[T Float](a, b, out *Dense[T], lo, hi int) {
	K, N := a.cols, b.cols
	for i0 := lo; i0 < hi; i0 += tileSize {
		for k0 := 0; k0 < K; k0 += tileSize {
			for j0 := 0; j0 < N; j0 += tileSize {
				iMax := min(i0+tileSize, hi)
				kMax := min(k0+tileSize, K)
				jMax := min(j0+tileSize, N)
				for i := i0; i < iMax; i++ {
					rowC := out.data[i*N : (i+1)*N]
					for k := k0; k < kMax; k++ {
						ai := a.data[i*K+k]
						rowB := b.data[k*N : (k+1)*N]
						for j := j0; j < jMax; j++ {
							rowC[j] += ai * rowB[j]
						}
					}
				}
			}
		}
	}
}

// Mul is a convenience for the default CPU backend.
func Mul[T Float](a, b *Dense[T]) *Dense[T] {
	return NewCPUBackend[T]().MatMul(a, b)
}
