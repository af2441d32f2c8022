//go:build gpu

package mat

import (
	"github.com/openfluke/lazy/gpu"
	"github.com/pkg/errors"
)

// GPUBackend runs float32 matrix products through a WebGPU compute kernel.
type GPUBackend struct {
	name string
}

// NewGPUBackend initialises the device and returns a float32 backend.
func NewGPUBackend() (Backend[float32], error) {
	c, err := gpu.GetContext()
	if err != nil {
		return nil, errors.Wrap(ErrNoGPU, err.Error())
	}
	return &GPUBackend{name: "gpu:" + c.AdapterName()}, nil
}

func (b *GPUBackend) Name() string { return b.name }

// MatMul performs matrix multiplication on the device. Device failures panic
// like shape errors do, since the graph treats kernel failures as fatal.
func (b *GPUBackend) MatMul(a, other *Dense[float32]) *Dense[float32] {
	if a.cols != other.rows {
		panic(errors.Wrapf(ErrShape, "MatMul: %dx%d by %dx%d", a.rows, a.cols, other.rows, other.cols))
	}
	if a.rows == 0 || other.cols == 0 || a.cols == 0 {
		return Zeros[float32](a.rows, other.cols)
	}
	data, err := gpu.MatMul(a.data, other.data, a.rows, a.cols, other.cols)
	if err != nil {
		panic(errors.Wrap(err, "mat: gpu MatMul"))
	}
	return New(a.rows, other.cols, data)
}
