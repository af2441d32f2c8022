//go:build !gpu

package mat

// NewGPUBackend reports ErrNoGPU in builds without -tags=gpu.
func NewGPUBackend() (Backend[float32], error) {
	return nil, ErrNoGPU
}
