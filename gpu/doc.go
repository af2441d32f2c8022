// Package gpu runs matrix kernels on a WebGPU device.
//
// Every file except this one is built only with -tags=gpu; without the tag the
// package is empty and mat.NewGPUBackend reports mat.ErrNoGPU.
package gpu
