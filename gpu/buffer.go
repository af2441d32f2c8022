//go:build gpu

package gpu

import (
	"fmt"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

// readTimeout bounds how long ReadBuffer polls the device for a mapped buffer.
const readTimeout = 2 * time.Second

// NewFloatBuffer creates a storage buffer initialised with data.
func (c *Context) NewFloatBuffer(label string, data []float32, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := c.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: wgpu.ToBytes(data),
		Usage:    usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create buffer %s: %w", label, err)
	}
	return buf, nil
}

// NewEmptyBuffer creates a zeroed storage buffer holding n float32 values.
func (c *Context) NewEmptyBuffer(label string, n int, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(n * 4),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create buffer %s: %w", label, err)
	}
	return buf, nil
}

// ReadBuffer copies n float32 values out of buffer through a staging buffer.
func (c *Context) ReadBuffer(buffer *wgpu.Buffer, n int) ([]float32, error) {
	sizeBytes := uint64(n * 4)
	staging, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ReadStaging",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer staging.Destroy()

	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(buffer, 0, staging, 0, sizeBytes)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: finish command: %w", err)
	}
	c.Queue.Submit(cmd)

	done := make(chan struct{})
	var mapErr error
	err = staging.MapAsync(wgpu.MapModeRead, 0, sizeBytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("gpu: map failed: %v", status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: MapAsync: %w", err)
	}

	timeout := time.After(readTimeout)
Loop:
	for {
		c.Device.Poll(false, nil)
		select {
		case <-done:
			break Loop
		case <-timeout:
			return nil, fmt.Errorf("gpu: ReadBuffer timed out after %s", readTimeout)
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if mapErr != nil {
		return nil, mapErr
	}

	data := staging.GetMappedRange(0, uint(sizeBytes))
	if data == nil {
		return nil, fmt.Errorf("gpu: failed to get mapped range")
	}
	out := make([]float32, n)
	copy(out, wgpu.FromBytes[float32](data))
	staging.Unmap()
	return out, nil
}
