//go:build gpu

package gpu

import (
	"fmt"
	"log"
	"sync"

	"github.com/openfluke/webgpu/wgpu"
)

// Context holds the process-wide WebGPU device used by every kernel.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue

	once    sync.Once
	initErr error

	// kernels compiled so far, keyed by their generated WGSL source
	mu        sync.Mutex
	pipelines map[string]*wgpu.ComputePipeline
}

var ctx Context

// GetContext returns the singleton GPU context, initializing it on first use.
func GetContext() (*Context, error) {
	ctx.once.Do(func() { ctx.initErr = ctx.init() })
	if ctx.initErr != nil {
		return nil, ctx.initErr
	}
	if ctx.Device == nil || ctx.Queue == nil {
		return nil, fmt.Errorf("gpu: device or queue not initialized")
	}
	return &ctx, nil
}

func (c *Context) init() error {
	c.Instance = wgpu.CreateInstance(nil)
	if c.Instance == nil {
		return fmt.Errorf("gpu: failed to create WebGPU instance")
	}

	// High performance first, then low power, then whatever the driver offers.
	var err error
	for _, opts := range []*wgpu.RequestAdapterOptions{
		{PowerPreference: wgpu.PowerPreferenceHighPerformance},
		{PowerPreference: wgpu.PowerPreferenceLowPower},
		nil,
	} {
		c.Adapter, err = c.Instance.RequestAdapter(opts)
		if err == nil && c.Adapter != nil {
			break
		}
		log.Printf("gpu: adapter request failed: %v, falling back", err)
	}
	if c.Adapter == nil {
		return fmt.Errorf("gpu: all adapter attempts failed: %v", err)
	}

	c.Device, err = c.Adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("gpu: request device: %w", err)
	}
	c.Queue = c.Device.GetQueue()
	c.pipelines = make(map[string]*wgpu.ComputePipeline)
	return nil
}

// AdapterName reports the adapter in use, for logs.
func (c *Context) AdapterName() string {
	info := c.Adapter.GetInfo()
	return fmt.Sprintf("%s (%s)", info.Name, info.VendorName)
}

// pipeline compiles shader once and caches the resulting compute pipeline.
func (c *Context) pipeline(label, shader string) (*wgpu.ComputePipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pipelines[shader]; ok {
		return p, nil
	}

	module, err := c.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + "_Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shader},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: compile %s: %w", label, err)
	}
	p, err := c.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   label + "_Pipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: pipeline %s: %w", label, err)
	}
	c.pipelines[shader] = p
	return p, nil
}
