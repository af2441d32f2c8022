//go:build gpu

package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// matmulTile is the edge of the square workgroup used by the GEMM kernel.
const matmulTile = 16

// matmulShader generates C[M,N] = A[M,K] @ B[K,N] for row-major buffers, with
// the dimensions baked in as constants.
func matmulShader(m, k, n int) string {
	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> a : array<f32>;
		@group(0) @binding(1) var<storage, read> b : array<f32>;
		@group(0) @binding(2) var<storage, read_write> c : array<f32>;

		const M: u32 = %du;
		const K: u32 = %du;
		const N: u32 = %du;
		const TILE: u32 = %du;

		var<workgroup> tileA: array<f32, %d>;
		var<workgroup> tileB: array<f32, %d>;

		@compute @workgroup_size(%d, %d)
		fn main(
			@builtin(global_invocation_id) gid: vec3<u32>,
			@builtin(local_invocation_id) lid: vec3<u32>
		) {
			let row = gid.y;
			let col = gid.x;
			var acc: f32 = 0.0;

			let tiles = (K + TILE - 1u) / TILE;
			for (var t: u32 = 0u; t < tiles; t++) {
				let ak = t * TILE + lid.x;
				let bk = t * TILE + lid.y;
				if (row < M && ak < K) {
					tileA[lid.y * TILE + lid.x] = a[row * K + ak];
				} else {
					tileA[lid.y * TILE + lid.x] = 0.0;
				}
				if (col < N && bk < K) {
					tileB[lid.y * TILE + lid.x] = b[bk * N + col];
				} else {
					tileB[lid.y * TILE + lid.x] = 0.0;
				}
				workgroupBarrier();

				for (var i: u32 = 0u; i < TILE; i++) {
					acc += tileA[lid.y * TILE + i] * tileB[i * TILE + lid.x];
				}
				workgroupBarrier();
			}

			if (row < M && col < N) {
				c[row * N + col] = acc;
			}
		}
	`, m, k, n, matmulTile, matmulTile*matmulTile, matmulTile*matmulTile, matmulTile, matmulTile)
}

// MatMul multiplies the row-major matrices a [m,k] and b [k,n] on the device.
func MatMul(a, b []float32, m, k, n int) ([]float32, error) {
	if len(a) != m*k || len(b) != k*n {
		return nil, fmt.Errorf("gpu: MatMul buffers %d and %d do not match %dx%d @ %dx%d", len(a), len(b), m, k, k, n)
	}
	c, err := GetContext()
	if err != nil {
		return nil, err
	}

	pipeline, err := c.pipeline("MatMul", matmulShader(m, k, n))
	if err != nil {
		return nil, err
	}

	storage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	bufA, err := c.NewFloatBuffer("MatMul_A", a, storage)
	if err != nil {
		return nil, err
	}
	defer bufA.Destroy()
	bufB, err := c.NewFloatBuffer("MatMul_B", b, storage)
	if err != nil {
		return nil, err
	}
	defer bufB.Destroy()
	bufC, err := c.NewEmptyBuffer("MatMul_C", m*n, storage)
	if err != nil {
		return nil, err
	}
	defer bufC.Destroy()

	bindGroup, err := c.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "MatMul_Bind",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: bufA, Size: bufA.GetSize()},
			{Binding: 1, Buffer: bufB, Size: bufB.GetSize()},
			{Binding: 2, Buffer: bufC, Size: bufC.GetSize()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: bind group: %w", err)
	}
	defer bindGroup.Release()

	enc, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(uint32((n+matmulTile-1)/matmulTile), uint32((m+matmulTile-1)/matmulTile), 1)
	pass.End()
	cmd, err := enc.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: finish command: %w", err)
	}
	c.Queue.Submit(cmd)

	return c.ReadBuffer(bufC, m*n)
}
