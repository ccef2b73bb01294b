// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package null

import (
	"errors"
	"testing"

	"github.com/gogpu/rhi"
)

const triangleWGSL = `
struct Uniforms {
    mvp: mat4x4<f32>,
    opacity: f32,
}
@group(0) @binding(0) var<uniform> ubuf: Uniforms;

struct VertexOutput {
    @builtin(position) pos: vec4<f32>,
}

@vertex
fn vs_main(@location(0) position: vec4<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.pos = ubuf.mvp * position;
    return out;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, ubuf.opacity);
}
`

type pipelineFixture struct {
	ubuf     rhi.Buffer
	srb      rhi.ShaderResourceBindings
	pipeline rhi.GraphicsPipeline
}

func newTrianglePipeline(t *testing.T, dev *rhi.Device, rp rhi.RenderPassDescriptor, flags rhi.GraphicsPipelineFlags) pipelineFixture {
	t.Helper()
	vs, err := rhi.NewShaderFromWGSLEntryPoint(triangleWGSL, "vs_main")
	if err != nil {
		t.Fatalf("vertex shader: %v", err)
	}
	fs, err := rhi.NewShaderFromWGSLEntryPoint(triangleWGSL, "fs_main")
	if err != nil {
		t.Fatalf("fragment shader: %v", err)
	}

	ubuf := dev.NewBuffer(rhi.Dynamic, rhi.UniformUsage, 1024)
	if err := ubuf.Build(); err != nil {
		t.Fatal(err)
	}
	srb := dev.NewShaderResourceBindings()
	srb.SetBindings([]rhi.ShaderResourceBinding{
		rhi.UniformBufferWithDynamicOffset(0, rhi.VertexVisible|rhi.FragmentVisible, ubuf, 68),
	})
	if err := srb.Build(); err != nil {
		t.Fatal(err)
	}

	p := dev.NewGraphicsPipeline()
	d := p.Desc()
	d.Flags = flags
	d.ShaderStages = []rhi.ShaderStage{{Type: rhi.VertexStage, Shader: vs}, {Type: rhi.FragmentStage, Shader: fs}}
	d.ShaderResourceBindings = srb
	d.RenderPassDescriptor = rp
	if err := rhi.ValidateShaderResources(d.ShaderStages, srb); err != nil {
		t.Fatalf("ValidateShaderResources: %v", err)
	}
	if err := p.Build(); err != nil {
		t.Fatal(err)
	}
	return pipelineFixture{ubuf: ubuf, srb: srb, pipeline: p}
}

func TestRecordingStateErrors(t *testing.T) {
	dev, _, b := newTestDevice(t)
	sc := newSwapChain(t, dev)
	fx := newTrianglePipeline(t, dev, sc.RenderPassDescriptor(), 0)

	if res := dev.BeginFrame(sc, 0); res != rhi.FrameOpSuccess {
		t.Fatalf("BeginFrame = %v", res)
	}
	cb := sc.CurrentFrameCommandBuffer()
	rt := sc.CurrentFrameRenderTarget()

	if err := cb.Draw(3, 1, 0, 0); !errors.Is(err, rhi.ErrNoActivePass) {
		t.Errorf("Draw outside pass = %v, want ErrNoActivePass", err)
	}
	if err := cb.EndPass(nil); !errors.Is(err, rhi.ErrNoActivePass) {
		t.Errorf("EndPass outside pass = %v, want ErrNoActivePass", err)
	}
	if err := cb.BeginPass(rt, rhi.Color{}, rhi.DefaultDepthStencilClear, nil); err != nil {
		t.Fatalf("BeginPass: %v", err)
	}
	if cb.CurrentRenderTarget() != rt {
		t.Error("CurrentRenderTarget() does not return the pass target")
	}
	if err := cb.BeginPass(rt, rhi.Color{}, rhi.DefaultDepthStencilClear, nil); !errors.Is(err, rhi.ErrPassActive) {
		t.Errorf("nested BeginPass = %v, want ErrPassActive", err)
	}
	if err := cb.ResourceUpdate(dev.NextResourceUpdateBatch()); !errors.Is(err, rhi.ErrPassActive) {
		t.Errorf("ResourceUpdate in pass = %v, want ErrPassActive", err)
	}
	if err := cb.Dispatch(1, 1, 1); !errors.Is(err, rhi.ErrWrongPassKind) {
		t.Errorf("Dispatch in render pass = %v, want ErrWrongPassKind", err)
	}
	if err := cb.Draw(3, 1, 0, 0); !errors.Is(err, rhi.ErrNoPipeline) {
		t.Errorf("Draw without pipeline = %v, want ErrNoPipeline", err)
	}
	if err := cb.SetGraphicsPipeline(fx.pipeline); err != nil {
		t.Fatalf("SetGraphicsPipeline: %v", err)
	}
	if err := cb.SetScissor(rhi.Scissor{Width: 10, Height: 10}); err == nil {
		t.Error("SetScissor on pipeline without UsesScissor succeeded")
	}
	if err := cb.Draw(3, 1, 0, 0); err != nil {
		t.Errorf("Draw: %v", err)
	}
	if err := cb.EndPass(nil); err != nil {
		t.Fatalf("EndPass: %v", err)
	}

	if err := cb.BeginComputePass(nil); err != nil {
		t.Fatalf("BeginComputePass: %v", err)
	}
	if err := cb.Draw(3, 1, 0, 0); !errors.Is(err, rhi.ErrWrongPassKind) {
		t.Errorf("Draw in compute pass = %v, want ErrWrongPassKind", err)
	}
	if err := cb.Dispatch(1, 1, 1); !errors.Is(err, rhi.ErrNoPipeline) {
		t.Errorf("Dispatch without pipeline = %v, want ErrNoPipeline", err)
	}
	if err := cb.EndComputePass(nil); err != nil {
		t.Fatalf("EndComputePass: %v", err)
	}
	if res := dev.EndFrame(sc, 0); res != rhi.FrameOpSuccess {
		t.Fatalf("EndFrame = %v", res)
	}

	if err := cb.BeginPass(rt, rhi.Color{}, rhi.DefaultDepthStencilClear, nil); !errors.Is(err, rhi.ErrNotRecording) {
		t.Errorf("BeginPass after frame = %v, want ErrNotRecording", err)
	}

	c := b.Counters()
	if c.RenderPasses != 1 || c.ComputePasses != 1 || c.Draws != 1 || c.Dispatches != 0 {
		t.Errorf("Counters() = %+v", c)
	}
}

func TestEndFrameWithOpenPass(t *testing.T) {
	dev, _, _ := newTestDevice(t)
	sc := newSwapChain(t, dev)

	dev.BeginFrame(sc, 0)
	cb := sc.CurrentFrameCommandBuffer()
	if err := cb.BeginPass(sc.CurrentFrameRenderTarget(), rhi.Color{}, rhi.DefaultDepthStencilClear, nil); err != nil {
		t.Fatal(err)
	}
	if res := dev.EndFrame(sc, 0); res != rhi.FrameOpError {
		t.Errorf("EndFrame with open pass = %v, want Error", res)
	}
	if err := cb.EndPass(nil); err != nil {
		t.Fatal(err)
	}
	if res := dev.EndFrame(sc, 0); res != rhi.FrameOpSuccess {
		t.Errorf("EndFrame = %v", res)
	}
}

func TestSwapChainTargetOutsideItsFrame(t *testing.T) {
	dev, _, _ := newTestDevice(t)
	sc := newSwapChain(t, dev)

	cb, _ := dev.BeginOffscreenFrame()
	defer dev.EndOffscreenFrame()
	err := cb.BeginPass(sc.(*swapChain).SwapChainRenderTarget(), rhi.Color{}, rhi.DefaultDepthStencilClear, nil)
	if err == nil {
		t.Error("BeginPass on a swap chain target in an offscreen frame succeeded")
	}
}

func TestDynamicOffsets(t *testing.T) {
	dev, _, _ := newTestDevice(t)
	sc := newSwapChain(t, dev)
	fx := newTrianglePipeline(t, dev, sc.RenderPassDescriptor(), rhi.UsesScissor)

	other := dev.NewShaderResourceBindings()
	other.SetBindings([]rhi.ShaderResourceBinding{
		rhi.UniformBuffer(0, rhi.VertexVisible|rhi.FragmentVisible, fx.ubuf, 0, 68),
	})
	if err := other.Build(); err != nil {
		t.Fatal(err)
	}
	// The null backend builds bindings that fail Validate.
	noBuffer := dev.NewShaderResourceBindings()
	noBuffer.SetBindings([]rhi.ShaderResourceBinding{
		rhi.UniformBufferWithDynamicOffset(0, rhi.VertexVisible|rhi.FragmentVisible, nil, 68),
	})
	if err := noBuffer.Build(); err != nil {
		t.Fatal(err)
	}

	dev.BeginFrame(sc, 0)
	defer dev.EndFrame(sc, 0)
	cb := sc.CurrentFrameCommandBuffer()
	if err := cb.BeginPass(sc.CurrentFrameRenderTarget(), rhi.Color{}, rhi.DefaultDepthStencilClear, nil); err != nil {
		t.Fatal(err)
	}
	defer cb.EndPass(nil)
	if err := cb.SetGraphicsPipeline(fx.pipeline); err != nil {
		t.Fatal(err)
	}
	if err := cb.SetScissor(rhi.Scissor{Width: 10, Height: 10}); err != nil {
		t.Errorf("SetScissor: %v", err)
	}

	tests := []struct {
		name    string
		srb     rhi.ShaderResourceBindings
		offsets []rhi.DynamicOffset
		wantErr error
	}{
		{"aligned", nil, []rhi.DynamicOffset{{Binding: 0, Offset: 256}}, nil},
		{"last slot", fx.srb, []rhi.DynamicOffset{{Binding: 0, Offset: 768}}, nil},
		{"misaligned", nil, []rhi.DynamicOffset{{Binding: 0, Offset: 100}}, rhi.ErrInvalidDynamicOffset},
		{"past end", nil, []rhi.DynamicOffset{{Binding: 0, Offset: 1024}}, rhi.ErrInvalidDynamicOffset},
		{"unknown binding", nil, []rhi.DynamicOffset{{Binding: 3, Offset: 0}}, rhi.ErrInvalidDynamicOffset},
		{"layout mismatch", other, nil, rhi.ErrBindingMismatch},
		{"nil buffer", noBuffer, []rhi.DynamicOffset{{Binding: 0, Offset: 0}}, rhi.ErrNilResource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cb.SetShaderResources(tt.srb, tt.offsets...)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("SetShaderResources: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetShaderResources = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestComputeDispatch(t *testing.T) {
	dev, _, b := newTestDevice(t)

	cs, err := rhi.NewShaderFromWGSL(rhi.ComputeStage, `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = id.x;
}
`)
	if err != nil {
		t.Fatal(err)
	}
	sbuf := dev.NewBuffer(rhi.Static, rhi.StorageUsage, 256)
	if err := sbuf.Build(); err != nil {
		t.Fatal(err)
	}
	srb := dev.NewShaderResourceBindings()
	srb.SetBindings([]rhi.ShaderResourceBinding{rhi.BufferLoadStore(0, rhi.ComputeVisible, sbuf, 0, 0)})
	if err := srb.Build(); err != nil {
		t.Fatal(err)
	}
	cp := dev.NewComputePipeline()
	cp.Desc().ShaderStage = rhi.ShaderStage{Type: rhi.ComputeStage, Shader: cs}
	cp.Desc().ShaderResourceBindings = srb
	if err := cp.Build(); err != nil {
		t.Fatal(err)
	}

	cb, _ := dev.BeginOffscreenFrame()
	if err := cb.BeginComputePass(nil); err != nil {
		t.Fatal(err)
	}
	if err := cb.SetComputePipeline(cp); err != nil {
		t.Fatal(err)
	}
	for range 4 {
		if err := cb.Dispatch(1, 1, 1); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}
	if err := cb.EndComputePass(nil); err != nil {
		t.Fatal(err)
	}
	if res := dev.EndOffscreenFrame(); res != rhi.FrameOpSuccess {
		t.Fatalf("EndOffscreenFrame = %v", res)
	}
	if got := b.Counters().Dispatches; got != 4 {
		t.Errorf("Dispatches = %d, want 4", got)
	}
}

func TestDebugMarkers(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    int
	}{
		{"disabled", false, 0},
		{"enabled", true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, _, b := newTestDevice(t, rhi.WithDebugMarkers(tt.enabled))
			cb, _ := dev.BeginOffscreenFrame()
			cb.DebugMarkBegin("group")
			cb.DebugMarkMsg("message")
			cb.DebugMarkEnd()
			cb.DebugMarkEnd()
			dev.EndOffscreenFrame()
			if got := b.Counters().DebugMarkers; got != tt.want {
				t.Errorf("DebugMarkers = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBatchPool(t *testing.T) {
	dev, _, _ := newTestDevice(t)

	free := dev.FreeResourceUpdateBatches()
	a := dev.NextResourceUpdateBatch()
	if got := dev.FreeResourceUpdateBatches(); got != free-1 {
		t.Errorf("FreeResourceUpdateBatches() = %d, want %d", got, free-1)
	}
	a.Release()
	a.Release()
	if got := dev.FreeResourceUpdateBatches(); got != free {
		t.Errorf("FreeResourceUpdateBatches() = %d after double release, want %d", got, free)
	}

	buf := dev.NewBuffer(rhi.Dynamic, rhi.UniformUsage, 8)
	if err := buf.Build(); err != nil {
		t.Fatal(err)
	}
	first := dev.NextResourceUpdateBatch()
	second := dev.NextResourceUpdateBatch()
	first.UpdateDynamicBuffer(buf, 0, []byte{1, 1})
	second.UpdateDynamicBuffer(buf, 1, []byte{2, 2})
	first.Merge(second)
	second.Release()

	cb, _ := dev.BeginOffscreenFrame()
	if err := cb.ResourceUpdate(first); err != nil {
		t.Fatal(err)
	}
	dev.EndOffscreenFrame()

	if got := buf.(*Buffer).Data()[:3]; got[0] != 1 || got[1] != 2 || got[2] != 2 {
		t.Errorf("Data()[:3] = %v, merged ops applied out of order", got)
	}
	if got := dev.FreeResourceUpdateBatches(); got != free {
		t.Errorf("FreeResourceUpdateBatches() = %d after submit, want %d", got, free)
	}
}
