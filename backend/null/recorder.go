// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package null

import (
	"github.com/gogpu/rhi"
)

// recorder applies buffer updates to host copies, synthesizes readbacks
// and counts everything else.
type recorder struct {
	b  *Backend
	sc rhi.SwapChain
}

var _ rhi.Recorder = (*recorder)(nil)

func (r *recorder) ApplyUpdates(batch *rhi.ResourceUpdateBatch) error {
	r.b.counters.Updates++
	for _, op := range batch.BufferOps() {
		if buf, ok := op.Buffer.(*Buffer); ok && buf.data != nil {
			copy(buf.data[op.Offset:], op.Data)
		}
	}
	for _, op := range batch.TextureOps() {
		if op.Kind == rhi.TextureReadback {
			r.readback(op.Readback, op.Result)
		}
	}
	return nil
}

func (r *recorder) readback(desc rhi.ReadbackDescription, result *rhi.ReadbackResult) {
	if desc.Texture != nil {
		result.Format = desc.Texture.Format()
		result.PixelSize = rhi.SizeForMipLevel(desc.Level, desc.Texture.PixelSize())
	} else {
		result.Format = rhi.RGBA8
		result.PixelSize = r.sc.CurrentPixelSize()
	}
	result.Data = make([]byte, result.Format.ByteSize(result.PixelSize))
	if result.Completed != nil {
		result.Completed()
	}
}

func (r *recorder) BeginPass(rhi.RenderTarget, rhi.Color, rhi.DepthStencilClearValue) error {
	r.b.counters.RenderPasses++
	return nil
}

func (r *recorder) EndPass() {}

func (r *recorder) BeginComputePass() error {
	r.b.counters.ComputePasses++
	return nil
}

func (r *recorder) EndComputePass() {}

func (r *recorder) SetGraphicsPipeline(rhi.GraphicsPipeline) {}

func (r *recorder) SetComputePipeline(rhi.ComputePipeline) {}

func (r *recorder) SetShaderResources(rhi.ShaderResourceBindings, []rhi.DynamicOffset) {}

func (r *recorder) SetVertexInput(int, []rhi.VertexInput, rhi.Buffer, uint32, rhi.IndexFormat) {}

func (r *recorder) SetViewport(rhi.Viewport) {}

func (r *recorder) SetScissor(rhi.Scissor) {}

func (r *recorder) SetBlendConstants(rhi.Color) {}

func (r *recorder) SetStencilRef(uint32) {}

func (r *recorder) Draw(_, _, _, _ uint32) { r.b.counters.Draws++ }

func (r *recorder) DrawIndexed(_, _, _ uint32, _ int32, _ uint32) { r.b.counters.Draws++ }

func (r *recorder) Dispatch(_, _, _ uint32) { r.b.counters.Dispatches++ }

func (r *recorder) DebugMarkBegin(name string) {
	r.b.counters.DebugMarkers++
	rhi.Logger().Debug("null: debug group", "name", name)
}

func (r *recorder) DebugMarkEnd() {}

func (r *recorder) DebugMarkMsg(msg string) {
	r.b.counters.DebugMarkers++
	rhi.Logger().Debug("null: debug message", "msg", msg)
}
