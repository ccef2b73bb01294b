// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"fmt"
)

// Recorder is the backend side of a CommandBuffer. CommandBuffer validates
// every call before forwarding it, so implementations may assume valid
// arguments and a correct call sequence.
type Recorder interface {
	// ApplyUpdates executes the operations of b. Called outside passes.
	ApplyUpdates(b *ResourceUpdateBatch) error

	BeginPass(rt RenderTarget, clear Color, ds DepthStencilClearValue) error
	EndPass()
	BeginComputePass() error
	EndComputePass()

	SetGraphicsPipeline(p GraphicsPipeline)
	SetComputePipeline(p ComputePipeline)
	SetShaderResources(srb ShaderResourceBindings, offsets []DynamicOffset)
	SetVertexInput(startBinding int, bindings []VertexInput, index Buffer, indexOffset uint32, indexFormat IndexFormat)
	SetViewport(v Viewport)
	SetScissor(s Scissor)
	SetBlendConstants(c Color)
	SetStencilRef(ref uint32)

	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	Dispatch(x, y, z uint32)

	DebugMarkBegin(name string)
	DebugMarkEnd()
	DebugMarkMsg(msg string)
}

type cbState int

const (
	cbIdle cbState = iota
	cbRecording
	cbRenderPass
	cbComputePass
)

func (s cbState) String() string {
	switch s {
	case cbIdle:
		return "idle"
	case cbRecording:
		return "recording"
	case cbRenderPass:
		return "render pass"
	case cbComputePass:
		return "compute pass"
	}
	return fmt.Sprintf("cbState(%d)", int(s))
}

// CommandBuffer records the commands of one frame. It is obtained from
// Device.BeginFrame or Device.BeginOffscreenFrame and is only valid until
// the matching end call.
//
// Every call is checked against the recording state: render commands are
// only accepted inside BeginPass/EndPass, Dispatch only inside a compute
// pass, and resource updates only between passes. Violations return an
// error and record nothing.
//
// Batches passed to ResourceUpdate, BeginPass, EndPass, BeginComputePass
// and EndComputePass are released back to the device once applied.
type CommandBuffer struct {
	dev       *Device
	rec       Recorder
	state     cbState
	swapchain SwapChain

	rt         RenderTarget
	graphics   GraphicsPipeline
	compute    ComputePipeline
	srbBound   bool
	debugDepth int
}

func newCommandBuffer(d *Device, rec Recorder, sc SwapChain) *CommandBuffer {
	return &CommandBuffer{dev: d, rec: rec, state: cbRecording, swapchain: sc}
}

// IsRecording reports whether the command buffer accepts commands.
func (cb *CommandBuffer) IsRecording() bool { return cb != nil && cb.state != cbIdle }

// InPass reports whether a render or compute pass is open.
func (cb *CommandBuffer) InPass() bool {
	return cb != nil && (cb.state == cbRenderPass || cb.state == cbComputePass)
}

// CurrentRenderTarget returns the target of the open render pass or nil.
func (cb *CommandBuffer) CurrentRenderTarget() RenderTarget {
	if cb.state != cbRenderPass {
		return nil
	}
	return cb.rt
}

func (cb *CommandBuffer) finish() {
	cb.state = cbIdle
	cb.rt, cb.graphics, cb.compute = nil, nil, nil
}

func (cb *CommandBuffer) require(states ...cbState) error {
	if cb.state == cbIdle {
		return ErrNotRecording
	}
	for _, s := range states {
		if cb.state == s {
			return nil
		}
	}
	switch {
	case states[0] == cbRecording:
		return ErrPassActive
	case cb.state == cbRecording:
		return ErrNoActivePass
	default:
		return fmt.Errorf("%w: in %s", ErrWrongPassKind, cb.state)
	}
}

func (cb *CommandBuffer) apply(b *ResourceUpdateBatch) error {
	if b == nil {
		return nil
	}
	defer b.Release()
	if !b.HasOps() {
		return nil
	}
	if err := b.validate(cb.dev, cb.swapchain != nil); err != nil {
		return err
	}
	return cb.rec.ApplyUpdates(b)
}

// ResourceUpdate applies updates outside of any pass.
func (cb *CommandBuffer) ResourceUpdate(updates *ResourceUpdateBatch) error {
	if err := cb.require(cbRecording); err != nil {
		if updates != nil {
			updates.Release()
		}
		return err
	}
	return cb.apply(updates)
}

// BeginPass applies updates, then opens a render pass on rt clearing color
// and depth-stencil attachments unless rt preserves them.
func (cb *CommandBuffer) BeginPass(rt RenderTarget, clear Color, ds DepthStencilClearValue, updates *ResourceUpdateBatch) error {
	if err := cb.require(cbRecording); err != nil {
		if updates != nil {
			updates.Release()
		}
		return err
	}
	if err := cb.checkTarget(rt); err != nil {
		if updates != nil {
			updates.Release()
		}
		return err
	}
	if err := cb.apply(updates); err != nil {
		return err
	}
	if err := cb.rec.BeginPass(rt, clear, ds); err != nil {
		return err
	}
	cb.state = cbRenderPass
	cb.rt = rt
	cb.graphics, cb.srbBound = nil, false
	return nil
}

func (cb *CommandBuffer) checkTarget(rt RenderTarget) error {
	if rt == nil {
		return ErrNilResource
	}
	if sct, ok := rt.(*SwapChainRenderTarget); ok {
		if cb.swapchain == nil || sct.SwapChain() != cb.swapchain {
			return fmt.Errorf("rhi: render target of a swap chain not being recorded")
		}
		return nil
	}
	return checkUsable(cb.dev, rt)
}

// EndPass closes the render pass and applies updates.
func (cb *CommandBuffer) EndPass(updates *ResourceUpdateBatch) error {
	if err := cb.require(cbRenderPass); err != nil {
		if updates != nil {
			updates.Release()
		}
		return err
	}
	cb.rec.EndPass()
	cb.state = cbRecording
	cb.rt, cb.graphics = nil, nil
	return cb.apply(updates)
}

// BeginComputePass applies updates and opens a compute pass.
func (cb *CommandBuffer) BeginComputePass(updates *ResourceUpdateBatch) error {
	if err := cb.require(cbRecording); err != nil {
		if updates != nil {
			updates.Release()
		}
		return err
	}
	if !cb.dev.IsFeatureSupported(FeatureCompute) {
		if updates != nil {
			updates.Release()
		}
		return fmt.Errorf("rhi: compute is not supported by backend %s", cb.dev.BackendName())
	}
	if err := cb.apply(updates); err != nil {
		return err
	}
	if err := cb.rec.BeginComputePass(); err != nil {
		return err
	}
	cb.state = cbComputePass
	cb.compute, cb.srbBound = nil, false
	return nil
}

// EndComputePass closes the compute pass and applies updates.
func (cb *CommandBuffer) EndComputePass(updates *ResourceUpdateBatch) error {
	if err := cb.require(cbComputePass); err != nil {
		if updates != nil {
			updates.Release()
		}
		return err
	}
	cb.rec.EndComputePass()
	cb.state = cbRecording
	cb.compute = nil
	return cb.apply(updates)
}

// SetGraphicsPipeline binds p. Its render pass descriptor must be
// compatible with the one of the pass target.
func (cb *CommandBuffer) SetGraphicsPipeline(p GraphicsPipeline) error {
	if err := cb.require(cbRenderPass); err != nil {
		return err
	}
	if err := checkUsable(cb.dev, p); err != nil {
		return err
	}
	if rp := cb.rt.RenderPassDescriptor(); rp != nil && !rp.IsCompatible(p.Desc().RenderPassDescriptor) {
		return fmt.Errorf("rhi: pipeline %q is not compatible with the render target", p.Name())
	}
	if p != cb.graphics {
		cb.srbBound = false
	}
	cb.graphics = p
	cb.rec.SetGraphicsPipeline(p)
	return nil
}

// SetComputePipeline binds p.
func (cb *CommandBuffer) SetComputePipeline(p ComputePipeline) error {
	if err := cb.require(cbComputePass); err != nil {
		return err
	}
	if err := checkUsable(cb.dev, p); err != nil {
		return err
	}
	if p != cb.compute {
		cb.srbBound = false
	}
	cb.compute = p
	cb.rec.SetComputePipeline(p)
	return nil
}

func (cb *CommandBuffer) pipelineSRB() (ShaderResourceBindings, error) {
	switch cb.state {
	case cbRenderPass:
		if cb.graphics == nil {
			return nil, ErrNoPipeline
		}
		return cb.graphics.Desc().ShaderResourceBindings, nil
	case cbComputePass:
		if cb.compute == nil {
			return nil, ErrNoPipeline
		}
		return cb.compute.Desc().ShaderResourceBindings, nil
	}
	return nil, ErrNoActivePass
}

// SetShaderResources binds srb, or the bound pipeline's bindings when srb is
// nil. offsets supply the offsets of dynamic uniform buffer bindings and
// must be aligned to Device.UniformBufferAlignment.
func (cb *CommandBuffer) SetShaderResources(srb ShaderResourceBindings, offsets ...DynamicOffset) error {
	if err := cb.require(cbRenderPass, cbComputePass); err != nil {
		return err
	}
	layout, err := cb.pipelineSRB()
	if err != nil {
		return err
	}
	if srb == nil {
		srb = layout
	}
	if err := checkUsable(cb.dev, srb); err != nil {
		return err
	}
	if layout != nil && srb != layout && !srb.IsLayoutCompatible(layout) {
		return fmt.Errorf("%w: bindings %q do not match the pipeline layout", ErrBindingMismatch, srb.Name())
	}
	align := uint32(cb.dev.UniformBufferAlignment())
	for _, o := range offsets {
		b, ok := srb.BindingAt(o.Binding)
		if !ok || b.Type != UniformBufferBinding || !b.HasDynamicOffset {
			return fmt.Errorf("%w: binding %d has no dynamic offset", ErrInvalidDynamicOffset, o.Binding)
		}
		if b.Buffer == nil {
			return fmt.Errorf("binding %d: %w", o.Binding, ErrNilResource)
		}
		if align > 0 && o.Offset%align != 0 {
			return fmt.Errorf("%w: offset %d not aligned to %d", ErrInvalidDynamicOffset, o.Offset, align)
		}
		if int(o.Offset)+b.EffectiveSize() > b.Buffer.Size() {
			return fmt.Errorf("%w: offset %d exceeds buffer %q", ErrInvalidDynamicOffset, o.Offset, b.Buffer.Name())
		}
	}
	cb.rec.SetShaderResources(srb, offsets)
	cb.srbBound = true
	return nil
}

// SetVertexInput binds vertex buffers starting at startBinding and an
// optional index buffer.
func (cb *CommandBuffer) SetVertexInput(startBinding int, bindings []VertexInput, index Buffer, indexOffset uint32, indexFormat IndexFormat) error {
	if err := cb.require(cbRenderPass); err != nil {
		return err
	}
	for i, vi := range bindings {
		if err := checkUsable(cb.dev, vi.Buffer); err != nil {
			return fmt.Errorf("vertex input %d: %w", startBinding+i, err)
		}
		if vi.Buffer.Usage()&VertexUsage == 0 {
			return fmt.Errorf("rhi: vertex input %d: buffer %q lacks VertexUsage", startBinding+i, vi.Buffer.Name())
		}
	}
	if index != nil {
		if err := checkUsable(cb.dev, index); err != nil {
			return fmt.Errorf("index buffer: %w", err)
		}
		if index.Usage()&IndexUsage == 0 {
			return fmt.Errorf("rhi: buffer %q lacks IndexUsage", index.Name())
		}
	}
	cb.rec.SetVertexInput(startBinding, bindings, index, indexOffset, indexFormat)
	return nil
}

// SetViewport sets the viewport.
func (cb *CommandBuffer) SetViewport(v Viewport) error {
	if err := cb.require(cbRenderPass); err != nil {
		return err
	}
	cb.rec.SetViewport(v)
	return nil
}

// SetScissor sets the scissor rectangle. The pipeline must have
// UsesScissor.
func (cb *CommandBuffer) SetScissor(s Scissor) error {
	if err := cb.require(cbRenderPass); err != nil {
		return err
	}
	if cb.graphics == nil {
		return ErrNoPipeline
	}
	if cb.graphics.Desc().Flags&UsesScissor == 0 {
		return fmt.Errorf("rhi: pipeline %q does not use scissor", cb.graphics.Name())
	}
	cb.rec.SetScissor(s)
	return nil
}

// SetBlendConstants sets the constant blend color.
func (cb *CommandBuffer) SetBlendConstants(c Color) error {
	if err := cb.require(cbRenderPass); err != nil {
		return err
	}
	cb.rec.SetBlendConstants(c)
	return nil
}

// SetStencilRef sets the stencil reference value.
func (cb *CommandBuffer) SetStencilRef(ref uint32) error {
	if err := cb.require(cbRenderPass); err != nil {
		return err
	}
	cb.rec.SetStencilRef(ref)
	return nil
}

func (cb *CommandBuffer) ensureResources() error {
	if cb.srbBound {
		return nil
	}
	srb, err := cb.pipelineSRB()
	if err != nil {
		return err
	}
	if srb == nil {
		return nil
	}
	return cb.SetShaderResources(nil)
}

// Draw records a non-indexed draw.
func (cb *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	if err := cb.require(cbRenderPass); err != nil {
		return err
	}
	if err := cb.ensureResources(); err != nil {
		return err
	}
	cb.rec.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	return nil
}

// DrawIndexed records an indexed draw using the index buffer from
// SetVertexInput.
func (cb *CommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) error {
	if err := cb.require(cbRenderPass); err != nil {
		return err
	}
	if err := cb.ensureResources(); err != nil {
		return err
	}
	cb.rec.DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
	return nil
}

// Dispatch records a compute dispatch of x*y*z workgroups.
func (cb *CommandBuffer) Dispatch(x, y, z uint32) error {
	if err := cb.require(cbComputePass); err != nil {
		return err
	}
	if err := cb.ensureResources(); err != nil {
		return err
	}
	cb.rec.Dispatch(x, y, z)
	return nil
}

// DebugMarkBegin opens a named debug group. Markers are dropped unless the
// device was created with debug markers enabled.
func (cb *CommandBuffer) DebugMarkBegin(name string) {
	if !cb.IsRecording() || !cb.dev.opts.DebugMarkers {
		return
	}
	cb.debugDepth++
	cb.rec.DebugMarkBegin(name)
}

// DebugMarkEnd closes the innermost debug group.
func (cb *CommandBuffer) DebugMarkEnd() {
	if !cb.IsRecording() || !cb.dev.opts.DebugMarkers || cb.debugDepth == 0 {
		return
	}
	cb.debugDepth--
	cb.rec.DebugMarkEnd()
}

// DebugMarkMsg inserts a single debug message.
func (cb *CommandBuffer) DebugMarkMsg(msg string) {
	if !cb.IsRecording() || !cb.dev.opts.DebugMarkers {
		return
	}
	cb.rec.DebugMarkMsg(msg)
}
