// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"errors"
	"fmt"
	"slices"
)

// batchPoolSize is the number of pooled resource update batches per device.
const batchPoolSize = 64

type frameKind int

const (
	noFrame frameKind = iota
	swapChainFrame
	offscreenFrame
)

// Device is the entry point of the abstraction: it creates resources,
// answers capability queries and drives frames on one Backend.
//
// A Device is used from a single goroutine. Only one frame, swap chain or
// offscreen, is recorded at a time.
type Device struct {
	backend Backend
	opts    Options
	closed  bool

	frame     frameKind
	frameSC   SwapChain
	cb        *CommandBuffer
	frameSlot int

	freeBatches []*ResourceUpdateBatch
	pooled      int
}

// NewDevice creates a device on b. Most callers use backend.Open, which
// looks backends up by name.
func NewDevice(b Backend, opts ...Option) (*Device, error) {
	if b == nil {
		return nil, errors.New("rhi: nil backend")
	}
	d := &Device{backend: b, opts: defaultOptions()}
	for _, opt := range opts {
		opt(&d.opts)
	}
	if d.opts.Logger != nil {
		SetLogger(d.opts.Logger)
	}
	if err := b.Create(d, &d.opts); err != nil {
		return nil, fmt.Errorf("rhi: create %s device: %w", b.Name(), err)
	}
	Logger().Info("rhi: device created", "backend", b.Name(), "debugMarkers", d.opts.DebugMarkers)
	return d, nil
}

// Backend returns the backend the device forwards to.
func (d *Device) Backend() Backend { return d.backend }

// BackendName returns the backend identifier.
func (d *Device) BackendName() string { return d.backend.Name() }

// Options returns the options the device was created with.
func (d *Device) Options() Options { return d.opts }

// Profiler returns the installed profiling sink, never nil.
func (d *Device) Profiler() Profiler { return d.opts.Profiler }

// IsClosed reports whether Close was called.
func (d *Device) IsClosed() bool { return d.closed }

// Close destroys the backend. An open frame is abandoned. Close is
// idempotent.
func (d *Device) Close() {
	if d.closed {
		return
	}
	if d.frame != noFrame {
		Logger().Warn("rhi: closing device with a frame in progress")
		d.endFrameState(false)
	}
	d.backend.Destroy()
	d.closed = true
	Logger().Info("rhi: device closed", "backend", d.backend.Name())
}

// NewBuffer creates an unbuilt buffer of size bytes.
func (d *Device) NewBuffer(typ BufferType, usage BufferUsage, size int) Buffer {
	return d.backend.NewBuffer(BufferBase{
		ResourceBase: newResourceBase(d, KindBuffer),
		typ:          typ,
		usage:        usage,
		size:         size,
	})
}

// NewTexture creates an unbuilt texture.
func (d *Device) NewTexture(format TextureFormat, size Size, sampleCount int, flags TextureFlags) Texture {
	return d.backend.NewTexture(TextureBase{
		ResourceBase: newResourceBase(d, KindTexture),
		format:       format,
		size:         size,
		sampleCount:  max(sampleCount, 1),
		flags:        flags,
	})
}

// NewRenderBuffer creates an unbuilt render buffer.
func (d *Device) NewRenderBuffer(typ RenderBufferType, size Size, sampleCount int, flags RenderBufferFlags) RenderBuffer {
	return d.backend.NewRenderBuffer(RenderBufferBase{
		ResourceBase: newResourceBase(d, KindRenderBuffer),
		typ:          typ,
		size:         size,
		sampleCount:  max(sampleCount, 1),
		flags:        flags,
	})
}

// NewSampler creates an unbuilt sampler.
func (d *Device) NewSampler(magFilter, minFilter, mipmapMode Filter, u, v, w AddressMode) Sampler {
	return d.backend.NewSampler(SamplerBase{
		ResourceBase: newResourceBase(d, KindSampler),
		mag:          magFilter,
		min:          minFilter,
		mip:          mipmapMode,
		u:            u,
		v:            v,
		w:            w,
	})
}

// NewTextureRenderTarget creates an unbuilt render target over the
// attachments of desc.
func (d *Device) NewTextureRenderTarget(desc TextureRenderTargetDescription, flags TextureRenderTargetFlags) TextureRenderTarget {
	desc.ColorAttachments = slices.Clone(desc.ColorAttachments)
	return d.backend.NewTextureRenderTarget(TextureRenderTargetBase{
		ResourceBase: newResourceBase(d, KindTextureRenderTarget),
		desc:         desc,
		flags:        flags,
	})
}

// NewShaderResourceBindings creates an empty, unbuilt binding set.
func (d *Device) NewShaderResourceBindings() ShaderResourceBindings {
	return d.backend.NewShaderResourceBindings(SRBBase{
		ResourceBase: newResourceBase(d, KindShaderResourceBindings),
	})
}

// NewGraphicsPipeline creates an unbuilt pipeline with the default state.
func (d *Device) NewGraphicsPipeline() GraphicsPipeline {
	return d.backend.NewGraphicsPipeline(GraphicsPipelineBase{
		ResourceBase: newResourceBase(d, KindGraphicsPipeline),
		desc:         DefaultGraphicsPipelineDesc(),
	})
}

// NewComputePipeline creates an unbuilt compute pipeline.
func (d *Device) NewComputePipeline() ComputePipeline {
	return d.backend.NewComputePipeline(ComputePipelineBase{
		ResourceBase: newResourceBase(d, KindComputePipeline),
	})
}

// NewSwapChain creates an unbuilt swap chain targeting the surface from
// WithSurface, if any.
func (d *Device) NewSwapChain() SwapChain {
	return d.backend.NewSwapChain(SwapChainBase{
		ResourceBase: newResourceBase(d, KindSwapChain),
		target:       d.opts.Surface,
		sampleCount:  1,
	})
}

// SupportedSampleCounts returns the sample counts usable for textures,
// render buffers and swap chains.
func (d *Device) SupportedSampleCounts() []int { return d.backend.SupportedSampleCounts() }

// IsTextureFormatSupported reports whether f can be used with flags.
func (d *Device) IsTextureFormatSupported(f TextureFormat, flags TextureFlags) bool {
	return d.backend.IsTextureFormatSupported(f, flags)
}

// IsFeatureSupported reports whether an optional feature is available.
func (d *Device) IsFeatureSupported(f Feature) bool { return d.backend.IsFeatureSupported(f) }

// ResourceLimit returns a numeric limit.
func (d *Device) ResourceLimit(l ResourceLimit) int { return d.backend.ResourceLimit(l) }

// UniformBufferAlignment returns the required alignment of uniform buffer
// offsets, including dynamic offsets.
func (d *Device) UniformBufferAlignment() int { return d.backend.UniformBufferAlignment() }

// UBufAligned rounds v up to the uniform buffer alignment.
func (d *Device) UBufAligned(v int) int {
	a := d.UniformBufferAlignment()
	if a <= 1 {
		return v
	}
	return (v + a - 1) / a * a
}

// IsYUpInFramebuffer reports whether framebuffer Y points up.
func (d *Device) IsYUpInFramebuffer() bool { return d.backend.IsYUpInFramebuffer() }

// IsYUpInNDC reports whether normalized device Y points up.
func (d *Device) IsYUpInNDC() bool { return d.backend.IsYUpInNDC() }

// IsClipDepthZeroToOne reports whether clip space depth is 0..1 rather
// than -1..1.
func (d *Device) IsClipDepthZeroToOne() bool { return d.backend.IsClipDepthZeroToOne() }

// ClipSpaceCorrMatrix returns the column-major matrix that maps OpenGL
// style clip space (Y up, depth -1..1) to the backend's clip space.
// Backends may supply their own by implementing
// ClipSpaceCorrMatrix() [16]float32.
func (d *Device) ClipSpaceCorrMatrix() [16]float32 {
	if c, ok := d.backend.(interface{ ClipSpaceCorrMatrix() [16]float32 }); ok {
		return c.ClipSpaceCorrMatrix()
	}
	m := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	if !d.IsYUpInNDC() {
		m[5] = -1
	}
	if d.IsClipDepthZeroToOne() {
		m[10] = 0.5
		m[14] = 0.5
	}
	return m
}

// CurrentFrameSlot returns the index of the frame slot in use, cycling
// through ResourceLimit(FramesInFlight).
func (d *Device) CurrentFrameSlot() int { return d.frameSlot }

// IsRecording reports whether a frame is in progress.
func (d *Device) IsRecording() bool { return d.frame != noFrame }

func (d *Device) frameError(op, reason string) FrameOpResult {
	Logger().Warn("rhi: frame operation rejected", "op", op, "reason", reason)
	return FrameOpError
}

// BeginFrame starts a frame on sc. On success the frame's command buffer
// and render target are available from sc until EndFrame.
func (d *Device) BeginFrame(sc SwapChain, flags BeginFrameFlags) FrameOpResult {
	switch {
	case d.closed:
		return d.frameError("BeginFrame", "device closed")
	case d.frame != noFrame:
		return d.frameError("BeginFrame", "a frame is already being recorded")
	}
	if err := checkUsable(d, sc); err != nil {
		return d.frameError("BeginFrame", err.Error())
	}
	rec, res := d.backend.BeginFrame(sc, flags)
	if res != FrameOpSuccess {
		return res
	}
	d.cb = newCommandBuffer(d, rec, sc)
	d.frame, d.frameSC = swapChainFrame, sc
	sc.swapChainBase().cb = d.cb
	return FrameOpSuccess
}

// EndFrame submits the frame begun on sc and presents it unless
// SkipPresent is set. The frame is over whatever the result, except when
// it is rejected because a pass is still open.
func (d *Device) EndFrame(sc SwapChain, flags EndFrameFlags) FrameOpResult {
	switch {
	case d.closed:
		return d.frameError("EndFrame", "device closed")
	case d.frame != swapChainFrame:
		return d.frameError("EndFrame", "no swap chain frame in progress")
	case sc != d.frameSC:
		return d.frameError("EndFrame", "frame was begun on another swap chain")
	case d.cb.InPass():
		return d.frameError("EndFrame", "a pass is still open")
	}
	res := d.backend.EndFrame(sc, flags)
	d.endFrameState(res == FrameOpSuccess)
	return res
}

// BeginOffscreenFrame starts a frame without a swap chain and returns its
// command buffer.
func (d *Device) BeginOffscreenFrame() (*CommandBuffer, FrameOpResult) {
	switch {
	case d.closed:
		return nil, d.frameError("BeginOffscreenFrame", "device closed")
	case d.frame != noFrame:
		return nil, d.frameError("BeginOffscreenFrame", "a frame is already being recorded")
	}
	rec, res := d.backend.BeginOffscreenFrame()
	if res != FrameOpSuccess {
		return nil, res
	}
	d.cb = newCommandBuffer(d, rec, nil)
	d.frame = offscreenFrame
	return d.cb, FrameOpSuccess
}

// EndOffscreenFrame submits the offscreen frame and waits for it, so
// readbacks recorded in it are complete on return.
func (d *Device) EndOffscreenFrame() FrameOpResult {
	switch {
	case d.closed:
		return d.frameError("EndOffscreenFrame", "device closed")
	case d.frame != offscreenFrame:
		return d.frameError("EndOffscreenFrame", "no offscreen frame in progress")
	case d.cb.InPass():
		return d.frameError("EndOffscreenFrame", "a pass is still open")
	}
	res := d.backend.EndOffscreenFrame()
	d.endFrameState(false)
	return res
}

// Finish waits for all submitted work. It must be called outside frames.
func (d *Device) Finish() FrameOpResult {
	switch {
	case d.closed:
		return d.frameError("Finish", "device closed")
	case d.frame != noFrame:
		return d.frameError("Finish", "called inside a frame")
	}
	return d.backend.Finish()
}

func (d *Device) endFrameState(countFrame bool) {
	if d.cb != nil {
		d.cb.finish()
	}
	if d.frame == swapChainFrame && d.frameSC != nil {
		b := d.frameSC.swapChainBase()
		b.cb = nil
		if countFrame {
			b.frameCount++
			if n := d.ResourceLimit(FramesInFlight); n > 0 {
				d.frameSlot = (d.frameSlot + 1) % n
			}
		}
	}
	d.frame, d.frameSC, d.cb = noFrame, nil, nil
}

// NextResourceUpdateBatch returns an empty batch from the device pool.
// When all pooled batches are in use a new unpooled batch is returned and
// a warning logged; release batches after use to avoid that.
func (d *Device) NextResourceUpdateBatch() *ResourceUpdateBatch {
	if n := len(d.freeBatches); n > 0 {
		b := d.freeBatches[n-1]
		d.freeBatches = d.freeBatches[:n-1]
		b.free = false
		return b
	}
	if d.pooled < batchPoolSize {
		d.pooled++
		return &ResourceUpdateBatch{dev: d, pooled: true}
	}
	Logger().Warn("rhi: resource update batch pool exhausted", "size", batchPoolSize)
	return &ResourceUpdateBatch{dev: d}
}

// FreeResourceUpdateBatches returns how many pooled batches are available
// without allocating.
func (d *Device) FreeResourceUpdateBatches() int {
	return len(d.freeBatches) + batchPoolSize - d.pooled
}

func (d *Device) releaseBatch(b *ResourceUpdateBatch) {
	if !b.pooled || b.free {
		return
	}
	b.free = true
	d.freeBatches = append(d.freeBatches, b)
}
