// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package null

import (
	"github.com/gogpu/rhi"
)

// Buffer keeps the buffer contents in host memory.
type Buffer struct {
	rhi.BufferBase
	b    *Backend
	data []byte
}

// NewBuffer implements rhi.Backend.
func (b *Backend) NewBuffer(base rhi.BufferBase) rhi.Buffer {
	return &Buffer{BufferBase: base, b: b}
}

// Build allocates the host copy.
func (buf *Buffer) Build() error {
	if buf.IsBuilt() {
		buf.Release()
	}
	buf.data = make([]byte, buf.Size())
	buf.b.profiler().NewBuffer(buf, buf.Size(), 1, 0)
	buf.MarkBuilt()
	return nil
}

// Release drops the host copy.
func (buf *Buffer) Release() {
	if !buf.MarkReleased() {
		return
	}
	buf.data = nil
	buf.b.profiler().ReleaseBuffer(buf)
}

// Data returns the current contents, nil when not built.
func (buf *Buffer) Data() []byte { return buf.data }

type texture struct {
	rhi.TextureBase
	b *Backend
}

// NewTexture implements rhi.Backend.
func (b *Backend) NewTexture(base rhi.TextureBase) rhi.Texture {
	return &texture{TextureBase: base, b: b}
}

func (t *texture) Build() error {
	if t.IsBuilt() {
		t.Release()
	}
	t.b.profiler().NewTexture(t, true, t.MipLevelCount(), t.LayerCount(), 1)
	t.MarkBuilt()
	return nil
}

func (t *texture) Release() {
	if !t.MarkReleased() {
		return
	}
	t.b.profiler().ReleaseTexture(t)
}

type renderBuffer struct {
	rhi.RenderBufferBase
	b *Backend
}

// NewRenderBuffer implements rhi.Backend.
func (b *Backend) NewRenderBuffer(base rhi.RenderBufferBase) rhi.RenderBuffer {
	return &renderBuffer{RenderBufferBase: base, b: b}
}

func (rb *renderBuffer) Build() error {
	if rb.IsBuilt() {
		rb.Release()
	}
	rb.b.profiler().NewRenderBuffer(rb, false, false, 1)
	rb.MarkBuilt()
	return nil
}

func (rb *renderBuffer) Release() {
	if !rb.MarkReleased() {
		return
	}
	rb.b.profiler().ReleaseRenderBuffer(rb)
}

func (rb *renderBuffer) BackingFormat() rhi.TextureFormat {
	if rb.Type() == rhi.ColorBuffer {
		return rhi.RGBA8
	}
	return rhi.UnknownFormat
}

type sampler struct {
	rhi.SamplerBase
}

// NewSampler implements rhi.Backend.
func (b *Backend) NewSampler(base rhi.SamplerBase) rhi.Sampler {
	return &sampler{SamplerBase: base}
}

func (s *sampler) Build() error {
	s.MarkBuilt()
	return nil
}

func (s *sampler) Release() { s.MarkReleased() }

type renderPassDescriptor struct {
	rhi.RenderPassDescriptorBase
}

func (b *Backend) newRenderPassDescriptor(colors []rhi.TextureFormat, ds rhi.TextureFormat, samples int) rhi.RenderPassDescriptor {
	return &renderPassDescriptor{rhi.NewRenderPassDescriptorBase(b.dev, colors, ds, samples)}
}

type textureRenderTarget struct {
	rhi.TextureRenderTargetBase
	b *Backend
}

// NewTextureRenderTarget implements rhi.Backend.
func (b *Backend) NewTextureRenderTarget(base rhi.TextureRenderTargetBase) rhi.TextureRenderTarget {
	return &textureRenderTarget{TextureRenderTargetBase: base, b: b}
}

func (t *textureRenderTarget) Build() error {
	if t.PixelSize().IsEmpty() {
		rhi.Logger().Warn("null: texture render target has no sized attachment", "name", t.Name())
	}
	t.MarkBuilt()
	return nil
}

func (t *textureRenderTarget) Release() { t.MarkReleased() }

func (t *textureRenderTarget) NewCompatibleRenderPassDescriptor() rhi.RenderPassDescriptor {
	colors, ds := t.AttachmentFormats()
	return t.b.newRenderPassDescriptor(colors, ds, t.SampleCount())
}

type shaderResourceBindings struct {
	rhi.SRBBase
}

// NewShaderResourceBindings implements rhi.Backend.
func (b *Backend) NewShaderResourceBindings(base rhi.SRBBase) rhi.ShaderResourceBindings {
	return &shaderResourceBindings{SRBBase: base}
}

func (s *shaderResourceBindings) Build() error {
	if err := s.Validate(); err != nil {
		rhi.Logger().Warn("null: shader resource bindings accepted despite error", "name", s.Name(), "err", err)
	}
	s.MarkBuilt()
	return nil
}

func (s *shaderResourceBindings) Release() { s.MarkReleased() }

type graphicsPipeline struct {
	rhi.GraphicsPipelineBase
}

// NewGraphicsPipeline implements rhi.Backend.
func (b *Backend) NewGraphicsPipeline(base rhi.GraphicsPipelineBase) rhi.GraphicsPipeline {
	return &graphicsPipeline{GraphicsPipelineBase: base}
}

func (p *graphicsPipeline) Build() error {
	bindErr, err := p.Validate()
	if err == nil {
		err = bindErr
	}
	if err != nil {
		rhi.Logger().Warn("null: graphics pipeline accepted despite error", "name", p.Name(), "err", err)
	}
	p.MarkBuilt()
	return nil
}

func (p *graphicsPipeline) Release() { p.MarkReleased() }

type computePipeline struct {
	rhi.ComputePipelineBase
}

// NewComputePipeline implements rhi.Backend.
func (b *Backend) NewComputePipeline(base rhi.ComputePipelineBase) rhi.ComputePipeline {
	return &computePipeline{ComputePipelineBase: base}
}

func (p *computePipeline) Build() error {
	bindErr, err := p.Validate()
	if err == nil {
		err = bindErr
	}
	if err != nil {
		rhi.Logger().Warn("null: compute pipeline accepted despite error", "name", p.Name(), "err", err)
	}
	p.MarkBuilt()
	return nil
}

func (p *computePipeline) Release() { p.MarkReleased() }

type swapChain struct {
	rhi.SwapChainBase
	b *Backend
}

// NewSwapChain implements rhi.Backend.
func (b *Backend) NewSwapChain(base rhi.SwapChainBase) rhi.SwapChain {
	return &swapChain{SwapChainBase: base, b: b}
}

func (sc *swapChain) BuildOrResize() error {
	sc.ApplyResize(sc)
	sc.b.profiler().ResizeSwapChain(sc, 1, 0, 1)
	return nil
}

func (sc *swapChain) Release() {
	if !sc.MarkReleased() {
		return
	}
	sc.b.profiler().ReleaseSwapChain(sc)
}

func (sc *swapChain) NewCompatibleRenderPassDescriptor() rhi.RenderPassDescriptor {
	ds := rhi.UnknownFormat
	if sc.DepthStencil() != nil {
		ds = rhi.D24S8
	}
	return sc.b.newRenderPassDescriptor([]rhi.TextureFormat{rhi.RGBA8}, ds, sc.SampleCount())
}
