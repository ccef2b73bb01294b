// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// ErrForeignObject is returned when a resource of another backend is passed
// to a native resource.
var ErrForeignObject = errors.New("native: resource does not belong to this backend")

// alive reports whether the HAL device is still open. Resources released
// after the device is closed only update their state.
func (b *Backend) alive() bool { return b.device != nil }

// Buffer is a HAL buffer with a host copy of its contents. Partial writes
// are merged into the host copy so that the GPU only ever receives
// 4-byte aligned ranges.
type Buffer struct {
	rhi.BufferBase
	b      *Backend
	raw    hal.Buffer
	shadow []byte
}

// NewBuffer implements rhi.Backend.
func (b *Backend) NewBuffer(base rhi.BufferBase) rhi.Buffer {
	return &Buffer{BufferBase: base, b: b}
}

// Build creates the HAL buffer.
func (buf *Buffer) Build() error {
	if buf.IsBuilt() {
		buf.Release()
	}
	if buf.Size() <= 0 {
		return fmt.Errorf("native: buffer %q: size %d", buf.Name(), buf.Size())
	}
	if buf.Type() == rhi.Dynamic && buf.Usage() != rhi.UniformUsage {
		return fmt.Errorf("native: buffer %q: only uniform buffers can be Dynamic", buf.Name())
	}
	size := (buf.Size() + 3) &^ 3
	raw, err := buf.b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: buf.Name(),
		Size:  uint64(size),
		Usage: bufferUsage(buf.Usage()),
	})
	if err != nil {
		return fmt.Errorf("native: create buffer %q: %w", buf.Name(), err)
	}
	buf.raw = raw
	buf.shadow = make([]byte, size)
	buf.b.profiler().NewBuffer(buf, size, 1, 0)
	buf.MarkBuilt()
	return nil
}

// Release destroys the HAL buffer.
func (buf *Buffer) Release() {
	if !buf.MarkReleased() {
		return
	}
	if buf.b.alive() {
		buf.b.device.DestroyBuffer(buf.raw)
	}
	buf.raw, buf.shadow = nil, nil
	buf.b.profiler().ReleaseBuffer(buf)
}

// Data returns the host copy of the contents, nil when not built.
func (buf *Buffer) Data() []byte {
	if buf.shadow == nil {
		return nil
	}
	return buf.shadow[:buf.Size()]
}

// merge copies data at offset into the host copy and returns the enclosing
// 4-byte aligned range.
func (buf *Buffer) merge(offset int, data []byte) (start, end int) {
	if len(data) == 0 {
		return 0, 0
	}
	copy(buf.shadow[offset:], data)
	start = offset &^ 3
	end = min((offset+len(data)+3)&^3, len(buf.shadow))
	return start, end
}

// Texture is a HAL texture with a view covering all levels and layers.
type Texture struct {
	rhi.TextureBase
	b    *Backend
	raw  hal.Texture
	view hal.TextureView
}

// NewTexture implements rhi.Backend.
func (b *Backend) NewTexture(base rhi.TextureBase) rhi.Texture {
	return &Texture{TextureBase: base, b: b}
}

func (t *Texture) gpuFormat() gputypes.TextureFormat {
	return textureFormat(t.Format(), t.Flags()&rhi.TextureSRGB != 0)
}

// Build creates the texture and its default view.
func (t *Texture) Build() error {
	if t.IsBuilt() {
		t.Release()
	}
	size := t.PixelSize()
	switch {
	case size.IsEmpty():
		return fmt.Errorf("native: texture %q: empty size %s", t.Name(), size)
	case size.Width > t.b.ResourceLimit(rhi.TextureSizeMax) || size.Height > t.b.ResourceLimit(rhi.TextureSizeMax):
		return fmt.Errorf("native: texture %q: size %s exceeds the device limit", t.Name(), size)
	case !t.b.IsTextureFormatSupported(t.Format(), t.Flags()):
		return fmt.Errorf("native: texture %q: format %s unsupported with flags %#x", t.Name(), t.Format(), int(t.Flags()))
	}
	samples := max(t.SampleCount(), 1)
	raw, err := t.b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         t.Name(),
		Size:          hal.Extent3D{Width: uint32(size.Width), Height: uint32(size.Height), DepthOrArrayLayers: uint32(t.LayerCount())},
		MipLevelCount: uint32(t.MipLevelCount()),
		SampleCount:   uint32(samples),
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.gpuFormat(),
		Usage:         textureUsage(t),
	})
	if err != nil {
		return fmt.Errorf("native: create texture %q: %w", t.Name(), err)
	}
	dim := gputypes.TextureViewDimension2D
	if t.Flags()&rhi.TextureCubeMap != 0 {
		dim = gputypes.TextureViewDimensionCube
	}
	view, err := t.b.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:           t.Name() + "_view",
		Format:          t.gpuFormat(),
		Dimension:       dim,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   uint32(t.MipLevelCount()),
		ArrayLayerCount: uint32(t.LayerCount()),
	})
	if err != nil {
		t.b.device.DestroyTexture(raw)
		return fmt.Errorf("native: create texture view %q: %w", t.Name(), err)
	}
	t.raw, t.view = raw, view
	t.b.profiler().NewTexture(t, true, t.MipLevelCount(), t.LayerCount(), samples)
	t.MarkBuilt()
	return nil
}

// Release destroys the view and the texture.
func (t *Texture) Release() {
	if !t.MarkReleased() {
		return
	}
	if t.b.alive() {
		t.b.device.DestroyTextureView(t.view)
		t.b.device.DestroyTexture(t.raw)
	}
	t.raw, t.view = nil, nil
	t.b.profiler().ReleaseTexture(t)
}

// subresourceView creates a 2D view of one level and layer. The caller
// owns the view.
func (t *Texture) subresourceView(level, layer int) (hal.TextureView, error) {
	return t.b.device.CreateTextureView(t.raw, &hal.TextureViewDescriptor{
		Label:           fmt.Sprintf("%s_l%d_a%d", t.Name(), level, layer),
		Format:          t.gpuFormat(),
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    uint32(level),
		MipLevelCount:   1,
		BaseArrayLayer:  uint32(layer),
		ArrayLayerCount: 1,
	})
}

// renderBuffer is a render-attachment-only HAL texture.
type renderBuffer struct {
	rhi.RenderBufferBase
	b    *Backend
	raw  hal.Texture
	view hal.TextureView
}

// NewRenderBuffer implements rhi.Backend.
func (b *Backend) NewRenderBuffer(base rhi.RenderBufferBase) rhi.RenderBuffer {
	return &renderBuffer{RenderBufferBase: base, b: b}
}

func (rb *renderBuffer) BackingFormat() rhi.TextureFormat {
	if rb.Type() == rhi.ColorBuffer {
		return rhi.RGBA8
	}
	return rhi.D24S8
}

func (rb *renderBuffer) Build() error {
	if rb.IsBuilt() {
		rb.Release()
	}
	size := rb.PixelSize()
	if size.IsEmpty() {
		return fmt.Errorf("native: render buffer %q: empty size %s", rb.Name(), size)
	}
	samples := max(rb.SampleCount(), 1)
	format := rb.BackingFormat().GPUFormat()
	raw, err := rb.b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         rb.Name(),
		Size:          hal.Extent3D{Width: uint32(size.Width), Height: uint32(size.Height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   uint32(samples),
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("native: create render buffer %q: %w", rb.Name(), err)
	}
	view, err := rb.b.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:         rb.Name() + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		rb.b.device.DestroyTexture(raw)
		return fmt.Errorf("native: create render buffer view %q: %w", rb.Name(), err)
	}
	rb.raw, rb.view = raw, view
	rb.b.profiler().NewRenderBuffer(rb, false, false, samples)
	rb.MarkBuilt()
	return nil
}

func (rb *renderBuffer) Release() {
	if !rb.MarkReleased() {
		return
	}
	if rb.b.alive() {
		rb.b.device.DestroyTextureView(rb.view)
		rb.b.device.DestroyTexture(rb.raw)
	}
	rb.raw, rb.view = nil, nil
	rb.b.profiler().ReleaseRenderBuffer(rb)
}

type sampler struct {
	rhi.SamplerBase
	b   *Backend
	raw hal.Sampler
}

// NewSampler implements rhi.Backend.
func (b *Backend) NewSampler(base rhi.SamplerBase) rhi.Sampler {
	return &sampler{SamplerBase: base, b: b}
}

func (s *sampler) comparison() bool { return s.TextureCompareOp() != rhi.Never }

func (s *sampler) Build() error {
	if s.IsBuilt() {
		s.Release()
	}
	desc := &hal.SamplerDescriptor{
		Label:        s.Name(),
		AddressModeU: addressMode(s.AddressU()),
		AddressModeV: addressMode(s.AddressV()),
		AddressModeW: addressMode(s.AddressW()),
		MagFilter:    filterMode(s.MagFilter()),
		MinFilter:    filterMode(s.MinFilter()),
		MipmapFilter: filterMode(s.MipmapMode()),
	}
	if s.comparison() {
		desc.Compare = compareFunction(s.TextureCompareOp())
	}
	raw, err := s.b.device.CreateSampler(desc)
	if err != nil {
		return fmt.Errorf("native: create sampler %q: %w", s.Name(), err)
	}
	s.raw = raw
	s.MarkBuilt()
	return nil
}

func (s *sampler) Release() {
	if !s.MarkReleased() {
		return
	}
	if s.b.alive() {
		s.b.device.DestroySampler(s.raw)
	}
	s.raw = nil
}

type renderPassDescriptor struct {
	rhi.RenderPassDescriptorBase
}

func (b *Backend) newRenderPassDescriptor(colors []rhi.TextureFormat, ds rhi.TextureFormat, samples int) rhi.RenderPassDescriptor {
	return &renderPassDescriptor{rhi.NewRenderPassDescriptorBase(b.dev, colors, ds, samples)}
}

// attachment is one color attachment of a texture render target.
type attachment struct {
	view    hal.TextureView
	resolve hal.TextureView
}

type textureRenderTarget struct {
	rhi.TextureRenderTargetBase
	b      *Backend
	colors []attachment
	ds     hal.TextureView
	// owned are the views created by Build.
	owned []hal.TextureView
}

// NewTextureRenderTarget implements rhi.Backend.
func (b *Backend) NewTextureRenderTarget(base rhi.TextureRenderTargetBase) rhi.TextureRenderTarget {
	return &textureRenderTarget{TextureRenderTargetBase: base, b: b}
}

func (t *textureRenderTarget) NewCompatibleRenderPassDescriptor() rhi.RenderPassDescriptor {
	colors, ds := t.AttachmentFormats()
	return t.b.newRenderPassDescriptor(colors, ds, t.SampleCount())
}

func (t *textureRenderTarget) textureView(tex rhi.Texture, level, layer int) (hal.TextureView, error) {
	nt, ok := tex.(*Texture)
	if !ok {
		return nil, ErrForeignObject
	}
	if !nt.IsBuilt() {
		return nil, fmt.Errorf("%w: texture %q", rhi.ErrNotBuilt, nt.Name())
	}
	view, err := nt.subresourceView(level, layer)
	if err != nil {
		return nil, err
	}
	t.owned = append(t.owned, view)
	return view, nil
}

func (t *textureRenderTarget) Build() error {
	if t.IsBuilt() {
		t.Release()
	}
	if err := t.build(); err != nil {
		t.destroyViews()
		return fmt.Errorf("native: texture render target %q: %w", t.Name(), err)
	}
	t.MarkBuilt()
	return nil
}

func (t *textureRenderTarget) build() error {
	desc := t.Description()
	if len(desc.ColorAttachments) == 0 && desc.DepthStencilBuffer == nil && desc.DepthTexture == nil {
		return errors.New("no attachments")
	}
	t.colors = t.colors[:0]
	for i, att := range desc.ColorAttachments {
		var a attachment
		switch {
		case att.Texture != nil:
			v, err := t.textureView(att.Texture, att.Level, att.Layer)
			if err != nil {
				return fmt.Errorf("color attachment %d: %w", i, err)
			}
			a.view = v
		case att.RenderBuffer != nil:
			rb, ok := att.RenderBuffer.(*renderBuffer)
			if !ok || !rb.IsBuilt() || rb.Type() != rhi.ColorBuffer {
				return fmt.Errorf("color attachment %d: render buffer is not a built color buffer", i)
			}
			a.view = rb.view
		default:
			return fmt.Errorf("color attachment %d: no texture or render buffer", i)
		}
		if att.ResolveTexture != nil {
			v, err := t.textureView(att.ResolveTexture, att.ResolveLevel, att.ResolveLayer)
			if err != nil {
				return fmt.Errorf("resolve attachment %d: %w", i, err)
			}
			a.resolve = v
		}
		t.colors = append(t.colors, a)
	}
	switch {
	case desc.DepthStencilBuffer != nil:
		rb, ok := desc.DepthStencilBuffer.(*renderBuffer)
		if !ok || !rb.IsBuilt() || rb.Type() != rhi.DepthStencil {
			return errors.New("depth-stencil buffer is not a built depth-stencil render buffer")
		}
		t.ds = rb.view
	case desc.DepthTexture != nil:
		v, err := t.textureView(desc.DepthTexture, 0, 0)
		if err != nil {
			return fmt.Errorf("depth texture: %w", err)
		}
		t.ds = v
	}
	return nil
}

func (t *textureRenderTarget) destroyViews() {
	if t.b.alive() {
		for _, v := range t.owned {
			t.b.device.DestroyTextureView(v)
		}
	}
	t.owned, t.colors, t.ds = nil, nil, nil
}

func (t *textureRenderTarget) Release() {
	if !t.MarkReleased() {
		return
	}
	t.destroyViews()
}

// shaderResourceBindings is a HAL bind group with its own layout. A
// SampledTexture binding n occupies WGSL binding n for the texture and
// n+1 for the sampler.
type shaderResourceBindings struct {
	rhi.SRBBase
	b      *Backend
	layout hal.BindGroupLayout
	group  hal.BindGroup
	views  []hal.TextureView
}

// NewShaderResourceBindings implements rhi.Backend.
func (b *Backend) NewShaderResourceBindings(base rhi.SRBBase) rhi.ShaderResourceBindings {
	return &shaderResourceBindings{SRBBase: base, b: b}
}

func (s *shaderResourceBindings) Build() error {
	if s.IsBuilt() {
		s.Release()
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("native: shader resource bindings %q: %w", s.Name(), err)
	}
	layoutEntries, entries, err := s.entries()
	if err != nil {
		s.destroy()
		return fmt.Errorf("native: shader resource bindings %q: %w", s.Name(), err)
	}
	layout, err := s.b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   s.Name() + "_layout",
		Entries: layoutEntries,
	})
	if err != nil {
		s.destroy()
		return fmt.Errorf("native: create bind group layout %q: %w", s.Name(), err)
	}
	s.layout = layout
	group, err := s.b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   s.Name(),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		s.destroy()
		return fmt.Errorf("native: create bind group %q: %w", s.Name(), err)
	}
	s.group = group
	s.MarkBuilt()
	return nil
}

func (s *shaderResourceBindings) entries() ([]gputypes.BindGroupLayoutEntry, []gputypes.BindGroupEntry, error) {
	bindings := s.Bindings()
	var (
		layout  []gputypes.BindGroupLayoutEntry
		entries []gputypes.BindGroupEntry
	)
	for i, rb := range bindings {
		n := uint32(rb.Binding)
		vis := stageVisibility(rb.Stages)
		switch {
		case rb.Type == rhi.UniformBufferBinding || rb.Type.IsStorageBuffer():
			buf, ok := rb.Buffer.(*Buffer)
			if !ok {
				return nil, nil, fmt.Errorf("binding %d: %w", rb.Binding, ErrForeignObject)
			}
			typ := gputypes.BufferBindingTypeUniform
			switch rb.Type {
			case rhi.BufferLoadBinding:
				typ = gputypes.BufferBindingTypeReadOnlyStorage
			case rhi.BufferStoreBinding, rhi.BufferLoadStoreBinding:
				typ = gputypes.BufferBindingTypeStorage
			}
			size := uint64(rb.EffectiveSize())
			layout = append(layout, gputypes.BindGroupLayoutEntry{
				Binding:    n,
				Visibility: vis,
				Buffer:     &gputypes.BufferBindingLayout{Type: typ, HasDynamicOffset: rb.HasDynamicOffset, MinBindingSize: size},
			})
			entries = append(entries, gputypes.BindGroupEntry{
				Binding:  n,
				Resource: gputypes.BufferBinding{Buffer: buf.raw.NativeHandle(), Offset: uint64(rb.Offset), Size: size},
			})

		case rb.Type == rhi.SampledTextureBinding:
			if i+1 < len(bindings) && bindings[i+1].Binding == rb.Binding+1 {
				return nil, nil, fmt.Errorf("binding %d: sampler slot %d is taken", rb.Binding, rb.Binding+1)
			}
			tex, ok := rb.Texture.(*Texture)
			smp, ok2 := rb.Sampler.(*sampler)
			if !ok || !ok2 {
				return nil, nil, fmt.Errorf("binding %d: %w", rb.Binding, ErrForeignObject)
			}
			sampleType := gputypes.TextureSampleTypeFloat
			if tex.Format().IsDepth() {
				sampleType = gputypes.TextureSampleTypeDepth
			}
			viewDim := gputypes.TextureViewDimension2D
			if tex.Flags()&rhi.TextureCubeMap != 0 {
				viewDim = gputypes.TextureViewDimensionCube
			}
			samplerType := gputypes.SamplerBindingTypeFiltering
			if smp.comparison() {
				samplerType = gputypes.SamplerBindingTypeComparison
			}
			layout = append(layout,
				gputypes.BindGroupLayoutEntry{
					Binding:    n,
					Visibility: vis,
					Texture:    &gputypes.TextureBindingLayout{SampleType: sampleType, ViewDimension: viewDim},
				},
				gputypes.BindGroupLayoutEntry{
					Binding:    n + 1,
					Visibility: vis,
					Sampler:    &gputypes.SamplerBindingLayout{Type: samplerType},
				})
			entries = append(entries,
				gputypes.BindGroupEntry{Binding: n, Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()}},
				gputypes.BindGroupEntry{Binding: n + 1, Resource: gputypes.SamplerBinding{Sampler: smp.raw.NativeHandle()}})

		case rb.Type.IsImage():
			tex, ok := rb.Texture.(*Texture)
			if !ok {
				return nil, nil, fmt.Errorf("binding %d: %w", rb.Binding, ErrForeignObject)
			}
			access := gputypes.StorageTextureAccessReadWrite
			switch rb.Type {
			case rhi.ImageLoadBinding:
				access = gputypes.StorageTextureAccessReadOnly
			case rhi.ImageStoreBinding:
				access = gputypes.StorageTextureAccessWriteOnly
			}
			view, err := tex.subresourceView(rb.Level, 0)
			if err != nil {
				return nil, nil, fmt.Errorf("binding %d: %w", rb.Binding, err)
			}
			s.views = append(s.views, view)
			layout = append(layout, gputypes.BindGroupLayoutEntry{
				Binding:    n,
				Visibility: vis,
				StorageTexture: &gputypes.StorageTextureBindingLayout{Access: access, Format: tex.gpuFormat(), ViewDimension: gputypes.TextureViewDimension2D},
			})
			entries = append(entries, gputypes.BindGroupEntry{
				Binding:  n,
				Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()},
			})
		}
	}
	return layout, entries, nil
}

// dynamicOffsets orders offsets by binding number as SetBindGroup expects.
// Dynamic bindings without a supplied offset use 0.
func (s *shaderResourceBindings) dynamicOffsets(offsets []rhi.DynamicOffset) []uint32 {
	var out []uint32
	for _, b := range s.Bindings() {
		if !b.HasDynamicOffset {
			continue
		}
		var off uint32
		for _, o := range offsets {
			if o.Binding == b.Binding {
				off = o.Offset
			}
		}
		out = append(out, off)
	}
	return out
}

func (s *shaderResourceBindings) destroy() {
	if s.b.alive() {
		if s.group != nil {
			s.b.device.DestroyBindGroup(s.group)
		}
		if s.layout != nil {
			s.b.device.DestroyBindGroupLayout(s.layout)
		}
		for _, v := range s.views {
			s.b.device.DestroyTextureView(v)
		}
	}
	s.group, s.layout, s.views = nil, nil, nil
}

func (s *shaderResourceBindings) Release() {
	if !s.MarkReleased() {
		return
	}
	s.destroy()
}

// pipelineLayout creates the layout for srb, which may be nil.
func (b *Backend) pipelineLayout(label string, srb rhi.ShaderResourceBindings) (hal.PipelineLayout, error) {
	var groups []hal.BindGroupLayout
	if srb != nil {
		s, ok := srb.(*shaderResourceBindings)
		if !ok {
			return nil, ErrForeignObject
		}
		groups = append(groups, s.layout)
	}
	return b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_layout",
		BindGroupLayouts: groups,
	})
}

// pipelineBuildError folds the two results of a base Validate into one
// error. Binding mismatches fail the build on this backend.
func pipelineBuildError(bindingErr, err error) error {
	if err != nil {
		return err
	}
	return bindingErr
}
