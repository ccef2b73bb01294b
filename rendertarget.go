// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import "slices"

// RenderPassDescriptor describes the attachment formats a render target
// presents to pipelines. Pipelines built against one descriptor can be used
// with any target whose descriptor is compatible.
type RenderPassDescriptor interface {
	Resource
	ColorFormats() []TextureFormat
	DepthStencilFormat() TextureFormat
	SampleCount() int
	IsCompatible(other RenderPassDescriptor) bool
	renderPassDescriptorBase() *RenderPassDescriptorBase
}

// RenderPassDescriptorBase holds attachment formats. Descriptors need no
// Build; they are usable as soon as they are created.
type RenderPassDescriptorBase struct {
	ResourceBase
	colors      []TextureFormat
	depth       TextureFormat
	sampleCount int
}

// NewRenderPassDescriptorBase returns a built descriptor base for a backend
// to embed.
func NewRenderPassDescriptorBase(d *Device, colors []TextureFormat, depthStencil TextureFormat, sampleCount int) RenderPassDescriptorBase {
	b := RenderPassDescriptorBase{
		ResourceBase: newResourceBase(d, KindRenderPassDescriptor),
		colors:       slices.Clone(colors),
		depth:        depthStencil,
		sampleCount:  max(sampleCount, 1),
	}
	b.built = true
	return b
}

// ColorFormats returns the color attachment formats in order.
func (r *RenderPassDescriptorBase) ColorFormats() []TextureFormat { return slices.Clone(r.colors) }

// DepthStencilFormat returns the depth-stencil format or UnknownFormat.
func (r *RenderPassDescriptorBase) DepthStencilFormat() TextureFormat { return r.depth }

// SampleCount returns the sample count.
func (r *RenderPassDescriptorBase) SampleCount() int { return r.sampleCount }

// IsCompatible reports whether other has the same attachment formats and
// sample count.
func (r *RenderPassDescriptorBase) IsCompatible(other RenderPassDescriptor) bool {
	if other == nil {
		return false
	}
	o := other.renderPassDescriptorBase()
	return slices.Equal(r.colors, o.colors) && r.depth == o.depth && r.sampleCount == o.sampleCount
}

// Release marks the descriptor unusable.
func (r *RenderPassDescriptorBase) Release() { r.MarkReleased() }

func (r *RenderPassDescriptorBase) renderPassDescriptorBase() *RenderPassDescriptorBase { return r }

// RenderTarget is something a render pass draws into: the current
// backbuffer of a swap chain or a set of texture attachments.
type RenderTarget interface {
	Resource
	PixelSize() Size
	DevicePixelRatio() float32
	SampleCount() int
	RenderPassDescriptor() RenderPassDescriptor
	SetRenderPassDescriptor(rp RenderPassDescriptor)
}

// SwapChainRenderTarget mirrors the current backbuffer of a swap chain. Its
// size and pixel ratio are refreshed every time the swap chain is resized.
type SwapChainRenderTarget struct {
	ResourceBase
	sc          SwapChain
	size        Size
	dpr         float32
	sampleCount int
	rp          RenderPassDescriptor
}

// SwapChain returns the swap chain the target belongs to.
func (t *SwapChainRenderTarget) SwapChain() SwapChain { return t.sc }

// PixelSize returns the backbuffer size.
func (t *SwapChainRenderTarget) PixelSize() Size { return t.size }

// DevicePixelRatio returns the surface pixel ratio.
func (t *SwapChainRenderTarget) DevicePixelRatio() float32 { return t.dpr }

// SampleCount returns the swap chain sample count.
func (t *SwapChainRenderTarget) SampleCount() int { return t.sampleCount }

// RenderPassDescriptor returns the swap chain's render pass descriptor.
func (t *SwapChainRenderTarget) RenderPassDescriptor() RenderPassDescriptor { return t.rp }

// SetRenderPassDescriptor sets the render pass descriptor.
func (t *SwapChainRenderTarget) SetRenderPassDescriptor(rp RenderPassDescriptor) { t.rp = rp }

// Release is a no-op; the target lives as long as its swap chain.
func (t *SwapChainRenderTarget) Release() {}

// ColorAttachment is one color attachment of a texture render target. Either
// Texture or RenderBuffer is set.
type ColorAttachment struct {
	Texture      Texture
	RenderBuffer RenderBuffer
	Layer        int
	Level        int

	ResolveTexture Texture
	ResolveLayer   int
	ResolveLevel   int
}

// TextureRenderTargetDescription lists the attachments of a texture render
// target.
type TextureRenderTargetDescription struct {
	ColorAttachments   []ColorAttachment
	DepthStencilBuffer RenderBuffer
	DepthTexture       Texture
}

// TextureRenderTargetFlags modifies texture render targets.
type TextureRenderTargetFlags int

const (
	// PreserveColorContents loads instead of clearing color at pass begin.
	PreserveColorContents TextureRenderTargetFlags = 1 << iota
	// PreserveDepthStencilContents loads depth-stencil at pass begin.
	PreserveDepthStencilContents
)

// TextureRenderTarget renders into textures and render buffers.
type TextureRenderTarget interface {
	Buildable
	RenderTarget
	Description() TextureRenderTargetDescription
	Flags() TextureRenderTargetFlags
	NewCompatibleRenderPassDescriptor() RenderPassDescriptor
	textureRenderTargetBase() *TextureRenderTargetBase
}

// TextureRenderTargetBase holds the construction parameters of a texture
// render target.
type TextureRenderTargetBase struct {
	ResourceBase
	desc  TextureRenderTargetDescription
	flags TextureRenderTargetFlags
	rp    RenderPassDescriptor
}

// Description returns the attachments.
func (t *TextureRenderTargetBase) Description() TextureRenderTargetDescription {
	d := t.desc
	d.ColorAttachments = slices.Clone(t.desc.ColorAttachments)
	return d
}

// Flags returns the creation flags.
func (t *TextureRenderTargetBase) Flags() TextureRenderTargetFlags { return t.flags }

// PixelSize derives the target size from the first available attachment,
// in order: color texture (at its mip level), color render buffer,
// depth-stencil buffer, depth texture.
func (t *TextureRenderTargetBase) PixelSize() Size {
	if len(t.desc.ColorAttachments) > 0 {
		att := t.desc.ColorAttachments[0]
		if att.Texture != nil {
			return SizeForMipLevel(att.Level, att.Texture.PixelSize())
		}
		if att.RenderBuffer != nil {
			return att.RenderBuffer.PixelSize()
		}
	}
	if t.desc.DepthStencilBuffer != nil {
		return t.desc.DepthStencilBuffer.PixelSize()
	}
	if t.desc.DepthTexture != nil {
		return t.desc.DepthTexture.PixelSize()
	}
	return Size{}
}

// DevicePixelRatio is always 1 for texture targets.
func (t *TextureRenderTargetBase) DevicePixelRatio() float32 { return 1 }

// SampleCount returns the sample count of the first color attachment, or 1.
func (t *TextureRenderTargetBase) SampleCount() int {
	if len(t.desc.ColorAttachments) > 0 {
		att := t.desc.ColorAttachments[0]
		if att.Texture != nil {
			return att.Texture.SampleCount()
		}
		if att.RenderBuffer != nil {
			return att.RenderBuffer.SampleCount()
		}
	}
	return 1
}

// RenderPassDescriptor returns the associated descriptor.
func (t *TextureRenderTargetBase) RenderPassDescriptor() RenderPassDescriptor { return t.rp }

// SetRenderPassDescriptor associates a descriptor, normally one from
// NewCompatibleRenderPassDescriptor.
func (t *TextureRenderTargetBase) SetRenderPassDescriptor(rp RenderPassDescriptor) { t.rp = rp }

// AttachmentFormats returns the color formats and the depth-stencil format
// of the attachments, for backends creating compatible descriptors.
func (t *TextureRenderTargetBase) AttachmentFormats() (colors []TextureFormat, depthStencil TextureFormat) {
	for _, att := range t.desc.ColorAttachments {
		switch {
		case att.Texture != nil:
			colors = append(colors, att.Texture.Format())
		case att.RenderBuffer != nil:
			colors = append(colors, att.RenderBuffer.BackingFormat())
		}
	}
	switch {
	case t.desc.DepthStencilBuffer != nil:
		depthStencil = D24S8
	case t.desc.DepthTexture != nil:
		depthStencil = t.desc.DepthTexture.Format()
	}
	return colors, depthStencil
}

func (t *TextureRenderTargetBase) textureRenderTargetBase() *TextureRenderTargetBase { return t }
