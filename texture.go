// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

// Texture is a 2D or cube texture.
type Texture interface {
	Buildable
	Format() TextureFormat
	PixelSize() Size
	// SetPixelSize changes the size used by the next Build.
	SetPixelSize(size Size)
	SampleCount() int
	Flags() TextureFlags
	// MipLevelCount returns the number of mip levels Build allocates.
	MipLevelCount() int
	// LayerCount returns 6 for cube maps, 1 otherwise.
	LayerCount() int
	textureBase() *TextureBase
}

// TextureBase holds the construction parameters of a texture.
type TextureBase struct {
	ResourceBase
	format      TextureFormat
	size        Size
	sampleCount int
	flags       TextureFlags
}

// Format returns the pixel format.
func (t *TextureBase) Format() TextureFormat { return t.format }

// PixelSize returns the size of mip level 0.
func (t *TextureBase) PixelSize() Size { return t.size }

// SetPixelSize changes the size used by the next Build.
func (t *TextureBase) SetPixelSize(size Size) { t.size = size }

// SampleCount returns the sample count.
func (t *TextureBase) SampleCount() int { return t.sampleCount }

// Flags returns the creation flags.
func (t *TextureBase) Flags() TextureFlags { return t.flags }

// MipLevelCount returns the full chain length for TextureMipMapped
// textures and 1 otherwise. An empty size counts as 1x1.
func (t *TextureBase) MipLevelCount() int {
	if t.flags&TextureMipMapped == 0 {
		return 1
	}
	return MipLevelsForSize(t.size)
}

// LayerCount returns 6 for cube maps and 1 otherwise.
func (t *TextureBase) LayerCount() int {
	if t.flags&TextureCubeMap != 0 {
		return 6
	}
	return 1
}

func (t *TextureBase) textureBase() *TextureBase { return t }

// RenderBuffer is a renderable, non-sampleable color or depth-stencil
// buffer.
type RenderBuffer interface {
	Buildable
	Type() RenderBufferType
	PixelSize() Size
	SetPixelSize(size Size)
	SampleCount() int
	Flags() RenderBufferFlags
	// BackingFormat returns the texture format the backend uses for the
	// buffer, or UnknownFormat when it is not texture-backed.
	BackingFormat() TextureFormat
	renderBufferBase() *RenderBufferBase
}

// RenderBufferBase holds the construction parameters of a render buffer.
type RenderBufferBase struct {
	ResourceBase
	typ         RenderBufferType
	size        Size
	sampleCount int
	flags       RenderBufferFlags
}

// Type returns the render buffer type.
func (r *RenderBufferBase) Type() RenderBufferType { return r.typ }

// PixelSize returns the size.
func (r *RenderBufferBase) PixelSize() Size { return r.size }

// SetPixelSize changes the size used by the next Build.
func (r *RenderBufferBase) SetPixelSize(size Size) { r.size = size }

// SampleCount returns the sample count.
func (r *RenderBufferBase) SampleCount() int { return r.sampleCount }

// Flags returns the creation flags.
func (r *RenderBufferBase) Flags() RenderBufferFlags { return r.flags }

func (r *RenderBufferBase) renderBufferBase() *RenderBufferBase { return r }
