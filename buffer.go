// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

// Buffer is a vertex, index, uniform or storage buffer.
type Buffer interface {
	Buildable
	Type() BufferType
	Usage() BufferUsage
	Size() int
	bufferBase() *BufferBase
}

// BufferBase holds the construction parameters of a buffer.
type BufferBase struct {
	ResourceBase
	typ   BufferType
	usage BufferUsage
	size  int
}

// Type returns the buffer type.
func (b *BufferBase) Type() BufferType { return b.typ }

// Usage returns the usage flags.
func (b *BufferBase) Usage() BufferUsage { return b.usage }

// Size returns the size in bytes.
func (b *BufferBase) Size() int { return b.size }

func (b *BufferBase) bufferBase() *BufferBase { return b }

// Sampler holds filtering and addressing state.
type Sampler interface {
	Buildable
	MagFilter() Filter
	MinFilter() Filter
	MipmapMode() Filter
	AddressU() AddressMode
	AddressV() AddressMode
	AddressW() AddressMode
	TextureCompareOp() CompareOp
	SetTextureCompareOp(op CompareOp)
	samplerBase() *SamplerBase
}

// SamplerBase holds the construction parameters of a sampler.
type SamplerBase struct {
	ResourceBase
	mag, min, mip Filter
	u, v, w       AddressMode
	compareOp     CompareOp
}

// MagFilter returns the magnification filter.
func (s *SamplerBase) MagFilter() Filter { return s.mag }

// MinFilter returns the minification filter.
func (s *SamplerBase) MinFilter() Filter { return s.min }

// MipmapMode returns the mip filter, FilterNone for no mipmapping.
func (s *SamplerBase) MipmapMode() Filter { return s.mip }

// AddressU returns the U address mode.
func (s *SamplerBase) AddressU() AddressMode { return s.u }

// AddressV returns the V address mode.
func (s *SamplerBase) AddressV() AddressMode { return s.v }

// AddressW returns the W address mode.
func (s *SamplerBase) AddressW() AddressMode { return s.w }

// TextureCompareOp returns the comparison for depth samplers. Never
// means comparison is disabled.
func (s *SamplerBase) TextureCompareOp() CompareOp { return s.compareOp }

// SetTextureCompareOp turns the sampler into a comparison sampler.
func (s *SamplerBase) SetTextureCompareOp(op CompareOp) {
	s.compareOp = op
}

func (s *SamplerBase) samplerBase() *SamplerBase { return s }
