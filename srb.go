// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"fmt"
	"slices"
)

// BindingType is the kind of resource a shader binding exposes.
type BindingType int

const (
	UniformBufferBinding BindingType = iota
	SampledTextureBinding
	ImageLoadBinding
	ImageStoreBinding
	ImageLoadStoreBinding
	BufferLoadBinding
	BufferStoreBinding
	BufferLoadStoreBinding
)

func (t BindingType) String() string {
	switch t {
	case UniformBufferBinding:
		return "UniformBuffer"
	case SampledTextureBinding:
		return "SampledTexture"
	case ImageLoadBinding:
		return "ImageLoad"
	case ImageStoreBinding:
		return "ImageStore"
	case ImageLoadStoreBinding:
		return "ImageLoadStore"
	case BufferLoadBinding:
		return "BufferLoad"
	case BufferStoreBinding:
		return "BufferStore"
	case BufferLoadStoreBinding:
		return "BufferLoadStore"
	}
	return fmt.Sprintf("BindingType(%d)", int(t))
}

// IsImage reports whether t binds a storage image.
func (t BindingType) IsImage() bool {
	return t == ImageLoadBinding || t == ImageStoreBinding || t == ImageLoadStoreBinding
}

// IsStorageBuffer reports whether t binds a storage buffer.
func (t BindingType) IsStorageBuffer() bool {
	return t == BufferLoadBinding || t == BufferStoreBinding || t == BufferLoadStoreBinding
}

// ShaderResourceBinding is one entry of a ShaderResourceBindings set. Use
// the constructor functions to create them.
type ShaderResourceBinding struct {
	Binding int
	Stages  StageFlags
	Type    BindingType

	Buffer           Buffer
	Offset           int
	Size             int
	HasDynamicOffset bool

	Texture Texture
	Sampler Sampler
	Level   int
}

// UniformBuffer exposes size bytes of buf at offset. A zero size
// means the whole buffer.
func UniformBuffer(binding int, stages StageFlags, buf Buffer, offset, size int) ShaderResourceBinding {
	return ShaderResourceBinding{Binding: binding, Stages: stages, Type: UniformBufferBinding, Buffer: buf, Offset: offset, Size: size}
}

// UniformBufferWithDynamicOffset exposes a window of size bytes whose
// offset is supplied when binding, see CommandBuffer.SetShaderResources.
func UniformBufferWithDynamicOffset(binding int, stages StageFlags, buf Buffer, size int) ShaderResourceBinding {
	b := UniformBuffer(binding, stages, buf, 0, size)
	b.HasDynamicOffset = true
	return b
}

// SampledTexture exposes a texture together with a sampler.
func SampledTexture(binding int, stages StageFlags, tex Texture, s Sampler) ShaderResourceBinding {
	return ShaderResourceBinding{Binding: binding, Stages: stages, Type: SampledTextureBinding, Texture: tex, Sampler: s}
}

// ImageLoad exposes mip level of tex as a read-only storage image.
func ImageLoad(binding int, stages StageFlags, tex Texture, level int) ShaderResourceBinding {
	return ShaderResourceBinding{Binding: binding, Stages: stages, Type: ImageLoadBinding, Texture: tex, Level: level}
}

// ImageStore exposes mip level of tex as a write-only storage image.
func ImageStore(binding int, stages StageFlags, tex Texture, level int) ShaderResourceBinding {
	return ShaderResourceBinding{Binding: binding, Stages: stages, Type: ImageStoreBinding, Texture: tex, Level: level}
}

// ImageLoadStore exposes mip level of tex as a read-write storage image.
func ImageLoadStore(binding int, stages StageFlags, tex Texture, level int) ShaderResourceBinding {
	return ShaderResourceBinding{Binding: binding, Stages: stages, Type: ImageLoadStoreBinding, Texture: tex, Level: level}
}

// BufferLoad exposes buf as a read-only storage buffer.
func BufferLoad(binding int, stages StageFlags, buf Buffer, offset, size int) ShaderResourceBinding {
	return ShaderResourceBinding{Binding: binding, Stages: stages, Type: BufferLoadBinding, Buffer: buf, Offset: offset, Size: size}
}

// BufferStore exposes buf as a write-only storage buffer.
func BufferStore(binding int, stages StageFlags, buf Buffer, offset, size int) ShaderResourceBinding {
	return ShaderResourceBinding{Binding: binding, Stages: stages, Type: BufferStoreBinding, Buffer: buf, Offset: offset, Size: size}
}

// BufferLoadStore exposes buf as a read-write storage buffer.
func BufferLoadStore(binding int, stages StageFlags, buf Buffer, offset, size int) ShaderResourceBinding {
	return ShaderResourceBinding{Binding: binding, Stages: stages, Type: BufferLoadStoreBinding, Buffer: buf, Offset: offset, Size: size}
}

// EffectiveSize returns Size, or the remainder of the buffer after Offset
// when Size is zero.
func (b ShaderResourceBinding) EffectiveSize() int {
	if b.Size > 0 || b.Buffer == nil {
		return b.Size
	}
	return b.Buffer.Size() - b.Offset
}

func (b ShaderResourceBinding) layoutEqual(o ShaderResourceBinding) bool {
	return b.Binding == o.Binding && b.Stages == o.Stages && b.Type == o.Type && b.HasDynamicOffset == o.HasDynamicOffset
}

// DynamicOffset supplies the offset of a dynamic uniform buffer binding.
type DynamicOffset struct {
	Binding int
	Offset  uint32
}

// ShaderResourceBindings is the set of resources visible to a pipeline's
// shaders, the equivalent of a bind group.
type ShaderResourceBindings interface {
	Buildable
	Bindings() []ShaderResourceBinding
	// SetBindings replaces the bindings; call Build afterwards.
	SetBindings(b []ShaderResourceBinding)
	// BindingAt returns the entry with the given binding number.
	BindingAt(binding int) (ShaderResourceBinding, bool)
	// IsLayoutCompatible reports whether other has the same binding
	// numbers, stages and types, so pipelines built with one can use the
	// other.
	IsLayoutCompatible(other ShaderResourceBindings) bool
	srbBase() *SRBBase
}

// SRBBase holds the bindings of a ShaderResourceBindings.
type SRBBase struct {
	ResourceBase
	bindings []ShaderResourceBinding
}

// Bindings returns a copy of the bindings sorted by binding number.
func (s *SRBBase) Bindings() []ShaderResourceBinding { return slices.Clone(s.bindings) }

// SetBindings replaces the bindings.
func (s *SRBBase) SetBindings(b []ShaderResourceBinding) {
	s.bindings = slices.Clone(b)
	slices.SortStableFunc(s.bindings, func(a, b ShaderResourceBinding) int { return a.Binding - b.Binding })
}

// BindingAt looks up a binding number.
func (s *SRBBase) BindingAt(binding int) (ShaderResourceBinding, bool) {
	i, ok := slices.BinarySearchFunc(s.bindings, binding, func(b ShaderResourceBinding, n int) int { return b.Binding - n })
	if !ok {
		return ShaderResourceBinding{}, false
	}
	return s.bindings[i], true
}

// IsLayoutCompatible compares binding layouts, ignoring the bound
// resources.
func (s *SRBBase) IsLayoutCompatible(other ShaderResourceBindings) bool {
	if other == nil {
		return false
	}
	return slices.EqualFunc(s.bindings, other.srbBase().bindings, ShaderResourceBinding.layoutEqual)
}

// Validate checks that every binding references a resource of the right
// kind that is built and owned by the same device. Backends call it from
// Build.
func (s *SRBBase) Validate() error {
	for i, b := range s.bindings {
		if i > 0 && s.bindings[i-1].Binding == b.Binding {
			return fmt.Errorf("rhi: duplicate binding %d", b.Binding)
		}
		var res []Resource
		switch {
		case b.Type == UniformBufferBinding || b.Type.IsStorageBuffer():
			if b.Buffer == nil {
				return fmt.Errorf("binding %d: %w", b.Binding, ErrNilResource)
			}
			res = append(res, b.Buffer)
			if b.Type == UniformBufferBinding && b.Buffer.Usage()&UniformUsage == 0 {
				return fmt.Errorf("rhi: binding %d: buffer lacks UniformUsage", b.Binding)
			}
			if b.Type.IsStorageBuffer() && b.Buffer.Usage()&StorageUsage == 0 {
				return fmt.Errorf("rhi: binding %d: buffer lacks StorageUsage", b.Binding)
			}
		case b.Type == SampledTextureBinding:
			if b.Texture == nil || b.Sampler == nil {
				return fmt.Errorf("binding %d: %w", b.Binding, ErrNilResource)
			}
			res = append(res, b.Texture, b.Sampler)
		case b.Type.IsImage():
			if b.Texture == nil {
				return fmt.Errorf("binding %d: %w", b.Binding, ErrNilResource)
			}
			if b.Texture.Flags()&TextureUsedWithLoadStore == 0 {
				return fmt.Errorf("rhi: binding %d: texture lacks TextureUsedWithLoadStore", b.Binding)
			}
			res = append(res, b.Texture)
		}
		for _, r := range res {
			if err := checkUsable(s.dev, r); err != nil {
				return fmt.Errorf("binding %d: %w", b.Binding, err)
			}
		}
	}
	return nil
}

func (s *SRBBase) srbBase() *SRBBase { return s }
