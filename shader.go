// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"errors"
	"fmt"

	"github.com/gogpu/rhi/shaderdesc"
	"github.com/gogpu/rhi/shaderdesc/wgslreflect"
)

// Shader is WGSL source for one stage together with its reflected
// interface.
type Shader struct {
	Stage       StageType
	Source      string
	EntryPoint  string
	Description shaderdesc.Description
}

// IsValid reports whether the shader carries source.
func (s Shader) IsValid() bool { return s.Source != "" }

func reflectStage(s StageType) wgslreflect.Stage {
	switch s {
	case FragmentStage:
		return wgslreflect.Fragment
	case ComputeStage:
		return wgslreflect.Compute
	default:
		return wgslreflect.Vertex
	}
}

// NewShaderFromWGSL reflects source and returns the shader for the first
// entry point of stage.
func NewShaderFromWGSL(stage StageType, source string) (Shader, error) {
	eps, err := wgslreflect.ReflectAll(source)
	if err != nil {
		return Shader{}, err
	}
	want := reflectStage(stage)
	for _, ep := range eps {
		if ep.Stage == want {
			return Shader{Stage: stage, Source: source, EntryPoint: ep.Name, Description: ep.Description}, nil
		}
	}
	return Shader{}, fmt.Errorf("%w: stage %s", wgslreflect.ErrNoEntryPoint, stage)
}

// NewShaderFromWGSLEntryPoint reflects source and returns the shader for
// the named entry point.
func NewShaderFromWGSLEntryPoint(source, entryPoint string) (Shader, error) {
	ep, err := wgslreflect.ReflectEntryPoint(source, entryPoint)
	if err != nil {
		return Shader{}, err
	}
	var stage StageType
	switch ep.Stage {
	case wgslreflect.Fragment:
		stage = FragmentStage
	case wgslreflect.Compute:
		stage = ComputeStage
	default:
		stage = VertexStage
	}
	return Shader{Stage: stage, Source: source, EntryPoint: ep.Name, Description: ep.Description}, nil
}

// ShaderStage pairs a stage with its shader in a pipeline description.
type ShaderStage struct {
	Type   StageType
	Shader Shader
}

// ValidateShaderResources checks that srb provides every resource the
// shaders of stages declare: a uniform buffer for each uniform block, a
// storage buffer for each storage block, a sampled texture for each
// combined image sampler and a storage image for each image, each visible
// to the stage and large enough. Every mismatch is reported, wrapped in
// ErrBindingMismatch.
func ValidateShaderResources(stages []ShaderStage, srb ShaderResourceBindings) error {
	var errs []error
	fail := func(st StageType, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s stage: %s", ErrBindingMismatch, st, fmt.Sprintf(format, args...)))
	}
	lookup := func(st StageType, name string, binding, set int) (ShaderResourceBinding, bool) {
		if set > 0 {
			fail(st, "%s uses group %d, only group 0 is supported", name, set)
			return ShaderResourceBinding{}, false
		}
		if srb == nil {
			fail(st, "%s at binding %d has no shader resource bindings", name, binding)
			return ShaderResourceBinding{}, false
		}
		b, ok := srb.BindingAt(binding)
		if !ok {
			fail(st, "%s: binding %d missing", name, binding)
			return ShaderResourceBinding{}, false
		}
		if b.Stages&st.Flag() == 0 {
			fail(st, "%s: binding %d not visible to stage", name, binding)
			return ShaderResourceBinding{}, false
		}
		return b, true
	}

	for _, s := range stages {
		st, desc := s.Type, s.Shader.Description
		for _, blk := range desc.UniformBlocks() {
			b, ok := lookup(st, blk.StructName, blk.Binding, blk.DescriptorSet)
			if !ok {
				continue
			}
			if b.Type != UniformBufferBinding {
				fail(st, "%s: binding %d is %s, want UniformBuffer", blk.StructName, blk.Binding, b.Type)
			} else if sz := b.EffectiveSize(); sz < blk.Size {
				fail(st, "%s: binding %d exposes %d bytes, block needs %d", blk.StructName, blk.Binding, sz, blk.Size)
			}
		}
		for _, blk := range desc.StorageBlocks() {
			b, ok := lookup(st, blk.InstanceName, blk.Binding, blk.DescriptorSet)
			if !ok {
				continue
			}
			if !b.Type.IsStorageBuffer() {
				fail(st, "%s: binding %d is %s, want a storage buffer", blk.InstanceName, blk.Binding, b.Type)
			} else if sz := b.EffectiveSize(); sz < blk.KnownSize {
				fail(st, "%s: binding %d exposes %d bytes, block needs %d", blk.InstanceName, blk.Binding, sz, blk.KnownSize)
			}
		}
		for _, v := range desc.CombinedImageSamplers() {
			if b, ok := lookup(st, v.Name, v.Binding, v.DescriptorSet); ok && b.Type != SampledTextureBinding {
				fail(st, "%s: binding %d is %s, want SampledTexture", v.Name, v.Binding, b.Type)
			}
		}
		for _, v := range desc.StorageImages() {
			b, ok := lookup(st, v.Name, v.Binding, v.DescriptorSet)
			if !ok {
				continue
			}
			switch {
			case !b.Type.IsImage():
				fail(st, "%s: binding %d is %s, want a storage image", v.Name, v.Binding, b.Type)
			case v.ImageFlags&shaderdesc.WriteOnlyImage != 0 && b.Type == ImageLoadBinding:
				fail(st, "%s: binding %d is read-only, shader writes it", v.Name, v.Binding)
			}
		}
	}
	return errors.Join(errs...)
}
