// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"fmt"
	"slices"
)

// GraphicsPipelineFlags enables dynamic state on a graphics pipeline.
type GraphicsPipelineFlags int

const (
	UsesBlendConstants GraphicsPipelineFlags = 1 << iota
	UsesStencilRef
	UsesScissor
)

// GraphicsPipelineDesc is the full state of a graphics pipeline. Modify it
// through GraphicsPipeline.Desc before Build.
type GraphicsPipelineDesc struct {
	Flags     GraphicsPipelineFlags
	Topology  Topology
	CullMode  CullMode
	FrontFace FrontFace

	// TargetBlends has one entry per color attachment. Missing entries use
	// DefaultTargetBlend.
	TargetBlends []TargetBlend

	DepthTest    bool
	DepthWrite   bool
	DepthOp      CompareOp
	StencilTest  bool
	StencilFront StencilOpState
	StencilBack  StencilOpState
	StencilRead  uint32
	StencilWrite uint32

	SampleCount int
	LineWidth   float32

	ShaderStages           []ShaderStage
	VertexInputLayout      VertexInputLayout
	ShaderResourceBindings ShaderResourceBindings
	RenderPassDescriptor   RenderPassDescriptor
}

// DefaultGraphicsPipelineDesc returns the initial state of a new pipeline.
func DefaultGraphicsPipelineDesc() GraphicsPipelineDesc {
	return GraphicsPipelineDesc{
		DepthOp:      Less,
		StencilFront: DefaultStencilOpState,
		StencilBack:  DefaultStencilOpState,
		StencilRead:  0xFF,
		StencilWrite: 0xFF,
		SampleCount:  1,
		LineWidth:    1,
	}
}

// Stage returns the shader of the given stage.
func (d *GraphicsPipelineDesc) Stage(t StageType) (Shader, bool) {
	i := slices.IndexFunc(d.ShaderStages, func(s ShaderStage) bool { return s.Type == t })
	if i < 0 {
		return Shader{}, false
	}
	return d.ShaderStages[i].Shader, true
}

// TargetBlend returns the blend state of color attachment i.
func (d *GraphicsPipelineDesc) TargetBlend(i int) TargetBlend {
	if i < len(d.TargetBlends) {
		return d.TargetBlends[i]
	}
	return DefaultTargetBlend
}

// GraphicsPipeline is a compiled raster pipeline.
type GraphicsPipeline interface {
	Buildable
	Desc() *GraphicsPipelineDesc
	graphicsPipelineBase() *GraphicsPipelineBase
}

// GraphicsPipelineBase holds the description of a graphics pipeline.
type GraphicsPipelineBase struct {
	ResourceBase
	desc GraphicsPipelineDesc
}

// Desc returns the mutable description.
func (p *GraphicsPipelineBase) Desc() *GraphicsPipelineDesc { return &p.desc }

// Validate checks the description before a backend builds it. A missing
// vertex shader or render pass descriptor is an error. Binding mismatches
// are returned separately so backends can choose to only warn.
func (p *GraphicsPipelineBase) Validate() (bindingErr error, err error) {
	vs, ok := p.desc.Stage(VertexStage)
	if !ok || !vs.IsValid() {
		return nil, fmt.Errorf("%w: vertex", ErrMissingShader)
	}
	if p.desc.RenderPassDescriptor == nil {
		return nil, fmt.Errorf("rhi: graphics pipeline %q: no render pass descriptor", p.name)
	}
	if p.desc.ShaderResourceBindings != nil {
		if err := checkUsable(p.dev, p.desc.ShaderResourceBindings); err != nil {
			return nil, err
		}
	}
	for _, a := range p.desc.VertexInputLayout.Attributes {
		if a.Binding < 0 || a.Binding >= len(p.desc.VertexInputLayout.Bindings) {
			return nil, fmt.Errorf("rhi: vertex attribute at location %d references binding %d", a.Location, a.Binding)
		}
	}
	return ValidateShaderResources(p.desc.ShaderStages, p.desc.ShaderResourceBindings), nil
}

func (p *GraphicsPipelineBase) graphicsPipelineBase() *GraphicsPipelineBase { return p }

// ComputePipelineDesc is the state of a compute pipeline.
type ComputePipelineDesc struct {
	ShaderStage            ShaderStage
	ShaderResourceBindings ShaderResourceBindings
}

// ComputePipeline is a compiled compute pipeline.
type ComputePipeline interface {
	Buildable
	Desc() *ComputePipelineDesc
	computePipelineBase() *ComputePipelineBase
}

// ComputePipelineBase holds the description of a compute pipeline.
type ComputePipelineBase struct {
	ResourceBase
	desc ComputePipelineDesc
}

// Desc returns the mutable description.
func (p *ComputePipelineBase) Desc() *ComputePipelineDesc { return &p.desc }

// Validate checks the description before a backend builds it, see
// GraphicsPipelineBase.Validate.
func (p *ComputePipelineBase) Validate() (bindingErr error, err error) {
	st := p.desc.ShaderStage
	if st.Type != ComputeStage || !st.Shader.IsValid() {
		return nil, fmt.Errorf("%w: compute", ErrMissingShader)
	}
	if p.desc.ShaderResourceBindings != nil {
		if err := checkUsable(p.dev, p.desc.ShaderResourceBindings); err != nil {
			return nil, err
		}
	}
	return ValidateShaderResources([]ShaderStage{st}, p.desc.ShaderResourceBindings), nil
}

func (p *ComputePipelineBase) computePipelineBase() *ComputePipelineBase { return p }
