// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

type graphicsPipeline struct {
	rhi.GraphicsPipelineBase
	b       *Backend
	raw     hal.RenderPipeline
	layout  hal.PipelineLayout
	modules []uint64
}

// NewGraphicsPipeline implements rhi.Backend.
func (b *Backend) NewGraphicsPipeline(base rhi.GraphicsPipelineBase) rhi.GraphicsPipeline {
	return &graphicsPipeline{GraphicsPipelineBase: base, b: b}
}

func (p *graphicsPipeline) Build() error {
	if p.IsBuilt() {
		p.Release()
	}
	if err := pipelineBuildError(p.Validate()); err != nil {
		return fmt.Errorf("native: graphics pipeline %q: %w", p.Name(), err)
	}
	if err := p.build(); err != nil {
		p.destroy()
		return fmt.Errorf("native: graphics pipeline %q: %w", p.Name(), err)
	}
	p.MarkBuilt()
	return nil
}

func (p *graphicsPipeline) module(label string, sh rhi.Shader) (hal.ShaderModule, error) {
	m, key, err := p.b.modules.acquire(label, sh.Source)
	if err != nil {
		return nil, err
	}
	p.modules = append(p.modules, key)
	return m, nil
}

func (p *graphicsPipeline) build() error {
	desc := p.Desc()
	rp := desc.RenderPassDescriptor

	layout, err := p.b.pipelineLayout(p.Name(), desc.ShaderResourceBindings)
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.layout = layout

	buffers, err := vertexBuffers(desc.VertexInputLayout)
	if err != nil {
		return err
	}
	vs, _ := desc.Stage(rhi.VertexStage)
	vsModule, err := p.module(p.Name()+"_vs", vs)
	if err != nil {
		return err
	}

	var fragment *hal.FragmentState
	if fs, ok := desc.Stage(rhi.FragmentStage); ok && fs.IsValid() {
		fsModule, err := p.module(p.Name()+"_fs", fs)
		if err != nil {
			return err
		}
		targets := make([]gputypes.ColorTargetState, 0, len(rp.ColorFormats()))
		for i, f := range rp.ColorFormats() {
			targets = append(targets, colorTarget(f.GPUFormat(), desc.TargetBlend(i)))
		}
		fragment = &hal.FragmentState{
			Module:     fsModule,
			EntryPoint: fs.EntryPoint,
			Targets:    targets,
		}
	}

	var depthStencil *hal.DepthStencilState
	if f := rp.DepthStencilFormat(); f != rhi.UnknownFormat {
		depthStencil = &hal.DepthStencilState{
			Format:            f.GPUFormat(),
			DepthWriteEnabled: desc.DepthTest && desc.DepthWrite,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      stencilFace(rhi.DefaultStencilOpState),
			StencilBack:       stencilFace(rhi.DefaultStencilOpState),
			StencilReadMask:   desc.StencilRead,
			StencilWriteMask:  desc.StencilWrite,
		}
		if desc.DepthTest {
			depthStencil.DepthCompare = compareFunction(desc.DepthOp)
		}
		if desc.StencilTest {
			depthStencil.StencilFront = stencilFace(desc.StencilFront)
			depthStencil.StencilBack = stencilFace(desc.StencilBack)
		}
	}

	raw, err := p.b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.Name(),
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     vsModule,
			EntryPoint: vs.EntryPoint,
			Buffers:    buffers,
		},
		Fragment:     fragment,
		DepthStencil: depthStencil,
		Multisample: gputypes.MultisampleState{
			Count: uint32(max(desc.SampleCount, 1)),
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  topology(desc.Topology),
			FrontFace: frontFace(desc.FrontFace),
			CullMode:  cullMode(desc.CullMode),
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	p.raw = raw
	return nil
}

func (p *graphicsPipeline) destroy() {
	if p.b.alive() {
		if p.raw != nil {
			p.b.device.DestroyRenderPipeline(p.raw)
		}
		if p.layout != nil {
			p.b.device.DestroyPipelineLayout(p.layout)
		}
		for _, key := range p.modules {
			p.b.modules.release(key)
		}
	}
	p.raw, p.layout, p.modules = nil, nil, nil
}

func (p *graphicsPipeline) Release() {
	if !p.MarkReleased() {
		return
	}
	p.destroy()
}

type computePipeline struct {
	rhi.ComputePipelineBase
	b      *Backend
	raw    hal.ComputePipeline
	layout hal.PipelineLayout
	module uint64
	hasMod bool
}

// NewComputePipeline implements rhi.Backend.
func (b *Backend) NewComputePipeline(base rhi.ComputePipelineBase) rhi.ComputePipeline {
	return &computePipeline{ComputePipelineBase: base, b: b}
}

func (p *computePipeline) Build() error {
	if p.IsBuilt() {
		p.Release()
	}
	if err := pipelineBuildError(p.Validate()); err != nil {
		return fmt.Errorf("native: compute pipeline %q: %w", p.Name(), err)
	}
	if err := p.build(); err != nil {
		p.destroy()
		return fmt.Errorf("native: compute pipeline %q: %w", p.Name(), err)
	}
	p.MarkBuilt()
	return nil
}

func (p *computePipeline) build() error {
	desc := p.Desc()
	layout, err := p.b.pipelineLayout(p.Name(), desc.ShaderResourceBindings)
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.layout = layout
	cs := desc.ShaderStage.Shader
	module, key, err := p.b.modules.acquire(p.Name()+"_cs", cs.Source)
	if err != nil {
		return err
	}
	p.module, p.hasMod = key, true
	raw, err := p.b.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  p.Name(),
		Layout: layout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: cs.EntryPoint,
		},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	p.raw = raw
	return nil
}

func (p *computePipeline) destroy() {
	if p.b.alive() {
		if p.raw != nil {
			p.b.device.DestroyComputePipeline(p.raw)
		}
		if p.layout != nil {
			p.b.device.DestroyPipelineLayout(p.layout)
		}
		if p.hasMod {
			p.b.modules.release(p.module)
		}
	}
	p.raw, p.layout, p.hasMod = nil, nil, false
}

func (p *computePipeline) Release() {
	if !p.MarkReleased() {
		return
	}
	p.destroy()
}
