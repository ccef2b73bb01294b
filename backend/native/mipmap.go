// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// downsampleWGSL draws a fullscreen triangle sampling the previous level.
const downsampleWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
    let uv = vec2<f32>(f32((index << 1u) & 2u), f32(index & 2u));
    var out: VertexOutput;
    out.position = vec4<f32>(uv * vec2<f32>(2.0, -2.0) + vec2<f32>(-1.0, 1.0), 0.0, 1.0);
    out.uv = uv;
    return out;
}

@group(0) @binding(0) var src_texture: texture_2d<f32>;
@group(0) @binding(1) var src_sampler: sampler;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(src_texture, src_sampler, in.uv);
}
`

// mipGenerator fills mip chains by rendering each level from the one above
// it with a linear filter. Pipelines are created lazily per format.
type mipGenerator struct {
	b *Backend

	mu        sync.Mutex
	module    hal.ShaderModule
	key       uint64
	sampler   hal.Sampler
	bgLayout  hal.BindGroupLayout
	layout    hal.PipelineLayout
	pipelines map[gputypes.TextureFormat]hal.RenderPipeline
}

func newMipGenerator(b *Backend) *mipGenerator {
	return &mipGenerator{b: b, pipelines: make(map[gputypes.TextureFormat]hal.RenderPipeline)}
}

// filterable reports whether f can be sampled with a linear filter without
// optional device features.
func filterable(f rhi.TextureFormat) bool {
	switch f {
	case rhi.RGBA32F, rhi.R32F:
		return false
	}
	return !f.IsDepth()
}

func (g *mipGenerator) init() error {
	if g.layout != nil {
		return nil
	}
	module, key, err := g.b.modules.acquire("mipmap", downsampleWGSL)
	if err != nil {
		return err
	}
	g.module, g.key = module, key
	g.sampler, err = g.b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "mipmap_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("create mipmap sampler: %w", err)
	}
	g.bgLayout, err = g.b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "mipmap_bind_group_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create mipmap bind group layout: %w", err)
	}
	g.layout, err = g.b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "mipmap_layout",
		BindGroupLayouts: []hal.BindGroupLayout{g.bgLayout},
	})
	if err != nil {
		return fmt.Errorf("create mipmap pipeline layout: %w", err)
	}
	return nil
}

func (g *mipGenerator) pipeline(format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	if p, ok := g.pipelines[format]; ok {
		return p, nil
	}
	p, err := g.b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "mipmap_pipeline",
		Layout: g.layout,
		Vertex: hal.VertexState{Module: g.module, EntryPoint: "vs_main"},
		Fragment: &hal.FragmentState{
			Module:     g.module,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{{Format: format, WriteMask: gputypes.ColorWriteMaskAll}},
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create mipmap pipeline: %w", err)
	}
	g.pipelines[format] = p
	return p, nil
}

// generate records one render pass per level after the base into r. The
// transient views and bind groups live until the frame is submitted.
func (g *mipGenerator) generate(r *recorder, t *Texture, layer int) error {
	levels := t.MipLevelCount()
	if levels < 2 {
		return nil
	}
	if !filterable(t.Format()) {
		return fmt.Errorf("generate mips for %q: format %s is not filterable", t.Name(), t.Format())
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.init(); err != nil {
		return err
	}
	pipe, err := g.pipeline(t.gpuFormat())
	if err != nil {
		return err
	}
	for level := 1; level < levels; level++ {
		src, err := t.subresourceView(level-1, layer)
		if err != nil {
			return fmt.Errorf("mip %d source view: %w", level, err)
		}
		r.views = append(r.views, src)
		dst, err := t.subresourceView(level, layer)
		if err != nil {
			return fmt.Errorf("mip %d target view: %w", level, err)
		}
		r.views = append(r.views, dst)
		group, err := g.b.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  fmt.Sprintf("mipmap_%d", level),
			Layout: g.bgLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: src.NativeHandle()}},
				{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: g.sampler.NativeHandle()}},
			},
		})
		if err != nil {
			return fmt.Errorf("mip %d bind group: %w", level, err)
		}
		r.groups = append(r.groups, group)

		pass := r.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: fmt.Sprintf("%s_mip%d", t.Name(), level),
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    dst,
				LoadOp:  gputypes.LoadOpClear,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		pass.SetPipeline(pipe)
		pass.SetBindGroup(0, group, nil)
		pass.Draw(3, 1, 0, 0)
		pass.End()
	}
	rhi.Logger().Debug("native: generated mips", "texture", t.Name(), "levels", levels, "layer", layer)
	return nil
}

func (g *mipGenerator) destroy() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.b.alive() {
		return
	}
	for f, p := range g.pipelines {
		g.b.device.DestroyRenderPipeline(p)
		delete(g.pipelines, f)
	}
	if g.layout != nil {
		g.b.device.DestroyPipelineLayout(g.layout)
	}
	if g.bgLayout != nil {
		g.b.device.DestroyBindGroupLayout(g.bgLayout)
	}
	if g.sampler != nil {
		g.b.device.DestroySampler(g.sampler)
	}
	if g.module != nil {
		g.b.modules.release(g.key)
	}
	g.module, g.sampler, g.bgLayout, g.layout = nil, nil, nil, nil
}
