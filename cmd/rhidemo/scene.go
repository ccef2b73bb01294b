// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"

	"github.com/gogpu/rhi"
)

const triangleWGSL = `
struct Uniforms {
    rotation: mat4x4<f32>,
}
@group(0) @binding(0) var<uniform> u: Uniforms;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
}

@vertex
fn vs_main(@location(0) position: vec2<f32>, @location(1) color: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = u.rotation * vec4<f32>(position, 0.0, 1.0);
    out.color = color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(in.color, 1.0);
}
`

// x, y, r, g, b
var triangleVertices = []float32{
	0.0, 0.7, 1, 0, 0,
	-0.6, -0.5, 0, 1, 0,
	0.6, -0.5, 0, 0, 1,
}

type scene struct {
	vbuf     rhi.Buffer
	ubuf     rhi.Buffer
	srb      rhi.ShaderResourceBindings
	pipeline rhi.GraphicsPipeline
	uploaded bool
}

func newScene(dev *rhi.Device, rp rhi.RenderPassDescriptor) (*scene, error) {
	vs, err := rhi.NewShaderFromWGSLEntryPoint(triangleWGSL, "vs_main")
	if err != nil {
		return nil, err
	}
	fs, err := rhi.NewShaderFromWGSLEntryPoint(triangleWGSL, "fs_main")
	if err != nil {
		return nil, err
	}

	s := &scene{
		vbuf: dev.NewBuffer(rhi.Immutable, rhi.VertexUsage, len(triangleVertices)*4),
		ubuf: dev.NewBuffer(rhi.Dynamic, rhi.UniformUsage, 64),
		srb:  dev.NewShaderResourceBindings(),
	}
	s.vbuf.SetName("triangle_vertices")
	s.ubuf.SetName("triangle_uniforms")
	for _, r := range []rhi.Buildable{s.vbuf, s.ubuf} {
		if err := r.Build(); err != nil {
			s.release()
			return nil, err
		}
	}
	s.srb.SetBindings([]rhi.ShaderResourceBinding{
		rhi.UniformBuffer(0, rhi.VertexVisible, s.ubuf, 0, 64),
	})
	if err := s.srb.Build(); err != nil {
		s.release()
		return nil, err
	}

	s.pipeline = dev.NewGraphicsPipeline()
	d := s.pipeline.Desc()
	d.ShaderStages = []rhi.ShaderStage{{Type: rhi.VertexStage, Shader: vs}, {Type: rhi.FragmentStage, Shader: fs}}
	d.ShaderResourceBindings = s.srb
	d.RenderPassDescriptor = rp
	d.VertexInputLayout = rhi.VertexInputLayout{
		Bindings: []rhi.VertexInputBinding{{Stride: 5 * 4}},
		Attributes: []rhi.VertexInputAttribute{
			{Binding: 0, Location: 0, Format: rhi.Float2, Offset: 0},
			{Binding: 0, Location: 1, Format: rhi.Float3, Offset: 2 * 4},
		},
	}
	if err := s.pipeline.Build(); err != nil {
		s.release()
		return nil, err
	}
	return s, nil
}

// record draws frame i into the swap chain. extra is merged into the
// updates applied at the end of the pass.
func (s *scene) record(dev *rhi.Device, sc rhi.SwapChain, i int, extra *rhi.ResourceUpdateBatch) error {
	cb := sc.CurrentFrameCommandBuffer()
	u := dev.NextResourceUpdateBatch()
	if !s.uploaded {
		u.UploadStaticBuffer(s.vbuf, 0, floatBytes(triangleVertices))
		s.uploaded = true
	}
	u.UpdateDynamicBuffer(s.ubuf, 0, floatBytes(rotationZ(float32(i)*math32.Pi/90)))

	rt := sc.CurrentFrameRenderTarget()
	if err := cb.BeginPass(rt, rhi.Color{R: 0.1, G: 0.1, B: 0.15, A: 1}, rhi.DefaultDepthStencilClear, u); err != nil {
		return err
	}
	cb.DebugMarkBegin("triangle")
	size := rt.PixelSize()
	steps := []func() error{
		func() error { return cb.SetGraphicsPipeline(s.pipeline) },
		func() error {
			return cb.SetViewport(rhi.NewViewport(0, 0, float32(size.Width), float32(size.Height)))
		},
		func() error { return cb.SetShaderResources(nil) },
		func() error { return cb.SetVertexInput(0, []rhi.VertexInput{{Buffer: s.vbuf}}, nil, 0, rhi.IndexUInt16) },
		func() error { return cb.Draw(3, 1, 0, 0) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			cb.DebugMarkEnd()
			_ = cb.EndPass(nil)
			return err
		}
	}
	cb.DebugMarkEnd()
	return cb.EndPass(extra)
}

func (s *scene) release() {
	for _, r := range []rhi.Resource{s.pipeline, s.srb, s.ubuf, s.vbuf} {
		if r != nil {
			r.Release()
		}
	}
}

// rotationZ returns a column-major rotation about the Z axis.
func rotationZ(angle float32) []float32 {
	c, sn := math32.Cos(angle), math32.Sin(angle)
	return []float32{
		c, sn, 0, 0,
		-sn, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func floatBytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}
