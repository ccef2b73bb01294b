// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgslreflect

import (
	"errors"
	"testing"

	"github.com/gogpu/rhi/shaderdesc"
)

const colorShader = `
struct buf {
    mvp: mat4x4<f32>,
    opacity: f32,
}

@group(0) @binding(0) var<uniform> ubuf: buf;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
}

@vertex
fn vs_main(@location(0) position: vec4<f32>, @location(1) color: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = ubuf.mvp * position;
    out.color = color * ubuf.opacity;
    return out;
}

@fragment
fn fs_main(@location(0) color: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(color, ubuf.opacity);
}
`

const computeShader = `
struct Particles {
    count: u32,
    items: array<vec4<f32>>,
}

@group(0) @binding(1) var<storage, read_write> particles: Particles;
@group(0) @binding(2) var outImage: texture_storage_2d<rgba8unorm, write>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let c = vec4<f32>(1.0, 0.0, 0.0, 1.0);
    particles.items[id.x] = c;
    textureStore(outImage, vec2<i32>(i32(id.x), i32(id.y)), c);
}
`

func TestReflectVertexMatchesColorExample(t *testing.T) {
	desc, err := Reflect(colorShader, Vertex)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}

	ins := desc.InputVariables()
	if len(ins) != 2 {
		t.Fatalf("inputs = %v, want 2", ins)
	}
	if ins[1].Name != "color" || ins[1].Type != shaderdesc.Vec3 || ins[1].Location != 1 {
		t.Errorf("input[1] = %v, want vec3 color at location 1", ins[1])
	}
	if ins[1].Binding != -1 || ins[1].DescriptorSet != -1 {
		t.Errorf("input[1] binding/set = %d/%d, want absent", ins[1].Binding, ins[1].DescriptorSet)
	}

	outs := desc.OutputVariables()
	if len(outs) != 1 || outs[0].Name != "color" || outs[0].Location != 0 {
		t.Errorf("outputs = %v, want one location 0 color (builtin skipped)", outs)
	}

	ubs := desc.UniformBlocks()
	if len(ubs) != 1 {
		t.Fatalf("uniform blocks = %v", ubs)
	}
	ub := ubs[0]
	if ub.BlockName != "buf" || ub.StructName != "ubuf" || ub.Size != 68 {
		t.Errorf("block = %s/%s size %d, want buf/ubuf size 68", ub.BlockName, ub.StructName, ub.Size)
	}
	if ub.Binding != 0 || ub.DescriptorSet != 0 {
		t.Errorf("binding/set = %d/%d", ub.Binding, ub.DescriptorSet)
	}
	mvp, opacity := ub.Members[0], ub.Members[1]
	if mvp.Type != shaderdesc.Mat4 || mvp.Size != 64 || mvp.MatrixStride != 16 || mvp.Offset != 0 {
		t.Errorf("mvp = %v", mvp)
	}
	if opacity.Type != shaderdesc.Float || opacity.Offset != 64 || opacity.Size != 4 || opacity.MatrixStride != 0 {
		t.Errorf("opacity = %v", opacity)
	}
}

func TestReflectFragment(t *testing.T) {
	desc, err := Reflect(colorShader, Fragment)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	outs := desc.OutputVariables()
	if len(outs) != 1 || outs[0].Name != "out0" || outs[0].Type != shaderdesc.Vec4 {
		t.Errorf("outputs = %v, want vec4 out0", outs)
	}
}

func TestReflectCompute(t *testing.T) {
	ep, err := ReflectEntryPoint(computeShader, "main")
	if err != nil {
		t.Fatalf("ReflectEntryPoint() error = %v", err)
	}
	if ep.Stage != Compute {
		t.Errorf("stage = %v, want compute", ep.Stage)
	}
	if ep.Workgroup != [3]uint32{8, 8, 1} {
		t.Errorf("workgroup = %v", ep.Workgroup)
	}

	sbs := ep.Description.StorageBlocks()
	if len(sbs) != 1 {
		t.Fatalf("storage blocks = %v", sbs)
	}
	sb := sbs[0]
	if sb.InstanceName != "particles" || sb.BlockName != "Particles" || sb.Binding != 1 {
		t.Errorf("storage block = %v", sb)
	}
	if sb.KnownSize != 16 {
		t.Errorf("knownSize = %d, want 16 (runtime tail excluded)", sb.KnownSize)
	}
	items := sb.Members[1]
	if !items.IsRuntimeSized() || items.ArrayStride != 16 || items.Type != shaderdesc.Vec4 {
		t.Errorf("items = %v", items)
	}

	imgs := ep.Description.StorageImages()
	if len(imgs) != 1 {
		t.Fatalf("storage images = %v", imgs)
	}
	img := imgs[0]
	if img.Type != shaderdesc.Image2D || img.ImageFormat != shaderdesc.ImageFormatRgba8 ||
		img.ImageFlags != shaderdesc.WriteOnlyImage || img.Binding != 2 {
		t.Errorf("image = %v", img)
	}
}

func TestReflectStorageImageFormats(t *testing.T) {
	tests := []struct {
		decl       string
		wantFormat shaderdesc.ImageFormat
		wantFlags  shaderdesc.ImageFlags
	}{
		{"texture_storage_2d<rgba16float, write>", shaderdesc.ImageFormatRgba16f, shaderdesc.WriteOnlyImage},
		{"texture_storage_2d<r32float, read>", shaderdesc.ImageFormatR32f, shaderdesc.ReadOnlyImage},
		{"texture_storage_2d<rgba32uint, read_write>", shaderdesc.ImageFormatRgba32ui, 0},
	}
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			src := "@group(0) @binding(0) var img: " + tt.decl + ";\n" +
				"@compute @workgroup_size(1)\nfn main() { _ = textureDimensions(img); }\n"
			desc, err := Reflect(src, Compute)
			if err != nil {
				t.Fatalf("Reflect: %v", err)
			}
			imgs := desc.StorageImages()
			if len(imgs) != 1 {
				t.Fatalf("storage images = %v", imgs)
			}
			if imgs[0].ImageFormat != tt.wantFormat || imgs[0].ImageFlags != tt.wantFlags {
				t.Errorf("image = %v, want format %v flags %v", imgs[0], tt.wantFormat, tt.wantFlags)
			}
		})
	}
}

func TestReflectMissingStage(t *testing.T) {
	_, err := Reflect(computeShader, Vertex)
	if !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("Reflect() error = %v, want ErrNoEntryPoint", err)
	}
	_, err = ReflectEntryPoint(computeShader, "nope")
	if !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("ReflectEntryPoint() error = %v, want ErrNoEntryPoint", err)
	}
}

func TestReflectParseError(t *testing.T) {
	if _, err := ReflectAll("fn broken( {"); err == nil {
		t.Fatal("ReflectAll() accepted invalid source")
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in   string
		want Stage
		ok   bool
	}{
		{"vertex", Vertex, true},
		{"frag", Fragment, true},
		{"cs", Compute, true},
		{"geometry", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseStage(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("ParseStage(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestReflectedDescriptionRoundTrips(t *testing.T) {
	eps, err := ReflectAll(colorShader + computeShader)
	if err != nil {
		t.Fatalf("ReflectAll() error = %v", err)
	}
	for _, ep := range eps {
		got := shaderdesc.FromBinary(ep.Description.ToBinary())
		if !got.Equal(ep.Description) {
			t.Errorf("%s: round trip mismatch", ep.Name)
		}
	}
}
