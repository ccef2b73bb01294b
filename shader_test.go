// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/backend/null"
)

const blurWGSL = `
struct Params {
    radius: i32,
    weights: array<vec4<f32>, 4>,
}
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var src: texture_2d<f32>;
@group(0) @binding(2) var src_sampler: sampler;
@group(0) @binding(3) var dst: texture_storage_2d<rgba8unorm, write>;
@group(0) @binding(4) var<storage, read> offsets: array<vec2<i32>>;

@compute @workgroup_size(8, 8)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let o = offsets[0];
    let c = textureSampleLevel(src, src_sampler, vec2<f32>(0.0), 0.0) * params.weights[0];
    textureStore(dst, vec2<i32>(id.xy) + o, c);
}
`

type blurResources struct {
	dev     *rhi.Device
	ubuf    rhi.Buffer
	sbuf    rhi.Buffer
	tex     rhi.Texture
	storage rhi.Texture
	sampler rhi.Sampler
}

func newBlurResources(t *testing.T) blurResources {
	t.Helper()
	dev, err := rhi.NewDevice(null.New())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(dev.Close)
	r := blurResources{
		dev:     dev,
		ubuf:    dev.NewBuffer(rhi.Dynamic, rhi.UniformUsage, 256),
		sbuf:    dev.NewBuffer(rhi.Static, rhi.StorageUsage, 64),
		tex:     dev.NewTexture(rhi.RGBA8, rhi.Size{Width: 64, Height: 64}, 1, 0),
		storage: dev.NewTexture(rhi.RGBA8, rhi.Size{Width: 64, Height: 64}, 1, rhi.TextureUsedWithLoadStore),
		sampler: dev.NewSampler(rhi.Linear, rhi.Linear, rhi.FilterNone, rhi.ClampToEdge, rhi.ClampToEdge, rhi.ClampToEdge),
	}
	for _, res := range []rhi.Buildable{r.ubuf, r.sbuf, r.tex, r.storage, r.sampler} {
		if err := res.Build(); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func (r blurResources) bindings() []rhi.ShaderResourceBinding {
	return []rhi.ShaderResourceBinding{
		rhi.UniformBuffer(0, rhi.ComputeVisible, r.ubuf, 0, 0),
		rhi.SampledTexture(1, rhi.ComputeVisible, r.tex, r.sampler),
		rhi.ImageStore(3, rhi.ComputeVisible, r.storage, 0),
		rhi.BufferLoad(4, rhi.ComputeVisible, r.sbuf, 0, 0),
	}
}

func TestValidateShaderResources(t *testing.T) {
	cs, err := rhi.NewShaderFromWGSL(rhi.ComputeStage, blurWGSL)
	if err != nil {
		t.Fatalf("NewShaderFromWGSL: %v", err)
	}
	if cs.EntryPoint != "main" {
		t.Errorf("EntryPoint = %q", cs.EntryPoint)
	}
	stages := []rhi.ShaderStage{{Type: rhi.ComputeStage, Shader: cs}}
	r := newBlurResources(t)

	tests := []struct {
		name    string
		mutate  func(b []rhi.ShaderResourceBinding) []rhi.ShaderResourceBinding
		wantSub string
	}{
		{"complete", nil, ""},
		{"missing uniform", func(b []rhi.ShaderResourceBinding) []rhi.ShaderResourceBinding { return b[1:] }, "binding 0 missing"},
		{"uniform too small", func(b []rhi.ShaderResourceBinding) []rhi.ShaderResourceBinding {
			b[0] = rhi.UniformBuffer(0, rhi.ComputeVisible, r.ubuf, 0, 16)
			return b
		}, "exposes 16 bytes, block needs 80"},
		{"wrong stage", func(b []rhi.ShaderResourceBinding) []rhi.ShaderResourceBinding {
			b[0].Stages = rhi.FragmentVisible
			return b
		}, "not visible"},
		{"storage as uniform", func(b []rhi.ShaderResourceBinding) []rhi.ShaderResourceBinding {
			b[3] = rhi.UniformBuffer(4, rhi.ComputeVisible, r.ubuf, 0, 0)
			return b
		}, "want a storage buffer"},
		{"read-only image for write", func(b []rhi.ShaderResourceBinding) []rhi.ShaderResourceBinding {
			b[2] = rhi.ImageLoad(3, rhi.ComputeVisible, r.storage, 0)
			return b
		}, "read-only, shader writes"},
		{"image as sampled texture", func(b []rhi.ShaderResourceBinding) []rhi.ShaderResourceBinding {
			b[2] = rhi.SampledTexture(3, rhi.ComputeVisible, r.storage, r.sampler)
			return b
		}, "want a storage image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := r.bindings()
			if tt.mutate != nil {
				b = tt.mutate(b)
			}
			srb := r.dev.NewShaderResourceBindings()
			srb.SetBindings(b)
			err := rhi.ValidateShaderResources(stages, srb)
			if tt.wantSub == "" {
				if err != nil {
					t.Fatalf("ValidateShaderResources: %v", err)
				}
				return
			}
			if !errors.Is(err, rhi.ErrBindingMismatch) {
				t.Fatalf("err = %v, want ErrBindingMismatch", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("err = %q, want it to contain %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidateShaderResourcesReportsAll(t *testing.T) {
	cs, err := rhi.NewShaderFromWGSL(rhi.ComputeStage, blurWGSL)
	if err != nil {
		t.Fatal(err)
	}
	err = rhi.ValidateShaderResources([]rhi.ShaderStage{{Type: rhi.ComputeStage, Shader: cs}}, nil)
	if err == nil {
		t.Fatal("nil bindings accepted")
	}
	// uniform, sampled texture, storage image, storage buffer
	if n := strings.Count(err.Error(), "has no shader resource bindings"); n != 4 {
		t.Errorf("reported %d mismatches, want 4:\n%v", n, err)
	}
}

func TestValidateShaderResourcesGroup(t *testing.T) {
	cs, err := rhi.NewShaderFromWGSL(rhi.ComputeStage, `
@group(1) @binding(0) var<storage, read_write> data: array<f32>;

@compute @workgroup_size(1)
fn main() {
    data[0] = 1.0;
}
`)
	if err != nil {
		t.Fatal(err)
	}
	err = rhi.ValidateShaderResources([]rhi.ShaderStage{{Type: rhi.ComputeStage, Shader: cs}}, nil)
	if err == nil || !strings.Contains(err.Error(), "group 1") {
		t.Errorf("err = %v, want group 1 rejected", err)
	}
}

func TestSRBValidate(t *testing.T) {
	r := newBlurResources(t)
	unbuilt := r.dev.NewBuffer(rhi.Dynamic, rhi.UniformUsage, 64)
	vertexOnly := r.dev.NewBuffer(rhi.Static, rhi.VertexUsage, 64)
	if err := vertexOnly.Build(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		bindings []rhi.ShaderResourceBinding
		wantErr  error
	}{
		{"valid", r.bindings(), nil},
		{"duplicate", []rhi.ShaderResourceBinding{
			rhi.UniformBuffer(0, rhi.ComputeVisible, r.ubuf, 0, 0),
			rhi.BufferLoad(0, rhi.ComputeVisible, r.sbuf, 0, 0),
		}, nil},
		{"nil buffer", []rhi.ShaderResourceBinding{rhi.UniformBuffer(0, rhi.ComputeVisible, nil, 0, 0)}, rhi.ErrNilResource},
		{"unbuilt", []rhi.ShaderResourceBinding{rhi.UniformBuffer(0, rhi.ComputeVisible, unbuilt, 0, 0)}, rhi.ErrNotBuilt},
		{"wrong usage", []rhi.ShaderResourceBinding{rhi.UniformBuffer(0, rhi.ComputeVisible, vertexOnly, 0, 0)}, nil},
		{"image without load store", []rhi.ShaderResourceBinding{rhi.ImageStore(0, rhi.ComputeVisible, r.tex, 0)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srb := r.dev.NewShaderResourceBindings()
			srb.SetBindings(tt.bindings)
			err := srb.(interface{ Validate() error }).Validate()
			if tt.name == "valid" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSRBBindingOrder(t *testing.T) {
	r := newBlurResources(t)
	srb := r.dev.NewShaderResourceBindings()
	srb.SetBindings([]rhi.ShaderResourceBinding{
		rhi.BufferLoad(4, rhi.ComputeVisible, r.sbuf, 0, 0),
		rhi.UniformBuffer(0, rhi.ComputeVisible, r.ubuf, 0, 0),
	})
	got := srb.Bindings()
	if got[0].Binding != 0 || got[1].Binding != 4 {
		t.Errorf("Bindings() not sorted: %d, %d", got[0].Binding, got[1].Binding)
	}
	if b, ok := srb.BindingAt(4); !ok || b.Type != rhi.BufferLoadBinding {
		t.Errorf("BindingAt(4) = %v, %v", b.Type, ok)
	}
	if _, ok := srb.BindingAt(2); ok {
		t.Error("BindingAt(2) found a binding")
	}
	if got := (rhi.ShaderResourceBinding{Buffer: r.ubuf, Offset: 16}).EffectiveSize(); got != 240 {
		t.Errorf("EffectiveSize() = %d, want 240", got)
	}
}

func TestNewShaderFromWGSLStageMissing(t *testing.T) {
	if _, err := rhi.NewShaderFromWGSL(rhi.VertexStage, blurWGSL); err == nil {
		t.Error("vertex stage found in a compute-only module")
	}
	if _, err := rhi.NewShaderFromWGSLEntryPoint(blurWGSL, "nope"); err == nil {
		t.Error("unknown entry point accepted")
	}
}
