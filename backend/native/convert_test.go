// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

func TestAlignedBytesPerRow(t *testing.T) {
	tests := []struct {
		tight, want uint32
	}{
		{0, 0},
		{1, 256},
		{256, 256},
		{257, 512},
		{100 * 4, 512},
		{1280 * 4, 5120},
	}
	for _, tt := range tests {
		if got := alignedBytesPerRow(tt.tight); got != tt.want {
			t.Errorf("alignedBytesPerRow(%d) = %d, want %d", tt.tight, got, tt.want)
		}
	}
}

func TestFlipRect(t *testing.T) {
	// A 10 pixel high rectangle at the bottom of a 100 pixel target starts
	// at row 90 from the top.
	if got := flipRect(0, 10, 100); got != 90 {
		t.Errorf("flipRect(0, 10, 100) = %v, want 90", got)
	}
	if got := flipRect(90, 10, 100); got != 0 {
		t.Errorf("flipRect(90, 10, 100) = %v, want 0", got)
	}
}

func TestTextureFormatSRGB(t *testing.T) {
	tests := []struct {
		f    rhi.TextureFormat
		srgb bool
		want gputypes.TextureFormat
	}{
		{rhi.RGBA8, false, gputypes.TextureFormatRGBA8Unorm},
		{rhi.RGBA8, true, gputypes.TextureFormatRGBA8UnormSrgb},
		{rhi.BGRA8, true, gputypes.TextureFormatBGRA8UnormSrgb},
		{rhi.R8, true, rhi.R8.GPUFormat()},
	}
	for _, tt := range tests {
		if got := textureFormat(tt.f, tt.srgb); got != tt.want {
			t.Errorf("textureFormat(%v, %v) = %v, want %v", tt.f, tt.srgb, got, tt.want)
		}
	}
}

func TestVertexFormat(t *testing.T) {
	if f, err := vertexFormat(rhi.Float3); err != nil || f != gputypes.VertexFormatFloat32x3 {
		t.Errorf("vertexFormat(Float3) = %v, %v", f, err)
	}
	if _, err := vertexFormat(rhi.UNormByte); err == nil {
		t.Error("vertexFormat(UNormByte) succeeded; WebGPU has no single-byte vertex format")
	}
}

func TestVertexBuffers(t *testing.T) {
	l := rhi.VertexInputLayout{
		Bindings: []rhi.VertexInputBinding{{Stride: 20}, {Stride: 16, PerInstance: true}},
		Attributes: []rhi.VertexInputAttribute{
			{Binding: 0, Location: 0, Format: rhi.Float3, Offset: 0},
			{Binding: 0, Location: 1, Format: rhi.Float2, Offset: 12},
			{Binding: 1, Location: 2, Format: rhi.Float4, Offset: 0},
		},
	}
	bufs, err := vertexBuffers(l)
	if err != nil {
		t.Fatal(err)
	}
	if len(bufs) != 2 {
		t.Fatalf("len = %d, want 2", len(bufs))
	}
	if bufs[0].ArrayStride != 20 || len(bufs[0].Attributes) != 2 {
		t.Errorf("binding 0 = %+v", bufs[0])
	}
	if bufs[1].StepMode != gputypes.VertexStepModeInstance {
		t.Errorf("binding 1 step mode = %v, want instance", bufs[1].StepMode)
	}
	if bufs[0].Attributes[1].Offset != 12 || bufs[0].Attributes[1].ShaderLocation != 1 {
		t.Errorf("attribute 1 = %+v", bufs[0].Attributes[1])
	}
}

func TestColorTarget(t *testing.T) {
	ct := colorTarget(gputypes.TextureFormatBGRA8Unorm, rhi.TargetBlend{ColorWrite: rhi.MaskR | rhi.MaskA})
	if ct.Blend != nil {
		t.Error("disabled blending produced a blend state")
	}
	if ct.WriteMask != gputypes.ColorWriteMaskRed|gputypes.ColorWriteMaskAlpha {
		t.Errorf("WriteMask = %v", ct.WriteMask)
	}

	ct = colorTarget(gputypes.TextureFormatBGRA8Unorm, rhi.TargetBlend{
		ColorWrite: rhi.MaskR | rhi.MaskG | rhi.MaskB | rhi.MaskA,
		Enable:     true,
		SrcColor:   rhi.One,
		DstColor:   rhi.OneMinusSrcAlpha,
		SrcAlpha:   rhi.One,
		DstAlpha:   rhi.OneMinusSrcAlpha,
	})
	if ct.Blend == nil {
		t.Fatal("enabled blending produced no blend state")
	}
	if ct.Blend.Color.DstFactor != gputypes.BlendFactorOneMinusSrcAlpha {
		t.Errorf("DstFactor = %v", ct.Blend.Color.DstFactor)
	}
}

func TestBufferUsageAlwaysCopyable(t *testing.T) {
	u := bufferUsage(rhi.VertexUsage)
	if u&gputypes.BufferUsageCopyDst == 0 || u&gputypes.BufferUsageCopySrc == 0 {
		t.Errorf("bufferUsage(Vertex) = %v, want copy source and destination", u)
	}
	if u&gputypes.BufferUsageVertex == 0 || u&gputypes.BufferUsageUniform != 0 {
		t.Errorf("bufferUsage(Vertex) = %v", u)
	}
}
