// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"errors"
	"testing"
)

// capsBackend answers capability queries only. Anything else panics.
type capsBackend struct {
	Backend
	yUpNDC    bool
	zeroToOne bool
	align     int
	createErr error
	destroyed int
}

func (b *capsBackend) Name() string                      { return "caps" }
func (b *capsBackend) Create(*Device, *Options) error    { return b.createErr }
func (b *capsBackend) Destroy()                          { b.destroyed++ }
func (b *capsBackend) IsYUpInNDC() bool                  { return b.yUpNDC }
func (b *capsBackend) IsClipDepthZeroToOne() bool        { return b.zeroToOne }
func (b *capsBackend) UniformBufferAlignment() int       { return b.align }
func (b *capsBackend) IsFeatureSupported(f Feature) bool { return f != FeatureCompute }
func (b *capsBackend) ResourceLimit(l ResourceLimit) int { return int(l) }
func (b *capsBackend) SupportedSampleCounts() []int      { return []int{1, 4} }
func (b *capsBackend) IsYUpInFramebuffer() bool          { return b.yUpNDC }

func TestClipSpaceCorrMatrix(t *testing.T) {
	tests := []struct {
		name           string
		yUp, zeroToOne bool
		m5, m10, m14   float32
	}{
		{"gl", true, false, 1, 1, 0},
		{"d3d", true, true, 1, 0.5, 0.5},
		{"vulkan", false, true, -1, 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDevice(&capsBackend{yUpNDC: tt.yUp, zeroToOne: tt.zeroToOne})
			if err != nil {
				t.Fatal(err)
			}
			m := d.ClipSpaceCorrMatrix()
			if m[0] != 1 || m[5] != tt.m5 || m[10] != tt.m10 || m[14] != tt.m14 || m[15] != 1 {
				t.Errorf("ClipSpaceCorrMatrix() = %v", m)
			}
		})
	}
}

func TestUBufAligned(t *testing.T) {
	tests := []struct {
		align, v, want int
	}{
		{256, 0, 0},
		{256, 1, 256},
		{256, 256, 256},
		{256, 257, 512},
		{0, 68, 68},
		{1, 68, 68},
	}
	for _, tt := range tests {
		d, err := NewDevice(&capsBackend{align: tt.align})
		if err != nil {
			t.Fatal(err)
		}
		if got := d.UBufAligned(tt.v); got != tt.want {
			t.Errorf("UBufAligned(%d) with alignment %d = %d, want %d", tt.v, tt.align, got, tt.want)
		}
	}
}

func TestNewDeviceErrors(t *testing.T) {
	if _, err := NewDevice(nil); err == nil {
		t.Error("NewDevice(nil) succeeded")
	}
	errBoom := errors.New("boom")
	if _, err := NewDevice(&capsBackend{createErr: errBoom}); !errors.Is(err, errBoom) {
		t.Errorf("NewDevice = %v, want wrapped create error", err)
	}
}

func TestDeviceCloseIdempotent(t *testing.T) {
	b := &capsBackend{}
	d, err := NewDevice(b)
	if err != nil {
		t.Fatal(err)
	}
	if d.Profiler() == nil {
		t.Error("Profiler() = nil, want NopProfiler")
	}
	d.Close()
	d.Close()
	if !d.IsClosed() || b.destroyed != 1 {
		t.Errorf("IsClosed() = %v, Destroy called %d times", d.IsClosed(), b.destroyed)
	}
}

func TestResourceConstruction(t *testing.T) {
	d, err := NewDevice(&capsBackend{})
	if err != nil {
		t.Fatal(err)
	}
	rp := NewRenderPassDescriptorBase(d, []TextureFormat{RGBA8}, D24S8, 1)
	if !rp.IsBuilt() {
		t.Error("render pass descriptor not built on creation")
	}
	other := NewRenderPassDescriptorBase(d, []TextureFormat{RGBA8}, D24S8, 4)
	if rp.IsCompatible(&other) {
		t.Error("descriptors with different sample counts reported compatible")
	}
	same := NewRenderPassDescriptorBase(d, []TextureFormat{RGBA8}, D24S8, 1)
	if !rp.IsCompatible(&same) {
		t.Error("equal descriptors reported incompatible")
	}
	if rp.IsCompatible(nil) {
		t.Error("nil descriptor reported compatible")
	}
	if !rp.MarkReleased() || rp.MarkReleased() {
		t.Error("MarkReleased must report true exactly once")
	}
}
