// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi_test

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/backend/null"
)

func newNullDevice(t *testing.T) *rhi.Device {
	t.Helper()
	dev, err := rhi.NewDevice(null.New())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(dev.Close)
	return dev
}

func TestUploadTextureImage(t *testing.T) {
	dev := newNullDevice(t)

	src := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	src.Set(10, 10, color.NRGBA{R: 255, A: 255})
	src.Set(11, 10, color.NRGBA{B: 255, A: 255})

	tests := []struct {
		format rhi.TextureFormat
		first  []byte
	}{
		{rhi.RGBA8, []byte{255, 0, 0, 255}},
		{rhi.BGRA8, []byte{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			tex := dev.NewTexture(tt.format, rhi.Size{Width: 2, Height: 1}, 1, 0)
			u := dev.NextResourceUpdateBatch()
			defer u.Release()
			u.UploadTextureImage(tex, src)

			ops := u.TextureOps()
			if len(ops) != 1 || ops[0].Kind != rhi.TextureUpload || len(ops[0].Uploads) != 1 {
				t.Fatalf("TextureOps() = %+v", ops)
			}
			up := ops[0].Uploads[0]
			if up.SourceSize != (rhi.Size{Width: 2, Height: 1}) {
				t.Errorf("SourceSize = %v", up.SourceSize)
			}
			if len(up.Data) != 8 {
				t.Fatalf("len(Data) = %d, want 8", len(up.Data))
			}
			for i, b := range tt.first {
				if up.Data[i] != b {
					t.Fatalf("first pixel = %v, want %v", up.Data[:4], tt.first)
				}
			}
		})
	}
}

func TestBatchCopiesData(t *testing.T) {
	dev := newNullDevice(t)
	buf := dev.NewBuffer(rhi.Dynamic, rhi.UniformUsage, 16)

	data := []byte{1, 2, 3}
	u := dev.NextResourceUpdateBatch()
	defer u.Release()
	u.UpdateDynamicBuffer(buf, 0, data)
	data[0] = 9
	if got := u.BufferOps()[0].Data[0]; got != 1 {
		t.Errorf("queued data aliases caller slice: %d", got)
	}
}

func TestBatchMerge(t *testing.T) {
	dev := newNullDevice(t)
	buf := dev.NewBuffer(rhi.Dynamic, rhi.UniformUsage, 16)
	tex := dev.NewTexture(rhi.RGBA8, rhi.Size{Width: 4, Height: 4}, 1, rhi.TextureMipMapped)

	a := dev.NextResourceUpdateBatch()
	b := dev.NextResourceUpdateBatch()
	defer a.Release()
	defer b.Release()
	if a.HasOps() {
		t.Error("fresh batch has ops")
	}
	a.UpdateDynamicBuffer(buf, 0, []byte{1})
	b.UpdateDynamicBuffer(buf, 1, []byte{2})
	b.GenerateMips(tex, 0)
	a.Merge(b)
	a.Merge(a)
	a.Merge(nil)

	if got := a.BufferOps(); len(got) != 2 || got[0].Offset != 0 || got[1].Offset != 1 {
		t.Errorf("merged BufferOps = %+v", got)
	}
	if got := a.TextureOps(); len(got) != 1 || got[0].Kind != rhi.TextureGenMips {
		t.Errorf("merged TextureOps = %+v", got)
	}
	if len(b.BufferOps()) != 1 {
		t.Error("Merge modified its argument")
	}
}

func TestReadbackResultImage(t *testing.T) {
	r := rhi.ReadbackResult{
		Format:    rhi.BGRA8,
		PixelSize: rhi.Size{Width: 1, Height: 1},
		Data:      []byte{10, 20, 30, 40},
	}
	img, err := r.Image()
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 30, G: 20, B: 10, A: 40}) {
		t.Errorf("pixel = %v", got)
	}

	r.Format = rhi.RGBA32F
	if _, err := r.Image(); err == nil {
		t.Error("Image() accepted RGBA32F")
	}
	r.Format, r.PixelSize = rhi.RGBA8, rhi.Size{Width: 2, Height: 2}
	if _, err := r.Image(); err == nil {
		t.Error("Image() accepted short data")
	}
}

func TestReadbackSubresourceRange(t *testing.T) {
	dev := newNullDevice(t)
	tex := dev.NewTexture(rhi.RGBA8, rhi.Size{Width: 8, Height: 8}, 1, rhi.TextureMipMapped)
	if err := tex.Build(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		level, layer int
		wantErr      bool
	}{
		{"base", 0, 0, false},
		{"last level", 3, 0, false},
		{"negative level", -1, 0, true},
		{"negative layer", 0, -1, true},
		{"level past mip chain", 4, 0, true},
		{"layer past count", 0, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, _ := dev.BeginOffscreenFrame()
			defer dev.EndOffscreenFrame()
			u := dev.NextResourceUpdateBatch()
			u.ReadBackTexture(rhi.ReadbackDescription{Texture: tex, Level: tt.level, Layer: tt.layer}, &rhi.ReadbackResult{})
			err := cb.ResourceUpdate(u)
			if tt.wantErr && err == nil {
				t.Fatal("ResourceUpdate succeeded, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("ResourceUpdate: %v", err)
			}
		})
	}
}

func TestSwapChainReadbackRejectsNegativeLevel(t *testing.T) {
	dev := newNullDevice(t)
	sc := dev.NewSwapChain()
	sc.SetRenderPassDescriptor(sc.NewCompatibleRenderPassDescriptor())
	if err := sc.BuildOrResize(); err != nil {
		t.Fatal(err)
	}
	if res := dev.BeginFrame(sc, 0); res != rhi.FrameOpSuccess {
		t.Fatalf("BeginFrame = %v", res)
	}
	defer dev.EndFrame(sc, 0)
	u := dev.NextResourceUpdateBatch()
	u.ReadBackTexture(rhi.ReadbackDescription{Level: -1}, &rhi.ReadbackResult{})
	err := sc.CurrentFrameCommandBuffer().ResourceUpdate(u)
	if err == nil || errors.Is(err, rhi.ErrNilResource) {
		t.Errorf("ResourceUpdate = %v, want a range error", err)
	}
}
