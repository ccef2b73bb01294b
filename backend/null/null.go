// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package null

import (
	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/backend"
)

// gpuFrameTime is the GPU time reported for every frame.
const gpuFrameTime float32 = 0.000666

func init() {
	backend.Register(backend.BackendNull, func() rhi.Backend {
		return New()
	})
}

// Counters counts recorded commands, for tests.
type Counters struct {
	RenderPasses  int
	ComputePasses int
	Draws         int
	Dispatches    int
	Updates       int
	DebugMarkers  int
}

// Backend is the null rhi.Backend.
type Backend struct {
	dev      *rhi.Device
	opts     *rhi.Options
	counters Counters
}

var _ rhi.Backend = (*Backend)(nil)

// New returns an uncreated null backend. Use backend.Open or
// rhi.NewDevice to create a device on it.
func New() *Backend {
	return &Backend{}
}

// Name returns "null".
func (b *Backend) Name() string { return backend.BackendNull }

// Create records the device and options.
func (b *Backend) Create(dev *rhi.Device, opts *rhi.Options) error {
	b.dev, b.opts = dev, opts
	rhi.Logger().Debug("null: backend created")
	return nil
}

// Destroy is a no-op.
func (b *Backend) Destroy() {
	rhi.Logger().Debug("null: backend destroyed")
}

// Counters returns the command counters.
func (b *Backend) Counters() Counters { return b.counters }

func (b *Backend) profiler() rhi.Profiler { return b.opts.Profiler }

// SupportedSampleCounts returns {1}.
func (b *Backend) SupportedSampleCounts() []int { return []int{1} }

// IsTextureFormatSupported returns true for every format.
func (b *Backend) IsTextureFormatSupported(rhi.TextureFormat, rhi.TextureFlags) bool { return true }

// IsFeatureSupported returns true for every feature.
func (b *Backend) IsFeatureSupported(rhi.Feature) bool { return true }

// ResourceLimit returns fixed limits.
func (b *Backend) ResourceLimit(l rhi.ResourceLimit) int {
	switch l {
	case rhi.TextureSizeMin:
		return 1
	case rhi.TextureSizeMax:
		return 16384
	case rhi.MaxColorAttachments:
		return 8
	case rhi.FramesInFlight:
		return 2
	}
	return 0
}

// UniformBufferAlignment returns 256.
func (b *Backend) UniformBufferAlignment() int { return 256 }

// IsYUpInFramebuffer returns false.
func (b *Backend) IsYUpInFramebuffer() bool { return false }

// IsYUpInNDC returns true.
func (b *Backend) IsYUpInNDC() bool { return true }

// IsClipDepthZeroToOne returns true.
func (b *Backend) IsClipDepthZeroToOne() bool { return true }

// ClipSpaceCorrMatrix returns the identity; nothing is ever rasterized.
func (b *Backend) ClipSpaceCorrMatrix() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// BeginFrame starts recording for sc.
func (b *Backend) BeginFrame(sc rhi.SwapChain, _ rhi.BeginFrameFlags) (rhi.Recorder, rhi.FrameOpResult) {
	b.profiler().BeginSwapChainFrame(sc)
	return &recorder{b: b, sc: sc}, rhi.FrameOpSuccess
}

// EndFrame reports the frame to the profiler.
func (b *Backend) EndFrame(sc rhi.SwapChain, _ rhi.EndFrameFlags) rhi.FrameOpResult {
	p := b.profiler()
	p.EndSwapChainFrame(sc, sc.FrameCount()+1)
	p.SwapChainFrameGPUTime(sc, gpuFrameTime)
	return rhi.FrameOpSuccess
}

// BeginOffscreenFrame starts recording without a swap chain.
func (b *Backend) BeginOffscreenFrame() (rhi.Recorder, rhi.FrameOpResult) {
	return &recorder{b: b}, rhi.FrameOpSuccess
}

// EndOffscreenFrame completes immediately.
func (b *Backend) EndOffscreenFrame() rhi.FrameOpResult { return rhi.FrameOpSuccess }

// Finish completes immediately.
func (b *Backend) Finish() rhi.FrameOpResult { return rhi.FrameOpSuccess }
