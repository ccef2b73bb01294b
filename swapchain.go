// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

// DefaultSurfaceSize is the backbuffer size used when a swap chain has no
// target or its target reports an empty size.
var DefaultSurfaceSize = Size{Width: 1280, Height: 720}

// Surface is what a swap chain presents to. Windowing integrations
// implement it; HeadlessSurface covers offscreen use.
type Surface interface {
	PixelSize() Size
	DevicePixelRatio() float32
}

// HeadlessSurface is a fixed-size surface with no window behind it.
type HeadlessSurface struct {
	Size Size
	DPR  float32
}

// PixelSize returns the configured size.
func (s HeadlessSurface) PixelSize() Size { return s.Size }

// DevicePixelRatio returns the configured ratio, defaulting to 1.
func (s HeadlessSurface) DevicePixelRatio() float32 {
	if s.DPR <= 0 {
		return 1
	}
	return s.DPR
}

// SwapChainFlags modifies swap chain creation.
type SwapChainFlags int

const (
	SurfaceHasPreMulAlpha SwapChainFlags = 1 << iota
	SurfaceHasNonPreMulAlpha
	SwapChainSRGB
	SwapChainUsedAsTransferSource
	SwapChainNoVSync
	SwapChainMinimalBufferCount
)

// SwapChain is a set of presentable backbuffers attached to a Surface.
//
// The recording context of a frame, the command buffer and the render
// target, is only available between Device.BeginFrame and Device.EndFrame.
type SwapChain interface {
	Resource
	Target() Surface
	SetTarget(s Surface)
	Flags() SwapChainFlags
	SetFlags(f SwapChainFlags)
	DepthStencil() RenderBuffer
	SetDepthStencil(ds RenderBuffer)
	SampleCount() int
	SetSampleCount(n int)
	RenderPassDescriptor() RenderPassDescriptor
	SetRenderPassDescriptor(rp RenderPassDescriptor)

	// SurfacePixelSize returns the size the next BuildOrResize will use.
	SurfacePixelSize() Size

	// CurrentPixelSize returns the size applied by the last BuildOrResize.
	CurrentPixelSize() Size

	// BuildOrResize (re)creates the backbuffers for the current surface
	// size and resets the frame counter.
	BuildOrResize() error

	NewCompatibleRenderPassDescriptor() RenderPassDescriptor

	// CurrentFrameCommandBuffer returns the command buffer of the frame in
	// progress, or nil outside a frame.
	CurrentFrameCommandBuffer() *CommandBuffer

	// CurrentFrameRenderTarget returns the backbuffer target of the frame
	// in progress, or nil outside a frame.
	CurrentFrameRenderTarget() RenderTarget

	// FrameCount returns the number of frames ended since the last
	// BuildOrResize.
	FrameCount() int

	swapChainBase() *SwapChainBase
}

// SwapChainBase holds the state of a swap chain shared by all backends.
type SwapChainBase struct {
	ResourceBase
	target      Surface
	flags       SwapChainFlags
	ds          RenderBuffer
	sampleCount int
	rp          RenderPassDescriptor

	currentSize Size
	frameCount  int
	rt          SwapChainRenderTarget
	cb          *CommandBuffer
}

// Target returns the surface.
func (s *SwapChainBase) Target() Surface { return s.target }

// SetTarget sets the surface used by the next BuildOrResize.
func (s *SwapChainBase) SetTarget(t Surface) { s.target = t }

// Flags returns the creation flags.
func (s *SwapChainBase) Flags() SwapChainFlags { return s.flags }

// SetFlags sets the creation flags.
func (s *SwapChainBase) SetFlags(f SwapChainFlags) { s.flags = f }

// DepthStencil returns the depth-stencil buffer, if any.
func (s *SwapChainBase) DepthStencil() RenderBuffer { return s.ds }

// SetDepthStencil attaches a depth-stencil buffer.
func (s *SwapChainBase) SetDepthStencil(ds RenderBuffer) { s.ds = ds }

// SampleCount returns the sample count, at least 1.
func (s *SwapChainBase) SampleCount() int { return max(s.sampleCount, 1) }

// SetSampleCount sets the sample count.
func (s *SwapChainBase) SetSampleCount(n int) { s.sampleCount = n }

// RenderPassDescriptor returns the render pass descriptor.
func (s *SwapChainBase) RenderPassDescriptor() RenderPassDescriptor { return s.rp }

// SetRenderPassDescriptor sets the render pass descriptor.
func (s *SwapChainBase) SetRenderPassDescriptor(rp RenderPassDescriptor) {
	s.rp = rp
	s.rt.rp = rp
}

// SurfacePixelSize returns the target size, or DefaultSurfaceSize without a
// usable target.
func (s *SwapChainBase) SurfacePixelSize() Size {
	if s.target != nil {
		if sz := s.target.PixelSize(); !sz.IsEmpty() {
			return sz
		}
	}
	return DefaultSurfaceSize
}

// CurrentPixelSize returns the size applied by the last resize.
func (s *SwapChainBase) CurrentPixelSize() Size { return s.currentSize }

// FrameCount returns the frames ended since the last resize.
func (s *SwapChainBase) FrameCount() int { return s.frameCount }

// CurrentFrameCommandBuffer returns the frame's command buffer or nil.
func (s *SwapChainBase) CurrentFrameCommandBuffer() *CommandBuffer { return s.cb }

// CurrentFrameRenderTarget returns the backbuffer target or nil.
func (s *SwapChainBase) CurrentFrameRenderTarget() RenderTarget {
	if s.cb == nil {
		return nil
	}
	return &s.rt
}

// ApplyResize picks up the surface size and ratio, refreshes the backbuffer
// render target, resets the frame counter and marks the swap chain built.
// Backends call it from BuildOrResize before creating their own objects and
// use the returned size.
func (s *SwapChainBase) ApplyResize(self SwapChain) Size {
	s.currentSize = s.SurfacePixelSize()
	dpr := float32(1)
	if s.target != nil {
		dpr = s.target.DevicePixelRatio()
	}
	s.rt = SwapChainRenderTarget{
		ResourceBase: newResourceBase(s.dev, KindRenderTarget),
		sc:           self,
		size:         s.currentSize,
		dpr:          dpr,
		sampleCount:  s.SampleCount(),
		rp:           s.rp,
	}
	s.rt.built = true
	s.frameCount = 0
	s.MarkBuilt()
	return s.currentSize
}

// SwapChainRenderTarget returns the backbuffer target regardless of frame
// state, for backends.
func (s *SwapChainBase) SwapChainRenderTarget() *SwapChainRenderTarget { return &s.rt }

func (s *SwapChainBase) swapChainBase() *SwapChainBase { return s }
