// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

// Backend is implemented by graphics API bindings. A Device owns exactly
// one Backend and forwards to it after validating arguments and the frame
// state; backends never see an out-of-order call.
//
// Resource factories receive a base struct carrying the construction
// parameters and return an unbuilt resource embedding it.
//
// Backends are registered with the backend package and opened by name,
// see backend.Open.
type Backend interface {
	// Name returns the backend identifier (e.g. "null", "native").
	Name() string

	// Create initializes the backend for dev.
	Create(dev *Device, opts *Options) error

	// Destroy releases everything the backend created. Called once by
	// Device.Close.
	Destroy()

	NewBuffer(base BufferBase) Buffer
	NewTexture(base TextureBase) Texture
	NewRenderBuffer(base RenderBufferBase) RenderBuffer
	NewSampler(base SamplerBase) Sampler
	NewTextureRenderTarget(base TextureRenderTargetBase) TextureRenderTarget
	NewShaderResourceBindings(base SRBBase) ShaderResourceBindings
	NewGraphicsPipeline(base GraphicsPipelineBase) GraphicsPipeline
	NewComputePipeline(base ComputePipelineBase) ComputePipeline
	NewSwapChain(base SwapChainBase) SwapChain

	SupportedSampleCounts() []int
	IsTextureFormatSupported(f TextureFormat, flags TextureFlags) bool
	IsFeatureSupported(f Feature) bool
	ResourceLimit(l ResourceLimit) int
	UniformBufferAlignment() int
	IsYUpInFramebuffer() bool
	IsYUpInNDC() bool
	IsClipDepthZeroToOne() bool

	// BeginFrame starts recording a frame for sc.
	BeginFrame(sc SwapChain, flags BeginFrameFlags) (Recorder, FrameOpResult)
	// EndFrame submits and, unless SkipPresent is set, presents the frame.
	EndFrame(sc SwapChain, flags EndFrameFlags) FrameOpResult
	BeginOffscreenFrame() (Recorder, FrameOpResult)
	// EndOffscreenFrame submits the frame and waits for it to complete.
	EndOffscreenFrame() FrameOpResult
	// Finish waits for all submitted work.
	Finish() FrameOpResult
}
