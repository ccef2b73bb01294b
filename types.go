// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import "fmt"

// Size is a pixel size.
type Size struct {
	Width, Height int
}

// IsEmpty reports whether either dimension is zero or negative.
func (s Size) IsEmpty() bool { return s.Width <= 0 || s.Height <= 0 }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float32
}

// DepthStencilClearValue holds the values depth and stencil attachments
// are cleared to at pass begin.
type DepthStencilClearValue struct {
	Depth   float32
	Stencil uint32
}

// DefaultDepthStencilClear clears depth to 1 and stencil to 0.
var DefaultDepthStencilClear = DepthStencilClearValue{Depth: 1}

// Viewport is a viewport rectangle in framebuffer pixels with a depth range.
// The origin is bottom-left.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// NewViewport returns a viewport with the default 0..1 depth range.
func NewViewport(x, y, w, h float32) Viewport {
	return Viewport{X: x, Y: y, Width: w, Height: h, MaxDepth: 1}
}

// Scissor is a scissor rectangle in framebuffer pixels, origin bottom-left.
type Scissor struct {
	X, Y, Width, Height int
}

// BufferType selects how often a buffer's contents change.
type BufferType int

const (
	// Immutable buffers are uploaded once.
	Immutable BufferType = iota
	// Static buffers change rarely.
	Static
	// Dynamic buffers change every frame; only uniform buffers may be dynamic.
	Dynamic
)

func (t BufferType) String() string {
	switch t {
	case Immutable:
		return "Immutable"
	case Static:
		return "Static"
	case Dynamic:
		return "Dynamic"
	}
	return fmt.Sprintf("BufferType(%d)", int(t))
}

// BufferUsage is a bitmask of buffer usages.
type BufferUsage int

const (
	VertexUsage BufferUsage = 1 << iota
	IndexUsage
	UniformUsage
	StorageUsage
)

// TextureFlags modifies texture creation.
type TextureFlags int

const (
	TextureUsedAsRenderTarget TextureFlags = 1 << iota
	TextureCubeMap
	TextureMipMapped
	TextureSRGB
	TextureUsedAsTransferSource
	TextureUsedWithGenerateMips
	TextureUsedWithLoadStore
)

// RenderBufferType selects what a render buffer holds.
type RenderBufferType int

const (
	DepthStencil RenderBufferType = iota
	ColorBuffer
)

// RenderBufferFlags modifies render buffer creation.
type RenderBufferFlags int

const (
	// UsedWithSwapChainOnly marks a depth-stencil buffer that is only ever
	// used together with a swap chain.
	UsedWithSwapChainOnly RenderBufferFlags = 1 << iota
)

// Filter is a texture filtering mode.
type Filter int

const (
	FilterNone Filter = iota
	Nearest
	Linear
)

// AddressMode is a texture coordinate wrapping mode.
type AddressMode int

const (
	Repeat AddressMode = iota
	ClampToEdge
	Mirror
)

// CompareOp is a depth, stencil or sampler comparison function.
type CompareOp int

const (
	Never CompareOp = iota
	Less
	Equal
	LessOrEqual
	Greater
	NotEqual
	GreaterOrEqual
	Always
)

// StencilOp is a stencil buffer operation.
type StencilOp int

const (
	StencilZero StencilOp = iota
	StencilKeep
	StencilReplace
	StencilIncrementAndClamp
	StencilDecrementAndClamp
	StencilInvert
	StencilIncrementAndWrap
	StencilDecrementAndWrap
)

// StencilOpState configures one face of the stencil test.
type StencilOpState struct {
	FailOp      StencilOp
	DepthFailOp StencilOp
	PassOp      StencilOp
	CompareOp   CompareOp
}

// DefaultStencilOpState keeps all values and always passes.
var DefaultStencilOpState = StencilOpState{
	FailOp:      StencilKeep,
	DepthFailOp: StencilKeep,
	PassOp:      StencilKeep,
	CompareOp:   Always,
}

// Topology is the primitive topology.
type Topology int

const (
	Triangles Topology = iota
	TriangleStrip
	Lines
	LineStrip
	Points
)

// CullMode selects faces to discard.
type CullMode int

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// FrontFace selects the winding order of front faces.
type FrontFace int

const (
	CCW FrontFace = iota
	CW
)

// BlendFactor is a blend equation factor.
type BlendFactor int

const (
	Zero BlendFactor = iota
	One
	SrcColor
	OneMinusSrcColor
	DstColor
	OneMinusDstColor
	SrcAlpha
	OneMinusSrcAlpha
	DstAlpha
	OneMinusDstAlpha
	ConstantColor
	OneMinusConstantColor
	ConstantAlpha
	OneMinusConstantAlpha
	SrcAlphaSaturate
)

// BlendOp is a blend equation operator.
type BlendOp int

const (
	BlendAdd BlendOp = iota
	BlendSubtract
	BlendReverseSubtract
	BlendMin
	BlendMax
)

// ColorMask selects written color channels.
type ColorMask int

const (
	MaskR ColorMask = 1 << iota
	MaskG
	MaskB
	MaskA
	MaskAll = MaskR | MaskG | MaskB | MaskA
)

// TargetBlend is the blend state of one color attachment.
type TargetBlend struct {
	ColorWrite ColorMask
	Enable     bool
	SrcColor   BlendFactor
	DstColor   BlendFactor
	OpColor    BlendOp
	SrcAlpha   BlendFactor
	DstAlpha   BlendFactor
	OpAlpha    BlendOp
}

// DefaultTargetBlend writes all channels with blending disabled.
var DefaultTargetBlend = TargetBlend{
	ColorWrite: MaskAll,
	SrcColor:   One,
	DstColor:   Zero,
	SrcAlpha:   One,
	DstAlpha:   Zero,
}

// PremultipliedAlphaBlend is source-over blending for premultiplied colors.
var PremultipliedAlphaBlend = TargetBlend{
	ColorWrite: MaskAll,
	Enable:     true,
	SrcColor:   One,
	DstColor:   OneMinusSrcAlpha,
	SrcAlpha:   One,
	DstAlpha:   OneMinusSrcAlpha,
}

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	IndexUInt16 IndexFormat = iota
	IndexUInt32
)

// VertexFormat is the format of a vertex attribute.
type VertexFormat int

const (
	Float4 VertexFormat = iota
	Float3
	Float2
	Float
	UNormByte4
	UNormByte2
	UNormByte
)

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() int {
	switch f {
	case Float4:
		return 16
	case Float3:
		return 12
	case Float2:
		return 8
	case Float, UNormByte4:
		return 4
	case UNormByte2:
		return 2
	case UNormByte:
		return 1
	}
	return 0
}

// VertexInputBinding describes one vertex buffer slot.
type VertexInputBinding struct {
	Stride       int
	PerInstance  bool
	InstanceStep int
}

// VertexInputAttribute describes one attribute sourced from a binding.
type VertexInputAttribute struct {
	Binding  int
	Location int
	Format   VertexFormat
	Offset   int
}

// VertexInputLayout is the vertex input state of a graphics pipeline.
type VertexInputLayout struct {
	Bindings   []VertexInputBinding
	Attributes []VertexInputAttribute
}

// VertexInput binds a buffer at an offset to a vertex input slot.
type VertexInput struct {
	Buffer Buffer
	Offset uint32
}

// StageType is a shader stage.
type StageType int

const (
	VertexStage StageType = iota
	FragmentStage
	ComputeStage
)

func (s StageType) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	case ComputeStage:
		return "compute"
	}
	return fmt.Sprintf("StageType(%d)", int(s))
}

// Flag returns the visibility flag for the stage.
func (s StageType) Flag() StageFlags {
	return StageFlags(1 << s)
}

// StageFlags is a bitmask of shader stages a binding is visible to.
type StageFlags int

const (
	VertexVisible   = StageFlags(1 << VertexStage)
	FragmentVisible = StageFlags(1 << FragmentStage)
	ComputeVisible  = StageFlags(1 << ComputeStage)
)

// BeginFrameFlags modifies BeginFrame.
type BeginFrameFlags int

// EndFrameFlags modifies EndFrame.
type EndFrameFlags int

const (
	// SkipPresent ends the frame without presenting.
	SkipPresent EndFrameFlags = 1 << iota
)

// FrameOpResult is the outcome of a frame operation. Anything but
// FrameOpSuccess means the frame did not happen; the caller retries,
// possibly after rebuilding the swap chain.
type FrameOpResult int

const (
	FrameOpSuccess FrameOpResult = iota
	FrameOpError
	FrameOpSwapChainOutOfDate
	FrameOpDeviceLost
)

func (r FrameOpResult) String() string {
	switch r {
	case FrameOpSuccess:
		return "Success"
	case FrameOpError:
		return "Error"
	case FrameOpSwapChainOutOfDate:
		return "SwapChainOutOfDate"
	case FrameOpDeviceLost:
		return "DeviceLost"
	}
	return fmt.Sprintf("FrameOpResult(%d)", int(r))
}

// IsRetryable reports whether the frame can be retried, after rebuilding
// the swap chain for FrameOpSwapChainOutOfDate.
func (r FrameOpResult) IsRetryable() bool {
	return r == FrameOpSwapChainOutOfDate
}
