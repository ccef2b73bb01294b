// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// copyPitchAlignment is the row alignment WebGPU requires for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// alignedBytesPerRow rounds a tightly packed row up to copyPitchAlignment.
func alignedBytesPerRow(tight uint32) uint32 {
	return (tight + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// textureFormat maps f to the HAL format, honoring the sRGB flag for the
// 8-bit color formats.
func textureFormat(f rhi.TextureFormat, srgb bool) gputypes.TextureFormat {
	switch {
	case srgb && f == rhi.RGBA8:
		return gputypes.TextureFormatRGBA8UnormSrgb
	case srgb && f == rhi.BGRA8:
		return gputypes.TextureFormatBGRA8UnormSrgb
	}
	return f.GPUFormat()
}

// isStorageFormat reports whether f can back a storage image.
func isStorageFormat(f rhi.TextureFormat) bool {
	switch f {
	case rhi.RGBA8, rhi.RGBA16F, rhi.RGBA32F, rhi.R32F:
		return true
	}
	return false
}

func bufferUsage(u rhi.BufferUsage) gputypes.BufferUsage {
	usage := gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	if u&rhi.VertexUsage != 0 {
		usage |= gputypes.BufferUsageVertex
	}
	if u&rhi.IndexUsage != 0 {
		usage |= gputypes.BufferUsageIndex
	}
	if u&rhi.UniformUsage != 0 {
		usage |= gputypes.BufferUsageUniform
	}
	if u&rhi.StorageUsage != 0 {
		usage |= gputypes.BufferUsageStorage
	}
	return usage
}

func textureUsage(t rhi.Texture) gputypes.TextureUsage {
	usage := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
	flags := t.Flags()
	if flags&(rhi.TextureUsedAsRenderTarget|rhi.TextureUsedWithGenerateMips|rhi.TextureMipMapped) != 0 || t.Format().IsDepth() {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	if flags&rhi.TextureUsedWithLoadStore != 0 {
		usage |= gputypes.TextureUsageStorageBinding
	}
	if t.SampleCount() > 1 {
		// Multisample textures are attachments only.
		usage = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding
	}
	return usage
}

func stageVisibility(s rhi.StageFlags) gputypes.ShaderStage {
	var v gputypes.ShaderStage
	if s&rhi.VertexVisible != 0 {
		v |= gputypes.ShaderStageVertex
	}
	if s&rhi.FragmentVisible != 0 {
		v |= gputypes.ShaderStageFragment
	}
	if s&rhi.ComputeVisible != 0 {
		v |= gputypes.ShaderStageCompute
	}
	return v
}

func filterMode(f rhi.Filter) gputypes.FilterMode {
	if f == rhi.Linear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

func addressMode(m rhi.AddressMode) gputypes.AddressMode {
	switch m {
	case rhi.ClampToEdge:
		return gputypes.AddressModeClampToEdge
	case rhi.Mirror:
		return gputypes.AddressModeMirrorRepeat
	}
	return gputypes.AddressModeRepeat
}

func compareFunction(op rhi.CompareOp) gputypes.CompareFunction {
	switch op {
	case rhi.Never:
		return gputypes.CompareFunctionNever
	case rhi.Less:
		return gputypes.CompareFunctionLess
	case rhi.Equal:
		return gputypes.CompareFunctionEqual
	case rhi.LessOrEqual:
		return gputypes.CompareFunctionLessEqual
	case rhi.Greater:
		return gputypes.CompareFunctionGreater
	case rhi.NotEqual:
		return gputypes.CompareFunctionNotEqual
	case rhi.GreaterOrEqual:
		return gputypes.CompareFunctionGreaterEqual
	}
	return gputypes.CompareFunctionAlways
}

func stencilOperation(op rhi.StencilOp) hal.StencilOperation {
	switch op {
	case rhi.StencilZero:
		return hal.StencilOperationZero
	case rhi.StencilReplace:
		return hal.StencilOperationReplace
	case rhi.StencilIncrementAndClamp:
		return hal.StencilOperationIncrementClamp
	case rhi.StencilDecrementAndClamp:
		return hal.StencilOperationDecrementClamp
	case rhi.StencilInvert:
		return hal.StencilOperationInvert
	case rhi.StencilIncrementAndWrap:
		return hal.StencilOperationIncrementWrap
	case rhi.StencilDecrementAndWrap:
		return hal.StencilOperationDecrementWrap
	}
	return hal.StencilOperationKeep
}

func stencilFace(s rhi.StencilOpState) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     compareFunction(s.CompareOp),
		FailOp:      stencilOperation(s.FailOp),
		DepthFailOp: stencilOperation(s.DepthFailOp),
		PassOp:      stencilOperation(s.PassOp),
	}
}

func blendFactor(f rhi.BlendFactor) gputypes.BlendFactor {
	switch f {
	case rhi.One:
		return gputypes.BlendFactorOne
	case rhi.SrcColor:
		return gputypes.BlendFactorSrc
	case rhi.OneMinusSrcColor:
		return gputypes.BlendFactorOneMinusSrc
	case rhi.DstColor:
		return gputypes.BlendFactorDst
	case rhi.OneMinusDstColor:
		return gputypes.BlendFactorOneMinusDst
	case rhi.SrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case rhi.OneMinusSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case rhi.DstAlpha:
		return gputypes.BlendFactorDstAlpha
	case rhi.OneMinusDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha
	case rhi.ConstantColor, rhi.ConstantAlpha:
		return gputypes.BlendFactorConstant
	case rhi.OneMinusConstantColor, rhi.OneMinusConstantAlpha:
		return gputypes.BlendFactorOneMinusConstant
	case rhi.SrcAlphaSaturate:
		return gputypes.BlendFactorSrcAlphaSaturated
	}
	return gputypes.BlendFactorZero
}

func blendOperation(op rhi.BlendOp) gputypes.BlendOperation {
	switch op {
	case rhi.BlendSubtract:
		return gputypes.BlendOperationSubtract
	case rhi.BlendReverseSubtract:
		return gputypes.BlendOperationReverseSubtract
	case rhi.BlendMin:
		return gputypes.BlendOperationMin
	case rhi.BlendMax:
		return gputypes.BlendOperationMax
	}
	return gputypes.BlendOperationAdd
}

// colorTarget returns the color target state of one attachment. Blending
// disabled leaves Blend nil.
func colorTarget(format gputypes.TextureFormat, tb rhi.TargetBlend) gputypes.ColorTargetState {
	var mask gputypes.ColorWriteMask
	if tb.ColorWrite&rhi.MaskR != 0 {
		mask |= gputypes.ColorWriteMaskRed
	}
	if tb.ColorWrite&rhi.MaskG != 0 {
		mask |= gputypes.ColorWriteMaskGreen
	}
	if tb.ColorWrite&rhi.MaskB != 0 {
		mask |= gputypes.ColorWriteMaskBlue
	}
	if tb.ColorWrite&rhi.MaskA != 0 {
		mask |= gputypes.ColorWriteMaskAlpha
	}
	ct := gputypes.ColorTargetState{Format: format, WriteMask: mask}
	if tb.Enable {
		ct.Blend = &gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: blendFactor(tb.SrcColor),
				DstFactor: blendFactor(tb.DstColor),
				Operation: blendOperation(tb.OpColor),
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: blendFactor(tb.SrcAlpha),
				DstFactor: blendFactor(tb.DstAlpha),
				Operation: blendOperation(tb.OpAlpha),
			},
		}
	}
	return ct
}

func topology(t rhi.Topology) gputypes.PrimitiveTopology {
	switch t {
	case rhi.TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	case rhi.Lines:
		return gputypes.PrimitiveTopologyLineList
	case rhi.LineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	case rhi.Points:
		return gputypes.PrimitiveTopologyPointList
	}
	return gputypes.PrimitiveTopologyTriangleList
}

func cullMode(c rhi.CullMode) gputypes.CullMode {
	switch c {
	case rhi.CullFront:
		return gputypes.CullModeFront
	case rhi.CullBack:
		return gputypes.CullModeBack
	}
	return gputypes.CullModeNone
}

func frontFace(f rhi.FrontFace) gputypes.FrontFace {
	if f == rhi.CW {
		return gputypes.FrontFaceCW
	}
	return gputypes.FrontFaceCCW
}

func indexFormat(f rhi.IndexFormat) gputypes.IndexFormat {
	if f == rhi.IndexUInt32 {
		return gputypes.IndexFormatUint32
	}
	return gputypes.IndexFormatUint16
}

func vertexFormat(f rhi.VertexFormat) (gputypes.VertexFormat, error) {
	switch f {
	case rhi.Float4:
		return gputypes.VertexFormatFloat32x4, nil
	case rhi.Float3:
		return gputypes.VertexFormatFloat32x3, nil
	case rhi.Float2:
		return gputypes.VertexFormatFloat32x2, nil
	case rhi.Float:
		return gputypes.VertexFormatFloat32, nil
	case rhi.UNormByte4:
		return gputypes.VertexFormatUnorm8x4, nil
	case rhi.UNormByte2:
		return gputypes.VertexFormatUnorm8x2, nil
	}
	return 0, fmt.Errorf("native: vertex format %d has no WebGPU equivalent", int(f))
}

// vertexBuffers converts the input layout into one buffer layout per
// binding, in binding order.
func vertexBuffers(l rhi.VertexInputLayout) ([]gputypes.VertexBufferLayout, error) {
	bufs := make([]gputypes.VertexBufferLayout, len(l.Bindings))
	for i, b := range l.Bindings {
		bufs[i] = gputypes.VertexBufferLayout{
			ArrayStride: uint64(b.Stride),
			StepMode:    gputypes.VertexStepModeVertex,
		}
		if b.PerInstance {
			bufs[i].StepMode = gputypes.VertexStepModeInstance
		}
	}
	for _, a := range l.Attributes {
		f, err := vertexFormat(a.Format)
		if err != nil {
			return nil, fmt.Errorf("location %d: %w", a.Location, err)
		}
		bufs[a.Binding].Attributes = append(bufs[a.Binding].Attributes, gputypes.VertexAttribute{
			Format:         f,
			Offset:         uint64(a.Offset),
			ShaderLocation: uint32(a.Location),
		})
	}
	return bufs, nil
}

func clearColor(c rhi.Color) gputypes.Color {
	return gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)}
}

// flipRect converts a bottom-left origin rectangle to the top-left origin
// WebGPU uses, for a target of the given height.
func flipRect(y, h, targetHeight float32) float32 {
	return targetHeight - (y + h)
}
