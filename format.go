// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
)

// TextureFormat is a texture or render buffer pixel format.
type TextureFormat int

// Texture formats.
const (
	UnknownFormat TextureFormat = iota
	RGBA8
	BGRA8
	R8
	RG8
	R16
	RedOrAlpha8
	RGBA16F
	RGBA32F
	R16F
	R32F
	D16
	D24
	D24S8
	D32F
)

type formatInfo struct {
	name  string
	bpp   int
	depth bool
	gpu   gputypes.TextureFormat
}

var formatTable = map[TextureFormat]formatInfo{
	RGBA8:       {"RGBA8", 4, false, gputypes.TextureFormatRGBA8Unorm},
	BGRA8:       {"BGRA8", 4, false, gputypes.TextureFormatBGRA8Unorm},
	R8:          {"R8", 1, false, gputypes.TextureFormatR8Unorm},
	RG8:         {"RG8", 2, false, gputypes.TextureFormatRG8Unorm},
	R16:         {"R16", 2, false, gputypes.TextureFormatR16Float},
	RedOrAlpha8: {"RED_OR_ALPHA8", 1, false, gputypes.TextureFormatR8Unorm},
	RGBA16F:     {"RGBA16F", 8, false, gputypes.TextureFormatRGBA16Float},
	RGBA32F:     {"RGBA32F", 16, false, gputypes.TextureFormatRGBA32Float},
	R16F:        {"R16F", 2, false, gputypes.TextureFormatR16Float},
	R32F:        {"R32F", 4, false, gputypes.TextureFormatR32Float},
	D16:         {"D16", 2, true, gputypes.TextureFormatDepth16Unorm},
	D24:         {"D24", 4, true, gputypes.TextureFormatDepth24Plus},
	D24S8:       {"D24S8", 4, true, gputypes.TextureFormatDepth24PlusStencil8},
	D32F:        {"D32F", 4, true, gputypes.TextureFormatDepth32Float},
}

func (f TextureFormat) String() string {
	if info, ok := formatTable[f]; ok {
		return info.name
	}
	return fmt.Sprintf("TextureFormat(%d)", int(f))
}

// BytesPerPixel returns the size of one texel, or 0 for UnknownFormat.
func (f TextureFormat) BytesPerPixel() int {
	return formatTable[f].bpp
}

// IsDepth reports whether f is a depth or depth-stencil format.
func (f TextureFormat) IsDepth() bool {
	return formatTable[f].depth
}

// HasStencil reports whether f carries a stencil aspect.
func (f TextureFormat) HasStencil() bool {
	return f == D24S8
}

// GPUFormat maps f to the WebGPU texture format. R16 has no normalized
// 16-bit WebGPU equivalent and maps to R16Float.
func (f TextureFormat) GPUFormat() gputypes.TextureFormat {
	if info, ok := formatTable[f]; ok {
		return info.gpu
	}
	return gputypes.TextureFormatUndefined
}

// TextureFormatFromGPU maps a WebGPU format back, or UnknownFormat.
func TextureFormatFromGPU(g gputypes.TextureFormat) TextureFormat {
	for _, f := range []TextureFormat{RGBA8, BGRA8, R8, RG8, RGBA16F, RGBA32F, R16F, R32F, D16, D24, D24S8, D32F} {
		if formatTable[f].gpu == g {
			return f
		}
	}
	return UnknownFormat
}

// ByteSize returns the size of an image of the given format and size with
// tightly packed rows.
func (f TextureFormat) ByteSize(size Size) int {
	if size.IsEmpty() {
		return 0
	}
	return size.Width * size.Height * f.BytesPerPixel()
}

// MipLevelsForSize returns the number of mip levels of a full chain for
// size. An empty size counts as 1x1.
func MipLevelsForSize(size Size) int {
	m := max(size.Width, size.Height, 1)
	return int(math32.Ceil(math32.Log2(float32(m)))) + 1
}

// SizeForMipLevel returns the size of mip level for a base size. Neither
// dimension drops below 1.
func SizeForMipLevel(level int, base Size) Size {
	w := int(math32.Floor(float32(base.Width) / math32.Pow(2, float32(level))))
	h := int(math32.Floor(float32(base.Height) / math32.Pow(2, float32(level))))
	return Size{Width: max(w, 1), Height: max(h, 1)}
}

// Feature is an optional capability.
type Feature int

// Features.
const (
	FeatureMultisampleTexture Feature = iota
	FeatureMultisampleRenderBuffer
	FeatureDebugMarkers
	FeatureTimestamps
	FeatureInstancing
	FeatureCustomInstanceStepRate
	FeaturePrimitiveRestart
	FeatureNonDynamicUniformBuffers
	FeatureNonFourAlignedEffectiveIndexBufferOffset
	FeatureNPOTTextureRepeat
	FeatureRedOrAlpha8IsRed
	FeatureElementIndexUint
	FeatureCompute
	FeatureWideLines
	FeatureVertexShaderPointSize
	FeatureBaseVertex
	FeatureBaseInstance
	FeatureReadBackNonBaseMipLevel
	FeatureTexelFetch
)

// ResourceLimit is a numeric device limit.
type ResourceLimit int

// Resource limits.
const (
	TextureSizeMin ResourceLimit = iota
	TextureSizeMax
	MaxColorAttachments
	FramesInFlight
)

func (l ResourceLimit) String() string {
	switch l {
	case TextureSizeMin:
		return "TextureSizeMin"
	case TextureSizeMax:
		return "TextureSizeMax"
	case MaxColorAttachments:
		return "MaxColorAttachments"
	case FramesInFlight:
		return "FramesInFlight"
	}
	return fmt.Sprintf("ResourceLimit(%d)", int(l))
}
