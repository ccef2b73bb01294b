// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderdesc

import "fmt"

// VariableType is the type of a shader variable or block member.
type VariableType int

// Variable types. VariableUnknown is the absence sentinel.
const (
	VariableUnknown VariableType = iota

	Float
	Vec2
	Vec3
	Vec4
	Mat2
	Mat2x3
	Mat2x4
	Mat3
	Mat3x2
	Mat3x4
	Mat4
	Mat4x2
	Mat4x3

	Int
	Int2
	Int3
	Int4

	Uint
	Uint2
	Uint3
	Uint4

	Bool
	Bool2
	Bool3
	Bool4

	Double
	Double2
	Double3
	Double4
	DMat2
	DMat2x3
	DMat2x4
	DMat3
	DMat3x2
	DMat3x4
	DMat4
	DMat4x2
	DMat4x3

	Sampler1D
	Sampler2D
	Sampler2DMS
	Sampler3D
	SamplerCube
	Sampler1DArray
	Sampler2DArray
	Sampler2DMSArray
	Sampler3DArray
	SamplerCubeArray
	SamplerRect
	SamplerBuffer

	Image1D
	Image2D
	Image2DMS
	Image3D
	ImageCube
	Image1DArray
	Image2DArray
	Image2DMSArray
	Image3DArray
	ImageCubeArray
	ImageRect
	ImageBuffer

	Struct
)

var variableTypeTokens = map[VariableType]string{
	Float:            "float",
	Vec2:             "vec2",
	Vec3:             "vec3",
	Vec4:             "vec4",
	Mat2:             "mat2",
	Mat3:             "mat3",
	Mat4:             "mat4",
	Struct:           "struct",
	Sampler1D:        "sampler1D",
	Sampler2D:        "sampler2D",
	Sampler2DMS:      "sampler2DMS",
	Sampler3D:        "sampler3D",
	SamplerCube:      "samplerCube",
	Sampler1DArray:   "sampler1DArray",
	Sampler2DArray:   "sampler2DArray",
	Sampler2DMSArray: "sampler2DMSArray",
	Sampler3DArray:   "sampler3DArray",
	SamplerCubeArray: "samplerCubeArray",
	SamplerRect:      "samplerRect",
	SamplerBuffer:    "samplerBuffer",
	Mat2x3:           "mat2x3",
	Mat2x4:           "mat2x4",
	Mat3x2:           "mat3x2",
	Mat3x4:           "mat3x4",
	Mat4x2:           "mat4x2",
	Mat4x3:           "mat4x3",
	Int:              "int",
	Int2:             "ivec2",
	Int3:             "ivec3",
	Int4:             "ivec4",
	Uint:             "uint",
	Uint2:            "uvec2",
	Uint3:            "uvec3",
	Uint4:            "uvec4",
	Bool:             "bool",
	Bool2:            "bvec2",
	Bool3:            "bvec3",
	Bool4:            "bvec4",
	Double:           "double",
	Double2:          "dvec2",
	Double3:          "dvec3",
	Double4:          "dvec4",
	DMat2:            "dmat2",
	DMat3:            "dmat3",
	DMat4:            "dmat4",
	DMat2x3:          "dmat2x3",
	DMat2x4:          "dmat2x4",
	DMat3x2:          "dmat3x2",
	DMat3x4:          "dmat3x4",
	DMat4x2:          "dmat4x2",
	DMat4x3:          "dmat4x3",
	Image1D:          "image1D",
	Image2D:          "image2D",
	Image2DMS:        "image2DMS",
	Image3D:          "image3D",
	ImageCube:        "imageCube",
	Image1DArray:     "image1DArray",
	Image2DArray:     "image2DArray",
	Image2DMSArray:   "image2DMSArray",
	Image3DArray:     "image3DArray",
	ImageCubeArray:   "imageCubeArray",
	ImageRect:        "imageRect",
	ImageBuffer:      "imageBuffer",
}

var variableTypesByToken = invert(variableTypeTokens)

// Token returns the document token for t, or "" for VariableUnknown and
// out-of-range values. An empty token means the field is omitted.
func (t VariableType) Token() string {
	return variableTypeTokens[t]
}

// String returns the token for t, or a diagnostic form for unknown values.
func (t VariableType) String() string {
	if s, ok := variableTypeTokens[t]; ok {
		return s
	}
	if t == VariableUnknown {
		return "unknown"
	}
	return fmt.Sprintf("VariableType(%d)", int(t))
}

// ParseVariableType maps a document token to its VariableType.
// Unknown tokens yield VariableUnknown.
func ParseVariableType(token string) VariableType {
	return variableTypesByToken[token]
}

// IsSampler reports whether t is one of the combined image sampler types.
func (t VariableType) IsSampler() bool {
	return t >= Sampler1D && t <= SamplerBuffer
}

// IsImage reports whether t is one of the storage image types.
func (t VariableType) IsImage() bool {
	return t >= Image1D && t <= ImageBuffer
}

// IsMatrix reports whether t is a single or double precision matrix type.
func (t VariableType) IsMatrix() bool {
	return (t >= Mat2 && t <= Mat4x3) || (t >= DMat2 && t <= DMat4x3)
}

// ImageFormat is the declared format of a storage image.
type ImageFormat int

// Image formats. ImageFormatUnknown is the absence sentinel.
const (
	ImageFormatUnknown ImageFormat = iota
	ImageFormatRgba32f
	ImageFormatRgba16f
	ImageFormatR32f
	ImageFormatRgba8
	ImageFormatRgba8Snorm
	ImageFormatRg32f
	ImageFormatRg16f
	ImageFormatR11fG11fB10f
	ImageFormatR16f
	ImageFormatRgba16
	ImageFormatRgb10A2
	ImageFormatRg16
	ImageFormatRg8
	ImageFormatR16
	ImageFormatR8
	ImageFormatRgba16Snorm
	ImageFormatRg16Snorm
	ImageFormatRg8Snorm
	ImageFormatR16Snorm
	ImageFormatR8Snorm
	ImageFormatRgba32i
	ImageFormatRgba16i
	ImageFormatRgba8i
	ImageFormatR32i
	ImageFormatRg32i
	ImageFormatRg16i
	ImageFormatRg8i
	ImageFormatR16i
	ImageFormatR8i
	ImageFormatRgba32ui
	ImageFormatRgba16ui
	ImageFormatRgba8ui
	ImageFormatR32ui
	ImageFormatRgb10a2ui
	ImageFormatRg32ui
	ImageFormatRg16ui
	ImageFormatRg8ui
	ImageFormatR16ui
	ImageFormatR8ui
)

// The float format is "rgba16f" and the normalized one "rgba16", matching the
// GLSL layout qualifiers. Each token names exactly one format.
var imageFormatTokens = map[ImageFormat]string{
	ImageFormatRgba32f:      "rgba32f",
	ImageFormatRgba16f:      "rgba16f",
	ImageFormatR32f:         "r32f",
	ImageFormatRgba8:        "rgba8",
	ImageFormatRgba8Snorm:   "rgba8_snorm",
	ImageFormatRg32f:        "rg32f",
	ImageFormatRg16f:        "rg16f",
	ImageFormatR11fG11fB10f: "r11f_g11f_b10f",
	ImageFormatR16f:         "r16f",
	ImageFormatRgba16:       "rgba16",
	ImageFormatRgb10A2:      "rgb10_a2",
	ImageFormatRg16:         "rg16",
	ImageFormatRg8:          "rg8",
	ImageFormatR16:          "r16",
	ImageFormatR8:           "r8",
	ImageFormatRgba16Snorm:  "rgba16_snorm",
	ImageFormatRg16Snorm:    "rg16_snorm",
	ImageFormatRg8Snorm:     "rg8_snorm",
	ImageFormatR16Snorm:     "r16_snorm",
	ImageFormatR8Snorm:      "r8_snorm",
	ImageFormatRgba32i:      "rgba32i",
	ImageFormatRgba16i:      "rgba16i",
	ImageFormatRgba8i:       "rgba8i",
	ImageFormatR32i:         "r32i",
	ImageFormatRg32i:        "rg32i",
	ImageFormatRg16i:        "rg16i",
	ImageFormatRg8i:         "rg8i",
	ImageFormatR16i:         "r16i",
	ImageFormatR8i:          "r8i",
	ImageFormatRgba32ui:     "rgba32ui",
	ImageFormatRgba16ui:     "rgba16ui",
	ImageFormatRgba8ui:      "rgba8ui",
	ImageFormatR32ui:        "r32ui",
	ImageFormatRgb10a2ui:    "rgb10_a2ui",
	ImageFormatRg32ui:       "rg32ui",
	ImageFormatRg16ui:       "rg16ui",
	ImageFormatRg8ui:        "rg8ui",
	ImageFormatR16ui:        "r16ui",
	ImageFormatR8ui:         "r8ui",
}

var imageFormatsByToken = invert(imageFormatTokens)

// Token returns the document token for f, or "" for ImageFormatUnknown.
func (f ImageFormat) Token() string {
	return imageFormatTokens[f]
}

// String returns the token for f, or a diagnostic form for unknown values.
func (f ImageFormat) String() string {
	if s, ok := imageFormatTokens[f]; ok {
		return s
	}
	if f == ImageFormatUnknown {
		return "unknown"
	}
	return fmt.Sprintf("ImageFormat(%d)", int(f))
}

// ParseImageFormat maps a document token to its ImageFormat.
// Unknown tokens yield ImageFormatUnknown.
func ParseImageFormat(token string) ImageFormat {
	return imageFormatsByToken[token]
}

// ImageFlags qualifies storage image access.
type ImageFlags int

// Image access flags.
const (
	ReadOnlyImage  ImageFlags = 1 << 0
	WriteOnlyImage ImageFlags = 1 << 1
)

// String returns a readable form such as "readonly|writeonly".
func (f ImageFlags) String() string {
	switch f {
	case 0:
		return "none"
	case ReadOnlyImage:
		return "readonly"
	case WriteOnlyImage:
		return "writeonly"
	case ReadOnlyImage | WriteOnlyImage:
		return "readonly|writeonly"
	default:
		return fmt.Sprintf("ImageFlags(%#x)", int(f))
	}
}

func invert[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		if _, dup := out[v]; dup {
			panic("shaderdesc: duplicate token " + v)
		}
		out[v] = k
	}
	return out
}
