// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgslreflect builds shader interface descriptions from WGSL source.
//
// The source is parsed and lowered with naga; the resulting IR module is
// walked to collect entry point inputs and outputs and the module-scope
// resources (uniform, storage and push constant blocks, textures and storage
// textures). All resources declared by the module are reported for every
// entry point.
package wgslreflect

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/rhi/shaderdesc"
)

// ErrNoEntryPoint is returned when the source has no entry point for the
// requested stage or name.
var ErrNoEntryPoint = errors.New("wgslreflect: no matching entry point")

// Stage identifies the pipeline stage of an entry point.
type Stage int

// Shader stages.
const (
	Vertex Stage = iota
	Fragment
	Compute
)

func (s Stage) String() string {
	switch s {
	case Vertex:
		return "vertex"
	case Fragment:
		return "fragment"
	case Compute:
		return "compute"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// ParseStage maps "vertex", "fragment" or "compute" to a Stage.
func ParseStage(s string) (Stage, error) {
	switch s {
	case "vertex", "vert", "vs":
		return Vertex, nil
	case "fragment", "frag", "fs":
		return Fragment, nil
	case "compute", "comp", "cs":
		return Compute, nil
	}
	return 0, fmt.Errorf("wgslreflect: unknown stage %q", s)
}

// stageOf reports false for mesh and task entry points, which have no
// Stage.
func stageOf(s ir.ShaderStage) (Stage, bool) {
	switch s {
	case ir.StageVertex:
		return Vertex, true
	case ir.StageFragment:
		return Fragment, true
	case ir.StageCompute:
		return Compute, true
	}
	return 0, false
}

// EntryPoint is one reflected entry point.
type EntryPoint struct {
	Name        string
	Stage       Stage
	Workgroup   [3]uint32
	Description shaderdesc.Description
}

// Reflect returns the description of the first entry point of the given
// stage.
func Reflect(source string, stage Stage) (shaderdesc.Description, error) {
	eps, err := ReflectAll(source)
	if err != nil {
		return shaderdesc.Description{}, err
	}
	for _, ep := range eps {
		if ep.Stage == stage {
			return ep.Description, nil
		}
	}
	return shaderdesc.Description{}, fmt.Errorf("%w: stage %s", ErrNoEntryPoint, stage)
}

// ReflectEntryPoint returns the named entry point.
func ReflectEntryPoint(source, name string) (EntryPoint, error) {
	eps, err := ReflectAll(source)
	if err != nil {
		return EntryPoint{}, err
	}
	for _, ep := range eps {
		if ep.Name == name {
			return ep, nil
		}
	}
	return EntryPoint{}, fmt.Errorf("%w: %q", ErrNoEntryPoint, name)
}

// ReflectAll returns every entry point in declaration order.
func ReflectAll(source string) ([]EntryPoint, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("wgslreflect: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("wgslreflect: %w", err)
	}

	r := &reflector{module: module}
	resources := r.resources()

	eps := make([]EntryPoint, 0, len(module.EntryPoints))
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		stage, ok := stageOf(ep.Stage)
		if !ok {
			continue
		}
		desc := resources
		r.stageIO(&desc, &ep.Function)
		eps = append(eps, EntryPoint{
			Name:        ep.Name,
			Stage:       stage,
			Workgroup:   ep.Workgroup,
			Description: desc,
		})
	}
	return eps, nil
}

type reflector struct {
	module *ir.Module
}

func (r *reflector) inner(h ir.TypeHandle) ir.TypeInner {
	if int(h) >= len(r.module.Types) {
		return nil
	}
	return r.module.Types[h].Inner
}

// stageIO appends location-bound arguments and results. Struct arguments
// and results contribute their location-bound members.
func (r *reflector) stageIO(desc *shaderdesc.Description, fn *ir.Function) {
	for _, arg := range fn.Arguments {
		for _, v := range r.ioVariables(arg.Name, arg.Type, arg.Binding) {
			desc.AddInputVariable(v)
		}
	}
	if fn.Result != nil {
		for _, v := range r.ioVariables("", fn.Result.Type, fn.Result.Binding) {
			desc.AddOutputVariable(v)
		}
	}
}

func (r *reflector) ioVariables(name string, typ ir.TypeHandle, binding *ir.Binding) []shaderdesc.InOutVariable {
	if loc, ok := location(binding); ok {
		if name == "" {
			name = fmt.Sprintf("out%d", loc)
		}
		v := shaderdesc.NewInOutVariable(name, r.variableType(typ))
		v.Location = int(loc)
		return []shaderdesc.InOutVariable{v}
	}
	st, ok := r.inner(typ).(ir.StructType)
	if !ok {
		return nil
	}
	var out []shaderdesc.InOutVariable
	for _, m := range st.Members {
		if loc, ok := location(m.Binding); ok {
			v := shaderdesc.NewInOutVariable(m.Name, r.variableType(m.Type))
			v.Location = int(loc)
			out = append(out, v)
		}
	}
	return out
}

func location(b *ir.Binding) (uint32, bool) {
	if b == nil || *b == nil {
		return 0, false
	}
	if lb, ok := (*b).(ir.LocationBinding); ok {
		return lb.Location, true
	}
	return 0, false
}

// resources collects module-scope blocks and images.
func (r *reflector) resources() shaderdesc.Description {
	var desc shaderdesc.Description
	for _, gv := range r.module.GlobalVariables {
		binding, set := -1, -1
		if gv.Binding != nil {
			binding, set = int(gv.Binding.Binding), int(gv.Binding.Group)
		}
		switch gv.Space {
		case ir.SpaceUniform:
			members, size := r.blockMembers(gv.Type)
			desc.AddUniformBlock(shaderdesc.UniformBlock{
				BlockName:     r.typeName(gv.Type, gv.Name),
				StructName:    gv.Name,
				Size:          size,
				Binding:       binding,
				DescriptorSet: set,
				Members:       members,
			})
		case ir.SpaceStorage:
			members, size := r.blockMembers(gv.Type)
			desc.AddStorageBlock(shaderdesc.StorageBlock{
				BlockName:     r.typeName(gv.Type, gv.Name),
				InstanceName:  gv.Name,
				KnownSize:     size,
				Binding:       binding,
				DescriptorSet: set,
				Members:       members,
			})
		case ir.SpacePushConstant:
			members, size := r.blockMembers(gv.Type)
			desc.AddPushConstantBlock(shaderdesc.PushConstantBlock{
				Name:    gv.Name,
				Size:    size,
				Members: members,
			})
		case ir.SpaceHandle:
			img, ok := r.inner(gv.Type).(ir.ImageType)
			if !ok {
				// Separate samplers have no combined counterpart.
				continue
			}
			v := shaderdesc.NewInOutVariable(gv.Name, imageVariableType(img))
			v.Binding, v.DescriptorSet = binding, set
			if img.Class == ir.ImageClassStorage {
				v.ImageFormat = storageFormats[img.StorageFormat]
				v.ImageFlags = accessFlags(img.StorageAccess)
				desc.AddStorageImage(v)
			} else {
				desc.AddCombinedImageSampler(v)
			}
		}
	}
	return desc
}

func (r *reflector) typeName(h ir.TypeHandle, fallback string) string {
	if int(h) < len(r.module.Types) && r.module.Types[h].Name != "" {
		return r.module.Types[h].Name
	}
	return fallback
}

// blockMembers returns the members of a block type and its size excluding
// trailing padding and the unknown tail of a runtime-sized array. A
// non-struct block type becomes a single unnamed member.
func (r *reflector) blockMembers(h ir.TypeHandle) ([]shaderdesc.BlockVariable, int) {
	st, ok := r.inner(h).(ir.StructType)
	if !ok {
		m := r.member("", h, 0)
		return []shaderdesc.BlockVariable{m}, m.Size
	}
	members := r.structMembers(st)
	size := 0
	for _, m := range members {
		size = max(size, m.Offset+m.Size)
	}
	return members, size
}

func (r *reflector) structMembers(st ir.StructType) []shaderdesc.BlockVariable {
	out := make([]shaderdesc.BlockVariable, 0, len(st.Members))
	for _, m := range st.Members {
		out = append(out, r.member(m.Name, m.Type, int(m.Offset)))
	}
	return out
}

func (r *reflector) member(name string, h ir.TypeHandle, offset int) shaderdesc.BlockVariable {
	v := shaderdesc.BlockVariable{Name: name, Offset: offset}
	inner := r.inner(h)

	// Peel array dimensions, outermost first.
	for {
		arr, ok := inner.(ir.ArrayType)
		if !ok {
			break
		}
		n := 0
		if arr.Size.Constant != nil {
			n = int(*arr.Size.Constant)
		}
		if len(v.ArrayDims) == 0 {
			v.ArrayStride = int(arr.Stride)
		}
		v.ArrayDims = append(v.ArrayDims, n)
		inner = r.inner(arr.Base)
		h = arr.Base
	}

	v.Type = r.innerType(inner)
	_, elemSize := r.layout(h)
	switch t := inner.(type) {
	case ir.MatrixType:
		v.MatrixStride = matrixStride(t)
	case ir.StructType:
		v.StructMembers = r.structMembers(t)
	}

	v.Size = elemSize
	if len(v.ArrayDims) > 0 {
		v.Size = v.ArrayStride
		for _, n := range v.ArrayDims {
			v.Size *= n
		}
	}
	return v
}

func (r *reflector) variableType(h ir.TypeHandle) shaderdesc.VariableType {
	return r.innerType(r.inner(h))
}

func (r *reflector) innerType(inner ir.TypeInner) shaderdesc.VariableType {
	switch t := inner.(type) {
	case ir.ScalarType:
		return vectorType(t, 1)
	case ir.VectorType:
		return vectorType(t.Scalar, int(t.Size))
	case ir.MatrixType:
		return matrixType(t)
	case ir.AtomicType:
		return vectorType(t.Scalar, 1)
	case ir.StructType:
		return shaderdesc.Struct
	case ir.ImageType:
		return imageVariableType(t)
	}
	return shaderdesc.VariableUnknown
}

var scalarBases = map[ir.ScalarKind]shaderdesc.VariableType{
	ir.ScalarFloat: shaderdesc.Float,
	ir.ScalarSint:  shaderdesc.Int,
	ir.ScalarUint:  shaderdesc.Uint,
	ir.ScalarBool:  shaderdesc.Bool,
}

// vectorType relies on the scalar and its vec2..vec4 forms being
// consecutive in VariableType.
func vectorType(s ir.ScalarType, n int) shaderdesc.VariableType {
	base, ok := scalarBases[s.Kind]
	if !ok || n < 1 || n > 4 {
		return shaderdesc.VariableUnknown
	}
	if s.Kind == ir.ScalarFloat && s.Width == 8 {
		base = shaderdesc.Double
	}
	return base + shaderdesc.VariableType(n-1)
}

// matrixType maps columns x rows to the GLSL-style matCxR types.
func matrixType(m ir.MatrixType) shaderdesc.VariableType {
	type key struct{ c, r ir.VectorSize }
	single := map[key]shaderdesc.VariableType{
		{2, 2}: shaderdesc.Mat2, {2, 3}: shaderdesc.Mat2x3, {2, 4}: shaderdesc.Mat2x4,
		{3, 2}: shaderdesc.Mat3x2, {3, 3}: shaderdesc.Mat3, {3, 4}: shaderdesc.Mat3x4,
		{4, 2}: shaderdesc.Mat4x2, {4, 3}: shaderdesc.Mat4x3, {4, 4}: shaderdesc.Mat4,
	}
	double := map[key]shaderdesc.VariableType{
		{2, 2}: shaderdesc.DMat2, {2, 3}: shaderdesc.DMat2x3, {2, 4}: shaderdesc.DMat2x4,
		{3, 2}: shaderdesc.DMat3x2, {3, 3}: shaderdesc.DMat3, {3, 4}: shaderdesc.DMat3x4,
		{4, 2}: shaderdesc.DMat4x2, {4, 3}: shaderdesc.DMat4x3, {4, 4}: shaderdesc.DMat4,
	}
	k := key{m.Columns, m.Rows}
	if m.Scalar.Width == 8 {
		return double[k]
	}
	return single[k]
}

func imageVariableType(img ir.ImageType) shaderdesc.VariableType {
	if img.Class == ir.ImageClassStorage {
		switch img.Dim {
		case ir.Dim1D:
			return pick(img.Arrayed, shaderdesc.Image1DArray, shaderdesc.Image1D)
		case ir.Dim3D:
			return pick(img.Arrayed, shaderdesc.Image3DArray, shaderdesc.Image3D)
		case ir.DimCube:
			return pick(img.Arrayed, shaderdesc.ImageCubeArray, shaderdesc.ImageCube)
		default:
			if img.Multisampled {
				return pick(img.Arrayed, shaderdesc.Image2DMSArray, shaderdesc.Image2DMS)
			}
			return pick(img.Arrayed, shaderdesc.Image2DArray, shaderdesc.Image2D)
		}
	}
	switch img.Dim {
	case ir.Dim1D:
		return pick(img.Arrayed, shaderdesc.Sampler1DArray, shaderdesc.Sampler1D)
	case ir.Dim3D:
		return pick(img.Arrayed, shaderdesc.Sampler3DArray, shaderdesc.Sampler3D)
	case ir.DimCube:
		return pick(img.Arrayed, shaderdesc.SamplerCubeArray, shaderdesc.SamplerCube)
	default:
		if img.Multisampled {
			return pick(img.Arrayed, shaderdesc.Sampler2DMSArray, shaderdesc.Sampler2DMS)
		}
		return pick(img.Arrayed, shaderdesc.Sampler2DArray, shaderdesc.Sampler2D)
	}
}

func pick(cond bool, a, b shaderdesc.VariableType) shaderdesc.VariableType {
	if cond {
		return a
	}
	return b
}

// layout returns the WGSL host-shareable alignment and size of a type.
func (r *reflector) layout(h ir.TypeHandle) (align, size int) {
	switch t := r.inner(h).(type) {
	case ir.ScalarType:
		return int(t.Width), int(t.Width)
	case ir.AtomicType:
		return int(t.Scalar.Width), int(t.Scalar.Width)
	case ir.VectorType:
		return vectorLayout(int(t.Size), int(t.Scalar.Width))
	case ir.MatrixType:
		colAlign, _ := vectorLayout(int(t.Rows), int(t.Scalar.Width))
		return colAlign, matrixStride(t) * int(t.Columns)
	case ir.ArrayType:
		align, _ := r.layout(t.Base)
		n := 0
		if t.Size.Constant != nil {
			n = int(*t.Size.Constant)
		}
		return align, int(t.Stride) * n
	case ir.StructType:
		align = 1
		for _, m := range t.Members {
			a, _ := r.layout(m.Type)
			align = max(align, a)
		}
		return align, int(t.Span)
	}
	return 1, 0
}

func vectorLayout(n, width int) (align, size int) {
	size = n * width
	if n == 3 {
		return 4 * width, size
	}
	return size, size
}

// matrixStride is the column stride: the column vector size rounded up to
// its alignment.
func matrixStride(m ir.MatrixType) int {
	align, size := vectorLayout(int(m.Rows), int(m.Scalar.Width))
	return (size + align - 1) / align * align
}

var storageFormats = map[ir.StorageFormat]shaderdesc.ImageFormat{
	ir.StorageFormatR8Unorm:       shaderdesc.ImageFormatR8,
	ir.StorageFormatR8Snorm:       shaderdesc.ImageFormatR8Snorm,
	ir.StorageFormatR8Uint:        shaderdesc.ImageFormatR8ui,
	ir.StorageFormatR8Sint:        shaderdesc.ImageFormatR8i,
	ir.StorageFormatR16Uint:       shaderdesc.ImageFormatR16ui,
	ir.StorageFormatR16Sint:       shaderdesc.ImageFormatR16i,
	ir.StorageFormatR16Float:      shaderdesc.ImageFormatR16f,
	ir.StorageFormatRg8Unorm:      shaderdesc.ImageFormatRg8,
	ir.StorageFormatRg8Snorm:      shaderdesc.ImageFormatRg8Snorm,
	ir.StorageFormatRg8Uint:       shaderdesc.ImageFormatRg8ui,
	ir.StorageFormatRg8Sint:       shaderdesc.ImageFormatRg8i,
	ir.StorageFormatR32Uint:       shaderdesc.ImageFormatR32ui,
	ir.StorageFormatR32Sint:       shaderdesc.ImageFormatR32i,
	ir.StorageFormatR32Float:      shaderdesc.ImageFormatR32f,
	ir.StorageFormatRg16Uint:      shaderdesc.ImageFormatRg16ui,
	ir.StorageFormatRg16Sint:      shaderdesc.ImageFormatRg16i,
	ir.StorageFormatRg16Float:     shaderdesc.ImageFormatRg16f,
	ir.StorageFormatRgba8Unorm:    shaderdesc.ImageFormatRgba8,
	ir.StorageFormatRgba8Snorm:    shaderdesc.ImageFormatRgba8Snorm,
	ir.StorageFormatRgba8Uint:     shaderdesc.ImageFormatRgba8ui,
	ir.StorageFormatRgba8Sint:     shaderdesc.ImageFormatRgba8i,
	ir.StorageFormatRgb10a2Uint:   shaderdesc.ImageFormatRgb10a2ui,
	ir.StorageFormatRgb10a2Unorm:  shaderdesc.ImageFormatRgb10A2,
	ir.StorageFormatRg11b10Ufloat: shaderdesc.ImageFormatR11fG11fB10f,
	ir.StorageFormatRg32Uint:      shaderdesc.ImageFormatRg32ui,
	ir.StorageFormatRg32Sint:      shaderdesc.ImageFormatRg32i,
	ir.StorageFormatRg32Float:     shaderdesc.ImageFormatRg32f,
	ir.StorageFormatRgba16Uint:    shaderdesc.ImageFormatRgba16ui,
	ir.StorageFormatRgba16Sint:    shaderdesc.ImageFormatRgba16i,
	ir.StorageFormatRgba16Float:   shaderdesc.ImageFormatRgba16f,
	ir.StorageFormatRgba32Uint:    shaderdesc.ImageFormatRgba32ui,
	ir.StorageFormatRgba32Sint:    shaderdesc.ImageFormatRgba32i,
	ir.StorageFormatRgba32Float:   shaderdesc.ImageFormatRgba32f,
	ir.StorageFormatR16Unorm:      shaderdesc.ImageFormatR16,
	ir.StorageFormatR16Snorm:      shaderdesc.ImageFormatR16Snorm,
	ir.StorageFormatRg16Unorm:     shaderdesc.ImageFormatRg16,
	ir.StorageFormatRg16Snorm:     shaderdesc.ImageFormatRg16Snorm,
	ir.StorageFormatRgba16Unorm:   shaderdesc.ImageFormatRgba16,
	ir.StorageFormatRgba16Snorm:   shaderdesc.ImageFormatRgba16Snorm,
}

func accessFlags(a ir.StorageAccess) shaderdesc.ImageFlags {
	switch a {
	case ir.StorageAccessRead:
		return shaderdesc.ReadOnlyImage
	case ir.StorageAccessWrite:
		return shaderdesc.WriteOnlyImage
	}
	return 0
}
