// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderdesc

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jinzhu/copier"
)

// InOutVariable describes a stage input or output, a combined image sampler,
// or a storage image. Location, Binding and DescriptorSet are -1 when absent.
type InOutVariable struct {
	Name          string
	Type          VariableType
	Location      int
	Binding       int
	DescriptorSet int
	ImageFormat   ImageFormat
	ImageFlags    ImageFlags
}

// NewInOutVariable returns a variable with all numeric slots absent.
func NewInOutVariable(name string, typ VariableType) InOutVariable {
	return InOutVariable{
		Name:          name,
		Type:          typ,
		Location:      -1,
		Binding:       -1,
		DescriptorSet: -1,
	}
}

func (v InOutVariable) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "InOutVariable(%s %s", v.Type, v.Name)
	if v.Location >= 0 {
		fmt.Fprintf(&b, " location=%d", v.Location)
	}
	if v.Binding >= 0 {
		fmt.Fprintf(&b, " binding=%d", v.Binding)
	}
	if v.DescriptorSet >= 0 {
		fmt.Fprintf(&b, " set=%d", v.DescriptorSet)
	}
	if v.ImageFormat != ImageFormatUnknown {
		fmt.Fprintf(&b, " imageFormat=%s", v.ImageFormat)
	}
	if v.ImageFlags != 0 {
		fmt.Fprintf(&b, " imageFlags=%s", v.ImageFlags)
	}
	b.WriteByte(')')
	return b.String()
}

// BlockVariable is a member of a uniform, push constant or storage block.
//
// ArrayDims lists array dimensions outermost first. An empty list means the
// member is not an array; a trailing 0 marks a runtime-sized array.
// StructMembers is used when Type is Struct.
type BlockVariable struct {
	Name             string
	Type             VariableType
	Offset           int
	Size             int
	ArrayDims        []int
	ArrayStride      int
	MatrixStride     int
	MatrixIsRowMajor bool
	StructMembers    []BlockVariable
}

// IsRuntimeSized reports whether the outermost array dimension is unsized.
func (v BlockVariable) IsRuntimeSized() bool {
	return len(v.ArrayDims) > 0 && v.ArrayDims[len(v.ArrayDims)-1] == 0
}

// Equal reports whether v and o are structurally identical, recursing into
// struct members.
func (v BlockVariable) Equal(o BlockVariable) bool {
	return v.Name == o.Name &&
		v.Type == o.Type &&
		v.Offset == o.Offset &&
		v.Size == o.Size &&
		slices.Equal(v.ArrayDims, o.ArrayDims) &&
		v.ArrayStride == o.ArrayStride &&
		v.MatrixStride == o.MatrixStride &&
		v.MatrixIsRowMajor == o.MatrixIsRowMajor &&
		membersEqual(v.StructMembers, o.StructMembers)
}

func (v BlockVariable) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "BlockVariable(%s %s offset=%d size=%d", v.Type, v.Name, v.Offset, v.Size)
	if len(v.ArrayDims) > 0 {
		fmt.Fprintf(&b, " array=%v", v.ArrayDims)
	}
	if v.ArrayStride != 0 {
		fmt.Fprintf(&b, " arrayStride=%d", v.ArrayStride)
	}
	if v.MatrixStride != 0 {
		fmt.Fprintf(&b, " matrixStride=%d", v.MatrixStride)
	}
	if v.MatrixIsRowMajor {
		b.WriteString(" [rowmaj]")
	}
	if len(v.StructMembers) > 0 {
		fmt.Fprintf(&b, " structMembers=%v", v.StructMembers)
	}
	b.WriteByte(')')
	return b.String()
}

// UniformBlock is a uniform buffer block. BlockName is the block type name,
// StructName the instance name used in the shader source.
type UniformBlock struct {
	BlockName     string
	StructName    string
	Size          int
	Binding       int
	DescriptorSet int
	Members       []BlockVariable
}

// Equal reports whether b and o are structurally identical.
func (b UniformBlock) Equal(o UniformBlock) bool {
	return b.BlockName == o.BlockName &&
		b.StructName == o.StructName &&
		b.Size == o.Size &&
		b.Binding == o.Binding &&
		b.DescriptorSet == o.DescriptorSet &&
		membersEqual(b.Members, o.Members)
}

func (b UniformBlock) String() string {
	return fmt.Sprintf("UniformBlock(%s %s size=%d binding=%d set=%d %v)",
		b.BlockName, b.StructName, b.Size, b.Binding, b.DescriptorSet, b.Members)
}

// PushConstantBlock is a block of push constants.
type PushConstantBlock struct {
	Name    string
	Size    int
	Members []BlockVariable
}

// Equal reports whether b and o are structurally identical.
func (b PushConstantBlock) Equal(o PushConstantBlock) bool {
	return b.Name == o.Name && b.Size == o.Size && membersEqual(b.Members, o.Members)
}

func (b PushConstantBlock) String() string {
	return fmt.Sprintf("PushConstantBlock(%s size=%d %v)", b.Name, b.Size, b.Members)
}

// StorageBlock is a shader storage buffer block. KnownSize excludes the
// unknown tail of a trailing runtime-sized array member.
type StorageBlock struct {
	BlockName     string
	InstanceName  string
	KnownSize     int
	Binding       int
	DescriptorSet int
	Members       []BlockVariable
}

// Equal reports whether b and o are structurally identical.
func (b StorageBlock) Equal(o StorageBlock) bool {
	return b.BlockName == o.BlockName &&
		b.InstanceName == o.InstanceName &&
		b.KnownSize == o.KnownSize &&
		b.Binding == o.Binding &&
		b.DescriptorSet == o.DescriptorSet &&
		membersEqual(b.Members, o.Members)
}

func (b StorageBlock) String() string {
	return fmt.Sprintf("StorageBlock(%s %s knownSize=%d binding=%d set=%d %v)",
		b.BlockName, b.InstanceName, b.KnownSize, b.Binding, b.DescriptorSet, b.Members)
}

func membersEqual(a, b []BlockVariable) bool {
	return slices.EqualFunc(a, b, BlockVariable.Equal)
}

// deepCopy returns an independent copy of src, including nested member
// slices. Nil stays nil.
func deepCopy[T any](src []T) []T {
	if src == nil {
		return nil
	}
	dst := make([]T, 0, len(src))
	if err := copier.CopyWithOption(&dst, &src, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds, which cannot happen for
		// identical element types.
		panic(fmt.Sprintf("shaderdesc: deep copy: %v", err))
	}
	return dst
}
