// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderdesc

import (
	"fmt"
	"slices"
	"strings"
)

// storage is the payload shared between copies of a Description.
// It is never modified after it has been attached to a Description.
type storage struct {
	inVars                []InOutVariable
	outVars               []InOutVariable
	uniformBlocks         []UniformBlock
	pushConstantBlocks    []PushConstantBlock
	storageBlocks         []StorageBlock
	combinedImageSamplers []InOutVariable
	storageImages         []InOutVariable
}

// Description is the reflected interface of one shader stage.
// The zero value is an empty, invalid description ready to use.
type Description struct {
	d *storage
}

// data returns the shared payload, or an empty one for the zero value.
func (desc Description) data() *storage {
	if desc.d == nil {
		return &storage{}
	}
	return desc.d
}

// detach gives desc a private shallow copy of its payload. Slices stay
// shared but are clipped, so any append reallocates instead of writing
// into an array another copy can see.
func (desc *Description) detach() *storage {
	old := desc.data()
	d := &storage{
		inVars:                slices.Clip(old.inVars),
		outVars:               slices.Clip(old.outVars),
		uniformBlocks:         slices.Clip(old.uniformBlocks),
		pushConstantBlocks:    slices.Clip(old.pushConstantBlocks),
		storageBlocks:         slices.Clip(old.storageBlocks),
		combinedImageSamplers: slices.Clip(old.combinedImageSamplers),
		storageImages:         slices.Clip(old.storageImages),
	}
	desc.d = d
	return d
}

// IsValid reports whether at least one collection is non-empty.
func (desc Description) IsValid() bool {
	d := desc.data()
	return len(d.inVars) > 0 ||
		len(d.outVars) > 0 ||
		len(d.uniformBlocks) > 0 ||
		len(d.pushConstantBlocks) > 0 ||
		len(d.storageBlocks) > 0 ||
		len(d.combinedImageSamplers) > 0 ||
		len(d.storageImages) > 0
}

// Clone returns a copy of desc. Plain assignment is equally safe; Clone
// exists for readability at call sites that hand a description to another
// owner.
func (desc Description) Clone() Description {
	return desc
}

// InputVariables returns the stage inputs in declaration order.
func (desc Description) InputVariables() []InOutVariable {
	return slices.Clone(desc.data().inVars)
}

// OutputVariables returns the stage outputs in declaration order.
func (desc Description) OutputVariables() []InOutVariable {
	return slices.Clone(desc.data().outVars)
}

// UniformBlocks returns the uniform blocks.
func (desc Description) UniformBlocks() []UniformBlock {
	return deepCopy(desc.data().uniformBlocks)
}

// PushConstantBlocks returns the push constant blocks.
func (desc Description) PushConstantBlocks() []PushConstantBlock {
	return deepCopy(desc.data().pushConstantBlocks)
}

// StorageBlocks returns the storage blocks.
func (desc Description) StorageBlocks() []StorageBlock {
	return deepCopy(desc.data().storageBlocks)
}

// CombinedImageSamplers returns the combined image samplers.
func (desc Description) CombinedImageSamplers() []InOutVariable {
	return slices.Clone(desc.data().combinedImageSamplers)
}

// StorageImages returns the storage images.
func (desc Description) StorageImages() []InOutVariable {
	return slices.Clone(desc.data().storageImages)
}

// AddInputVariable appends a stage input.
func (desc *Description) AddInputVariable(v InOutVariable) {
	d := desc.detach()
	d.inVars = append(d.inVars, v)
}

// AddOutputVariable appends a stage output.
func (desc *Description) AddOutputVariable(v InOutVariable) {
	d := desc.detach()
	d.outVars = append(d.outVars, v)
}

// AddUniformBlock appends a uniform block. The block is copied.
func (desc *Description) AddUniformBlock(b UniformBlock) {
	b.Members = deepCopy(b.Members)
	d := desc.detach()
	d.uniformBlocks = append(d.uniformBlocks, b)
}

// AddPushConstantBlock appends a push constant block. The block is copied.
func (desc *Description) AddPushConstantBlock(b PushConstantBlock) {
	b.Members = deepCopy(b.Members)
	d := desc.detach()
	d.pushConstantBlocks = append(d.pushConstantBlocks, b)
}

// AddStorageBlock appends a storage block. The block is copied.
func (desc *Description) AddStorageBlock(b StorageBlock) {
	b.Members = deepCopy(b.Members)
	d := desc.detach()
	d.storageBlocks = append(d.storageBlocks, b)
}

// AddCombinedImageSampler appends a combined image sampler.
func (desc *Description) AddCombinedImageSampler(v InOutVariable) {
	d := desc.detach()
	d.combinedImageSamplers = append(d.combinedImageSamplers, v)
}

// AddStorageImage appends a storage image.
func (desc *Description) AddStorageImage(v InOutVariable) {
	d := desc.detach()
	d.storageImages = append(d.storageImages, v)
}

// FindUniformBlock looks up a uniform block by block or instance name.
func (desc Description) FindUniformBlock(name string) (UniformBlock, bool) {
	for _, b := range desc.data().uniformBlocks {
		if b.BlockName == name || b.StructName == name {
			b.Members = deepCopy(b.Members)
			return b, true
		}
	}
	return UniformBlock{}, false
}

// FindStorageBlock looks up a storage block by block or instance name.
func (desc Description) FindStorageBlock(name string) (StorageBlock, bool) {
	for _, b := range desc.data().storageBlocks {
		if b.BlockName == name || b.InstanceName == name {
			b.Members = deepCopy(b.Members)
			return b, true
		}
	}
	return StorageBlock{}, false
}

// Equal reports whether desc and o describe the same interface, comparing
// every collection element by element in order.
func (desc Description) Equal(o Description) bool {
	a, b := desc.data(), o.data()
	if a == b {
		return true
	}
	return slices.Equal(a.inVars, b.inVars) &&
		slices.Equal(a.outVars, b.outVars) &&
		slices.EqualFunc(a.uniformBlocks, b.uniformBlocks, UniformBlock.Equal) &&
		slices.EqualFunc(a.pushConstantBlocks, b.pushConstantBlocks, PushConstantBlock.Equal) &&
		slices.EqualFunc(a.storageBlocks, b.storageBlocks, StorageBlock.Equal) &&
		slices.Equal(a.combinedImageSamplers, b.combinedImageSamplers) &&
		slices.Equal(a.storageImages, b.storageImages)
}

func (desc Description) String() string {
	d := desc.data()
	if !desc.IsValid() {
		return "ShaderDescription(null)"
	}
	var b strings.Builder
	b.WriteString("ShaderDescription(")
	fmt.Fprintf(&b, "inVars %v outVars %v uniformBlocks %v pcBlocks %v storageBlocks %v combinedSamplers %v images %v",
		d.inVars, d.outVars, d.uniformBlocks, d.pushConstantBlocks, d.storageBlocks,
		d.combinedImageSamplers, d.storageImages)
	b.WriteByte(')')
	return b.String()
}
