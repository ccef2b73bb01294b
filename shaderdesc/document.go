// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderdesc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Document errors.
var (
	// ErrEmptyDocument is returned when decoding zero bytes.
	ErrEmptyDocument = errors.New("shaderdesc: empty document")

	// ErrInvalidDocument is returned when the bytes are not a description document.
	ErrInvalidDocument = errors.New("shaderdesc: invalid document")
)

// Wire form. Keys are fixed; omitempty drops every field equal to its
// default. Optional ints whose default is -1 are pointers.

type inOutDoc struct {
	Name        string `cbor:"name" json:"name"`
	Type        string `cbor:"type" json:"type"`
	Location    *int   `cbor:"location,omitempty" json:"location,omitempty"`
	Binding     *int   `cbor:"binding,omitempty" json:"binding,omitempty"`
	Set         *int   `cbor:"set,omitempty" json:"set,omitempty"`
	ImageFormat string `cbor:"imageFormat,omitempty" json:"imageFormat,omitempty"`
	ImageFlags  int    `cbor:"imageFlags,omitempty" json:"imageFlags,omitempty"`
}

type memberDoc struct {
	Name           string      `cbor:"name" json:"name"`
	Type           string      `cbor:"type" json:"type"`
	Offset         int         `cbor:"offset" json:"offset"`
	Size           int         `cbor:"size" json:"size"`
	ArrayDims      []int       `cbor:"arrayDims,omitempty" json:"arrayDims,omitempty"`
	ArrayStride    int         `cbor:"arrayStride,omitempty" json:"arrayStride,omitempty"`
	MatrixStride   int         `cbor:"matrixStride,omitempty" json:"matrixStride,omitempty"`
	MatrixRowMajor bool        `cbor:"matrixRowMajor,omitempty" json:"matrixRowMajor,omitempty"`
	StructMembers  []memberDoc `cbor:"structMembers,omitempty" json:"structMembers,omitempty"`
}

type uniformBlockDoc struct {
	BlockName  string      `cbor:"blockName" json:"blockName"`
	StructName string      `cbor:"structName" json:"structName"`
	Size       int         `cbor:"size" json:"size"`
	Binding    *int        `cbor:"binding,omitempty" json:"binding,omitempty"`
	Set        *int        `cbor:"set,omitempty" json:"set,omitempty"`
	Members    []memberDoc `cbor:"members" json:"members"`
}

type pushConstantBlockDoc struct {
	Name    string      `cbor:"name" json:"name"`
	Size    int         `cbor:"size" json:"size"`
	Members []memberDoc `cbor:"members" json:"members"`
}

type storageBlockDoc struct {
	BlockName    string      `cbor:"blockName" json:"blockName"`
	InstanceName string      `cbor:"instanceName" json:"instanceName"`
	KnownSize    int         `cbor:"knownSize" json:"knownSize"`
	Binding      *int        `cbor:"binding,omitempty" json:"binding,omitempty"`
	Set          *int        `cbor:"set,omitempty" json:"set,omitempty"`
	Members      []memberDoc `cbor:"members" json:"members"`
}

type document struct {
	Inputs                []inOutDoc             `cbor:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs               []inOutDoc             `cbor:"outputs,omitempty" json:"outputs,omitempty"`
	UniformBlocks         []uniformBlockDoc      `cbor:"uniformBlocks,omitempty" json:"uniformBlocks,omitempty"`
	PushConstantBlocks    []pushConstantBlockDoc `cbor:"pushConstantBlocks,omitempty" json:"pushConstantBlocks,omitempty"`
	StorageBlocks         []storageBlockDoc      `cbor:"storageBlocks,omitempty" json:"storageBlocks,omitempty"`
	CombinedImageSamplers []inOutDoc             `cbor:"combinedImageSamplers,omitempty" json:"combinedImageSamplers,omitempty"`
	StorageImages         []inOutDoc             `cbor:"storageImages,omitempty" json:"storageImages,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.NilContainers = cbor.NilContainerAsEmpty
	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic(fmt.Sprintf("shaderdesc: cbor encode options: %v", err))
	}
	if decMode, err = (cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: 64,
	}).DecMode(); err != nil {
		panic(fmt.Sprintf("shaderdesc: cbor decode options: %v", err))
	}
}

// optional returns nil for the -1 absence sentinel.
func optional(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}

// orAbsent restores the -1 sentinel for an omitted field.
func orAbsent(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

func encodeInOut(v InOutVariable) inOutDoc {
	return inOutDoc{
		Name:        v.Name,
		Type:        v.Type.Token(),
		Location:    optional(v.Location),
		Binding:     optional(v.Binding),
		Set:         optional(v.DescriptorSet),
		ImageFormat: v.ImageFormat.Token(),
		ImageFlags:  int(v.ImageFlags),
	}
}

func decodeInOut(d inOutDoc) InOutVariable {
	return InOutVariable{
		Name:          d.Name,
		Type:          ParseVariableType(d.Type),
		Location:      orAbsent(d.Location),
		Binding:       orAbsent(d.Binding),
		DescriptorSet: orAbsent(d.Set),
		ImageFormat:   ParseImageFormat(d.ImageFormat),
		ImageFlags:    ImageFlags(d.ImageFlags),
	}
}

// encodeMember and decodeMember recurse through struct members.
func encodeMember(v BlockVariable) memberDoc {
	d := memberDoc{
		Name:           v.Name,
		Type:           v.Type.Token(),
		Offset:         v.Offset,
		Size:           v.Size,
		ArrayStride:    v.ArrayStride,
		MatrixStride:   v.MatrixStride,
		MatrixRowMajor: v.MatrixIsRowMajor,
	}
	if len(v.ArrayDims) > 0 {
		d.ArrayDims = append([]int(nil), v.ArrayDims...)
	}
	if len(v.StructMembers) > 0 {
		d.StructMembers = encodeMembers(v.StructMembers)
	}
	return d
}

func decodeMember(d memberDoc) BlockVariable {
	v := BlockVariable{
		Name:             d.Name,
		Type:             ParseVariableType(d.Type),
		Offset:           d.Offset,
		Size:             d.Size,
		ArrayStride:      d.ArrayStride,
		MatrixStride:     d.MatrixStride,
		MatrixIsRowMajor: d.MatrixRowMajor,
	}
	if len(d.ArrayDims) > 0 {
		v.ArrayDims = d.ArrayDims
	}
	if len(d.StructMembers) > 0 {
		v.StructMembers = decodeMembers(d.StructMembers)
	}
	return v
}

func encodeMembers(vs []BlockVariable) []memberDoc {
	out := make([]memberDoc, len(vs))
	for i, v := range vs {
		out[i] = encodeMember(v)
	}
	return out
}

func decodeMembers(ds []memberDoc) []BlockVariable {
	if len(ds) == 0 {
		return nil
	}
	out := make([]BlockVariable, len(ds))
	for i, d := range ds {
		out[i] = decodeMember(d)
	}
	return out
}

func mapSlice[S, D any](src []S, f func(S) D) []D {
	if len(src) == 0 {
		return nil
	}
	out := make([]D, len(src))
	for i, s := range src {
		out[i] = f(s)
	}
	return out
}

func (desc Description) toDocument() document {
	d := desc.data()
	return document{
		Inputs:  mapSlice(d.inVars, encodeInOut),
		Outputs: mapSlice(d.outVars, encodeInOut),
		UniformBlocks: mapSlice(d.uniformBlocks, func(b UniformBlock) uniformBlockDoc {
			return uniformBlockDoc{
				BlockName:  b.BlockName,
				StructName: b.StructName,
				Size:       b.Size,
				Binding:    optional(b.Binding),
				Set:        optional(b.DescriptorSet),
				Members:    encodeMembers(b.Members),
			}
		}),
		PushConstantBlocks: mapSlice(d.pushConstantBlocks, func(b PushConstantBlock) pushConstantBlockDoc {
			return pushConstantBlockDoc{
				Name:    b.Name,
				Size:    b.Size,
				Members: encodeMembers(b.Members),
			}
		}),
		StorageBlocks: mapSlice(d.storageBlocks, func(b StorageBlock) storageBlockDoc {
			return storageBlockDoc{
				BlockName:    b.BlockName,
				InstanceName: b.InstanceName,
				KnownSize:    b.KnownSize,
				Binding:      optional(b.Binding),
				Set:          optional(b.DescriptorSet),
				Members:      encodeMembers(b.Members),
			}
		}),
		CombinedImageSamplers: mapSlice(d.combinedImageSamplers, encodeInOut),
		StorageImages:         mapSlice(d.storageImages, encodeInOut),
	}
}

func fromDocument(doc document) *storage {
	return &storage{
		inVars:  mapSlice(doc.Inputs, decodeInOut),
		outVars: mapSlice(doc.Outputs, decodeInOut),
		uniformBlocks: mapSlice(doc.UniformBlocks, func(d uniformBlockDoc) UniformBlock {
			return UniformBlock{
				BlockName:     d.BlockName,
				StructName:    d.StructName,
				Size:          d.Size,
				Binding:       orAbsent(d.Binding),
				DescriptorSet: orAbsent(d.Set),
				Members:       decodeMembers(d.Members),
			}
		}),
		pushConstantBlocks: mapSlice(doc.PushConstantBlocks, func(d pushConstantBlockDoc) PushConstantBlock {
			return PushConstantBlock{
				Name:    d.Name,
				Size:    d.Size,
				Members: decodeMembers(d.Members),
			}
		}),
		storageBlocks: mapSlice(doc.StorageBlocks, func(d storageBlockDoc) StorageBlock {
			return StorageBlock{
				BlockName:     d.BlockName,
				InstanceName:  d.InstanceName,
				KnownSize:     d.KnownSize,
				Binding:       orAbsent(d.Binding),
				DescriptorSet: orAbsent(d.Set),
				Members:       decodeMembers(d.Members),
			}
		}),
		combinedImageSamplers: mapSlice(doc.CombinedImageSamplers, decodeInOut),
		storageImages:         mapSlice(doc.StorageImages, decodeInOut),
	}
}

// validate rejects negative sizes, offsets, strides and slots. Absent slots
// are encoded by omission, so a present slot is never negative.
func (doc document) validate() error {
	var errs []error
	check := func(what string, v int) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s %d", what, v))
		}
	}
	slot := func(what string, p *int) {
		if p != nil {
			check(what, *p)
		}
	}
	var members func(ms []memberDoc)
	members = func(ms []memberDoc) {
		for _, m := range ms {
			check("offset of "+m.Name, m.Offset)
			check("size of "+m.Name, m.Size)
			check("array stride of "+m.Name, m.ArrayStride)
			check("matrix stride of "+m.Name, m.MatrixStride)
			for _, d := range m.ArrayDims {
				check("array dimension of "+m.Name, d)
			}
			members(m.StructMembers)
		}
	}
	for _, vs := range [][]inOutDoc{doc.Inputs, doc.Outputs, doc.CombinedImageSamplers, doc.StorageImages} {
		for _, v := range vs {
			slot("location of "+v.Name, v.Location)
			slot("binding of "+v.Name, v.Binding)
			slot("set of "+v.Name, v.Set)
			check("image flags of "+v.Name, v.ImageFlags)
		}
	}
	for _, b := range doc.UniformBlocks {
		check("size of "+b.BlockName, b.Size)
		slot("binding of "+b.BlockName, b.Binding)
		slot("set of "+b.BlockName, b.Set)
		members(b.Members)
	}
	for _, b := range doc.PushConstantBlocks {
		check("size of "+b.Name, b.Size)
		members(b.Members)
	}
	for _, b := range doc.StorageBlocks {
		check("known size of "+b.BlockName, b.KnownSize)
		slot("binding of "+b.BlockName, b.Binding)
		slot("set of "+b.BlockName, b.Set)
		members(b.Members)
	}
	return errors.Join(errs...)
}

// MarshalBinary encodes desc as a binary document.
func (desc Description) MarshalBinary() ([]byte, error) {
	data, err := encMode.Marshal(desc.toDocument())
	if err != nil {
		return nil, fmt.Errorf("shaderdesc: encode: %w", err)
	}
	return data, nil
}

// ToBinary encodes desc as a binary document. Encoding failures are logged
// and yield nil.
func (desc Description) ToBinary() []byte {
	data, err := desc.MarshalBinary()
	if err != nil {
		slogger().Warn("shaderdesc: binary encode failed", "err", err)
		return nil
	}
	return data
}

// ToJSON encodes desc as indented JSON text. The text form is for humans
// and tooling; there is no JSON reader.
func (desc Description) ToJSON() []byte {
	data, err := json.MarshalIndent(desc.toDocument(), "", "    ")
	if err != nil {
		slogger().Warn("shaderdesc: json encode failed", "err", err)
		return nil
	}
	return data
}

// UnmarshalBinary replaces the contents of desc with the decoded document.
// Other copies of desc are unaffected. On error desc is left empty.
func (desc *Description) UnmarshalBinary(data []byte) error {
	desc.d = nil
	if len(data) == 0 {
		return ErrEmptyDocument
	}
	var doc document
	if err := decMode.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := doc.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	desc.d = fromDocument(doc)
	return nil
}

// FromBinary decodes a binary document. Absent or corrupt input is logged
// at warning level and yields an empty, invalid Description; reflection data
// is advisory, so there is no error to handle.
func FromBinary(data []byte) Description {
	var desc Description
	if err := desc.UnmarshalBinary(data); err != nil {
		slogger().Warn("shaderdesc: cannot load description document", "err", err, "size", len(data))
	}
	return desc
}
