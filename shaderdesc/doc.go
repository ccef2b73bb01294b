// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shaderdesc models the interface of a compiled shader: its stage
// inputs and outputs, uniform, push constant and storage blocks, combined
// image samplers and storage images.
//
// A [Description] is normally produced by an offline shader compiler (see the
// wgslreflect sub-package) and later consumed when shader resource bindings
// are checked against a pipeline. It serializes to a compact binary document
// (CBOR with fixed string keys) and to indented JSON text for inspection:
//
//	desc := shaderdesc.FromBinary(data)
//	if !desc.IsValid() {
//	    // absent or corrupt document, already logged
//	}
//	for _, ub := range desc.UniformBlocks() {
//	    fmt.Println(ub.BlockName, ub.Size)
//	}
//
// Fields equal to their documented defaults (-1 for location, binding and
// descriptor set, [ImageFormatUnknown], zero strides and flags, false
// row-major) are omitted from documents and restored on decode.
//
// # Sharing
//
// Description is a value type. Copies share their storage until one of them
// is mutated, at which point the mutated copy gets private storage. Readers
// of other copies never observe the write. Accessors return independent deep
// copies, so callers may modify the returned slices freely.
package shaderdesc
