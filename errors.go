// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import "errors"

// Recording and lifecycle errors.
var (
	// ErrNotRecording is returned when recording into a command buffer
	// outside of a frame.
	ErrNotRecording = errors.New("rhi: command buffer is not recording")

	// ErrNoActivePass is returned for pass-scoped calls made outside a pass.
	ErrNoActivePass = errors.New("rhi: no active pass")

	// ErrPassActive is returned when beginning a pass while another is open,
	// or issuing a between-pass operation inside one.
	ErrPassActive = errors.New("rhi: a pass is already active")

	// ErrWrongPassKind is returned for raster calls in a compute pass and
	// vice versa.
	ErrWrongPassKind = errors.New("rhi: call not valid in this kind of pass")

	// ErrNotBuilt is returned when recording against an unbuilt resource.
	ErrNotBuilt = errors.New("rhi: resource is not built")

	// ErrNilResource is returned when a required resource argument is nil.
	ErrNilResource = errors.New("rhi: nil resource")

	// ErrNoPipeline is returned when drawing or dispatching without a
	// bound pipeline.
	ErrNoPipeline = errors.New("rhi: no pipeline bound")

	// ErrInvalidDynamicOffset is returned when a dynamic offset does not
	// name a dynamic uniform buffer binding or is misaligned.
	ErrInvalidDynamicOffset = errors.New("rhi: invalid dynamic offset")

	// ErrBindingMismatch is returned when shader resource bindings do not
	// satisfy a shader's reflected interface.
	ErrBindingMismatch = errors.New("rhi: shader resource binding mismatch")

	// ErrForeignResource is returned when a resource created by another
	// device or backend is used.
	ErrForeignResource = errors.New("rhi: resource belongs to another device")

	// ErrDeviceClosed is returned when using a closed device.
	ErrDeviceClosed = errors.New("rhi: device is closed")

	// ErrMissingShader is returned when building a pipeline without the
	// shader stages it requires.
	ErrMissingShader = errors.New("rhi: missing shader stage")
)
