// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"errors"

	"github.com/gogpu/rhi"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// BackendNull is the reference backend that renders nothing.
	BackendNull = "null"
	// BackendNative is the Pure Go WebGPU HAL backend (gogpu/wgpu).
	BackendNative = "native"
)

// Factory creates a new, not yet created, backend instance. Each Device
// gets its own instance.
type Factory func() rhi.Backend
