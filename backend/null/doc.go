// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package null provides the reference rhi backend. It accepts every
// configuration, never fails a build and renders nothing, while reporting
// every resource and frame event to the device profiler with exact counts.
//
// Importing the package registers it under the name "null":
//
//	import _ "github.com/gogpu/rhi/backend/null"
//
//	dev, err := backend.Open("null")
//
// Readbacks complete immediately with zero-filled pixels sized for the
// requested texture and mip level, or RGBA8 at the swap chain size when
// reading the backbuffer. Dynamic buffer updates and static uploads are
// kept in a host-side copy, see Buffer.
package null
