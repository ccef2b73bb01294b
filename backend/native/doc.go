// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native implements rhi on the WebGPU HAL of gogpu/wgpu.
//
// Importing the package registers it under the name "native":
//
//	import _ "github.com/gogpu/rhi/backend/native"
//
//	dev, err := backend.Open("native", rhi.WithHeadless(true))
//
// # Device Selection
//
// The backend renders on, in order of preference:
//
//   - the device of a host application passed with rhi.WithDeviceProvider.
//     The provider must expose HalDevice() and HalQueue();
//   - the first discrete or integrated adapter of a registered HAL API
//     (Vulkan unless built with the nogpu tag);
//   - the noop HAL device, used when rhi.WithHeadless is set or no GPU API
//     is available. Every call succeeds and readbacks return zeroed bytes.
//
// # Frames
//
// Each frame records into one hal.CommandEncoder. Buffer and texture
// updates are staged into host-visible buffers and copied by the encoder, so
// they take effect in command order relative to the frame's passes. Ending
// the frame submits it and polls the queue for at most Options.FenceTimeout;
// a timeout ends the frame with rhi.FrameOpDeviceLost. Readbacks recorded
// during the frame copy into staging buffers and complete after the wait,
// so ReadbackResult callbacks run inside EndFrame and EndOffscreenFrame. A
// failed frame still completes its readbacks, with no data.
//
// Swap chains are offscreen: the backbuffer is a texture of the surface size
// and presenting is the submission itself.
package native
