// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backend provides the registry of rhi backends.
//
// Backend implementations live in subpackages and register a factory from
// their init() function, so importing one is enough to make it available:
//
//	import _ "github.com/gogpu/rhi/backend/null"
//
// # Backend Selection
//
// Use Open to create a device on a backend by name, or with an empty name
// on the best available one:
//
//	dev, err := backend.Open("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
// OpenConfig does the same from a configuration file:
//
//	cfg, err := rhi.LoadConfig("rhi.toml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	dev, err := backend.OpenConfig(cfg)
//
// # Available Backends
//
//   - "null": accepts every configuration and renders nothing; readbacks
//     return zeroed pixels. Always available.
//   - "native": WebGPU HAL through gogpu/wgpu. Uses the noop HAL device
//     when headless.
package backend
