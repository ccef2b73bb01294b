// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package rhi is a rendering hardware interface: one API for creating GPU
// resources, recording render and compute passes and driving frames, with
// interchangeable backends behind it.
//
// # Overview
//
// A Device wraps one Backend. Resources (buffers, textures, render buffers,
// samplers, render targets, shader resource bindings, pipelines and swap
// chains) are created unbuilt by Device factories, made usable by Build and
// freed by Release. Frames are recorded into a CommandBuffer between
// Device.BeginFrame and Device.EndFrame, or between BeginOffscreenFrame and
// EndOffscreenFrame when no swap chain is involved.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/rhi"
//	    "github.com/gogpu/rhi/backend"
//	    _ "github.com/gogpu/rhi/backend/null"
//	)
//
//	dev, err := backend.Open("null")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	sc := dev.NewSwapChain()
//	sc.SetRenderPassDescriptor(sc.NewCompatibleRenderPassDescriptor())
//	if err := sc.BuildOrResize(); err != nil {
//	    log.Fatal(err)
//	}
//
//	if dev.BeginFrame(sc, 0) == rhi.FrameOpSuccess {
//	    cb := sc.CurrentFrameCommandBuffer()
//	    cb.BeginPass(sc.CurrentFrameRenderTarget(), rhi.Color{A: 1}, rhi.DefaultDepthStencilClear, nil)
//	    cb.EndPass(nil)
//	    dev.EndFrame(sc, 0)
//	}
//
// # Backends
//
// Backends live in subpackages of backend and register themselves from
// init:
//   - backend/null: accepts everything, renders nothing, reports exact
//     profiling events; for tests and tooling.
//   - backend/native: WebGPU HAL via gogpu/wgpu, headless when no adapter
//     is wanted.
//
// # Shaders
//
// Shaders are WGSL. NewShaderFromWGSL reflects the source with the
// shaderdesc/wgslreflect package; the resulting shaderdesc.Description is
// used to check pipelines against their ShaderResourceBindings.
//
// # Recording Rules
//
// Every CommandBuffer call is validated against the pass state and
// returns a sentinel error (ErrNoActivePass, ErrWrongPassKind and so on)
// instead of reaching the backend when it is out of order. Frame
// operations report a FrameOpResult.
//
// # Coordinate System
//
// Viewports and scissors use framebuffer pixels with a bottom-left origin.
// ClipSpaceCorrMatrix converts OpenGL style clip space to the backend's.
//
// # Logging
//
// Nothing is logged by default. See SetLogger.
package rhi
