// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"log/slog"
	"time"

	"github.com/gogpu/gpucontext"
)

// DefaultFenceTimeout bounds how long a backend waits for submitted work.
const DefaultFenceTimeout = 5 * time.Second

// Option configures a Device during creation.
// Use functional options to customize Device behavior.
//
// Example:
//
//	// Reference backend with profiling
//	prof := rhi.NewCountingProfiler()
//	dev, err := backend.Open("null", rhi.WithProfiler(prof))
type Option func(*Options)

// Options holds the configuration a Device and its Backend are created
// with. Backends read it in Create.
type Options struct {
	// Profiler receives resource and frame events. Never nil after
	// NewDevice.
	Profiler Profiler

	// Logger, when set, replaces the package logger at device creation.
	Logger *slog.Logger

	// DebugMarkers enables CommandBuffer debug groups and messages.
	DebugMarkers bool

	// Surface is the default target of new swap chains.
	Surface Surface

	// Headless asks GPU backends not to look for a real adapter.
	Headless bool

	// FenceTimeout bounds waits on submitted work.
	FenceTimeout time.Duration

	// DeviceProvider supplies an existing GPU device to backends that can
	// share one.
	DeviceProvider gpucontext.DeviceProvider
}

// defaultOptions returns the default device options.
func defaultOptions() Options {
	return Options{
		Profiler:     NopProfiler{},
		FenceTimeout: DefaultFenceTimeout,
	}
}

// WithProfiler installs a profiling sink.
//
// Example:
//
//	prof := rhi.NewCountingProfiler()
//	dev, _ := backend.Open("null", rhi.WithProfiler(prof))
//	// ... build resources, render frames ...
//	fmt.Println(prof.Stats())
func WithProfiler(p Profiler) Option {
	return func(o *Options) {
		if p != nil {
			o.Profiler = p
		}
	}
}

// WithLogger sets the logger used by rhi, its backends and shaderdesc.
// Equivalent to calling SetLogger before creating the device.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithDebugMarkers enables debug markers in command buffers.
func WithDebugMarkers(enabled bool) Option {
	return func(o *Options) {
		o.DebugMarkers = enabled
	}
}

// WithSurface sets the surface new swap chains target by default.
//
// Example:
//
//	dev, _ := backend.Open("null", rhi.WithSurface(rhi.HeadlessSurface{
//	    Size: rhi.Size{Width: 640, Height: 480},
//	}))
func WithSurface(s Surface) Option {
	return func(o *Options) {
		o.Surface = s
	}
}

// WithHeadless makes GPU backends use a device that needs no adapter.
func WithHeadless(headless bool) Option {
	return func(o *Options) {
		o.Headless = headless
	}
}

// WithFenceTimeout bounds how long frame operations wait for the GPU.
// Non-positive values keep the default.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.FenceTimeout = d
		}
	}
}

// WithDeviceProvider shares a host application's GPU device with the
// backend instead of opening a new one.
//
// Example:
//
//	// In a gogpu application:
//	dev, err := backend.Open("native", rhi.WithDeviceProvider(app.GPUContextProvider()))
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *Options) {
		o.DeviceProvider = p
	}
}
