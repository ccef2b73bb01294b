// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/backend"
)

// Backend errors.
var (
	// ErrNoAdapter is returned when a HAL API reports no adapters.
	ErrNoAdapter = errors.New("native: no GPU adapters found")

	// ErrProviderNotHAL is returned when a device provider does not expose
	// HAL types.
	ErrProviderNotHAL = errors.New("native: provider does not expose HAL device and queue")
)

func init() {
	backend.Register(backend.BackendNative, func() rhi.Backend {
		return New()
	})
}

// instanceFactory is the part of a HAL API the backend needs.
type instanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Backend is the HAL rhi.Backend.
type Backend struct {
	dev  *rhi.Device
	opts *rhi.Options

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
	api      string
	adapter  string
	limits   gputypes.Limits

	modules *moduleCache
	mips    *mipGenerator
	frame   *recorder
}

var _ rhi.Backend = (*Backend)(nil)

// New returns an uncreated native backend. Use backend.Open or
// rhi.NewDevice to create a device on it.
func New() *Backend {
	return &Backend{}
}

// Name returns "native".
func (b *Backend) Name() string { return backend.BackendNative }

// Create opens the HAL device.
func (b *Backend) Create(dev *rhi.Device, opts *rhi.Options) error {
	b.dev, b.opts = dev, opts
	b.limits = gputypes.DefaultLimits()
	if opts.DeviceProvider != nil {
		if err := b.adoptProvider(opts.DeviceProvider); err != nil {
			return err
		}
	} else if err := b.openDevice(); err != nil {
		return err
	}
	b.modules = newModuleCache(b.device)
	b.mips = newMipGenerator(b)
	rhi.Logger().Info("native: device created", "api", b.api, "adapter", b.adapter, "external", b.external)
	return nil
}

// adoptProvider uses the device of a host application. The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
func (b *Backend) adoptProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return ErrProviderNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("%w: HalDevice is not hal.Device", ErrProviderNotHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProviderNotHAL)
	}
	b.device, b.queue = device, queue
	b.external = true
	b.api, b.adapter = "provider", "external"
	return nil
}

// openDevice opens the first suitable adapter of the preferred API, falling
// back to the noop device.
func (b *Backend) openDevice() error {
	if !b.opts.Headless {
		if api, ok := hal.GetBackend(gputypes.BackendVulkan); ok {
			err := b.openAdapter(api, "vulkan")
			if err == nil {
				return nil
			}
			rhi.Logger().Warn("native: falling back to noop device", "api", "vulkan", "err", err)
		}
	}
	return b.openAdapter(&noop.API{}, "noop")
}

func (b *Backend) openAdapter(api instanceFactory, name string) error {
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("native: create %s instance: %w", name, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("%w: %s", ErrNoAdapter, name)
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), b.limits)
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("native: open %s device: %w", name, err)
	}
	b.instance = instance
	b.device, b.queue = openDev.Device, openDev.Queue
	b.api, b.adapter = name, selected.Info.Name
	return nil
}

// Destroy releases the shared objects and, unless it came from a provider,
// the device.
func (b *Backend) Destroy() {
	if b.frame != nil {
		b.frame.discard()
		b.frame = nil
	}
	if b.mips != nil {
		b.mips.destroy()
		b.mips = nil
	}
	if b.modules != nil {
		b.modules.destroyAll()
		b.modules = nil
	}
	if !b.external && b.device != nil {
		b.device.Destroy()
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
	b.device, b.queue = nil, nil
	rhi.Logger().Info("native: device destroyed", "api", b.api)
}

// API returns the HAL API in use: "vulkan", "noop" or "provider".
func (b *Backend) API() string { return b.api }

// AdapterName returns the name of the opened adapter.
func (b *Backend) AdapterName() string { return b.adapter }

// HalDevice returns the HAL device, so the backend can itself serve as a
// device provider for other gogpu components.
func (b *Backend) HalDevice() any { return b.device }

// HalQueue returns the HAL queue.
func (b *Backend) HalQueue() any { return b.queue }

// ShaderModuleStats returns the hits and misses of the shader module cache.
func (b *Backend) ShaderModuleStats() (hits, misses uint64) { return b.modules.stats() }

func (b *Backend) profiler() rhi.Profiler { return b.opts.Profiler }

// SupportedSampleCounts returns the counts every WebGPU device supports.
func (b *Backend) SupportedSampleCounts() []int { return []int{1, 4} }

// IsTextureFormatSupported reports whether f maps to a HAL format usable
// with flags.
func (b *Backend) IsTextureFormatSupported(f rhi.TextureFormat, flags rhi.TextureFlags) bool {
	if f.GPUFormat() == gputypes.TextureFormatUndefined {
		return false
	}
	if flags&rhi.TextureUsedWithLoadStore != 0 && !isStorageFormat(f) {
		return false
	}
	if flags&rhi.TextureSRGB != 0 && f != rhi.RGBA8 && f != rhi.BGRA8 {
		return false
	}
	return !f.IsDepth() || flags&(rhi.TextureMipMapped|rhi.TextureCubeMap) == 0
}

// IsFeatureSupported reports the WebGPU baseline feature set.
func (b *Backend) IsFeatureSupported(f rhi.Feature) bool {
	switch f {
	case rhi.FeatureWideLines, rhi.FeatureVertexShaderPointSize, rhi.FeatureTimestamps,
		rhi.FeatureCustomInstanceStepRate, rhi.FeatureNonFourAlignedEffectiveIndexBufferOffset:
		return false
	}
	return true
}

// ResourceLimit returns the device limits.
func (b *Backend) ResourceLimit(l rhi.ResourceLimit) int {
	switch l {
	case rhi.TextureSizeMin:
		return 1
	case rhi.TextureSizeMax:
		return int(b.limits.MaxTextureDimension2D)
	case rhi.MaxColorAttachments:
		return int(b.limits.MaxColorAttachments)
	case rhi.FramesInFlight:
		return 1
	}
	return 0
}

// UniformBufferAlignment returns the minimum uniform buffer offset
// alignment.
func (b *Backend) UniformBufferAlignment() int {
	return int(b.limits.MinUniformBufferOffsetAlignment)
}

// IsYUpInFramebuffer returns false.
func (b *Backend) IsYUpInFramebuffer() bool { return false }

// IsYUpInNDC returns true.
func (b *Backend) IsYUpInNDC() bool { return true }

// IsClipDepthZeroToOne returns true.
func (b *Backend) IsClipDepthZeroToOne() bool { return true }

// BeginFrame starts encoding a frame for sc.
func (b *Backend) BeginFrame(sc rhi.SwapChain, _ rhi.BeginFrameFlags) (rhi.Recorder, rhi.FrameOpResult) {
	s, ok := sc.(*swapChain)
	if !ok || s.color == nil {
		return nil, rhi.FrameOpError
	}
	if s.CurrentPixelSize() != s.SurfacePixelSize() {
		return nil, rhi.FrameOpSwapChainOutOfDate
	}
	rec, err := newRecorder(b, s, "frame")
	if err != nil {
		rhi.Logger().Warn("native: begin frame", "err", err)
		return nil, rhi.FrameOpError
	}
	b.frame = rec
	b.profiler().BeginSwapChainFrame(sc)
	return rec, rhi.FrameOpSuccess
}

// EndFrame submits the frame and waits for it. The frame count passed to
// the profiler is the one the swap chain will have once the frame counts.
func (b *Backend) EndFrame(sc rhi.SwapChain, _ rhi.EndFrameFlags) rhi.FrameOpResult {
	start := time.Now()
	res := b.endFrame()
	if res != rhi.FrameOpSuccess {
		return res
	}
	p := b.profiler()
	p.EndSwapChainFrame(sc, sc.FrameCount()+1)
	p.SwapChainFrameGPUTime(sc, float32(time.Since(start).Seconds()))
	return rhi.FrameOpSuccess
}

// BeginOffscreenFrame starts encoding a frame without a swap chain.
func (b *Backend) BeginOffscreenFrame() (rhi.Recorder, rhi.FrameOpResult) {
	rec, err := newRecorder(b, nil, "offscreen")
	if err != nil {
		rhi.Logger().Warn("native: begin offscreen frame", "err", err)
		return nil, rhi.FrameOpError
	}
	b.frame = rec
	return rec, rhi.FrameOpSuccess
}

// EndOffscreenFrame submits the frame and waits for it.
func (b *Backend) EndOffscreenFrame() rhi.FrameOpResult { return b.endFrame() }

func (b *Backend) endFrame() rhi.FrameOpResult {
	rec := b.frame
	b.frame = nil
	if rec == nil {
		return rhi.FrameOpError
	}
	return rec.submit()
}

// Finish returns immediately: every frame is waited for when it ends, so
// no work is ever in flight between frames.
func (b *Backend) Finish() rhi.FrameOpResult { return rhi.FrameOpSuccess }
