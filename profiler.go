// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"fmt"
	"log/slog"
	"sync"
)

// Profiler receives resource and frame events from backends. Backends call
// it from Build, Release and the frame operations; a Device without a
// profiler uses NopProfiler.
type Profiler interface {
	NewBuffer(b Buffer, realSize, backingCount, extraCount int)
	ReleaseBuffer(b Buffer)
	NewTexture(t Texture, owns bool, mipCount, layerCount, sampleCount int)
	ReleaseTexture(t Texture)
	NewRenderBuffer(rb RenderBuffer, transient, winSys bool, sampleCount int)
	ReleaseRenderBuffer(rb RenderBuffer)
	ResizeSwapChain(sc SwapChain, bufferCount, msaaBufferCount, sampleCount int)
	ReleaseSwapChain(sc SwapChain)
	BeginSwapChainFrame(sc SwapChain)
	EndSwapChainFrame(sc SwapChain, frameCount int)
	SwapChainFrameGPUTime(sc SwapChain, seconds float32)
}

// NopProfiler ignores all events.
type NopProfiler struct{}

func (NopProfiler) NewBuffer(Buffer, int, int, int)               {}
func (NopProfiler) ReleaseBuffer(Buffer)                          {}
func (NopProfiler) NewTexture(Texture, bool, int, int, int)       {}
func (NopProfiler) ReleaseTexture(Texture)                        {}
func (NopProfiler) NewRenderBuffer(RenderBuffer, bool, bool, int) {}
func (NopProfiler) ReleaseRenderBuffer(RenderBuffer)              {}
func (NopProfiler) ResizeSwapChain(SwapChain, int, int, int)      {}
func (NopProfiler) ReleaseSwapChain(SwapChain)                    {}
func (NopProfiler) BeginSwapChainFrame(SwapChain)                 {}
func (NopProfiler) EndSwapChainFrame(SwapChain, int)              {}
func (NopProfiler) SwapChainFrameGPUTime(SwapChain, float32)      {}

// ProfilerStats is a snapshot of CountingProfiler counters. Live counts
// and bytes cover resources created and not yet released.
type ProfilerStats struct {
	BuffersCreated        int
	BuffersReleased       int
	TexturesCreated       int
	TexturesReleased      int
	RenderBuffersCreated  int
	RenderBuffersReleased int
	SwapChainResizes      int
	SwapChainsReleased    int
	FramesBegun           int
	FramesEnded           int

	LiveBufferBytes  int64
	LiveTextureBytes int64

	// LastFrameCount is the frame count passed with the last
	// EndSwapChainFrame.
	LastFrameCount int
	// LastGPUTime is the last reported frame GPU time in seconds.
	LastGPUTime float32
}

func (s ProfilerStats) String() string {
	return fmt.Sprintf("buffers %d/%d (%d B live), textures %d/%d (%d B live), renderbuffers %d/%d, swapchain resizes %d, frames %d/%d, gpu %.3fms",
		s.BuffersCreated, s.BuffersReleased, s.LiveBufferBytes,
		s.TexturesCreated, s.TexturesReleased, s.LiveTextureBytes,
		s.RenderBuffersCreated, s.RenderBuffersReleased,
		s.SwapChainResizes, s.FramesBegun, s.FramesEnded, s.LastGPUTime*1000)
}

// CountingProfiler counts events and tracks live memory. It is safe for
// concurrent use.
type CountingProfiler struct {
	mu       sync.Mutex
	stats    ProfilerStats
	bufSize  map[Buffer]int64
	texBytes map[Texture]int64
}

// NewCountingProfiler returns an empty counting profiler.
func NewCountingProfiler() *CountingProfiler {
	return &CountingProfiler{
		bufSize:  make(map[Buffer]int64),
		texBytes: make(map[Texture]int64),
	}
}

// Stats returns a snapshot of the counters.
func (p *CountingProfiler) Stats() ProfilerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Reset zeroes all counters.
func (p *CountingProfiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = ProfilerStats{}
	clear(p.bufSize)
	clear(p.texBytes)
}

func (p *CountingProfiler) NewBuffer(b Buffer, realSize, backingCount, extraCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.BuffersCreated++
	n := int64(realSize) * int64(backingCount+extraCount)
	p.bufSize[b] = n
	p.stats.LiveBufferBytes += n
}

func (p *CountingProfiler) ReleaseBuffer(b Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.BuffersReleased++
	p.stats.LiveBufferBytes -= p.bufSize[b]
	delete(p.bufSize, b)
}

func (p *CountingProfiler) NewTexture(t Texture, owns bool, mipCount, layerCount, sampleCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.TexturesCreated++
	if !owns {
		return
	}
	var n int64
	for level := range mipCount {
		n += int64(t.Format().ByteSize(SizeForMipLevel(level, t.PixelSize())))
	}
	n *= int64(layerCount * max(sampleCount, 1))
	p.texBytes[t] = n
	p.stats.LiveTextureBytes += n
}

func (p *CountingProfiler) ReleaseTexture(t Texture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.TexturesReleased++
	p.stats.LiveTextureBytes -= p.texBytes[t]
	delete(p.texBytes, t)
}

func (p *CountingProfiler) NewRenderBuffer(RenderBuffer, bool, bool, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.RenderBuffersCreated++
}

func (p *CountingProfiler) ReleaseRenderBuffer(RenderBuffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.RenderBuffersReleased++
}

func (p *CountingProfiler) ResizeSwapChain(SwapChain, int, int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.SwapChainResizes++
}

func (p *CountingProfiler) ReleaseSwapChain(SwapChain) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.SwapChainsReleased++
}

func (p *CountingProfiler) BeginSwapChainFrame(SwapChain) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.FramesBegun++
}

func (p *CountingProfiler) EndSwapChainFrame(_ SwapChain, frameCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.FramesEnded++
	p.stats.LastFrameCount = frameCount
}

func (p *CountingProfiler) SwapChainFrameGPUTime(_ SwapChain, seconds float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.LastGPUTime = seconds
}

// LogProfiler writes every event to the package logger at Debug level.
type LogProfiler struct{}

func logEvent(event string, res Resource, args ...any) {
	Logger().Debug("rhi: profile "+event, append([]any{slog.String("name", res.Name())}, args...)...)
}

func (LogProfiler) NewBuffer(b Buffer, realSize, backingCount, extraCount int) {
	logEvent("new buffer", b, "size", realSize, "backing", backingCount, "extra", extraCount)
}

func (LogProfiler) ReleaseBuffer(b Buffer) { logEvent("release buffer", b) }

func (LogProfiler) NewTexture(t Texture, owns bool, mipCount, layerCount, sampleCount int) {
	logEvent("new texture", t, "size", t.PixelSize(), "owns", owns, "mips", mipCount, "layers", layerCount, "samples", sampleCount)
}

func (LogProfiler) ReleaseTexture(t Texture) { logEvent("release texture", t) }

func (LogProfiler) NewRenderBuffer(rb RenderBuffer, transient, winSys bool, sampleCount int) {
	logEvent("new renderbuffer", rb, "transient", transient, "winsys", winSys, "samples", sampleCount)
}

func (LogProfiler) ReleaseRenderBuffer(rb RenderBuffer) { logEvent("release renderbuffer", rb) }

func (LogProfiler) ResizeSwapChain(sc SwapChain, bufferCount, msaaBufferCount, sampleCount int) {
	logEvent("resize swapchain", sc, "size", sc.CurrentPixelSize(), "buffers", bufferCount, "msaa", msaaBufferCount, "samples", sampleCount)
}

func (LogProfiler) ReleaseSwapChain(sc SwapChain) { logEvent("release swapchain", sc) }

func (LogProfiler) BeginSwapChainFrame(sc SwapChain) { logEvent("begin frame", sc) }

func (LogProfiler) EndSwapChainFrame(sc SwapChain, frameCount int) {
	logEvent("end frame", sc, "frame", frameCount)
}

func (LogProfiler) SwapChainFrameGPUTime(sc SwapChain, seconds float32) {
	logEvent("frame gpu time", sc, "seconds", seconds)
}

var (
	_ Profiler = NopProfiler{}
	_ Profiler = (*CountingProfiler)(nil)
	_ Profiler = LogProfiler{}
)
