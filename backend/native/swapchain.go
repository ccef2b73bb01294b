// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// backbufferFormat is the color format of swap chain backbuffers.
const backbufferFormat = rhi.BGRA8

// swapChain renders into an offscreen backbuffer. With a sample count above
// one, passes render into a multisample texture that resolves into the
// backbuffer.
type swapChain struct {
	rhi.SwapChainBase
	b *Backend

	color     hal.Texture
	colorView hal.TextureView
	msaa      hal.Texture
	msaaView  hal.TextureView
}

// NewSwapChain implements rhi.Backend.
func (b *Backend) NewSwapChain(base rhi.SwapChainBase) rhi.SwapChain {
	return &swapChain{SwapChainBase: base, b: b}
}

func (sc *swapChain) NewCompatibleRenderPassDescriptor() rhi.RenderPassDescriptor {
	ds := rhi.UnknownFormat
	if sc.DepthStencil() != nil {
		ds = rhi.D24S8
	}
	return sc.b.newRenderPassDescriptor([]rhi.TextureFormat{backbufferFormat}, ds, sc.SampleCount())
}

// BuildOrResize recreates the backbuffer at the surface size.
func (sc *swapChain) BuildOrResize() error {
	sc.destroyTextures()
	size := sc.ApplyResize(sc)
	if err := sc.createTextures(size); err != nil {
		sc.destroyTextures()
		sc.MarkReleased()
		return fmt.Errorf("native: swap chain %q: %w", sc.Name(), err)
	}
	if ds := sc.DepthStencil(); ds != nil && ds.PixelSize() != size {
		rhi.Logger().Warn("native: swap chain depth-stencil size differs from the surface",
			"name", sc.Name(), "surface", size, "depthStencil", ds.PixelSize())
	}
	msaa := 0
	if sc.msaa != nil {
		msaa = 1
	}
	sc.b.profiler().ResizeSwapChain(sc, 1, msaa, sc.SampleCount())
	return nil
}

func (sc *swapChain) createTextures(size rhi.Size) error {
	extent := hal.Extent3D{Width: uint32(size.Width), Height: uint32(size.Height), DepthOrArrayLayers: 1}
	format := backbufferFormat.GPUFormat()
	usage := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc | gputypes.TextureUsageTextureBinding
	color, err := sc.b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         sc.Name() + "_backbuffer",
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return fmt.Errorf("create backbuffer: %w", err)
	}
	sc.color = color
	view, err := sc.b.device.CreateTextureView(color, &hal.TextureViewDescriptor{
		Label:         sc.Name() + "_backbuffer_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create backbuffer view: %w", err)
	}
	sc.colorView = view

	if n := sc.SampleCount(); n > 1 {
		msaa, err := sc.b.device.CreateTexture(&hal.TextureDescriptor{
			Label:         sc.Name() + "_msaa",
			Size:          extent,
			MipLevelCount: 1,
			SampleCount:   uint32(n),
			Dimension:     gputypes.TextureDimension2D,
			Format:        format,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("create MSAA texture: %w", err)
		}
		sc.msaa = msaa
		msaaView, err := sc.b.device.CreateTextureView(msaa, &hal.TextureViewDescriptor{
			Label:         sc.Name() + "_msaa_view",
			Format:        format,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			return fmt.Errorf("create MSAA view: %w", err)
		}
		sc.msaaView = msaaView
	}
	return nil
}

func (sc *swapChain) destroyTextures() {
	if sc.b.alive() {
		if sc.msaaView != nil {
			sc.b.device.DestroyTextureView(sc.msaaView)
		}
		if sc.msaa != nil {
			sc.b.device.DestroyTexture(sc.msaa)
		}
		if sc.colorView != nil {
			sc.b.device.DestroyTextureView(sc.colorView)
		}
		if sc.color != nil {
			sc.b.device.DestroyTexture(sc.color)
		}
	}
	sc.color, sc.colorView, sc.msaa, sc.msaaView = nil, nil, nil, nil
}

func (sc *swapChain) Release() {
	if !sc.MarkReleased() {
		return
	}
	sc.destroyTextures()
	sc.b.profiler().ReleaseSwapChain(sc)
}

// depthStencilView returns the view of the attached depth-stencil buffer,
// or nil.
func (sc *swapChain) depthStencilView() hal.TextureView {
	if rb, ok := sc.DepthStencil().(*renderBuffer); ok && rb.IsBuilt() {
		return rb.view
	}
	return nil
}
