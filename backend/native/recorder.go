// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// pendingReadback is a texture copy waiting for its frame to complete.
type pendingReadback struct {
	staging hal.Buffer
	result  *rhi.ReadbackResult
	format  rhi.TextureFormat
	size    rhi.Size
	tight   uint32
	aligned uint32
}

// debugMarker is implemented by HAL encoders that support debug groups.
type debugMarker interface {
	PushDebugGroup(label string)
	PopDebugGroup()
	InsertDebugMarker(label string)
}

// recorder encodes one frame into a HAL command encoder.
type recorder struct {
	b       *Backend
	sc      *swapChain
	encoder hal.CommandEncoder

	rpass        hal.RenderPassEncoder
	cpass        hal.ComputePassEncoder
	targetHeight float32

	readbacks []pendingReadback

	// Objects that must outlive the submission.
	buffers []hal.Buffer
	views   []hal.TextureView
	groups  []hal.BindGroup
}

var _ rhi.Recorder = (*recorder)(nil)

func newRecorder(b *Backend, sc *swapChain, label string) (*recorder, error) {
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label + "_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return &recorder{b: b, sc: sc, encoder: encoder}, nil
}

func (r *recorder) ApplyUpdates(batch *rhi.ResourceUpdateBatch) error {
	for i, op := range batch.BufferOps() {
		buf, ok := op.Buffer.(*Buffer)
		if !ok {
			return fmt.Errorf("buffer op %d: %w", i, ErrForeignObject)
		}
		if err := r.writeBuffer(buf, op.Offset, op.Data); err != nil {
			return fmt.Errorf("native: buffer op %d: %w", i, err)
		}
	}
	for i, op := range batch.TextureOps() {
		var err error
		switch op.Kind {
		case rhi.TextureUpload:
			err = r.upload(op.Dst, op.Uploads)
		case rhi.TextureCopy:
			err = r.copyTexture(op.Dst, op.Src, op.Copy)
		case rhi.TextureReadback:
			err = r.readback(op.Readback, op.Result)
		case rhi.TextureGenMips:
			t, ok := op.Dst.(*Texture)
			if !ok {
				err = ErrForeignObject
				break
			}
			err = r.b.mips.generate(r, t, op.Layer)
		}
		if err != nil {
			return fmt.Errorf("native: texture op %d: %w", i, err)
		}
	}
	return nil
}

// stage copies data into a host-visible buffer owned by the frame.
func (r *recorder) stage(label string, data []byte) (hal.Buffer, error) {
	size := (uint64(len(data)) + 3) &^ 3
	staging, err := r.b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	r.buffers = append(r.buffers, staging)
	m, err := r.b.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	copy(unsafe.Slice((*byte)(m.Ptr), size), data)
	if err := r.b.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return staging, nil
}

// writeBuffer merges data into the host copy of buf and records a copy of
// the enclosing aligned range. The copy runs in command order, so a pass
// recorded before the update still sees the old contents.
func (r *recorder) writeBuffer(buf *Buffer, offset int, data []byte) error {
	start, end := buf.merge(offset, data)
	if start == end {
		return nil
	}
	staging, err := r.stage("buffer_upload", buf.shadow[start:end])
	if err != nil {
		return fmt.Errorf("buffer %q: %w", buf.Name(), err)
	}
	use := bufferUsage(buf.Usage()) &^ (gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst)
	r.encoder.TransitionBuffers([]hal.BufferBarrier{{
		Buffer: buf.raw,
		Usage:  hal.BufferUsageTransition{OldUsage: use, NewUsage: gputypes.BufferUsageCopyDst},
	}})
	r.encoder.CopyBufferToBuffer(staging, buf.raw, []hal.BufferCopy{{
		DstOffset: uint64(start),
		Size:      uint64(end - start),
	}})
	r.encoder.TransitionBuffers([]hal.BufferBarrier{{
		Buffer: buf.raw,
		Usage:  hal.BufferUsageTransition{OldUsage: gputypes.BufferUsageCopyDst, NewUsage: use},
	}})
	return nil
}

func (r *recorder) upload(dst rhi.Texture, uploads []rhi.TextureSubresourceUpload) error {
	t, ok := dst.(*Texture)
	if !ok {
		return ErrForeignObject
	}
	bpp := t.Format().BytesPerPixel()
	for _, u := range uploads {
		level := rhi.SizeForMipLevel(u.Level, t.PixelSize())
		size := u.SourceSize
		if size.IsEmpty() {
			size = level
		}
		size.Width = min(size.Width, level.Width-u.DestTopLeft.X)
		size.Height = min(size.Height, level.Height-u.DestTopLeft.Y)
		if size.IsEmpty() {
			return fmt.Errorf("upload to layer %d level %d: destination %v outside %s", u.Layer, u.Level, u.DestTopLeft, level)
		}
		tight := size.Width * bpp
		if need := tight * size.Height; len(u.Data) < need {
			return fmt.Errorf("upload to layer %d level %d: %d bytes, want %d", u.Layer, u.Level, len(u.Data), need)
		}
		// Buffer-to-texture copies need 256-byte aligned rows.
		aligned := int(alignedBytesPerRow(uint32(tight)))
		rows := make([]byte, aligned*size.Height)
		for row := range size.Height {
			copy(rows[row*aligned:row*aligned+tight], u.Data[row*tight:])
		}
		staging, err := r.stage("texture_upload", rows)
		if err != nil {
			return fmt.Errorf("upload to layer %d level %d: %w", u.Layer, u.Level, err)
		}
		r.transition(t.raw, 0, gputypes.TextureUsageCopyDst)
		r.encoder.CopyBufferToTexture(staging, t.raw, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(aligned),
				RowsPerImage: uint32(size.Height),
			},
			TextureBase: hal.ImageCopyTexture{
				Texture:  t.raw,
				MipLevel: uint32(u.Level),
				Origin:   hal.Origin3D{X: uint32(u.DestTopLeft.X), Y: uint32(u.DestTopLeft.Y), Z: uint32(u.Layer)},
				Aspect:   gputypes.TextureAspectAll,
			},
			Size: hal.Extent3D{Width: uint32(size.Width), Height: uint32(size.Height), DepthOrArrayLayers: 1},
		}})
		r.transition(t.raw, gputypes.TextureUsageCopyDst, gputypes.TextureUsageTextureBinding)
	}
	return nil
}

func (r *recorder) copyTexture(dst, src rhi.Texture, d rhi.TextureCopyDescription) error {
	s, ok := src.(*Texture)
	t, ok2 := dst.(*Texture)
	if !ok || !ok2 {
		return ErrForeignObject
	}
	size := d.PixelSize
	if size.IsEmpty() {
		size = rhi.SizeForMipLevel(d.SourceLevel, s.PixelSize())
	}
	r.encoder.CopyTextureToTexture(s.raw, t.raw, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{
			Texture:  s.raw,
			MipLevel: uint32(d.SourceLevel),
			Origin:   hal.Origin3D{X: uint32(d.SourceTopLeft.X), Y: uint32(d.SourceTopLeft.Y), Z: uint32(d.SourceLayer)},
			Aspect:   gputypes.TextureAspectAll,
		},
		DstBase: hal.ImageCopyTexture{
			Texture:  t.raw,
			MipLevel: uint32(d.DestinationLevel),
			Origin:   hal.Origin3D{X: uint32(d.DestinationTopLeft.X), Y: uint32(d.DestinationTopLeft.Y), Z: uint32(d.DestinationLayer)},
			Aspect:   gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: uint32(size.Width), Height: uint32(size.Height), DepthOrArrayLayers: 1},
	}})
	return nil
}

// readback copies the requested subresource into a staging buffer. The
// bytes are read once the frame's submission has completed.
func (r *recorder) readback(desc rhi.ReadbackDescription, result *rhi.ReadbackResult) error {
	var (
		tex          hal.Texture
		format       rhi.TextureFormat
		size         rhi.Size
		renderTarget bool
	)
	if desc.Texture == nil {
		if r.sc == nil || r.sc.color == nil {
			return fmt.Errorf("swap chain readback without a swap chain")
		}
		tex, format, size, renderTarget = r.sc.color, backbufferFormat, r.sc.CurrentPixelSize(), true
	} else {
		t, ok := desc.Texture.(*Texture)
		if !ok {
			return ErrForeignObject
		}
		if t.Format().IsDepth() {
			return fmt.Errorf("readback of depth texture %q", t.Name())
		}
		tex, format = t.raw, t.Format()
		size = rhi.SizeForMipLevel(desc.Level, t.PixelSize())
		renderTarget = t.Flags()&rhi.TextureUsedAsRenderTarget != 0
	}

	w, h := uint32(size.Width), uint32(size.Height)
	tight := w * uint32(format.BytesPerPixel())
	aligned := alignedBytesPerRow(tight)
	staging, err := r.b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback_staging",
		Size:  uint64(aligned) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	r.buffers = append(r.buffers, staging)

	// Render attachments must be in copy-source layout for the copy. This
	// is a no-op on Metal, GLES, software and noop backends.
	if renderTarget {
		r.transition(tex, gputypes.TextureUsageRenderAttachment, gputypes.TextureUsageCopySrc)
	}
	layer := uint32(desc.Layer)
	if desc.Texture == nil {
		layer = 0
	}
	r.encoder.CopyTextureToBuffer(tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: aligned, RowsPerImage: h},
		TextureBase: hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: uint32(desc.Level),
			Origin:   hal.Origin3D{Z: layer},
		},
		Size: hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	if renderTarget {
		r.transition(tex, gputypes.TextureUsageCopySrc, gputypes.TextureUsageRenderAttachment)
	}

	r.readbacks = append(r.readbacks, pendingReadback{
		staging: staging,
		result:  result,
		format:  format,
		size:    size,
		tight:   tight,
		aligned: aligned,
	})
	return nil
}

func (r *recorder) transition(tex hal.Texture, from, to gputypes.TextureUsage) {
	r.encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
	}})
}

func (r *recorder) BeginPass(rt rhi.RenderTarget, clear rhi.Color, ds rhi.DepthStencilClearValue) error {
	colorLoad, dsLoad := gputypes.LoadOpClear, gputypes.LoadOpClear
	var (
		colors   []hal.RenderPassColorAttachment
		dsView   hal.TextureView
		dsFormat rhi.TextureFormat
	)
	switch t := rt.(type) {
	case *rhi.SwapChainRenderTarget:
		sc, ok := t.SwapChain().(*swapChain)
		if !ok || sc.colorView == nil {
			return ErrForeignObject
		}
		att := hal.RenderPassColorAttachment{View: sc.colorView}
		if sc.msaaView != nil {
			att.View, att.ResolveTarget = sc.msaaView, sc.colorView
		}
		colors = append(colors, att)
		if dsView = sc.depthStencilView(); dsView != nil {
			dsFormat = rhi.D24S8
		}
	case *textureRenderTarget:
		if t.Flags()&rhi.PreserveColorContents != 0 {
			colorLoad = gputypes.LoadOpLoad
		}
		if t.Flags()&rhi.PreserveDepthStencilContents != 0 {
			dsLoad = gputypes.LoadOpLoad
		}
		for _, a := range t.colors {
			colors = append(colors, hal.RenderPassColorAttachment{View: a.view, ResolveTarget: a.resolve})
		}
		dsView = t.ds
		_, dsFormat = t.AttachmentFormats()
	default:
		return ErrForeignObject
	}
	for i := range colors {
		colors[i].LoadOp = colorLoad
		colors[i].StoreOp = gputypes.StoreOpStore
		colors[i].ClearValue = clearColor(clear)
	}
	desc := &hal.RenderPassDescriptor{
		Label:            rt.Name(),
		ColorAttachments: colors,
	}
	if dsView != nil {
		att := &hal.RenderPassDepthStencilAttachment{
			View:            dsView,
			DepthLoadOp:     dsLoad,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: ds.Depth,
		}
		if dsFormat.HasStencil() {
			att.StencilLoadOp = dsLoad
			att.StencilStoreOp = gputypes.StoreOpStore
			att.StencilClearValue = ds.Stencil
		}
		desc.DepthStencilAttachment = att
	}
	r.rpass = r.encoder.BeginRenderPass(desc)
	r.targetHeight = float32(rt.PixelSize().Height)
	return nil
}

func (r *recorder) EndPass() {
	r.rpass.End()
	r.rpass = nil
}

func (r *recorder) BeginComputePass() error {
	r.cpass = r.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "compute_pass"})
	return nil
}

func (r *recorder) EndComputePass() {
	r.cpass.End()
	r.cpass = nil
}

func (r *recorder) SetGraphicsPipeline(p rhi.GraphicsPipeline) {
	r.rpass.SetPipeline(p.(*graphicsPipeline).raw)
}

func (r *recorder) SetComputePipeline(p rhi.ComputePipeline) {
	r.cpass.SetPipeline(p.(*computePipeline).raw)
}

func (r *recorder) SetShaderResources(srb rhi.ShaderResourceBindings, offsets []rhi.DynamicOffset) {
	s := srb.(*shaderResourceBindings)
	dyn := s.dynamicOffsets(offsets)
	if r.rpass != nil {
		r.rpass.SetBindGroup(0, s.group, dyn)
		return
	}
	r.cpass.SetBindGroup(0, s.group, dyn)
}

func (r *recorder) SetVertexInput(start int, bindings []rhi.VertexInput, index rhi.Buffer, indexOffset uint32, f rhi.IndexFormat) {
	for i, vi := range bindings {
		r.rpass.SetVertexBuffer(uint32(start+i), vi.Buffer.(*Buffer).raw, uint64(vi.Offset))
	}
	if index != nil {
		r.rpass.SetIndexBuffer(index.(*Buffer).raw, indexFormat(f), uint64(indexOffset))
	}
}

func (r *recorder) SetViewport(v rhi.Viewport) {
	r.rpass.SetViewport(v.X, flipRect(v.Y, v.Height, r.targetHeight), v.Width, v.Height, v.MinDepth, v.MaxDepth)
}

// SetScissor clamps the rectangle to the target, which WebGPU requires.
func (r *recorder) SetScissor(s rhi.Scissor) {
	th := int(r.targetHeight)
	x0, y0 := max(s.X, 0), max(s.Y, 0)
	x1, y1 := max(s.X+s.Width, x0), min(max(s.Y+s.Height, y0), th)
	r.rpass.SetScissorRect(uint32(x0), uint32(th-y1), uint32(x1-x0), uint32(max(y1-y0, 0)))
}

func (r *recorder) SetBlendConstants(c rhi.Color) {
	color := clearColor(c)
	r.rpass.SetBlendConstant(&color)
}

func (r *recorder) SetStencilRef(ref uint32) { r.rpass.SetStencilReference(ref) }

func (r *recorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.rpass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (r *recorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	r.rpass.DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (r *recorder) Dispatch(x, y, z uint32) { r.cpass.Dispatch(x, y, z) }

// marker returns the innermost open encoder if it supports debug groups.
func (r *recorder) marker() (debugMarker, bool) {
	switch {
	case r.rpass != nil:
		m, ok := r.rpass.(debugMarker)
		return m, ok
	case r.cpass != nil:
		m, ok := r.cpass.(debugMarker)
		return m, ok
	}
	m, ok := r.encoder.(debugMarker)
	return m, ok
}

func (r *recorder) DebugMarkBegin(name string) {
	rhi.Logger().Debug("native: debug group", "name", name)
	if m, ok := r.marker(); ok {
		m.PushDebugGroup(name)
	}
}

func (r *recorder) DebugMarkEnd() {
	if m, ok := r.marker(); ok {
		m.PopDebugGroup()
	}
}

func (r *recorder) DebugMarkMsg(msg string) {
	rhi.Logger().Debug("native: debug message", "msg", msg)
	if m, ok := r.marker(); ok {
		m.InsertDebugMarker(msg)
	}
}

// submit ends encoding, submits, waits for the submission and completes
// the frame's readbacks. Readbacks complete even when the frame fails, with
// no data.
func (r *recorder) submit() rhi.FrameOpResult {
	defer r.cleanup()
	res := r.submitAndWait()
	r.completeReadbacks(res == rhi.FrameOpSuccess)
	return res
}

func (r *recorder) submitAndWait() rhi.FrameOpResult {
	cmdBuf, err := r.encoder.EndEncoding()
	if err != nil {
		rhi.Logger().Warn("native: end encoding", "err", err)
		return rhi.FrameOpError
	}
	defer r.b.device.FreeCommandBuffer(cmdBuf)

	idx, err := r.b.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		rhi.Logger().Warn("native: submit", "err", err)
		return rhi.FrameOpError
	}
	if !r.b.waitSubmission(idx) {
		rhi.Logger().Warn("native: wait for GPU", "submission", idx, "timeout", r.b.opts.FenceTimeout)
		return rhi.FrameOpDeviceLost
	}
	return rhi.FrameOpSuccess
}

// pollInterval is the sleep between completion polls.
const pollInterval = 100 * time.Microsecond

// waitSubmission polls the queue until submission idx has completed or
// Options.FenceTimeout has elapsed.
func (b *Backend) waitSubmission(idx uint64) bool {
	deadline := time.Now().Add(b.opts.FenceTimeout)
	for b.queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
	return true
}

func (r *recorder) completeReadbacks(ok bool) {
	for _, rb := range r.readbacks {
		var data []byte
		if ok {
			var err error
			if data, err = r.readStaging(rb); err != nil {
				rhi.Logger().Warn("native: readback", "err", err)
			}
		}
		rb.result.Format = rb.format
		rb.result.PixelSize = rb.size
		rb.result.Data = data
		if rb.result.Completed != nil {
			rb.result.Completed()
		}
	}
}

// readStaging maps a readback staging buffer and strips the row padding.
func (r *recorder) readStaging(rb pendingReadback) ([]byte, error) {
	h := uint64(rb.size.Height)
	tight, aligned := uint64(rb.tight), uint64(rb.aligned)
	if h == 0 || tight == 0 {
		return nil, nil
	}
	m, err := r.b.device.MapBuffer(rb.staging, 0, aligned*h)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	raw := unsafe.Slice((*byte)(m.Ptr), aligned*h)
	data := make([]byte, tight*h)
	for row := range h {
		copy(data[row*tight:(row+1)*tight], raw[row*aligned:])
	}
	if err := r.b.device.UnmapBuffer(rb.staging); err != nil {
		return nil, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return data, nil
}

// discard abandons the frame.
func (r *recorder) discard() {
	if r.rpass != nil {
		r.rpass.End()
	}
	if r.cpass != nil {
		r.cpass.End()
	}
	r.encoder.DiscardEncoding()
	r.completeReadbacks(false)
	r.cleanup()
}

func (r *recorder) cleanup() {
	if !r.b.alive() {
		return
	}
	for _, g := range r.groups {
		r.b.device.DestroyBindGroup(g)
	}
	for _, v := range r.views {
		r.b.device.DestroyTextureView(v)
	}
	for _, buf := range r.buffers {
		r.b.device.DestroyBuffer(buf)
	}
	r.encoder.Destroy()
	r.groups, r.views, r.buffers, r.readbacks = nil, nil, nil, nil
}
