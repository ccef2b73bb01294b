// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import (
	"fmt"
	"image"
	"slices"

	"golang.org/x/image/draw"
)

// BufferOpKind is the kind of a queued buffer operation.
type BufferOpKind int

const (
	// DynamicUpdate writes into a Dynamic buffer's host-side shadow.
	DynamicUpdate BufferOpKind = iota
	// StaticUpload copies data into an Immutable or Static buffer.
	StaticUpload
)

// BufferOp is one queued buffer operation.
type BufferOp struct {
	Kind   BufferOpKind
	Buffer Buffer
	Offset int
	Data   []byte
}

// TextureOpKind is the kind of a queued texture operation.
type TextureOpKind int

const (
	TextureUpload TextureOpKind = iota
	TextureCopy
	TextureReadback
	TextureGenMips
)

// TextureSubresourceUpload is the data for one layer and mip level. Data
// holds tightly packed rows of SourceSize pixels; an empty SourceSize means
// the full subresource.
type TextureSubresourceUpload struct {
	Layer       int
	Level       int
	Data        []byte
	DestTopLeft image.Point
	SourceSize  Size
}

// TextureCopyDescription selects the regions of a texture-to-texture copy.
// An empty PixelSize copies the whole source subresource.
type TextureCopyDescription struct {
	SourceLayer        int
	SourceLevel        int
	SourceTopLeft      image.Point
	PixelSize          Size
	DestinationLayer   int
	DestinationLevel   int
	DestinationTopLeft image.Point
}

// ReadbackDescription selects what to read back. A nil Texture reads the
// current backbuffer of the swap chain whose frame is being recorded.
type ReadbackDescription struct {
	Texture Texture
	Level   int
	Layer   int
}

// ReadbackResult receives the bytes of a readback. Completed, when set, is
// called once Data, Format and PixelSize are valid, which is at the latest
// when the frame that recorded the readback has finished.
type ReadbackResult struct {
	Completed func()
	Format    TextureFormat
	PixelSize Size
	Data      []byte
}

// Image returns the result as an *image.RGBA when Format is RGBA8 or
// BGRA8, swapping channels for the latter.
func (r *ReadbackResult) Image() (*image.RGBA, error) {
	if r.Format != RGBA8 && r.Format != BGRA8 {
		return nil, fmt.Errorf("rhi: readback format %s has no RGBA image form", r.Format)
	}
	if len(r.Data) < r.Format.ByteSize(r.PixelSize) {
		return nil, fmt.Errorf("rhi: readback holds %d bytes, want %d", len(r.Data), r.Format.ByteSize(r.PixelSize))
	}
	img := image.NewRGBA(image.Rect(0, 0, r.PixelSize.Width, r.PixelSize.Height))
	copy(img.Pix, r.Data)
	if r.Format == BGRA8 {
		for i := 0; i+3 < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		}
	}
	return img, nil
}

// TextureOp is one queued texture operation. Which fields are meaningful
// depends on Kind.
type TextureOp struct {
	Kind     TextureOpKind
	Dst      Texture
	Src      Texture
	Uploads  []TextureSubresourceUpload
	Copy     TextureCopyDescription
	Readback ReadbackDescription
	Result   *ReadbackResult
	Layer    int
}

// ResourceUpdateBatch queues buffer and texture operations to be applied by
// a command buffer, either between passes or at pass begin and end.
//
// Batches come from Device.NextResourceUpdateBatch and go back to the pool
// with Release once submitted. Operations are applied in the order queued.
type ResourceUpdateBatch struct {
	dev        *Device
	bufferOps  []BufferOp
	textureOps []TextureOp
	pooled     bool
	free       bool
}

// UpdateDynamicBuffer queues a write of data at offset into a Dynamic
// buffer. Data is copied.
func (b *ResourceUpdateBatch) UpdateDynamicBuffer(buf Buffer, offset int, data []byte) {
	b.bufferOps = append(b.bufferOps, BufferOp{Kind: DynamicUpdate, Buffer: buf, Offset: offset, Data: slices.Clone(data)})
}

// UploadStaticBuffer queues an upload of data at offset into an Immutable
// or Static buffer. Data is copied.
func (b *ResourceUpdateBatch) UploadStaticBuffer(buf Buffer, offset int, data []byte) {
	b.bufferOps = append(b.bufferOps, BufferOp{Kind: StaticUpload, Buffer: buf, Offset: offset, Data: slices.Clone(data)})
}

// UploadTexture queues uploads of one or more subresources. Data is copied.
func (b *ResourceUpdateBatch) UploadTexture(tex Texture, uploads ...TextureSubresourceUpload) {
	ups := make([]TextureSubresourceUpload, len(uploads))
	for i, u := range uploads {
		u.Data = slices.Clone(u.Data)
		ups[i] = u
	}
	b.textureOps = append(b.textureOps, TextureOp{Kind: TextureUpload, Dst: tex, Uploads: ups})
}

// UploadTextureImage queues an upload of img into level 0, layer 0 of tex.
// The image is converted to RGBA8 rows; BGRA8 textures get their channels
// swapped.
func (b *ResourceUpdateBatch) UploadTextureImage(tex Texture, img image.Image) {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	if tex != nil && tex.Format() == BGRA8 {
		for i := 0; i+3 < len(rgba.Pix); i += 4 {
			rgba.Pix[i], rgba.Pix[i+2] = rgba.Pix[i+2], rgba.Pix[i]
		}
	}
	b.textureOps = append(b.textureOps, TextureOp{
		Kind: TextureUpload,
		Dst:  tex,
		Uploads: []TextureSubresourceUpload{{
			Data:       rgba.Pix,
			SourceSize: Size{Width: bounds.Dx(), Height: bounds.Dy()},
		}},
	})
}

// CopyTexture queues a copy from src to dst.
func (b *ResourceUpdateBatch) CopyTexture(dst, src Texture, desc TextureCopyDescription) {
	b.textureOps = append(b.textureOps, TextureOp{Kind: TextureCopy, Dst: dst, Src: src, Copy: desc})
}

// ReadBackTexture queues a readback into result. See ReadbackResult for
// when the data becomes available.
func (b *ResourceUpdateBatch) ReadBackTexture(desc ReadbackDescription, result *ReadbackResult) {
	b.textureOps = append(b.textureOps, TextureOp{Kind: TextureReadback, Src: desc.Texture, Readback: desc, Result: result})
}

// GenerateMips queues mipmap generation for one layer of tex.
func (b *ResourceUpdateBatch) GenerateMips(tex Texture, layer int) {
	b.textureOps = append(b.textureOps, TextureOp{Kind: TextureGenMips, Dst: tex, Layer: layer})
}

// Merge appends the operations of other. other is left unchanged and must
// still be released by its owner.
func (b *ResourceUpdateBatch) Merge(other *ResourceUpdateBatch) {
	if other == nil || other == b {
		return
	}
	b.bufferOps = append(b.bufferOps, other.bufferOps...)
	b.textureOps = append(b.textureOps, other.textureOps...)
}

// HasOps reports whether anything is queued.
func (b *ResourceUpdateBatch) HasOps() bool {
	return len(b.bufferOps) > 0 || len(b.textureOps) > 0
}

// BufferOps returns the queued buffer operations, for backends.
func (b *ResourceUpdateBatch) BufferOps() []BufferOp { return b.bufferOps }

// TextureOps returns the queued texture operations, for backends.
func (b *ResourceUpdateBatch) TextureOps() []TextureOp { return b.textureOps }

// Release clears the batch and returns it to the device pool. The batch
// must not be used afterwards.
func (b *ResourceUpdateBatch) Release() {
	clear(b.bufferOps)
	clear(b.textureOps)
	b.bufferOps = b.bufferOps[:0]
	b.textureOps = b.textureOps[:0]
	if b.dev != nil {
		b.dev.releaseBatch(b)
	}
}

// validate checks every queued operation against d.
func (b *ResourceUpdateBatch) validate(d *Device, inFrame bool) error {
	for i, op := range b.bufferOps {
		if err := checkUsable(d, op.Buffer); err != nil {
			return fmt.Errorf("buffer op %d: %w", i, err)
		}
		switch typ := op.Buffer.Type(); {
		case op.Kind == DynamicUpdate && typ != Dynamic:
			return fmt.Errorf("rhi: buffer op %d: UpdateDynamicBuffer on %s buffer", i, typ)
		case op.Kind == StaticUpload && typ == Dynamic:
			return fmt.Errorf("rhi: buffer op %d: UploadStaticBuffer on Dynamic buffer", i)
		}
		if op.Offset < 0 || op.Offset+len(op.Data) > op.Buffer.Size() {
			return fmt.Errorf("rhi: buffer op %d: %d bytes at offset %d exceed size %d", i, len(op.Data), op.Offset, op.Buffer.Size())
		}
	}
	for i, op := range b.textureOps {
		var err error
		switch op.Kind {
		case TextureUpload:
			err = checkUsable(d, op.Dst)
			for _, u := range op.Uploads {
				if err == nil && (u.Level < 0 || u.Level >= op.Dst.MipLevelCount() || u.Layer < 0 || u.Layer >= op.Dst.LayerCount()) {
					err = fmt.Errorf("rhi: upload to layer %d level %d out of range", u.Layer, u.Level)
				}
			}
		case TextureCopy:
			if err = checkUsable(d, op.Dst); err == nil {
				err = checkUsable(d, op.Src)
			}
		case TextureReadback:
			switch {
			case op.Result == nil:
				err = ErrNilResource
			case op.Readback.Level < 0 || op.Readback.Layer < 0:
				err = fmt.Errorf("rhi: readback of layer %d level %d out of range", op.Readback.Layer, op.Readback.Level)
			case op.Src == nil:
				if !inFrame {
					err = fmt.Errorf("rhi: swap chain readback outside a frame")
				}
			default:
				err = checkUsable(d, op.Src)
				switch {
				case err != nil:
				case op.Src.SampleCount() > 1:
					err = fmt.Errorf("rhi: readback of multisample texture %q", op.Src.Name())
				case op.Readback.Level >= op.Src.MipLevelCount() || op.Readback.Layer >= op.Src.LayerCount():
					err = fmt.Errorf("rhi: readback of layer %d level %d out of range", op.Readback.Layer, op.Readback.Level)
				}
			}
		case TextureGenMips:
			if err = checkUsable(d, op.Dst); err == nil && op.Dst.Flags()&TextureMipMapped == 0 {
				err = fmt.Errorf("rhi: GenerateMips on texture %q without TextureMipMapped", op.Dst.Name())
			}
		}
		if err != nil {
			return fmt.Errorf("texture op %d: %w", i, err)
		}
	}
	return nil
}
