package cv

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/logger"
)

// Image is a standalone device image buffer. It owns its allocation: Resize
// always deallocates and allocates an exactly-fitting new buffer (the
// vendor's buffers cannot be reinterpreted at a different geometry), and
// Release is idempotent.
//
// Every operation must run while a CUDA context guard is held.
type Image struct {
	lib *Lib

	header        Header
	format        PixelFormat
	componentType ComponentType
	layout        ComponentLayout
	location      MemoryLocation
	alignment     uint32
}

// NewImage allocates a device buffer of the given geometry.
func (l *Lib) NewImage(
	ctx context.Context,
	width, height uint32,
	format PixelFormat,
	componentType ComponentType,
	layout ComponentLayout,
	location MemoryLocation,
	alignment uint32,
) (_ret *Image, _err error) {
	logger.Debugf(ctx, "NewImage(ctx, %dx%d, %s, %s, %s, %s, %d)",
		width, height, format, componentType, layout, location, alignment)
	defer func() { logger.Debugf(ctx, "/NewImage: %v", _err) }()

	im := &Image{
		lib:           l,
		format:        format,
		componentType: componentType,
		layout:        layout,
		location:      location,
		alignment:     alignment,
	}
	if err := im.alloc(ctx, width, height); err != nil {
		return nil, err
	}
	return im, nil
}

func (im *Image) alloc(ctx context.Context, width, height uint32) error {
	if width == 0 || height == 0 {
		return ErrAlloc{
			Width:  width,
			Height: height,
			Status: StatusErrParameter,
			Detail: "zero-sized geometry",
		}
	}
	if status := im.lib.Alloc(
		&im.header,
		width, height,
		im.format, im.componentType,
		uint32(im.layout), uint32(im.location),
		im.alignment,
	); status != StatusSuccess {
		return ErrAlloc{
			Width:  width,
			Height: height,
			Status: status,
			Detail: im.lib.ErrorString(status),
		}
	}
	if min := im.minBufferBytes(width, height); min != 0 && im.header.BufferBytes < min {
		logger.Warnf(ctx, "the vendor allocated %s for a %dx%d %s/%s buffer, expected at least %s",
			humanize.IBytes(im.header.BufferBytes), width, height,
			im.format, im.componentType, humanize.IBytes(min))
	}
	logger.Tracef(ctx, "allocated a %dx%d %s/%s buffer: %s",
		width, height, im.format, im.componentType, humanize.IBytes(im.header.BufferBytes))
	return nil
}

// minBufferBytes is the smallest allocation that can hold the geometry, for
// sanity-checking what the vendor reports. 0 means "cannot tell" (unknown
// format/component, or chroma subsampling making the product an
// overestimate).
func (im *Image) minBufferBytes(width, height uint32) uint64 {
	switch im.format {
	case PixelFormatYUV420, PixelFormatYUV422:
		return 0
	}
	return uint64(width) * uint64(height) *
		uint64(im.format.componentCount()) * uint64(im.componentType.Size())
}

// Header returns the descriptor to hand to the vendor library. The pointer
// stays valid across Resize (the vendor rewrites it in place), which is why
// effects can keep it bound while the owning provider resizes buffers.
func (im *Image) Header() *Header {
	return &im.header
}

func (im *Image) Width() uint32 {
	return im.header.Width
}

func (im *Image) Height() uint32 {
	return im.header.Height
}

// View returns a descriptor aliasing the given sub-rectangle of the buffer.
// The view shares the allocation, so it is valid only until the Image is
// resized or released, and must never be deallocated itself.
func (im *Image) View(x, y int32, width, height uint32) *Header {
	var sub Header
	im.lib.InitView(&sub, &im.header, x, y, width, height)
	return &sub
}

// Resize throws away the current allocation and makes a new exactly-fitting
// one. No-op when the geometry already matches.
func (im *Image) Resize(ctx context.Context, width, height uint32) (_err error) {
	logger.Debugf(ctx, "Resize(ctx, %dx%d)", width, height)
	defer func() { logger.Debugf(ctx, "/Resize(ctx, %dx%d): %v", width, height, _err) }()

	if im.header.Width == width && im.header.Height == height {
		return nil
	}
	if err := im.Release(ctx); err != nil {
		return fmt.Errorf("unable to release the old buffer: %w", err)
	}
	return im.alloc(ctx, width, height)
}

// Release deallocates the buffer. Idempotent: releasing an already released
// (or never allocated) Image is a no-op.
func (im *Image) Release(ctx context.Context) error {
	if im.header.Width == 0 {
		return nil
	}
	status := im.lib.Dealloc(&im.header)
	im.header = Header{}
	if status != StatusSuccess {
		return ErrAlloc{
			Status: status,
			Detail: im.lib.ErrorString(status),
		}
	}
	return nil
}

// TransferImage enqueues an asynchronous device-to-device conversion/copy
// from src to dst on the stream, using tmp as the intermediate buffer when
// the two layouts are incompatible. Pixel values are multiplied by scale
// (e.g. 1/255 when converting u8 into normalized f32). Completion is only
// guaranteed after the stream is synchronized.
//
// On failure the frame being built is unusable and must be dropped: the
// error is logged with both descriptors and propagated.
func (l *Lib) TransferImage(
	ctx context.Context,
	src, dst *Header,
	scale float32,
	stream *cuda.Stream,
	tmp *Header,
) error {
	if status := l.Transfer(src, dst, scale, stream.Handle(), tmp); status != StatusSuccess {
		logger.Errorf(ctx, "image transfer failed: %s; src: %s; dst: %s",
			l.ErrorString(status), spew.Sdump(src), spew.Sdump(dst))
		return ErrTransfer{
			Status: status,
			Detail: l.ErrorString(status),
		}
	}
	return nil
}
