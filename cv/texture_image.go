package cv

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/gs"
	"github.com/xaionaro-go/nvvfx/internal"
	"github.com/xaionaro-go/nvvfx/logger"
)

// TextureImage is an image buffer bound to a graphics texture: the vendor
// library maps the texture's backing device resource, so transfers in and
// out of it are zero-copy with respect to the graphics API.
//
// A TextureImage owns the texture it created. Resize tears the whole pair
// down and rebuilds it (unmap, dealloc, new texture, init, map); there is
// no in-place path. Every operation must run while both the graphics
// context and a CUDA context guard are held.
type TextureImage struct {
	lib    *Lib
	device gs.Device
	stream *cuda.Stream

	format  gs.ColorFormat
	texture gs.Texture
	header  Header
	mapped  bool
}

// NewTextureImage creates a texture of the given geometry and maps it for
// CUDA access.
func (l *Lib) NewTextureImage(
	ctx context.Context,
	device gs.Device,
	stream *cuda.Stream,
	width, height uint32,
	format gs.ColorFormat,
) (_ret *TextureImage, _err error) {
	logger.Debugf(ctx, "NewTextureImage(ctx, %dx%d, %s)", width, height, format)
	defer func() { logger.Debugf(ctx, "/NewTextureImage: %v", _err) }()

	t := &TextureImage{
		lib:    l,
		device: device,
		stream: stream,
		format: format,
	}
	if err := t.bind(ctx, width, height); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TextureImage) bind(ctx context.Context, width, height uint32) error {
	internal.Assert(ctx, t.texture == nil && !t.mapped)
	if width == 0 || height == 0 {
		return ErrAlloc{
			Width:  width,
			Height: height,
			Status: StatusErrParameter,
			Detail: "zero-sized geometry",
		}
	}

	texture, err := t.device.CreateTexture(ctx, width, height, t.format)
	if err != nil {
		return fmt.Errorf("unable to create a %dx%d %s texture: %w", width, height, t.format, err)
	}

	if t.lib.InitFromTexture == nil {
		t.destroyTexture(ctx, texture)
		return ErrMap{
			Op:     "bind",
			Status: StatusErrUnimplemented,
			Detail: "no texture-interop entry point on this platform",
		}
	}
	if status := t.lib.InitFromTexture(&t.header, texture.NativeHandle()); status != StatusSuccess {
		t.destroyTexture(ctx, texture)
		return ErrMap{
			Op:     "bind",
			Status: status,
			Detail: t.lib.ErrorString(status),
		}
	}
	if status := t.lib.MapResource(&t.header, t.stream.Handle()); status != StatusSuccess {
		t.header = Header{}
		t.destroyTexture(ctx, texture)
		return ErrMap{
			Op:     "map",
			Status: status,
			Detail: t.lib.ErrorString(status),
		}
	}

	t.texture = texture
	t.mapped = true
	return nil
}

// Texture returns the graphics texture backing this image.
func (t *TextureImage) Texture() gs.Texture {
	return t.texture
}

// Header returns the descriptor to hand to the vendor library.
func (t *TextureImage) Header() *Header {
	return &t.header
}

func (t *TextureImage) Width() uint32 {
	if t.texture == nil {
		return 0
	}
	return t.texture.Width()
}

func (t *TextureImage) Height() uint32 {
	if t.texture == nil {
		return 0
	}
	return t.texture.Height()
}

// Resize unmaps and deallocates the current binding and builds a new
// texture+mapping pair at the requested geometry.
func (t *TextureImage) Resize(ctx context.Context, width, height uint32) (_err error) {
	logger.Debugf(ctx, "Resize(ctx, %dx%d)", width, height)
	defer func() { logger.Debugf(ctx, "/Resize(ctx, %dx%d): %v", width, height, _err) }()

	if t.texture != nil && t.texture.Width() == width && t.texture.Height() == height {
		return nil
	}
	if err := t.Release(ctx); err != nil {
		return fmt.Errorf("unable to release the old binding: %w", err)
	}
	return t.bind(ctx, width, height)
}

// Release unmaps, deallocates and destroys the texture. Idempotent.
func (t *TextureImage) Release(ctx context.Context) error {
	if !t.mapped && t.texture == nil {
		return nil
	}

	var firstErr error
	if t.mapped {
		if status := t.lib.UnmapResource(&t.header, t.stream.Handle()); status != StatusSuccess {
			firstErr = ErrMap{
				Op:     "unmap",
				Status: status,
				Detail: t.lib.ErrorString(status),
			}
		}
		if status := t.lib.Dealloc(&t.header); status != StatusSuccess && firstErr == nil {
			firstErr = ErrMap{
				Op:     "dealloc",
				Status: status,
				Detail: t.lib.ErrorString(status),
			}
		}
		t.header = Header{}
		t.mapped = false
	}
	if t.texture != nil {
		t.destroyTexture(ctx, t.texture)
		t.texture = nil
	}
	return firstErr
}

func (t *TextureImage) destroyTexture(ctx context.Context, texture gs.Texture) {
	destroyable, ok := texture.(gs.DestroyableTexture)
	if !ok {
		return
	}
	if err := destroyable.Destroy(ctx); err != nil {
		logger.Errorf(ctx, "unable to destroy the texture: %v", err)
	}
}
