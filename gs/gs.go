// Package gs declares the capability surface this module consumes from the
// host's graphics subsystem. The host (an OBS-style plugin runtime) owns
// texture creation, render targets, blending state and draw calls; we only
// require the narrow set of operations below, plus access to the native
// handle of a 2D texture for zero-copy GPU interop.
package gs

import (
	"context"
	"unsafe"
)

// ColorFormat enumerates the texture formats this module asks the host to
// allocate.
type ColorFormat int

const (
	ColorFormatUnknown ColorFormat = iota
	ColorFormatRGBAUnorm
	ColorFormatA8
)

func (f ColorFormat) String() string {
	switch f {
	case ColorFormatRGBAUnorm:
		return "RGBA_UNORM"
	case ColorFormatA8:
		return "A8"
	default:
		return "unknown"
	}
}

// Texture is a host-owned 2D texture.
type Texture interface {
	Width() uint32
	Height() uint32
	ColorFormat() ColorFormat

	// NativeHandle returns the graphics-API object backing the texture
	// (e.g. an ID3D11Texture2D pointer), for interop binding.
	NativeHandle() unsafe.Pointer
}

// RenderTarget is a host-owned render target the filter captures frames
// into. Begin reallocates the backing texture if the size changed.
type RenderTarget interface {
	Begin(ctx context.Context, width, height uint32) error
	End(ctx context.Context) error

	// Texture returns the texture holding whatever was rendered between the
	// last Begin/End pair.
	Texture() Texture
}

// Device is the host's graphics device.
type Device interface {
	// Enter makes the graphics context current for the calling goroutine
	// and returns the function that releases it again. Nesting is legal.
	Enter(ctx context.Context) (func(), error)

	CreateTexture(ctx context.Context, width, height uint32, format ColorFormat) (Texture, error)
	CreateRenderTarget(ctx context.Context, format ColorFormat) (RenderTarget, error)

	// CopyTexture copies src into dst on the GPU. Both textures must have
	// the same size and format.
	CopyTexture(ctx context.Context, dst, src Texture) error

	// ApplyMask renders base masked by the alpha channel of mask into dst
	// (the host's channel-mask effect).
	ApplyMask(ctx context.Context, dst RenderTarget, base, mask Texture) error
}

// DestroyableTexture is implemented by hosts whose textures must be released
// explicitly.
type DestroyableTexture interface {
	Texture
	Destroy(ctx context.Context) error
}
