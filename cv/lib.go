// Package cv binds NVIDIA's CVImage library (shipped with the Video Effects
// and AR SDKs) and manages GPU-resident image buffers on top of it.
//
// The library is loaded once per process, reference-counted: the first
// acquirer resolves the shared library (soname first, then the SDK install
// path from the environment, then the well-known install directories) and
// binds the whole entry-point table atomically. A missing library or a
// missing symbol fails the entire load; a partially bound table is never
// observable.
package cv

import (
	"context"
	"unsafe"

	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/internal/dl"
	"github.com/xaionaro-go/nvvfx/internal/singleton"
	"github.com/xaionaro-go/nvvfx/logger"
)

const (
	// EnvVideoEffectsPath overrides the Video Effects SDK install location.
	EnvVideoEffectsPath = "NV_VIDEO_EFFECTS_PATH"
	// EnvARSDKPath overrides the AR SDK install location (the AR SDK ships
	// the same CVImage library).
	EnvARSDKPath = "NV_AR_SDK_PATH"
)

// Rect is an NvCVRect2i.
type Rect struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// Point is an NvCVPoint2i.
type Point struct {
	X int32
	Y int32
}

// Header mirrors the NvCVImage C struct; instances of it are passed by
// pointer straight into the vendor library. Field order and widths are part
// of the vendor ABI; do not reorder.
type Header struct {
	Width          uint32
	Height         uint32
	Pitch          int32
	PixelFormat    PixelFormat
	ComponentType  ComponentType
	PixelBytes     uint8
	ComponentBytes uint8
	NumComponents  uint8
	Layout         ComponentLayout
	MemLocation    MemoryLocation
	Colorspace     uint8
	_              [2]uint8
	Pixels         unsafe.Pointer
	DeletePtr      unsafe.Pointer
	DeleteProc     uintptr
	BufferBytes    uint64
}

// Procs is the bound CVImage function table for the entry points this
// module invokes. All fields are populated during load (InitFromTexture
// only where the platform has a texture-interop entry point).
type Procs struct {
	Init                   func(im *Header, width, height uint32, pitch int32, pixels unsafe.Pointer, format PixelFormat, componentType ComponentType, layout uint32, memLocation uint32) Status
	InitView               func(subImage, fullImage *Header, x, y int32, width, height uint32)
	Alloc                  func(im *Header, width, height uint32, format PixelFormat, componentType ComponentType, layout uint32, memLocation uint32, alignment uint32) Status
	Dealloc                func(im *Header) Status
	Transfer               func(src, dst *Header, scale float32, stream cuda.StreamHandle, tmp *Header) Status
	TransferRect           func(src *Header, srcRect *Rect, dst *Header, dstPoint *Point, scale float32, stream cuda.StreamHandle, tmp *Header) Status
	MapResource            func(im *Header, stream cuda.StreamHandle) Status
	UnmapResource          func(im *Header, stream cuda.StreamHandle) Status
	Composite              func(fg, bg, matte, dst *Header, stream cuda.StreamHandle) Status
	CompositeOverConstant  func(src, matte *Header, bgColor *uint8, dst *Header, stream cuda.StreamHandle) Status
	FlipY                  func(src, dst *Header) Status
	GetErrorStringFromCode func(code Status) string

	// InitFromTexture initializes a Header from the native object of a
	// graphics texture (NvCVImage_InitFromD3D11Texture). Nil on platforms
	// without a texture-interop entry point.
	InitFromTexture func(im *Header, texture unsafe.Pointer) Status
}

// Lib is the loaded CVImage library.
type Lib struct {
	Procs
	library *dl.Library
}

var shared = singleton.New[Lib](load, unload)

// Get acquires a reference to the process-wide CVImage binding, loading it
// on the first call.
func Get(ctx context.Context) (*singleton.Ref[Lib], error) {
	ref, err := shared.Acquire(ctx)
	if err != nil {
		return nil, ErrLoad{Err: err}
	}
	return ref, nil
}

// ErrorString returns the vendor's diagnostic string for the code, falling
// back to the static name when the lookup entry point is unavailable.
func (l *Lib) ErrorString(code Status) string {
	if l.GetErrorStringFromCode != nil {
		if s := l.GetErrorStringFromCode(code); s != "" {
			return s
		}
	}
	return code.String()
}

func load(ctx context.Context) (_ret *Lib, _err error) {
	logger.Debugf(ctx, "load")
	defer func() { logger.Debugf(ctx, "/load: %v", _err) }()

	library, err := dl.OpenVendor(
		ctx,
		libraryName,
		[]string{EnvVideoEffectsPath, EnvARSDKPath},
		installRoots(),
	)
	if err != nil {
		return nil, err
	}

	lib := &Lib{library: library}
	if err := lib.bind(ctx); err != nil {
		if closeErr := library.Close(ctx); closeErr != nil {
			logger.Errorf(ctx, "unable to unload '%s': %v", library.Path(), closeErr)
		}
		return nil, err
	}
	return lib, nil
}

func (l *Lib) bind(ctx context.Context) error {
	for _, sym := range []struct {
		name string
		ptr  any
	}{
		{"NvCVImage_Init", &l.Init},
		{"NvCVImage_InitView", &l.InitView},
		{"NvCVImage_Alloc", &l.Alloc},
		{"NvCVImage_Dealloc", &l.Dealloc},
		{"NvCVImage_Transfer", &l.Transfer},
		{"NvCVImage_TransferRect", &l.TransferRect},
		{"NvCVImage_MapResource", &l.MapResource},
		{"NvCVImage_UnmapResource", &l.UnmapResource},
		{"NvCVImage_Composite", &l.Composite},
		{"NvCVImage_CompositeOverConstant", &l.CompositeOverConstant},
		{"NvCVImage_FlipY", &l.FlipY},
		{"NvCV_GetErrorStringFromCode", &l.GetErrorStringFromCode},
	} {
		if err := l.library.Register(ctx, sym.name, sym.ptr); err != nil {
			return err
		}
	}

	// Entry points we do not call (yet) still have to be present; an SDK
	// build missing any of them is not one we know how to talk to.
	for _, name := range []string{
		"NvCVImage_Realloc",
		"NvCVImage_Create",
		"NvCVImage_Destroy",
		"NvCVImage_ComponentOffsets",
		"NvCVImage_TransferFromYUV",
		"NvCVImage_TransferToYUV",
		"NvCVImage_CompositeRect",
		"NvCVImage_GetYUVPointers",
	} {
		if _, err := l.library.Lookup(name); err != nil {
			return err
		}
	}

	return l.bindPlatform(ctx)
}

func unload(ctx context.Context, lib *Lib) {
	if lib.library == nil {
		return
	}
	if err := lib.library.Close(ctx); err != nil {
		logger.Errorf(ctx, "unable to unload the CVImage library: %v", err)
	}
}
