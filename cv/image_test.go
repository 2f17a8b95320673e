package cv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/nvvfx/cuda"
)

type fakeImageCalls struct {
	Allocs    int
	Deallocs  int
	Transfers int

	FailTransfer bool
}

func newFakeImageLib(calls *fakeImageCalls) *Lib {
	return &Lib{Procs: Procs{
		Alloc: func(
			im *Header,
			width, height uint32,
			format PixelFormat,
			componentType ComponentType,
			layout uint32, memLocation uint32,
			alignment uint32,
		) Status {
			calls.Allocs++
			*im = Header{
				Width:         width,
				Height:        height,
				PixelFormat:   format,
				ComponentType: componentType,
				Layout:        ComponentLayout(layout),
				MemLocation:   MemoryLocation(memLocation),
				BufferBytes:   uint64(width) * uint64(height) * 16,
			}
			return StatusSuccess
		},
		Dealloc: func(im *Header) Status {
			calls.Deallocs++
			*im = Header{}
			return StatusSuccess
		},
		InitView: func(subImage, fullImage *Header, x, y int32, width, height uint32) {
			*subImage = *fullImage
			subImage.Width = width
			subImage.Height = height
		},
		Transfer: func(src, dst *Header, scale float32, stream cuda.StreamHandle, tmp *Header) Status {
			calls.Transfers++
			if calls.FailTransfer {
				return StatusErrCuda
			}
			return StatusSuccess
		},
	}}
}

func newFakeStream(t *testing.T) *cuda.Stream {
	stream, err := cuda.NewStream(context.Background(), &cuda.Lib{Procs: cuda.Procs{
		StreamCreate: func(pstream *cuda.StreamHandle, flags uint32) cuda.Result {
			*pstream = 1
			return cuda.ResultSuccess
		},
		StreamDestroy:     func(stream cuda.StreamHandle) cuda.Result { return cuda.ResultSuccess },
		StreamSynchronize: func(stream cuda.StreamHandle) cuda.Result { return cuda.ResultSuccess },
	}})
	require.NoError(t, err)
	return stream
}

func TestImageAllocAndRelease(t *testing.T) {
	ctx := context.Background()
	var calls fakeImageCalls
	lib := newFakeImageLib(&calls)

	im, err := lib.NewImage(ctx, 1280, 720,
		PixelFormatBGR, ComponentTypeUint8,
		ComponentLayoutChunky, MemoryLocationGPU, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(1280), im.Width())
	require.Equal(t, uint32(720), im.Height())
	require.Equal(t, 1, calls.Allocs)

	require.NoError(t, im.Release(ctx))
	require.Equal(t, 1, calls.Deallocs)

	// releasing again must be a no-op
	require.NoError(t, im.Release(ctx))
	require.Equal(t, 1, calls.Deallocs)
}

func TestImageZeroGeometry(t *testing.T) {
	ctx := context.Background()
	var calls fakeImageCalls
	lib := newFakeImageLib(&calls)

	_, err := lib.NewImage(ctx, 0, 720,
		PixelFormatBGR, ComponentTypeUint8,
		ComponentLayoutChunky, MemoryLocationGPU, 1)
	require.Error(t, err)
	var errAlloc ErrAlloc
	require.ErrorAs(t, err, &errAlloc)
	require.Equal(t, StatusErrParameter, errAlloc.Status)
	require.Equal(t, 0, calls.Allocs)
}

func TestImageResize(t *testing.T) {
	ctx := context.Background()
	var calls fakeImageCalls
	lib := newFakeImageLib(&calls)

	im, err := lib.NewImage(ctx, 160, 90,
		PixelFormatA, ComponentTypeUint8,
		ComponentLayoutPlanar, MemoryLocationGPU, 1)
	require.NoError(t, err)
	header := im.Header()

	// same geometry: nothing happens
	require.NoError(t, im.Resize(ctx, 160, 90))
	require.Equal(t, 1, calls.Allocs)
	require.Equal(t, 0, calls.Deallocs)

	// new geometry: the old buffer is dropped and a fresh one made
	require.NoError(t, im.Resize(ctx, 1920, 1080))
	require.Equal(t, 2, calls.Allocs)
	require.Equal(t, 1, calls.Deallocs)
	require.Equal(t, uint32(1920), im.Width())

	// the descriptor pointer stays stable across resizes
	require.Same(t, header, im.Header())
	require.Equal(t, uint32(1920), header.Width)
}

func TestImageView(t *testing.T) {
	ctx := context.Background()
	var calls fakeImageCalls
	lib := newFakeImageLib(&calls)

	im, err := lib.NewImage(ctx, 1920, 1080,
		PixelFormatRGBA, ComponentTypeUint8,
		ComponentLayoutChunky, MemoryLocationGPU, 1)
	require.NoError(t, err)

	view := im.View(100, 50, 640, 360)
	require.NotSame(t, im.Header(), view)
	require.Equal(t, uint32(640), view.Width)
	require.Equal(t, uint32(360), view.Height)

	// the full descriptor is untouched
	require.Equal(t, uint32(1920), im.Width())
	require.Equal(t, uint32(1080), im.Height())
}

func TestTransferImage(t *testing.T) {
	ctx := context.Background()
	var calls fakeImageCalls
	lib := newFakeImageLib(&calls)
	stream := newFakeStream(t)

	src, err := lib.NewImage(ctx, 640, 360, PixelFormatRGBA, ComponentTypeUint8, ComponentLayoutChunky, MemoryLocationGPU, 1)
	require.NoError(t, err)
	dst, err := lib.NewImage(ctx, 640, 360, PixelFormatBGR, ComponentTypeFloat32, ComponentLayoutPlanar, MemoryLocationGPU, 1)
	require.NoError(t, err)
	tmp, err := lib.NewImage(ctx, 640, 360, PixelFormatRGBA, ComponentTypeUint8, ComponentLayoutPlanar, MemoryLocationGPU, 1)
	require.NoError(t, err)

	require.NoError(t, lib.TransferImage(ctx, src.Header(), dst.Header(), 1.0/255.0, stream, tmp.Header()))
	require.Equal(t, 1, calls.Transfers)

	calls.FailTransfer = true
	err = lib.TransferImage(ctx, src.Header(), dst.Header(), 1.0/255.0, stream, tmp.Header())
	var errTransfer ErrTransfer
	require.ErrorAs(t, err, &errTransfer)
	require.Equal(t, StatusErrCuda, errTransfer.Status)
}
