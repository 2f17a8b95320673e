package denoise_test

import (
	"context"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/cv"
	"github.com/xaionaro-go/nvvfx/gs"
	"github.com/xaionaro-go/nvvfx/gs/gstest"
	"github.com/xaionaro-go/nvvfx/vfx"
	"github.com/xaionaro-go/nvvfx/vfx/denoise"
)

type stackCalls struct {
	Runs      int
	Transfers []float32
	Strengths []float32
	Syncs     int

	// GuardDepth mirrors the thread's context stack; vendor calls that free
	// or unmap resources while it is zero are counted as unguarded.
	GuardDepth        int
	UnguardedReleases int
}

func newFakeStack(t *testing.T) (*gstest.Device, *cuda.Bridge, *cv.Lib, *vfx.Lib, *stackCalls) {
	t.Helper()
	calls := &stackCalls{}

	cudaLib := &cuda.Lib{Procs: cuda.Procs{
		DeviceGet: func(device *cuda.DeviceHandle, ordinal int32) cuda.Result { return cuda.ResultSuccess },
		CtxCreate: func(pctx *cuda.ContextHandle, flags uint32, device cuda.DeviceHandle) cuda.Result {
			*pctx = 1
			return cuda.ResultSuccess
		},
		CtxDestroy: func(cctx cuda.ContextHandle) cuda.Result { return cuda.ResultSuccess },
		CtxPushCurrent: func(cctx cuda.ContextHandle) cuda.Result {
			calls.GuardDepth++
			return cuda.ResultSuccess
		},
		CtxPopCurrent: func(pctx *cuda.ContextHandle) cuda.Result {
			calls.GuardDepth--
			return cuda.ResultSuccess
		},
		CtxSynchronize: func() cuda.Result { return cuda.ResultSuccess },
		StreamCreate: func(pstream *cuda.StreamHandle, flags uint32) cuda.Result {
			*pstream = 1
			return cuda.ResultSuccess
		},
		StreamDestroy: func(stream cuda.StreamHandle) cuda.Result { return cuda.ResultSuccess },
		StreamSynchronize: func(stream cuda.StreamHandle) cuda.Result {
			calls.Syncs++
			return cuda.ResultSuccess
		},
	}}
	bridge, err := cuda.NewBridgeWithLib(context.Background(), cudaLib)
	require.NoError(t, err)

	cvl := &cv.Lib{Procs: cv.Procs{
		Alloc: func(
			im *cv.Header,
			width, height uint32,
			format cv.PixelFormat,
			componentType cv.ComponentType,
			layout uint32, memLocation uint32,
			alignment uint32,
		) cv.Status {
			*im = cv.Header{
				Width:         width,
				Height:        height,
				PixelFormat:   format,
				ComponentType: componentType,
				BufferBytes:   uint64(width) * uint64(height) * 16,
			}
			return cv.StatusSuccess
		},
		Dealloc: func(im *cv.Header) cv.Status {
			if calls.GuardDepth == 0 {
				calls.UnguardedReleases++
			}
			*im = cv.Header{}
			return cv.StatusSuccess
		},
		Transfer: func(src, dst *cv.Header, scale float32, stream cuda.StreamHandle, tmp *cv.Header) cv.Status {
			calls.Transfers = append(calls.Transfers, scale)
			return cv.StatusSuccess
		},
		MapResource: func(im *cv.Header, stream cuda.StreamHandle) cv.Status { return cv.StatusSuccess },
		UnmapResource: func(im *cv.Header, stream cuda.StreamHandle) cv.Status {
			if calls.GuardDepth == 0 {
				calls.UnguardedReleases++
			}
			return cv.StatusSuccess
		},
		InitFromTexture: func(im *cv.Header, texture unsafe.Pointer) cv.Status {
			tex := (*gstest.Texture)(texture)
			*im = cv.Header{Width: tex.W, Height: tex.H, PixelFormat: cv.PixelFormatRGBA}
			return cv.StatusSuccess
		},
	}}

	vfxl := &vfx.Lib{Procs: vfx.Procs{
		CreateEffect: func(code vfx.EffectSelector, effect *vfx.Handle) cv.Status {
			*effect = 1
			return cv.StatusSuccess
		},
		DestroyEffect: func(effect vfx.Handle) cv.Status {
			if calls.GuardDepth == 0 {
				calls.UnguardedReleases++
			}
			return cv.StatusSuccess
		},
		SetU32:        func(effect vfx.Handle, name string, value uint32) cv.Status { return cv.StatusSuccess },
		SetF32: func(effect vfx.Handle, name string, value float32) cv.Status {
			if name == vfx.ParamStrength {
				calls.Strengths = append(calls.Strengths, value)
			}
			return cv.StatusSuccess
		},
		SetImage:  func(effect vfx.Handle, name string, im *cv.Header) cv.Status { return cv.StatusSuccess },
		SetString: func(effect vfx.Handle, name string, value string) cv.Status { return cv.StatusSuccess },
		SetCudaStream: func(effect vfx.Handle, name string, stream cuda.StreamHandle) cv.Status {
			return cv.StatusSuccess
		},
		Run:  func(effect vfx.Handle, async int32) cv.Status { calls.Runs++; return cv.StatusSuccess },
		Load: func(effect vfx.Handle) cv.Status { return cv.StatusSuccess },
	}}

	return gstest.New(), bridge, cvl, vfxl, calls
}

func TestDenoiseAdjustSize(t *testing.T) {
	ctx := context.Background()
	device, bridge, cvl, vfxl, _ := newFakeStack(t)
	d, err := denoise.New(ctx, device, bridge, cvl, vfxl, 1.0)
	require.NoError(t, err)
	defer func() { require.NoError(t, d.Close(ctx)) }()

	// inside the envelope: unchanged
	require.Equal(t, gs.Size{Width: 1920, Height: 1080},
		d.AdjustSize(ctx, gs.Size{Width: 1920, Height: 1080}))
	// too big: the shorter edge is clamped, the aspect ratio kept
	require.Equal(t, gs.Size{Width: 2160, Height: 1080},
		d.AdjustSize(ctx, gs.Size{Width: 4000, Height: 2000}))
	// too small
	require.Equal(t, gs.Size{Width: 160, Height: 80},
		d.AdjustSize(ctx, gs.Size{Width: 100, Height: 50}))
}

func TestDenoiseProcess(t *testing.T) {
	ctx := context.Background()
	device, bridge, cvl, vfxl, calls := newFakeStack(t)
	d, err := denoise.New(ctx, device, bridge, cvl, vfxl, 1.0)
	require.NoError(t, err)
	defer func() { require.NoError(t, d.Close(ctx)) }()

	input := &gstest.Texture{W: 1920, H: 1080, Format: gs.ColorFormatRGBAUnorm}
	out, err := d.Process(ctx, input)
	require.NoError(t, err)
	require.Equal(t, uint32(1920), out.Width())
	require.Equal(t, uint32(1080), out.Height())
	require.Equal(t, gs.ColorFormatRGBAUnorm, out.ColorFormat())
	require.Equal(t, 1, calls.Runs)

	// the frame is normalized on the way in and denormalized on the way out
	require.Equal(t, []float32{float32(1.0 / 255.0), 255.0}, calls.Transfers)
	// the output is only read after the stream completed
	require.GreaterOrEqual(t, calls.Syncs, 1)
}

func TestDenoiseCloseHoldsTheContexts(t *testing.T) {
	ctx := context.Background()
	device, bridge, cvl, vfxl, calls := newFakeStack(t)
	d, err := denoise.New(ctx, device, bridge, cvl, vfxl, 1.0)
	require.NoError(t, err)

	input := &gstest.Texture{W: 1920, H: 1080, Format: gs.ColorFormatRGBAUnorm}
	_, err = d.Process(ctx, input)
	require.NoError(t, err)

	require.NoError(t, d.Close(ctx))
	require.Zero(t, calls.UnguardedReleases)
	require.Zero(t, calls.GuardDepth)
}

func TestDenoiseStrengthIsClamped(t *testing.T) {
	ctx := context.Background()
	device, bridge, cvl, vfxl, calls := newFakeStack(t)
	d, err := denoise.New(ctx, device, bridge, cvl, vfxl, 7.0)
	require.NoError(t, err)
	defer func() { require.NoError(t, d.Close(ctx)) }()

	require.Equal(t, []float32{1.0}, calls.Strengths)
	require.NoError(t, d.SetStrength(ctx, -3))
	require.Equal(t, []float32{1.0, 0.0}, calls.Strengths)
}
