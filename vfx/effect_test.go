package vfx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/cv"
)

type fakeEffectCalls struct {
	Creates  int
	Destroys int
	Loads    int
	Runs     int

	Images  map[string]*cv.Header
	U32s    map[string]uint32
	F32s    map[string]float32
	Strings map[string]string
}

func newFakeVFXLib(calls *fakeEffectCalls) *Lib {
	calls.Images = map[string]*cv.Header{}
	calls.U32s = map[string]uint32{}
	calls.F32s = map[string]float32{}
	calls.Strings = map[string]string{}
	return &Lib{Procs: Procs{
		GetVersion: func(version *uint32) cv.Status {
			*version = 0x00070200
			return cv.StatusSuccess
		},
		CreateEffect: func(code EffectSelector, effect *Handle) cv.Status {
			calls.Creates++
			*effect = Handle(calls.Creates)
			return cv.StatusSuccess
		},
		DestroyEffect: func(effect Handle) cv.Status {
			calls.Destroys++
			return cv.StatusSuccess
		},
		SetU32: func(effect Handle, name string, value uint32) cv.Status {
			calls.U32s[name] = value
			return cv.StatusSuccess
		},
		SetF32: func(effect Handle, name string, value float32) cv.Status {
			calls.F32s[name] = value
			return cv.StatusSuccess
		},
		SetImage: func(effect Handle, name string, im *cv.Header) cv.Status {
			calls.Images[name] = im
			return cv.StatusSuccess
		},
		SetString: func(effect Handle, name string, value string) cv.Status {
			calls.Strings[name] = value
			return cv.StatusSuccess
		},
		SetCudaStream: func(effect Handle, name string, stream cuda.StreamHandle) cv.Status {
			return cv.StatusSuccess
		},
		Run: func(effect Handle, async int32) cv.Status {
			calls.Runs++
			return cv.StatusSuccess
		},
		Load: func(effect Handle) cv.Status {
			calls.Loads++
			return cv.StatusSuccess
		},
	}}
}

type headerProvider cv.Header

func (h *headerProvider) Header() *cv.Header {
	return (*cv.Header)(h)
}

func TestEffectRunRequiresLoad(t *testing.T) {
	ctx := context.Background()
	var calls fakeEffectCalls
	lib := newFakeVFXLib(&calls)

	e, err := lib.NewEffect(ctx, &cv.Lib{}, EffectGreenScreen)
	require.NoError(t, err)

	err = e.Run(ctx)
	var errState ErrState
	require.ErrorAs(t, err, &errState)
	require.Equal(t, "unloaded", errState.State)
	require.Equal(t, 0, calls.Runs)

	require.NoError(t, e.Load(ctx))
	require.NoError(t, e.Run(ctx))
	require.Equal(t, 1, calls.Runs)
}

func TestEffectSetImageDropsLoadedState(t *testing.T) {
	ctx := context.Background()
	var calls fakeEffectCalls
	lib := newFakeVFXLib(&calls)

	e, err := lib.NewEffect(ctx, &cv.Lib{}, EffectGreenScreen)
	require.NoError(t, err)
	require.NoError(t, e.Load(ctx))
	require.True(t, e.IsLoaded(ctx))

	var im headerProvider
	require.NoError(t, e.SetImage(ctx, ParamInputImage, &im))
	require.False(t, e.IsLoaded(ctx))
	require.ErrorAs(t, e.Run(ctx), &ErrState{})

	require.NoError(t, e.Load(ctx))
	require.NoError(t, e.Run(ctx))
}

func TestEffectModeChangeDropsLoadedState(t *testing.T) {
	ctx := context.Background()
	var calls fakeEffectCalls
	lib := newFakeVFXLib(&calls)

	e, err := lib.NewEffect(ctx, &cv.Lib{}, EffectGreenScreen)
	require.NoError(t, err)
	require.NoError(t, e.Load(ctx))

	require.NoError(t, e.SetU32(ctx, ParamMode, 1))
	require.False(t, e.IsLoaded(ctx))
	require.Equal(t, uint32(1), calls.U32s[ParamMode])

	// a non-structural setting does not invalidate the loaded model
	require.NoError(t, e.Load(ctx))
	require.NoError(t, e.SetF32(ctx, ParamStrength, 0.5))
	require.True(t, e.IsLoaded(ctx))
}

func TestEffectDestroy(t *testing.T) {
	ctx := context.Background()
	var calls fakeEffectCalls
	lib := newFakeVFXLib(&calls)

	e, err := lib.NewEffect(ctx, &cv.Lib{}, EffectDenoising)
	require.NoError(t, err)
	require.NoError(t, e.Load(ctx))

	require.NoError(t, e.Destroy(ctx))
	require.Equal(t, 1, calls.Destroys)

	// destroying twice must not release the handle twice
	require.NoError(t, e.Destroy(ctx))
	require.Equal(t, 1, calls.Destroys)

	// nothing else is valid anymore
	var errState ErrState
	require.ErrorAs(t, e.Run(ctx), &errState)
	require.Equal(t, "destroyed", errState.State)
	require.ErrorAs(t, e.Load(ctx), &errState)
	require.ErrorAs(t, e.SetU32(ctx, ParamMode, 0), &errState)
}

func TestVersionUnpacking(t *testing.T) {
	var calls fakeEffectCalls
	lib := newFakeVFXLib(&calls)

	version, err := lib.Version()
	require.NoError(t, err)
	require.Equal(t, uint32(0), version.Major())
	require.Equal(t, uint32(7), version.Minor())
	require.Equal(t, uint32(2), version.Patch())
	require.Equal(t, "0.7.2", version.String())
}
