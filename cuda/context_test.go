package cuda

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeDriverCalls struct {
	Pushes         int
	Pops           int
	CtxCreates     int
	CtxDestroys    int
	StreamCreates  int
	StreamDestroys int
	Syncs          int
}

func newFakeDriver(calls *fakeDriverCalls) *Lib {
	return &Lib{Procs: Procs{
		Init: func(flags uint32) Result { return ResultSuccess },
		DeviceGet: func(device *DeviceHandle, ordinal int32) Result {
			*device = DeviceHandle(ordinal)
			return ResultSuccess
		},
		CtxCreate: func(pctx *ContextHandle, flags uint32, device DeviceHandle) Result {
			calls.CtxCreates++
			*pctx = ContextHandle(calls.CtxCreates)
			return ResultSuccess
		},
		CtxDestroy: func(cctx ContextHandle) Result {
			calls.CtxDestroys++
			return ResultSuccess
		},
		CtxPushCurrent: func(cctx ContextHandle) Result {
			calls.Pushes++
			return ResultSuccess
		},
		CtxPopCurrent: func(pctx *ContextHandle) Result {
			calls.Pops++
			return ResultSuccess
		},
		CtxGetCurrent: func(pctx *ContextHandle) Result {
			*pctx = 0
			return ResultSuccess
		},
		CtxSynchronize: func() Result {
			calls.Syncs++
			return ResultSuccess
		},
		StreamCreate: func(pstream *StreamHandle, flags uint32) Result {
			calls.StreamCreates++
			*pstream = StreamHandle(calls.StreamCreates)
			return ResultSuccess
		},
		StreamDestroy: func(stream StreamHandle) Result {
			calls.StreamDestroys++
			return ResultSuccess
		},
		StreamSynchronize: func(stream StreamHandle) Result { return ResultSuccess },
	}}
}

func TestContextGuardNesting(t *testing.T) {
	ctx := context.Background()
	var calls fakeDriverCalls
	lib := newFakeDriver(&calls)

	cudaCtx, err := NewContext(ctx, lib, 0)
	require.NoError(t, err)

	outer, err := cudaCtx.Enter(ctx)
	require.NoError(t, err)
	inner, err := cudaCtx.Enter(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, calls.Pushes)

	require.NoError(t, inner.Leave(ctx))
	require.NoError(t, outer.Leave(ctx))
	require.Equal(t, calls.Pushes, calls.Pops)

	require.NoError(t, cudaCtx.Destroy(ctx))
	require.Equal(t, 1, calls.CtxDestroys)
}

func TestBridgeLifecycle(t *testing.T) {
	ctx := context.Background()
	var calls fakeDriverCalls
	lib := newFakeDriver(&calls)

	bridge, err := NewBridgeWithLib(ctx, lib)
	require.NoError(t, err)
	require.NotNil(t, bridge.Context())
	require.NotNil(t, bridge.Stream())
	require.Equal(t, 1, calls.CtxCreates)
	require.Equal(t, 1, calls.StreamCreates)

	// a guard taken through the bridge balances its push with its pop
	guard, err := bridge.Context().Enter(ctx)
	require.NoError(t, err)
	require.NoError(t, bridge.Stream().Synchronize(ctx))
	require.NoError(t, guard.Leave(ctx))
	require.Equal(t, calls.Pushes, calls.Pops)
}

func TestErrorStringPrefersTheDriver(t *testing.T) {
	var calls fakeDriverCalls
	lib := newFakeDriver(&calls)

	// without the lookup entry point bound, the static table serves
	require.Equal(t, "CUDA_ERROR_NOT_SUPPORTED", lib.ErrorString(ResultErrorNotSupported))
	require.Equal(t, "CUDA_ERROR(717)", lib.ErrorString(Result(717)))

	msg := []byte("operation not permitted on an event last recorded in a capturing stream\x00")
	lib.GetErrorString = func(result Result, pstr **byte) Result {
		*pstr = &msg[0]
		return ResultSuccess
	}
	require.Equal(t,
		"operation not permitted on an event last recorded in a capturing stream",
		lib.ErrorString(Result(717)))

	// a driver that cannot name the code falls back to the static table
	lib.GetErrorString = func(result Result, pstr **byte) Result { return ResultErrorInvalidValue }
	require.Equal(t, "CUDA_ERROR(717)", lib.ErrorString(Result(717)))
}
