// Package cuda binds the CUDA driver API at runtime and bridges a CUDA
// execution context (plus one stream) to the host's graphics device.
//
// The driver library is loaded once per process, reference-counted: the
// first acquirer binds the whole function table atomically (a missing
// symbol fails the entire load), the last release unloads it.
package cuda

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/nvvfx/internal/dl"
	"github.com/xaionaro-go/nvvfx/internal/singleton"
	"github.com/xaionaro-go/nvvfx/logger"
)

// DeviceHandle is a CUdevice.
type DeviceHandle int32

// ContextHandle is a CUcontext.
type ContextHandle uintptr

// StreamHandle is a CUstream.
type StreamHandle uintptr

// Procs is the bound CUDA driver function table. All fields are populated
// during load; a Lib with a partially populated table is never observable.
type Procs struct {
	Init              func(flags uint32) Result
	DeviceGet         func(device *DeviceHandle, ordinal int32) Result
	CtxCreate         func(pctx *ContextHandle, flags uint32, device DeviceHandle) Result
	CtxDestroy        func(cctx ContextHandle) Result
	CtxPushCurrent    func(cctx ContextHandle) Result
	CtxPopCurrent     func(pctx *ContextHandle) Result
	CtxGetCurrent     func(pctx *ContextHandle) Result
	CtxSynchronize    func() Result
	StreamCreate      func(pstream *StreamHandle, flags uint32) Result
	StreamDestroy     func(stream StreamHandle) Result
	StreamSynchronize func(stream StreamHandle) Result
	GetErrorString    func(result Result, pstr **byte) Result
}

// Lib is the loaded CUDA driver.
type Lib struct {
	Procs
	library *dl.Library
}

var shared = singleton.New[Lib](load, unload)

// Get acquires a reference to the process-wide driver binding, loading it on
// the first call.
func Get(ctx context.Context) (*singleton.Ref[Lib], error) {
	ref, err := shared.Acquire(ctx)
	if err != nil {
		return nil, ErrLoad{Err: err}
	}
	return ref, nil
}

func load(ctx context.Context) (_ret *Lib, _err error) {
	logger.Debugf(ctx, "load")
	defer func() { logger.Debugf(ctx, "/load: %v", _err) }()

	var library *dl.Library
	var err error
	for _, name := range libraryNames {
		library, err = dl.Open(ctx, name)
		if err == nil {
			break
		}
		logger.Debugf(ctx, "unable to load '%s': %v", name, err)
	}
	if library == nil {
		return nil, fmt.Errorf("no loadable CUDA driver library among %v: %w", libraryNames, err)
	}

	lib := &Lib{library: library}
	for _, sym := range []struct {
		name string
		ptr  any
	}{
		{"cuInit", &lib.Init},
		{"cuDeviceGet", &lib.DeviceGet},
		{"cuCtxCreate_v2", &lib.CtxCreate},
		{"cuCtxDestroy_v2", &lib.CtxDestroy},
		{"cuCtxPushCurrent_v2", &lib.CtxPushCurrent},
		{"cuCtxPopCurrent_v2", &lib.CtxPopCurrent},
		{"cuCtxGetCurrent", &lib.CtxGetCurrent},
		{"cuCtxSynchronize", &lib.CtxSynchronize},
		{"cuStreamCreate", &lib.StreamCreate},
		{"cuStreamDestroy_v2", &lib.StreamDestroy},
		{"cuStreamSynchronize", &lib.StreamSynchronize},
		{"cuGetErrorString", &lib.GetErrorString},
	} {
		if err := library.Register(ctx, sym.name, sym.ptr); err != nil {
			closeErr := library.Close(ctx)
			if closeErr != nil {
				logger.Errorf(ctx, "unable to unload '%s': %v", library.Path(), closeErr)
			}
			return nil, err
		}
	}

	if res := lib.Init(0); res != ResultSuccess {
		closeErr := library.Close(ctx)
		if closeErr != nil {
			logger.Errorf(ctx, "unable to unload '%s': %v", library.Path(), closeErr)
		}
		return nil, fmt.Errorf("cuInit failed: %s", res)
	}
	return lib, nil
}

func unload(ctx context.Context, lib *Lib) {
	if lib.library == nil {
		return
	}
	if err := lib.library.Close(ctx); err != nil {
		logger.Errorf(ctx, "unable to unload the CUDA driver: %v", err)
	}
}
