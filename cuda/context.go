package cuda

import (
	"context"
	"runtime"

	"github.com/xaionaro-go/nvvfx/logger"
)

// Context owns a CUDA execution context.
type Context struct {
	lib    *Lib
	handle ContextHandle
}

// NewContext creates a context on the given device ordinal.
func NewContext(ctx context.Context, lib *Lib, ordinal int32) (_ret *Context, _err error) {
	logger.Debugf(ctx, "NewContext(ctx, lib, %d)", ordinal)
	defer func() { logger.Debugf(ctx, "/NewContext(ctx, lib, %d): %v", ordinal, _err) }()

	var device DeviceHandle
	if res := lib.DeviceGet(&device, ordinal); res != ResultSuccess {
		return nil, ErrContext{Op: "cuDeviceGet", Result: res, Detail: lib.ErrorString(res)}
	}
	var handle ContextHandle
	if res := lib.CtxCreate(&handle, 0, device); res != ResultSuccess {
		return nil, ErrContext{Op: "cuCtxCreate", Result: res, Detail: lib.ErrorString(res)}
	}
	return &Context{
		lib:    lib,
		handle: handle,
	}, nil
}

// Handle returns the raw CUcontext.
func (c *Context) Handle() ContextHandle {
	return c.handle
}

// Guard keeps the context current for the calling goroutine until Leave.
type Guard struct {
	context *Context
}

// Enter pushes the context onto the calling thread's context stack and pins
// the goroutine to that thread until the matching Leave. Guards nest: every
// Enter must be paired with exactly one Leave, and the previous context is
// restored on Leave.
func (c *Context) Enter(ctx context.Context) (*Guard, error) {
	runtime.LockOSThread()
	if res := c.lib.CtxPushCurrent(c.handle); res != ResultSuccess {
		runtime.UnlockOSThread()
		return nil, ErrContext{Op: "cuCtxPushCurrent", Result: res, Detail: c.lib.ErrorString(res)}
	}
	return &Guard{context: c}, nil
}

// Leave pops the context and restores whatever was current before Enter.
func (g *Guard) Leave(ctx context.Context) error {
	defer runtime.UnlockOSThread()
	var popped ContextHandle
	if res := g.context.lib.CtxPopCurrent(&popped); res != ResultSuccess {
		return ErrContext{Op: "cuCtxPopCurrent", Result: res, Detail: g.context.lib.ErrorString(res)}
	}
	return nil
}

// Synchronize blocks until all work queued on the context completed.
func (c *Context) Synchronize(ctx context.Context) error {
	if res := c.lib.CtxSynchronize(); res != ResultSuccess {
		return ErrContext{Op: "cuCtxSynchronize", Result: res, Detail: c.lib.ErrorString(res)}
	}
	return nil
}

// Destroy releases the context. The Context must not be used afterwards.
func (c *Context) Destroy(ctx context.Context) error {
	if c.handle == 0 {
		return nil
	}
	res := c.lib.CtxDestroy(c.handle)
	c.handle = 0
	if res != ResultSuccess {
		return ErrContext{Op: "cuCtxDestroy", Result: res, Detail: c.lib.ErrorString(res)}
	}
	return nil
}
