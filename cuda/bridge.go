package cuda

import (
	"context"

	"github.com/xaionaro-go/nvvfx/internal/singleton"
	"github.com/xaionaro-go/nvvfx/logger"
)

// Bridge ties a CUDA context and a stream to the graphics device the host
// renders on. It is the rendezvous point between graphics-API work and
// vendor SDK work: everything touching a GPU image buffer runs inside
// Bridge.Context().Enter(...).
//
// One Bridge is shared per process (reference-counted); filter instances do
// not get contexts of their own.
type Bridge struct {
	libRef  *singleton.Ref[Lib]
	context *Context
	stream  *Stream
}

var sharedBridge = singleton.New[Bridge](newSharedBridge, destroyBridge)

// GetBridge acquires a reference to the process-wide bridge, constructing it
// (driver load, context and stream creation) on the first call.
func GetBridge(ctx context.Context) (*singleton.Ref[Bridge], error) {
	return sharedBridge.Acquire(ctx)
}

func newSharedBridge(ctx context.Context) (_ret *Bridge, _err error) {
	logger.Debugf(ctx, "newSharedBridge")
	defer func() { logger.Debugf(ctx, "/newSharedBridge: %v", _err) }()

	libRef, err := Get(ctx)
	if err != nil {
		return nil, err
	}
	bridge, err := NewBridgeWithLib(ctx, libRef.Value())
	if err != nil {
		libRef.Release(ctx)
		return nil, err
	}
	bridge.libRef = libRef
	return bridge, nil
}

// NewBridgeWithLib builds a bridge on an already-bound driver. The device
// ordinal is 0: the host renders on the primary adapter, and the CUDA
// context must live on the same physical device as the graphics context.
func NewBridgeWithLib(ctx context.Context, lib *Lib) (_ret *Bridge, _err error) {
	cudaCtx, err := NewContext(ctx, lib, 0)
	if err != nil {
		return nil, err
	}

	guard, err := cudaCtx.Enter(ctx)
	if err != nil {
		if destroyErr := cudaCtx.Destroy(ctx); destroyErr != nil {
			logger.Errorf(ctx, "unable to destroy the context: %v", destroyErr)
		}
		return nil, err
	}
	stream, err := NewStream(ctx, lib)
	if leaveErr := guard.Leave(ctx); leaveErr != nil {
		logger.Errorf(ctx, "unable to leave the context: %v", leaveErr)
	}
	if err != nil {
		if destroyErr := cudaCtx.Destroy(ctx); destroyErr != nil {
			logger.Errorf(ctx, "unable to destroy the context: %v", destroyErr)
		}
		return nil, err
	}

	return &Bridge{
		context: cudaCtx,
		stream:  stream,
	}, nil
}

// Context returns the shared CUDA context.
func (b *Bridge) Context() *Context {
	return b.context
}

// Stream returns the shared CUDA stream.
func (b *Bridge) Stream() *Stream {
	return b.stream
}

// teardown never aborts midway: a failing release call is logged and the
// remaining resources are still freed, otherwise we would leak the context.
func destroyBridge(ctx context.Context, b *Bridge) {
	logger.Debugf(ctx, "destroyBridge")
	defer logger.Debugf(ctx, "/destroyBridge")

	if b.stream != nil {
		guard, err := b.context.Enter(ctx)
		if err != nil {
			logger.Errorf(ctx, "unable to enter the context: %v", err)
		}
		if err := b.stream.Destroy(ctx); err != nil {
			logger.Errorf(ctx, "unable to destroy the stream: %v", err)
		}
		if guard != nil {
			if err := guard.Leave(ctx); err != nil {
				logger.Errorf(ctx, "unable to leave the context: %v", err)
			}
		}
	}
	if b.context != nil {
		if err := b.context.Destroy(ctx); err != nil {
			logger.Errorf(ctx, "unable to destroy the context: %v", err)
		}
	}
	if b.libRef != nil {
		b.libRef.Release(ctx)
	}
}
