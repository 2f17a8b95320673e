package cuda

import (
	"context"

	"github.com/xaionaro-go/nvvfx/logger"
)

// Stream owns a CUDA stream. All image transfers and effect runs in this
// module are enqueued on a stream and complete asynchronously; completion is
// only guaranteed after Synchronize.
type Stream struct {
	lib    *Lib
	handle StreamHandle
}

// NewStream creates a stream. The owning context must be current.
func NewStream(ctx context.Context, lib *Lib) (_ret *Stream, _err error) {
	logger.Debugf(ctx, "NewStream")
	defer func() { logger.Debugf(ctx, "/NewStream: %v", _err) }()

	var handle StreamHandle
	if res := lib.StreamCreate(&handle, 0); res != ResultSuccess {
		return nil, ErrContext{Op: "cuStreamCreate", Result: res, Detail: lib.ErrorString(res)}
	}
	return &Stream{
		lib:    lib,
		handle: handle,
	}, nil
}

// Handle returns the raw CUstream.
func (s *Stream) Handle() StreamHandle {
	return s.handle
}

// Synchronize blocks until all work queued on the stream completed.
func (s *Stream) Synchronize(ctx context.Context) error {
	if res := s.lib.StreamSynchronize(s.handle); res != ResultSuccess {
		return ErrContext{Op: "cuStreamSynchronize", Result: res, Detail: s.lib.ErrorString(res)}
	}
	return nil
}

// Destroy releases the stream. The Stream must not be used afterwards.
func (s *Stream) Destroy(ctx context.Context) error {
	if s.handle == 0 {
		return nil
	}
	res := s.lib.StreamDestroy(s.handle)
	s.handle = 0
	if res != ResultSuccess {
		return ErrContext{Op: "cuStreamDestroy", Result: res, Detail: s.lib.ErrorString(res)}
	}
	return nil
}
