package vfx

import (
	"context"

	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/cv"
	"github.com/xaionaro-go/nvvfx/logger"
	"github.com/xaionaro-go/xsync"
)

// ImageProvider is anything holding a CVImage descriptor that can be bound
// to an effect slot (cv.Image, cv.TextureImage).
type ImageProvider interface {
	Header() *cv.Header
}

// Effect is one instantiated vendor effect.
//
// Lifecycle: CreateEffect yields an unloaded effect; bind images and set
// parameters in any order, then Load; Run is only valid while loaded.
// Binding a different image or changing the mode drops the effect back to
// unloaded and requires a fresh Load. Destroy is legal in any state and
// releases the vendor handle exactly once.
type Effect struct {
	lib      *Lib
	cvl      *cv.Lib
	selector EffectSelector

	locker    xsync.Mutex
	handle    Handle
	loaded    bool
	destroyed bool
}

// NewEffect instantiates the effect named by selector. cvl is only used for
// diagnostic strings.
func (l *Lib) NewEffect(
	ctx context.Context,
	cvl *cv.Lib,
	selector EffectSelector,
) (_ret *Effect, _err error) {
	logger.Debugf(ctx, "NewEffect(ctx, '%s')", selector)
	defer func() { logger.Debugf(ctx, "/NewEffect(ctx, '%s'): %v", selector, _err) }()

	var handle Handle
	if status := l.CreateEffect(selector, &handle); status != cv.StatusSuccess {
		return nil, ErrParameter{
			Key:    string(selector),
			Status: status,
			Detail: cvl.ErrorString(status),
		}
	}
	return &Effect{
		lib:      l,
		cvl:      cvl,
		selector: selector,
		handle:   handle,
	}, nil
}

func (e *Effect) String() string {
	return "Effect(" + string(e.selector) + ")"
}

func (e *Effect) state() string {
	switch {
	case e.destroyed:
		return "destroyed"
	case e.loaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// IsLoaded reports whether Run is currently valid.
func (e *Effect) IsLoaded(ctx context.Context) bool {
	return xsync.DoR1(ctx, &e.locker, func() bool {
		return e.loaded
	})
}

func (e *Effect) setterErr(key string, status cv.Status) error {
	if status == cv.StatusSuccess {
		return nil
	}
	return ErrParameter{
		Key:    key,
		Status: status,
		Detail: e.cvl.ErrorString(status),
	}
}

// SetImage binds an image buffer to the given slot. The effect drops back
// to unloaded: the geometry it was loaded for is no longer trustworthy.
func (e *Effect) SetImage(ctx context.Context, key string, im ImageProvider) error {
	return xsync.DoR1(ctx, &e.locker, func() error {
		if e.destroyed {
			return ErrState{Op: "SetImage", State: e.state()}
		}
		var header *cv.Header
		if im != nil {
			header = im.Header()
		}
		if err := e.setterErr(key, e.lib.SetImage(e.handle, key, header)); err != nil {
			return err
		}
		e.loaded = false
		return nil
	})
}

// SetU32 sets an integer parameter. Changing the mode invalidates the
// loaded model, so the effect drops back to unloaded for that key.
func (e *Effect) SetU32(ctx context.Context, key string, value uint32) error {
	return xsync.DoR1(ctx, &e.locker, func() error {
		if e.destroyed {
			return ErrState{Op: "SetU32", State: e.state()}
		}
		if err := e.setterErr(key, e.lib.SetU32(e.handle, key, value)); err != nil {
			return err
		}
		if key == ParamMode {
			e.loaded = false
		}
		return nil
	})
}

func (e *Effect) SetS32(ctx context.Context, key string, value int32) error {
	return xsync.DoR1(ctx, &e.locker, func() error {
		if e.destroyed {
			return ErrState{Op: "SetS32", State: e.state()}
		}
		return e.setterErr(key, e.lib.SetS32(e.handle, key, value))
	})
}

func (e *Effect) SetF32(ctx context.Context, key string, value float32) error {
	return xsync.DoR1(ctx, &e.locker, func() error {
		if e.destroyed {
			return ErrState{Op: "SetF32", State: e.state()}
		}
		return e.setterErr(key, e.lib.SetF32(e.handle, key, value))
	})
}

func (e *Effect) SetF64(ctx context.Context, key string, value float64) error {
	return xsync.DoR1(ctx, &e.locker, func() error {
		if e.destroyed {
			return ErrState{Op: "SetF64", State: e.state()}
		}
		return e.setterErr(key, e.lib.SetF64(e.handle, key, value))
	})
}

func (e *Effect) SetString(ctx context.Context, key string, value string) error {
	return xsync.DoR1(ctx, &e.locker, func() error {
		if e.destroyed {
			return ErrState{Op: "SetString", State: e.state()}
		}
		return e.setterErr(key, e.lib.SetString(e.handle, key, value))
	})
}

// SetCudaStream binds the stream the effect enqueues its work on.
func (e *Effect) SetCudaStream(ctx context.Context, stream *cuda.Stream) error {
	return xsync.DoR1(ctx, &e.locker, func() error {
		if e.destroyed {
			return ErrState{Op: "SetCudaStream", State: e.state()}
		}
		return e.setterErr(ParamCudaStream, e.lib.SetCudaStream(e.handle, ParamCudaStream, stream.Handle()))
	})
}

// Load validates the current configuration and loads the model. Loading an
// already loaded effect is a valid no-op reload.
func (e *Effect) Load(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Load: %s", e)
	defer func() { logger.Debugf(ctx, "/Load: %s: %v", e, _err) }()

	return xsync.DoR1(ctx, &e.locker, func() error {
		if e.destroyed {
			return ErrState{Op: "Load", State: e.state()}
		}
		if status := e.lib.Load(e.handle); status != cv.StatusSuccess {
			return ErrRun{
				Status: status,
				Detail: e.cvl.ErrorString(status),
			}
		}
		e.loaded = true
		return nil
	})
}

// Run enqueues one inference pass on the bound stream. The pass completes
// asynchronously; synchronize the stream before reading the output buffer.
func (e *Effect) Run(ctx context.Context) error {
	return xsync.DoR1(ctx, &e.locker, func() error {
		if e.destroyed || !e.loaded {
			return ErrState{Op: "Run", State: e.state()}
		}
		if status := e.lib.Run(e.handle, 0); status != cv.StatusSuccess {
			return ErrRun{
				Status: status,
				Detail: e.cvl.ErrorString(status),
			}
		}
		return nil
	})
}

// Destroy releases the vendor handle. Legal in any state; the handle is
// released exactly once no matter how often Destroy is called.
func (e *Effect) Destroy(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Destroy: %s", e)
	defer func() { logger.Debugf(ctx, "/Destroy: %s: %v", e, _err) }()

	return xsync.DoR1(ctx, &e.locker, func() error {
		if e.destroyed {
			return nil
		}
		e.destroyed = true
		e.loaded = false
		if status := e.lib.DestroyEffect(e.handle); status != cv.StatusSuccess {
			return ErrRun{
				Status: status,
				Detail: e.cvl.ErrorString(status),
			}
		}
		return nil
	})
}
