package filter

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/typing"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"

	"github.com/xaionaro-go/nvvfx/gs"
	"github.com/xaionaro-go/nvvfx/helpers/closuresignaler"
	"github.com/xaionaro-go/nvvfx/logger"
)

// CaptureFunc renders the filter's upstream source into the given render
// target. The Instance has already called Begin with the right size; the
// callback only draws.
type CaptureFunc func(ctx context.Context) error

// ComposeFunc combines the captured frame with the provider's result into
// dst. Filter kinds whose provider output is the final frame leave it nil.
type ComposeFunc func(
	ctx context.Context,
	device gs.Device,
	dst gs.RenderTarget,
	captured gs.Texture,
	processed gs.Texture,
) error

type switchTask struct {
	To ProviderID
}

// Instance is one live filter attached to a source. The render thread owns
// VideoTick/VideoRender/Update; one worker goroutine owns provider
// construction and teardown, so the render thread never blocks on SDK
// calls: while a switch is in flight it just sees providerReady == false
// and skips the filter.
type Instance struct {
	factory *Factory
	device  gs.Device
	compose ComposeFunc

	// render-thread-only state:
	inSize  gs.Size
	outSize gs.Size
	dirty   bool
	input   gs.RenderTarget
	blend   gs.RenderTarget
	output  gs.Texture

	// providerReady is the only provider state the render path reads
	// without taking locker.
	providerReady atomic.Bool

	locker     xsync.Mutex
	provider   Provider   // access only when locker is held
	providerID ProviderID // access only when locker is held
	lastErr    *error     // atomic via xatomic

	pendingLocker xsync.Mutex
	pendingTask   typing.Optional[switchTask] // access only when pendingLocker is held
	taskSignal    chan struct{}

	closureSignaler *closuresignaler.ClosureSignaler
	workerDone      chan struct{}
}

// NewInstance creates a filter instance with no provider selected. Call
// Update (or RequestSwitch) to bring one up.
func NewInstance(
	ctx context.Context,
	factory *Factory,
	device gs.Device,
	compose ComposeFunc,
) (_ret *Instance, _err error) {
	logger.Debugf(ctx, "NewInstance")
	defer func() { logger.Debugf(ctx, "/NewInstance: %v", _err) }()
	if factory == nil || !factory.IsAvailable() {
		return nil, fmt.Errorf("no provider is available on this machine")
	}

	input, err := device.CreateRenderTarget(ctx, gs.ColorFormatRGBAUnorm)
	if err != nil {
		return nil, fmt.Errorf("unable to create the capture render target: %w", err)
	}
	blend, err := device.CreateRenderTarget(ctx, gs.ColorFormatRGBAUnorm)
	if err != nil {
		return nil, fmt.Errorf("unable to create the composition render target: %w", err)
	}

	i := &Instance{
		factory:         factory,
		device:          device,
		compose:         compose,
		input:           input,
		blend:           blend,
		providerID:      ProviderInvalid,
		taskSignal:      make(chan struct{}, 1),
		closureSignaler: closuresignaler.New(),
		workerDone:      make(chan struct{}),
	}
	observability.Go(xcontext.DetachDone(ctx), func(ctx context.Context) {
		defer close(i.workerDone)
		i.workerLoop(ctx)
	})
	return i, nil
}

// Update applies the user's provider selection. Safe to call every time
// the host pushes settings; a no-op unless the resolved provider differs
// from the current target.
func (i *Instance) Update(ctx context.Context, selected ProviderID) {
	i.RequestSwitch(ctx, i.factory.Resolve(ctx, selected))
}

// RequestSwitch retargets the instance to the given provider. It returns
// immediately: readiness drops at once, and the worker performs teardown
// and bring-up in the background. A newer request supersedes an older one
// that has not started yet.
func (i *Instance) RequestSwitch(ctx context.Context, to ProviderID) {
	i.locker.Do(ctx, func() {
		if to == i.providerID {
			return
		}
		logger.Infof(ctx, "switching the provider from '%s' to '%s'",
			i.factory.ProviderName(i.providerID), i.factory.ProviderName(to))
		i.providerID = to
		i.providerReady.Store(false)
		i.enqueueTask(ctx, switchTask{To: to})
	})
}

func (i *Instance) enqueueTask(ctx context.Context, task switchTask) {
	i.pendingLocker.Do(ctx, func() {
		if i.pendingTask.IsSet() {
			logger.Debugf(ctx, "superseding the pending switch to '%s'",
				i.factory.ProviderName(i.pendingTask.Get().To))
		}
		i.pendingTask = typing.Opt(task)
	})
	select {
	case i.taskSignal <- struct{}{}:
	default:
	}
}

func (i *Instance) takePendingTask(ctx context.Context) typing.Optional[switchTask] {
	return xsync.DoR1(ctx, &i.pendingLocker, func() typing.Optional[switchTask] {
		task := i.pendingTask
		i.pendingTask.Unset()
		return task
	})
}

func (i *Instance) workerLoop(ctx context.Context) {
	logger.Debugf(ctx, "workerLoop")
	defer func() { logger.Debugf(ctx, "/workerLoop") }()
	for {
		select {
		case <-i.closureSignaler.CloseChan():
			return
		case <-i.taskSignal:
		}
		taskOpt := i.takePendingTask(ctx)
		if !taskOpt.IsSet() {
			continue
		}
		i.performSwitch(ctx, taskOpt.Get())
	}
}

// performSwitch runs on the worker goroutine only.
func (i *Instance) performSwitch(ctx context.Context, task switchTask) {
	logger.Debugf(ctx, "performSwitch(%s)", i.factory.ProviderName(task.To))
	defer func() { logger.Debugf(ctx, "/performSwitch(%s)", i.factory.ProviderName(task.To)) }()
	i.providerReady.Store(false)
	old := xsync.DoR1(ctx, &i.locker, func() Provider {
		old := i.provider
		i.provider = nil
		return old
	})
	if old != nil {
		if err := old.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to close the old provider: %v", err)
		}
	}

	if task.To == ProviderInvalid {
		xatomic.StorePointer(&i.lastErr, nil)
		return
	}

	// construction may take a long time (model loading), so it happens
	// outside locker: a newer RequestSwitch must not block behind it
	provider, err := i.factory.NewProvider(ctx, task.To)
	if err != nil {
		logger.Errorf(ctx, "unable to bring up provider '%s': %v",
			i.factory.ProviderName(task.To), err)
		xatomic.StorePointer(&i.lastErr, ptr(fmt.Errorf("unable to bring up provider '%s': %w",
			i.factory.ProviderName(task.To), err)))
		return
	}

	stale := xsync.DoR1(ctx, &i.locker, func() bool {
		if task.To != i.providerID {
			return true
		}
		i.provider = provider
		xatomic.StorePointer(&i.lastErr, nil)
		i.providerReady.Store(true)
		return false
	})
	if stale {
		// a newer request retargeted us while we were constructing
		logger.Debugf(ctx, "the switch to '%s' became stale, discarding the provider",
			i.factory.ProviderName(task.To))
		if err := provider.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to close the stale provider: %v", err)
		}
	}
}

// Ready reports whether a provider is active. Lock-free; safe on the
// render thread.
func (i *Instance) Ready() bool {
	return i.providerReady.Load()
}

// LastError returns the most recent provider bring-up failure, if any.
func (i *Instance) LastError() error {
	if errPtr := xatomic.LoadPointer(&i.lastErr); errPtr != nil {
		return *errPtr
	}
	return nil
}

// CurrentProvider returns the current target provider.
func (i *Instance) CurrentProvider(ctx context.Context) ProviderID {
	return xsync.DoR1(ctx, &i.locker, func() ProviderID {
		return i.providerID
	})
}

// VideoTick runs once per frame before rendering. It records the source
// size and asks the active provider for the matching output size, so the
// host sees correct dimensions before the next capture.
func (i *Instance) VideoTick(ctx context.Context, inSize gs.Size) {
	i.inSize = inSize
	outSize := inSize
	if i.providerReady.Load() {
		i.locker.Do(ctx, func() {
			if i.provider != nil {
				outSize = i.provider.AdjustSize(ctx, inSize)
			}
		})
	}
	i.outSize = outSize

	// the source content changes every frame; the cached output is only
	// valid for repeated renders within the same tick
	i.dirty = true
}

// OutputSize reports the size of the texture VideoRender will return.
// Never zero, so the host's layout math stays sane even before the first
// frame.
func (i *Instance) OutputSize() gs.Size {
	out := i.outSize
	if out.Width == 0 {
		out.Width = 1
	}
	if out.Height == 0 {
		out.Height = 1
	}
	return out
}

// VideoRender captures the upstream frame at the provider's output size,
// runs the provider on it and returns the resulting texture. While no
// provider is ready it returns ErrNotReady; when the provider fails on
// this frame it returns ErrFrameSkipped. In both cases the host should
// render the source unfiltered instead of presenting stale output.
func (i *Instance) VideoRender(ctx context.Context, capture CaptureFunc) (gs.Texture, error) {
	if !i.providerReady.Load() {
		return nil, ErrNotReady{}
	}
	if i.inSize.IsZero() {
		return nil, ErrNotReady{}
	}
	if !i.dirty && i.output != nil {
		return i.output, nil
	}

	size := i.OutputSize()
	if err := i.input.Begin(ctx, size.Width, size.Height); err != nil {
		return nil, ErrFrameSkipped{Err: fmt.Errorf("unable to begin the capture render target: %w", err)}
	}
	captureErr := capture(ctx)
	if err := i.input.End(ctx); err != nil {
		return nil, ErrFrameSkipped{Err: fmt.Errorf("unable to end the capture render target: %w", err)}
	}
	if captureErr != nil {
		return nil, ErrFrameSkipped{Err: fmt.Errorf("unable to capture the source: %w", captureErr)}
	}

	var processed gs.Texture
	var processErr error
	i.locker.Do(ctx, func() {
		if i.provider == nil {
			processErr = ErrNotReady{}
			return
		}
		processed, processErr = i.provider.Process(ctx, i.input.Texture())
	})
	switch {
	case processErr != nil:
		return nil, ErrFrameSkipped{Err: processErr}
	case processed == nil:
		return nil, ErrFrameSkipped{Err: fmt.Errorf("the provider returned no texture")}
	}

	result := processed
	if i.compose != nil {
		if err := i.compose(ctx, i.device, i.blend, i.input.Texture(), processed); err != nil {
			return nil, ErrFrameSkipped{Err: fmt.Errorf("unable to compose the output: %w", err)}
		}
		result = i.blend.Texture()
	}

	i.output = result
	i.dirty = false
	return result, nil
}

// Close tears the instance down: stops the worker, then closes the active
// provider. Errors during teardown are logged, and teardown always runs to
// completion. The Factory is shared and is not closed here.
func (i *Instance) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	i.closureSignaler.Close(ctx)
	<-i.workerDone
	i.providerReady.Store(false)
	i.locker.Do(ctx, func() {
		if i.provider != nil {
			if err := i.provider.Close(ctx); err != nil {
				logger.Errorf(ctx, "unable to close the provider: %v", err)
			}
			i.provider = nil
		}
		i.providerID = ProviderInvalid
	})
	i.output = nil
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
