package filter

import (
	"context"
	"fmt"

	"github.com/asticode/go-astikit"

	"github.com/xaionaro-go/nvvfx/logger"
)

// ProviderConstructor builds a fresh Provider. It is invoked on the
// Instance's worker goroutine, never on the render thread.
type ProviderConstructor func(ctx context.Context) (Provider, error)

// Factory knows which providers of one filter kind are usable on this
// machine. Concrete filter packages construct it once per process during
// registration: they probe their SDKs, and register a constructor for every
// provider whose prerequisites are present. A Factory with zero registered
// providers means the filter kind is unavailable and its registration
// should be skipped entirely.
type Factory struct {
	constructors map[ProviderID]ProviderConstructor
	names        map[ProviderID]string
	priority     []ProviderID
	closer       *astikit.Closer
}

func NewFactory() *Factory {
	return &Factory{
		constructors: map[ProviderID]ProviderConstructor{},
		names:        map[ProviderID]string{},
		closer:       astikit.NewCloser(),
	}
}

// RegisterProvider adds a usable provider. Registration order is the
// priority order used to resolve ProviderAutomatic.
func (f *Factory) RegisterProvider(
	ctx context.Context,
	id ProviderID,
	name string,
	constructor ProviderConstructor,
) {
	logger.Debugf(ctx, "RegisterProvider(%d, '%s')", id, name)
	if _, ok := f.constructors[id]; ok {
		logger.Errorf(ctx, "provider %d ('%s') is already registered", id, name)
		return
	}
	f.constructors[id] = constructor
	f.names[id] = name
	f.priority = append(f.priority, id)
}

// AddCloseCallback schedules a callback for Close; callbacks run in
// reverse registration order. Used to hold SDK handles for the Factory's
// whole lifetime.
func (f *Factory) AddCloseCallback(callback func()) {
	f.closer.Add(callback)
}

// IsAvailable reports whether at least one provider can run here.
func (f *Factory) IsAvailable() bool {
	return len(f.priority) > 0
}

func (f *Factory) IsProviderAvailable(id ProviderID) bool {
	_, ok := f.constructors[id]
	return ok
}

// ProviderName returns a human-readable name for UI and logs.
func (f *Factory) ProviderName(id ProviderID) string {
	if name, ok := f.names[id]; ok {
		return name
	}
	return id.String()
}

// Resolve maps the user's selection to a concrete provider: Automatic
// becomes the highest-priority available provider, an unavailable concrete
// selection becomes Invalid.
func (f *Factory) Resolve(ctx context.Context, id ProviderID) ProviderID {
	switch {
	case id == ProviderAutomatic:
		if len(f.priority) == 0 {
			return ProviderInvalid
		}
		return f.priority[0]
	case f.IsProviderAvailable(id):
		return id
	default:
		logger.Warnf(ctx, "provider %s is not available on this machine", id)
		return ProviderInvalid
	}
}

// NewProvider constructs the given provider. May take a long time (SDK
// model loading); call it from a worker goroutine only.
func (f *Factory) NewProvider(
	ctx context.Context,
	id ProviderID,
) (_ret Provider, _err error) {
	logger.Debugf(ctx, "NewProvider(%s)", f.ProviderName(id))
	defer func() { logger.Debugf(ctx, "/NewProvider(%s): %v %v", f.ProviderName(id), _ret, _err) }()
	constructor, ok := f.constructors[id]
	if !ok {
		return nil, fmt.Errorf("provider %s is not available", id)
	}
	provider, err := constructor(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to construct provider '%s': %w", f.ProviderName(id), err)
	}
	return provider, nil
}

// Close releases everything the concrete filter package attached via
// AddCloseCallback (SDK refs, shared CUDA state).
func (f *Factory) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	return f.closer.Close()
}
