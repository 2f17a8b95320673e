// Package filter implements the provider lifecycle core of a GPU video
// filter: a Factory that probes which providers are usable on this machine,
// and an Instance that owns the per-frame pipeline plus the asynchronous
// provider switch coordinator.
//
// A "provider" is one selectable implementation of the filter's capability
// (e.g. background removal via NVIDIA's green screen effect). The host's
// render thread drives VideoTick/VideoRender; everything slow (SDK loading,
// effect creation, buffer allocation) happens on one background worker per
// Instance, and the render thread only ever polls a readiness flag.
package filter

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/nvvfx/gs"
)

// ProviderID selects a provider within one filter kind. Zero is always
// "automatic" (resolve by probing availability in priority order); concrete
// providers are positive and defined by the concrete filter package.
type ProviderID int64

const (
	ProviderInvalid   ProviderID = -1
	ProviderAutomatic ProviderID = 0
)

func (id ProviderID) String() string {
	switch id {
	case ProviderInvalid:
		return "N/A"
	case ProviderAutomatic:
		return "automatic"
	default:
		return fmt.Sprintf("provider#%d", int64(id))
	}
}

// Provider is one active implementation of the filter capability. A
// Provider is owned by exactly one Instance and never shared.
type Provider interface {
	fmt.Stringer

	// AdjustSize reports the size the provider will produce output at for
	// the given input size. Size-constrained effects clamp here; everything
	// else returns the input unchanged.
	AdjustSize(ctx context.Context, in gs.Size) gs.Size

	// Process runs the per-frame pipeline on the captured input texture and
	// returns the result texture. An error means this frame produced no
	// output; the provider stays usable for subsequent frames.
	Process(ctx context.Context, input gs.Texture) (gs.Texture, error)

	// Close releases the effect handle and every GPU buffer. It always runs
	// to completion: individual release failures are logged, not returned
	// as aborts.
	Close(ctx context.Context) error
}

// ErrNotReady is returned by the render path while no provider is active
// (still switching, bring-up failed, or none selected). The host should
// skip the filter and pass the frame through unmodified.
type ErrNotReady struct{}

func (ErrNotReady) Error() string {
	return "no provider is active"
}

// ErrFrameSkipped is returned when the active provider failed to produce
// output for the current frame. The host must not present a stale buffer.
type ErrFrameSkipped struct {
	Err error
}

func (e ErrFrameSkipped) Error() string {
	return fmt.Sprintf("no output for this frame: %v", e.Err)
}

func (e ErrFrameSkipped) Unwrap() error {
	return e.Err
}
