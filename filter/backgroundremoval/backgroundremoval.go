// Package backgroundremoval is the background removal filter kind: it
// segments the subject from the background and outputs the captured frame
// with the background made transparent.
package backgroundremoval

import (
	"context"

	"github.com/xaionaro-go/xcontext"

	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/cv"
	"github.com/xaionaro-go/nvvfx/filter"
	"github.com/xaionaro-go/nvvfx/gs"
	"github.com/xaionaro-go/nvvfx/logger"
	"github.com/xaionaro-go/nvvfx/vfx"
	"github.com/xaionaro-go/nvvfx/vfx/greenscreen"
)

const ProviderNVIDIAGreenScreen filter.ProviderID = 1

// NewFactory probes which background removal providers can run on this
// machine and returns a Factory holding the ones that can. A machine
// without any usable SDK yields a Factory with zero providers; the caller
// should then skip registering the filter kind with the host.
func NewFactory(ctx context.Context, device gs.Device) *filter.Factory {
	f := filter.NewFactory()
	registerNVIDIA(ctx, f, device)
	return f
}

func registerNVIDIA(ctx context.Context, f *filter.Factory, device gs.Device) {
	bridgeRef, err := cuda.GetBridge(ctx)
	if err != nil {
		logger.Infof(ctx, "CUDA is not available, skipping the NVIDIA provider: %v", err)
		return
	}
	cvRef, err := cv.Get(ctx)
	if err != nil {
		logger.Infof(ctx, "the NVIDIA image library is not available, skipping the NVIDIA provider: %v", err)
		bridgeRef.Release(ctx)
		return
	}
	vfxRef, err := vfx.Get(ctx)
	if err != nil {
		logger.Infof(ctx, "the NVIDIA Video Effects library is not available, skipping the NVIDIA provider: %v", err)
		cvRef.Release(ctx)
		bridgeRef.Release(ctx)
		return
	}
	if version, err := vfxRef.Value().Version(); err == nil {
		logger.Infof(ctx, "NVIDIA Video Effects SDK %s", version)
	}

	releaseCtx := xcontext.DetachDone(ctx)
	f.AddCloseCallback(func() {
		vfxRef.Release(releaseCtx)
		cvRef.Release(releaseCtx)
		bridgeRef.Release(releaseCtx)
	})
	f.RegisterProvider(ctx, ProviderNVIDIAGreenScreen, "NVIDIA Green Screen",
		func(ctx context.Context) (filter.Provider, error) {
			return greenscreen.New(ctx, device, bridgeRef.Value(), cvRef.Value(), vfxRef.Value(), greenscreen.ModeQuality)
		},
	)
}

// Compose renders the captured frame with the provider's alpha mask
// applied, so the background becomes transparent in the final texture.
func Compose(
	ctx context.Context,
	device gs.Device,
	dst gs.RenderTarget,
	captured gs.Texture,
	processed gs.Texture,
) error {
	return device.ApplyMask(ctx, dst, captured, processed)
}

// NewInstance creates a background removal filter instance.
func NewInstance(
	ctx context.Context,
	factory *filter.Factory,
	device gs.Device,
) (*filter.Instance, error) {
	return filter.NewInstance(ctx, factory, device, Compose)
}
