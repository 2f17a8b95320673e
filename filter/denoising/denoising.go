// Package denoising is the video noise removal filter kind.
package denoising

import (
	"context"

	"github.com/xaionaro-go/xcontext"

	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/cv"
	"github.com/xaionaro-go/nvvfx/filter"
	"github.com/xaionaro-go/nvvfx/gs"
	"github.com/xaionaro-go/nvvfx/logger"
	"github.com/xaionaro-go/nvvfx/vfx"
	"github.com/xaionaro-go/nvvfx/vfx/denoise"
)

const ProviderNVIDIANoiseRemoval filter.ProviderID = 1

const DefaultStrength = 1.0

// NewFactory probes which denoising providers can run on this machine and
// returns a Factory holding the ones that can.
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

	releaseCtx := xcontext.DetachDone(ctx)
	f.AddCloseCallback(func() {
		vfxRef.Release(releaseCtx)
		cvRef.Release(releaseCtx)
		bridgeRef.Release(releaseCtx)
	})
	f.RegisterProvider(ctx, ProviderNVIDIANoiseRemoval, "NVIDIA Noise Removal",
		func(ctx context.Context) (filter.Provider, error) {
			return denoise.New(ctx, device, bridgeRef.Value(), cvRef.Value(), vfxRef.Value(), DefaultStrength)
		},
	)
}

// NewInstance creates a denoising filter instance. The provider's output
// is already the final frame, so there is no composition step.
func NewInstance(
	ctx context.Context,
	factory *filter.Factory,
	device gs.Device,
) (*filter.Instance, error) {
	return filter.NewInstance(ctx, factory, device, nil)
}
