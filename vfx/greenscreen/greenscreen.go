// Package greenscreen wraps the vendor's "GreenScreen" effect: it segments
// the subject of a video frame from its background and produces an alpha
// mask texture of the same size.
package greenscreen

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/cv"
	"github.com/xaionaro-go/nvvfx/filter"
	"github.com/xaionaro-go/nvvfx/gs"
	"github.com/xaionaro-go/nvvfx/logger"
	"github.com/xaionaro-go/nvvfx/vfx"
)

// Mode selects the vendor's quality/performance trade-off.
type Mode uint32

const (
	ModeQuality     Mode = 0
	ModePerformance Mode = 1
)

// Buffers are seeded at a small geometry so that effect creation does not
// allocate a full frame before the first real size is known; the first
// Process resizes everything to the actual frame.
const (
	seedWidth  = 160
	seedHeight = 90
)

// GreenScreen produces an alpha mask for the captured frame. The mask is
// the same size as the input; AdjustSize is the identity.
//
// The per-frame pipeline is:
//
//	input (RGBA texture) -> source (BGR u8 chunky, GPU) -> effect
//	  -> destination (A u8 planar, GPU) -> output (A8 texture)
//
// with tmp as the transfer scratch buffer.
type GreenScreen struct {
	device gs.Device
	bridge *cuda.Bridge
	cvl    *cv.Lib

	fx          *vfx.Effect
	input       *cv.TextureImage
	source      *cv.Image
	destination *cv.Image
	output      *cv.TextureImage
	tmp         *cv.Image
	mode        Mode
	dirty       bool
}

var _ filter.Provider = (*GreenScreen)(nil)

func New(
	ctx context.Context,
	device gs.Device,
	bridge *cuda.Bridge,
	cvl *cv.Lib,
	vfxl *vfx.Lib,
	mode Mode,
) (_ret *GreenScreen, _err error) {
	logger.Debugf(ctx, "New")
	defer func() { logger.Debugf(ctx, "/New: %v", _err) }()

	leaveGfx, err := device.Enter(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to enter the graphics context: %w", err)
	}
	defer leaveGfx()
	guard, err := bridge.Context().Enter(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to enter the CUDA context: %w", err)
	}
	defer func() {
		if err := guard.Leave(ctx); err != nil {
			logger.Errorf(ctx, "unable to leave the CUDA context: %v", err)
		}
	}()

	fx, err := vfxl.NewEffect(ctx, cvl, vfx.EffectGreenScreen)
	if err != nil {
		return nil, fmt.Errorf("unable to create the effect: %w", err)
	}

	g := &GreenScreen{
		device: device,
		bridge: bridge,
		cvl:    cvl,
		fx:     fx,
		mode:   mode,
	}
	defer func() {
		if _err != nil {
			if err := g.Close(ctx); err != nil {
				logger.Errorf(ctx, "unable to clean up after a failed construction: %v", err)
			}
		}
	}()

	if err := fx.SetCudaStream(ctx, bridge.Stream()); err != nil {
		return nil, err
	}
	if modelDir := vfxl.ModelDir(); modelDir != "" {
		if err := fx.SetString(ctx, vfx.ParamModelDirectory, modelDir); err != nil {
			return nil, err
		}
	} else {
		logger.Warnf(ctx, "no model directory was found, the effect will likely fail to load")
	}

	if err := g.resize(ctx, seedWidth, seedHeight); err != nil {
		return nil, err
	}
	if err := g.load(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GreenScreen) String() string {
	return "NVIDIA Green Screen"
}

// AdjustSize is the identity: the mask has the input's geometry.
func (g *GreenScreen) AdjustSize(ctx context.Context, in gs.Size) gs.Size {
	return in
}

// Process copies the captured frame into the effect's input, runs inference
// and returns the A8 mask texture.
func (g *GreenScreen) Process(ctx context.Context, input gs.Texture) (_ret gs.Texture, _err error) {
	leaveGfx, err := g.device.Enter(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to enter the graphics context: %w", err)
	}
	defer leaveGfx()
	guard, err := g.bridge.Context().Enter(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to enter the CUDA context: %w", err)
	}
	defer func() {
		if err := guard.Leave(ctx); err != nil {
			logger.Errorf(ctx, "unable to leave the CUDA context: %v", err)
		}
	}()

	if err := g.resize(ctx, input.Width(), input.Height()); err != nil {
		return nil, fmt.Errorf("unable to resize the buffers to %dx%d: %w", input.Width(), input.Height(), err)
	}
	if g.dirty {
		if err := g.load(ctx); err != nil {
			return nil, fmt.Errorf("unable to reload the effect: %w", err)
		}
	}

	if err := g.device.CopyTexture(ctx, g.input.Texture(), input); err != nil {
		return nil, fmt.Errorf("unable to copy the captured frame: %w", err)
	}
	if err := g.cvl.TransferImage(ctx, g.input.Header(), g.source.Header(), 1.0, g.bridge.Stream(), g.tmp.Header()); err != nil {
		return nil, fmt.Errorf("unable to upload the frame into the effect input: %w", err)
	}
	if err := g.fx.Run(ctx); err != nil {
		return nil, err
	}
	if err := g.cvl.TransferImage(ctx, g.destination.Header(), g.output.Header(), 1.0, g.bridge.Stream(), g.tmp.Header()); err != nil {
		return nil, fmt.Errorf("unable to download the mask: %w", err)
	}
	return g.output.Texture(), nil
}

// resize brings every buffer to the given geometry and rebinds the effect's
// image parameters where the buffers were replaced. Binding an image or
// changing the mode drops the effect back to the unloaded state, which is
// what the dirty flag tracks.
func (g *GreenScreen) resize(ctx context.Context, width, height uint32) error {
	if g.tmp == nil {
		tmp, err := g.cvl.NewImage(ctx, width, height,
			cv.PixelFormatRGBA, cv.ComponentTypeUint8,
			cv.ComponentLayoutPlanar, cv.MemoryLocationGPU, 1)
		if err != nil {
			return fmt.Errorf("unable to allocate the scratch buffer: %w", err)
		}
		g.tmp = tmp
	} else if err := g.tmp.Resize(ctx, width, height); err != nil {
		return fmt.Errorf("unable to resize the scratch buffer: %w", err)
	}

	if g.input == nil || g.input.Width() != width || g.input.Height() != height {
		if g.input == nil {
			input, err := g.cvl.NewTextureImage(ctx, g.device, g.bridge.Stream(), width, height, gs.ColorFormatRGBAUnorm)
			if err != nil {
				return fmt.Errorf("unable to allocate the input texture: %w", err)
			}
			g.input = input
		} else if err := g.input.Resize(ctx, width, height); err != nil {
			return fmt.Errorf("unable to resize the input texture: %w", err)
		}

		if g.source == nil {
			source, err := g.cvl.NewImage(ctx, width, height,
				cv.PixelFormatBGR, cv.ComponentTypeUint8,
				cv.ComponentLayoutChunky, cv.MemoryLocationGPU, 1)
			if err != nil {
				return fmt.Errorf("unable to allocate the source buffer: %w", err)
			}
			g.source = source
		} else if err := g.source.Resize(ctx, width, height); err != nil {
			return fmt.Errorf("unable to resize the source buffer: %w", err)
		}

		if err := g.fx.SetImage(ctx, vfx.ParamInputImage, g.source); err != nil {
			return err
		}
		if err := g.fx.SetU32(ctx, vfx.ParamMode, uint32(g.mode)); err != nil {
			return err
		}
		g.dirty = true
	}

	if g.destination == nil || g.destination.Width() != width || g.destination.Height() != height {
		if g.destination == nil {
			destination, err := g.cvl.NewImage(ctx, width, height,
				cv.PixelFormatA, cv.ComponentTypeUint8,
				cv.ComponentLayoutPlanar, cv.MemoryLocationGPU, 1)
			if err != nil {
				return fmt.Errorf("unable to allocate the destination buffer: %w", err)
			}
			g.destination = destination
		} else if err := g.destination.Resize(ctx, width, height); err != nil {
			return fmt.Errorf("unable to resize the destination buffer: %w", err)
		}

		if g.output == nil {
			output, err := g.cvl.NewTextureImage(ctx, g.device, g.bridge.Stream(), width, height, gs.ColorFormatA8)
			if err != nil {
				return fmt.Errorf("unable to allocate the output texture: %w", err)
			}
			g.output = output
		} else if err := g.output.Resize(ctx, width, height); err != nil {
			return fmt.Errorf("unable to resize the output texture: %w", err)
		}

		if err := g.fx.SetImage(ctx, vfx.ParamOutputImage, g.destination); err != nil {
			return err
		}
		g.dirty = true
	}

	return nil
}

func (g *GreenScreen) load(ctx context.Context) error {
	if err := g.fx.Load(ctx); err != nil {
		return err
	}
	g.dirty = false
	return nil
}

// Close destroys the effect and releases every buffer. It always runs to
// completion and returns the first error it hit.
func (g *GreenScreen) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()

	// Releasing unmaps interop resources and frees device memory, which are
	// vendor calls like any other: they need both contexts active. Teardown
	// still proceeds if entering fails, there is nothing better to do.
	if leaveGfx, err := g.device.Enter(ctx); err != nil {
		logger.Errorf(ctx, "unable to enter the graphics context: %v", err)
	} else {
		defer leaveGfx()
	}
	if guard, err := g.bridge.Context().Enter(ctx); err != nil {
		logger.Errorf(ctx, "unable to enter the CUDA context: %v", err)
	} else {
		defer func() {
			if err := guard.Leave(ctx); err != nil {
				logger.Errorf(ctx, "unable to leave the CUDA context: %v", err)
			}
		}()
	}

	var firstErr error
	noteErr := func(err error) {
		if err != nil {
			logger.Errorf(ctx, "error during teardown: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if g.fx != nil {
		noteErr(g.fx.Destroy(ctx))
		g.fx = nil
	}
	if g.output != nil {
		noteErr(g.output.Release(ctx))
		g.output = nil
	}
	if g.destination != nil {
		noteErr(g.destination.Release(ctx))
		g.destination = nil
	}
	if g.source != nil {
		noteErr(g.source.Release(ctx))
		g.source = nil
	}
	if g.input != nil {
		noteErr(g.input.Release(ctx))
		g.input = nil
	}
	if g.tmp != nil {
		noteErr(g.tmp.Release(ctx))
		g.tmp = nil
	}
	return firstErr
}
