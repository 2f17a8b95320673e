// Package denoise wraps the vendor's "Denoising" effect: temporal noise
// removal on the video frame. The effect only accepts geometries whose
// shorter edge lands within a fixed envelope, so AdjustSize clamps.
package denoise

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

const (
	seedWidth  = 160
	seedHeight = 90
)

// Denoise runs the vendor's noise removal and returns a full RGBA frame.
//
// The effect works on normalized float pixels, so the per-frame pipeline
// converts on the way in and out:
//
//	input (RGBA texture) -> source (BGR f32 planar, GPU, scale 1/255)
//	  -> effect -> destination (BGR f32 planar, GPU)
//	  -> output (RGBA texture, scale 255)
type Denoise struct {
	device gs.Device
	bridge *cuda.Bridge
	cvl    *cv.Lib

	fx          *vfx.Effect
	input       *cv.TextureImage
	source      *cv.Image
	destination *cv.Image
	output      *cv.TextureImage
	tmp         *cv.Image
	strength    float32
	dirty       bool
}

var _ filter.Provider = (*Denoise)(nil)

func New(
	ctx context.Context,
	device gs.Device,
	bridge *cuda.Bridge,
	cvl *cv.Lib,
	vfxl *vfx.Lib,
	strength float32,
) (_ret *Denoise, _err error) {
	logger.Debugf(ctx, "New(ctx, strength=%f)", strength)
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

	fx, err := vfxl.NewEffect(ctx, cvl, vfx.EffectDenoising)
	if err != nil {
		return nil, fmt.Errorf("unable to create the effect: %w", err)
	}

	d := &Denoise{
		device: device,
		bridge: bridge,
		cvl:    cvl,
		fx:     fx,
	}
	defer func() {
		if _err != nil {
			if err := d.Close(ctx); err != nil {
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
	if err := d.SetStrength(ctx, strength); err != nil {
		return nil, err
	}

	if err := d.resize(ctx, seedWidth, seedHeight); err != nil {
		return nil, err
	}
	if err := d.load(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Denoise) String() string {
	return "NVIDIA Noise Removal"
}

// SetStrength sets the denoising strength in [0, 1]. Takes effect on the
// next frame (the effect reloads).
func (d *Denoise) SetStrength(ctx context.Context, strength float32) error {
	switch {
	case strength < 0:
		strength = 0
	case strength > 1:
		strength = 1
	}
	if err := d.fx.SetF32(ctx, vfx.ParamStrength, strength); err != nil {
		return err
	}
	d.strength = strength
	d.dirty = true
	return nil
}

// AdjustSize clamps to the geometry envelope the effect supports.
func (d *Denoise) AdjustSize(ctx context.Context, in gs.Size) gs.Size {
	return cv.ClampShortEdge(in, cv.MinShortEdge, cv.MaxShortEdge)
}

func (d *Denoise) Process(ctx context.Context, input gs.Texture) (_ret gs.Texture, _err error) {
	leaveGfx, err := d.device.Enter(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to enter the graphics context: %w", err)
	}
	defer leaveGfx()
	guard, err := d.bridge.Context().Enter(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to enter the CUDA context: %w", err)
	}
	defer func() {
		if err := guard.Leave(ctx); err != nil {
			logger.Errorf(ctx, "unable to leave the CUDA context: %v", err)
		}
	}()

	if err := d.resize(ctx, input.Width(), input.Height()); err != nil {
		return nil, fmt.Errorf("unable to resize the buffers to %dx%d: %w", input.Width(), input.Height(), err)
	}
	if d.dirty {
		if err := d.load(ctx); err != nil {
			return nil, fmt.Errorf("unable to reload the effect: %w", err)
		}
	}

	if err := d.device.CopyTexture(ctx, d.input.Texture(), input); err != nil {
		return nil, fmt.Errorf("unable to copy the captured frame: %w", err)
	}
	if err := d.cvl.TransferImage(ctx, d.input.Header(), d.source.Header(), 1.0/255.0, d.bridge.Stream(), d.tmp.Header()); err != nil {
		return nil, fmt.Errorf("unable to upload the frame into the effect input: %w", err)
	}
	if err := d.fx.Run(ctx); err != nil {
		return nil, err
	}
	if err := d.cvl.TransferImage(ctx, d.destination.Header(), d.output.Header(), 255.0, d.bridge.Stream(), d.tmp.Header()); err != nil {
		return nil, fmt.Errorf("unable to download the result: %w", err)
	}
	if err := d.bridge.Stream().Synchronize(ctx); err != nil {
		return nil, fmt.Errorf("unable to synchronize the stream: %w", err)
	}
	return d.output.Texture(), nil
}

func (d *Denoise) resize(ctx context.Context, width, height uint32) error {
	if d.tmp == nil {
		tmp, err := d.cvl.NewImage(ctx, width, height,
			cv.PixelFormatRGBA, cv.ComponentTypeUint8,
			cv.ComponentLayoutChunky, cv.MemoryLocationGPU, 1)
		if err != nil {
			return fmt.Errorf("unable to allocate the scratch buffer: %w", err)
		}
		d.tmp = tmp
	} else if err := d.tmp.Resize(ctx, width, height); err != nil {
		return fmt.Errorf("unable to resize the scratch buffer: %w", err)
	}

	if d.input == nil || d.input.Width() != width || d.input.Height() != height {
		if d.input == nil {
			input, err := d.cvl.NewTextureImage(ctx, d.device, d.bridge.Stream(), width, height, gs.ColorFormatRGBAUnorm)
			if err != nil {
				return fmt.Errorf("unable to allocate the input texture: %w", err)
			}
			d.input = input
		} else if err := d.input.Resize(ctx, width, height); err != nil {
			return fmt.Errorf("unable to resize the input texture: %w", err)
		}

		if d.source == nil {
			source, err := d.cvl.NewImage(ctx, width, height,
				cv.PixelFormatBGR, cv.ComponentTypeFloat32,
				cv.ComponentLayoutPlanar, cv.MemoryLocationGPU, 1)
			if err != nil {
				return fmt.Errorf("unable to allocate the source buffer: %w", err)
			}
			d.source = source
		} else if err := d.source.Resize(ctx, width, height); err != nil {
			return fmt.Errorf("unable to resize the source buffer: %w", err)
		}

		if err := d.fx.SetImage(ctx, vfx.ParamInputImage, d.source); err != nil {
			return err
		}
		d.dirty = true
	}

	if d.destination == nil || d.destination.Width() != width || d.destination.Height() != height {
		if d.destination == nil {
			destination, err := d.cvl.NewImage(ctx, width, height,
				cv.PixelFormatBGR, cv.ComponentTypeFloat32,
				cv.ComponentLayoutPlanar, cv.MemoryLocationGPU, 1)
			if err != nil {
				return fmt.Errorf("unable to allocate the destination buffer: %w", err)
			}
			d.destination = destination
		} else if err := d.destination.Resize(ctx, width, height); err != nil {
			return fmt.Errorf("unable to resize the destination buffer: %w", err)
		}

		if d.output == nil {
			output, err := d.cvl.NewTextureImage(ctx, d.device, d.bridge.Stream(), width, height, gs.ColorFormatRGBAUnorm)
			if err != nil {
				return fmt.Errorf("unable to allocate the output texture: %w", err)
			}
			d.output = output
		} else if err := d.output.Resize(ctx, width, height); err != nil {
			return fmt.Errorf("unable to resize the output texture: %w", err)
		}

		if err := d.fx.SetImage(ctx, vfx.ParamOutputImage, d.destination); err != nil {
			return err
		}
		d.dirty = true
	}

	return nil
}

func (d *Denoise) load(ctx context.Context) error {
	if err := d.fx.Load(ctx); err != nil {
		return err
	}
	d.dirty = false
	return nil
}

// Close destroys the effect and releases every buffer; it always runs to
// completion and returns the first error it hit.
func (d *Denoise) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()

	// Releasing unmaps interop resources and frees device memory, which are
	// vendor calls like any other: they need both contexts active. Teardown
	// still proceeds if entering fails, there is nothing better to do.
	if leaveGfx, err := d.device.Enter(ctx); err != nil {
		logger.Errorf(ctx, "unable to enter the graphics context: %v", err)
	} else {
		defer leaveGfx()
	}
	if guard, err := d.bridge.Context().Enter(ctx); err != nil {
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

	if d.fx != nil {
		noteErr(d.fx.Destroy(ctx))
		d.fx = nil
	}
	if d.output != nil {
		noteErr(d.output.Release(ctx))
		d.output = nil
	}
	if d.destination != nil {
		noteErr(d.destination.Release(ctx))
		d.destination = nil
	}
	if d.source != nil {
		noteErr(d.source.Release(ctx))
		d.source = nil
	}
	if d.input != nil {
		noteErr(d.input.Release(ctx))
		d.input = nil
	}
	if d.tmp != nil {
		noteErr(d.tmp.Release(ctx))
		d.tmp = nil
	}
	return firstErr
}
