// Package gstest is an in-memory implementation of the gs capability
// surface, used by tests and by the probe tool. It performs no real GPU
// work: textures are plain descriptors and every operation just validates
// its arguments and records that it happened.
package gstest

import (
	"context"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/xaionaro-go/nvvfx/gs"
)

type Texture struct {
	W         uint32
	H         uint32
	Format    gs.ColorFormat
	Destroyed atomic.Bool
}

var _ gs.DestroyableTexture = (*Texture)(nil)

func (t *Texture) Width() uint32               { return t.W }
func (t *Texture) Height() uint32              { return t.H }
func (t *Texture) ColorFormat() gs.ColorFormat { return t.Format }

func (t *Texture) NativeHandle() unsafe.Pointer {
	return unsafe.Pointer(t)
}

func (t *Texture) Destroy(ctx context.Context) error {
	if t.Destroyed.Swap(true) {
		return fmt.Errorf("texture destroyed twice")
	}
	return nil
}

type RenderTarget struct {
	Device  *Device
	Format  gs.ColorFormat
	Current *Texture
	inPass  bool
}

var _ gs.RenderTarget = (*RenderTarget)(nil)

func (rt *RenderTarget) Begin(ctx context.Context, width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("invalid render target geometry %dx%d", width, height)
	}
	if rt.inPass {
		return fmt.Errorf("Begin without matching End")
	}
	if rt.Current == nil || rt.Current.W != width || rt.Current.H != height {
		rt.Current = &Texture{W: width, H: height, Format: rt.Format}
	}
	rt.inPass = true
	return nil
}

func (rt *RenderTarget) End(ctx context.Context) error {
	if !rt.inPass {
		return fmt.Errorf("End without matching Begin")
	}
	rt.inPass = false
	return nil
}

func (rt *RenderTarget) Texture() gs.Texture {
	if rt.Current == nil {
		return nil
	}
	return rt.Current
}

// Device counts operations so tests can assert on what the filter asked the
// host to do.
type Device struct {
	EnterCount     atomic.Int64
	CopyCount      atomic.Int64
	ApplyMaskCount atomic.Int64

	// FailCopy makes CopyTexture fail, for frame-abort tests.
	FailCopy atomic.Bool
}

var _ gs.Device = (*Device)(nil)

func New() *Device {
	return &Device{}
}

func (d *Device) Enter(ctx context.Context) (func(), error) {
	d.EnterCount.Add(1)
	return func() {}, nil
}

func (d *Device) CreateTexture(
	ctx context.Context,
	width, height uint32,
	format gs.ColorFormat,
) (gs.Texture, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("invalid texture geometry %dx%d", width, height)
	}
	return &Texture{W: width, H: height, Format: format}, nil
}

func (d *Device) CreateRenderTarget(
	ctx context.Context,
	format gs.ColorFormat,
) (gs.RenderTarget, error) {
	return &RenderTarget{Device: d, Format: format}, nil
}

func (d *Device) CopyTexture(ctx context.Context, dst, src gs.Texture) error {
	d.CopyCount.Add(1)
	if d.FailCopy.Load() {
		return fmt.Errorf("copy forced to fail")
	}
	if dst.Width() != src.Width() || dst.Height() != src.Height() {
		return fmt.Errorf(
			"copy size mismatch: dst is %dx%d, src is %dx%d",
			dst.Width(), dst.Height(), src.Width(), src.Height(),
		)
	}
	return nil
}

func (d *Device) ApplyMask(
	ctx context.Context,
	dst gs.RenderTarget,
	base, mask gs.Texture,
) error {
	d.ApplyMaskCount.Add(1)
	if base == nil || mask == nil {
		return fmt.Errorf("ApplyMask requires both a base and a mask texture")
	}
	if err := dst.Begin(ctx, base.Width(), base.Height()); err != nil {
		return err
	}
	return dst.End(ctx)
}
