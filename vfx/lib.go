// Package vfx binds NVIDIA's Video Effects library and wraps its effect
// handles in an explicit create/configure/load/run state machine.
//
// Like the CVImage binding, the library is loaded once per process and
// reference-counted, with an all-or-nothing symbol bind.
package vfx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/xaionaro-go/nvvfx/cuda"
	"github.com/xaionaro-go/nvvfx/cv"
	"github.com/xaionaro-go/nvvfx/internal/dl"
	"github.com/xaionaro-go/nvvfx/internal/singleton"
	"github.com/xaionaro-go/nvvfx/logger"
)

// EnvVideoEffectsPath overrides the Video Effects SDK install location.
const EnvVideoEffectsPath = "NV_VIDEO_EFFECTS_PATH"

// Handle is an NvVFX_Handle: one instantiated vendor effect.
type Handle uintptr

// EffectSelector names a vendor effect (NvVFX_EffectSelector).
type EffectSelector string

const (
	EffectGreenScreen       EffectSelector = "GreenScreen"
	EffectBackgroundBlur    EffectSelector = "BGblur"
	EffectArtifactReduction EffectSelector = "ArtifactReduction"
	EffectSuperResolution   EffectSelector = "SuperRes"
	EffectUpscale           EffectSelector = "Upscale"
	EffectDenoising         EffectSelector = "Denoising"
)

// Parameter selectors (NvVFX_ParameterSelector).
const (
	ParamInputImage     = "SrcImage0"
	ParamOutputImage    = "DstImage0"
	ParamModelDirectory = "ModelDir"
	ParamCudaStream     = "CudaStream"
	ParamMode           = "Mode"
	ParamStrength       = "Strength"
)

// Version is the packed SDK version reported by NvVFX_GetVersion.
type Version uint32

func (v Version) Major() uint32 { return uint32(v) >> 24 }
func (v Version) Minor() uint32 { return (uint32(v) >> 16) & 0xff }
func (v Version) Patch() uint32 { return (uint32(v) >> 8) & 0xff }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// MinimumVersion is the oldest SDK release with the parameter surface this
// binding relies on.
const MinimumVersion Version = 6 << 16 // 0.6.0

// Procs is the bound Video Effects function table for the entry points this
// module invokes.
type Procs struct {
	GetVersion    func(version *uint32) cv.Status
	CreateEffect  func(code EffectSelector, effect *Handle) cv.Status
	DestroyEffect func(effect Handle) cv.Status
	SetU32        func(effect Handle, name string, value uint32) cv.Status
	SetS32        func(effect Handle, name string, value int32) cv.Status
	SetF32        func(effect Handle, name string, value float32) cv.Status
	SetF64        func(effect Handle, name string, value float64) cv.Status
	SetU64        func(effect Handle, name string, value uint64) cv.Status
	SetImage      func(effect Handle, name string, im *cv.Header) cv.Status
	SetObject     func(effect Handle, name string, ptr unsafe.Pointer) cv.Status
	SetString     func(effect Handle, name string, value string) cv.Status
	SetCudaStream func(effect Handle, name string, stream cuda.StreamHandle) cv.Status
	Run           func(effect Handle, async int32) cv.Status
	Load          func(effect Handle) cv.Status
}

// Lib is the loaded Video Effects library.
type Lib struct {
	Procs
	library  *dl.Library
	modelDir string
}

var shared = singleton.New[Lib](load, unload)

// Get acquires a reference to the process-wide Video Effects binding,
// loading it on the first call.
func Get(ctx context.Context) (*singleton.Ref[Lib], error) {
	ref, err := shared.Acquire(ctx)
	if err != nil {
		return nil, ErrLoad{Err: err}
	}
	return ref, nil
}

// ModelDir returns the directory the vendor's model files were found in, or
// "" when no install location is known.
func (l *Lib) ModelDir() string {
	return l.modelDir
}

// Version queries the SDK version.
func (l *Lib) Version() (Version, error) {
	var raw uint32
	if status := l.GetVersion(&raw); status != cv.StatusSuccess {
		return 0, fmt.Errorf("NvVFX_GetVersion failed: %s", status)
	}
	return Version(raw), nil
}

func load(ctx context.Context) (_ret *Lib, _err error) {
	logger.Debugf(ctx, "load")
	defer func() { logger.Debugf(ctx, "/load: %v", _err) }()

	library, err := dl.OpenVendor(
		ctx,
		libraryName,
		[]string{EnvVideoEffectsPath},
		installRoots(),
	)
	if err != nil {
		return nil, err
	}

	lib := &Lib{
		library:  library,
		modelDir: findModelDir(ctx, library.Path()),
	}
	if err := lib.bind(ctx); err != nil {
		if closeErr := library.Close(ctx); closeErr != nil {
			logger.Errorf(ctx, "unable to unload '%s': %v", library.Path(), closeErr)
		}
		return nil, err
	}
	if err := lib.checkVersion(ctx); err != nil {
		if closeErr := library.Close(ctx); closeErr != nil {
			logger.Errorf(ctx, "unable to unload '%s': %v", library.Path(), closeErr)
		}
		return nil, err
	}
	return lib, nil
}

func (l *Lib) checkVersion(ctx context.Context) error {
	version, err := l.Version()
	if err != nil {
		return err
	}
	if version < MinimumVersion {
		return ErrVersion{Found: version, Minimum: MinimumVersion}
	}
	logger.Debugf(ctx, "Video Effects SDK version: %s", version)
	return nil
}

func (l *Lib) bind(ctx context.Context) error {
	for _, sym := range []struct {
		name string
		ptr  any
	}{
		{"NvVFX_GetVersion", &l.GetVersion},
		{"NvVFX_CreateEffect", &l.CreateEffect},
		{"NvVFX_DestroyEffect", &l.DestroyEffect},
		{"NvVFX_SetU32", &l.SetU32},
		{"NvVFX_SetS32", &l.SetS32},
		{"NvVFX_SetF32", &l.SetF32},
		{"NvVFX_SetF64", &l.SetF64},
		{"NvVFX_SetU64", &l.SetU64},
		{"NvVFX_SetImage", &l.SetImage},
		{"NvVFX_SetObject", &l.SetObject},
		{"NvVFX_SetString", &l.SetString},
		{"NvVFX_SetCudaStream", &l.SetCudaStream},
		{"NvVFX_Run", &l.Run},
		{"NvVFX_Load", &l.Load},
	} {
		if err := l.library.Register(ctx, sym.name, sym.ptr); err != nil {
			return err
		}
	}

	// The getters are unused here, but an SDK build missing them is not one
	// we know how to talk to.
	for _, name := range []string{
		"NvVFX_GetU32",
		"NvVFX_GetS32",
		"NvVFX_GetF32",
		"NvVFX_GetF64",
		"NvVFX_GetU64",
		"NvVFX_GetImage",
		"NvVFX_GetObject",
		"NvVFX_GetString",
		"NvVFX_GetCudaStream",
	} {
		if _, err := l.library.Lookup(name); err != nil {
			return err
		}
	}
	return nil
}

func unload(ctx context.Context, lib *Lib) {
	if lib.library == nil {
		return
	}
	if err := lib.library.Close(ctx); err != nil {
		logger.Errorf(ctx, "unable to unload the Video Effects library: %v", err)
	}
}

// findModelDir locates the SDK's `models` directory: next to the loaded
// library if we know where that is, otherwise under the install root from
// the environment override.
func findModelDir(ctx context.Context, libraryPath string) string {
	var roots []string
	if dir := filepath.Dir(libraryPath); dir != "." && dir != string(filepath.Separator) {
		roots = append(roots, dir, filepath.Dir(dir))
	}
	if root := os.Getenv(EnvVideoEffectsPath); root != "" {
		roots = append(roots, root)
	}
	roots = append(roots, installRoots()...)

	for _, root := range roots {
		candidate := filepath.Join(root, "models")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	logger.Warnf(ctx, "unable to locate the model directory for '%s'", libraryPath)
	return ""
}
