//go:build windows

package cv

import (
	"context"
	"os"
	"path/filepath"
)

const libraryName = "NVCVImage.dll"

func installRoots() []string {
	programFiles := os.Getenv("ProgramFiles")
	if programFiles == "" {
		return nil
	}
	return []string{
		filepath.Join(programFiles, "NVIDIA Corporation", "NVIDIA Video Effects"),
		filepath.Join(programFiles, "NVIDIA Corporation", "NVIDIA AR SDK"),
	}
}

func (l *Lib) bindPlatform(ctx context.Context) error {
	for _, sym := range []struct {
		name string
		ptr  any
	}{
		{"NvCVImage_InitFromD3D11Texture", &l.InitFromTexture},
	} {
		if err := l.library.Register(ctx, sym.name, sym.ptr); err != nil {
			return err
		}
	}
	for _, name := range []string{
		"NvCVImage_ToD3DFormat",
		"NvCVImage_FromD3DFormat",
	} {
		if _, err := l.library.Lookup(name); err != nil {
			return err
		}
	}
	return nil
}
