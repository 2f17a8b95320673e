//go:build !windows

package cv

import (
	"context"
)

const libraryName = "libNVCVImage.so"

func installRoots() []string {
	return []string{
		"/usr/local/VideoFX",
		"/opt/nvidia/videofx",
	}
}

// There is no Direct3D on this platform; InitFromTexture stays nil and
// texture-backed images report a map-error instead.
func (l *Lib) bindPlatform(ctx context.Context) error {
	return nil
}
