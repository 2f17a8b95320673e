//go:build !windows

package vfx

const libraryName = "libNVVideoEffects.so"

func installRoots() []string {
	return []string{
		"/usr/local/VideoFX",
		"/opt/nvidia/videofx",
	}
}
