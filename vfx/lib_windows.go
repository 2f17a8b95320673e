//go:build windows

package vfx

import (
	"os"
	"path/filepath"
)

const libraryName = "NVVideoEffects.dll"

func installRoots() []string {
	programFiles := os.Getenv("ProgramFiles")
	if programFiles == "" {
		return nil
	}
	return []string{
		filepath.Join(programFiles, "NVIDIA Corporation", "NVIDIA Video Effects"),
	}
}
