package dl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xaionaro-go/nvvfx/logger"
)

// OpenVendor implements the search order shared by the NVIDIA SDK
// libraries: the plain soname first (it may already be on the loader's
// default search path), then the SDK roots named by the given environment
// variables, then the well-known per-OS install directories. Every root is
// probed for both <root>/<soname> and <root>/lib/<soname>.
func OpenVendor(
	ctx context.Context,
	soname string,
	envVars []string,
	installRoots []string,
) (_ret *Library, _err error) {
	logger.Debugf(ctx, "OpenVendor(ctx, '%s', %v, %v)", soname, envVars, installRoots)
	defer func() { logger.Debugf(ctx, "/OpenVendor(ctx, '%s'): %p %v", soname, _ret, _err) }()

	library, sonameErr := Open(ctx, soname)
	if sonameErr == nil {
		return library, nil
	}
	logger.Debugf(ctx, "'%s' is not on the default search path: %v", soname, sonameErr)

	candidates := vendorCandidates(soname, envVars, installRoots)

	var lastErr error
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		library, err := Open(ctx, path)
		if err == nil {
			return library, nil
		}
		logger.Warnf(ctx, "unable to load '%s' from '%s': %v", soname, path, err)
		lastErr = err
	}
	if lastErr == nil {
		return nil, fmt.Errorf("no supported NVIDIA SDK is installed to provide '%s': %w", soname, sonameErr)
	}
	return nil, fmt.Errorf("all attempts at loading '%s' have failed: %w", soname, lastErr)
}

// vendorCandidates builds the probe list: environment-variable roots first
// (the user's explicit choice wins), then the default install directories.
func vendorCandidates(soname string, envVars []string, installRoots []string) []string {
	var roots []string
	for _, envName := range envVars {
		if root := os.Getenv(envName); root != "" {
			roots = append(roots, root)
		}
	}
	roots = append(roots, installRoots...)

	var candidates []string
	for _, root := range roots {
		candidates = append(
			candidates,
			filepath.Join(root, soname),
			filepath.Join(root, "lib", soname),
		)
	}
	return candidates
}
