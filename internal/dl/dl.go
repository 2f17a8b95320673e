// Package dl loads shared libraries at runtime and binds their exported
// functions to Go function pointers.
//
// It is a thin wrapper around github.com/ebitengine/purego: symbols are
// resolved explicitly first, so a missing export is reported as an error
// instead of a panic, which lets callers bind a whole function table
// all-or-nothing.
package dl

import (
	"context"
	"fmt"

	"github.com/ebitengine/purego"
	"github.com/xaionaro-go/nvvfx/logger"
)

// Library is a loaded shared library.
type Library struct {
	path   string
	handle uintptr
}

// Open loads the shared library at the given path (or soname, if it is
// resolvable through the system's default search path).
func Open(ctx context.Context, path string) (_ret *Library, _err error) {
	logger.Debugf(ctx, "Open(ctx, '%s')", path)
	defer func() { logger.Debugf(ctx, "/Open(ctx, '%s'): %p %v", path, _ret, _err) }()

	handle, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load '%s': %w", path, err)
	}
	return &Library{
		path:   path,
		handle: handle,
	}, nil
}

// Path returns the path (or soname) the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Register binds the exported function `name` to the Go function pointed to
// by fnPtr (which must be a pointer to a function variable, see
// purego.RegisterLibFunc).
func (l *Library) Register(ctx context.Context, name string, fnPtr any) error {
	if _, err := l.lookup(name); err != nil {
		return fmt.Errorf("unable to resolve symbol '%s' in '%s': %w", name, l.path, err)
	}
	purego.RegisterLibFunc(fnPtr, l.handle, name)
	return nil
}

// Lookup resolves the address of the exported symbol `name`.
func (l *Library) Lookup(name string) (uintptr, error) {
	addr, err := l.lookup(name)
	if err != nil {
		return 0, fmt.Errorf("unable to resolve symbol '%s' in '%s': %w", name, l.path, err)
	}
	return addr, nil
}

// Close unloads the library. The Library must not be used afterwards.
func (l *Library) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close(ctx): '%s'", l.path)
	defer func() { logger.Debugf(ctx, "/Close(ctx): '%s': %v", l.path, _err) }()

	if l.handle == 0 {
		return nil
	}
	err := closeHandle(l.handle)
	l.handle = 0
	if err != nil {
		return fmt.Errorf("unable to unload '%s': %w", l.path, err)
	}
	return nil
}
