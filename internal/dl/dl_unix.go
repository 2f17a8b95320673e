//go:build !windows

package dl

import (
	"github.com/ebitengine/purego"
)

func open(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func (l *Library) lookup(name string) (uintptr, error) {
	return purego.Dlsym(l.handle, name)
}

func closeHandle(handle uintptr) error {
	return purego.Dlclose(handle)
}
