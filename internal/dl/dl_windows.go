//go:build windows

package dl

import (
	"syscall"
)

func open(path string) (uintptr, error) {
	dll, err := syscall.LoadDLL(path)
	if err != nil {
		return 0, err
	}
	return uintptr(dll.Handle), nil
}

func (l *Library) lookup(name string) (uintptr, error) {
	return syscall.GetProcAddress(syscall.Handle(l.handle), name)
}

func closeHandle(handle uintptr) error {
	return syscall.FreeLibrary(syscall.Handle(handle))
}
