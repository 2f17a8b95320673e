package cv

import (
	"fmt"
)

// ErrLoad means the CVImage library could not be located, or one of its
// required entry points is missing.
type ErrLoad struct {
	Err error
}

func (e ErrLoad) Error() string {
	return fmt.Sprintf("unable to load the CVImage library: %v", e.Err)
}

func (e ErrLoad) Unwrap() error {
	return e.Err
}

// ErrAlloc means a device buffer could not be allocated (out of memory or
// invalid geometry).
type ErrAlloc struct {
	Width  uint32
	Height uint32
	Status Status
	Detail string
}

func (e ErrAlloc) Error() string {
	return fmt.Sprintf(
		"unable to allocate a %dx%d image buffer: %s (%s)",
		e.Width, e.Height, e.Status, e.Detail,
	)
}

// ErrMap means a texture's backing resource could not be mapped for (or
// unmapped from) CUDA access.
type ErrMap struct {
	Op     string
	Status Status
	Detail string
}

func (e ErrMap) Error() string {
	return fmt.Sprintf("unable to %s the texture resource: %s (%s)", e.Op, e.Status, e.Detail)
}

// ErrTransfer means a device-to-device conversion/copy failed; the frame it
// belonged to must be dropped.
type ErrTransfer struct {
	Status Status
	Detail string
}

func (e ErrTransfer) Error() string {
	return fmt.Sprintf("image transfer failed: %s (%s)", e.Status, e.Detail)
}
