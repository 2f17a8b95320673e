package vfx

import (
	"fmt"

	"github.com/xaionaro-go/nvvfx/cv"
)

// ErrLoad means the Video Effects library could not be located, or one of
// its required entry points is missing.
type ErrLoad struct {
	Err error
}

func (e ErrLoad) Error() string {
	return fmt.Sprintf("unable to load the Video Effects library: %v", e.Err)
}

func (e ErrLoad) Unwrap() error {
	return e.Err
}

// ErrVersion means the installed SDK is older than the oldest release this
// binding knows how to talk to.
type ErrVersion struct {
	Found   Version
	Minimum Version
}

func (e ErrVersion) Error() string {
	return fmt.Sprintf("the installed Video Effects SDK is too old: %s < %s", e.Found, e.Minimum)
}

// ErrParameter means the vendor rejected a setting (invalid selector, wrong
// type for a key, ...). Detail carries the vendor's diagnostic string.
type ErrParameter struct {
	Key    string
	Status cv.Status
	Detail string
}

func (e ErrParameter) Error() string {
	return fmt.Sprintf("the effect rejected parameter '%s': %s (%s)", e.Key, e.Status, e.Detail)
}

// ErrRun means an inference pass failed.
type ErrRun struct {
	Status cv.Status
	Detail string
}

func (e ErrRun) Error() string {
	return fmt.Sprintf("the effect run failed: %s (%s)", e.Status, e.Detail)
}

// ErrState means an operation was invoked in a state it is not valid in
// (e.g. Run before Load).
type ErrState struct {
	Op    string
	State string
}

func (e ErrState) Error() string {
	return fmt.Sprintf("'%s' is not valid while the effect is %s", e.Op, e.State)
}
