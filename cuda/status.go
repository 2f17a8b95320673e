package cuda

import (
	"fmt"
	"unsafe"
)

// Result is a CUDA driver API status code (CUresult).
type Result int32

const (
	ResultSuccess                Result = 0
	ResultErrorInvalidValue      Result = 1
	ResultErrorOutOfMemory       Result = 2
	ResultErrorNotInitialized    Result = 3
	ResultErrorDeinitialized     Result = 4
	ResultErrorNoDevice          Result = 100
	ResultErrorInvalidDevice     Result = 101
	ResultErrorInvalidContext    Result = 201
	ResultErrorContextIsDestroyed Result = 709
	ResultErrorNotSupported      Result = 801
	ResultErrorUnknown           Result = 999
)

var resultNames = map[Result]string{
	ResultSuccess:                 "CUDA_SUCCESS",
	ResultErrorInvalidValue:       "CUDA_ERROR_INVALID_VALUE",
	ResultErrorOutOfMemory:        "CUDA_ERROR_OUT_OF_MEMORY",
	ResultErrorNotInitialized:     "CUDA_ERROR_NOT_INITIALIZED",
	ResultErrorDeinitialized:      "CUDA_ERROR_DEINITIALIZED",
	ResultErrorNoDevice:           "CUDA_ERROR_NO_DEVICE",
	ResultErrorInvalidDevice:      "CUDA_ERROR_INVALID_DEVICE",
	ResultErrorInvalidContext:     "CUDA_ERROR_INVALID_CONTEXT",
	ResultErrorContextIsDestroyed: "CUDA_ERROR_CONTEXT_IS_DESTROYED",
	ResultErrorNotSupported:       "CUDA_ERROR_NOT_SUPPORTED",
	ResultErrorUnknown:            "CUDA_ERROR_UNKNOWN",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("CUDA_ERROR(%d)", int32(r))
}

// Err returns nil on success and an error describing the code otherwise.
func (r Result) Err() error {
	if r == ResultSuccess {
		return nil
	}
	return fmt.Errorf("%s", r.String())
}

// ErrorString asks the driver to describe the code (cuGetErrorString), so
// codes missing from the static table above still come out readable. Falls
// back to String() when the driver cannot (or a fake table does not bind it).
func (l *Lib) ErrorString(r Result) string {
	if l.GetErrorString != nil {
		var p *byte
		if res := l.GetErrorString(r, &p); res == ResultSuccess && p != nil {
			return goString(p)
		}
	}
	return r.String()
}

func goString(p *byte) string {
	var n int
	for ptr := unsafe.Pointer(p); *(*byte)(unsafe.Add(ptr, n)) != 0; {
		n++
	}
	return string(unsafe.Slice(p, n))
}
