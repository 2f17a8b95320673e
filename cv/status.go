package cv

import (
	"fmt"
)

// Status is an NvCV_Status code; it is shared by the CVImage and Video
// Effects entry points.
type Status int32

const (
	StatusSuccess              Status = 0
	StatusErrGeneral           Status = -1
	StatusErrUnimplemented     Status = -2
	StatusErrMemory            Status = -3
	StatusErrEffect            Status = -4
	StatusErrSelector          Status = -5
	StatusErrBuffer            Status = -6
	StatusErrParameter         Status = -7
	StatusErrMismatch          Status = -8
	StatusErrPixelFormat       Status = -9
	StatusErrModel             Status = -10
	StatusErrLibrary           Status = -11
	StatusErrInitialization    Status = -12
	StatusErrFile              Status = -13
	StatusErrFeatureNotFound   Status = -14
	StatusErrMissingInput      Status = -15
	StatusErrResolution        Status = -16
	StatusErrUnsupportedGPU    Status = -17
	StatusErrWrongGPU          Status = -18
	StatusErrUnsupportedDriver Status = -19
	StatusErrCudaMemory        Status = -20
	StatusErrCudaValue         Status = -21
	StatusErrCudaPitch         Status = -22
	StatusErrCudaInit          Status = -23
	StatusErrCudaLaunch        Status = -24
	StatusErrCudaKernel        Status = -25
	StatusErrCudaDriver        Status = -26
	StatusErrCudaUnsupported   Status = -27
	StatusErrCudaIllegalAddress Status = -28
	StatusErrCuda              Status = -30
)

var statusNames = map[Status]string{
	StatusSuccess:               "NVCV_SUCCESS",
	StatusErrGeneral:            "NVCV_ERR_GENERAL",
	StatusErrUnimplemented:      "NVCV_ERR_UNIMPLEMENTED",
	StatusErrMemory:             "NVCV_ERR_MEMORY",
	StatusErrEffect:             "NVCV_ERR_EFFECT",
	StatusErrSelector:           "NVCV_ERR_SELECTOR",
	StatusErrBuffer:             "NVCV_ERR_BUFFER",
	StatusErrParameter:          "NVCV_ERR_PARAMETER",
	StatusErrMismatch:           "NVCV_ERR_MISMATCH",
	StatusErrPixelFormat:        "NVCV_ERR_PIXELFORMAT",
	StatusErrModel:              "NVCV_ERR_MODEL",
	StatusErrLibrary:            "NVCV_ERR_LIBRARY",
	StatusErrInitialization:     "NVCV_ERR_INITIALIZATION",
	StatusErrFile:               "NVCV_ERR_FILE",
	StatusErrFeatureNotFound:    "NVCV_ERR_FEATURENOTFOUND",
	StatusErrMissingInput:       "NVCV_ERR_MISSINGINPUT",
	StatusErrResolution:         "NVCV_ERR_RESOLUTION",
	StatusErrUnsupportedGPU:     "NVCV_ERR_UNSUPPORTEDGPU",
	StatusErrWrongGPU:           "NVCV_ERR_WRONGGPU",
	StatusErrUnsupportedDriver:  "NVCV_ERR_UNSUPPORTEDDRIVER",
	StatusErrCudaMemory:         "NVCV_ERR_CUDA_MEMORY",
	StatusErrCudaValue:          "NVCV_ERR_CUDA_VALUE",
	StatusErrCudaPitch:          "NVCV_ERR_CUDA_PITCH",
	StatusErrCudaInit:           "NVCV_ERR_CUDA_INIT",
	StatusErrCudaLaunch:         "NVCV_ERR_CUDA_LAUNCH",
	StatusErrCudaKernel:         "NVCV_ERR_CUDA_KERNEL",
	StatusErrCudaDriver:         "NVCV_ERR_CUDA_DRIVER",
	StatusErrCudaUnsupported:    "NVCV_ERR_CUDA_UNSUPPORTED",
	StatusErrCudaIllegalAddress: "NVCV_ERR_CUDA_ILLEGALADDRESS",
	StatusErrCuda:               "NVCV_ERR_CUDA",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("NVCV_ERR(%d)", int32(s))
}
