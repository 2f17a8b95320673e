package cv

// The numeric values below are part of the vendor ABI (NvCVImage.h); do not
// renumber.

// PixelFormat is an NvCVImage_PixelFormat.
type PixelFormat uint32

const (
	PixelFormatUnknown PixelFormat = 0
	PixelFormatY       PixelFormat = 1
	PixelFormatA       PixelFormat = 2
	PixelFormatYA      PixelFormat = 3
	PixelFormatRGB     PixelFormat = 4
	PixelFormatBGR     PixelFormat = 5
	PixelFormatRGBA    PixelFormat = 6
	PixelFormatBGRA    PixelFormat = 7
	PixelFormatARGB    PixelFormat = 8
	PixelFormatABGR    PixelFormat = 9
	PixelFormatYUV420  PixelFormat = 10
	PixelFormatYUV422  PixelFormat = 11
	PixelFormatYUV444  PixelFormat = 12
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatY:
		return "Y"
	case PixelFormatA:
		return "A"
	case PixelFormatYA:
		return "YA"
	case PixelFormatRGB:
		return "RGB"
	case PixelFormatBGR:
		return "BGR"
	case PixelFormatRGBA:
		return "RGBA"
	case PixelFormatBGRA:
		return "BGRA"
	case PixelFormatARGB:
		return "ARGB"
	case PixelFormatABGR:
		return "ABGR"
	case PixelFormatYUV420:
		return "YUV420"
	case PixelFormatYUV422:
		return "YUV422"
	case PixelFormatYUV444:
		return "YUV444"
	default:
		return "unknown"
	}
}

// ComponentType is an NvCVImage_ComponentType.
type ComponentType uint32

const (
	ComponentTypeUnknown ComponentType = 0
	ComponentTypeUint8   ComponentType = 1
	ComponentTypeUint16  ComponentType = 2
	ComponentTypeSint16  ComponentType = 3
	ComponentTypeFloat16 ComponentType = 4
	ComponentTypeUint32  ComponentType = 5
	ComponentTypeSint32  ComponentType = 6
	ComponentTypeFloat32 ComponentType = 7
	ComponentTypeUint64  ComponentType = 8
	ComponentTypeSint64  ComponentType = 9
	ComponentTypeFloat64 ComponentType = 10
)

func (t ComponentType) String() string {
	switch t {
	case ComponentTypeUint8:
		return "u8"
	case ComponentTypeUint16:
		return "u16"
	case ComponentTypeSint16:
		return "s16"
	case ComponentTypeFloat16:
		return "f16"
	case ComponentTypeUint32:
		return "u32"
	case ComponentTypeSint32:
		return "s32"
	case ComponentTypeFloat32:
		return "f32"
	case ComponentTypeUint64:
		return "u64"
	case ComponentTypeSint64:
		return "s64"
	case ComponentTypeFloat64:
		return "f64"
	default:
		return "unknown"
	}
}

// Size returns the width of one component in bytes.
func (t ComponentType) Size() uint32 {
	switch t {
	case ComponentTypeUint8:
		return 1
	case ComponentTypeUint16, ComponentTypeSint16, ComponentTypeFloat16:
		return 2
	case ComponentTypeUint32, ComponentTypeSint32, ComponentTypeFloat32:
		return 4
	case ComponentTypeUint64, ComponentTypeSint64, ComponentTypeFloat64:
		return 8
	default:
		return 0
	}
}

// ComponentLayout is an NvCVImage layout: chunky keeps all components of a
// pixel adjacent, planar stores one plane per component.
type ComponentLayout uint8

const (
	ComponentLayoutChunky ComponentLayout = 0
	ComponentLayoutPlanar ComponentLayout = 1
)

func (l ComponentLayout) String() string {
	switch l {
	case ComponentLayoutChunky:
		return "chunky"
	case ComponentLayoutPlanar:
		return "planar"
	default:
		return "unknown"
	}
}

// MemoryLocation is an NvCVImage memory space.
type MemoryLocation uint8

const (
	MemoryLocationCPU       MemoryLocation = 0
	MemoryLocationGPU       MemoryLocation = 1
	MemoryLocationCPUPinned MemoryLocation = 2
	MemoryLocationCudaArray MemoryLocation = 3
)

func (m MemoryLocation) String() string {
	switch m {
	case MemoryLocationCPU:
		return "CPU"
	case MemoryLocationGPU:
		return "GPU"
	case MemoryLocationCPUPinned:
		return "CPU-pinned"
	case MemoryLocationCudaArray:
		return "CUDA-array"
	default:
		return "unknown"
	}
}

// componentCount returns the amount of components per pixel for the format.
func (f PixelFormat) componentCount() uint32 {
	switch f {
	case PixelFormatY, PixelFormatA:
		return 1
	case PixelFormatYA:
		return 2
	case PixelFormatRGB, PixelFormatBGR, PixelFormatYUV420, PixelFormatYUV422, PixelFormatYUV444:
		return 3
	case PixelFormatRGBA, PixelFormatBGRA, PixelFormatARGB, PixelFormatABGR:
		return 4
	default:
		return 0
	}
}
