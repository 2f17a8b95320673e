package cv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The numeric values are handed straight to the vendor library, so they must
// match NvCVImage.h exactly; this pins them against accidental renumbering.
func TestPixelFormatABIValues(t *testing.T) {
	for value, format := range map[uint32]PixelFormat{
		0:  PixelFormatUnknown,
		1:  PixelFormatY,
		2:  PixelFormatA,
		3:  PixelFormatYA,
		4:  PixelFormatRGB,
		5:  PixelFormatBGR,
		6:  PixelFormatRGBA,
		7:  PixelFormatBGRA,
		8:  PixelFormatARGB,
		9:  PixelFormatABGR,
		10: PixelFormatYUV420,
		11: PixelFormatYUV422,
		12: PixelFormatYUV444,
	} {
		require.Equal(t, value, uint32(format), "format %s", format)
	}
}

func TestComponentTypeABIValues(t *testing.T) {
	for value, componentType := range map[uint32]ComponentType{
		0:  ComponentTypeUnknown,
		1:  ComponentTypeUint8,
		2:  ComponentTypeUint16,
		3:  ComponentTypeSint16,
		4:  ComponentTypeFloat16,
		5:  ComponentTypeUint32,
		6:  ComponentTypeSint32,
		7:  ComponentTypeFloat32,
		8:  ComponentTypeUint64,
		9:  ComponentTypeSint64,
		10: ComponentTypeFloat64,
	} {
		require.Equal(t, value, uint32(componentType), "component type %s", componentType)
	}
}

func TestPixelGeometryHelpers(t *testing.T) {
	require.Equal(t, uint32(1), PixelFormatA.componentCount())
	require.Equal(t, uint32(2), PixelFormatYA.componentCount())
	require.Equal(t, uint32(3), PixelFormatBGR.componentCount())
	require.Equal(t, uint32(4), PixelFormatBGRA.componentCount())
	require.Equal(t, uint32(0), PixelFormatUnknown.componentCount())

	require.Equal(t, uint32(1), ComponentTypeUint8.Size())
	require.Equal(t, uint32(2), ComponentTypeFloat16.Size())
	require.Equal(t, uint32(4), ComponentTypeFloat32.Size())
	require.Equal(t, uint32(8), ComponentTypeFloat64.Size())
	require.Equal(t, uint32(0), ComponentTypeUnknown.Size())
}
