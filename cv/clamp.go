package cv

import (
	"math"

	"github.com/xaionaro-go/nvvfx/gs"
)

// The size envelope of the size-constrained vendor effects: the shorter
// edge must land within [80, 1080] pixels. Effects that accept arbitrary
// geometries do not apply any clamp; this envelope is per-effect metadata,
// not a property of the image layer.
const (
	MinShortEdge = 80
	MaxShortEdge = 1080
)

// ClampShortEdge clamps the shorter edge of size into [minShort, maxShort]
// and derives the longer edge from the original aspect ratio, rounding to
// the nearest integer pixel. A size already inside the envelope is returned
// unchanged.
func ClampShortEdge(size gs.Size, minShort, maxShort uint32) gs.Size {
	if size.IsZero() {
		return size
	}

	if size.Width > size.Height {
		height := clamp(size.Height, minShort, maxShort)
		if height == size.Height {
			return size
		}
		aspect := float64(size.Width) / float64(size.Height)
		return gs.Size{
			Width:  uint32(math.Round(float64(height) * aspect)),
			Height: height,
		}
	}

	width := clamp(size.Width, minShort, maxShort)
	if width == size.Width {
		return size
	}
	aspect := float64(size.Height) / float64(size.Width)
	return gs.Size{
		Width:  width,
		Height: uint32(math.Round(float64(width) * aspect)),
	}
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
