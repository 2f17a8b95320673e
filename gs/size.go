package gs

import (
	"fmt"
)

// Size is a texture/frame geometry in pixels.
type Size struct {
	Width  uint32
	Height uint32
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// IsZero reports whether either dimension is zero (an invalid geometry for
// every operation in this module).
func (s Size) IsZero() bool {
	return s.Width == 0 || s.Height == 0
}

// AspectRatio is width/height.
func (s Size) AspectRatio() float64 {
	if s.Height == 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}
