package cv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/nvvfx/gs"
)

func TestClampShortEdge(t *testing.T) {
	for _, tc := range []struct {
		name     string
		in       gs.Size
		expected gs.Size
	}{
		{"already-inside", gs.Size{Width: 1920, Height: 1080}, gs.Size{Width: 1920, Height: 1080}},
		{"lower-bound", gs.Size{Width: 142, Height: 80}, gs.Size{Width: 142, Height: 80}},
		{"too-big-landscape", gs.Size{Width: 4000, Height: 2000}, gs.Size{Width: 2160, Height: 1080}},
		{"too-big-portrait", gs.Size{Width: 1200, Height: 2400}, gs.Size{Width: 1080, Height: 2160}},
		{"too-small-landscape", gs.Size{Width: 100, Height: 50}, gs.Size{Width: 160, Height: 80}},
		{"too-small-portrait", gs.Size{Width: 50, Height: 100}, gs.Size{Width: 80, Height: 160}},
		{"square-too-small", gs.Size{Width: 60, Height: 60}, gs.Size{Width: 80, Height: 80}},
		{"zero", gs.Size{}, gs.Size{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, ClampShortEdge(tc.in, MinShortEdge, MaxShortEdge))
		})
	}
}

func TestClampShortEdgePreservesAspect(t *testing.T) {
	in := gs.Size{Width: 3840, Height: 2160}
	out := ClampShortEdge(in, MinShortEdge, MaxShortEdge)
	require.Equal(t, in.AspectRatio(), out.AspectRatio())
}
