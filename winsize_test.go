package mcat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want Size
	}{
		{"1920x1080", Size{Width: 1920, Height: 1080}},
		{"100x20", Size{Width: 100, Height: 20}},
		{"100x20force", Size{Width: 100, Height: 20, Force: true}},
		{"1920x1080force", Size{Width: 1920, Height: 1080, Force: true}},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseSizeInvalid(t *testing.T) {
	for _, in := range []string{"", "1920", "x1080", "1920x", "axb", "1920x1080x2"} {
		_, err := ParseSize(in)
		assert.Error(t, err, "input %q should be rejected", in)
	}
}

func TestProbeWinSizeForcedFallbacks(t *testing.T) {
	win := probeWinSize(WinSizeOptions{
		SpxFallback: Size{Width: 1920, Height: 1080, Force: true},
		ScFallback:  Size{Width: 100, Height: 30, Force: true},
		Scale:       1.0,
	})
	assert.Equal(t, uint16(1920), win.SpxWidth)
	assert.Equal(t, uint16(1080), win.SpxHeight)
	assert.Equal(t, uint16(100), win.ScWidth)
	assert.Equal(t, uint16(30), win.ScHeight)
}

func TestProbeWinSizeScale(t *testing.T) {
	win := probeWinSize(WinSizeOptions{
		SpxFallback: Size{Width: 1000, Height: 500, Force: true},
		ScFallback:  Size{Width: 100, Height: 20, Force: true},
		Scale:       0.5,
	})
	assert.Equal(t, uint16(500), win.SpxWidth, "scale halves the pixel width")
	assert.Equal(t, uint16(50), win.ScWidth, "scale halves the column count")
	assert.Equal(t, uint16(500), win.SpxHeight, "heights are not scaled")
	assert.Equal(t, uint16(20), win.ScHeight)
}

func TestProbeWinSizePixelsNeverBelowCells(t *testing.T) {
	win := probeWinSize(WinSizeOptions{
		SpxFallback: Size{Width: 10, Height: 5, Force: true},
		ScFallback:  Size{Width: 100, Height: 30, Force: true},
		Scale:       1.0,
	})
	assert.GreaterOrEqual(t, win.SpxWidth, win.ScWidth)
	assert.GreaterOrEqual(t, win.SpxHeight, win.ScHeight)
}

func TestInitWinSizeOnce(t *testing.T) {
	opts := WinSizeOptions{
		SpxFallback: Size{Width: 1920, Height: 1080, Force: true},
		ScFallback:  Size{Width: 100, Height: 30, Force: true},
		Scale:       1.0,
	}
	RefreshWinSize(opts)

	err := InitWinSize(opts)
	assert.ErrorIs(t, err, ErrWinSizeInitialized)
}

func TestGetWinSizeStable(t *testing.T) {
	opts := WinSizeOptions{
		SpxFallback: Size{Width: 1920, Height: 1080, Force: true},
		ScFallback:  Size{Width: 100, Height: 30, Force: true},
		Scale:       1.0,
	}
	RefreshWinSize(opts)

	a := GetWinSize()
	b := GetWinSize()
	assert.Same(t, a, b, "reads never re-probe")
}

func TestCellPixelSize(t *testing.T) {
	win := &WinSize{ScWidth: 100, ScHeight: 30, SpxWidth: 1920, SpxHeight: 1080}
	assert.InDelta(t, 19.2, win.CellPixelWidth(), 0.001)
	assert.InDelta(t, 36.0, win.CellPixelHeight(), 0.001)
}
