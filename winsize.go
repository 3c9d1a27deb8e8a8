package mcat

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/michael-eddy/mcat/pkg/csi"
)

// Size is a fallback terminal dimension in either pixels or cells. Force
// makes the value win over anything the terminal reports.
type Size struct {
	Width  uint16
	Height uint16
	Force  bool
}

// ParseSize parses a "<width>x<height>" string, with an optional "force"
// suffix ("100x20force") that disables probing for that dimension pair.
func ParseSize(s string) (Size, error) {
	force := strings.Contains(s, "force")
	trimmed := strings.ReplaceAll(s, "force", "")
	parts := strings.SplitN(trimmed, "x", 2)
	if len(parts) != 2 {
		return Size{}, fmt.Errorf("invalid size %q: expected <width>x<height>", s)
	}
	w, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 16)
	if err != nil {
		return Size{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	h, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 16)
	if err != nil {
		return Size{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return Size{Width: uint16(w), Height: uint16(h), Force: force}, nil
}

// WinSize is the terminal geometry every layout decision is based on: the
// text area in character cells and in pixels. It is resolved once per
// process and treated as read-only afterwards.
type WinSize struct {
	ScWidth   uint16 // columns
	ScHeight  uint16 // rows
	SpxWidth  uint16 // text area width in pixels
	SpxHeight uint16 // text area height in pixels
	IsTmux    bool
}

// CellPixelWidth returns the width of one character cell in pixels.
func (w *WinSize) CellPixelWidth() float64 {
	if w.ScWidth == 0 {
		return 1
	}
	return float64(w.SpxWidth) / float64(w.ScWidth)
}

// CellPixelHeight returns the height of one character cell in pixels.
func (w *WinSize) CellPixelHeight() float64 {
	if w.ScHeight == 0 {
		return 1
	}
	return float64(w.SpxHeight) / float64(w.ScHeight)
}

// WinSizeOptions configures how the window size is resolved. The fallbacks
// fill in whatever the terminal fails to report; Scale shrinks or grows
// the logical box (not the image) while keeping it centered.
type WinSizeOptions struct {
	SpxFallback Size
	ScFallback  Size
	Scale       float32
}

// DefaultWinSizeOptions are the documented fallbacks used when the caller
// never initialized the window size explicitly.
func DefaultWinSizeOptions() WinSizeOptions {
	return WinSizeOptions{
		SpxFallback: Size{Width: 1920, Height: 1080},
		ScFallback:  Size{Width: 100, Height: 20},
		Scale:       1.0,
	}
}

var (
	winMu   sync.Mutex
	winInfo *WinSize
)

// InitWinSize resolves the process-wide window size exactly once. A second
// call returns ErrWinSizeInitialized; use RefreshWinSize for a deliberate
// re-probe (e.g. after a terminal resize).
func InitWinSize(opts WinSizeOptions) error {
	winMu.Lock()
	defer winMu.Unlock()
	if winInfo != nil {
		return ErrWinSizeInitialized
	}
	winInfo = probeWinSize(opts)
	return nil
}

// RefreshWinSize replaces the cached window size with a fresh probe. It is
// an explicit call, never a side effect of a read.
func RefreshWinSize(opts WinSizeOptions) *WinSize {
	winMu.Lock()
	defer winMu.Unlock()
	winInfo = probeWinSize(opts)
	return winInfo
}

// GetWinSize returns the cached window size, lazily resolving it with the
// default fallbacks on first use.
func GetWinSize() *WinSize {
	winMu.Lock()
	defer winMu.Unlock()
	if winInfo == nil {
		winInfo = probeWinSize(DefaultWinSizeOptions())
	}
	return winInfo
}

// probeWinSize queries the terminal for pixel and cell geometry. A terminal
// that cannot answer must still produce a usable layout, so every probe
// failure degrades to the supplied fallback rather than an error.
func probeWinSize(opts WinSizeOptions) *WinSize {
	var spxW, spxH, scW, scH int

	if !opts.SpxFallback.Force {
		spxW, spxH, _ = csi.QueryTextAreaSizeInPixels()
	}
	if !opts.ScFallback.Force {
		if cols, rows, err := csi.QueryWindowCells(); err == nil {
			scW, scH = cols, rows
		} else if cols, rows, ok := csi.QueryTextAreaSizeInCells(); ok {
			scW, scH = cols, rows
		}
	}

	// A terminal that won't report the text area size sometimes still
	// reports the cell size, which recovers the same information.
	if !opts.SpxFallback.Force && (spxW <= 0 || spxH <= 0) && scW > 0 && scH > 0 {
		if cellW, cellH, ok := csi.QueryCellSizeInPixels(); ok {
			spxW, spxH = cellW*scW, cellH*scH
		}
	}

	if spxW <= 0 || spxH <= 0 {
		spxW = int(opts.SpxFallback.Width)
		spxH = int(opts.SpxFallback.Height)
	}
	if scW <= 0 || scH <= 0 {
		scW = int(opts.ScFallback.Width)
		scH = int(opts.ScFallback.Height)
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1.0
	}
	spxW = int(float32(spxW) * scale)
	scW = int(float32(scW) * scale)

	// A text area can never be smaller in pixels than in cells.
	if spxW < scW {
		spxW = scW
	}
	if spxH < scH {
		spxH = scH
	}

	return &WinSize{
		ScWidth:   uint16(scW),
		ScHeight:  uint16(scH),
		SpxWidth:  uint16(spxW),
		SpxHeight: uint16(spxH),
		IsTmux:    inTmux(),
	}
}
