package mcat

import (
	"errors"
	"image"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// SizeDirection selects which terminal axis a dimension spec is resolved
// against.
type SizeDirection int

const (
	DirWidth SizeDirection = iota
	DirHeight
)

// ResolvePixels converts a dimension spec into absolute pixels. Accepted
// forms are "<n>px", "<n>%" (of the terminal axis), "<n>c" (cells), or a
// bare number, which is taken as pixels. Resolution is pure: the same spec
// and window always yield the same value.
func ResolvePixels(spec string, dir SizeDirection, win *WinSize) (uint32, error) {
	spec = strings.TrimSpace(spec)
	if n, err := strconv.ParseUint(spec, 10, 32); err == nil {
		return uint32(n), nil
	}

	spx, sc := axis(dir, win)

	switch {
	case strings.HasSuffix(spec, "px"):
		n, err := strconv.ParseUint(strings.TrimSuffix(spec, "px"), 10, 32)
		if err != nil {
			return 0, &InvalidSpecError{Spec: spec}
		}
		return uint32(n), nil
	case strings.HasSuffix(spec, "c"):
		n, err := strconv.ParseUint(strings.TrimSuffix(spec, "c"), 10, 16)
		if err != nil {
			return 0, &InvalidSpecError{Spec: spec}
		}
		if sc == 0 {
			return 0, &InvalidSpecError{Spec: spec}
		}
		return uint32(math.Round(float64(spx) / float64(sc) * float64(n))), nil
	case strings.HasSuffix(spec, "%"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(spec, "%"), 32)
		if err != nil {
			return 0, &InvalidSpecError{Spec: spec}
		}
		return uint32(math.Round(float64(spx) * f / 100.0)), nil
	}
	return 0, &InvalidSpecError{Spec: spec}
}

// ResolveCells converts a dimension spec into character cells. A bare
// number is taken as cells; "px" values are divided by the cell pixel
// size; "%" is of the terminal axis in cells.
func ResolveCells(spec string, dir SizeDirection, win *WinSize) (uint32, error) {
	spec = strings.TrimSpace(spec)
	if n, err := strconv.ParseUint(spec, 10, 32); err == nil {
		return uint32(n), nil
	}

	spx, sc := axis(dir, win)

	switch {
	case strings.HasSuffix(spec, "c"):
		n, err := strconv.ParseUint(strings.TrimSuffix(spec, "c"), 10, 32)
		if err != nil {
			return 0, &InvalidSpecError{Spec: spec}
		}
		return uint32(n), nil
	case strings.HasSuffix(spec, "px"):
		n, err := strconv.ParseUint(strings.TrimSuffix(spec, "px"), 10, 32)
		if err != nil {
			return 0, &InvalidSpecError{Spec: spec}
		}
		if spx == 0 || sc == 0 {
			return 0, &InvalidSpecError{Spec: spec}
		}
		return uint32(math.Round(float64(n) / (float64(spx) / float64(sc)))), nil
	case strings.HasSuffix(spec, "%"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(spec, "%"), 32)
		if err != nil {
			return 0, &InvalidSpecError{Spec: spec}
		}
		return uint32(math.Round(float64(sc) * f / 100.0)), nil
	}
	return 0, &InvalidSpecError{Spec: spec}
}

func axis(dir SizeDirection, win *WinSize) (spx, sc uint16) {
	switch dir {
	case DirHeight:
		return win.SpxHeight, win.ScHeight
	default:
		return win.SpxWidth, win.ScWidth
	}
}

// CalcFit scales src dimensions into the dst bounding box preserving
// aspect ratio.
func CalcFit(srcW, srcH, dstW, dstH uint32) (uint32, uint32) {
	if srcW == 0 || srcH == 0 || dstW == 0 || dstH == 0 {
		return srcW, srcH
	}
	srcAR := float64(srcW) / float64(srcH)
	dstAR := float64(dstW) / float64(dstH)

	if srcAR > dstAR {
		// wider than the target: scale by width
		return dstW, uint32(math.Round(float64(dstW) / srcAR))
	}
	return uint32(math.Round(float64(dstH) * srcAR)), dstH
}

// CenterOffset returns the number of leading columns needed to center an
// image horizontally. imageWidth is in cells when inCells is true, in
// pixels otherwise. Never negative.
func CenterOffset(imageWidth uint16, inCells bool, win *WinSize) uint16 {
	var offset float64
	if inCells {
		offset = (float64(win.ScWidth) - float64(imageWidth)) / 2.0
	} else {
		offsetPx := (float64(win.SpxWidth) - float64(imageWidth)) / 2.0
		offset = offsetPx / win.CellPixelWidth()
	}
	if offset < 0 {
		return 0
	}
	return uint16(offset)
}

// DefaultDimension is the target used for an axis when the caller gives
// no spec at all: most of the terminal, with room to breathe.
const DefaultDimension = "80%"

// ResizeToFit resizes img to fit the given width/height specs, deriving a
// missing axis from the aspect ratio, and returns the resized image plus
// the centering column offset. When forCells is true the specs resolve to
// cells and the pixel grid is two rows per cell (half blocks).
func ResizeToFit(img image.Image, widthSpec, heightSpec string, forCells bool, win *WinSize) (image.Image, uint16, error) {
	bounds := img.Bounds()
	srcW, srcH := uint32(bounds.Dx()), uint32(bounds.Dy())
	if srcW == 0 || srcH == 0 {
		return nil, 0, errors.New("empty source image")
	}

	if widthSpec == "" && heightSpec == "" {
		widthSpec, heightSpec = DefaultDimension, DefaultDimension
	}

	resolve := ResolvePixels
	if forCells {
		resolve = ResolveCells
	}

	dstW, dstH := srcW, srcH
	if widthSpec != "" {
		w, err := resolve(widthSpec, DirWidth, win)
		if err != nil {
			return nil, 0, err
		}
		dstW = w
	}
	if heightSpec != "" {
		h, err := resolve(heightSpec, DirHeight, win)
		if err != nil {
			return nil, 0, err
		}
		if forCells {
			h *= 2 // each cell is two half-block pixels tall
		}
		dstH = h
	}

	// A single given axis fixes the other through the aspect ratio.
	if widthSpec == "" {
		dstW = uint32(math.Round(float64(dstH) * float64(srcW) / float64(srcH)))
	} else if heightSpec == "" {
		dstH = uint32(math.Round(float64(dstW) * float64(srcH) / float64(srcW)))
	}

	newW, newH := CalcFit(srcW, srcH, dstW, dstH)
	offset := CenterOffset(uint16(newW), forCells, win)

	if newW == srcW && newH == srcH {
		return img, offset, nil
	}
	return scaleImage(img, newW, newH), offset, nil
}

// scaleImage resizes with a quality/speed tradeoff: bilinear for heavy
// downscales, Catmull-Rom otherwise.
func scaleImage(img image.Image, width, height uint32) image.Image {
	bounds := img.Bounds()
	srcPixels := bounds.Dx() * bounds.Dy()
	if srcPixels > int(width*height)*4 {
		return resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// fastScale is the nearest-neighbor path used per video frame, where
// throughput matters more than quality.
func fastScale(img image.Image, width, height uint32) image.Image {
	return resize.Resize(uint(width), uint(height), img, resize.NearestNeighbor)
}

// ZoomPan crops img to 1/level of its width and height around a center
// shifted by panX/panY cell units, clamped so the crop window stays inside
// the image. Levels 0 and 1 are no-ops. The transform is pure: applying it
// twice with the same arguments to the same source yields identical crops.
func ZoomPan(img image.Image, level uint8, panX, panY int, win *WinSize) image.Image {
	if level <= 1 && panX == 0 && panY == 0 {
		return img
	}
	if level == 0 {
		level = 1
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	cropW := srcW / int(level)
	cropH := srcH / int(level)
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}

	// Pan moves the crop center in cell-sized steps of the source image.
	stepX := win.CellPixelWidth()
	stepY := win.CellPixelHeight()

	cropX := clampInt((srcW-cropW)/2+int(float64(panX)*stepX), 0, srcW-cropW)
	cropY := clampInt((srcH-cropH)/2+int(float64(panY)*stepY), 0, srcH-cropH)

	dst := image.NewRGBA(image.Rect(0, 0, cropW, cropH))
	src := image.Rect(
		bounds.Min.X+cropX,
		bounds.Min.Y+cropY,
		bounds.Min.X+cropX+cropW,
		bounds.Min.Y+cropY+cropH,
	)
	draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	return dst
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
