package mcat

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// RenderOptions controls how media is fitted and encoded. Zero values
// mean auto-detect the encoder and fit to the default box; see
// DefaultRenderOptions for the usual starting point.
type RenderOptions struct {
	// Encoder forces a specific encoding; nil means detect from the
	// terminal.
	Encoder *EncoderKind

	// Width and Height are dimension specs ("640px", "80%", "40c" or a
	// bare pixel count). Empty means the default box.
	Width  string
	Height string

	// Center pads the image to the horizontal middle of the terminal.
	Center bool

	// Zoom crops to 1/Zoom of each axis around the pan point. 0 and 1
	// leave the image alone.
	Zoom       uint8
	PanX, PanY int
}

// DefaultRenderOptions mirrors what the CLI does with no flags.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Width:  DefaultDimension,
		Height: DefaultDimension,
		Center: true,
	}
}

// resolveEncoder picks the encoder to use and whether the caller forced
// it.
func (o *RenderOptions) resolveEncoder() (EncoderKind, bool) {
	if o.Encoder != nil {
		return *o.Encoder, true
	}
	return DetectEncoder(), false
}

// InlineImage encodes img for the terminal and writes the complete
// sequence to w in a single call. On error nothing is written and the
// error is an EncodeFailure naming the encoder.
func InlineImage(w io.Writer, img image.Image, opts RenderOptions) error {
	kind, _ := opts.resolveEncoder()
	win := GetWinSize()

	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return &EncodeFailure{Encoder: kind, Err: errors.New("empty source image")}
	}

	img = ZoomPan(img, opts.Zoom, opts.PanX, opts.PanY, win)

	forCells := kind == Ascii
	img, offset, err := ResizeToFit(img, opts.Width, opts.Height, forCells, win)
	if err != nil {
		return err
	}
	if !opts.Center {
		offset = 0
	}

	var buf bytes.Buffer
	switch kind {
	case Kitty:
		err = encodeKittyImage(&buf, img, offset, win)
	case ITerm:
		err = encodeITermImage(&buf, img, offset, win)
	case Sixel:
		err = encodeSixelImage(&buf, img, offset, win)
	case Ascii:
		err = encodeAsciiImage(&buf, img, offset)
	}
	if err != nil {
		return &EncodeFailure{Encoder: kind, Err: err}
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

// InlineImageFile decodes the image at path and inlines it.
func InlineImageFile(w io.Writer, path string, opts RenderOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		// A truncated or corrupt buffer is an encode-side failure, not a
		// caller mistake like a bad dimension spec.
		kind, _ := opts.resolveEncoder()
		return &EncodeFailure{Encoder: kind, Err: err}
	}
	return InlineImage(w, img, opts)
}

// InlineVideo decodes the video at path with ffmpeg and plays it with
/// the chosen encoder. Sixel has no animation form: a forced sixel
// request fails with ErrUnsupportedOperation, a detected one falls back
// to half blocks.
func InlineVideo(ctx context.Context, w io.Writer, path string, opts RenderOptions) error {
	kind, forced := opts.resolveEncoder()
	if kind == Sixel {
		if forced {
			return ErrUnsupportedOperation
		}
		kind = Ascii
	}
	win := GetWinSize()

	switch kind {
	case Kitty:
		return inlineKittyVideo(ctx, w, path, &opts, win)
	case ITerm:
		return inlineITermVideo(ctx, w, path, &opts, win)
	case Ascii:
		fs, err := OpenVideo(ctx, path)
		if err != nil {
			return err
		}
		defer fs.Close()
		return encodeAsciiVideo(ctx, w, fs, opts.Width, opts.Height, opts.Center, win)
	}
	return ErrUnsupportedOperation
}

func inlineKittyVideo(ctx context.Context, w io.Writer, path string, opts *RenderOptions, win *WinSize) error {
	fs, err := OpenVideo(ctx, path)
	if err != nil {
		return err
	}
	defer fs.Close()

	var offset uint16
	if opts.Center {
		cols := uint16(float64(fs.Width()) / win.CellPixelWidth())
		offset = CenterOffset(cols, true, win)
	}

	id, err := encodeKittyAnimation(ctx, w, fs, offset, win)
	if err != nil {
		// Frames already placed must not linger after an interrupted or
		// failed transfer; the delete also sweeps the shm regions.
		if id != 0 {
			_ = KittyDelete(w, id, win)
		}
		return &EncodeFailure{Encoder: Kitty, Err: err}
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func inlineITermVideo(ctx context.Context, w io.Writer, path string, opts *RenderOptions, win *WinSize) error {
	gifData, width, height, err := videoToGIF(ctx, path)
	if err != nil {
		return err
	}

	var offset uint16
	if opts.Center {
		offset = CenterOffset(uint16(width), false, win)
	}

	var buf bytes.Buffer
	encodeITermGIF(&buf, gifData, width, height, offset, win)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

// Inline routes a path to the image or video pipeline by extension.
func Inline(ctx context.Context, w io.Writer, path string, opts RenderOptions) error {
	if IsVideoPath(path) {
		return InlineVideo(ctx, w, path, opts)
	}
	return InlineImageFile(w, path, opts)
}
