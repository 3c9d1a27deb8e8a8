package mcat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/x/mosaic"
)

// encodeAsciiImage writes an image as Unicode half-block cells with
// 24-bit color. The image should already be sized to the target cell
// grid (one pixel per column, two rows of pixels per cell).
func encodeAsciiImage(out *bytes.Buffer, img image.Image, offset uint16) error {
	bounds := img.Bounds()
	cols := bounds.Dx()
	rows := (bounds.Dy() + 1) / 2

	m := mosaic.New().Dither(true).Width(cols).Height(rows)
	rendered := m.Render(img)
	if rendered == "" {
		return errors.New("half-block rendering produced no output")
	}
	writeIndented(out, rendered, offset)
	return nil
}

// encodeAsciiVideo plays a frame stream as half-block cells. Unlike the
// other encoders this writes incrementally: the terminal has no animation
// primitive, so pacing happens here by rewinding the cursor between
// frames. Pacing is against the stream clock, not per-frame sleeps, so
// slow decodes or renders don't accumulate drift.
func encodeAsciiVideo(ctx context.Context, w io.Writer, fs *FrameStream, widthSpec, heightSpec string, center bool, win *WinSize) error {
	cols, rows, err := asciiGrid(fs, widthSpec, heightSpec, win)
	if err != nil {
		return err
	}
	var offset uint16
	if center {
		offset = CenterOffset(uint16(cols), true, win)
	}

	delay := time.Duration(fs.DelayMS()) * time.Millisecond
	if delay <= 0 {
		delay = 33 * time.Millisecond
	}

	m := mosaic.New().Dither(false).Width(cols).Height(rows)
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	start := time.Now()
	n := 0
	for {
		raw, err := fs.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		frame := fastScale(rgbImage(raw, fs.Width(), fs.Height()), uint32(cols), uint32(rows*2))

		var buf bytes.Buffer
		if n > 0 {
			// Rewind over the previous frame.
			fmt.Fprintf(&buf, "\x1b[%dA\r", rows)
		}
		writeIndented(&buf, m.Render(frame), offset)
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}

		n++
		if wait := time.Duration(n)*delay - time.Since(start); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// asciiGrid resolves the target cell grid for a stream, fitting the
// source aspect ratio into the requested box.
func asciiGrid(fs *FrameStream, widthSpec, heightSpec string, win *WinSize) (cols, rows int, err error) {
	if widthSpec == "" {
		widthSpec = DefaultDimension
	}
	if heightSpec == "" {
		heightSpec = DefaultDimension
	}
	w, err := ResolveCells(widthSpec, DirWidth, win)
	if err != nil {
		return 0, 0, err
	}
	h, err := ResolveCells(heightSpec, DirHeight, win)
	if err != nil {
		return 0, 0, err
	}
	fitW, fitH := CalcFit(uint32(fs.Width()), uint32(fs.Height()), w, h*2)
	cols = int(fitW)
	rows = int((fitH + 1) / 2)
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows, nil
}

func writeIndented(out *bytes.Buffer, rendered string, offset uint16) {
	rendered = strings.TrimRight(rendered, "\n")
	for _, line := range strings.Split(rendered, "\n") {
		if offset > 0 {
			fmt.Fprintf(out, "\x1b[%dC", offset)
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
}
