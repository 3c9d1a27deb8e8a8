package mcat

import (
	"bytes"
	"fmt"
	"image"

	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/mattn/go-sixel"
	"github.com/soniakeys/quant/median"
)

// sixelPaletteSize is the largest palette a DECSIXEL stream can carry.
const sixelPaletteSize = 256

// encodeSixelImage writes a static image as a DECSIXEL sequence. The
// image is first reduced to a median-cut palette with Stucki error
// diffusion, then handed to the sixel encoder with its own dithering off.
func encodeSixelImage(out *bytes.Buffer, img image.Image, offset uint16, win *WinSize) error {
	dithered := quantizeSixel(img)

	var seq bytes.Buffer
	enc := sixel.NewEncoder(&seq)
	enc.Dither = false
	enc.Colors = sixelPaletteSize
	if err := enc.Encode(dithered); err != nil {
		return err
	}

	if offset > 0 {
		fmt.Fprintf(out, "\x1b[%dC", offset)
	}
	out.WriteString(maybeWrapTmux(seq.String(), win))
	return nil
}

func quantizeSixel(img image.Image) image.Image {
	q := median.Quantizer(sixelPaletteSize)
	palette := q.Palette(img).ColorPalette()

	d := dither.NewDitherer(palette)
	d.Matrix = dither.Stucki
	return d.Dither(img)
}
