// Package mcat renders images and videos inline in the terminal.
//
// It detects the best graphics protocol the attached terminal supports
// (kitty graphics, iTerm2 inline images, sixel, or Unicode half blocks),
// fits media to the terminal geometry, and writes the encoded escape
// sequences. Videos are decoded through an ffmpeg child process and
// played as kitty animations, inline GIFs, or half-block frame loops.
//
// The usual entry point is Inline, which routes a file path to the right
// pipeline:
//
//	err := mcat.Inline(ctx, os.Stdout, "photo.jpg", mcat.DefaultRenderOptions())
//
// Dimension specs accept pixels ("640px"), terminal percentages ("80%"),
// character cells ("40c"), or bare pixel counts. Terminal geometry is
// probed once per process and cached; see InitWinSize and
// RefreshWinSize to control that.
package mcat
