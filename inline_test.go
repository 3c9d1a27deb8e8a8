package mcat

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Pin the window geometry so nothing probes a terminal that is not
	// there.
	RefreshWinSize(WinSizeOptions{
		SpxFallback: Size{Width: 1920, Height: 1080, Force: true},
		ScFallback:  Size{Width: 100, Height: 30, Force: true},
		Scale:       1.0,
	})
	os.Exit(m.Run())
}

func forced(kind EncoderKind) RenderOptions {
	opts := DefaultRenderOptions()
	opts.Encoder = &kind
	return opts
}

func TestInlineImageEveryEncoder(t *testing.T) {
	img := gradientImage(32, 32)

	for _, kind := range []EncoderKind{Kitty, ITerm, Sixel, Ascii} {
		t.Run(kind.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, InlineImage(&buf, img, forced(kind)))
			assert.NotZero(t, buf.Len())
			assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1], "output ends on a fresh line")
		})
	}
}

func TestInlineImageInvalidSpecWritesNothing(t *testing.T) {
	img := gradientImage(8, 8)
	opts := forced(Ascii)
	opts.Width = "banana"

	var buf bytes.Buffer
	err := InlineImage(&buf, img, opts)

	var ispec *InvalidSpecError
	require.ErrorAs(t, err, &ispec)
	assert.Zero(t, buf.Len(), "a failed render must not leak partial bytes")
}

func TestInlineImageZoomApplied(t *testing.T) {
	img := gradientImage(100, 100)
	opts := forced(Ascii)
	opts.Width = "10c"
	opts.Height = "5c"
	opts.Zoom = 2

	var buf bytes.Buffer
	require.NoError(t, InlineImage(&buf, img, opts))
	assert.NotZero(t, buf.Len())
}

func TestInlineImageNotCentered(t *testing.T) {
	img := gradientImage(16, 16)
	opts := forced(Ascii)
	opts.Width = "4c"
	opts.Height = "2c"
	opts.Center = false

	var buf bytes.Buffer
	require.NoError(t, InlineImage(&buf, img, opts))
	// A 4-cell image in 100 columns would be indented 48 cells if
	// centering leaked through.
	assert.NotContains(t, buf.String(), "\x1b[48C")
}

func TestInlineImageFileMissing(t *testing.T) {
	var buf bytes.Buffer
	err := InlineImageFile(&buf, "/no/such/file.png", forced(Ascii))
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestInlineImageFileCorruptBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	var buf bytes.Buffer
	err := InlineImageFile(&buf, path, forced(Kitty))

	var ef *EncodeFailure
	require.ErrorAs(t, err, &ef)
	assert.Equal(t, Kitty, ef.Encoder)
	assert.Zero(t, buf.Len())
}

func TestInlineImageFileEmptyBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	var buf bytes.Buffer
	err := InlineImageFile(&buf, path, forced(Ascii))

	var ef *EncodeFailure
	require.ErrorAs(t, err, &ef)
	assert.Zero(t, buf.Len())
}

func TestInlineImageEmptySource(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))

	var buf bytes.Buffer
	err := InlineImage(&buf, img, forced(Kitty))

	var ef *EncodeFailure
	require.ErrorAs(t, err, &ef)
	assert.Equal(t, Kitty, ef.Encoder)
	assert.Zero(t, buf.Len())
}

func TestInlineRoutesByExtension(t *testing.T) {
	// An image path with a video extension goes down the ffmpeg pipeline
	// and trips the dependency gate when ffmpeg is stubbed out.
	orig := execLookPath
	execLookPath = func(string) (string, error) { return "", os.ErrNotExist }
	t.Cleanup(func() { execLookPath = orig })

	var buf bytes.Buffer
	err := Inline(t.Context(), &buf, "clip.mp4", forced(Ascii))
	var missing *DependencyMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "ffmpeg", missing.Tool)
}

func TestEncodeFailureMessage(t *testing.T) {
	err := &EncodeFailure{Encoder: Kitty, Err: ErrUnsupportedOperation}
	assert.Contains(t, err.Error(), "kitty")
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestResolveEncoderForced(t *testing.T) {
	opts := forced(Sixel)
	kind, wasForced := opts.resolveEncoder()
	assert.Equal(t, Sixel, kind)
	assert.True(t, wasForced)
}
