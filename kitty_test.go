package mcat

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kittyChunkRe = regexp.MustCompile(`\x1b_G([^;]*);?([A-Za-z0-9+/=]*)\x1b\\`)

type kittyChunk struct {
	opts    string
	payload string
}

func parseKittyChunks(t *testing.T, raw string) []kittyChunk {
	t.Helper()
	matches := kittyChunkRe.FindAllStringSubmatch(raw, -1)
	require.NotEmpty(t, matches, "expected at least one APC sequence")
	chunks := make([]kittyChunk, len(matches))
	for i, m := range matches {
		chunks[i] = kittyChunk{opts: m[1], payload: m[2]}
	}
	return chunks
}

func TestNextImageIDNonZeroAndUnique(t *testing.T) {
	seen := map[uint32]bool{}
	for i := 0; i < 1000; i++ {
		id := NextImageID()
		require.NotZero(t, id)
		require.LessOrEqual(t, id, uint32(0xffffff), "image numbers are 24-bit")
		require.False(t, seen[id], "id %d repeated", id)
		seen[id] = true
	}
}

func TestKittyImageChunking(t *testing.T) {
	win := testWin()
	// Large enough that the PNG payload needs several chunks.
	img := gradientImage(256, 256)

	var buf bytes.Buffer
	require.NoError(t, encodeKittyImage(&buf, img, 0, win))

	chunks := parseKittyChunks(t, buf.String())
	require.Greater(t, len(chunks), 1, "payload should span several chunks")

	assert.Contains(t, chunks[0].opts, "a=T")
	assert.Contains(t, chunks[0].opts, "f=100")
	assert.Contains(t, chunks[0].opts, "m=1")

	var b64 strings.Builder
	for i, c := range chunks {
		last := i == len(chunks)-1
		if last {
			assert.Contains(t, c.opts, "m=0", "final chunk closes the transfer")
		} else {
			assert.Contains(t, c.opts, "m=1")
			assert.Len(t, c.payload, chunkSize, "every non-final chunk is full")
		}
		b64.WriteString(c.payload)
	}

	payload, err := base64.StdEncoding.DecodeString(b64.String())
	require.NoError(t, err, "concatenated chunks must be valid base64")

	decoded, err := png.Decode(bytes.NewReader(payload))
	require.NoError(t, err, "payload must decode back to a PNG")
	assert.Equal(t, 256, decoded.Bounds().Dx())
}

func TestKittyImageCenterOffset(t *testing.T) {
	win := testWin()
	img := gradientImage(8, 8)

	var buf bytes.Buffer
	require.NoError(t, encodeKittyImage(&buf, img, 12, win))
	assert.True(t, strings.HasPrefix(buf.String(), "\x1b[12C"), "centering moves the cursor first")
}

func TestKittyDelete(t *testing.T) {
	win := testWin()
	var buf bytes.Buffer
	require.NoError(t, KittyDelete(&buf, 42, win))
	assert.Equal(t, "\x1b_Ga=d,d=N,I=42\x1b\\", buf.String())
}

func TestKittyTmuxWrapping(t *testing.T) {
	win := testWin()
	win.IsTmux = true

	var buf bytes.Buffer
	require.NoError(t, KittyDelete(&buf, 7, win))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1bPtmux;"), "tmux passthrough envelope")
	assert.True(t, strings.HasSuffix(out, "\x1b\\"))
	assert.Contains(t, out, "\x1b\x1b_G", "inner escapes are doubled")
}

func TestZlibCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("mcat"), 4096)
	comp, err := zlibCompress(data)
	require.NoError(t, err)
	assert.Less(t, len(comp), len(data), "repetitive data should shrink")
}

func TestWriteKittyChunksSingle(t *testing.T) {
	win := testWin()
	var buf bytes.Buffer
	writeKittyChunks(&buf, "a=T,f=24,s=1,v=1", []byte{1, 2, 3}, win)

	chunks := parseKittyChunks(t, buf.String())
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].opts, "m=0", "a lone chunk is final")

	payload, err := base64.StdEncoding.DecodeString(chunks[0].payload)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, payload)
}

func TestKittyClearAll(t *testing.T) {
	win := testWin()
	assert.Equal(t, "\x1b_Ga=d,d=A\x1b\\", kittyClearAll(win))
}

func TestKittyDeleteReleasesSharedMemory(t *testing.T) {
	id := NextImageID()
	name0, ok := shmWrite(shmName(id, 0), []byte{1})
	if !ok {
		t.Skip("shared memory not available on this platform")
	}
	name1, ok := shmWrite(shmName(id, 1), []byte{2})
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("/mcat-kitty-%d-0", id), name0)

	var buf bytes.Buffer
	require.NoError(t, KittyDelete(&buf, id, testWin()))
	assert.Contains(t, buf.String(), fmt.Sprintf("a=d,d=N,I=%d", id))

	for _, name := range []string{name0, name1} {
		_, err := os.Stat("/dev/shm" + name)
		assert.True(t, os.IsNotExist(err), "region %s should be gone", name)
	}
}

// recordingWriter keeps each Write call separate so tests can see when
// output reached the sink.
type recordingWriter struct {
	writes []string
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	r.writes = append(r.writes, string(p))
	return len(p), nil
}

func TestKittyAnimationStreamsPerFrame(t *testing.T) {
	frames := [][]byte{
		bytes.Repeat([]byte{255, 0, 0}, 4),
		bytes.Repeat([]byte{0, 255, 0}, 4),
		bytes.Repeat([]byte{0, 0, 255}, 4),
	}
	fs := fakeStream(2, 2, 40, frames...)

	rec := &recordingWriter{}
	id, err := encodeKittyAnimation(t.Context(), rec, fs, 0, testWin())
	require.NoError(t, err)
	require.NotZero(t, id)
	defer shmRemoveAll(id)

	require.Len(t, rec.writes, 4, "root, one write per later frame, then run")
	assert.Contains(t, rec.writes[0], "a=T")
	assert.Contains(t, rec.writes[0], fmt.Sprintf("a=a,I=%d,s=2,v=1,r=1", id))
	for i, w := range rec.writes[1:3] {
		assert.Contains(t, w, "a=f", "frame %d", i+1)
		assert.Contains(t, w, "z=40", "frame %d carries the delay", i+1)
	}
	assert.Contains(t, rec.writes[3], fmt.Sprintf("a=a,I=%d,s=3", id))

	if strings.Contains(rec.writes[1], "t=s") {
		seen := map[string]bool{}
		for _, w := range rec.writes[1:3] {
			chunks := parseKittyChunks(t, w)
			region, err := base64.StdEncoding.DecodeString(chunks[0].payload)
			require.NoError(t, err)
			assert.False(t, seen[string(region)], "each frame gets its own region")
			seen[string(region)] = true
		}
	}
}

func TestKittyAnimationCanceled(t *testing.T) {
	fs := fakeStream(2, 2, 40,
		bytes.Repeat([]byte{1, 2, 3}, 4),
		bytes.Repeat([]byte{4, 5, 6}, 4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	id, err := encodeKittyAnimation(ctx, &buf, fs, 0, testWin())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotZero(t, id, "caller needs the number to delete the partial image")
	shmRemoveAll(id)
}
