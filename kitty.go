package mcat

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math/rand"
	"sync/atomic"
)

var imageIDCounter atomic.Uint32

func init() {
	imageIDCounter.Store(rand.Uint32())
}

// NextImageID returns a process-unique kitty image number. Image numbers
// are 24-bit and never zero.
func NextImageID() uint32 {
	return imageIDCounter.Add(1)%0xfffffe + 1
}

// encodeKittyImage writes a static image as a kitty graphics APC
// sequence: PNG payload, base64, split into 4096-byte chunks with
// continuation flags.
func encodeKittyImage(out *bytes.Buffer, img image.Image, offset uint16, win *WinSize) error {
	var payload bytes.Buffer
	if err := png.Encode(&payload, img); err != nil {
		return err
	}
	if offset > 0 {
		fmt.Fprintf(out, "\x1b[%dC", offset)
	}
	writeKittyChunks(out, "a=T,f=100,q=2", payload.Bytes(), win)
	return nil
}

// encodeKittyAnimation streams a video as a kitty animation: a root frame
// transmission, an animation-control handshake, one frame transmission per
// remaining frame carrying its display gap, then the run command. Each
// frame's sequences are written to w as soon as the frame is decoded, so
// playback starts while later frames are still in flight. Frames go
// through shared memory where the platform has it (one region per frame),
// zlib-compressed escape text otherwise. On error the returned id is
// still valid so the caller can send a delete for whatever was placed.
func encodeKittyAnimation(ctx context.Context, w io.Writer, fs *FrameStream, offset uint16, win *WinSize) (uint32, error) {
	id := NextImageID()
	delay := fs.DelayMS()
	dims := fmt.Sprintf("s=%d,v=%d", fs.Width(), fs.Height())

	first, err := fs.Next()
	if err != nil {
		return id, err
	}

	var buf bytes.Buffer
	if offset > 0 {
		fmt.Fprintf(&buf, "\x1b[%dC", offset)
	}
	frame := 0
	opts := fmt.Sprintf("a=T,I=%d,f=24,%s,q=2", id, dims)
	if err := appendKittyFrame(&buf, id, frame, opts, first, win); err != nil {
		return id, err
	}
	// Hold on the root frame while the rest loads.
	buf.WriteString(maybeWrapTmux(fmt.Sprintf("\x1b_Ga=a,I=%d,s=2,v=1,r=1\x1b\\", id), win))
	if _, err := w.Write(buf.Bytes()); err != nil {
		return id, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return id, err
		}
		raw, err := fs.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return id, err
		}
		frame++
		buf.Reset()
		opts := fmt.Sprintf("a=f,I=%d,f=24,%s,z=%d", id, dims, delay)
		if err := appendKittyFrame(&buf, id, frame, opts, raw, win); err != nil {
			return id, err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return id, err
		}
	}

	// Loop forever.
	_, err = io.WriteString(w, maybeWrapTmux(fmt.Sprintf("\x1b_Ga=a,I=%d,s=3\x1b\\", id), win))
	return id, err
}

// KittyDelete writes the sequence that removes every placement of the
// given image number and frees its data, then releases any shared memory
// regions left for it.
func KittyDelete(w io.Writer, id uint32, win *WinSize) error {
	seq := maybeWrapTmux(fmt.Sprintf("\x1b_Ga=d,d=N,I=%d\x1b\\", id), win)
	if _, err := io.WriteString(w, seq); err != nil {
		return err
	}
	shmRemoveAll(id)
	return nil
}

// kittyClearAll removes every visible kitty image placement and frees
// their data.
func kittyClearAll(win *WinSize) string {
	return maybeWrapTmux("\x1b_Ga=d,d=A\x1b\\", win)
}

func shmName(id uint32, frame int) string {
	return fmt.Sprintf("/mcat-kitty-%d-%d", id, frame)
}

// appendKittyFrame transmits one frame's raw RGB payload, preferring the
/// shared-memory transport. Every frame gets its own region: the terminal
// reads regions asynchronously, so a single region per animation would be
// overwritten before it is consumed.
func appendKittyFrame(out *bytes.Buffer, id uint32, frame int, opts string, raw []byte, win *WinSize) error {
	if name, ok := shmWrite(shmName(id, frame), raw); ok {
		b64name := base64.StdEncoding.EncodeToString([]byte(name))
		seq := fmt.Sprintf("\x1b_G%s,t=s;%s\x1b\\", opts, b64name)
		out.WriteString(maybeWrapTmux(seq, win))
		return nil
	}
	comp, err := zlibCompress(raw)
	if err != nil {
		return err
	}
	writeKittyChunks(out, opts+",o=z", comp, win)
	return nil
}

// writeKittyChunks base64-encodes payload and emits it as APC sequences
// of at most 4096 base64 bytes each. The first sequence carries opts;
// every sequence carries m=1 except the last, which carries m=0.
func writeKittyChunks(out *bytes.Buffer, opts string, payload []byte, win *WinSize) {
	chunks := chunkedBase64(payload)
	for i, chunk := range chunks {
		m := 0
		if i < len(chunks)-1 {
			m = 1
		}
		var seq string
		if i == 0 {
			seq = fmt.Sprintf("\x1b_G%s,m=%d;%s\x1b\\", opts, m, chunk)
		} else {
			seq = fmt.Sprintf("\x1b_Gm=%d;%s\x1b\\", m, chunk)
		}
		out.WriteString(maybeWrapTmux(seq, win))
	}
}

func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
