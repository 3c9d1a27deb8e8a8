package mcat

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// itermMultipartThreshold is the payload size above which the File
// transfer switches to the multipart form. Matches the chunk size iTerm2
// itself uses.
const itermMultipartThreshold = 0x40000

// encodeITermImage writes a static image as an OSC 1337 inline File. The
// size field always matches the raw payload length so the terminal can
// validate the transfer.
func encodeITermImage(out *bytes.Buffer, img image.Image, offset uint16, win *WinSize) error {
	var payload bytes.Buffer
	if err := png.Encode(&payload, img); err != nil {
		return err
	}
	writeITermFile(out, payload.Bytes(), img.Bounds().Dx(), img.Bounds().Dy(), offset, win)
	return nil
}

// encodeITermGIF inlines an already-encoded GIF, the transport used for
// video. iTerm2 animates inline GIFs on its own.
func encodeITermGIF(out *bytes.Buffer, gif []byte, width, height int, offset uint16, win *WinSize) {
	writeITermFile(out, gif, width, height, offset, win)
}

func writeITermFile(out *bytes.Buffer, payload []byte, width, height int, offset uint16, win *WinSize) {
	if offset > 0 {
		fmt.Fprintf(out, "\x1b[%dC", offset)
	}
	args := fmt.Sprintf("inline=1;size=%d;width=%dpx;height=%dpx;preserveAspectRatio=1",
		len(payload), width, height)

	if len(payload) <= itermMultipartThreshold {
		b64 := base64.StdEncoding.EncodeToString(payload)
		out.WriteString(maybeWrapTmux("\x1b]1337;File="+args+":"+b64+"\x07", win))
		return
	}

	out.WriteString(maybeWrapTmux("\x1b]1337;MultipartFile="+args+"\x07", win))
	b64 := base64.StdEncoding.EncodeToString(payload)
	for off := 0; off < len(b64); off += itermMultipartThreshold {
		end := off + itermMultipartThreshold
		if end > len(b64) {
			end = len(b64)
		}
		out.WriteString(maybeWrapTmux("\x1b]1337;FilePart="+b64[off:end]+"\x07", win))
	}
	out.WriteString(maybeWrapTmux("\x1b]1337;FileEnd\x07", win))
}
