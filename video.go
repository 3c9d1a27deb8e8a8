package mcat

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// execLookPath is swapped out in tests to simulate a missing ffmpeg.
var execLookPath = exec.LookPath

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {},
	".wmv": {}, ".flv": {}, ".m4v": {}, ".ts": {}, ".gif": {},
}

// IsVideoPath reports whether the file extension names a video container.
func IsVideoPath(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

var (
	videoDimsRe = regexp.MustCompile(`, (\d{2,5})x(\d{2,5})`)
	videoFPSRe  = regexp.MustCompile(`(\d+(?:\.\d+)?) fps`)
)

// FrameStream is a forward-only sequence of raw RGB24 frames decoded by
// an ffmpeg child process. Next returns an internal buffer that is
// overwritten by the following call.
type FrameStream struct {
	cmd    *exec.Cmd
	stdout io.Reader

	width, height int
	delayMS       int

	frame []byte

	closeOnce sync.Once
	closeErr  error
}

// OpenVideo starts decoding path into a frame stream. Returns
// DependencyMissingError when ffmpeg is not installed.
func OpenVideo(ctx context.Context, path string) (*FrameStream, error) {
	if _, err := execLookPath("ffmpeg"); err != nil {
		return nil, &DependencyMissingError{Tool: "ffmpeg"}
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	width, height, fps, err := scanVideoMeta(stderr)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	delay := 33
	if fps > 0 {
		delay = int(1000.0 / fps)
	}

	return &FrameStream{
		cmd:     cmd,
		stdout:  stdout,
		width:   width,
		height:  height,
		delayMS: delay,
		frame:   make([]byte, width*height*3),
	}, nil
}

// scanVideoMeta reads ffmpeg's stderr banner until the input video
// stream line reveals dimensions, then keeps draining stderr in the
// background so the child never blocks on it.
func scanVideoMeta(stderr io.Reader) (width, height int, fps float64, err error) {
	br := bufio.NewReader(stderr)
	for {
		line, rerr := br.ReadString('\n')
		if strings.Contains(line, "Video:") {
			w, h, f, ok := parseVideoMeta(line)
			if ok {
				go func() {
					_, _ = io.Copy(io.Discard, br)
				}()
				return w, h, f, nil
			}
		}
		if rerr != nil {
			return 0, 0, 0, fmt.Errorf("no decodable video stream found")
		}
	}
}

func parseVideoMeta(line string) (width, height int, fps float64, ok bool) {
	dims := videoDimsRe.FindStringSubmatch(line)
	if dims == nil {
		return 0, 0, 0, false
	}
	w, _ := strconv.Atoi(dims[1])
	h, _ := strconv.Atoi(dims[2])
	if w == 0 || h == 0 {
		return 0, 0, 0, false
	}
	if m := videoFPSRe.FindStringSubmatch(line); m != nil {
		fps, _ = strconv.ParseFloat(m[1], 64)
	}
	return w, h, fps, true
}

func (fs *FrameStream) Width() int   { return fs.width }
func (fs *FrameStream) Height() int  { return fs.height }
func (fs *FrameStream) DelayMS() int { return fs.delayMS }

// Next returns the next raw RGB frame, or io.EOF when the stream ends.
// The returned slice is reused on the following call.
func (fs *FrameStream) Next() ([]byte, error) {
	_, err := io.ReadFull(fs.stdout, fs.frame)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		fs.Close()
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	return fs.frame, nil
}

// Close stops the decoder and reaps the child. Safe to call more than
// once; later calls return the first result.
func (fs *FrameStream) Close() error {
	fs.closeOnce.Do(func() {
		if fs.cmd == nil {
			return
		}
		_ = fs.cmd.Process.Kill()
		err := fs.cmd.Wait()
		// A killed decoder is the expected way down.
		if err != nil && !strings.Contains(err.Error(), "killed") {
			fs.closeErr = err
		}
	})
	return fs.closeErr
}

// videoToGIF re-encodes a video as an animated GIF, the transport iTerm2
// understands natively. Inputs that already are GIFs pass through
// unchanged. Returns the GIF bytes plus pixel dimensions.
func videoToGIF(ctx context.Context, path string) ([]byte, int, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".gif") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, 0, err
		}
		cfg, err := gif.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, 0, 0, err
		}
		return data, cfg.Width, cfg.Height, nil
	}

	if _, err := execLookPath("ffmpeg"); err != nil {
		return nil, 0, 0, &DependencyMissingError{Tool: "ffmpeg"}
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", path, "-f", "gif", "pipe:1")
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, 0, 0, fmt.Errorf("ffmpeg gif encode: %w", err)
	}

	cfg, err := gif.DecodeConfig(bytes.NewReader(out.Bytes()))
	if err != nil {
		return nil, 0, 0, err
	}
	return out.Bytes(), cfg.Width, cfg.Height, nil
}

// rgbImage expands a raw RGB24 buffer into an RGBA image.
func rgbImage(raw []byte, width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	si, di := 0, 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Pix[di] = raw[si]
			img.Pix[di+1] = raw[si+1]
			img.Pix[di+2] = raw[si+2]
			img.Pix[di+3] = 0xff
			si += 3
			di += 4
		}
	}
	return img
}
