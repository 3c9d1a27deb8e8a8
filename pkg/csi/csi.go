/*
Package csi sends CSI/APC queries to the controlling terminal and reads the
bounded responses used for capability and geometry discovery.
*/
package csi

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

// Timeout bounds every query round trip. Terminal response latency varies
// widely, so callers may tune it; a failed or empty read after Timeout is
// reported as not-ok, never as a hard error.
var Timeout = 150 * time.Millisecond

// query writes a raw escape sequence to /dev/tty in raw mode and returns
// whatever the terminal answered within Timeout.
func query(seq string) (string, bool) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return "", false
	}
	defer tty.Close()

	if !term.IsTerminal(int(tty.Fd())) {
		return "", false
	}

	oldState, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		return "", false
	}
	defer term.Restore(int(tty.Fd()), oldState)

	if _, err := tty.WriteString(seq); err != nil {
		return "", false
	}

	responseChan := make(chan string, 1)
	go func() {
		buf := make([]byte, 512)
		n, err := tty.Read(buf)
		if err != nil || n == 0 {
			responseChan <- ""
			return
		}
		responseChan <- string(buf[:n])
	}()

	select {
	case resp := <-responseChan:
		return resp, resp != ""
	case <-time.After(Timeout):
		return "", false
	}
}

// QueryTextAreaSizeInPixels asks for the text area size in pixels (CSI 14t).
// The response grammar is CSI 4 ; height ; width t.
func QueryTextAreaSizeInPixels() (width, height int, ok bool) {
	resp, ok := query("\x1b[14t")
	if !ok {
		return 0, 0, false
	}
	width, height, ok = parseSizeReport(resp, "[4;")
	return width, height, ok
}

// QueryCellSizeInPixels asks for the character cell size in pixels (CSI 16t).
// The response grammar is CSI 6 ; height ; width t.
func QueryCellSizeInPixels() (width, height int, ok bool) {
	resp, ok := query("\x1b[16t")
	if !ok {
		return 0, 0, false
	}
	width, height, ok = parseSizeReport(resp, "[6;")
	return width, height, ok
}

// QueryTextAreaSizeInCells asks for the text area size in character cells
// (CSI 18t). The response grammar is CSI 8 ; rows ; cols t.
func QueryTextAreaSizeInCells() (cols, rows int, ok bool) {
	resp, ok := query("\x1b[18t")
	if !ok {
		return 0, 0, false
	}
	cols, rows, ok = parseSizeReport(resp, "[8;")
	return cols, rows, ok
}

// parseSizeReport extracts the two numeric fields of a CSI size report of
// the form <prefix>height;width t. The first value returned is the second
// field (width/cols), matching how the reports are consumed.
func parseSizeReport(resp, prefix string) (second, first int, ok bool) {
	start := strings.Index(resp, prefix)
	if start == -1 {
		return 0, 0, false
	}
	rest := resp[start+len(prefix):]
	end := strings.IndexByte(rest, 't')
	if end == -1 {
		return 0, 0, false
	}
	parts := strings.Split(rest[:end], ";")
	if len(parts) < 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	w, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || h <= 0 || w <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// QueryDeviceAttributes sends a Primary Device Attributes query (CSI c) and
// returns the advertised capability codes. Sixel support shows up as code 4.
func QueryDeviceAttributes() ([]int, bool) {
	resp, ok := query("\x1b[c")
	if !ok {
		return nil, false
	}
	start := strings.Index(resp, "[?")
	if start == -1 {
		return nil, false
	}
	rest := resp[start+2:]
	end := strings.IndexByte(rest, 'c')
	if end == -1 {
		return nil, false
	}
	var codes []int
	for _, part := range strings.Split(rest[:end], ";") {
		if val, err := strconv.Atoi(part); err == nil {
			codes = append(codes, val)
		}
	}
	return codes, len(codes) > 0
}

// QueryKittyGraphics sends a Kitty graphics query action and reports whether
// the terminal echoed the image id back, which only Kitty-class terminals do.
func QueryKittyGraphics() bool {
	const id = "31"
	resp, ok := query(fmt.Sprintf("\x1b_Gi=%s,s=1,v=1,a=q,t=d,f=24;AAAA\x1b\\", id))
	if !ok {
		return false
	}
	return strings.Contains(resp, "_Gi="+id)
}

// QueryWindowCells reports the terminal size in character cells via the tty
// ioctl, which works even when CSI reports are disabled.
func QueryWindowCells() (cols, rows int, err error) {
	return term.GetSize(int(os.Stdout.Fd()))
}
