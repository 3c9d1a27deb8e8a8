package mcat

import (
	"os"
	"os/exec"
	"strings"
	"sync"
)

var tmuxPassthroughOnce sync.Once

// inTmux reports whether we are running inside a tmux pane.
func inTmux() bool {
	if os.Getenv("TMUX") != "" {
		return true
	}
	return strings.HasPrefix(os.Getenv("TERM"), "tmux") ||
		strings.HasPrefix(os.Getenv("TERM"), "screen")
}

// enableTmuxPassthrough asks tmux to forward wrapped escape sequences to
// the outer terminal. Runs at most once per process; failures are ignored
// since older tmux versions lack the option and still pass some sequences.
func enableTmuxPassthrough() {
	tmuxPassthroughOnce.Do(func() {
		_ = exec.Command("tmux", "set", "-p", "allow-passthrough", "on").Run()
	})
}

// wrapTmuxPassthrough wraps an escape sequence in the tmux passthrough
// envelope, doubling every ESC byte so tmux unwraps it for the host
// terminal instead of consuming it.
func wrapTmuxPassthrough(seq string) string {
	var b strings.Builder
	b.Grow(len(seq) + len(seq)/16 + 16)
	b.WriteString("\x1bPtmux;")
	for i := 0; i < len(seq); i++ {
		if seq[i] == 0x1b {
			b.WriteByte(0x1b)
		}
		b.WriteByte(seq[i])
	}
	b.WriteString("\x1b\\")
	return b.String()
}

// maybeWrapTmux applies the passthrough envelope when inside tmux,
// enabling the passthrough option on first use.
func maybeWrapTmux(seq string, win *WinSize) string {
	if win == nil || !win.IsTmux {
		return seq
	}
	enableTmuxPassthrough()
	return wrapTmuxPassthrough(seq)
}
