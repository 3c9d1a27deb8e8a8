package mcat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapTmuxPassthrough(t *testing.T) {
	wrapped := wrapTmuxPassthrough("\x1b_Gi=31;AAAA\x1b\\")

	assert.True(t, strings.HasPrefix(wrapped, "\x1bPtmux;"))
	assert.True(t, strings.HasSuffix(wrapped, "\x1b\\"))

	inner := strings.TrimSuffix(strings.TrimPrefix(wrapped, "\x1bPtmux;"), "\x1b\\")
	assert.Equal(t, "\x1b\x1b_Gi=31;AAAA\x1b\x1b\\", inner, "every inner ESC is doubled")
}

func TestMaybeWrapTmux(t *testing.T) {
	win := testWin()
	assert.Equal(t, "\x1b[0m", maybeWrapTmux("\x1b[0m", win), "untouched outside tmux")
	assert.Equal(t, "\x1b[0m", maybeWrapTmux("\x1b[0m", nil))
}

func TestInTmux(t *testing.T) {
	t.Setenv("TMUX", "")
	t.Setenv("TERM", "xterm-256color")
	assert.False(t, inTmux())

	t.Setenv("TMUX", "/tmp/tmux-1000/default,1234,0")
	assert.True(t, inTmux())

	t.Setenv("TMUX", "")
	t.Setenv("TERM", "tmux-256color")
	assert.True(t, inTmux())
}
