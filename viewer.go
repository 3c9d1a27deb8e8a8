package mcat

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const maxZoom = 10

// viewerModel is the interactive zoom/pan state. Every keypress mutates
// the view parameters and re-encodes the source image.
type viewerModel struct {
	img  image.Image
	opts RenderOptions

	zoom       uint8
	panX, panY int

	rendered string
	err      error
}

func newViewerModel(img image.Image, opts RenderOptions) *viewerModel {
	m := &viewerModel{img: img, opts: opts, zoom: 1}
	if opts.Zoom > 1 {
		m.zoom = opts.Zoom
	}
	m.panX, m.panY = opts.PanX, opts.PanY
	m.render()
	return m
}

func (m *viewerModel) Init() tea.Cmd { return nil }

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "+", "=":
			if m.zoom < maxZoom {
				m.zoom++
			}
		case "-", "_":
			if m.zoom > 1 {
				m.zoom--
			}
		case "h", "left":
			m.panX -= 2
		case "l", "right":
			m.panX += 2
		case "k", "up":
			m.panY -= 2
		case "j", "down":
			m.panY += 2
		case "0":
			m.zoom, m.panX, m.panY = 1, 0, 0
		default:
			return m, nil
		}
		m.render()
	case tea.WindowSizeMsg:
		RefreshWinSize(DefaultWinSizeOptions())
		m.render()
	}
	return m, nil
}

func (m *viewerModel) render() {
	opts := m.opts
	opts.Zoom = m.zoom
	opts.PanX, opts.PanY = m.panX, m.panY

	var buf bytes.Buffer
	kind, _ := opts.resolveEncoder()
	if kind == Kitty {
		buf.WriteString(kittyClearAll(GetWinSize()))
	}
	if err := InlineImage(&buf, m.img, opts); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.rendered = buf.String()
}

func (m *viewerModel) View() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString("render error: " + m.err.Error() + "\n")
	} else {
		b.WriteString(m.rendered)
	}
	fmt.Fprintf(&b, "\n zoom %dx  pan %d,%d   +/- zoom  hjkl pan  0 reset  q quit", m.zoom, m.panX, m.panY)
	return b.String()
}

// ViewImageFile opens path in an interactive viewer with zoom and pan
// bound to vi-style keys.
func ViewImageFile(path string, opts RenderOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	p := tea.NewProgram(newViewerModel(img, opts), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
