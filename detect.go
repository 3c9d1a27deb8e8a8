package mcat

import (
	"os"
	"strings"
	"sync"

	"github.com/michael-eddy/mcat/pkg/csi"
)

// EncoderKind identifies one of the supported inline graphics encodings.
// The set is closed: dispatch is an exhaustive switch, so adding a kind
// means touching every switch the compiler flags.
type EncoderKind int

const (
	Kitty EncoderKind = iota
	ITerm
	Sixel
	Ascii
)

func (k EncoderKind) String() string {
	switch k {
	case Kitty:
		return "kitty"
	case ITerm:
		return "iterm"
	case Sixel:
		return "sixel"
	case Ascii:
		return "ascii"
	}
	return "unknown"
}

// ParseEncoderKind maps a user-facing name to an EncoderKind.
func ParseEncoderKind(s string) (EncoderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kitty":
		return Kitty, nil
	case "iterm", "iterm2":
		return ITerm, nil
	case "sixel":
		return Sixel, nil
	case "ascii", "blocks":
		return Ascii, nil
	}
	return Ascii, &InvalidSpecError{Spec: s}
}

var (
	detectOnce   sync.Once
	detectedKind EncoderKind
)

// DetectEncoder determines the best encoding the attached terminal
// supports. Environment variables are consulted first since they are
// free; only ambiguous terminals get live escape-sequence probes. The
// result is cached for the process lifetime.
func DetectEncoder() EncoderKind {
	detectOnce.Do(func() {
		detectedKind = detectEncoder()
	})
	return detectedKind
}

func detectEncoder() EncoderKind {
	if envSupportsKitty() {
		return Kitty
	}
	if envSupportsITerm() {
		return ITerm
	}
	if envSupportsSixel() {
		return Sixel
	}

	// Unrecognized terminal: ask it directly. Probe failures and
	// timeouts degrade to the universal fallback.
	if csi.QueryKittyGraphics() {
		return Kitty
	}
	if codes, ok := csi.QueryDeviceAttributes(); ok {
		for _, c := range codes {
			if c == 4 {
				return Sixel
			}
		}
	}
	return Ascii
}

func envSupportsKitty() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	term := os.Getenv("TERM")
	if strings.Contains(term, "kitty") || strings.Contains(term, "ghostty") {
		return true
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "ghostty", "WezTerm":
		return true
	}
	return false
}

func envSupportsITerm() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "vscode", "Tabby", "Hyper", "rio":
		return true
	}
	if os.Getenv("LC_TERMINAL") == "iTerm2" {
		return true
	}
	if os.Getenv("KONSOLE_VERSION") != "" {
		return true
	}
	return strings.Contains(os.Getenv("TERM"), "mintty")
}

func envSupportsSixel() bool {
	term := os.Getenv("TERM")
	for _, t := range []string{"foot", "st-256color", "xterm-256color", "yaft"} {
		if term == t {
			// These commonly advertise sixel but not always; confirm.
			if codes, ok := csi.QueryDeviceAttributes(); ok {
				for _, c := range codes {
					if c == 4 {
						return true
					}
				}
			}
			return false
		}
	}
	if os.Getenv("WT_PROFILE_ID") != "" {
		return true
	}
	return false
}
