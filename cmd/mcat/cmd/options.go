package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/michael-eddy/mcat"
)

// applyOptsString parses a compact comma-separated option list like
//
//	center=true,width=80%,height=20c,scale=0.5,spx=1920x1080,sc=100x20force,zoom=2,x=16,y=8
//
// and applies each key over the current options.
func applyOptsString(s string, ropts *mcat.RenderOptions, winOpts *mcat.WinSizeOptions) error {
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("invalid option %q: expected key=value", pair)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "encoder", "inline":
			var kind mcat.EncoderKind
			if kind, err = mcat.ParseEncoderKind(value); err == nil {
				ropts.Encoder = &kind
			}
		case "width":
			ropts.Width = value
		case "height":
			ropts.Height = value
		case "center":
			ropts.Center, err = strconv.ParseBool(value)
		case "zoom":
			var z uint64
			if z, err = strconv.ParseUint(value, 10, 8); err == nil {
				ropts.Zoom = uint8(z)
			}
		case "x":
			ropts.PanX, err = strconv.Atoi(value)
		case "y":
			ropts.PanY, err = strconv.Atoi(value)
		case "spx":
			winOpts.SpxFallback, err = mcat.ParseSize(value)
		case "sc":
			winOpts.ScFallback, err = mcat.ParseSize(value)
		case "scale":
			var f float64
			if f, err = strconv.ParseFloat(value, 32); err == nil {
				winOpts.Scale = float32(f)
			}
		default:
			return fmt.Errorf("unknown option %q", key)
		}
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}
