/*
Copyright © 2025 michael-eddy

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/michael-eddy/mcat"
)

var (
	verbose bool
	view    bool

	forceKitty bool
	forceITerm bool
	forceSixel bool
	forceAscii bool

	flagWidth  string
	flagHeight string
	flagCenter bool
	flagZoom   uint8
	flagPanX   int
	flagPanY   int
	flagOpts   string
	flagSpx    string
	flagSc     string
	flagScale  float32
)

func init() {
	log.SetHandler(clihander.Default)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable verbose logging")

	rootCmd.Flags().BoolVar(&forceKitty, "kitty", false, "Force the kitty graphics protocol")
	rootCmd.Flags().BoolVar(&forceITerm, "iterm", false, "Force the iTerm2 inline image protocol")
	rootCmd.Flags().BoolVar(&forceSixel, "sixel", false, "Force sixel output")
	rootCmd.Flags().BoolVar(&forceAscii, "ascii", false, "Force Unicode half-block output")

	rootCmd.Flags().StringVarP(&flagWidth, "width", "W", "", "Target width (e.g. 640px, 80%, 40c)")
	rootCmd.Flags().StringVarP(&flagHeight, "height", "H", "", "Target height (e.g. 480px, 50%, 20c)")
	rootCmd.Flags().BoolVar(&flagCenter, "center", true, "Center the image horizontally")
	rootCmd.Flags().Uint8VarP(&flagZoom, "zoom", "z", 0, "Zoom level (crop to 1/n of each axis)")
	rootCmd.Flags().IntVarP(&flagPanX, "x", "x", 0, "Horizontal pan in cells")
	rootCmd.Flags().IntVarP(&flagPanY, "y", "y", 0, "Vertical pan in cells")
	rootCmd.Flags().StringVarP(&flagOpts, "opts", "o", "", "Comma-separated options (center=true,width=80%,...)")
	rootCmd.Flags().StringVar(&flagSpx, "spx", "", "Pixel size fallback, e.g. 1920x1080 or 1920x1080force")
	rootCmd.Flags().StringVar(&flagSc, "sc", "", "Cell size fallback, e.g. 100x20 or 100x20force")
	rootCmd.Flags().Float32Var(&flagScale, "scale", 0, "Scale the target box (0.5 = half width)")
	rootCmd.Flags().BoolVarP(&view, "view", "i", false, "Open an interactive zoom/pan viewer")
}

var rootCmd = &cobra.Command{
	Use:   "mcat <file>...",
	Short: "Display images and videos inline in your terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		cmd.SilenceUsage = true

		ropts, winOpts, err := buildOptions(cmd)
		if err != nil {
			return err
		}
		if err := mcat.InitWinSize(winOpts); err != nil && !errors.Is(err, mcat.ErrWinSizeInitialized) {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if view {
			if len(args) != 1 || mcat.IsVideoPath(args[0]) {
				return errors.New("--view takes exactly one image")
			}
			return mcat.ViewImageFile(args[0], ropts)
		}

		return renderAll(ctx, args, ropts)
	},
}

// renderAll encodes image inputs in parallel, then writes everything in
// argument order. Videos stream directly since they pace themselves. One
// bad input logs and skips; it never aborts the batch.
func renderAll(ctx context.Context, paths []string, ropts mcat.RenderOptions) error {
	bufs := make([]bytes.Buffer, len(paths))
	errs := make([]error, len(paths))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		if mcat.IsVideoPath(path) {
			continue
		}
		g.Go(func() error {
			errs[i] = mcat.InlineImageFile(&bufs[i], path, ropts)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, path := range paths {
		if mcat.IsVideoPath(path) {
			errs[i] = mcat.InlineVideo(ctx, os.Stdout, path, ropts)
		} else if errs[i] == nil {
			_, errs[i] = os.Stdout.Write(bufs[i].Bytes())
		}
		if errs[i] != nil {
			failed++
			log.WithError(errs[i]).Errorf("failed to render %s", path)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(paths))
	}
	return nil
}

// buildOptions layers the config file, then the --opts string, then
// explicit flags, each overriding the last.
func buildOptions(cmd *cobra.Command) (mcat.RenderOptions, mcat.WinSizeOptions, error) {
	ropts := mcat.DefaultRenderOptions()
	winOpts := mcat.DefaultWinSizeOptions()

	cfg, err := loadConfig()
	if err != nil {
		return ropts, winOpts, err
	}
	if err := applyConfig(cfg, &ropts, &winOpts); err != nil {
		return ropts, winOpts, err
	}
	if flagOpts != "" {
		if err := applyOptsString(flagOpts, &ropts, &winOpts); err != nil {
			return ropts, winOpts, err
		}
	}

	if cmd.Flags().Changed("width") {
		ropts.Width = flagWidth
	}
	if cmd.Flags().Changed("height") {
		ropts.Height = flagHeight
	}
	if cmd.Flags().Changed("center") {
		ropts.Center = flagCenter
	}
	if cmd.Flags().Changed("zoom") {
		ropts.Zoom = flagZoom
	}
	if cmd.Flags().Changed("x") {
		ropts.PanX = flagPanX
	}
	if cmd.Flags().Changed("y") {
		ropts.PanY = flagPanY
	}
	if cmd.Flags().Changed("scale") {
		winOpts.Scale = flagScale
	}
	if flagSpx != "" {
		size, err := mcat.ParseSize(flagSpx)
		if err != nil {
			return ropts, winOpts, err
		}
		winOpts.SpxFallback = size
	}
	if flagSc != "" {
		size, err := mcat.ParseSize(flagSc)
		if err != nil {
			return ropts, winOpts, err
		}
		winOpts.ScFallback = size
	}

	force := map[mcat.EncoderKind]bool{
		mcat.Kitty: forceKitty,
		mcat.ITerm: forceITerm,
		mcat.Sixel: forceSixel,
		mcat.Ascii: forceAscii,
	}
	// First forced protocol wins, in capability order.
	for _, kind := range []mcat.EncoderKind{mcat.Kitty, mcat.ITerm, mcat.Sixel, mcat.Ascii} {
		if force[kind] {
			k := kind
			ropts.Encoder = &k
			break
		}
	}
	return ropts, winOpts, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
