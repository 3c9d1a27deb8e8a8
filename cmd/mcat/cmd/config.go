package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/michael-eddy/mcat"
)

// fileConfig mirrors ~/.config/mcat/config.toml. Every field is optional
// and only overrides the built-in default when set.
type fileConfig struct {
	Encoder string  `koanf:"encoder"`
	Width   string  `koanf:"width"`
	Height  string  `koanf:"height"`
	Center  *bool   `koanf:"center"`
	Zoom    uint8   `koanf:"zoom"`
	Spx     string  `koanf:"spx"`
	Sc      string  `koanf:"sc"`
	Scale   float32 `koanf:"scale"`
}

func configPath() string {
	return filepath.Join(xdg.ConfigHome, "mcat", "config.toml")
}

// loadConfig reads the config file if it exists. A missing file is not
// an error; a malformed one is.
func loadConfig() (*fileConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath()), toml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", configPath(), err)
	}
	cfg := &fileConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath(), err)
	}
	return cfg, nil
}

func applyConfig(cfg *fileConfig, ropts *mcat.RenderOptions, winOpts *mcat.WinSizeOptions) error {
	if cfg.Encoder != "" {
		kind, err := mcat.ParseEncoderKind(cfg.Encoder)
		if err != nil {
			return err
		}
		ropts.Encoder = &kind
	}
	if cfg.Width != "" {
		ropts.Width = cfg.Width
	}
	if cfg.Height != "" {
		ropts.Height = cfg.Height
	}
	if cfg.Center != nil {
		ropts.Center = *cfg.Center
	}
	if cfg.Zoom > 0 {
		ropts.Zoom = cfg.Zoom
	}
	if cfg.Spx != "" {
		size, err := mcat.ParseSize(cfg.Spx)
		if err != nil {
			return err
		}
		winOpts.SpxFallback = size
	}
	if cfg.Sc != "" {
		size, err := mcat.ParseSize(cfg.Sc)
		if err != nil {
			return err
		}
		winOpts.ScFallback = size
	}
	if cfg.Scale > 0 {
		winOpts.Scale = cfg.Scale
	}
	return nil
}
