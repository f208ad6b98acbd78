// Package config loads the render core's startup configuration. The
// original collaborator is a plain INI file read during core startup, with
// failure to open treated as fatal; this module keeps that contract but
// decodes TOML instead, via github.com/pelletier/go-toml/v2 — the closest
// structured key/section format already present in this codebase's
// dependency stack.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/oxy-engine/rendercore/rendererr"
)

// Config is the flat set of keys the render core reads at startup.
type Config struct {
	Window     WindowConfig     `toml:"window"`
	Render     RenderConfig     `toml:"render"`
	Shaders    ShaderConfig     `toml:"shaders"`
	Diagnostic DiagnosticConfig `toml:"diagnostics"`
}

type WindowConfig struct {
	Width      int  `toml:"width"`
	Height     int  `toml:"height"`
	Fullscreen bool `toml:"fullscreen"`
}

type RenderConfig struct {
	FrameSlotCount  int     `toml:"frame_slot_count"`
	FrameRateLimit  float64 `toml:"frame_rate_limit"` // 0 = uncapped
	MSAASampleCount int     `toml:"msaa_sample_count"`
}

type ShaderConfig struct {
	Directory   string `toml:"directory"`
	HotReload   bool   `toml:"hot_reload"`
	WorkerCount int    `toml:"worker_count"`
}

type DiagnosticConfig struct {
	ProfilingEnabled bool `toml:"profiling_enabled"`
}

// Default returns the configuration used when no file is present and the
// caller has opted not to treat that as fatal.
func Default() Config {
	return Config{
		Window: WindowConfig{Width: 1280, Height: 720},
		Render: RenderConfig{FrameSlotCount: 2, MSAASampleCount: 1},
		Shaders: ShaderConfig{
			Directory:   "shaders",
			HotReload:   true,
			WorkerCount: 4,
		},
	}
}

// Loader reads the startup configuration from a named source. It is an
// interface so call sites (and tests) can substitute an in-memory loader
// without touching the filesystem.
type Loader interface {
	Load() (Config, error)
}

// FileLoader reads and decodes a TOML document from Path. Opening or
// decoding failure is always reported as KindConfiguration, matching the
// original "failure to open is fatal" contract — the caller decides whether
// "fatal" means os.Exit or a returned error up the stack.
type FileLoader struct {
	Path string
}

// Load implements Loader.
func (l FileLoader) Load() (Config, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return Config{}, rendererr.Wrap(rendererr.KindConfiguration, fmt.Sprintf("opening config file %q", l.Path), err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, rendererr.Wrap(rendererr.KindConfiguration, fmt.Sprintf("decoding config file %q", l.Path), err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, rendererr.Wrap(rendererr.KindConfiguration, "validating config", err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window.width and window.height must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Render.FrameSlotCount <= 0 {
		return fmt.Errorf("render.frame_slot_count must be positive, got %d", c.Render.FrameSlotCount)
	}
	if c.Shaders.Directory == "" {
		return fmt.Errorf("shaders.directory must not be empty")
	}
	return nil
}
