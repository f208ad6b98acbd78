package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/oxy-engine/rendercore/rendererr"
)

func TestFileLoaderReadsOverridesOnTopOfDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "render.toml")
	body := `
[window]
width = 1920
height = 1080

[render]
frame_slot_count = 3
frame_rate_limit = 144
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := FileLoader{Path: path}.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Fatalf("window = %+v, want 1920x1080", cfg.Window)
	}
	if cfg.Render.FrameSlotCount != 3 {
		t.Fatalf("FrameSlotCount = %d, want 3", cfg.Render.FrameSlotCount)
	}
	// Shaders section was absent from the file; defaults must still apply.
	if cfg.Shaders.Directory != "shaders" {
		t.Fatalf("Shaders.Directory = %q, want default %q", cfg.Shaders.Directory, "shaders")
	}
}

// TestFileLoaderMissingFileIsConfigurationError ensures opening failure is
// reported through the Configuration error kind rather than a bare os error.
func TestFileLoaderMissingFileIsConfigurationError(t *testing.T) {
	_, err := FileLoader{Path: filepath.Join(t.TempDir(), "does-not-exist.toml")}.Load()
	if err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
	if !rendererrIsConfiguration(err) {
		t.Fatalf("expected a Configuration-kind error, got %v", err)
	}
}

// TestFileLoaderMalformedKeyIsConfigurationError ensures a decode failure is
// tagged the same way as an open failure.
func TestFileLoaderMalformedKeyIsConfigurationError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "render.toml")
	if err := os.WriteFile(path, []byte("this is not valid toml ::::"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := FileLoader{Path: path}.Load()
	if err == nil {
		t.Fatalf("expected a decode error")
	}
	if !rendererrIsConfiguration(err) {
		t.Fatalf("expected a Configuration-kind error, got %v", err)
	}
}

// TestFileLoaderRejectsInvalidWindowSize ensures validation runs even when
// decoding succeeds.
func TestFileLoaderRejectsInvalidWindowSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "render.toml")
	body := "[window]\nwidth = 0\nheight = 0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := FileLoader{Path: path}.Load()
	if err == nil {
		t.Fatalf("expected a validation error for a zero-sized window")
	}
}

func rendererrIsConfiguration(err error) bool {
	var e *rendererr.Error
	return errors.As(err, &e) && e.Kind == rendererr.KindConfiguration
}
