package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ItsNotGoodName/x-deskwm/internal/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, viewport.Viewport{Width: 1280, Height: 800, ReservedBottom: 48, TitleHeight: 32}, cfg.ViewportValue())
	assert.Equal(t, 15.0, cfg.Snap.Threshold)
	assert.Equal(t, Window{MinWidth: 160, MinHeight: 120}, cfg.Window)
	assert.Equal(t, "default", cfg.Session.Name)
	assert.Equal(t, 2*time.Second, cfg.Session.Autosave)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
viewport:
  width: 1920
  height: 1080
  reserved_top: 24
snap:
  threshold: 8
session:
  driver: diskv
  path: /tmp/sessions
  autosave: 10s
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1920.0, cfg.Viewport.Width)
	assert.Equal(t, 1080.0, cfg.Viewport.Height)
	assert.Equal(t, 24.0, cfg.Viewport.ReservedTop)
	assert.Equal(t, 48.0, cfg.Viewport.ReservedBottom)
	assert.Equal(t, 8.0, cfg.Snap.Threshold)
	assert.Equal(t, "diskv", cfg.Session.Driver)
	assert.Equal(t, 10*time.Second, cfg.Session.Autosave)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DESKWM_VIEWPORT_WIDTH", "640")
	t.Setenv("DESKWM_SESSION_AUTOSAVE", "0s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 640.0, cfg.Viewport.Width)
	assert.Equal(t, time.Duration(0), cfg.Session.Autosave)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Viewport.Width = 0
	cfg.Snap.Threshold = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}
