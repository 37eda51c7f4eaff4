package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ItsNotGoodName/x-deskwm/internal/interact"
	"github.com/ItsNotGoodName/x-deskwm/internal/viewport"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DESKWM_VIEWPORT_WIDTH or DESKWM_SESSION_AUTOSAVE.
const EnvPrefix = "DESKWM"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Viewport Viewport
	Snap     Snap
	Window   Window
	Session  Session
}

type Viewport struct {
	Width          float64
	Height         float64
	ReservedTop    float64 `mapstructure:"reserved_top"`
	ReservedBottom float64 `mapstructure:"reserved_bottom"`
	TitleHeight    float64 `mapstructure:"title_height"`
}

type Snap struct {
	Threshold float64
}

// Window holds the minimum size given to windows that do not ask for one.
type Window struct {
	MinWidth  float64 `mapstructure:"min_width"`
	MinHeight float64 `mapstructure:"min_height"`
}

type Session struct {
	// Driver is one of yaml, json or diskv. Empty picks by file extension.
	Driver string
	Path   string
	Name   string
	// Autosave is the quiet period before changes are written. Zero turns
	// autosave off.
	Autosave time.Duration
}

func defaults(v *viper.Viper) {
	v.SetDefault("viewport.width", 1280)
	v.SetDefault("viewport.height", 800)
	v.SetDefault("viewport.reserved_top", 0)
	v.SetDefault("viewport.reserved_bottom", 48)
	v.SetDefault("viewport.title_height", 32)
	v.SetDefault("snap.threshold", interact.DefaultSnapThreshold)
	v.SetDefault("window.min_width", 160)
	v.SetDefault("window.min_height", 120)
	v.SetDefault("session.driver", "")
	v.SetDefault("session.path", "x-deskwm.session.yml")
	v.SetDefault("session.name", "default")
	v.SetDefault("session.autosave", 2*time.Second)
}

// Load reads the config file at path, when given, and applies environment
// overrides on top of the defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs error
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = errors.Join(errs, fmt.Errorf("%w: viewport must have a positive size", ErrInvalid))
	}
	if c.Viewport.ReservedTop < 0 || c.Viewport.ReservedBottom < 0 || c.Viewport.TitleHeight < 0 {
		errs = errors.Join(errs, fmt.Errorf("%w: reserved bars and title height cannot be negative", ErrInvalid))
	}
	if c.Snap.Threshold < 0 {
		errs = errors.Join(errs, fmt.Errorf("%w: snap threshold cannot be negative", ErrInvalid))
	}
	if c.Session.Autosave < 0 {
		errs = errors.Join(errs, fmt.Errorf("%w: autosave cannot be negative", ErrInvalid))
	}
	return errs
}

func (c Config) ViewportValue() viewport.Viewport {
	return viewport.Viewport{
		Width:          c.Viewport.Width,
		Height:         c.Viewport.Height,
		ReservedTop:    c.Viewport.ReservedTop,
		ReservedBottom: c.Viewport.ReservedBottom,
		TitleHeight:    c.Viewport.TitleHeight,
	}
}
