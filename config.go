package vview

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Config holds the user-tunable settings of a viewer. Zero fields fall back
// to their defaults when the config is applied.
type Config struct {
	// TapDelayMS is the isolated-tap commit delay in milliseconds.
	TapDelayMS int `json:"tap_delay_ms"`
	// TapMoveThreshold is how far a tap may move, in pixels.
	TapMoveThreshold float64 `json:"tap_move_threshold"`
	// FlingSampleMS is the window for fling velocity estimation.
	FlingSampleMS int `json:"fling_sample_ms"`

	Scroller  ScrollerConfig  `json:"scroller"`
	Slideshow SlideshowConfig `json:"slideshow"`

	// LoopAnimations restarts zip animations at the end.
	LoopAnimations bool `json:"loop_animations"`
	// PlaybackSpeed is the default zip animation rate.
	PlaybackSpeed float64 `json:"playback_speed"`
	// MaxZoom caps viewer zoom as a multiple of natural size.
	MaxZoom float64 `json:"max_zoom"`

	Debug bool `json:"debug"`
}

// DefaultConfig returns the standard settings.
func DefaultConfig() *Config {
	return &Config{
		TapDelayMS:       int(defaultTapDelay / time.Millisecond),
		TapMoveThreshold: defaultTapMoveThreshold,
		FlingSampleMS:    int(defaultFlingSamplePeriod / time.Millisecond),
		Scroller:         DefaultScrollerConfig(),
		Slideshow:        DefaultSlideshowConfig(),
		LoopAnimations:   true,
		PlaybackSpeed:    1,
		MaxZoom:          8,
	}
}

// ParseConfig reads a JSON config. Fields missing from the input keep their
// defaults.
func ParseConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadConfig reads a JSON config file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	defer f.Close()
	cfg, err := ParseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.TapDelayMS <= 0 {
		c.TapDelayMS = d.TapDelayMS
	}
	if c.TapMoveThreshold <= 0 {
		c.TapMoveThreshold = d.TapMoveThreshold
	}
	if c.FlingSampleMS <= 0 {
		c.FlingSampleMS = d.FlingSampleMS
	}
	if c.PlaybackSpeed <= 0 {
		c.PlaybackSpeed = d.PlaybackSpeed
	}
	if c.MaxZoom <= 0 {
		c.MaxZoom = d.MaxZoom
	}
	c.Scroller.applyDefaults()
	c.Slideshow.applyDefaults()
}

// TapOptions returns tap detector options from the config.
func (c *Config) TapOptions(callback func(*PointerEvent)) TapOptions {
	return TapOptions{
		Delay:         time.Duration(c.TapDelayMS) * time.Millisecond,
		MoveThreshold: c.TapMoveThreshold,
		Callback:      callback,
	}
}

// ScrollerConfig returns the scroller physics with the sample window applied.
func (c *Config) ScrollerConfig() ScrollerConfig {
	s := c.Scroller
	s.SamplePeriod = time.Duration(c.FlingSampleMS) * time.Millisecond
	return s
}

// Apply sets package-wide state from the config.
func (c *Config) Apply() {
	Debug = c.Debug
}

// ConfigLoader finds and loads the config file.
type ConfigLoader struct {
	// OverridePath is checked first.
	OverridePath string
}

// NewConfigLoader creates a loader checking overridePath before the
// standard location.
func NewConfigLoader(overridePath string) *ConfigLoader {
	return &ConfigLoader{OverridePath: overridePath}
}

// Load loads the config file, or returns the defaults if there is none.
func (l *ConfigLoader) Load() (*Config, error) {
	path := l.ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// ConfigPath returns the path of the config file, or "" if none exists.
func (l *ConfigLoader) ConfigPath() string {
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "vview", "config.json")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	home, _ := os.UserHomeDir()
	p := filepath.Join(home, ".config", "vview", "config.json")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}
