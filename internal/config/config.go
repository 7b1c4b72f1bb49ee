package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"daycanvas/internal/gesture"
	"daycanvas/internal/model"
	"daycanvas/internal/navigator"
	"daycanvas/internal/place"
	"daycanvas/internal/schedule"
	"daycanvas/internal/spring"
	"daycanvas/internal/viewport"
)

// ICSConfig is one calendar subscription.
type ICSConfig struct {
	ID  string `yaml:"id" json:"id"`
	URL string `yaml:"url" json:"url"`
	// Kind, if set, tags every entry of the feed (task, focus, break...).
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// BasicAuthConfig protects every endpoint except /health.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CanvasConfig is the time grid geometry.
type CanvasConfig struct {
	HourHeight float64 `yaml:"hour_height" json:"hour_height"`
	DaySpacing float64 `yaml:"day_spacing" json:"day_spacing"`
	// WorkStart/WorkEnd are "HH:MM"; their midpoint centres unvisited days.
	WorkStart string `yaml:"work_start" json:"work_start"`
	WorkEnd   string `yaml:"work_end" json:"work_end"`

	Gutter    float64 `yaml:"gutter" json:"gutter"`
	Gap       float64 `yaml:"gap" json:"gap"`
	MinHeight float64 `yaml:"min_height" json:"min_height"`

	// Width/Height is the viewport used until a client reports its own.
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// SpringConfig picks a preset; non-zero fields override it.
type SpringConfig struct {
	Preset    string  `yaml:"preset" json:"preset"`
	Stiffness float64 `yaml:"stiffness,omitempty" json:"stiffness,omitempty"`
	Damping   float64 `yaml:"damping,omitempty" json:"damping,omitempty"`
	Mass      float64 `yaml:"mass,omitempty" json:"mass,omitempty"`
}

// GestureConfig picks a threshold preset; non-zero fields override it.
type GestureConfig struct {
	Preset             string `yaml:"preset" json:"preset"`
	gesture.Thresholds `yaml:",inline" json:"overrides"`
}

type FrameConfig struct {
	FPS      int           `yaml:"fps" json:"fps"`
	MaxDelta time.Duration `yaml:"max_delta" json:"max_delta"`
}

// CaptureConfig controls the headless PNG preview.
type CaptureConfig struct {
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
	Output string `yaml:"output" json:"output"`
	// Cron, if set, makes serve write Output on this schedule.
	Cron string `yaml:"cron,omitempty" json:"cron,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	Listen   string `yaml:"listen" json:"listen"`
	Timezone string `yaml:"timezone" json:"timezone"`
	// RefreshCron re-fetches calendar sources (five-field cron).
	RefreshCron string `yaml:"refresh" json:"refresh"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
	CacheDir    string `yaml:"cache_dir" json:"cache_dir"`

	ICS       []ICSConfig      `yaml:"ics" json:"ics"`
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Canvas  CanvasConfig  `yaml:"canvas" json:"canvas"`
	Spring  SpringConfig  `yaml:"spring" json:"spring"`
	Gesture GestureConfig `yaml:"gesture" json:"gesture"`
	Frame   FrameConfig   `yaml:"frame" json:"frame"`
	Capture CaptureConfig `yaml:"capture" json:"capture"`
}

func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Local",
		RefreshCron: "*/15 * * * *",
		LogLevel:    "info",
		CacheDir:    "./var/ics-cache",
		ICS:         []ICSConfig{},
		Canvas: CanvasConfig{
			HourHeight: viewport.DefaultSpace.HourHeight,
			DaySpacing: viewport.DefaultSpace.DaySpacing,
			WorkStart:  "09:00",
			WorkEnd:    "17:00",
			Gutter:     56,
			Gap:        4,
			MinHeight:  16,
			Width:      800,
			Height:     600,
		},
		Spring:  SpringConfig{Preset: "default"},
		Gesture: GestureConfig{Preset: "standard"},
		Frame:   FrameConfig{FPS: 60, MaxDelta: 100 * time.Millisecond},
		Capture: CaptureConfig{Width: 800, Height: 600, Output: "./var/preview.png"},
	}
}

// Normalize fills zero values from DefaultConfig so partial files work.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			c.ICS[i].ID = fmt.Sprintf("ics-%d", i+1)
		}
	}

	cv := &c.Canvas
	if cv.HourHeight <= 0 {
		cv.HourHeight = d.Canvas.HourHeight
	}
	if cv.DaySpacing < 0 {
		cv.DaySpacing = d.Canvas.DaySpacing
	}
	if cv.WorkStart == "" {
		cv.WorkStart = d.Canvas.WorkStart
	}
	if cv.WorkEnd == "" {
		cv.WorkEnd = d.Canvas.WorkEnd
	}
	if cv.Width <= 0 {
		cv.Width = d.Canvas.Width
	}
	if cv.Height <= 0 {
		cv.Height = d.Canvas.Height
	}

	if c.Spring.Preset == "" {
		c.Spring.Preset = d.Spring.Preset
	}
	if c.Gesture.Preset == "" {
		c.Gesture.Preset = d.Gesture.Preset
	}
	if c.Frame.FPS <= 0 {
		c.Frame.FPS = d.Frame.FPS
	}
	if c.Frame.MaxDelta <= 0 {
		c.Frame.MaxDelta = d.Frame.MaxDelta
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = d.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = d.Capture.Height
	}
	if c.Capture.Output == "" {
		c.Capture.Output = d.Capture.Output
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, _, err := c.WorkHours(); err != nil {
		return err
	}
	if err := c.SpringConfig().Validate(); err != nil {
		return fmt.Errorf("config: spring: %w", err)
	}
	for _, s := range c.ICS {
		if strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("config: ics %q has no url", s.ID)
		}
		if _, err := model.ParseKind(s.Kind); err != nil {
			return fmt.Errorf("config: ics %q: %w", s.ID, err)
		}
	}
	return nil
}

// Location resolves Timezone; "Local" is the host zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// WorkHours returns the working window in minutes since midnight.
func (c *Config) WorkHours() (start, end int, err error) {
	if start, err = model.ParseClock(c.Canvas.WorkStart); err != nil {
		return 0, 0, fmt.Errorf("config: work_start: %w", err)
	}
	if end, err = model.ParseClock(c.Canvas.WorkEnd); err != nil {
		return 0, 0, fmt.Errorf("config: work_end: %w", err)
	}
	if end <= start {
		return 0, 0, fmt.Errorf("config: work_end %s not after work_start %s", c.Canvas.WorkEnd, c.Canvas.WorkStart)
	}
	return start, end, nil
}

func (c *Config) Space() viewport.Space {
	return viewport.Space{HourHeight: c.Canvas.HourHeight, DaySpacing: c.Canvas.DaySpacing}
}

// Viewport is the configured default surface size.
func (c *Config) Viewport() viewport.Viewport {
	return viewport.Viewport{Width: c.Canvas.Width, Height: c.Canvas.Height}
}

func (c *Config) PlaceOptions() place.Options {
	return place.Options{Gutter: c.Canvas.Gutter, Gap: c.Canvas.Gap, MinHeight: c.Canvas.MinHeight}
}

func (c *Config) SpringConfig() spring.Config {
	s := spring.Preset(c.Spring.Preset)
	if c.Spring.Stiffness != 0 {
		s.Stiffness = c.Spring.Stiffness
	}
	if c.Spring.Damping != 0 {
		s.Damping = c.Spring.Damping
	}
	if c.Spring.Mass != 0 {
		s.Mass = c.Spring.Mass
	}
	return s
}

func (c *Config) Thresholds() gesture.Thresholds {
	return c.Gesture.Thresholds.Merge(gesture.Preset(c.Gesture.Preset))
}

// Navigator builds the navigator config for a surface of size vp.
func (c *Config) Navigator(vp viewport.Viewport) (navigator.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return navigator.Config{}, err
	}
	start, end, err := c.WorkHours()
	if err != nil {
		return navigator.Config{}, err
	}
	return navigator.Config{
		Space:     c.Space(),
		Viewport:  vp,
		Spring:    c.SpringConfig(),
		WorkStart: start,
		WorkEnd:   end,
		Location:  loc,
	}, nil
}

func (c *Config) Sources() []schedule.Source {
	out := make([]schedule.Source, 0, len(c.ICS))
	for _, s := range c.ICS {
		out = append(out, schedule.Source{ID: s.ID, URL: s.URL, Kind: s.Kind})
	}
	return out
}

// Load reads the YAML file at path. A missing file is created with the
// defaults (0600) and those defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			return cfg, Save(path, cfg)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg atomically (temp file in the same directory, then
// rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".daycanvas-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
