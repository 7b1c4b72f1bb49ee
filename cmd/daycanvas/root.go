package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"daycanvas/internal/config"
	appLog "daycanvas/internal/log"
	"daycanvas/internal/navigator"
	"daycanvas/internal/schedule"
)

const version = "0.1.0"

type app struct {
	configPath string
	debug      bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "daycanvas",
		Short:        "Day-by-day time grid with spring paging",
		Version:      version,
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Serve the canvas and API
  daycanvas serve --config ./config.yaml

  # Lay out a list of entries and print the columns
  daycanvas layout day.yaml

  # Browse in the terminal
  daycanvas tui
`),
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "./config.yaml", "Path to config file (created with defaults if missing)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Verbose logging")

	cmd.AddCommand(
		newServeCmd(a),
		newLayoutCmd(a),
		newPreviewCmd(a),
		newTUICmd(a),
	)
	return cmd
}

// load reads the config once and applies the log level.
func (a *app) load() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", a.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level := appLog.ParseLevel(cfg.LogLevel)
	if a.debug {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)
	appLog.Debug("effective config",
		"config", a.configPath,
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"refresh", cfg.RefreshCron,
		"ics_count", len(cfg.ICS),
		"spring", cfg.Spring.Preset,
		"gesture", cfg.Gesture.Preset,
	)
	a.cfg = cfg
	return cfg, nil
}

func (a *app) store(cfg *config.Config) (*schedule.Store, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return schedule.NewStore(schedule.NewFetcher(cfg.CacheDir), cfg.Sources(), loc), nil
}

// parseDate reads YYYY-MM-DD in loc; empty means today.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now().In(loc), nil
	}
	d, err := time.ParseInLocation(navigator.DateKeyLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}
