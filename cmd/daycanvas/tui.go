package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"daycanvas/internal/frame"
	appLog "daycanvas/internal/log"
	"daycanvas/internal/navigator"
	"daycanvas/internal/tui"
	"daycanvas/internal/viewport"
)

func newTUICmd(a *app) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the day canvas in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The alternate screen owns stderr; logs go to a file or nowhere.
			var sink io.Writer = io.Discard
			if logFile != "" {
				if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
					return err
				}
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				sink = f
			}
			appLog.SetOutput(sink)

			cfg, err := a.load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			st, err := a.store(cfg)
			if err != nil {
				return err
			}
			if err := st.Refresh(ctx); err != nil {
				appLog.Warn("initial refresh incomplete", "err", err.Error())
			}
			refresher, err := st.Schedule(ctx, cfg.RefreshCron)
			if err != nil {
				return err
			}
			defer refresher.Stop()

			// The real size arrives with the first WindowSizeMsg.
			nc, err := cfg.Navigator(viewport.Viewport{})
			if err != nil {
				return err
			}
			nav, err := navigator.New(nc)
			if err != nil {
				return err
			}
			m := tui.New(nav, cfg.Thresholds(), st, cfg.PlaceOptions(),
				frame.WithFPS(cfg.Frame.FPS),
				frame.WithMaxDelta(cfg.Frame.MaxDelta),
			)
			return tui.Run(m)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs here while the UI runs")
	return cmd
}
